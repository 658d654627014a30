package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/codec"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	paymentDir = "payments"
)

type paymentRepository struct {
	store *badgerhold.Store
}

func NewPaymentRepository(baseDir string, logger badger.Logger) (domain.PaymentRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, paymentDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open payment store: %s", err)
	}
	return &paymentRepository{store}, nil
}

func (r *paymentRepository) AddIncomingPayment(
	ctx context.Context, preimage lntypes.Preimage, origin domain.IncomingOrigin, createdAt time.Time,
) (*domain.IncomingPayment, error) {
	payment := domain.NewIncomingPayment(preimage, origin, createdAt)
	data, err := toIncomingPaymentData(payment)
	if err != nil {
		return nil, err
	}

	if err := update(r.store, func(tx *badger.Txn) error {
		return r.store.TxInsert(tx, data.PaymentHash, data)
	}); err != nil {
		if errors.Is(err, badgerhold.ErrKeyExists) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentHash, data.PaymentHash)
		}
		return nil, fmt.Errorf("failed to add incoming payment: %w", err)
	}
	return &payment, nil
}

func (r *paymentRepository) ReceivePayment(
	ctx context.Context, paymentHash lntypes.Hash, parts []domain.ReceivedWith, receivedAt time.Time,
) (bool, error) {
	var found bool
	err := update(r.store, func(tx *badger.Txn) error {
		found = false

		var data incomingPaymentData
		if err := r.store.TxGet(tx, paymentHash.String(), &data); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}
		found = true

		payment, err := data.toIncomingPayment()
		if err != nil {
			return err
		}
		payment.Received = domain.MergeReceived(payment.Received, parts, receivedAt)

		updated, err := toIncomingPaymentData(*payment)
		if err != nil {
			return err
		}
		if err := r.store.TxUpdate(tx, updated.PaymentHash, updated); err != nil {
			return err
		}

		paymentId := payment.PaymentId()
		for _, txId := range domain.TxIds(parts) {
			if err := r.linkTx(tx, txId, paymentId, nil, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to receive payment %s: %w", paymentHash, err)
	}
	return found, nil
}

func (r *paymentRepository) GetIncomingPayment(
	ctx context.Context, paymentHash lntypes.Hash,
) (*domain.IncomingPayment, error) {
	var data incomingPaymentData
	if err := r.store.Get(paymentHash.String(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incoming payment: %w", err)
	}
	return data.toIncomingPayment()
}

func (r *paymentRepository) ListExpiredPayments(
	ctx context.Context, from, to time.Time,
) ([]domain.IncomingPayment, error) {
	var dataList []incomingPaymentData
	query := badgerhold.Where("ReceivedAt").Eq(int64(0)).
		And("CreatedAt").Ge(from.UnixMilli()).
		And("CreatedAt").Le(to.UnixMilli())
	if err := r.store.Find(&dataList, query); err != nil {
		return nil, fmt.Errorf("failed to list expired payments: %w", err)
	}

	payments := make([]domain.IncomingPayment, 0, len(dataList))
	for _, data := range dataList {
		payment, err := data.toIncomingPayment()
		if err != nil {
			log.WithError(err).Warnf("skipping undecodable incoming payment %s", data.PaymentHash)
			continue
		}
		if payment.IsExpiredUnpaid(to) {
			payments = append(payments, *payment)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].Created.Before(payments[j].Created)
	})
	return payments, nil
}

func (r *paymentRepository) RemoveIncomingPayment(
	ctx context.Context, paymentHash lntypes.Hash,
) (bool, error) {
	var removed bool
	err := update(r.store, func(tx *badger.Txn) error {
		removed = false
		key := paymentHash.String()
		if err := r.store.TxDelete(tx, key, incomingPaymentData{}); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}
		removed = true

		paymentId := domain.IncomingPaymentId(paymentHash)
		return r.store.TxDeleteMatching(
			tx, txLinkData{},
			badgerhold.Where("PaymentType").Eq(int(paymentId.Type)).And("PaymentId").Eq(paymentId.Id),
		)
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove incoming payment %s: %w", paymentHash, err)
	}
	return removed, nil
}

func (r *paymentRepository) AddOutgoingPayment(
	ctx context.Context, payment domain.LightningOutgoingPayment,
) error {
	data, err := toOutgoingPaymentData(payment)
	if err != nil {
		return err
	}
	parts, err := toOutgoingPartsData(payment.Id, payment.Parts)
	if err != nil {
		return err
	}

	return update(r.store, func(tx *badger.Txn) error {
		taken, err := r.exists(tx, data.Id, &onChainPaymentData{})
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, data.Id)
		}
		if err := r.store.TxInsert(tx, data.Id, data); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, data.Id)
			}
			return fmt.Errorf("failed to add outgoing payment: %w", err)
		}
		return r.insertParts(tx, parts)
	})
}

func (r *paymentRepository) AddOutgoingLightningParts(
	ctx context.Context, parentId uuid.UUID, parts []domain.LightningOutgoingPart,
) error {
	partsData, err := toOutgoingPartsData(parentId, parts)
	if err != nil {
		return err
	}

	return update(r.store, func(tx *badger.Txn) error {
		var parent outgoingPaymentData
		if err := r.store.TxGet(tx, parentId.String(), &parent); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, parentId)
			}
			return err
		}
		if parent.StatusType != "" {
			return fmt.Errorf("%w: %s", domain.ErrPaymentAlreadyCompleted, parentId)
		}
		return r.insertParts(tx, partsData)
	})
}

func (r *paymentRepository) insertParts(tx *badger.Txn, parts []outgoingPartData) error {
	for _, part := range parts {
		if err := r.store.TxInsert(tx, part.Id, part); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePartId, part.Id)
			}
			return fmt.Errorf("failed to add outgoing part: %w", err)
		}
	}
	return nil
}

func (r *paymentRepository) CompleteOutgoingLightningPart(
	ctx context.Context, partId uuid.UUID, outcome domain.PartOutcome, completedAt time.Time,
) (bool, error) {
	typ, blob, err := codec.EncodePartStatus(domain.PartStatusFromOutcome(outcome, completedAt))
	if err != nil {
		return false, err
	}

	var updated bool
	err = update(r.store, func(tx *badger.Txn) error {
		updated = false
		var part outgoingPartData
		if err := r.store.TxGet(tx, partId.String(), &part); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}
		if part.StatusType != "" {
			return nil
		}
		part.StatusType = typ
		part.StatusBlob = blob
		part.CompletedAt = completedAt.UnixMilli()
		if err := r.store.TxUpdate(tx, part.Id, part); err != nil {
			return err
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete outgoing part %s: %w", partId, err)
	}
	return updated, nil
}

func (r *paymentRepository) CompleteOutgoingPaymentOffchain(
	ctx context.Context, id uuid.UUID, outcome domain.OffchainOutcome, completedAt time.Time,
) (bool, error) {
	status := domain.StatusFromOutcome(outcome, completedAt)
	return r.completeOutgoingPayment(id, status, completedAt, nil)
}

func (r *paymentRepository) CompleteOutgoingPaymentForClosing(
	ctx context.Context, id uuid.UUID, parts []domain.ClosingTxPart, completedAt time.Time,
) (bool, error) {
	status := domain.OutgoingSucceededOnChain{Parts: parts, CompletedAt: completedAt}
	txIds := make([]chainhash.Hash, 0, len(parts))
	for _, p := range parts {
		txIds = append(txIds, p.TxId)
	}
	return r.completeOutgoingPayment(id, status, completedAt, txIds)
}

func (r *paymentRepository) completeOutgoingPayment(
	id uuid.UUID, status domain.LightningOutgoingStatus, completedAt time.Time,
	txIds []chainhash.Hash,
) (bool, error) {
	typ, blob, err := codec.EncodeStatus(status)
	if err != nil {
		return false, err
	}

	var updated bool
	err = update(r.store, func(tx *badger.Txn) error {
		updated = false
		var data outgoingPaymentData
		if err := r.store.TxGet(tx, id.String(), &data); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}
		if data.StatusType != "" {
			return nil
		}
		data.StatusType = typ
		data.StatusBlob = blob
		data.CompletedAt = completedAt.UnixMilli()
		if err := r.store.TxUpdate(tx, data.Id, data); err != nil {
			return err
		}

		paymentId := domain.LightningOutgoingPaymentId(id)
		for _, txId := range txIds {
			if err := r.linkTx(tx, txId, paymentId, nil, nil); err != nil {
				return err
			}
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete outgoing payment %s: %w", id, err)
	}
	return updated, nil
}

func (r *paymentRepository) GetLightningOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	var payment *domain.LightningOutgoingPayment
	err := view(r.store, func(tx *badger.Txn) error {
		var err error
		payment, err = r.getOutgoingPayment(tx, id.String())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get outgoing payment %s: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) GetLightningOutgoingPaymentFromPartId(
	ctx context.Context, partId uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	var payment *domain.LightningOutgoingPayment
	err := view(r.store, func(tx *badger.Txn) error {
		var part outgoingPartData
		if err := r.store.TxGet(tx, partId.String(), &part); err != nil {
			if errors.Is(err, badgerhold.ErrNotFound) {
				return nil
			}
			return err
		}

		parent, err := r.getOutgoingPayment(tx, part.ParentId)
		if err != nil || parent == nil {
			return err
		}
		partStatus, err := codec.DecodePartStatus(part.StatusType, part.StatusBlob, fromMillis(part.CompletedAt))
		if err != nil {
			return err
		}
		if domain.IsPartVisible(parent.Status, partStatus) {
			payment = parent
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get outgoing payment from part %s: %w", partId, err)
	}
	return payment, nil
}

func (r *paymentRepository) ListOutgoingLightningParts(
	ctx context.Context, parentId uuid.UUID,
) ([]domain.LightningOutgoingPart, error) {
	var parts []domain.LightningOutgoingPart
	err := view(r.store, func(tx *badger.Txn) error {
		var err error
		parts, err = r.findParts(tx, parentId.String())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing parts: %w", err)
	}
	return parts, nil
}

// getOutgoingPayment returns nil if the payment does not exist. Parts hidden
// by the payment status are left out.
func (r *paymentRepository) getOutgoingPayment(
	tx *badger.Txn, id string,
) (*domain.LightningOutgoingPayment, error) {
	var data outgoingPaymentData
	if err := r.store.TxGet(tx, id, &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	parts, err := r.findParts(tx, id)
	if err != nil {
		return nil, err
	}
	return data.toOutgoingPayment(parts)
}

func (r *paymentRepository) findParts(tx *badger.Txn, parentId string) ([]domain.LightningOutgoingPart, error) {
	var dataList []outgoingPartData
	if err := r.store.TxFind(
		tx, &dataList, badgerhold.Where("ParentId").Eq(parentId).Index("ParentId"),
	); err != nil {
		return nil, err
	}

	parts := make([]domain.LightningOutgoingPart, 0, len(dataList))
	for _, data := range dataList {
		part, err := data.toOutgoingPart()
		if err != nil {
			return nil, err
		}
		parts = append(parts, *part)
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return parts[i].CreatedAt.Before(parts[j].CreatedAt)
	})
	return parts, nil
}

func (r *paymentRepository) AddOnChainOutgoingPayment(
	ctx context.Context, payment domain.OnChainOutgoingPayment,
) error {
	data := toOnChainPaymentData(payment)
	return update(r.store, func(tx *badger.Txn) error {
		taken, err := r.exists(tx, data.Id, &outgoingPaymentData{})
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, data.Id)
		}
		if err := r.store.TxInsert(tx, data.Id, data); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, data.Id)
			}
			return fmt.Errorf("failed to add onchain payment: %w", err)
		}
		return r.linkTx(tx, payment.TxId, payment.PaymentId(), payment.ConfirmedAt, payment.LockedAt)
	})
}

// exists tells whether a record of the type of dest is stored under key.
func (r *paymentRepository) exists(tx *badger.Txn, key string, dest any) (bool, error) {
	if err := r.store.TxGet(tx, key, dest); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *paymentRepository) GetOnChainOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.OnChainOutgoingPayment, error) {
	var data onChainPaymentData
	if err := r.store.Get(id.String(), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get onchain payment: %w", err)
	}
	return data.toOnChainPayment()
}

func (r *paymentRepository) SetConfirmed(
	ctx context.Context, txId chainhash.Hash, confirmedAt time.Time,
) (int, error) {
	return r.setTxStatus(txId, &confirmedAt, nil)
}

func (r *paymentRepository) SetLocked(
	ctx context.Context, txId chainhash.Hash, lockedAt time.Time,
) (int, error) {
	return r.setTxStatus(txId, nil, &lockedAt)
}

// setTxStatus updates the links of the transaction and every payment they
// point to in a single transaction.
func (r *paymentRepository) setTxStatus(
	txId chainhash.Hash, confirmedAt, lockedAt *time.Time,
) (int, error) {
	var count int
	err := update(r.store, func(tx *badger.Txn) error {
		count = 0
		var links []txLinkData
		if err := r.store.TxFind(
			tx, &links, badgerhold.Where("TxId").Eq(txId.String()).Index("TxId"),
		); err != nil {
			return err
		}

		for _, link := range links {
			changed := false
			if confirmedAt != nil && link.ConfirmedAt == 0 {
				link.ConfirmedAt = confirmedAt.UnixMilli()
				changed = true
			}
			if lockedAt != nil && link.LockedAt == 0 {
				link.LockedAt = lockedAt.UnixMilli()
				changed = true
			}
			if !changed {
				continue
			}
			if err := r.store.TxUpdate(tx, link.Key, link); err != nil {
				return err
			}
			if err := r.applyTxStatus(tx, link, txId, confirmedAt, lockedAt); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update payments of tx %s: %w", txId, err)
	}
	return count, nil
}

func (r *paymentRepository) applyTxStatus(
	tx *badger.Txn, link txLinkData, txId chainhash.Hash, confirmedAt, lockedAt *time.Time,
) error {
	switch domain.WalletPaymentType(link.PaymentType) {
	case domain.IncomingPaymentType:
		var data incomingPaymentData
		if err := r.store.TxGet(tx, link.PaymentId, &data); err != nil {
			return err
		}
		payment, err := data.toIncomingPayment()
		if err != nil {
			return err
		}
		if payment.Received == nil {
			return nil
		}
		parts, changed := domain.ConfirmParts(payment.Received.ReceivedWith, txId, confirmedAt, lockedAt)
		if !changed {
			return nil
		}
		payment.Received.ReceivedWith = parts
		updated, err := toIncomingPaymentData(*payment)
		if err != nil {
			return err
		}
		return r.store.TxUpdate(tx, updated.PaymentHash, updated)

	case domain.OnChainOutgoingPaymentType:
		var data onChainPaymentData
		if err := r.store.TxGet(tx, link.PaymentId, &data); err != nil {
			return err
		}
		if confirmedAt != nil && data.ConfirmedAt == 0 {
			data.ConfirmedAt = confirmedAt.UnixMilli()
		}
		if lockedAt != nil && data.LockedAt == 0 {
			data.LockedAt = lockedAt.UnixMilli()
		}
		return r.store.TxUpdate(tx, data.Id, data)

	default:
		// Closing transactions of lightning payments only carry the link.
		return nil
	}
}

func (r *paymentRepository) ListPaymentIdsForTx(
	ctx context.Context, txId chainhash.Hash,
) ([]domain.WalletPaymentId, error) {
	var links []txLinkData
	if err := r.store.Find(
		&links, badgerhold.Where("TxId").Eq(txId.String()).Index("TxId"),
	); err != nil {
		return nil, fmt.Errorf("failed to list payments of tx %s: %w", txId, err)
	}
	ids := make([]domain.WalletPaymentId, 0, len(links))
	for _, link := range links {
		ids = append(ids, domain.WalletPaymentId{
			Type: domain.WalletPaymentType(link.PaymentType),
			Id:   link.PaymentId,
		})
	}
	return ids, nil
}

func (r *paymentRepository) ListUnconfirmedTxIds(ctx context.Context) ([]chainhash.Hash, error) {
	var links []txLinkData
	if err := r.store.Find(&links, badgerhold.Where("ConfirmedAt").Eq(int64(0))); err != nil {
		return nil, fmt.Errorf("failed to list unconfirmed txs: %w", err)
	}

	seen := make(map[string]struct{})
	txIds := make([]chainhash.Hash, 0, len(links))
	for _, link := range links {
		if _, ok := seen[link.TxId]; ok {
			continue
		}
		seen[link.TxId] = struct{}{}
		txId, err := chainhash.NewHashFromStr(link.TxId)
		if err != nil {
			return nil, err
		}
		txIds = append(txIds, *txId)
	}
	return txIds, nil
}

func (r *paymentRepository) ListPayments(
	ctx context.Context, count, skip int,
) ([]domain.WalletPayment, error) {
	payments := make([]domain.WalletPayment, 0)
	err := view(r.store, func(tx *badger.Txn) error {
		var incoming []incomingPaymentData
		if err := r.store.TxFind(tx, &incoming, badgerhold.Where("ReceivedAt").Gt(int64(0))); err != nil {
			return err
		}
		for _, data := range incoming {
			payment, err := data.toIncomingPayment()
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable incoming payment %s", data.PaymentHash)
				continue
			}
			payments = append(payments, payment)
		}

		var outgoing []outgoingPaymentData
		if err := r.store.TxFind(tx, &outgoing, nil); err != nil {
			return err
		}
		for _, data := range outgoing {
			payment, err := r.getOutgoingPayment(tx, data.Id)
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable outgoing payment %s", data.Id)
				continue
			}
			payments = append(payments, payment)
		}

		var onchain []onChainPaymentData
		if err := r.store.TxFind(tx, &onchain, nil); err != nil {
			return err
		}
		for _, data := range onchain {
			payment, err := data.toOnChainPayment()
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable onchain payment %s", data.Id)
				continue
			}
			payments = append(payments, payment)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	sort.SliceStable(payments, func(i, j int) bool {
		return domain.SortTime(payments[i]).After(domain.SortTime(payments[j]))
	})
	if skip >= len(payments) {
		return []domain.WalletPayment{}, nil
	}
	payments = payments[skip:]
	if count > 0 && count < len(payments) {
		payments = payments[:count]
	}
	return payments, nil
}

// linkTx records that the transaction settles the payment. Existing links
// are left untouched.
func (r *paymentRepository) linkTx(
	tx *badger.Txn, txId chainhash.Hash, paymentId domain.WalletPaymentId,
	confirmedAt, lockedAt *time.Time,
) error {
	link := txLinkData{
		Key:         fmt.Sprintf("%s:%s", txId, paymentId),
		TxId:        txId.String(),
		PaymentType: int(paymentId.Type),
		PaymentId:   paymentId.Id,
		ConfirmedAt: toMillisPtr(confirmedAt),
		LockedAt:    toMillisPtr(lockedAt),
	}
	if err := r.store.TxInsert(tx, link.Key, link); err != nil && !errors.Is(err, badgerhold.ErrKeyExists) {
		return err
	}
	return nil
}

func (r *paymentRepository) Close() {
	// nolint:all
	r.store.Close()
}

type incomingPaymentData struct {
	PaymentHash  string
	Preimage     string
	OriginType   string
	OriginBlob   []byte
	CreatedAt    int64
	ReceivedAt   int64
	ReceivedType string
	ReceivedBlob []byte
}

type outgoingPaymentData struct {
	Id              string
	RecipientAmount uint64
	Recipient       string
	DetailsType     string
	DetailsBlob     []byte
	StatusType      string
	StatusBlob      []byte
	CreatedAt       int64
	CompletedAt     int64
}

type outgoingPartData struct {
	Id          string
	ParentId    string `badgerhold:"index"`
	Amount      uint64
	Route       string
	StatusType  string
	StatusBlob  []byte
	CreatedAt   int64
	CompletedAt int64
}

type onChainPaymentData struct {
	Id              string
	Kind            int
	RecipientAmount int64
	Address         string
	MiningFees      int64
	TxId            string
	ChannelId       string
	ClosingType     string
	CreatedAt       int64
	ConfirmedAt     int64
	LockedAt        int64
}

type txLinkData struct {
	Key         string
	TxId        string `badgerhold:"index"`
	PaymentType int
	PaymentId   string
	ConfirmedAt int64
	LockedAt    int64
}

func toIncomingPaymentData(payment domain.IncomingPayment) (incomingPaymentData, error) {
	originType, originBlob, err := codec.EncodeOrigin(payment.Origin)
	if err != nil {
		return incomingPaymentData{}, err
	}
	data := incomingPaymentData{
		PaymentHash: payment.PaymentHash.String(),
		Preimage:    payment.Preimage.String(),
		OriginType:  originType,
		OriginBlob:  originBlob,
		CreatedAt:   payment.Created.UnixMilli(),
	}
	if payment.Received != nil {
		receivedType, receivedBlob, err := codec.EncodeReceivedWith(payment.Received.ReceivedWith)
		if err != nil {
			return incomingPaymentData{}, err
		}
		data.ReceivedAt = payment.Received.ReceivedAt.UnixMilli()
		data.ReceivedType = receivedType
		data.ReceivedBlob = receivedBlob
	}
	return data, nil
}

func (d incomingPaymentData) toIncomingPayment() (*domain.IncomingPayment, error) {
	preimage, err := lntypes.MakePreimageFromStr(d.Preimage)
	if err != nil {
		return nil, fmt.Errorf("%w: preimage: %s", domain.ErrUnknownEncoding, err)
	}
	createdAt := time.UnixMilli(d.CreatedAt)
	origin, err := codec.DecodeOrigin(d.OriginType, d.OriginBlob, createdAt)
	if err != nil {
		return nil, err
	}
	payment := domain.NewIncomingPayment(preimage, origin, createdAt)
	if d.ReceivedAt > 0 {
		parts, err := codec.DecodeReceivedWith(d.ReceivedType, d.ReceivedBlob)
		if err != nil {
			return nil, err
		}
		payment.Received = &domain.IncomingReceived{
			ReceivedAt:   time.UnixMilli(d.ReceivedAt),
			ReceivedWith: parts,
		}
	}
	return &payment, nil
}

func toOutgoingPaymentData(payment domain.LightningOutgoingPayment) (outgoingPaymentData, error) {
	detailsType, detailsBlob, err := codec.EncodeDetails(payment.Details)
	if err != nil {
		return outgoingPaymentData{}, err
	}
	statusType, statusBlob, err := codec.EncodeStatus(payment.Status)
	if err != nil {
		return outgoingPaymentData{}, err
	}
	return outgoingPaymentData{
		Id:              payment.Id.String(),
		RecipientAmount: uint64(payment.RecipientAmount),
		Recipient:       payment.Recipient,
		DetailsType:     detailsType,
		DetailsBlob:     detailsBlob,
		StatusType:      statusType,
		StatusBlob:      statusBlob,
		CreatedAt:       payment.Created.UnixMilli(),
		CompletedAt:     toMillis(payment.CompletedAt()),
	}, nil
}

func (d outgoingPaymentData) toOutgoingPayment(
	parts []domain.LightningOutgoingPart,
) (*domain.LightningOutgoingPayment, error) {
	id, err := uuid.Parse(d.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %s", domain.ErrUnknownEncoding, err)
	}
	details, err := codec.DecodeDetails(d.DetailsType, d.DetailsBlob)
	if err != nil {
		return nil, err
	}
	status, err := codec.DecodeStatus(d.StatusType, d.StatusBlob, fromMillis(d.CompletedAt))
	if err != nil {
		return nil, err
	}
	return &domain.LightningOutgoingPayment{
		Id:              id,
		RecipientAmount: lnwire.MilliSatoshi(d.RecipientAmount),
		Recipient:       d.Recipient,
		Details:         details,
		Parts:           domain.VisibleParts(status, parts),
		Status:          status,
		Created:         time.UnixMilli(d.CreatedAt),
	}, nil
}

func toOutgoingPartsData(
	parentId uuid.UUID, parts []domain.LightningOutgoingPart,
) ([]outgoingPartData, error) {
	seen := make(map[uuid.UUID]struct{}, len(parts))
	data := make([]outgoingPartData, 0, len(parts))
	for _, part := range parts {
		if _, ok := seen[part.Id]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePartId, part.Id)
		}
		seen[part.Id] = struct{}{}

		statusType, statusBlob, err := codec.EncodePartStatus(part.Status)
		if err != nil {
			return nil, err
		}
		var completedAt int64
		switch s := part.Status.(type) {
		case domain.PartSucceeded:
			completedAt = s.CompletedAt.UnixMilli()
		case domain.PartFailed:
			completedAt = s.CompletedAt.UnixMilli()
		}
		data = append(data, outgoingPartData{
			Id:          part.Id.String(),
			ParentId:    parentId.String(),
			Amount:      uint64(part.Amount),
			Route:       part.Route,
			StatusType:  statusType,
			StatusBlob:  statusBlob,
			CreatedAt:   part.CreatedAt.UnixMilli(),
			CompletedAt: completedAt,
		})
	}
	return data, nil
}

func (d outgoingPartData) toOutgoingPart() (*domain.LightningOutgoingPart, error) {
	id, err := uuid.Parse(d.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: part id: %s", domain.ErrUnknownEncoding, err)
	}
	status, err := codec.DecodePartStatus(d.StatusType, d.StatusBlob, fromMillis(d.CompletedAt))
	if err != nil {
		return nil, err
	}
	return &domain.LightningOutgoingPart{
		Id:        id,
		Amount:    lnwire.MilliSatoshi(d.Amount),
		Route:     d.Route,
		Status:    status,
		CreatedAt: time.UnixMilli(d.CreatedAt),
	}, nil
}

func toOnChainPaymentData(payment domain.OnChainOutgoingPayment) onChainPaymentData {
	return onChainPaymentData{
		Id:              payment.Id.String(),
		Kind:            int(payment.Kind),
		RecipientAmount: int64(payment.RecipientAmount),
		Address:         payment.Address,
		MiningFees:      int64(payment.MiningFees),
		TxId:            payment.TxId.String(),
		ChannelId:       payment.ChannelId,
		ClosingType:     string(payment.ClosingType),
		CreatedAt:       payment.Created.UnixMilli(),
		ConfirmedAt:     toMillisPtr(payment.ConfirmedAt),
		LockedAt:        toMillisPtr(payment.LockedAt),
	}
}

func (d onChainPaymentData) toOnChainPayment() (*domain.OnChainOutgoingPayment, error) {
	id, err := uuid.Parse(d.Id)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %s", domain.ErrUnknownEncoding, err)
	}
	txId, err := chainhash.NewHashFromStr(d.TxId)
	if err != nil {
		return nil, fmt.Errorf("%w: txid: %s", domain.ErrUnknownEncoding, err)
	}
	return &domain.OnChainOutgoingPayment{
		Id:              id,
		Kind:            domain.OnChainOutgoingKind(d.Kind),
		RecipientAmount: btcutil.Amount(d.RecipientAmount),
		Address:         d.Address,
		MiningFees:      btcutil.Amount(d.MiningFees),
		TxId:            *txId,
		ChannelId:       d.ChannelId,
		ClosingType:     domain.ClosingType(d.ClosingType),
		Created:         time.UnixMilli(d.CreatedAt),
		ConfirmedAt:     fromMillisPtr(d.ConfirmedAt),
		LockedAt:        fromMillisPtr(d.LockedAt),
	}, nil
}
