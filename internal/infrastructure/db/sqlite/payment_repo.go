package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/codec"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/sqlite/sqlc/queries"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	log "github.com/sirupsen/logrus"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type paymentRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewPaymentRepository(db *sql.DB) (domain.PaymentRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open payment repository: db is nil")
	}

	return &paymentRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *paymentRepository) AddIncomingPayment(
	ctx context.Context, preimage lntypes.Preimage, origin domain.IncomingOrigin, createdAt time.Time,
) (*domain.IncomingPayment, error) {
	payment := domain.NewIncomingPayment(preimage, origin, createdAt)
	originType, originBlob, err := codec.EncodeOrigin(origin)
	if err != nil {
		return nil, err
	}

	if err := r.querier.InsertIncomingPayment(ctx, queries.InsertIncomingPaymentParams{
		PaymentHash: payment.PaymentHash.String(),
		Preimage:    payment.Preimage.String(),
		OriginType:  originType,
		OriginBlob:  originBlob,
		CreatedAt:   createdAt.UnixMilli(),
	}); err != nil {
		if isConstraintErr(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentHash, payment.PaymentHash)
		}
		return nil, fmt.Errorf("failed to insert incoming payment: %s", err)
	}
	return &payment, nil
}

func (r *paymentRepository) ReceivePayment(
	ctx context.Context, paymentHash lntypes.Hash, parts []domain.ReceivedWith, receivedAt time.Time,
) (bool, error) {
	var found bool
	txBody := func(querierWithTx *queries.Queries) error {
		row, err := querierWithTx.GetIncomingPayment(ctx, paymentHash.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		found = true

		payment, err := toIncomingPayment(row)
		if err != nil {
			return err
		}
		received := domain.MergeReceived(payment.Received, parts, receivedAt)
		if err := updateReceived(ctx, querierWithTx, paymentHash, received); err != nil {
			return err
		}

		paymentId := payment.PaymentId()
		for _, txId := range domain.TxIds(parts) {
			if err := linkTx(ctx, querierWithTx, txId, paymentId, nil, nil); err != nil {
				return err
			}
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return false, fmt.Errorf("failed to receive payment %s: %w", paymentHash, err)
	}
	return found, nil
}

func (r *paymentRepository) GetIncomingPayment(
	ctx context.Context, paymentHash lntypes.Hash,
) (*domain.IncomingPayment, error) {
	row, err := r.querier.GetIncomingPayment(ctx, paymentHash.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get incoming payment: %w", err)
	}
	return toIncomingPayment(row)
}

func (r *paymentRepository) ListExpiredPayments(
	ctx context.Context, from, to time.Time,
) ([]domain.IncomingPayment, error) {
	rows, err := r.querier.ListExpiredIncomingPayments(ctx, queries.ListExpiredIncomingPaymentsParams{
		FromCreatedAt: from.UnixMilli(),
		ToCreatedAt:   to.UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expired payments: %w", err)
	}

	payments := make([]domain.IncomingPayment, 0, len(rows))
	for _, row := range rows {
		payment, err := toIncomingPayment(row)
		if err != nil {
			log.WithError(err).Warnf("skipping undecodable incoming payment %s", row.PaymentHash)
			continue
		}
		if payment.IsExpiredUnpaid(to) {
			payments = append(payments, *payment)
		}
	}
	return payments, nil
}

func (r *paymentRepository) RemoveIncomingPayment(
	ctx context.Context, paymentHash lntypes.Hash,
) (bool, error) {
	var removed bool
	txBody := func(querierWithTx *queries.Queries) error {
		count, err := querierWithTx.DeleteIncomingPayment(ctx, paymentHash.String())
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		removed = true

		paymentId := domain.IncomingPaymentId(paymentHash)
		return querierWithTx.DeleteTxLinksForPayment(ctx, queries.DeleteTxLinksForPaymentParams{
			PaymentType: int64(paymentId.Type),
			PaymentID:   paymentId.Id,
		})
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return false, fmt.Errorf("failed to remove incoming payment %s: %w", paymentHash, err)
	}
	return removed, nil
}

func (r *paymentRepository) AddOutgoingPayment(
	ctx context.Context, payment domain.LightningOutgoingPayment,
) error {
	params, err := toOutgoingPaymentParams(payment)
	if err != nil {
		return err
	}
	parts, err := toOutgoingPartsParams(payment.Id, payment.Parts)
	if err != nil {
		return err
	}

	txBody := func(querierWithTx *queries.Queries) error {
		if _, err := querierWithTx.GetOnChainPayment(ctx, params.ID); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, params.ID)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err := querierWithTx.InsertOutgoingPayment(ctx, params); err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, params.ID)
			}
			return fmt.Errorf("failed to insert outgoing payment: %s", err)
		}
		return insertParts(ctx, querierWithTx, parts)
	}
	return execTx(ctx, r.db, txBody)
}

func (r *paymentRepository) AddOutgoingLightningParts(
	ctx context.Context, parentId uuid.UUID, parts []domain.LightningOutgoingPart,
) error {
	params, err := toOutgoingPartsParams(parentId, parts)
	if err != nil {
		return err
	}

	txBody := func(querierWithTx *queries.Queries) error {
		parent, err := querierWithTx.GetOutgoingPayment(ctx, parentId.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", domain.ErrPaymentNotFound, parentId)
			}
			return err
		}
		if parent.StatusType.Valid {
			return fmt.Errorf("%w: %s", domain.ErrPaymentAlreadyCompleted, parentId)
		}
		return insertParts(ctx, querierWithTx, params)
	}
	return execTx(ctx, r.db, txBody)
}

func insertParts(
	ctx context.Context, querierWithTx *queries.Queries, parts []queries.InsertOutgoingPartParams,
) error {
	for _, part := range parts {
		if err := querierWithTx.InsertOutgoingPart(ctx, part); err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePartId, part.PartID)
			}
			return fmt.Errorf("failed to insert outgoing part: %s", err)
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

	count, err := r.querier.CompleteOutgoingPart(ctx, queries.CompleteOutgoingPartParams{
		PartStatusType:  toNullableString(typ),
		PartStatusBlob:  blob,
		PartCompletedAt: toNullableMillis(completedAt),
		PartID:          partId.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to complete outgoing part %s: %w", partId, err)
	}
	return count > 0, nil
}

func (r *paymentRepository) CompleteOutgoingPaymentOffchain(
	ctx context.Context, id uuid.UUID, outcome domain.OffchainOutcome, completedAt time.Time,
) (bool, error) {
	status := domain.StatusFromOutcome(outcome, completedAt)
	return r.completeOutgoingPayment(ctx, id, status, completedAt, nil)
}

func (r *paymentRepository) CompleteOutgoingPaymentForClosing(
	ctx context.Context, id uuid.UUID, parts []domain.ClosingTxPart, completedAt time.Time,
) (bool, error) {
	status := domain.OutgoingSucceededOnChain{Parts: parts, CompletedAt: completedAt}
	txIds := make([]chainhash.Hash, 0, len(parts))
	for _, p := range parts {
		txIds = append(txIds, p.TxId)
	}
	return r.completeOutgoingPayment(ctx, id, status, completedAt, txIds)
}

func (r *paymentRepository) completeOutgoingPayment(
	ctx context.Context, id uuid.UUID, status domain.LightningOutgoingStatus,
	completedAt time.Time, txIds []chainhash.Hash,
) (bool, error) {
	typ, blob, err := codec.EncodeStatus(status)
	if err != nil {
		return false, err
	}

	var updated bool
	txBody := func(querierWithTx *queries.Queries) error {
		count, err := querierWithTx.CompleteOutgoingPayment(ctx, queries.CompleteOutgoingPaymentParams{
			StatusType:  toNullableString(typ),
			StatusBlob:  blob,
			CompletedAt: toNullableMillis(completedAt),
			ID:          id.String(),
		})
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		updated = true

		paymentId := domain.LightningOutgoingPaymentId(id)
		for _, txId := range txIds {
			if err := linkTx(ctx, querierWithTx, txId, paymentId, nil, nil); err != nil {
				return err
			}
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return false, fmt.Errorf("failed to complete outgoing payment %s: %w", id, err)
	}
	return updated, nil
}

func (r *paymentRepository) GetLightningOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	var payment *domain.LightningOutgoingPayment
	txBody := func(querierWithTx *queries.Queries) error {
		var err error
		payment, err = getOutgoingPayment(ctx, querierWithTx, id.String())
		return err
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return nil, fmt.Errorf("failed to get outgoing payment %s: %w", id, err)
	}
	return payment, nil
}

func (r *paymentRepository) GetLightningOutgoingPaymentFromPartId(
	ctx context.Context, partId uuid.UUID,
) (*domain.LightningOutgoingPayment, error) {
	var payment *domain.LightningOutgoingPayment
	txBody := func(querierWithTx *queries.Queries) error {
		part, err := querierWithTx.GetOutgoingPart(ctx, partId.String())
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}

		parent, err := getOutgoingPayment(ctx, querierWithTx, part.PartParentID)
		if err != nil || parent == nil {
			return err
		}
		partStatus, err := codec.DecodePartStatus(
			fromNullableString(part.PartStatusType), part.PartStatusBlob,
			fromNullableMillis(part.PartCompletedAt),
		)
		if err != nil {
			return err
		}
		if domain.IsPartVisible(parent.Status, partStatus) {
			payment = parent
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return nil, fmt.Errorf("failed to get outgoing payment from part %s: %w", partId, err)
	}
	return payment, nil
}

func (r *paymentRepository) ListOutgoingLightningParts(
	ctx context.Context, parentId uuid.UUID,
) ([]domain.LightningOutgoingPart, error) {
	parts, err := listParts(ctx, r.querier, parentId.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list outgoing parts: %w", err)
	}
	return parts, nil
}

// getOutgoingPayment returns nil if the payment does not exist.
func getOutgoingPayment(
	ctx context.Context, querier *queries.Queries, id string,
) (*domain.LightningOutgoingPayment, error) {
	row, err := querier.GetOutgoingPayment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	parts, err := listParts(ctx, querier, id)
	if err != nil {
		return nil, err
	}
	return toOutgoingPayment(row, parts)
}

func listParts(
	ctx context.Context, querier *queries.Queries, parentId string,
) ([]domain.LightningOutgoingPart, error) {
	rows, err := querier.ListOutgoingParts(ctx, parentId)
	if err != nil {
		return nil, err
	}
	parts := make([]domain.LightningOutgoingPart, 0, len(rows))
	for _, row := range rows {
		part, err := toOutgoingPart(row)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *part)
	}
	return parts, nil
}

func (r *paymentRepository) AddOnChainOutgoingPayment(
	ctx context.Context, payment domain.OnChainOutgoingPayment,
) error {
	txBody := func(querierWithTx *queries.Queries) error {
		if _, err := querierWithTx.GetOutgoingPayment(ctx, payment.Id.String()); err == nil {
			return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, payment.Id)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err := querierWithTx.InsertOnChainPayment(ctx, queries.InsertOnChainPaymentParams{
			ID:                 payment.Id.String(),
			Kind:               int64(payment.Kind),
			RecipientAmountSat: int64(payment.RecipientAmount),
			Address:            payment.Address,
			MiningFeesSat:      int64(payment.MiningFees),
			TxID:               payment.TxId.String(),
			ChannelID:          payment.ChannelId,
			ClosingType:        string(payment.ClosingType),
			CreatedAt:          payment.Created.UnixMilli(),
			ConfirmedAt:        toNullableMillisPtr(payment.ConfirmedAt),
			LockedAt:           toNullableMillisPtr(payment.LockedAt),
		}); err != nil {
			if isConstraintErr(err) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicatePaymentId, payment.Id)
			}
			return fmt.Errorf("failed to insert onchain payment: %s", err)
		}
		return linkTx(
			ctx, querierWithTx, payment.TxId, payment.PaymentId(), payment.ConfirmedAt, payment.LockedAt,
		)
	}
	return execTx(ctx, r.db, txBody)
}

func (r *paymentRepository) GetOnChainOutgoingPayment(
	ctx context.Context, id uuid.UUID,
) (*domain.OnChainOutgoingPayment, error) {
	row, err := r.querier.GetOnChainPayment(ctx, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get onchain payment: %w", err)
	}
	return toOnChainPayment(row)
}

func (r *paymentRepository) SetConfirmed(
	ctx context.Context, txId chainhash.Hash, confirmedAt time.Time,
) (int, error) {
	return r.setTxStatus(ctx, txId, &confirmedAt, nil)
}

func (r *paymentRepository) SetLocked(
	ctx context.Context, txId chainhash.Hash, lockedAt time.Time,
) (int, error) {
	return r.setTxStatus(ctx, txId, nil, &lockedAt)
}

func (r *paymentRepository) setTxStatus(
	ctx context.Context, txId chainhash.Hash, confirmedAt, lockedAt *time.Time,
) (int, error) {
	var count int
	txBody := func(querierWithTx *queries.Queries) error {
		links, err := querierWithTx.ListTxLinks(ctx, txId.String())
		if err != nil {
			return err
		}

		for _, link := range links {
			var changed int64
			if confirmedAt != nil {
				n, err := querierWithTx.SetTxLinkConfirmed(ctx, queries.SetTxLinkConfirmedParams{
					ConfirmedAt: toNullableMillisPtr(confirmedAt),
					TxID:        link.TxID,
					PaymentType: link.PaymentType,
					PaymentID:   link.PaymentID,
				})
				if err != nil {
					return err
				}
				changed += n
			}
			if lockedAt != nil {
				n, err := querierWithTx.SetTxLinkLocked(ctx, queries.SetTxLinkLockedParams{
					LockedAt:    toNullableMillisPtr(lockedAt),
					TxID:        link.TxID,
					PaymentType: link.PaymentType,
					PaymentID:   link.PaymentID,
				})
				if err != nil {
					return err
				}
				changed += n
			}
			if changed == 0 {
				continue
			}
			if err := applyTxStatus(ctx, querierWithTx, link, txId, confirmedAt, lockedAt); err != nil {
				return err
			}
			count++
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return 0, fmt.Errorf("failed to update payments of tx %s: %w", txId, err)
	}
	return count, nil
}

func applyTxStatus(
	ctx context.Context, querierWithTx *queries.Queries, link queries.LinkTxToPayment,
	txId chainhash.Hash, confirmedAt, lockedAt *time.Time,
) error {
	switch domain.WalletPaymentType(link.PaymentType) {
	case domain.IncomingPaymentType:
		row, err := querierWithTx.GetIncomingPayment(ctx, link.PaymentID)
		if err != nil {
			return err
		}
		payment, err := toIncomingPayment(row)
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
		return updateReceived(ctx, querierWithTx, payment.PaymentHash, payment.Received)

	case domain.OnChainOutgoingPaymentType:
		if confirmedAt != nil {
			if err := querierWithTx.SetOnChainPaymentConfirmed(ctx, queries.SetOnChainPaymentConfirmedParams{
				ConfirmedAt: toNullableMillisPtr(confirmedAt),
				ID:          link.PaymentID,
			}); err != nil {
				return err
			}
		}
		if lockedAt != nil {
			return querierWithTx.SetOnChainPaymentLocked(ctx, queries.SetOnChainPaymentLockedParams{
				LockedAt: toNullableMillisPtr(lockedAt),
				ID:       link.PaymentID,
			})
		}
		return nil

	default:
		return nil
	}
}

func (r *paymentRepository) ListPaymentIdsForTx(
	ctx context.Context, txId chainhash.Hash,
) ([]domain.WalletPaymentId, error) {
	links, err := r.querier.ListTxLinks(ctx, txId.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list payments of tx %s: %w", txId, err)
	}
	ids := make([]domain.WalletPaymentId, 0, len(links))
	for _, link := range links {
		ids = append(ids, domain.WalletPaymentId{
			Type: domain.WalletPaymentType(link.PaymentType),
			Id:   link.PaymentID,
		})
	}
	return ids, nil
}

func (r *paymentRepository) ListUnconfirmedTxIds(ctx context.Context) ([]chainhash.Hash, error) {
	rows, err := r.querier.ListUnconfirmedTxIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unconfirmed txs: %w", err)
	}
	txIds := make([]chainhash.Hash, 0, len(rows))
	for _, row := range rows {
		txId, err := chainhash.NewHashFromStr(row)
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
	txBody := func(querierWithTx *queries.Queries) error {
		incoming, err := querierWithTx.ListReceivedIncomingPayments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list incoming payments: %w", err)
		}
		for _, row := range incoming {
			payment, err := toIncomingPayment(row)
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable incoming payment %s", row.PaymentHash)
				continue
			}
			payments = append(payments, payment)
		}

		outgoing, err := querierWithTx.ListOutgoingPayments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list outgoing payments: %w", err)
		}
		for _, row := range outgoing {
			parts, err := listParts(ctx, querierWithTx, row.ID)
			if err != nil {
				log.WithError(err).Warnf("skipping outgoing payment %s with undecodable parts", row.ID)
				continue
			}
			payment, err := toOutgoingPayment(row, parts)
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable outgoing payment %s", row.ID)
				continue
			}
			payments = append(payments, payment)
		}

		onchain, err := querierWithTx.ListOnChainPayments(ctx)
		if err != nil {
			return fmt.Errorf("failed to list onchain payments: %w", err)
		}
		for _, row := range onchain {
			payment, err := toOnChainPayment(row)
			if err != nil {
				log.WithError(err).Warnf("skipping undecodable onchain payment %s", row.ID)
				continue
			}
			payments = append(payments, payment)
		}
		return nil
	}
	if err := execTx(ctx, r.db, txBody); err != nil {
		return nil, err
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

func (r *paymentRepository) Close() {
	// nolint
	r.db.Close()
}

func updateReceived(
	ctx context.Context, querierWithTx *queries.Queries, paymentHash lntypes.Hash,
	received *domain.IncomingReceived,
) error {
	typ, blob, err := codec.EncodeReceivedWith(received.ReceivedWith)
	if err != nil {
		return err
	}
	return querierWithTx.UpdateIncomingReceived(ctx, queries.UpdateIncomingReceivedParams{
		ReceivedAt:       toNullableMillis(received.ReceivedAt),
		ReceivedWithType: toNullableString(typ),
		ReceivedWithBlob: blob,
		PaymentHash:      paymentHash.String(),
	})
}

// linkTx records that the transaction settles the payment. Existing links
// are left untouched.
func linkTx(
	ctx context.Context, querierWithTx *queries.Queries, txId chainhash.Hash,
	paymentId domain.WalletPaymentId, confirmedAt, lockedAt *time.Time,
) error {
	return querierWithTx.InsertTxLink(ctx, queries.InsertTxLinkParams{
		TxID:        txId.String(),
		PaymentType: int64(paymentId.Type),
		PaymentID:   paymentId.Id,
		ConfirmedAt: toNullableMillisPtr(confirmedAt),
		LockedAt:    toNullableMillisPtr(lockedAt),
	})
}

func isConstraintErr(err error) bool {
	var sqlErr *sqlite.Error
	if !errors.As(err, &sqlErr) {
		return false
	}
	code := sqlErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func toIncomingPayment(row queries.IncomingPayment) (*domain.IncomingPayment, error) {
	preimage, err := lntypes.MakePreimageFromStr(row.Preimage)
	if err != nil {
		return nil, fmt.Errorf("%w: preimage: %s", domain.ErrUnknownEncoding, err)
	}
	createdAt := time.UnixMilli(row.CreatedAt)
	origin, err := codec.DecodeOrigin(row.OriginType, row.OriginBlob, createdAt)
	if err != nil {
		return nil, err
	}
	payment := domain.NewIncomingPayment(preimage, origin, createdAt)
	if row.ReceivedAt.Valid {
		parts, err := codec.DecodeReceivedWith(fromNullableString(row.ReceivedWithType), row.ReceivedWithBlob)
		if err != nil {
			return nil, err
		}
		payment.Received = &domain.IncomingReceived{
			ReceivedAt:   time.UnixMilli(row.ReceivedAt.Int64),
			ReceivedWith: parts,
		}
	}
	return &payment, nil
}

func toOutgoingPaymentParams(
	payment domain.LightningOutgoingPayment,
) (queries.InsertOutgoingPaymentParams, error) {
	detailsType, detailsBlob, err := codec.EncodeDetails(payment.Details)
	if err != nil {
		return queries.InsertOutgoingPaymentParams{}, err
	}
	statusType, statusBlob, err := codec.EncodeStatus(payment.Status)
	if err != nil {
		return queries.InsertOutgoingPaymentParams{}, err
	}
	return queries.InsertOutgoingPaymentParams{
		ID:                  payment.Id.String(),
		RecipientAmountMsat: int64(payment.RecipientAmount),
		Recipient:           payment.Recipient,
		DetailsType:         detailsType,
		DetailsBlob:         detailsBlob,
		StatusType:          toNullableString(statusType),
		StatusBlob:          statusBlob,
		CreatedAt:           payment.Created.UnixMilli(),
		CompletedAt:         toNullableMillis(payment.CompletedAt()),
	}, nil
}

func toOutgoingPayment(
	row queries.OutgoingPayment, parts []domain.LightningOutgoingPart,
) (*domain.LightningOutgoingPayment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %s", domain.ErrUnknownEncoding, err)
	}
	details, err := codec.DecodeDetails(row.DetailsType, row.DetailsBlob)
	if err != nil {
		return nil, err
	}
	status, err := codec.DecodeStatus(
		fromNullableString(row.StatusType), row.StatusBlob, fromNullableMillis(row.CompletedAt),
	)
	if err != nil {
		return nil, err
	}
	return &domain.LightningOutgoingPayment{
		Id:              id,
		RecipientAmount: lnwire.MilliSatoshi(row.RecipientAmountMsat),
		Recipient:       row.Recipient,
		Details:         details,
		Parts:           domain.VisibleParts(status, parts),
		Status:          status,
		Created:         time.UnixMilli(row.CreatedAt),
	}, nil
}

func toOutgoingPartsParams(
	parentId uuid.UUID, parts []domain.LightningOutgoingPart,
) ([]queries.InsertOutgoingPartParams, error) {
	seen := make(map[uuid.UUID]struct{}, len(parts))
	params := make([]queries.InsertOutgoingPartParams, 0, len(parts))
	for _, part := range parts {
		if _, ok := seen[part.Id]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicatePartId, part.Id)
		}
		seen[part.Id] = struct{}{}

		statusType, statusBlob, err := codec.EncodePartStatus(part.Status)
		if err != nil {
			return nil, err
		}
		var completedAt time.Time
		switch s := part.Status.(type) {
		case domain.PartSucceeded:
			completedAt = s.CompletedAt
		case domain.PartFailed:
			completedAt = s.CompletedAt
		}
		params = append(params, queries.InsertOutgoingPartParams{
			PartID:          part.Id.String(),
			PartParentID:    parentId.String(),
			PartAmountMsat:  int64(part.Amount),
			PartRoute:       part.Route,
			PartStatusType:  toNullableString(statusType),
			PartStatusBlob:  statusBlob,
			PartCreatedAt:   part.CreatedAt.UnixMilli(),
			PartCompletedAt: toNullableMillis(completedAt),
		})
	}
	return params, nil
}

func toOutgoingPart(row queries.OutgoingPaymentPart) (*domain.LightningOutgoingPart, error) {
	id, err := uuid.Parse(row.PartID)
	if err != nil {
		return nil, fmt.Errorf("%w: part id: %s", domain.ErrUnknownEncoding, err)
	}
	status, err := codec.DecodePartStatus(
		fromNullableString(row.PartStatusType), row.PartStatusBlob, fromNullableMillis(row.PartCompletedAt),
	)
	if err != nil {
		return nil, err
	}
	return &domain.LightningOutgoingPart{
		Id:        id,
		Amount:    lnwire.MilliSatoshi(row.PartAmountMsat),
		Route:     row.PartRoute,
		Status:    status,
		CreatedAt: time.UnixMilli(row.PartCreatedAt),
	}, nil
}

func toOnChainPayment(row queries.OnchainOutgoingPayment) (*domain.OnChainOutgoingPayment, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %s", domain.ErrUnknownEncoding, err)
	}
	txId, err := chainhash.NewHashFromStr(row.TxID)
	if err != nil {
		return nil, fmt.Errorf("%w: txid: %s", domain.ErrUnknownEncoding, err)
	}
	return &domain.OnChainOutgoingPayment{
		Id:              id,
		Kind:            domain.OnChainOutgoingKind(row.Kind),
		RecipientAmount: btcutil.Amount(row.RecipientAmountSat),
		Address:         row.Address,
		MiningFees:      btcutil.Amount(row.MiningFeesSat),
		TxId:            *txId,
		ChannelId:       row.ChannelID,
		ClosingType:     domain.ClosingType(row.ClosingType),
		Created:         time.UnixMilli(row.CreatedAt),
		ConfirmedAt:     fromNullableMillisPtr(row.ConfirmedAt),
		LockedAt:        fromNullableMillisPtr(row.LockedAt),
	}, nil
}
