package sqlitedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/codec"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/sqlite/sqlc/queries"
	log "github.com/sirupsen/logrus"
)

// LinkTxBackfillVersion is the schema version introducing link_tx_to_payments.
const LinkTxBackfillVersion = "20250305090000"

// BackfillTxLinks links every on-chain transaction already referenced by a
// stored payment. Existing links are left untouched so it can run again.
func BackfillTxLinks(ctx context.Context, db *sql.DB) error {
	return execTx(ctx, db, func(querierWithTx *queries.Queries) error {
		incoming, err := querierWithTx.ListReceivedIncomingPayments(ctx)
		if err != nil {
			return fmt.Errorf("list received payments: %w", err)
		}

		linked := 0
		for _, row := range incoming {
			parts, err := codec.DecodeReceivedWith(fromNullableString(row.ReceivedWithType), row.ReceivedWithBlob)
			if err != nil {
				log.WithError(err).Warnf("backfill: skipping incoming payment %s", row.PaymentHash)
				continue
			}
			for _, part := range parts {
				onchain, ok := part.(domain.OnChainPart)
				if !ok {
					continue
				}
				if err := querierWithTx.InsertTxLink(ctx, queries.InsertTxLinkParams{
					TxID:        onchain.Tx().String(),
					PaymentType: int64(domain.IncomingPaymentType),
					PaymentID:   row.PaymentHash,
					ConfirmedAt: toNullableMillisPtr(onchain.Confirmed()),
					LockedAt:    toNullableMillisPtr(onchain.Locked()),
				}); err != nil {
					return fmt.Errorf("link incoming payment %s: %w", row.PaymentHash, err)
				}
				linked++
			}
		}

		onchain, err := querierWithTx.ListOnChainPayments(ctx)
		if err != nil {
			return fmt.Errorf("list onchain payments: %w", err)
		}
		for _, row := range onchain {
			if err := querierWithTx.InsertTxLink(ctx, queries.InsertTxLinkParams{
				TxID:        row.TxID,
				PaymentType: int64(domain.OnChainOutgoingPaymentType),
				PaymentID:   row.ID,
				ConfirmedAt: row.ConfirmedAt,
				LockedAt:    row.LockedAt,
			}); err != nil {
				return fmt.Errorf("link onchain payment %s: %w", row.ID, err)
			}
			linked++
		}

		log.Debugf("backfill: processed %d tx links", linked)
		return nil
	})
}
