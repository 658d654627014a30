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

type channelRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewChannelRepository(db *sql.DB) (domain.ChannelRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open channel repository: db is nil")
	}

	return &channelRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *channelRepository) SaveChannels(ctx context.Context, channels []domain.ChannelSnapshot) error {
	params := make([]queries.InsertChannelParams, 0, len(channels))
	for _, ch := range channels {
		typ, blob, err := codec.EncodeChannel(ch)
		if err != nil {
			return err
		}
		params = append(params, queries.InsertChannelParams{
			ChannelID: ch.ChannelId,
			DataType:  typ,
			DataBlob:  blob,
		})
	}

	txBody := func(querierWithTx *queries.Queries) error {
		if err := querierWithTx.DeleteChannels(ctx); err != nil {
			return err
		}
		for _, p := range params {
			if err := querierWithTx.InsertChannel(ctx, p); err != nil {
				return fmt.Errorf("failed to save channel %s: %w", p.ChannelID, err)
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *channelRepository) ListChannels(ctx context.Context) ([]domain.ChannelSnapshot, error) {
	rows, err := r.querier.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	channels := make([]domain.ChannelSnapshot, 0, len(rows))
	for _, row := range rows {
		ch, err := codec.DecodeChannel(row.ChannelID, row.DataType, row.DataBlob)
		if err != nil {
			log.WithError(err).Warnf("skipping undecodable channel %s", row.ChannelID)
			continue
		}
		channels = append(channels, *ch)
	}
	return channels, nil
}

func (r *channelRepository) Close() {
	// nolint
	r.db.Close()
}
