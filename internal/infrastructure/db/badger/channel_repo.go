package badgerdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/codec"
	"github.com/dgraph-io/badger/v4"
	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold/v4"
)

const (
	channelDir = "channels"
)

type channelRepository struct {
	store *badgerhold.Store
}

func NewChannelRepository(baseDir string, logger badger.Logger) (domain.ChannelRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, channelDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open channel store: %s", err)
	}
	return &channelRepository{store}, nil
}

func (r *channelRepository) SaveChannels(ctx context.Context, channels []domain.ChannelSnapshot) error {
	dataList := make([]channelData, 0, len(channels))
	for _, ch := range channels {
		typ, blob, err := codec.EncodeChannel(ch)
		if err != nil {
			return err
		}
		dataList = append(dataList, channelData{ch.ChannelId, typ, blob})
	}

	return update(r.store, func(tx *badger.Txn) error {
		if err := r.store.TxDeleteMatching(tx, channelData{}, nil); err != nil {
			return err
		}
		for _, data := range dataList {
			if err := r.store.TxUpsert(tx, data.ChannelId, data); err != nil {
				return fmt.Errorf("failed to save channel %s: %w", data.ChannelId, err)
			}
		}
		return nil
	})
}

func (r *channelRepository) ListChannels(ctx context.Context) ([]domain.ChannelSnapshot, error) {
	var dataList []channelData
	if err := r.store.Find(&dataList, nil); err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	channels := make([]domain.ChannelSnapshot, 0, len(dataList))
	for _, data := range dataList {
		ch, err := codec.DecodeChannel(data.ChannelId, data.Type, data.Blob)
		if err != nil {
			log.WithError(err).Warnf("skipping undecodable channel %s", data.ChannelId)
			continue
		}
		channels = append(channels, *ch)
	}
	sort.Slice(channels, func(i, j int) bool { return channels[i].ChannelId < channels[j].ChannelId })
	return channels, nil
}

func (r *channelRepository) Close() {
	// nolint:all
	r.store.Close()
}

type channelData struct {
	ChannelId string
	Type      string
	Blob      []byte
}
