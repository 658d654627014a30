package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	badgerdb "github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/badger"
	sqlitedb "github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/sqlite"
	"github.com/dgraph-io/badger/v4"
	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const (
	sqliteDbFile = "lightwallet.db"
)

var (
	//go:embed sqlite/migration/*
	migrations   embed.FS
	allowedTypes = strings.Join([]string{"badger", "sqlite"}, ",")

	goMigrations = []GoMigration{
		{Version: sqlitedb.LinkTxBackfillVersion, Run: sqlitedb.BackfillTxLinks},
	}
)

type ServiceConfig struct {
	DbType   string
	DbConfig []any
}

type service struct {
	paymentRepo      domain.PaymentRepository
	exchangeRateRepo domain.ExchangeRateRepository
	channelRepo      domain.ChannelRepository
	notificationRepo domain.NotificationRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	var (
		paymentRepo      domain.PaymentRepository
		exchangeRateRepo domain.ExchangeRateRepository
		channelRepo      domain.ChannelRepository
		notificationRepo domain.NotificationRepository
		err              error
	)

	switch config.DbType {
	case "badger":
		if len(config.DbConfig) != 2 {
			return nil, fmt.Errorf("badger db config must have 2 elements, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		var logger badger.Logger
		if config.DbConfig[1] != nil {
			logger, ok = config.DbConfig[1].(badger.Logger)
			if !ok {
				return nil, fmt.Errorf("invalid logger")
			}
		}
		paymentRepo, err = badgerdb.NewPaymentRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open payment db: %s", err)
		}
		exchangeRateRepo, err = badgerdb.NewExchangeRateRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open exchange rate db: %s", err)
		}
		channelRepo, err = badgerdb.NewChannelRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open channel db: %s", err)
		}
		notificationRepo, err = badgerdb.NewNotificationRepository(baseDir, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open notification db: %s", err)
		}

	case "sqlite":
		if len(config.DbConfig) != 1 {
			return nil, fmt.Errorf("sqlite db config must have 1 element, got %d", len(config.DbConfig))
		}
		baseDir, ok := config.DbConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}
		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite db: %s", err)
		}

		driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to init driver: %s", err)
		}

		source, err := iofs.New(migrations, "sqlite/migration")
		if err != nil {
			return nil, fmt.Errorf("failed to embed migrations: %s", err)
		}

		m, err := migrate.NewWithInstance("iofs", source, "lightwalletdb", driver)
		if err != nil {
			return nil, fmt.Errorf("failed to create migration instance: %s", err)
		}

		_, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			return nil, fmt.Errorf("failed to read migration version: %w", verr)
		}
		if dirty {
			return nil, fmt.Errorf("database is in a dirty migration state; manual intervention required")
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, fmt.Errorf("failed to run migrations: %s", err)
		}
		if err := ApplyGoMigrations(context.Background(), db, goMigrations); err != nil {
			return nil, fmt.Errorf("failed to run data migrations: %s", err)
		}

		paymentRepo, err = sqlitedb.NewPaymentRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open payment db: %s", err)
		}
		exchangeRateRepo, err = sqlitedb.NewExchangeRateRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open exchange rate db: %s", err)
		}
		channelRepo, err = sqlitedb.NewChannelRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open channel db: %s", err)
		}
		notificationRepo, err = sqlitedb.NewNotificationRepository(db)
		if err != nil {
			return nil, fmt.Errorf("failed to open notification db: %s", err)
		}

	default:
		return nil, fmt.Errorf("unsupported db type %s, please select one of %s", config.DbType, allowedTypes)
	}

	return &service{
		paymentRepo:      paymentRepo,
		exchangeRateRepo: exchangeRateRepo,
		channelRepo:      channelRepo,
		notificationRepo: notificationRepo,
	}, nil
}

func (s *service) Payments() domain.PaymentRepository {
	return s.paymentRepo
}

func (s *service) ExchangeRates() domain.ExchangeRateRepository {
	return s.exchangeRateRepo
}

func (s *service) Channels() domain.ChannelRepository {
	return s.channelRepo
}

func (s *service) Notifications() domain.NotificationRepository {
	return s.notificationRepo
}

func (s *service) Close() {
	s.paymentRepo.Close()
	s.exchangeRateRepo.Close()
	s.channelRepo.Close()
	s.notificationRepo.Close()
}
