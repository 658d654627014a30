package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/config"
	"github.com/ArkLabsHQ/lightwallet/internal/core/application"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db"
	badgerdb "github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/badger"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/esplora"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/peer"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/rates"
	scheduler "github.com/ArkLabsHQ/lightwallet/internal/infrastructure/scheduler/gocron"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	"github.com/ArkLabsHQ/lightwallet/utils"
	"github.com/getsentry/sentry-go"
	sentrylogrus "github.com/getsentry/sentry-go/logrus"
	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// nolint:all
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	sentryDsn = ""
)

const (
	logFilename     = "lightwalletd.log"
	chainWaitPeriod = 5 * time.Second
	chainWaitTotal  = 2 * time.Minute
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	log.SetLevel(log.Level(cfg.LogLevel))

	if cfg.LogFile {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir(), logFilename),
			MaxSize:    50,
			MaxAge:     3,
			MaxBackups: 3,
		}))
	}

	if sentryDsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDsn,
			Environment:      "prod",
			AttachStacktrace: true,
			Release:          version,
		}); err != nil {
			log.Fatal(err)
		}

		sentryLevels := []log.Level{log.ErrorLevel, log.FatalLevel, log.PanicLevel}
		sentryHook, err := sentrylogrus.New(sentryLevels, sentry.ClientOptions{
			Dsn:              sentryDsn,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Fatal(err)
		}

		log.AddHook(sentryHook)

		defer func() {
			sentry.Flush(5 * time.Second)
			sentryHook.Flush(5 * time.Second)
		}()
	}

	log.WithFields(log.Fields{
		"version": version,
		"commit":  commit,
		"date":    date,
	}).Info("starting lightwalletd...")

	dbConfig := []any{cfg.DbDir()}
	if cfg.DbType == "badger" {
		dbConfig = append(dbConfig, badgerdb.NewLogger())
	}
	repos, err := db.NewService(db.ServiceConfig{
		DbType:   cfg.DbType,
		DbConfig: dbConfig,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to open db")
	}
	defer repos.Close()

	clk := clock.NewDefaultClock()
	mon := monitor.New(monitor.WithLogger(log.StandardLogger()))
	defer mon.Stop()

	settings := application.Settings{
		FiatCurrency:       cfg.PrimaryFiatCurrency(),
		ConfirmationPolicy: cfg.GetConfirmationPolicy(),
		LiquidityPolicy:    cfg.GetLiquidityPolicy(),
		RatesAutoRefresh:   cfg.RatesAutoRefresh,
		ChainPollInterval:  cfg.ChainPollInterval,
		PurgeInterval:      cfg.PurgeExpiredInterval,
		FinalAddresses:     cfg.FinalWalletAddresses,
		SwapInAddresses:    cfg.SwapInAddresses,
	}
	app, err := application.NewAppContext(settings, repos, clk, mon)
	if err != nil {
		log.WithError(err).Fatal("failed to init app context")
	}

	rateGroups, err := rates.Groups(cfg.FiatDirectSource, cfg.RatesHTTPTimeout, clk)
	if err != nil {
		log.WithError(err).Fatal("invalid rate sources")
	}

	schedulerSvc := scheduler.NewScheduler()
	chain := esplora.NewService(cfg.EsploraURL, cfg.ElectrumURL, cfg.NetworkParams(), 0)
	feed := peer.NewFeed()

	payments := application.NewPaymentsManager(app, schedulerSvc)
	notifications := application.NewNotificationsManager(app)
	liquidity := application.NewLiquidityGate(app, notifications)
	log.Infof("liquidity policy: %+v", liquidity.Policy())
	projector := application.NewChannelProjector(app, feed, payments, liquidity)
	poller := application.NewChainPoller(app, chain, payments, feed)
	exchangeRates := application.NewExchangeRateManager(app, rateGroups)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := projector.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start channel projector")
	}
	defer projector.Stop()

	if err := exchangeRates.Start(ctx); err != nil {
		log.WithError(err).Fatal("failed to start exchange rate manager")
	}
	defer exchangeRates.Stop()

	schedulerSvc.Start()
	defer schedulerSvc.Stop()
	if err := payments.StartPurgeJob(); err != nil {
		log.WithError(err).Fatal("failed to schedule invoice purge")
	}

	go func() {
		waitCtx, waitCancel := context.WithTimeout(ctx, chainWaitTotal)
		defer waitCancel()
		err := utils.Retry(waitCtx, chainWaitPeriod, func(ctx context.Context) (bool, error) {
			if _, err := chain.GetBlockHeight(ctx); err != nil {
				log.WithError(err).Debug("chain source not reachable yet")
				return false, nil
			}
			return true, nil
		})
		if err != nil {
			log.WithError(err).Warn("chain source unreachable, rates stay paused")
			return
		}
		log.Info("chain source reachable")
		exchangeRates.SetNetworkAvailable(true)
		poller.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down lightwalletd...")
	cancel()
	poller.Stop()
	payments.StopPurgeJob()
}
