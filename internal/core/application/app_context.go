package application

import (
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/ArkLabsHQ/lightwallet/pkg/monitor"
	"github.com/lightningnetwork/lnd/clock"
)

type Settings struct {
	FiatCurrency       domain.FiatCurrency
	ConfirmationPolicy domain.ConfirmationPolicy
	LiquidityPolicy    domain.LiquidityPolicy
	RatesAutoRefresh   bool
	ChainPollInterval  time.Duration
	PurgeInterval      time.Duration
	FinalAddresses     []string
	SwapInAddresses    []string
}

// AppContext is built once at startup and shared by every manager.
type AppContext struct {
	Settings Settings
	Repos    ports.RepoManager
	Clock    clock.Clock
	Monitor  *monitor.Monitor
}

func NewAppContext(
	settings Settings, repos ports.RepoManager, clk clock.Clock, mon *monitor.Monitor,
) (*AppContext, error) {
	if repos == nil {
		return nil, fmt.Errorf("missing repo manager")
	}
	if settings.LiquidityPolicy == nil {
		settings.LiquidityPolicy = domain.LiquidityPolicyDisabled{}
	}
	if settings.FiatCurrency == "" {
		settings.FiatCurrency = domain.USD
	}
	if settings.ConfirmationPolicy.MinConfirmations == 0 {
		settings.ConfirmationPolicy = domain.DefaultConfirmationPolicy()
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}
	if mon == nil {
		mon = monitor.New()
	}
	return &AppContext{
		Settings: settings,
		Repos:    repos,
		Clock:    clk,
		Monitor:  mon,
	}, nil
}
