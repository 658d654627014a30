package config_test

import (
	"path/filepath"
	"testing"
	"time"

	cfg "github.com/ArkLabsHQ/lightwallet/internal/config"
	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("LIGHTWALLET_DATADIR", t.TempDir())

		config, err := cfg.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, "sqlite", config.DbType)
		require.Equal(t, 30*time.Second, config.ChainPollInterval)
		require.Equal(t, time.Hour, config.PurgeExpiredInterval)
		require.True(t, config.RatesAutoRefresh)
		require.Equal(t, &chaincfg.MainNetParams, config.NetworkParams())
		require.Equal(t, domain.USD, config.PrimaryFiatCurrency())
		require.Equal(t, domain.LiquidityPolicyAuto{
			MaxAbsoluteFee:            btcutil.Amount(5000),
			MaxRelativeFeeBasisPoints: 3000,
		}, config.GetLiquidityPolicy())
		require.Equal(t, domain.DefaultConfirmationPolicy(), config.GetConfirmationPolicy())
		require.Empty(t, config.SwapInAddresses)
	})

	t.Run("overrides", func(t *testing.T) {
		datadir := t.TempDir()
		t.Setenv("LIGHTWALLET_DATADIR", datadir)
		t.Setenv("LIGHTWALLET_DB_TYPE", "badger")
		t.Setenv("LIGHTWALLET_NETWORK", "regtest")
		t.Setenv("LIGHTWALLET_FIAT_CURRENCY", "eur")
		t.Setenv("LIGHTWALLET_LIQUIDITY_POLICY", "disabled")
		t.Setenv("LIGHTWALLET_CHAIN_POLL_INTERVAL", "5s")
		t.Setenv("LIGHTWALLET_SWAP_IN_ADDRESSES", "bcrt1qa, bcrt1qb,")

		config, err := cfg.LoadConfig()
		require.NoError(t, err)
		require.Equal(t, filepath.Join(datadir, "db"), config.DbDir())
		require.Equal(t, "badger", config.DbType)
		require.Equal(t, &chaincfg.RegressionNetParams, config.NetworkParams())
		require.Equal(t, domain.EUR, config.PrimaryFiatCurrency())
		require.Equal(t, domain.LiquidityPolicyDisabled{}, config.GetLiquidityPolicy())
		require.Equal(t, 5*time.Second, config.ChainPollInterval)
		require.Equal(t, []string{"bcrt1qa", "bcrt1qb"}, config.SwapInAddresses)
	})

	t.Run("invalid", func(t *testing.T) {
		fixtures := []struct {
			key, value string
		}{
			{"LIGHTWALLET_DB_TYPE", "postgres"},
			{"LIGHTWALLET_NETWORK", "litecoin"},
			{"LIGHTWALLET_FIAT_CURRENCY", "XYZ"},
			{"LIGHTWALLET_FIAT_DIRECT_SOURCE", "kraken"},
			{"LIGHTWALLET_LIQUIDITY_POLICY", "always"},
			{"LIGHTWALLET_LIQUIDITY_MAX_RELATIVE_FEE_BP", "20000"},
			{"LIGHTWALLET_SWAP_IN_MIN_CONFIRMATIONS", "0"},
			{"LIGHTWALLET_SWAP_IN_REFUND_DELAY", "100"},
		}
		for _, f := range fixtures {
			t.Run(f.key, func(t *testing.T) {
				t.Setenv("LIGHTWALLET_DATADIR", t.TempDir())
				t.Setenv(f.key, f.value)

				_, err := cfg.LoadConfig()
				require.Error(t, err)
			})
		}
	})
}
