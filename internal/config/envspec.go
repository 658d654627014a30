package config

import "fmt"

const (
	Datadir                   = "DATADIR"
	DbType                    = "DB_TYPE"
	LogLevel                  = "LOG_LEVEL"
	LogFile                   = "LOG_FILE"
	Network                   = "NETWORK"
	EsploraURL                = "ESPLORA_URL"
	ElectrumURL               = "ELECTRUM_URL"
	ChainPollInterval         = "CHAIN_POLL_INTERVAL"
	FiatCurrency              = "FIAT_CURRENCY"
	FiatDirectSource          = "FIAT_DIRECT_SOURCE"
	RatesAutoRefresh          = "RATES_AUTO_REFRESH"
	RatesHTTPTimeout          = "RATES_HTTP_TIMEOUT"
	LiquidityPolicy           = "LIQUIDITY_POLICY"
	LiquidityMaxAbsoluteFee   = "LIQUIDITY_MAX_ABSOLUTE_FEE"
	LiquidityMaxRelativeFeeBp = "LIQUIDITY_MAX_RELATIVE_FEE_BP"
	SwapInMinConfirmations    = "SWAP_IN_MIN_CONFIRMATIONS"
	SwapInMaxConfirmations    = "SWAP_IN_MAX_CONFIRMATIONS"
	SwapInRefundDelay         = "SWAP_IN_REFUND_DELAY"
	PurgeExpiredInterval      = "PURGE_EXPIRED_INTERVAL"
	FinalWalletAddresses      = "FINAL_WALLET_ADDRESSES"
	SwapInAddresses           = "SWAP_IN_ADDRESSES"
)

const (
	DefaultDatadir                   = appName
	DefaultDbType                    = sqliteDb
	DefaultLogLevel                  = 4
	DefaultLogFile                   = false
	DefaultNetwork                   = "bitcoin"
	DefaultEsploraURL                = "https://blockstream.info/api"
	DefaultChainPollInterval         = "30s"
	DefaultFiatCurrency              = "USD"
	DefaultFiatDirectSource          = "blockchaininfo"
	DefaultRatesAutoRefresh          = true
	DefaultRatesHTTPTimeout          = "10s"
	DefaultLiquidityPolicy           = "auto"
	DefaultLiquidityMaxAbsoluteFee   = 5000
	DefaultLiquidityMaxRelativeFeeBp = 3000
	DefaultSwapInMinConfirmations    = 3
	DefaultSwapInMaxConfirmations    = 720
	DefaultSwapInRefundDelay         = 900
	DefaultPurgeExpiredInterval      = "1h"
)

type EnvVar struct {
	Name        string // short name under the LIGHTWALLET_ prefix (e.g., "DATADIR")
	FullName    string // e.g., "LIGHTWALLET_DATADIR"
	Type        string // human-readable type
	Default     string // default value as a string ("" if none)
	Description string // one-liner for docs
	Notes       string // optional: constraints, examples, etc.
}

func EnvSpecs() []EnvVar {
	const P = envPrefix + "_"

	return []EnvVar{
		{
			Name:        Datadir,
			FullName:    P + Datadir,
			Type:        "string (path)",
			Default:     DefaultDatadir,
			Description: "Data directory for the wallet state",
			Notes:       "The default resolves to the OS specific application directory.",
		},
		{
			Name:        DbType,
			FullName:    P + DbType,
			Type:        "string",
			Default:     DefaultDbType,
			Description: "Database backend: sqlite | badger",
		},
		{
			Name:        LogLevel,
			FullName:    P + LogLevel,
			Type:        "uint32 (0–6)",
			Default:     fmt.Sprintf("%d", DefaultLogLevel),
			Description: "Log verbosity (higher = more verbose)",
		},
		{
			Name:        LogFile,
			FullName:    P + LogFile,
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultLogFile),
			Description: "Also write logs to a rotated file under DATADIR/log",
		},
		{
			Name:        Network,
			FullName:    P + Network,
			Type:        "string",
			Default:     DefaultNetwork,
			Description: "Bitcoin network: bitcoin | testnet | signet | regtest",
		},
		// --- Chain source ---
		{
			Name:        EsploraURL,
			FullName:    P + EsploraURL,
			Type:        "string (URL)",
			Default:     DefaultEsploraURL,
			Description: "Esplora base URL",
		},
		{
			Name:        ElectrumURL,
			FullName:    P + ElectrumURL,
			Type:        "string (host:port)",
			Default:     "",
			Description: "Electrum server, replaces Esplora if set",
			Notes:       "The server must support verbose blockchain.transaction.get.",
		},
		{
			Name:        ChainPollInterval,
			FullName:    P + ChainPollInterval,
			Type:        "duration",
			Default:     DefaultChainPollInterval,
			Description: "How often the chain source is polled",
		},
		// --- Exchange rates ---
		{
			Name:        FiatCurrency,
			FullName:    P + FiatCurrency,
			Type:        "string (currency code)",
			Default:     DefaultFiatCurrency,
			Description: "Primary fiat currency",
		},
		{
			Name:        FiatDirectSource,
			FullName:    P + FiatDirectSource,
			Type:        "string",
			Default:     DefaultFiatDirectSource,
			Description: "API serving direct rates: blockchaininfo | coindesk",
		},
		{
			Name:        RatesAutoRefresh,
			FullName:    P + RatesAutoRefresh,
			Type:        "bool",
			Default:     fmt.Sprintf("%v", DefaultRatesAutoRefresh),
			Description: "Refresh exchange rates in the background",
		},
		{
			Name:        RatesHTTPTimeout,
			FullName:    P + RatesHTTPTimeout,
			Type:        "duration",
			Default:     DefaultRatesHTTPTimeout,
			Description: "Timeout of a single rate API request",
		},
		// --- Liquidity policy ---
		{
			Name:        LiquidityPolicy,
			FullName:    P + LiquidityPolicy,
			Type:        "string",
			Default:     DefaultLiquidityPolicy,
			Description: "Automatic inbound liquidity: disabled | auto",
		},
		{
			Name:        LiquidityMaxAbsoluteFee,
			FullName:    P + LiquidityMaxAbsoluteFee,
			Type:        "int64 (sats)",
			Default:     fmt.Sprintf("%d", DefaultLiquidityMaxAbsoluteFee),
			Description: "Max liquidity fee in sats",
		},
		{
			Name:        LiquidityMaxRelativeFeeBp,
			FullName:    P + LiquidityMaxRelativeFeeBp,
			Type:        "int64 (0–10000)",
			Default:     fmt.Sprintf("%d", DefaultLiquidityMaxRelativeFeeBp),
			Description: "Max liquidity fee in basis points of the amount",
		},
		// --- Swap-in wallet ---
		{
			Name:        SwapInMinConfirmations,
			FullName:    P + SwapInMinConfirmations,
			Type:        "uint32 (blocks)",
			Default:     fmt.Sprintf("%d", DefaultSwapInMinConfirmations),
			Description: "Depth at which a swap-in output is usable",
		},
		{
			Name:        SwapInMaxConfirmations,
			FullName:    P + SwapInMaxConfirmations,
			Type:        "uint32 (blocks)",
			Default:     fmt.Sprintf("%d", DefaultSwapInMaxConfirmations),
			Description: "Depth after which a swap-in output can only be refunded",
		},
		{
			Name:        SwapInRefundDelay,
			FullName:    P + SwapInRefundDelay,
			Type:        "uint32 (blocks)",
			Default:     fmt.Sprintf("%d", DefaultSwapInRefundDelay),
			Description: "Depth at which a swap-in output is refundable",
			Notes:       "Must be at least SWAP_IN_MAX_CONFIRMATIONS.",
		},
		{
			Name:        PurgeExpiredInterval,
			FullName:    P + PurgeExpiredInterval,
			Type:        "duration",
			Default:     DefaultPurgeExpiredInterval,
			Description: "How often expired unpaid invoices are removed",
		},
		{
			Name:        FinalWalletAddresses,
			FullName:    P + FinalWalletAddresses,
			Type:        "string (comma separated)",
			Default:     "",
			Description: "Final wallet addresses watched on chain",
		},
		{
			Name:        SwapInAddresses,
			FullName:    P + SwapInAddresses,
			Type:        "string (comma separated)",
			Default:     "",
			Description: "Swap-in wallet addresses watched on chain",
		},
	}
}

//go:generate go run ../../tools/gen-env-doc/main.go
