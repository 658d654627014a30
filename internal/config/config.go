package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"time"
	"unicode"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

const (
	sqliteDb = "sqlite"
	badgerDb = "badger"

	envPrefix = "LIGHTWALLET"
	appName   = "lightwallet"
)

type Config struct {
	Datadir  string `mapstructure:"DATADIR" envDefault:"lightwallet" envInfo:"Data directory for the wallet state"`
	DbType   string `mapstructure:"DB_TYPE" envDefault:"sqlite" envInfo:"Database backend: sqlite | badger"`
	LogLevel uint32 `mapstructure:"LOG_LEVEL" envDefault:"4" envInfo:"Log verbosity (higher = more verbose)"`
	LogFile  bool   `mapstructure:"LOG_FILE" envDefault:"false" envInfo:"Also write logs to a rotated file under DATADIR/log"`
	Network  string `mapstructure:"NETWORK" envDefault:"bitcoin" envInfo:"Bitcoin network: bitcoin | testnet | signet | regtest"`

	EsploraURL        string        `mapstructure:"ESPLORA_URL" envDefault:"https://blockstream.info/api" envInfo:"Esplora base URL"`
	ElectrumURL       string        `mapstructure:"ELECTRUM_URL" envDefault:"" envInfo:"Electrum server host:port, replaces Esplora if set"`
	ChainPollInterval time.Duration `mapstructure:"CHAIN_POLL_INTERVAL" envDefault:"30s" envInfo:"How often the chain source is polled"`

	FiatCurrency     string        `mapstructure:"FIAT_CURRENCY" envDefault:"USD" envInfo:"Primary fiat currency"`
	FiatDirectSource string        `mapstructure:"FIAT_DIRECT_SOURCE" envDefault:"blockchaininfo" envInfo:"API serving direct rates: blockchaininfo | coindesk"`
	RatesAutoRefresh bool          `mapstructure:"RATES_AUTO_REFRESH" envDefault:"true" envInfo:"Refresh exchange rates in the background"`
	RatesHTTPTimeout time.Duration `mapstructure:"RATES_HTTP_TIMEOUT" envDefault:"10s" envInfo:"Timeout of a single rate API request"`

	LiquidityPolicy           string `mapstructure:"LIQUIDITY_POLICY" envDefault:"auto" envInfo:"Automatic inbound liquidity: disabled | auto"`
	LiquidityMaxAbsoluteFee   int64  `mapstructure:"LIQUIDITY_MAX_ABSOLUTE_FEE" envDefault:"5000" envInfo:"Max liquidity fee in sats"`
	LiquidityMaxRelativeFeeBp int64  `mapstructure:"LIQUIDITY_MAX_RELATIVE_FEE_BP" envDefault:"3000" envInfo:"Max liquidity fee in basis points of the amount"`

	SwapInMinConfirmations uint32 `mapstructure:"SWAP_IN_MIN_CONFIRMATIONS" envDefault:"3" envInfo:"Depth at which a swap-in output is usable"`
	SwapInMaxConfirmations uint32 `mapstructure:"SWAP_IN_MAX_CONFIRMATIONS" envDefault:"720" envInfo:"Depth after which a swap-in output can only be refunded"`
	SwapInRefundDelay      uint32 `mapstructure:"SWAP_IN_REFUND_DELAY" envDefault:"900" envInfo:"Depth at which a swap-in output is refundable"`

	PurgeExpiredInterval time.Duration `mapstructure:"PURGE_EXPIRED_INTERVAL" envDefault:"1h" envInfo:"How often expired unpaid invoices are removed"`
	FinalWalletAddresses []string      `mapstructure:"FINAL_WALLET_ADDRESSES" envDefault:"" envInfo:"Comma separated final wallet addresses"`
	SwapInAddresses      []string      `mapstructure:"SWAP_IN_ADDRESSES" envDefault:"" envInfo:"Comma separated swap-in wallet addresses"`

	network            *chaincfg.Params
	fiatCurrency       domain.FiatCurrency
	liquidityPolicy    domain.LiquidityPolicy
	confirmationPolicy domain.ConfirmationPolicy
}

func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := setDefaultConfig(v); err != nil {
		return nil, fmt.Errorf("error setting default config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %v", err)
	}

	if err := config.initDb(); err != nil {
		return nil, fmt.Errorf("error initializing data directory: %w", err)
	}

	if err := config.derive(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) derive() error {
	network, err := parseNetwork(c.Network)
	if err != nil {
		return err
	}
	c.network = network

	if c.EsploraURL == "" && c.ElectrumURL == "" {
		return fmt.Errorf("missing chain source, set either ESPLORA_URL or ELECTRUM_URL")
	}
	if c.ChainPollInterval <= 0 {
		return fmt.Errorf("invalid chain poll interval %s", c.ChainPollInterval)
	}
	if c.PurgeExpiredInterval <= 0 {
		return fmt.Errorf("invalid purge interval %s", c.PurgeExpiredInterval)
	}

	currency, err := domain.ParseFiatCurrency(strings.ToUpper(c.FiatCurrency))
	if err != nil {
		return err
	}
	c.fiatCurrency = currency

	switch c.FiatDirectSource {
	case "blockchaininfo", "coindesk":
	default:
		return fmt.Errorf("unsupported direct rate source: %s", c.FiatDirectSource)
	}

	policy, err := domain.ParseLiquidityPolicy(
		c.LiquidityPolicy, c.LiquidityMaxAbsoluteFee, c.LiquidityMaxRelativeFeeBp,
	)
	if err != nil {
		return err
	}
	c.liquidityPolicy = policy

	if c.SwapInMinConfirmations == 0 ||
		c.SwapInMinConfirmations > c.SwapInMaxConfirmations ||
		c.SwapInMaxConfirmations > c.SwapInRefundDelay {
		return fmt.Errorf(
			"invalid swap-in confirmations: min %d, max %d, refund delay %d",
			c.SwapInMinConfirmations, c.SwapInMaxConfirmations, c.SwapInRefundDelay,
		)
	}
	c.confirmationPolicy = domain.ConfirmationPolicy{
		MinConfirmations: c.SwapInMinConfirmations,
		MaxConfirmations: c.SwapInMaxConfirmations,
		RefundDelay:      c.SwapInRefundDelay,
	}

	c.FinalWalletAddresses = cleanList(c.FinalWalletAddresses)
	c.SwapInAddresses = cleanList(c.SwapInAddresses)
	return nil
}

func (c *Config) NetworkParams() *chaincfg.Params {
	return c.network
}

func (c *Config) PrimaryFiatCurrency() domain.FiatCurrency {
	return c.fiatCurrency
}

func (c *Config) GetLiquidityPolicy() domain.LiquidityPolicy {
	return c.liquidityPolicy
}

func (c *Config) GetConfirmationPolicy() domain.ConfirmationPolicy {
	return c.confirmationPolicy
}

func (c *Config) DbDir() string {
	return filepath.Join(c.Datadir, "db")
}

func (c *Config) LogDir() string {
	return filepath.Join(c.Datadir, "log")
}

func (c *Config) initDb() error {
	supportedDbType := map[string]struct{}{
		sqliteDb: {},
		badgerDb: {},
	}

	if _, ok := supportedDbType[c.DbType]; !ok {
		return fmt.Errorf("unsupported db type: %s", c.DbType)
	}

	if c.Datadir == appName {
		c.Datadir = appDatadir(appName, false)
	} else {
		c.Datadir = cleanAndExpandPath(c.Datadir)
	}

	return makeDirectoryIfNotExists(c.Datadir)
}

func parseNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case "bitcoin", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet", "testnet3":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %s", name)
	}
}

func cleanList(list []string) []string {
	cleaned := make([]string, 0, len(list))
	for _, item := range list {
		for _, s := range strings.Split(item, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cleaned = append(cleaned, s)
			}
		}
	}
	return cleaned
}

func setDefaultConfig(v *viper.Viper) error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Tag.Get("mapstructure")
		def := f.Tag.Get("envDefault")
		if def != "" {
			v.SetDefault(key, def)
		}
		err := v.BindEnv(key)
		if err != nil {
			return fmt.Errorf("error binding env variable for key %s: %w", key, err)
		}
	}
	return nil
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDatadir returns an operating system specific directory to be used for
// storing application data for an application.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}

	// Fall back to standard HOME environment variable that works
	// for most POSIX OSes.
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows XP and before didn't have a LOCALAPPDATA, so fallback
		// to regular APPDATA when LOCALAPPDATA is not set.
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library", "Application Support", appNameUpper)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	return "."
}

func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}
