package domain

import (
	"context"
	"fmt"
	"time"
)

type FiatCurrency string

const (
	USD FiatCurrency = "USD"
	EUR FiatCurrency = "EUR"
	GBP FiatCurrency = "GBP"
	JPY FiatCurrency = "JPY"
	CAD FiatCurrency = "CAD"
	CHF FiatCurrency = "CHF"
	AUD FiatCurrency = "AUD"
	BRL FiatCurrency = "BRL"
	CNY FiatCurrency = "CNY"
	DKK FiatCurrency = "DKK"
	SEK FiatCurrency = "SEK"
	PLN FiatCurrency = "PLN"

	ARS FiatCurrency = "ARS"
	COP FiatCurrency = "COP"
	CUP FiatCurrency = "CUP"
	MXN FiatCurrency = "MXN"
	NGN FiatCurrency = "NGN"
	PEN FiatCurrency = "PEN"
	PHP FiatCurrency = "PHP"
	VND FiatCurrency = "VND"
	XOF FiatCurrency = "XOF"
	ZAR FiatCurrency = "ZAR"

	// ARS_BM is the Argentine peso at the blue market rate.
	ARS_BM FiatCurrency = "ARS_BM"
	// CUP_FM is the Cuban peso at the free market rate.
	CUP_FM FiatCurrency = "CUP_FM"
)

var (
	// DirectMarketCurrencies are priced against bitcoin directly.
	DirectMarketCurrencies = []FiatCurrency{
		USD, EUR, GBP, JPY, CAD, CHF, AUD, BRL, CNY, DKK, SEK, PLN,
	}
	// IndirectMarketCurrencies are priced against the dollar, their bitcoin
	// price is derived from the USD rate.
	IndirectMarketCurrencies = []FiatCurrency{
		ARS, COP, CUP, MXN, NGN, PEN, PHP, VND, XOF, ZAR,
	}
	BlueMarketCurrencies = []FiatCurrency{ARS_BM}
	FreeMarketCurrencies = []FiatCurrency{CUP_FM}
)

func AllFiatCurrencies() []FiatCurrency {
	all := make([]FiatCurrency, 0)
	all = append(all, DirectMarketCurrencies...)
	all = append(all, IndirectMarketCurrencies...)
	all = append(all, BlueMarketCurrencies...)
	all = append(all, FreeMarketCurrencies...)
	return all
}

func ParseFiatCurrency(code string) (FiatCurrency, error) {
	for _, c := range AllFiatCurrencies() {
		if string(c) == code {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown fiat currency %s", code)
}

type RateKind int

const (
	// BitcoinPriceRate is expressed in fiat per 1 BTC.
	BitcoinPriceRate RateKind = iota
	// UsdPriceRate is expressed in fiat per 1 USD.
	UsdPriceRate
)

func (k RateKind) String() string {
	if k == UsdPriceRate {
		return "usd_price"
	}
	return "btc_price"
}

type ExchangeRate struct {
	Currency  FiatCurrency
	Kind      RateKind
	Price     float64
	Source    string
	Timestamp time.Time
}

// ComputeBitcoinPrice derives the bitcoin price of a currency quoted against
// the dollar. The result is as old as the oldest of the two rates.
func ComputeBitcoinPrice(usdRate, fiatRate ExchangeRate) (ExchangeRate, error) {
	if usdRate.Currency != USD || usdRate.Kind != BitcoinPriceRate {
		return ExchangeRate{}, fmt.Errorf("rate %s is not a USD/BTC price", usdRate.Currency)
	}
	if fiatRate.Kind != UsdPriceRate {
		return ExchangeRate{}, fmt.Errorf("rate %s is not a USD price", fiatRate.Currency)
	}
	timestamp := usdRate.Timestamp
	if fiatRate.Timestamp.Before(timestamp) {
		timestamp = fiatRate.Timestamp
	}
	return ExchangeRate{
		Currency:  fiatRate.Currency,
		Kind:      BitcoinPriceRate,
		Price:     usdRate.Price * fiatRate.Price,
		Source:    fmt.Sprintf("%s/%s", fiatRate.Source, usdRate.Source),
		Timestamp: timestamp,
	}, nil
}

// BitcoinPriceFor returns the bitcoin price of the currency computed from the
// given rates, or nil if it cannot be priced.
func BitcoinPriceFor(currency FiatCurrency, rates []ExchangeRate) *ExchangeRate {
	var rate, usd *ExchangeRate
	for i := range rates {
		r := rates[i]
		if r.Currency == currency {
			rate = &r
		}
		if r.Currency == USD && r.Kind == BitcoinPriceRate {
			usd = &r
		}
	}
	if rate == nil {
		return nil
	}
	if rate.Kind == BitcoinPriceRate {
		return rate
	}
	if usd == nil {
		return nil
	}
	price, err := ComputeBitcoinPrice(*usd, *rate)
	if err != nil {
		return nil
	}
	return &price
}

type ExchangeRateRepository interface {
	// SaveRates upserts the rates, keeping one rate per currency.
	SaveRates(ctx context.Context, rates []ExchangeRate) error
	GetRates(ctx context.Context) ([]ExchangeRate, error)
	// GetRate returns nil if no rate is stored for the currency.
	GetRate(ctx context.Context, currency FiatCurrency) (*ExchangeRate, error)
	Close()
}
