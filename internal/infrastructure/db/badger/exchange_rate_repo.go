package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"
)

const (
	exchangeRateDir = "rates"
)

type exchangeRateRepository struct {
	store *badgerhold.Store
}

func NewExchangeRateRepository(baseDir string, logger badger.Logger) (domain.ExchangeRateRepository, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, exchangeRateDir)
	}
	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open exchange rate store: %s", err)
	}
	return &exchangeRateRepository{store}, nil
}

func (r *exchangeRateRepository) SaveRates(ctx context.Context, rates []domain.ExchangeRate) error {
	return update(r.store, func(tx *badger.Txn) error {
		for _, rate := range rates {
			data := toExchangeRateData(rate)
			if err := r.store.TxUpsert(tx, data.Currency, data); err != nil {
				return fmt.Errorf("failed to save rate %s: %w", rate.Currency, err)
			}
		}
		return nil
	})
}

func (r *exchangeRateRepository) GetRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	var dataList []exchangeRateData
	if err := r.store.Find(&dataList, nil); err != nil {
		return nil, fmt.Errorf("failed to get rates: %w", err)
	}
	rates := make([]domain.ExchangeRate, 0, len(dataList))
	for _, data := range dataList {
		rates = append(rates, data.toExchangeRate())
	}
	sort.Slice(rates, func(i, j int) bool { return rates[i].Currency < rates[j].Currency })
	return rates, nil
}

func (r *exchangeRateRepository) GetRate(
	ctx context.Context, currency domain.FiatCurrency,
) (*domain.ExchangeRate, error) {
	var data exchangeRateData
	if err := r.store.Get(string(currency), &data); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rate %s: %w", currency, err)
	}
	rate := data.toExchangeRate()
	return &rate, nil
}

func (r *exchangeRateRepository) Close() {
	// nolint:all
	r.store.Close()
}

type exchangeRateData struct {
	Currency  string
	Kind      int
	Price     float64
	Source    string
	Timestamp int64
}

func toExchangeRateData(rate domain.ExchangeRate) exchangeRateData {
	return exchangeRateData{
		Currency:  string(rate.Currency),
		Kind:      int(rate.Kind),
		Price:     rate.Price,
		Source:    rate.Source,
		Timestamp: rate.Timestamp.UnixMilli(),
	}
}

func (d exchangeRateData) toExchangeRate() domain.ExchangeRate {
	return domain.ExchangeRate{
		Currency:  domain.FiatCurrency(d.Currency),
		Kind:      domain.RateKind(d.Kind),
		Price:     d.Price,
		Source:    d.Source,
		Timestamp: time.UnixMilli(d.Timestamp),
	}
}
