package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/infrastructure/db/sqlite/sqlc/queries"
)

type exchangeRateRepository struct {
	db      *sql.DB
	querier *queries.Queries
}

func NewExchangeRateRepository(db *sql.DB) (domain.ExchangeRateRepository, error) {
	if db == nil {
		return nil, fmt.Errorf("cannot open exchange rate repository: db is nil")
	}

	return &exchangeRateRepository{
		db:      db,
		querier: queries.New(db),
	}, nil
}

func (r *exchangeRateRepository) SaveRates(ctx context.Context, rates []domain.ExchangeRate) error {
	txBody := func(querierWithTx *queries.Queries) error {
		for _, rate := range rates {
			if err := querierWithTx.UpsertExchangeRate(ctx, queries.UpsertExchangeRateParams{
				FiatCurrency: string(rate.Currency),
				Kind:         int64(rate.Kind),
				Price:        rate.Price,
				Source:       rate.Source,
				UpdatedAt:    rate.Timestamp.UnixMilli(),
			}); err != nil {
				return fmt.Errorf("failed to save rate %s: %w", rate.Currency, err)
			}
		}
		return nil
	}
	return execTx(ctx, r.db, txBody)
}

func (r *exchangeRateRepository) GetRates(ctx context.Context) ([]domain.ExchangeRate, error) {
	rows, err := r.querier.ListExchangeRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get rates: %w", err)
	}
	rates := make([]domain.ExchangeRate, 0, len(rows))
	for _, row := range rows {
		rates = append(rates, toExchangeRate(row))
	}
	return rates, nil
}

func (r *exchangeRateRepository) GetRate(
	ctx context.Context, currency domain.FiatCurrency,
) (*domain.ExchangeRate, error) {
	row, err := r.querier.GetExchangeRate(ctx, string(currency))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rate %s: %w", currency, err)
	}
	rate := toExchangeRate(row)
	return &rate, nil
}

func (r *exchangeRateRepository) Close() {
	// nolint
	r.db.Close()
}

func toExchangeRate(row queries.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		Currency:  domain.FiatCurrency(row.FiatCurrency),
		Kind:      domain.RateKind(row.Kind),
		Price:     row.Price,
		Source:    row.Source,
		Timestamp: time.UnixMilli(row.UpdatedAt),
	}
}
