package utils_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArkLabsHQ/lightwallet/utils"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/stretchr/testify/require"
)

const testInvoice = "lnbc2500u1pvjluezpp5qqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqqqsyqcyq5rqwzqfqypqdq5xysxxatsyp3k7enxv4jsxqzpuaztrnwngzn3kdzw5hydlzf03qdgm2hdq27cqv3agm2awhz5se903vruatfhq77w3ls4evs3ch9zw97j25emudupq63nyw24cg27h2rspfj9srp"

func TestUtils(t *testing.T) {
	t.Run("invoice", testInvoices)
	t.Run("retry", testRetry)
}

func testInvoices(t *testing.T) {
	invoice, err := utils.ParseInvoice(testInvoice)
	require.NoError(t, err)
	require.Equal(t, testInvoice, invoice.PaymentRequest)
	require.Equal(
		t, "0001020304050607080900010203040506070809000102030405060708090102",
		invoice.PaymentHash.String(),
	)
	require.NotNil(t, invoice.Amount)
	require.Equal(t, lnwire.MilliSatoshi(250_000_000), *invoice.Amount)
	require.Equal(t, int64(1496314658), invoice.CreatedAt.Unix())
	require.Equal(t, time.Minute, invoice.Expiry)

	require.Equal(t, 250_000, utils.SatsFromInvoice(testInvoice))
	require.True(t, utils.IsValidInvoice(testInvoice))

	_, err = utils.ParseInvoice("lnbc1invalid")
	require.Error(t, err)
	require.False(t, utils.IsValidInvoice("lnbc1invalid"))
}

func testRetry(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := utils.Retry(ctx, time.Millisecond, func(context.Context) (bool, error) {
		attempts++
		return attempts == 3, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)

	err = utils.Retry(ctx, time.Millisecond, func(context.Context) (bool, error) {
		return false, errors.New("boom")
	})
	require.ErrorContains(t, err, "boom")

	timeoutCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	err = utils.Retry(timeoutCtx, 5*time.Millisecond, func(context.Context) (bool, error) {
		return false, nil
	})
	require.EqualError(t, err, "timed out")
}
