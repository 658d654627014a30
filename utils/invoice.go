package utils

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/lntypes"
	"github.com/lightningnetwork/lnd/lnwire"
	decodepay "github.com/nbd-wtf/ln-decodepay"
)

type Invoice struct {
	PaymentRequest string
	PaymentHash    lntypes.Hash
	// Amount is nil for amountless invoices.
	Amount    *lnwire.MilliSatoshi
	CreatedAt time.Time
	Expiry    time.Duration
}

func ParseInvoice(invoice string) (*Invoice, error) {
	bolt11, err := decodepay.Decodepay(invoice)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice: %w", err)
	}

	hash, err := lntypes.MakeHashFromStr(bolt11.PaymentHash)
	if err != nil {
		return nil, fmt.Errorf("invalid invoice payment hash: %w", err)
	}

	var amount *lnwire.MilliSatoshi
	if bolt11.MSatoshi > 0 {
		msat := lnwire.MilliSatoshi(bolt11.MSatoshi)
		amount = &msat
	}

	return &Invoice{
		PaymentRequest: invoice,
		PaymentHash:    hash,
		Amount:         amount,
		CreatedAt:      time.Unix(int64(bolt11.CreatedAt), 0),
		Expiry:         time.Duration(bolt11.Expiry) * time.Second,
	}, nil
}

func SatsFromInvoice(invoice string) int {
	n, err := decodepay.Decodepay(invoice)
	if err != nil {
		return 0
	}
	return int(n.MSatoshi / 1000)
}

func IsValidInvoice(invoice string) bool {
	_, err := decodepay.Decodepay(invoice)
	return err == nil
}
