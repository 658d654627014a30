// Package codec serializes the polymorphic parts of the payment records into
// versioned JSON blobs. Every blob is stored along with its type tag. New
// records are always written with the latest version of a tag, older versions
// are kept decodable.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	OriginInvoiceV0 = "INVOICE_V0"
	OriginInvoiceV1 = "INVOICE_V1"
	OriginKeySendV0 = "KEYSEND_V0"
	OriginSwapInV0  = "SWAPIN_V0"
	OriginOnChainV0 = "ONCHAIN_V0"
)

// invoiceV0 is the first format: the invoice timestamp is the creation time
// of the payment and the amount is not stored.
type invoiceV0 struct {
	Request string `json:"request"`
	Expiry  int64  `json:"expiry,omitempty"`
}

type invoiceV1 struct {
	Request    string  `json:"request"`
	AmountMsat *uint64 `json:"amount_msat,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	Expiry     int64   `json:"expiry"`
}

type swapInV0 struct {
	Address string `json:"address"`
}

type onChainV0 struct {
	TxId   string   `json:"txid"`
	Inputs []string `json:"inputs"`
}

func EncodeOrigin(origin domain.IncomingOrigin) (string, []byte, error) {
	switch o := origin.(type) {
	case domain.InvoiceOrigin:
		var amount *uint64
		if o.Amount != nil {
			msat := uint64(*o.Amount)
			amount = &msat
		}
		blob, err := json.Marshal(invoiceV1{
			Request:    o.PaymentRequest,
			AmountMsat: amount,
			Timestamp:  o.Timestamp.UnixMilli(),
			Expiry:     int64(o.Expiry / time.Second),
		})
		return OriginInvoiceV1, blob, err
	case domain.KeySendOrigin:
		return OriginKeySendV0, []byte("{}"), nil
	case domain.SwapInOrigin:
		blob, err := json.Marshal(swapInV0{o.Address})
		return OriginSwapInV0, blob, err
	case domain.OnChainOrigin:
		inputs := make([]string, 0, len(o.LocalInputs))
		for _, in := range o.LocalInputs {
			inputs = append(inputs, in.String())
		}
		blob, err := json.Marshal(onChainV0{o.TxId.String(), inputs})
		return OriginOnChainV0, blob, err
	default:
		return "", nil, fmt.Errorf("unsupported incoming origin %T", origin)
	}
}

// DecodeOrigin needs the creation time of the payment to decode the legacy
// invoice format.
func DecodeOrigin(typ string, blob []byte, createdAt time.Time) (domain.IncomingOrigin, error) {
	switch typ {
	case OriginInvoiceV0:
		var data invoiceV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.InvoiceOrigin{
			PaymentRequest: data.Request,
			Timestamp:      createdAt,
			Expiry:         time.Duration(data.Expiry) * time.Second,
		}, nil
	case OriginInvoiceV1:
		var data invoiceV1
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		var amount *lnwire.MilliSatoshi
		if data.AmountMsat != nil {
			msat := lnwire.MilliSatoshi(*data.AmountMsat)
			amount = &msat
		}
		return domain.InvoiceOrigin{
			PaymentRequest: data.Request,
			Amount:         amount,
			Timestamp:      time.UnixMilli(data.Timestamp),
			Expiry:         time.Duration(data.Expiry) * time.Second,
		}, nil
	case OriginKeySendV0:
		return domain.KeySendOrigin{}, nil
	case OriginSwapInV0:
		var data swapInV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.SwapInOrigin{Address: data.Address}, nil
	case OriginOnChainV0:
		var data onChainV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		txId, err := chainhash.NewHashFromStr(data.TxId)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		inputs := make([]wire.OutPoint, 0, len(data.Inputs))
		for _, in := range data.Inputs {
			outpoint, err := ParseOutPoint(in)
			if err != nil {
				return nil, decodeErr(typ, err)
			}
			inputs = append(inputs, *outpoint)
		}
		return domain.OnChainOrigin{TxId: *txId, LocalInputs: inputs}, nil
	default:
		return nil, fmt.Errorf("%w: origin %s", domain.ErrUnknownEncoding, typ)
	}
}

// ParseOutPoint parses the txid:index form produced by wire.OutPoint.String.
func ParseOutPoint(s string) (*wire.OutPoint, error) {
	txid, index, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("invalid outpoint %s", s)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, err
	}
	vout, err := strconv.ParseUint(index, 10, 32)
	if err != nil {
		return nil, err
	}
	return wire.NewOutPoint(hash, uint32(vout)), nil
}

func decodeErr(typ string, err error) error {
	return fmt.Errorf("%w: %s: %s", domain.ErrUnknownEncoding, typ, err)
}
