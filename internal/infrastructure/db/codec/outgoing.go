package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lntypes"
)

const (
	DetailsNormalV0  = "NORMAL_V0"
	DetailsKeySendV0 = "KEYSEND_V0"
	DetailsSwapOutV0 = "SWAPOUT_V0"
	DetailsClosingV0 = "CLOSING_V0"

	PartSucceededV0 = "SUCCEEDED_V0"
	PartFailedV0    = "FAILED_V0"

	StatusSucceededOffChainV0 = "SUCCEEDED_OFFCHAIN_V0"
	StatusSucceededOnChainV0  = "SUCCEEDED_ONCHAIN_V0"
	StatusFailedV0            = "FAILED_V0"
)

type normalV0 struct {
	Request string `json:"request"`
	Hash    string `json:"hash"`
}

type keySendV0 struct {
	Preimage string `json:"preimage"`
}

type swapOutV0 struct {
	Address    string `json:"address"`
	Request    string `json:"request"`
	Hash       string `json:"hash"`
	SwapOutFee int64  `json:"swap_out_fee"`
}

type closingV0 struct {
	ChannelId              string `json:"channel_id"`
	ClosingAddress         string `json:"closing_address"`
	IsSentToDefaultAddress bool   `json:"is_sent_to_default_address"`
}

func EncodeDetails(details domain.LightningOutgoingDetails) (string, []byte, error) {
	switch d := details.(type) {
	case domain.NormalDetails:
		blob, err := json.Marshal(normalV0{d.PaymentRequest, d.Hash.String()})
		return DetailsNormalV0, blob, err
	case domain.KeySendDetails:
		blob, err := json.Marshal(keySendV0{d.Preimage.String()})
		return DetailsKeySendV0, blob, err
	case domain.SwapOutDetails:
		blob, err := json.Marshal(swapOutV0{
			d.Address, d.PaymentRequest, d.Hash.String(), int64(d.SwapOutFee),
		})
		return DetailsSwapOutV0, blob, err
	case domain.ChannelClosingDetails:
		blob, err := json.Marshal(closingV0{
			d.ChannelId, d.ClosingAddress, d.IsSentToDefaultAddress,
		})
		return DetailsClosingV0, blob, err
	default:
		return "", nil, fmt.Errorf("unsupported outgoing details %T", details)
	}
}

func DecodeDetails(typ string, blob []byte) (domain.LightningOutgoingDetails, error) {
	switch typ {
	case DetailsNormalV0:
		var data normalV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		hash, err := lntypes.MakeHashFromStr(data.Hash)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.NormalDetails{PaymentRequest: data.Request, Hash: hash}, nil
	case DetailsKeySendV0:
		var data keySendV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		preimage, err := lntypes.MakePreimageFromStr(data.Preimage)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.KeySendDetails{Preimage: preimage}, nil
	case DetailsSwapOutV0:
		var data swapOutV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		hash, err := lntypes.MakeHashFromStr(data.Hash)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.SwapOutDetails{
			Address:        data.Address,
			PaymentRequest: data.Request,
			Hash:           hash,
			SwapOutFee:     btcutil.Amount(data.SwapOutFee),
		}, nil
	case DetailsClosingV0:
		var data closingV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.ChannelClosingDetails{
			ChannelId:              data.ChannelId,
			ClosingAddress:         data.ClosingAddress,
			IsSentToDefaultAddress: data.IsSentToDefaultAddress,
		}, nil
	default:
		return nil, fmt.Errorf("%w: details %s", domain.ErrUnknownEncoding, typ)
	}
}

type succeededV0 struct {
	Preimage string `json:"preimage"`
}

type partFailedV0 struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// EncodePartStatus returns an empty type for pending parts.
func EncodePartStatus(status domain.PartStatus) (string, []byte, error) {
	switch s := status.(type) {
	case nil, domain.PartPending:
		return "", nil, nil
	case domain.PartSucceeded:
		blob, err := json.Marshal(succeededV0{s.Preimage.String()})
		return PartSucceededV0, blob, err
	case domain.PartFailed:
		blob, err := json.Marshal(partFailedV0{s.Code, s.Message})
		return PartFailedV0, blob, err
	default:
		return "", nil, fmt.Errorf("unsupported part status %T", status)
	}
}

func DecodePartStatus(typ string, blob []byte, completedAt time.Time) (domain.PartStatus, error) {
	switch typ {
	case "":
		return domain.PartPending{}, nil
	case PartSucceededV0:
		var data succeededV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		preimage, err := lntypes.MakePreimageFromStr(data.Preimage)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.PartSucceeded{Preimage: preimage, CompletedAt: completedAt}, nil
	case PartFailedV0:
		var data partFailedV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.PartFailed{Code: data.Code, Message: data.Message, CompletedAt: completedAt}, nil
	default:
		return nil, fmt.Errorf("%w: part status %s", domain.ErrUnknownEncoding, typ)
	}
}

type closingTxPartV0 struct {
	TxId        string `json:"txid"`
	Claimed     int64  `json:"claimed"`
	ClosingType string `json:"closing_type"`
	CreatedAt   int64  `json:"created_at"`
}

type succeededOnChainV0 struct {
	Parts []closingTxPartV0 `json:"parts"`
}

type paymentFailedV0 struct {
	Reason string `json:"reason"`
}

// EncodeStatus returns an empty type for pending payments.
func EncodeStatus(status domain.LightningOutgoingStatus) (string, []byte, error) {
	switch s := status.(type) {
	case nil, domain.OutgoingPending:
		return "", nil, nil
	case domain.OutgoingSucceededOffChain:
		blob, err := json.Marshal(succeededV0{s.Preimage.String()})
		return StatusSucceededOffChainV0, blob, err
	case domain.OutgoingSucceededOnChain:
		parts := make([]closingTxPartV0, 0, len(s.Parts))
		for _, p := range s.Parts {
			parts = append(parts, closingTxPartV0{
				TxId:        p.TxId.String(),
				Claimed:     int64(p.Claimed),
				ClosingType: string(p.ClosingType),
				CreatedAt:   p.CreatedAt.UnixMilli(),
			})
		}
		blob, err := json.Marshal(succeededOnChainV0{parts})
		return StatusSucceededOnChainV0, blob, err
	case domain.OutgoingFailed:
		blob, err := json.Marshal(paymentFailedV0{string(s.Reason)})
		return StatusFailedV0, blob, err
	default:
		return "", nil, fmt.Errorf("unsupported payment status %T", status)
	}
}

func DecodeStatus(typ string, blob []byte, completedAt time.Time) (domain.LightningOutgoingStatus, error) {
	switch typ {
	case "":
		return domain.OutgoingPending{}, nil
	case StatusSucceededOffChainV0:
		var data succeededV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		preimage, err := lntypes.MakePreimageFromStr(data.Preimage)
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.OutgoingSucceededOffChain{Preimage: preimage, CompletedAt: completedAt}, nil
	case StatusSucceededOnChainV0:
		var data succeededOnChainV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		parts := make([]domain.ClosingTxPart, 0, len(data.Parts))
		for _, p := range data.Parts {
			txId, err := chainhash.NewHashFromStr(p.TxId)
			if err != nil {
				return nil, decodeErr(typ, err)
			}
			parts = append(parts, domain.ClosingTxPart{
				TxId:        *txId,
				Claimed:     btcutil.Amount(p.Claimed),
				ClosingType: domain.ClosingType(p.ClosingType),
				CreatedAt:   time.UnixMilli(p.CreatedAt),
			})
		}
		return domain.OutgoingSucceededOnChain{Parts: parts, CompletedAt: completedAt}, nil
	case StatusFailedV0:
		var data paymentFailedV0
		if err := json.Unmarshal(blob, &data); err != nil {
			return nil, decodeErr(typ, err)
		}
		return domain.OutgoingFailed{Reason: domain.FinalFailure(data.Reason), CompletedAt: completedAt}, nil
	default:
		return nil, fmt.Errorf("%w: payment status %s", domain.ErrUnknownEncoding, typ)
	}
}
