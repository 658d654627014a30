package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/lnwire"
)

const (
	// ReceivedMultipartsV0 stores amounts in satoshi with a single fee field.
	ReceivedMultipartsV0 = "MULTIPARTS_V0"
	ReceivedMultipartsV1 = "MULTIPARTS_V1"
)

const (
	partLightning  = "lightning"
	partNewChannel = "new_channel"
	partSpliceIn   = "splice_in"
)

type receivedPartV0 struct {
	Type        string `json:"type"`
	Amount      int64  `json:"amount"`
	Fees        int64  `json:"fees"`
	ChannelId   string `json:"channel_id,omitempty"`
	HtlcId      uint64 `json:"htlc_id,omitempty"`
	Id          string `json:"id,omitempty"`
	TxId        string `json:"txid,omitempty"`
	ConfirmedAt *int64 `json:"confirmed_at,omitempty"`
	LockedAt    *int64 `json:"locked_at,omitempty"`
}

type receivedPartV1 struct {
	Type           string `json:"type"`
	AmountMsat     uint64 `json:"amount_msat"`
	ServiceFeeMsat uint64 `json:"service_fee_msat,omitempty"`
	MiningFeeSat   int64  `json:"mining_fee_sat,omitempty"`
	ChannelId      string `json:"channel_id,omitempty"`
	HtlcId         uint64 `json:"htlc_id,omitempty"`
	Id             string `json:"id,omitempty"`
	TxId           string `json:"txid,omitempty"`
	ConfirmedAt    *int64 `json:"confirmed_at,omitempty"`
	LockedAt       *int64 `json:"locked_at,omitempty"`
}

func EncodeReceivedWith(parts []domain.ReceivedWith) (string, []byte, error) {
	data := make([]receivedPartV1, 0, len(parts))
	for _, part := range parts {
		switch p := part.(type) {
		case domain.ReceivedLightning:
			data = append(data, receivedPartV1{
				Type:       partLightning,
				AmountMsat: uint64(p.Amount),
				ChannelId:  p.ChannelId,
				HtlcId:     p.HtlcId,
			})
		case domain.ReceivedNewChannel:
			data = append(data, receivedPartV1{
				Type:           partNewChannel,
				AmountMsat:     uint64(p.Amount),
				ServiceFeeMsat: uint64(p.ServiceFee),
				MiningFeeSat:   int64(p.MiningFee),
				ChannelId:      p.ChannelId,
				Id:             p.Id.String(),
				TxId:           p.TxId.String(),
				ConfirmedAt:    fromTime(p.ConfirmedAt),
				LockedAt:       fromTime(p.LockedAt),
			})
		case domain.ReceivedSpliceIn:
			data = append(data, receivedPartV1{
				Type:           partSpliceIn,
				AmountMsat:     uint64(p.Amount),
				ServiceFeeMsat: uint64(p.ServiceFee),
				MiningFeeSat:   int64(p.MiningFee),
				ChannelId:      p.ChannelId,
				Id:             p.Id.String(),
				TxId:           p.TxId.String(),
				ConfirmedAt:    fromTime(p.ConfirmedAt),
				LockedAt:       fromTime(p.LockedAt),
			})
		default:
			return "", nil, fmt.Errorf("unsupported received part %T", part)
		}
	}
	blob, err := json.Marshal(data)
	return ReceivedMultipartsV1, blob, err
}

func DecodeReceivedWith(typ string, blob []byte) ([]domain.ReceivedWith, error) {
	var parts []receivedPartV1
	switch typ {
	case ReceivedMultipartsV0:
		var legacy []receivedPartV0
		if err := json.Unmarshal(blob, &legacy); err != nil {
			return nil, decodeErr(typ, err)
		}
		parts = make([]receivedPartV1, 0, len(legacy))
		for _, p := range legacy {
			parts = append(parts, receivedPartV1{
				Type:         p.Type,
				AmountMsat:   uint64(lnwire.NewMSatFromSatoshis(btcutil.Amount(p.Amount))),
				MiningFeeSat: p.Fees,
				ChannelId:    p.ChannelId,
				HtlcId:       p.HtlcId,
				Id:           p.Id,
				TxId:         p.TxId,
				ConfirmedAt:  p.ConfirmedAt,
				LockedAt:     p.LockedAt,
			})
		}
	case ReceivedMultipartsV1:
		if err := json.Unmarshal(blob, &parts); err != nil {
			return nil, decodeErr(typ, err)
		}
	default:
		return nil, fmt.Errorf("%w: received %s", domain.ErrUnknownEncoding, typ)
	}

	received := make([]domain.ReceivedWith, 0, len(parts))
	for _, p := range parts {
		part, err := p.toReceivedWith()
		if err != nil {
			return nil, decodeErr(typ, err)
		}
		received = append(received, part)
	}
	return received, nil
}

func (p receivedPartV1) toReceivedWith() (domain.ReceivedWith, error) {
	if p.Type == partLightning {
		return domain.ReceivedLightning{
			Amount:    lnwire.MilliSatoshi(p.AmountMsat),
			ChannelId: p.ChannelId,
			HtlcId:    p.HtlcId,
		}, nil
	}

	id, err := uuid.Parse(p.Id)
	if err != nil {
		return nil, err
	}
	txId, err := chainhash.NewHashFromStr(p.TxId)
	if err != nil {
		return nil, err
	}
	switch p.Type {
	case partNewChannel:
		return domain.ReceivedNewChannel{
			Id:          id,
			Amount:      lnwire.MilliSatoshi(p.AmountMsat),
			ServiceFee:  lnwire.MilliSatoshi(p.ServiceFeeMsat),
			MiningFee:   btcutil.Amount(p.MiningFeeSat),
			ChannelId:   p.ChannelId,
			TxId:        *txId,
			ConfirmedAt: toTime(p.ConfirmedAt),
			LockedAt:    toTime(p.LockedAt),
		}, nil
	case partSpliceIn:
		return domain.ReceivedSpliceIn{
			Id:          id,
			Amount:      lnwire.MilliSatoshi(p.AmountMsat),
			ServiceFee:  lnwire.MilliSatoshi(p.ServiceFeeMsat),
			MiningFee:   btcutil.Amount(p.MiningFeeSat),
			ChannelId:   p.ChannelId,
			TxId:        *txId,
			ConfirmedAt: toTime(p.ConfirmedAt),
			LockedAt:    toTime(p.LockedAt),
		}, nil
	default:
		return nil, fmt.Errorf("unknown part type %s", p.Type)
	}
}

func fromTime(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func toTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}
