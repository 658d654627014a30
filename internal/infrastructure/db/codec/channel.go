package codec

import (
	"encoding/json"
	"fmt"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/lightningnetwork/lnd/lnwire"
)

const ChannelV0 = "CHANNEL_V0"

type commitmentV0 struct {
	FundingTxId        string `json:"funding_txid"`
	FundingTxIndex     uint64 `json:"funding_tx_index"`
	BalanceForSendMsat uint64 `json:"balance_for_send_msat"`
	FundingAmountSat   int64  `json:"funding_amount_sat"`
}

type channelV0 struct {
	State               string         `json:"state"`
	LocalBalanceMsat    *uint64        `json:"local_balance_msat,omitempty"`
	Commitments         []commitmentV0 `json:"commitments"`
	InactiveCommitments []commitmentV0 `json:"inactive_commitments"`
}

func EncodeChannel(ch domain.ChannelSnapshot) (string, []byte, error) {
	var balance *uint64
	if ch.LocalBalance != nil {
		msat := uint64(*ch.LocalBalance)
		balance = &msat
	}
	blob, err := json.Marshal(channelV0{
		State:               string(ch.State),
		LocalBalanceMsat:    balance,
		Commitments:         fromCommitments(ch.Commitments),
		InactiveCommitments: fromCommitments(ch.InactiveCommitments),
	})
	return ChannelV0, blob, err
}

func DecodeChannel(channelId, typ string, blob []byte) (*domain.ChannelSnapshot, error) {
	if typ != ChannelV0 {
		return nil, fmt.Errorf("%w: channel %s", domain.ErrUnknownEncoding, typ)
	}
	var data channelV0
	if err := json.Unmarshal(blob, &data); err != nil {
		return nil, decodeErr(typ, err)
	}
	commitments, err := toCommitments(data.Commitments)
	if err != nil {
		return nil, decodeErr(typ, err)
	}
	inactive, err := toCommitments(data.InactiveCommitments)
	if err != nil {
		return nil, decodeErr(typ, err)
	}
	var balance *lnwire.MilliSatoshi
	if data.LocalBalanceMsat != nil {
		msat := lnwire.MilliSatoshi(*data.LocalBalanceMsat)
		balance = &msat
	}
	return &domain.ChannelSnapshot{
		ChannelId:           channelId,
		State:               domain.ChannelState(data.State),
		LocalBalance:        balance,
		Commitments:         commitments,
		InactiveCommitments: inactive,
	}, nil
}

func fromCommitments(commitments []domain.CommitmentInfo) []commitmentV0 {
	data := make([]commitmentV0, 0, len(commitments))
	for _, c := range commitments {
		data = append(data, commitmentV0{
			FundingTxId:        c.FundingTxId.String(),
			FundingTxIndex:     c.FundingTxIndex,
			BalanceForSendMsat: uint64(c.BalanceForSend),
			FundingAmountSat:   int64(c.FundingAmount),
		})
	}
	return data
}

func toCommitments(data []commitmentV0) ([]domain.CommitmentInfo, error) {
	commitments := make([]domain.CommitmentInfo, 0, len(data))
	for _, c := range data {
		txId, err := chainhash.NewHashFromStr(c.FundingTxId)
		if err != nil {
			return nil, err
		}
		commitments = append(commitments, domain.CommitmentInfo{
			FundingTxId:    *txId,
			FundingTxIndex: c.FundingTxIndex,
			BalanceForSend: lnwire.MilliSatoshi(c.BalanceForSendMsat),
			FundingAmount:  btcutil.Amount(c.FundingAmountSat),
		})
	}
	return commitments, nil
}
