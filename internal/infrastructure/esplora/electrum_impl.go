package esplora

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
)

type electrumService struct {
	client  *electrumClient
	network *chaincfg.Params
}

func NewElectrumService(
	address string, network *chaincfg.Params, timeout time.Duration,
) ports.ChainSource {
	return &electrumService{
		client:  newElectrumClient(address, timeout),
		network: network,
	}
}

func (s *electrumService) GetBlockHeight(ctx context.Context) (uint32, error) {
	result, err := s.client.call(ctx, "blockchain.headers.subscribe")
	if err != nil {
		return 0, fmt.Errorf("get height: %w", err)
	}

	var header struct {
		Height uint32 `json:"height"`
	}
	if err := json.Unmarshal(result, &header); err != nil {
		return 0, fmt.Errorf("failed to parse header: %w", err)
	}
	return header.Height, nil
}

func (s *electrumService) GetAddressUtxos(ctx context.Context, address string) ([]domain.Utxo, error) {
	scriptHash, err := addressToScriptHash(address, s.network)
	if err != nil {
		return nil, err
	}

	result, err := s.client.call(ctx, "blockchain.scripthash.listunspent", scriptHash)
	if err != nil {
		return nil, fmt.Errorf("list unspent: %w", err)
	}

	var unspents []struct {
		TxHash string `json:"tx_hash"`
		TxPos  uint32 `json:"tx_pos"`
		Height int64  `json:"height"`
		Value  int64  `json:"value"`
	}
	if err := json.Unmarshal(result, &unspents); err != nil {
		return nil, fmt.Errorf("failed to parse unspents: %w", err)
	}

	utxos := make([]domain.Utxo, 0, len(unspents))
	for _, u := range unspents {
		txid, err := chainhash.NewHashFromStr(u.TxHash)
		if err != nil {
			return nil, fmt.Errorf("invalid utxo txid %s: %w", u.TxHash, err)
		}
		// Mempool entries are reported with height 0 or -1.
		var height uint32
		if u.Height > 0 {
			height = uint32(u.Height)
		}
		utxos = append(utxos, domain.Utxo{
			Outpoint:    wire.OutPoint{Hash: *txid, Index: u.TxPos},
			Amount:      btcutil.Amount(u.Value),
			BlockHeight: height,
		})
	}
	return utxos, nil
}

// GetTxStatus relies on the verbose form of blockchain.transaction.get, which
// not every server implements.
func (s *electrumService) GetTxStatus(ctx context.Context, txId chainhash.Hash) (*ports.TxStatus, error) {
	result, err := s.client.call(ctx, "blockchain.transaction.get", txId.String(), true)
	if err != nil {
		var rpcErr *electrumError
		if errors.As(err, &rpcErr) {
			log.WithError(err).Debugf("electrum: tx %s not found", txId)
			return nil, nil
		}
		return nil, fmt.Errorf("get tx: %w", err)
	}

	var tx struct {
		Confirmations uint32 `json:"confirmations"`
		BlockTime     int64  `json:"blocktime"`
	}
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse tx: %w", err)
	}
	if tx.Confirmations == 0 {
		return &ports.TxStatus{}, nil
	}

	tip, err := s.GetBlockHeight(ctx)
	if err != nil {
		return nil, err
	}
	return &ports.TxStatus{
		Confirmed:   true,
		BlockHeight: tip - tx.Confirmations + 1,
		BlockTime:   tx.BlockTime,
	}, nil
}

// addressToScriptHash returns the reversed sha256 of the output script, the
// key Electrum indexes addresses by.
func addressToScriptHash(address string, network *chaincfg.Params) (string, error) {
	addr, err := btcutil.DecodeAddress(address, network)
	if err != nil {
		return "", fmt.Errorf("invalid address %s: %w", address, err)
	}
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return "", fmt.Errorf("failed to build script for %s: %w", address, err)
	}

	hash := sha256.Sum256(script)
	for i, j := 0, len(hash)-1; i < j; i, j = i+1, j-1 {
		hash[i], hash[j] = hash[j], hash[i]
	}
	return hex.EncodeToString(hash[:]), nil
}
