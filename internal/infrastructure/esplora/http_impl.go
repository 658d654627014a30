package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// httpService is a chain source talking to the Esplora REST API.
type httpService struct {
	baseURL string
	client  *http.Client
}

func NewHTTPService(url string, timeout time.Duration) ports.ChainSource {
	return &httpService{
		baseURL: strings.TrimRight(url, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type txStatus struct {
	Confirmed   bool   `json:"confirmed"`
	BlockHeight uint32 `json:"block_height"`
	BlockTime   int64  `json:"block_time"`
}

type utxo struct {
	Txid   string   `json:"txid"`
	Vout   uint32   `json:"vout"`
	Value  int64    `json:"value"`
	Status txStatus `json:"status"`
}

func (s *httpService) GetBlockHeight(ctx context.Context) (uint32, error) {
	body, status, err := s.get(ctx, "/blocks/tip/height", 64)
	if err != nil {
		return 0, fmt.Errorf("get height: %w", err)
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
	}

	n, err := strconv.ParseUint(strings.TrimSpace(string(body)), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse height: %w", err)
	}
	return uint32(n), nil
}

func (s *httpService) GetAddressUtxos(ctx context.Context, address string) ([]domain.Utxo, error) {
	body, status, err := s.get(ctx, "/address/"+address+"/utxo", 4<<20)
	if err != nil {
		return nil, fmt.Errorf("get address utxos: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var utxos []utxo
	if err := json.Unmarshal(body, &utxos); err != nil {
		return nil, fmt.Errorf("failed to parse utxos: %w", err)
	}

	result := make([]domain.Utxo, 0, len(utxos))
	for _, u := range utxos {
		txid, err := chainhash.NewHashFromStr(u.Txid)
		if err != nil {
			return nil, fmt.Errorf("invalid utxo txid %s: %w", u.Txid, err)
		}
		var height uint32
		if u.Status.Confirmed {
			height = u.Status.BlockHeight
		}
		result = append(result, domain.Utxo{
			Outpoint:    wire.OutPoint{Hash: *txid, Index: u.Vout},
			Amount:      btcutil.Amount(u.Value),
			BlockHeight: height,
		})
	}
	return result, nil
}

// GetTxStatus returns nil if the transaction is unknown to the server.
func (s *httpService) GetTxStatus(ctx context.Context, txId chainhash.Hash) (*ports.TxStatus, error) {
	body, status, err := s.get(ctx, "/tx/"+txId.String()+"/status", 1024)
	if err != nil {
		return nil, fmt.Errorf("get tx status: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", status, strings.TrimSpace(string(body)))
	}

	var st txStatus
	if err := json.Unmarshal(body, &st); err != nil {
		return nil, fmt.Errorf("failed to parse tx status: %w", err)
	}
	return &ports.TxStatus{
		Confirmed:   st.Confirmed,
		BlockHeight: st.BlockHeight,
		BlockTime:   st.BlockTime,
	}, nil
}

func (s *httpService) get(ctx context.Context, path string, limit int64) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return b, resp.StatusCode, nil
}
