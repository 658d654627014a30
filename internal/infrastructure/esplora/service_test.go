package esplora

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

const (
	testTxid    = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	testAddress = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"
)

func TestHTTPService(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/blocks/tip/height", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "850000\n")
	})
	mux.HandleFunc("/address/"+testAddress+"/utxo", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `[
			{"txid":"%s","vout":1,"value":50000,"status":{"confirmed":true,"block_height":849990}},
			{"txid":"%s","vout":2,"value":1000,"status":{"confirmed":false}}
		]`, testTxid, testTxid)
	})
	mux.HandleFunc("/tx/"+testTxid+"/status", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"confirmed":true,"block_height":849990,"block_time":1718000000}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	svc := NewService(srv.URL+"/", "", nil, time.Second)
	ctx := context.Background()

	t.Run("block height", func(t *testing.T) {
		height, err := svc.GetBlockHeight(ctx)
		require.NoError(t, err)
		require.Equal(t, uint32(850000), height)
	})

	t.Run("address utxos", func(t *testing.T) {
		utxos, err := svc.GetAddressUtxos(ctx, testAddress)
		require.NoError(t, err)
		require.Len(t, utxos, 2)

		require.Equal(t, testTxid, utxos[0].Outpoint.Hash.String())
		require.Equal(t, uint32(1), utxos[0].Outpoint.Index)
		require.Equal(t, btcutil.Amount(50000), utxos[0].Amount)
		require.Equal(t, uint32(849990), utxos[0].BlockHeight)
		require.Zero(t, utxos[1].BlockHeight)
	})

	t.Run("tx status", func(t *testing.T) {
		txid, err := chainhash.NewHashFromStr(testTxid)
		require.NoError(t, err)

		status, err := svc.GetTxStatus(ctx, *txid)
		require.NoError(t, err)
		require.NotNil(t, status)
		require.True(t, status.Confirmed)
		require.Equal(t, uint32(849990), status.BlockHeight)
		require.Equal(t, int64(1718000000), status.BlockTime)
	})

	t.Run("unknown tx", func(t *testing.T) {
		status, err := svc.GetTxStatus(ctx, chainhash.Hash{})
		require.NoError(t, err)
		require.Nil(t, status)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := svc.GetAddressUtxos(ctx, "unknown")
		require.ErrorContains(t, err, "unexpected status 404")
	})
}

func TestAddressToScriptHash(t *testing.T) {
	scriptHash, err := addressToScriptHash(testAddress, &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Equal(t, "8b01df4e368ea28f8dc0423bcf7a4923e3a12d307c875e47a0cfbf90b5c39161", scriptHash)

	_, err = addressToScriptHash(testAddress, &chaincfg.RegressionNetParams)
	require.Error(t, err)
}

// serveElectrum answers each request line with the result returned by
// handler, preceded by an unsolicited notification.
func serveElectrum(t *testing.T, handler func(method string, params []any) (any, *electrumError)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()
				reader := bufio.NewReader(conn)
				for {
					line, err := reader.ReadBytes('\n')
					if err != nil {
						return
					}
					var req electrumRequest
					if err := json.Unmarshal(line, &req); err != nil {
						return
					}
					fmt.Fprint(conn, `{"method":"blockchain.headers.subscribe","params":[{"height":1}]}`+"\n")

					result, rpcErr := handler(req.Method, req.Params)
					resp := map[string]any{"id": req.ID, "result": result}
					if rpcErr != nil {
						resp["error"] = rpcErr
					}
					buf, _ := json.Marshal(resp)
					_, _ = conn.Write(append(buf, '\n'))
				}
			}(conn)
		}
	}()
	return ln.Addr().String()
}

func TestElectrumService(t *testing.T) {
	addr := serveElectrum(t, func(method string, params []any) (any, *electrumError) {
		switch method {
		case "blockchain.headers.subscribe":
			return map[string]any{"height": 850000, "hex": ""}, nil
		case "blockchain.scripthash.listunspent":
			return []map[string]any{
				{"tx_hash": testTxid, "tx_pos": 0, "height": 849991, "value": 2500},
				{"tx_hash": testTxid, "tx_pos": 3, "height": 0, "value": 700},
			}, nil
		case "blockchain.transaction.get":
			if params[0] == testTxid {
				return map[string]any{"confirmations": 10, "blocktime": 1718000000}, nil
			}
			return nil, &electrumError{Code: 2, Message: "missing transaction"}
		}
		return nil, &electrumError{Code: -32601, Message: "unknown method"}
	})

	svc := NewService("", addr, &chaincfg.MainNetParams, time.Second)
	ctx := context.Background()

	height, err := svc.GetBlockHeight(ctx)
	require.NoError(t, err)
	require.Equal(t, uint32(850000), height)

	utxos, err := svc.GetAddressUtxos(ctx, testAddress)
	require.NoError(t, err)
	require.Len(t, utxos, 2)
	require.Equal(t, uint32(849991), utxos[0].BlockHeight)
	require.Equal(t, btcutil.Amount(700), utxos[1].Amount)
	require.Zero(t, utxos[1].BlockHeight)

	txid, err := chainhash.NewHashFromStr(testTxid)
	require.NoError(t, err)
	status, err := svc.GetTxStatus(ctx, *txid)
	require.NoError(t, err)
	require.True(t, status.Confirmed)
	require.Equal(t, uint32(849991), status.BlockHeight)

	status, err = svc.GetTxStatus(ctx, chainhash.Hash{})
	require.NoError(t, err)
	require.Nil(t, status)
}
