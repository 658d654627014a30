package ports

import (
	"context"

	"github.com/ArkLabsHQ/lightwallet/internal/core/domain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

type TxStatus struct {
	Confirmed   bool
	BlockHeight uint32
	BlockTime   int64
}

type ChainSource interface {
	GetBlockHeight(ctx context.Context) (uint32, error)
	GetAddressUtxos(ctx context.Context, address string) ([]domain.Utxo, error)
	GetTxStatus(ctx context.Context, txId chainhash.Hash) (*TxStatus, error)
}
