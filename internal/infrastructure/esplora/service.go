package esplora

import (
	"time"

	"github.com/ArkLabsHQ/lightwallet/internal/core/ports"
	"github.com/btcsuite/btcd/chaincfg"
)

const defaultTimeout = 10 * time.Second

// NewService returns a chain source backed by an Electrum server if
// electrumURL is set, by the Esplora REST API otherwise.
func NewService(
	esploraURL, electrumURL string, network *chaincfg.Params, timeout time.Duration,
) ports.ChainSource {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if network == nil {
		network = &chaincfg.MainNetParams
	}
	if electrumURL != "" {
		return NewElectrumService(electrumURL, network, timeout)
	}
	return NewHTTPService(esploraURL, timeout)
}
