package schema

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// NetworkDescriptor is handed verbatim to the wallet when it does not know the
// target chain yet.
type NetworkDescriptor struct {
	ChainID           uint64         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	RpcUrls           []string       `json:"rpcUrls"`
	BlockExplorerUrls []string       `json:"blockExplorerUrls"`
}

func (n NetworkDescriptor) HexChainID() string {
	return HexChainID(n.ChainID)
}

func HexChainID(chainID uint64) string {
	return fmt.Sprintf("0x%X", chainID)
}

func (n NetworkDescriptor) TxURL(hash common.Hash) string {
	if len(n.BlockExplorerUrls) == 0 {
		return ""
	}
	return strings.TrimSuffix(n.BlockExplorerUrls[0], "/") + "/tx/" + hash.Hex()
}

type Contracts struct {
	DomainRegistry common.Address `json:"domainRegistry"`
	PaymentToken   common.Address `json:"paymentToken"`
}

const (
	EventAccountsChanged = "accountsChanged"
	EventChainChanged    = "chainChanged"
)

// WalletEvent is pushed by the wallet provider when its accounts or its active
// chain change outside of the client's control.
type WalletEvent struct {
	Type     string
	Accounts []common.Address
	ChainID  uint64
}
