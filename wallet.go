package zns

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/everFinance/zns/schema"
)

// WalletProvider is the account holder. Implementations must translate their
// own rejection codes into schema.ErrUserRejected and schema.ErrUnknownChain.
type WalletProvider interface {
	// RequestAccounts may prompt the user.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// Accounts returns the already exposed accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	ActiveChain(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	AddChain(ctx context.Context, desc schema.NetworkDescriptor) error
	Events() <-chan schema.WalletEvent
}

type Registry interface {
	IsAvailable(ctx context.Context, name string) (bool, error)
	OwnerOf(ctx context.Context, name string) (common.Address, error)
	ExpiryOf(ctx context.Context, name string) (int64, error)
	ResolveDomain(ctx context.Context, name string) (common.Address, error)
	RegistrationPrice(ctx context.Context) (*big.Int, error)

	Register(ctx context.Context, name string, gasLimit uint64) (common.Hash, error)
	Renew(ctx context.Context, name string, gasLimit uint64) (common.Hash, error)
	Transfer(ctx context.Context, name string, newOwner common.Address, gasLimit uint64) (common.Hash, error)
}

type Token interface {
	BalanceOf(ctx context.Context, account common.Address) (*big.Int, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	Decimals(ctx context.Context) (uint8, error)
	Symbol(ctx context.Context) (string, error)

	Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (common.Hash, error)
}

// ChainReader is the slice of the node api needed outside of the contracts.
type ChainReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type Bindings struct {
	Registry Registry
	Token    Token
	Chain    ChainReader
}

// Binder creates contract handles signing as account on chainID.
type Binder interface {
	Bind(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Bindings, error)
}

type BinderFunc func(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Bindings, error)

func (f BinderFunc) Bind(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Bindings, error) {
	return f(ctx, account, chainID, contracts)
}
