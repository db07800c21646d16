package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the part of *ethclient.Client the bindings use.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

type DialFunc func(ctx context.Context, rawurl string) (Backend, error)

func EthDial(ctx context.Context, rawurl string) (Backend, error) {
	return ethclient.DialContext(ctx, rawurl)
}

// contract is a bound address plus its abi. Reads go through CallContract;
// writes need a transactor and fail without one.
type contract struct {
	abi     abiCodec
	address common.Address
	backend Backend
	from    common.Address
	tx      *Transactor
}

type abiCodec interface {
	Pack(name string, args ...interface{}) ([]byte, error)
	Unpack(name string, data []byte) ([]interface{}, error)
}

func (c *contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := c.address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{From: c.from, To: &to, Data: data}, nil)
	if err != nil {
		return nil, Classify(err)
	}
	return c.abi.Unpack(method, out)
}

func (c *contract) transact(ctx context.Context, gasLimit uint64, method string, args ...interface{}) (common.Hash, error) {
	if c.tx == nil {
		return common.Hash{}, ErrReadOnly
	}
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, err
	}
	return c.tx.Transact(ctx, c.address, data, gasLimit)
}
