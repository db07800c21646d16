package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Token is an ERC20 binding of the payment token.
type Token struct {
	contract
}

func NewToken(address common.Address, backend Backend, tx *Transactor) *Token {
	t := &Token{contract{abi: erc20ABI, address: address, backend: backend, tx: tx}}
	if tx != nil {
		t.from = tx.From()
	}
	return t
}

func (t *Token) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return uint256Output(t.call(ctx, "balanceOf", account))
}

func (t *Token) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return uint256Output(t.call(ctx, "allowance", owner, spender))
}

func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	res, err := t.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := res[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals: unexpected output %T", res[0])
	}
	return d, nil
}

func (t *Token) Symbol(ctx context.Context) (string, error) {
	res, err := t.call(ctx, "symbol")
	if err != nil {
		return "", err
	}
	s, ok := res[0].(string)
	if !ok {
		return "", fmt.Errorf("symbol: unexpected output %T", res[0])
	}
	return s, nil
}

func (t *Token) Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (common.Hash, error) {
	return t.transact(ctx, gasLimit, "approve", spender, amount)
}
