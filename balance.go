package zns

import (
	"context"
	"fmt"
	"math/big"
)

// Balances is the session's native and payment token holdings.
type Balances struct {
	Native         *big.Int
	NativeSymbol   string
	NativeDecimals int
	Token          *big.Int
	TokenSymbol    string
	TokenDecimals  uint8
}

func (b *Balances) NativeAmount() string {
	return FormatAmount(b.Native, uint8(b.NativeDecimals))
}

func (b *Balances) TokenAmount() string {
	return FormatAmount(b.Token, b.TokenDecimals)
}

// Balances reads both balances of the current session and updates the
// balance gauges.
func (w *Workflow) Balances(ctx context.Context) (*Balances, error) {
	sess, err := w.session()
	if err != nil {
		return nil, err
	}
	native, err := sess.Chain.BalanceAt(ctx, sess.Account, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceAt: %w", err)
	}
	token, decimals, symbol, err := w.tokenBalance(ctx, sess)
	if err != nil {
		return nil, err
	}
	b := &Balances{
		Native:         native,
		NativeSymbol:   w.network.NativeCurrency.Symbol,
		NativeDecimals: w.network.NativeCurrency.Decimals,
		Token:          token,
		TokenSymbol:    symbol,
		TokenDecimals:  decimals,
	}
	metricBalance(sess.Account.Hex(), b.NativeSymbol, amountFloat(native, uint8(b.NativeDecimals)))
	metricBalance(sess.Account.Hex(), symbol, amountFloat(token, decimals))
	return b, nil
}

// Price returns the registration price with the token's display metadata.
func (w *Workflow) Price(ctx context.Context) (price *big.Int, decimals uint8, symbol string, err error) {
	sess, err := w.session()
	if err != nil {
		return nil, 0, "", err
	}
	if price, err = sess.Registry.RegistrationPrice(ctx); err != nil {
		return nil, 0, "", fmt.Errorf("registrationPrice: %w", err)
	}
	if decimals, err = sess.Token.Decimals(ctx); err != nil {
		return nil, 0, "", fmt.Errorf("decimals: %w", err)
	}
	if symbol, err = sess.Token.Symbol(ctx); err != nil {
		return nil, 0, "", fmt.Errorf("symbol: %w", err)
	}
	return price, decimals, symbol, nil
}

func (w *Workflow) tokenBalance(ctx context.Context, sess *Session) (*big.Int, uint8, string, error) {
	bal, err := sess.Token.BalanceOf(ctx, sess.Account)
	if err != nil {
		return nil, 0, "", fmt.Errorf("balanceOf: %w", err)
	}
	decimals, err := sess.Token.Decimals(ctx)
	if err != nil {
		return nil, 0, "", fmt.Errorf("decimals: %w", err)
	}
	symbol, err := sess.Token.Symbol(ctx)
	if err != nil {
		return nil, 0, "", fmt.Errorf("symbol: %w", err)
	}
	return bal, decimals, symbol, nil
}
