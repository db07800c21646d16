package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/everFinance/goether"
)

type TxSigner interface {
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// EccSigner signs prepared txs with the key held by a goether signer.
type EccSigner struct {
	signer *goether.Signer
}

func NewEccSigner(signer *goether.Signer) *EccSigner {
	return &EccSigner{signer: signer}
}

func (e *EccSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), e.signer.GetPrivateKey())
}

type Transactor struct {
	signer  TxSigner
	from    common.Address
	backend Backend
	chainID *big.Int
	locker  sync.Mutex // nonce allocation
}

func NewTransactor(signer TxSigner, from common.Address, backend Backend, chainID uint64) *Transactor {
	return &Transactor{
		signer:  signer,
		from:    from,
		backend: backend,
		chainID: new(big.Int).SetUint64(chainID),
	}
}

func (t *Transactor) From() common.Address {
	return t.from
}

// Transact signs and sends a call to `to` with a fixed gas limit. The hash is
// returned as soon as the node accepted the tx; it says nothing about success.
func (t *Transactor) Transact(ctx context.Context, to common.Address, data []byte, gasLimit uint64) (common.Hash, error) {
	t.locker.Lock()
	defer t.locker.Unlock()

	nonce, err := t.backend.PendingNonceAt(ctx, t.from)
	if err != nil {
		return common.Hash{}, Classify(err)
	}
	gasPrice, err := t.backend.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, Classify(err)
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    big.NewInt(0),
		Data:     data,
	})
	signed, err := t.signer.SignTx(tx, t.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	if err = t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, Classify(err)
	}
	return signed.Hash(), nil
}
