package zns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/everFinance/zns/schema"
)

const (
	DefaultConfirmTimeout = 3 * time.Minute
	DefaultPollInterval   = 2 * time.Second
)

type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// WaitMined polls for the receipt of hash until it is included or timeout
// passes. A receipt with failure status returns ErrTransactionReverted; running
// out of time returns ErrTimedOut, since the tx may still be mined later.
func WaitMined(ctx context.Context, reader ReceiptReader, hash common.Hash, timeout, poll time.Duration) (*types.Receipt, error) {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		receipt, err := reader.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return receipt, fmt.Errorf("%w: %s", schema.ErrTransactionReverted, hash.Hex())
			}
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && ctx.Err() == nil {
			log.Debug("get receipt failed, retry", "err", err, "hash", hash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s still pending after %s", schema.ErrTimedOut, hash.Hex(), timeout)
		case <-ticker.C:
		}
	}
}

// receiptStatus maps a receipt lookup onto journal status without waiting.
func receiptStatus(receipt *types.Receipt, err error) (schema.TxStatus, bool) {
	if err != nil || receipt == nil {
		return "", false
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return schema.TxConfirmed, true
	}
	return schema.TxReverted, true
}
