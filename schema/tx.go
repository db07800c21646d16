package schema

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type TxPurpose string

const (
	PurposeApprove  TxPurpose = "approve"
	PurposeRegister TxPurpose = "register"
	PurposeRenew    TxPurpose = "renew"
	PurposeTransfer TxPurpose = "transfer"
)

type TxStatus string

const (
	TxSubmitted TxStatus = "submitted"
	TxConfirmed TxStatus = "confirmed"
	TxReverted  TxStatus = "reverted"
	TxTimedOut  TxStatus = "timed_out"
)

func (s TxStatus) Terminal() bool {
	return s == TxConfirmed || s == TxReverted
}

// gas allowance per call, scaled to the work each one does on chain
const (
	GasLimitApprove  uint64 = 100000
	GasLimitTransfer uint64 = 200000
	GasLimitRegister uint64 = 300000
	GasLimitRenew    uint64 = 300000
)

func GasLimit(p TxPurpose) uint64 {
	switch p {
	case PurposeApprove:
		return GasLimitApprove
	case PurposeTransfer:
		return GasLimitTransfer
	case PurposeRenew:
		return GasLimitRenew
	default:
		return GasLimitRegister
	}
}

func PurposeOf(a Action) TxPurpose {
	return TxPurpose(a)
}

type PendingTransaction struct {
	Purpose     TxPurpose      `json:"purpose"`
	Hash        common.Hash    `json:"hash"`
	Domain      string         `json:"domain"`
	From        common.Address `json:"from"`
	ChainID     uint64         `json:"chainId"`
	GasLimit    uint64         `json:"gasLimit"`
	Status      TxStatus       `json:"status"`
	BlockNumber uint64         `json:"blockNumber,omitempty"`
	SubmittedAt time.Time      `json:"submittedAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Outcome is the terminal report of one workflow invocation. TxHash is set
// whenever the action transaction was submitted, even if it later failed.
type Outcome struct {
	Domain      string             `json:"domain"`
	Action      Action             `json:"action"`
	Account     common.Address     `json:"account"`
	Target      common.Address     `json:"target,omitempty"`
	TxHash      common.Hash        `json:"txHash"`
	ApproveHash common.Hash        `json:"approveHash"`
	ExplorerURL string             `json:"explorerUrl,omitempty"`
	Result      *DomainQueryResult `json:"result,omitempty"`
	Warnings    []string           `json:"warnings,omitempty"`
	Err         error              `json:"-"`
}

func (o *Outcome) Submitted() bool {
	return o.TxHash != (common.Hash{})
}

// LastHash is the most recent transaction the invocation submitted: the
// action tx, or the approval when the run stopped before the action.
func (o *Outcome) LastHash() common.Hash {
	if o.Submitted() {
		return o.TxHash
	}
	return o.ApproveHash
}

func (o *Outcome) Success() bool {
	return o.Err == nil
}
