package schema

import (
	"time"
)

// OutcomeRecord is one terminal workflow outcome kept in the history table.
type OutcomeRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	Account     string `gorm:"index:idx1" json:"account"`
	Domain      string `gorm:"index:idx2" json:"domain"`
	Action      string `json:"action"`
	Target      string `json:"target"` // transfer recipient
	TxHash      string `json:"txHash"`
	ApproveHash string `json:"approveHash"`
	Success     bool   `json:"success"`
	ErrKind     string `json:"errKind"`
	ErrMsg      string `json:"errMsg"`
	Warnings    string `json:"warnings"`
}
