package schema

type KafkaOutcome struct {
	Account     string `json:"account"`
	Domain      string `json:"domain"`
	Action      string `json:"action"`
	TxHash      string `json:"txHash"`
	ApproveHash string `json:"approveHash,omitempty"`
	Success     bool   `json:"success"`
	ErrKind     string `json:"errKind,omitempty"`
	Expiry      int64  `json:"expiry"`
	Owner       string `json:"owner"`
	Timestamp   int64  `json:"timestamp"`
}
