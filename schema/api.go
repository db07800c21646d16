package schema

type RespErr struct {
	Err         string `json:"error"`
	TxHash      string `json:"txHash,omitempty"`
	ApproveHash string `json:"approveHash,omitempty"`
}

func (r RespErr) Error() string {
	return r.Err
}

type RespSession struct {
	Account      string `json:"account"`
	ChainID      uint64 `json:"chainId"`
	ChainName    string `json:"chainName"`
	State        string `json:"state"`
	NativeSymbol string `json:"nativeSymbol"`
	NativeAmount string `json:"nativeAmount"`
	TokenSymbol  string `json:"tokenSymbol"`
	TokenAmount  string `json:"tokenAmount"`
}

type RespDomain struct {
	DomainQueryResult
	Label         string `json:"label"`
	Status        string `json:"status"`
	DaysRemaining int64  `json:"daysRemaining"`
	Expired       bool   `json:"expired"`
	Actionable    bool   `json:"actionable"`
	Price         string `json:"price,omitempty"` // formatted with token decimals
	TokenSymbol   string `json:"tokenSymbol,omitempty"`
}

type ReqTransfer struct {
	Target  string `json:"target"`
	Confirm bool   `json:"confirm"`
}

type RespOutcome struct {
	Outcome
	Status string `json:"status"`
}

const (
	DefaultWriteLimit   = 30 // per minute
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)
