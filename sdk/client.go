package sdk

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"gopkg.in/h2non/gentleman.v2"
)

type ZnsCli struct {
	SCli *gentleman.Client
}

func New(znsUrl string) *ZnsCli {
	return &ZnsCli{
		SCli: gentleman.New().URL(znsUrl),
	}
}

// ApiError is a non-2xx response. Kind unwraps to the schema sentinel so
// callers can use errors.Is on it.
type ApiError struct {
	StatusCode  int
	Kind        error
	Msg         string
	TxHash      string
	ApproveHash string
}

func (e *ApiError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("resp failed: %d %s, txHash: %s", e.StatusCode, e.Msg, e.TxHash)
	}
	return fmt.Sprintf("resp failed: %d %s", e.StatusCode, e.Msg)
}

func (e *ApiError) Unwrap() error {
	return e.Kind
}

func (z *ZnsCli) Connect() (schema.RespSession, error) {
	res := schema.RespSession{}
	err := z.send(z.SCli.Post().Path("/connect"), &res)
	return res, err
}

func (z *ZnsCli) Disconnect() error {
	return z.send(z.SCli.Post().Path("/disconnect"), nil)
}

func (z *ZnsCli) GetSession() (schema.RespSession, error) {
	res := schema.RespSession{}
	err := z.send(z.SCli.Get().Path("/session"), &res)
	return res, err
}

func (z *ZnsCli) GetDomain(name string) (schema.RespDomain, error) {
	res := schema.RespDomain{}
	req := z.SCli.Get()
	req.Path("/domain/:name").Param("name", name)
	err := z.send(req, &res)
	return res, err
}

func (z *ZnsCli) Register(name string) (schema.RespOutcome, error) {
	return z.execute(name, schema.ActionRegister, nil)
}

func (z *ZnsCli) Renew(name string) (schema.RespOutcome, error) {
	return z.execute(name, schema.ActionRenew, nil)
}

// Transfer sends confirm as the answer to the irreversibility prompt; false
// always ends in user_cancelled.
func (z *ZnsCli) Transfer(name, target string, confirm bool) (schema.RespOutcome, error) {
	return z.execute(name, schema.ActionTransfer, &schema.ReqTransfer{Target: target, Confirm: confirm})
}

func (z *ZnsCli) GetTx(hash common.Hash) (schema.PendingTransaction, error) {
	res := schema.PendingTransaction{}
	req := z.SCli.Get()
	req.Path("/tx/:hash").Param("hash", hash.Hex())
	err := z.send(req, &res)
	return res, err
}

func (z *ZnsCli) GetHistory(account common.Address, limit int) ([]schema.OutcomeRecord, error) {
	res := make([]schema.OutcomeRecord, 0)
	req := z.SCli.Get()
	req.Path("/history/:account").Param("account", account.Hex())
	if limit > 0 {
		req.SetQuery("limit", fmt.Sprintf("%d", limit))
	}
	err := z.send(req, &res)
	return res, err
}

func (z *ZnsCli) execute(name string, action schema.Action, reqBody interface{}) (schema.RespOutcome, error) {
	res := schema.RespOutcome{}
	req := z.SCli.Post()
	req.Path("/domain/:name/:action").Param("name", name).Param("action", string(action))
	if reqBody != nil {
		req.JSON(reqBody)
	}
	err := z.send(req, &res)
	return res, err
}

func (z *ZnsCli) send(req *gentleman.Request, out interface{}) error {
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		respErr := schema.RespErr{}
		if err := resp.JSON(&respErr); err != nil || respErr.Err == "" {
			return &ApiError{StatusCode: resp.StatusCode, Msg: resp.String()}
		}
		return &ApiError{
			StatusCode:  resp.StatusCode,
			Kind:        schema.ParseKind(respErr.Err),
			Msg:         respErr.Err,
			TxHash:      respErr.TxHash,
			ApproveHash: respErr.ApproveHash,
		}
	}
	if out == nil {
		return nil
	}
	return resp.JSON(out)
}
