package chain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/everFinance/zns/schema"
	"github.com/tidwall/gjson"
)

// provider error codes (EIP-1193 / EIP-3326)
const (
	CodeUserRejected = 4001
	CodeUnauthorized = 4100
	CodeUnknownChain = 4902
)

var ErrReadOnly = errors.New("read_only_binding")

// Classify translates provider errors into the schema error kinds. Errors it
// does not recognise are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if code, ok := errorCode(err); ok {
		switch code {
		case CodeUserRejected, CodeUnauthorized:
			return fmt.Errorf("%w: %v", schema.ErrUserRejected, err)
		case CodeUnknownChain:
			return fmt.Errorf("%w: %v", schema.ErrUnknownChain, err)
		}
	}
	return err
}

func errorCode(err error) (int64, bool) {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return int64(rpcErr.ErrorCode()), true
	}
	// some relays hand the provider error back as its json body
	msg := err.Error()
	if !gjson.Valid(msg) {
		return 0, false
	}
	for _, path := range []string{"code", "error.code", "data.originalError.code"} {
		if code := gjson.Get(msg, path); code.Exists() {
			return code.Int(), true
		}
	}
	return 0, false
}
