package sdk

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/assert"
)

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/domain/alice.zrc", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(schema.RespDomain{
			DomainQueryResult: schema.DomainQueryResult{Name: "alice.zrc", Available: true},
			Label:             "alice",
			Status:            schema.StatusAvail,
		})
	})
	mux.HandleFunc("/domain/alice.zrc/transfer", func(w http.ResponseWriter, r *http.Request) {
		by, _ := io.ReadAll(r.Body)
		req := schema.ReqTransfer{}
		assert.NoError(t, json.Unmarshal(by, &req))
		if !req.Confirm {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(schema.RespErr{Err: schema.ErrUserCancelled.Error()})
			return
		}
		json.NewEncoder(w).Encode(schema.RespOutcome{
			Outcome: schema.Outcome{Domain: "alice.zrc", Action: schema.ActionTransfer, Target: common.HexToAddress(req.Target)},
			Status:  "success",
		})
	})
	mux.HandleFunc("/domain/bob.zrc/register", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		json.NewEncoder(w).Encode(schema.RespErr{Err: schema.ErrTimedOut.Error(), TxHash: common.HexToHash("0x01").Hex(), ApproveHash: common.HexToHash("0x01").Hex()})
	})
	mux.HandleFunc("/history/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		json.NewEncoder(w).Encode([]schema.OutcomeRecord{{Domain: "alice.zrc", Action: "register", Success: true}})
	})
	mux.HandleFunc("/oops", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return httptest.NewServer(mux)
}

func TestGetDomain(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	res, err := New(srv.URL).GetDomain("alice.zrc")
	assert.NoError(t, err)
	assert.Equal(t, "alice", res.Label)
	assert.True(t, res.Available)
	assert.Equal(t, schema.StatusAvail, res.Status)
}

func TestTransfer(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()
	cli := New(srv.URL)
	target := "0x00000000000000000000000000000000000000b0"

	_, err := cli.Transfer("alice.zrc", target, false)
	assert.ErrorIs(t, err, schema.ErrUserCancelled)

	res, err := cli.Transfer("alice.zrc", target, true)
	assert.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, common.HexToAddress(target), res.Target)
}

func TestApiErrorKeepsHash(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	_, err := New(srv.URL).Register("bob.zrc")
	assert.ErrorIs(t, err, schema.ErrTimedOut)
	apiErr, ok := err.(*ApiError)
	assert.True(t, ok)
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.StatusCode)
	assert.Equal(t, common.HexToHash("0x01").Hex(), apiErr.TxHash)
	assert.Equal(t, common.HexToHash("0x01").Hex(), apiErr.ApproveHash)
}

func TestGetHistory(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	records, err := New(srv.URL).GetHistory(common.HexToAddress("0xa1"), 5)
	assert.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, "alice.zrc", records[0].Domain)
}

func TestUnknownError(t *testing.T) {
	srv := newTestServer(t)
	defer srv.Close()

	err := New(srv.URL).send(New(srv.URL).SCli.Get().Path("/oops"), nil)
	apiErr, ok := err.(*ApiError)
	assert.True(t, ok)
	assert.Nil(t, apiErr.Kind)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}
