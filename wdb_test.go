package zns

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/assert"
)

func TestSqlite_Outcomes(t *testing.T) {
	db := NewSqliteDb(t.TempDir())
	defer db.Close()
	assert.NoError(t, db.Migrate())

	acc := common.HexToAddress("0x90a08B05C4A2d41176aF09D87e545F8707fc3F9F")
	ok := &schema.Outcome{Domain: "alice.zrc", Action: schema.ActionRegister, Account: acc, TxHash: common.HexToHash("0x01")}
	failed := &schema.Outcome{Domain: "alice.zrc", Action: schema.ActionRenew, Account: acc,
		Err: errors.Join(schema.ErrInsufficientBalance, errors.New("balance 0 < price 1"))}
	assert.NoError(t, db.OnOutcome(ok))
	assert.NoError(t, db.OnOutcome(failed))

	recs, err := db.GetOutcomes(acc, 10)
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	// newest first
	assert.Equal(t, "renew", recs[0].Action)
	assert.False(t, recs[0].Success)
	assert.Equal(t, "insufficient_balance", recs[0].ErrKind)
	assert.Equal(t, "", recs[0].TxHash)
	assert.True(t, recs[1].Success)
	assert.Equal(t, common.HexToHash("0x01").Hex(), recs[1].TxHash)

	recs, err = db.GetDomainOutcomes("bob.zrc", 10)
	assert.NoError(t, err)
	assert.Len(t, recs, 0)
}
