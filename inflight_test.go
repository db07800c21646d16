package zns

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/assert"
)

func TestInflightGuard(t *testing.T) {
	g := NewInflightGuard()
	acc := common.HexToAddress("0x0000000000000000000000000000000000000001")

	release, err := g.Acquire(acc, "alice.zrc", schema.ActionRegister)
	assert.NoError(t, err)
	assert.True(t, g.Busy(acc, "alice.zrc"))

	_, err = g.Acquire(acc, "alice.zrc", schema.ActionRenew)
	assert.ErrorIs(t, err, schema.ErrOperationInFlight)

	// other domains and other accounts are independent
	r2, err := g.Acquire(acc, "bob.zrc", schema.ActionRegister)
	assert.NoError(t, err)
	r3, err := g.Acquire(common.HexToAddress("0x0000000000000000000000000000000000000002"), "alice.zrc", schema.ActionRegister)
	assert.NoError(t, err)

	release()
	release()
	assert.False(t, g.Busy(acc, "alice.zrc"))
	_, err = g.Acquire(acc, "alice.zrc", schema.ActionRenew)
	assert.NoError(t, err)
	r2()
	r3()
}
