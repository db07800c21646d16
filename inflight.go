package zns

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
)

// InflightGuard rejects a second workflow invocation for the same account and
// domain while the first one has not reached its terminal outcome.
type InflightGuard struct {
	ops    map[string]schema.Action // key: account-domain
	locker sync.Mutex
}

func NewInflightGuard() *InflightGuard {
	return &InflightGuard{
		ops:    make(map[string]schema.Action),
		locker: sync.Mutex{},
	}
}

func assembleOpId(account common.Address, domain string) string {
	return strings.ToLower(account.Hex()) + "-" + domain
}

// Acquire marks the pair busy. The returned release func must be called once
// the invocation is over; calling it more than once is harmless.
func (g *InflightGuard) Acquire(account common.Address, domain string, action schema.Action) (release func(), err error) {
	g.locker.Lock()
	defer g.locker.Unlock()

	id := assembleOpId(account, domain)
	if running, ok := g.ops[id]; ok {
		return nil, fmt.Errorf("%w: %s already running for %s", schema.ErrOperationInFlight, running, domain)
	}
	g.ops[id] = action

	var once sync.Once
	return func() {
		once.Do(func() {
			g.locker.Lock()
			defer g.locker.Unlock()
			delete(g.ops, id)
		})
	}, nil
}

func (g *InflightGuard) Busy(account common.Address, domain string) bool {
	g.locker.Lock()
	defer g.locker.Unlock()
	_, ok := g.ops[assembleOpId(account, domain)]
	return ok
}
