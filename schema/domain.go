package schema

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const (
	DomainSuffix  = ".zrc"
	SecondsPerDay = 86400
	DefaultPeriod = 365 * SecondsPerDay // one registration period

	StatusAvail = "AVAILABLE"
	StatusYours = "YOUR DOMAIN"
	StatusTaken = "REGISTERED"
)

// NoOwner is the owner recorded for names that were never registered.
var NoOwner = common.Address{}

type Action string

const (
	ActionRegister Action = "register"
	ActionRenew    Action = "renew"
	ActionTransfer Action = "transfer"
)

func (a Action) Valid() bool {
	switch a {
	case ActionRegister, ActionRenew, ActionTransfer:
		return true
	}
	return false
}

// Paid reports whether the action charges the registration price.
func (a Action) Paid() bool {
	return a == ActionRegister || a == ActionRenew
}

// DomainQueryResult is a snapshot of a name's registry state at query time.
type DomainQueryResult struct {
	Name      string         `json:"name"`
	Available bool           `json:"available"`
	Owner     common.Address `json:"owner"`
	Expiry    int64          `json:"expiry"` // unix seconds, 0 means none recorded
	Address   common.Address `json:"address"`
}

func (r DomainQueryResult) HasOwner() bool {
	return r.Owner != NoOwner
}

func (r DomainQueryResult) DaysRemaining(now int64) int64 {
	if r.Expiry == 0 {
		return 0
	}
	diff := r.Expiry - now
	if diff <= 0 {
		return 0
	}
	return diff / SecondsPerDay
}

func (r DomainQueryResult) IsExpired(now int64) bool {
	return r.Expiry != 0 && now > r.Expiry
}

// Actionable reports whether the name can be registered right now. Both the
// display status and the pre-registration check go through this method.
func (r DomainQueryResult) Actionable(now int64) bool {
	return r.Available || (r.HasOwner() && r.DaysRemaining(now) == 0)
}

func (r DomainQueryResult) OwnedBy(account common.Address) bool {
	return r.HasOwner() && r.Owner == account
}

func (r DomainQueryResult) Status(account common.Address, now int64) string {
	switch {
	case r.Actionable(now):
		return StatusAvail
	case r.OwnedBy(account):
		return StatusYours
	default:
		return StatusTaken
	}
}

func (r DomainQueryResult) Label() string {
	return strings.TrimSuffix(r.Name, DomainSuffix)
}
