package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type Registry struct {
	contract
}

// NewRegistry binds the domain registry at address. tx may be nil for a
// read-only binding.
func NewRegistry(address common.Address, backend Backend, tx *Transactor) *Registry {
	r := &Registry{contract{abi: registryABI, address: address, backend: backend, tx: tx}}
	if tx != nil {
		r.from = tx.From()
	}
	return r
}

func (r *Registry) IsAvailable(ctx context.Context, name string) (bool, error) {
	res, err := r.call(ctx, "isAvailable", name)
	if err != nil {
		return false, err
	}
	ok, isBool := res[0].(bool)
	if !isBool {
		return false, fmt.Errorf("isAvailable: unexpected output %T", res[0])
	}
	return ok, nil
}

func (r *Registry) OwnerOf(ctx context.Context, name string) (common.Address, error) {
	return r.address0(ctx, "domainOwners", name)
}

func (r *Registry) ResolveDomain(ctx context.Context, name string) (common.Address, error) {
	return r.address0(ctx, "resolveDomain", name)
}

func (r *Registry) ExpiryOf(ctx context.Context, name string) (int64, error) {
	res, err := r.call(ctx, "domainExpiry", name)
	if err != nil {
		return 0, err
	}
	expiry, ok := res[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("domainExpiry: unexpected output %T", res[0])
	}
	if !expiry.IsInt64() {
		return 0, fmt.Errorf("domainExpiry: %s out of range", expiry)
	}
	return expiry.Int64(), nil
}

func (r *Registry) RegistrationPrice(ctx context.Context) (*big.Int, error) {
	return uint256Output(r.call(ctx, "registrationPrice"))
}

func (r *Registry) Register(ctx context.Context, name string, gasLimit uint64) (common.Hash, error) {
	return r.transact(ctx, gasLimit, "registerDomain", name)
}

func (r *Registry) Renew(ctx context.Context, name string, gasLimit uint64) (common.Hash, error) {
	return r.transact(ctx, gasLimit, "renewDomain", name)
}

func (r *Registry) Transfer(ctx context.Context, name string, newOwner common.Address, gasLimit uint64) (common.Hash, error) {
	return r.transact(ctx, gasLimit, "transferDomain", name, newOwner)
}

func (r *Registry) address0(ctx context.Context, method, name string) (common.Address, error) {
	res, err := r.call(ctx, method, name)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := res[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s: unexpected output %T", method, res[0])
	}
	return addr, nil
}

func uint256Output(res []interface{}, err error) (*big.Int, error) {
	if err != nil {
		return nil, err
	}
	v, ok := res[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected output %T", res[0])
	}
	return v, nil
}
