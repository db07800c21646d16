package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/everFinance/goether"
	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/assert"
)

const testChainID = 48898

var (
	testRegistry = common.HexToAddress("0x8795527c9ED6A4803e0F7d3552973E8C45dee38D")
	testToken    = common.HexToAddress("0x3a7BabED31AA299a7B5A4964DAEdd4Bf1552Bf1a")
	testPrvKey   = "4c3f9a1e5b234ce8f1ab58d82f849c0f70a4d5ceaf2b6e2d9a6c58b1f897ef0a"
)

func TestRegistryReads(t *testing.T) {
	ctx := context.Background()
	owner := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	b := newFakeBackend(testChainID)
	b.abis[testRegistry] = registryABI
	b.outputs["isAvailable"] = []interface{}{false}
	b.outputs["domainOwners"] = []interface{}{owner}
	b.outputs["resolveDomain"] = []interface{}{owner}
	b.outputs["domainExpiry"] = []interface{}{big.NewInt(1735689600)}
	b.outputs["registrationPrice"] = []interface{}{big.NewInt(5e18)}

	r := NewRegistry(testRegistry, b, nil)

	avail, err := r.IsAvailable(ctx, "alice.zrc")
	assert.NoError(t, err)
	assert.False(t, avail)

	got, err := r.OwnerOf(ctx, "alice.zrc")
	assert.NoError(t, err)
	assert.Equal(t, owner, got)

	got, err = r.ResolveDomain(ctx, "alice.zrc")
	assert.NoError(t, err)
	assert.Equal(t, owner, got)

	expiry, err := r.ExpiryOf(ctx, "alice.zrc")
	assert.NoError(t, err)
	assert.Equal(t, int64(1735689600), expiry)

	price, err := r.RegistrationPrice(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "5000000000000000000", price.String())
}

func TestReadOnlyBinding(t *testing.T) {
	b := newFakeBackend(testChainID)
	_, err := NewRegistry(testRegistry, b, nil).Register(context.Background(), "alice.zrc", 300000)
	assert.ErrorIs(t, err, ErrReadOnly)
	_, err = NewToken(testToken, b, nil).Approve(context.Background(), testRegistry, big.NewInt(1), 100000)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, b.sent)
}

func TestTokenReads(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend(testChainID)
	b.abis[testToken] = erc20ABI
	b.outputs["decimals"] = []interface{}{uint8(18)}
	b.outputs["symbol"] = []interface{}{"ZRC"}
	b.outputs["balanceOf"] = []interface{}{big.NewInt(42)}
	b.outputs["allowance"] = []interface{}{big.NewInt(7)}

	tk := NewToken(testToken, b, nil)
	d, err := tk.Decimals(ctx)
	assert.NoError(t, err)
	assert.Equal(t, uint8(18), d)

	sym, err := tk.Symbol(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "ZRC", sym)

	bal, err := tk.BalanceOf(ctx, testRegistry)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	allowance, err := tk.Allowance(ctx, testRegistry, testToken)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), allowance.Int64())
}

func TestTransactSignsFixedGas(t *testing.T) {
	ctx := context.Background()
	signer, err := goether.NewSigner(testPrvKey)
	assert.NoError(t, err)

	b := newFakeBackend(testChainID)
	tx := NewTransactor(NewEccSigner(signer), signer.Address, b, testChainID)
	amount := big.NewInt(5e18)

	hash, err := NewToken(testToken, b, tx).Approve(ctx, testRegistry, amount, 100000)
	assert.NoError(t, err)
	hash2, err := NewRegistry(testRegistry, b, tx).Transfer(ctx, "alice.zrc", testToken, 200000)
	assert.NoError(t, err)

	assert.Len(t, b.sent, 2)
	sent := b.sent[0]
	assert.Equal(t, hash, sent.Hash())
	assert.Equal(t, uint64(100000), sent.Gas())
	assert.Equal(t, uint64(0), sent.Nonce())
	assert.Equal(t, testToken, *sent.To())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(testChainID)), sent)
	assert.NoError(t, err)
	assert.Equal(t, signer.Address, from)

	args, err := erc20ABI.Methods["approve"].Inputs.Unpack(sent.Data()[4:])
	assert.NoError(t, err)
	assert.Equal(t, testRegistry, args[0].(common.Address))
	assert.Equal(t, amount.String(), args[1].(*big.Int).String())

	assert.Equal(t, hash2, b.sent[1].Hash())
	assert.Equal(t, uint64(200000), b.sent[1].Gas())
	assert.Equal(t, uint64(1), b.sent[1].Nonce())
}

func TestTransactRejected(t *testing.T) {
	signer, err := goether.NewSigner(testPrvKey)
	assert.NoError(t, err)
	b := newFakeBackend(testChainID)
	b.sendErr = rpcErr{code: CodeUserRejected, msg: "User denied transaction signature"}

	_, err = NewRegistry(testRegistry, b, NewTransactor(NewEccSigner(signer), signer.Address, b, testChainID)).Register(context.Background(), "alice.zrc", 300000)
	assert.ErrorIs(t, err, schema.ErrUserRejected)
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.ErrorIs(t, Classify(rpcErr{code: 4001, msg: "rejected"}), schema.ErrUserRejected)
	assert.ErrorIs(t, Classify(rpcErr{code: 4902, msg: "unrecognized chain"}), schema.ErrUnknownChain)
	assert.ErrorIs(t, Classify(errors.New(`{"code":4902,"message":"Unrecognized chain ID"}`)), schema.ErrUnknownChain)
	assert.ErrorIs(t, Classify(errors.New(`{"error":{"code":4001,"message":"denied"}}`)), schema.ErrUserRejected)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, Classify(plain))
	other := rpcErr{code: -32000, msg: "nonce too low"}
	assert.Equal(t, error(other), Classify(other))
}
