package zns

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/everFinance/zns/schema"
	"github.com/stretchr/testify/require"
)

const testChainID = 48898

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	testNetwork = schema.NetworkDescriptor{
		ChainID:           testChainID,
		ChainName:         "Zircuit Garfield Testnet",
		NativeCurrency:    schema.NativeCurrency{Name: "ETH", Symbol: "ETH", Decimals: 18},
		RpcUrls:           []string{"https://garfield-testnet.zircuit.com"},
		BlockExplorerUrls: []string{"https://explorer.garfield-testnet.zircuit.com"},
	}
	testContracts = schema.Contracts{
		DomainRegistry: common.HexToAddress("0x8795527c9ED6A4803e0F7d3552973E8C45dee38D"),
		PaymentToken:   common.HexToAddress("0x3a7BabED31AA299a7B5A4964DAEdd4Bf1552Bf1a"),
	}
	errProvider = errors.New("provider exploded")
)

// fakeWallet is a scriptable WalletProvider.
type fakeWallet struct {
	sync.Mutex
	accounts   []common.Address
	chainID    uint64
	known      map[uint64]bool
	requestErr error
	switchErr  error
	addErr     error
	stuck      bool // SwitchChain reports success without moving

	requests, switches, adds int
	events                   chan schema.WalletEvent
}

func newFakeWallet(account common.Address, chainID uint64) *fakeWallet {
	return &fakeWallet{
		accounts: []common.Address{account},
		chainID:  chainID,
		known:    map[uint64]bool{chainID: true},
		events:   make(chan schema.WalletEvent, 8),
	}
}

func (f *fakeWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.Lock()
	defer f.Unlock()
	f.requests++
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return append([]common.Address{}, f.accounts...), nil
}

func (f *fakeWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	f.Lock()
	defer f.Unlock()
	return append([]common.Address{}, f.accounts...), nil
}

func (f *fakeWallet) ActiveChain(ctx context.Context) (uint64, error) {
	f.Lock()
	defer f.Unlock()
	return f.chainID, nil
}

func (f *fakeWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	f.Lock()
	defer f.Unlock()
	f.switches++
	if f.switchErr != nil {
		return f.switchErr
	}
	if !f.known[chainID] {
		return fmt.Errorf("%w: %d", schema.ErrUnknownChain, chainID)
	}
	if !f.stuck {
		f.chainID = chainID
	}
	return nil
}

func (f *fakeWallet) AddChain(ctx context.Context, desc schema.NetworkDescriptor) error {
	f.Lock()
	defer f.Unlock()
	f.adds++
	if f.addErr != nil {
		return f.addErr
	}
	f.known[desc.ChainID] = true
	return nil
}

func (f *fakeWallet) Events() <-chan schema.WalletEvent {
	return f.events
}

func (f *fakeWallet) setAccounts(accounts ...common.Address) {
	f.Lock()
	defer f.Unlock()
	f.accounts = accounts
}

func (f *fakeWallet) setChain(chainID uint64) {
	f.Lock()
	defer f.Unlock()
	f.chainID = chainID
}

type fakeDomain struct {
	owner  common.Address
	expiry int64
}

type sentTx struct {
	purpose schema.TxPurpose
	hash    common.Hash
	domain  string
	gas     uint64
	amount  *big.Int
}

// fakeChain plays the registry, the payment token and the node at once.
// Writes take effect when sent unless the purpose is set to revert.
type fakeChain struct {
	sync.Mutex
	now      func() time.Time
	from     common.Address
	registry common.Address

	domains    map[string]*fakeDomain
	price      *big.Int
	balances   map[common.Address]*big.Int
	allowances map[common.Address]*big.Int
	native     *big.Int

	receipts map[common.Hash]*types.Receipt
	revert   map[schema.TxPurpose]bool
	pending  map[schema.TxPurpose]bool
	sent     []sentTx
	nonce    int64
	readErr  error
	onSend   func(purpose schema.TxPurpose)
}

func newFakeChain(now func() time.Time) *fakeChain {
	return &fakeChain{
		now:        now,
		registry:   testContracts.DomainRegistry,
		domains:    make(map[string]*fakeDomain),
		price:      big.NewInt(5e18),
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]*big.Int),
		native:     big.NewInt(1e17),
		receipts:   make(map[common.Hash]*types.Receipt),
		revert:     make(map[schema.TxPurpose]bool),
		pending:    make(map[schema.TxPurpose]bool),
	}
}

func (f *fakeChain) Bind(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Bindings, error) {
	f.Lock()
	f.from = account
	f.Unlock()
	return &Bindings{Registry: f, Token: f, Chain: f}, nil
}

func (f *fakeChain) setDomain(name string, owner common.Address, expiry int64) {
	f.Lock()
	defer f.Unlock()
	f.domains[name] = &fakeDomain{owner: owner, expiry: expiry}
}

func (f *fakeChain) fund(account common.Address, balance, allowance *big.Int) {
	f.Lock()
	defer f.Unlock()
	f.balances[account] = balance
	f.allowances[account] = allowance
}

func (f *fakeChain) setReadErr(err error) {
	f.Lock()
	defer f.Unlock()
	f.readErr = err
}

func (f *fakeChain) sentTxs() []sentTx {
	f.Lock()
	defer f.Unlock()
	return append([]sentTx{}, f.sent...)
}

func (f *fakeChain) purposes() []schema.TxPurpose {
	res := make([]schema.TxPurpose, 0)
	for _, tx := range f.sentTxs() {
		res = append(res, tx.purpose)
	}
	return res
}

// mine delivers a receipt for a tx that was left pending.
func (f *fakeChain) mine(hash common.Hash, status uint64) {
	f.Lock()
	defer f.Unlock()
	f.receipts[hash] = &types.Receipt{Status: status, TxHash: hash, BlockNumber: big.NewInt(f.nonce + 100)}
}

func (f *fakeChain) IsAvailable(ctx context.Context, name string) (bool, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return false, f.readErr
	}
	_, ok := f.domains[name]
	return !ok, nil
}

func (f *fakeChain) OwnerOf(ctx context.Context, name string) (common.Address, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return common.Address{}, f.readErr
	}
	if d, ok := f.domains[name]; ok {
		return d.owner, nil
	}
	return common.Address{}, nil
}

func (f *fakeChain) ExpiryOf(ctx context.Context, name string) (int64, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return 0, f.readErr
	}
	if d, ok := f.domains[name]; ok {
		return d.expiry, nil
	}
	return 0, nil
}

func (f *fakeChain) ResolveDomain(ctx context.Context, name string) (common.Address, error) {
	return f.OwnerOf(ctx, name)
}

func (f *fakeChain) RegistrationPrice(ctx context.Context) (*big.Int, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	return new(big.Int).Set(f.price), nil
}

func (f *fakeChain) Register(ctx context.Context, name string, gasLimit uint64) (common.Hash, error) {
	return f.send(schema.PurposeRegister, name, gasLimit, nil, func() {
		f.domains[name] = &fakeDomain{owner: f.from, expiry: f.now().Unix() + schema.DefaultPeriod}
		f.charge()
	})
}

func (f *fakeChain) Renew(ctx context.Context, name string, gasLimit uint64) (common.Hash, error) {
	return f.send(schema.PurposeRenew, name, gasLimit, nil, func() {
		d := f.domains[name]
		if d.expiry < f.now().Unix() {
			d.expiry = f.now().Unix()
		}
		d.expiry += schema.DefaultPeriod
		f.charge()
	})
}

func (f *fakeChain) Transfer(ctx context.Context, name string, newOwner common.Address, gasLimit uint64) (common.Hash, error) {
	return f.send(schema.PurposeTransfer, name, gasLimit, nil, func() {
		f.domains[name].owner = newOwner
	})
}

func (f *fakeChain) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	f.Lock()
	defer f.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	if spender != f.registry {
		return big.NewInt(0), nil
	}
	if a, ok := f.allowances[owner]; ok {
		return new(big.Int).Set(a), nil
	}
	return big.NewInt(0), nil
}

func (f *fakeChain) Decimals(ctx context.Context) (uint8, error) {
	return 18, nil
}

func (f *fakeChain) Symbol(ctx context.Context) (string, error) {
	return "ZRC", nil
}

func (f *fakeChain) Approve(ctx context.Context, spender common.Address, amount *big.Int, gasLimit uint64) (common.Hash, error) {
	return f.send(schema.PurposeApprove, "", gasLimit, amount, func() {
		f.allowances[f.from] = new(big.Int).Set(amount)
	})
}

func (f *fakeChain) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	f.Lock()
	defer f.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	return new(big.Int).Set(f.native), nil
}

// charge must be called with the lock held.
func (f *fakeChain) charge() {
	f.balances[f.from] = new(big.Int).Sub(f.balances[f.from], f.price)
	f.allowances[f.from] = new(big.Int).Sub(f.allowances[f.from], f.price)
}

func (f *fakeChain) send(purpose schema.TxPurpose, domain string, gas uint64, amount *big.Int, effect func()) (common.Hash, error) {
	f.Lock()
	f.nonce++
	hash := common.BigToHash(big.NewInt(f.nonce))
	f.sent = append(f.sent, sentTx{purpose: purpose, hash: hash, domain: domain, gas: gas, amount: amount})
	switch {
	case f.pending[purpose]:
	case f.revert[purpose]:
		f.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: hash, BlockNumber: big.NewInt(f.nonce)}
	default:
		effect()
		f.receipts[hash] = &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: hash, BlockNumber: big.NewInt(f.nonce)}
	}
	hook := f.onSend
	f.Unlock()

	if hook != nil {
		hook(purpose)
	}
	return hash, nil
}

type recordSink struct {
	sync.Mutex
	outcomes []*schema.Outcome
}

func (r *recordSink) OnOutcome(o *schema.Outcome) error {
	r.Lock()
	defer r.Unlock()
	r.outcomes = append(r.outcomes, o)
	return nil
}

func (r *recordSink) len() int {
	r.Lock()
	defer r.Unlock()
	return len(r.outcomes)
}

type testEnv struct {
	now      time.Time
	wallet   *fakeWallet
	chain    *fakeChain
	sessions *SessionManager
	store    *Store
	workflow *Workflow
	sink     *recordSink
}

// newTestEnv connects account on the target chain against a fake registry.
func newTestEnv(t *testing.T, account common.Address) *testEnv {
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	env := &testEnv{
		now:    now,
		wallet: newFakeWallet(account, testChainID),
		chain:  newFakeChain(clock),
		store:  newTestStore(t),
		sink:   &recordSink{},
	}
	env.sessions = NewSessionManager(env.wallet, env.chain, testNetwork, testContracts)
	env.workflow = NewWorkflow(env.sessions, env.store, testNetwork, testContracts, schema.ConfirmConfig{
		Timeout:      200 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})
	env.workflow.now = clock
	env.workflow.AddSink(env.sink)

	_, err := env.sessions.Connect(context.Background())
	require.NoError(t, err)
	return env
}
