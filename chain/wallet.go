package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/goether"
	zcommon "github.com/everFinance/zns/common"
	"github.com/everFinance/zns/rawdb"
	"github.com/everFinance/zns/schema"
)

var log = zcommon.NewLog("chain")

var (
	ErrNoRpcUrl      = errors.New("chain_without_rpc_url")
	ErrWalletLocked  = errors.New("wallet_locked")
	ErrWrongAccount  = errors.New("account_not_in_wallet")
	ErrInactiveChain = errors.New("chain_not_active")
)

const eventBuffer = 16

// PromptFunc asks the operator to approve a wallet request; nil approves all.
type PromptFunc func(msg string) bool

// KeyWallet is a local private-key wallet. It keeps the chains it knows and
// the active one in bolt, the way a browser wallet keeps them in its profile.
type KeyWallet struct {
	db     rawdb.KeyValueDB
	dial   DialFunc
	prompt PromptFunc

	locker   sync.RWMutex
	signer   *goether.Signer
	chains   map[uint64]schema.NetworkDescriptor
	active   uint64
	backends map[uint64]Backend

	events chan schema.WalletEvent
}

func NewKeyWallet(db rawdb.KeyValueDB, dial DialFunc) (*KeyWallet, error) {
	if dial == nil {
		dial = EthDial
	}
	w := &KeyWallet{
		db:       db,
		dial:     dial,
		chains:   make(map[uint64]schema.NetworkDescriptor),
		backends: make(map[uint64]Backend),
		events:   make(chan schema.WalletEvent, eventBuffer),
	}
	keys, err := db.GetAllKey(schema.ChainBucket)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		val, err := db.Get(schema.ChainBucket, key)
		if err != nil {
			return nil, err
		}
		desc := schema.NetworkDescriptor{}
		if err = json.Unmarshal(val, &desc); err != nil {
			log.Error("json.Unmarshal(chain)", "err", err, "key", key)
			continue
		}
		w.chains[desc.ChainID] = desc
	}
	val, err := db.Get(schema.ConstantsBucket, schema.ActiveChainKey)
	switch {
	case err == nil:
		if w.active, err = strconv.ParseUint(string(val), 10, 64); err != nil {
			return nil, err
		}
	case !errors.Is(err, schema.ErrNotExist):
		return nil, err
	}
	return w, nil
}

func (w *KeyWallet) SetPrompt(fn PromptFunc) {
	w.locker.Lock()
	defer w.locker.Unlock()
	w.prompt = fn
}

// UseKey unlocks the wallet with a hex private key.
func (w *KeyWallet) UseKey(prvHex string) (common.Address, error) {
	signer, err := goether.NewSigner(prvHex)
	if err != nil {
		return common.Address{}, err
	}
	w.locker.Lock()
	changed := w.signer == nil || w.signer.Address != signer.Address
	w.signer = signer
	w.locker.Unlock()

	if changed {
		w.emit(schema.WalletEvent{Type: schema.EventAccountsChanged, Accounts: []common.Address{signer.Address}})
	}
	return signer.Address, nil
}

// Lock forgets the key. Subscribers see an empty account list.
func (w *KeyWallet) Lock() {
	w.locker.Lock()
	had := w.signer != nil
	w.signer = nil
	w.locker.Unlock()

	if had {
		w.emit(schema.WalletEvent{Type: schema.EventAccountsChanged, Accounts: []common.Address{}})
	}
}

func (w *KeyWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := w.ask("expose account to zns"); err != nil {
		return nil, err
	}
	return w.Accounts(ctx)
}

func (w *KeyWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	w.locker.RLock()
	defer w.locker.RUnlock()
	if w.signer == nil {
		return []common.Address{}, nil
	}
	return []common.Address{w.signer.Address}, nil
}

// ActiveChain returns 0 when no chain was ever selected.
func (w *KeyWallet) ActiveChain(ctx context.Context) (uint64, error) {
	w.locker.RLock()
	defer w.locker.RUnlock()
	return w.active, nil
}

func (w *KeyWallet) Chains() []schema.NetworkDescriptor {
	w.locker.RLock()
	defer w.locker.RUnlock()
	res := make([]schema.NetworkDescriptor, 0, len(w.chains))
	for _, desc := range w.chains {
		res = append(res, desc)
	}
	return res
}

func (w *KeyWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	w.locker.RLock()
	desc, ok := w.chains[chainID]
	active := w.active
	w.locker.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", schema.ErrUnknownChain, schema.HexChainID(chainID))
	}
	if active == chainID {
		return nil
	}
	if err := w.ask(fmt.Sprintf("switch to %s (%s)", desc.ChainName, desc.HexChainID())); err != nil {
		return err
	}
	if _, err := w.backend(ctx, desc); err != nil {
		return err
	}
	if err := w.db.Put(schema.ConstantsBucket, schema.ActiveChainKey, []byte(strconv.FormatUint(chainID, 10))); err != nil {
		return err
	}

	w.locker.Lock()
	w.active = chainID
	w.locker.Unlock()

	log.Info("wallet chain switched", "chainId", desc.HexChainID(), "chainName", desc.ChainName)
	w.emit(schema.WalletEvent{Type: schema.EventChainChanged, ChainID: chainID})
	return nil
}

// AddChain records desc. It does not switch to it.
func (w *KeyWallet) AddChain(ctx context.Context, desc schema.NetworkDescriptor) error {
	if len(desc.RpcUrls) == 0 {
		return ErrNoRpcUrl
	}
	if err := w.ask(fmt.Sprintf("add network %s (%s)", desc.ChainName, desc.HexChainID())); err != nil {
		return err
	}
	val, err := json.Marshal(desc)
	if err != nil {
		return err
	}
	if err = w.db.Put(schema.ChainBucket, strconv.FormatUint(desc.ChainID, 10), val); err != nil {
		return err
	}
	w.locker.Lock()
	w.chains[desc.ChainID] = desc
	delete(w.backends, desc.ChainID)
	w.locker.Unlock()

	log.Info("wallet chain added", "chainId", desc.HexChainID(), "chainName", desc.ChainName, "rpc", desc.RpcUrls[0])
	return nil
}

func (w *KeyWallet) Events() <-chan schema.WalletEvent {
	return w.events
}

// Backend returns the node client of the active chain.
func (w *KeyWallet) Backend(ctx context.Context) (Backend, error) {
	w.locker.RLock()
	desc, ok := w.chains[w.active]
	w.locker.RUnlock()
	if !ok {
		return nil, ErrInactiveChain
	}
	return w.backend(ctx, desc)
}

// Bind creates contract handles that sign with the wallet key.
func (w *KeyWallet) Bind(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Registry, *Token, Backend, error) {
	w.locker.RLock()
	signer := w.signer
	active := w.active
	desc, ok := w.chains[chainID]
	w.locker.RUnlock()

	if signer == nil {
		return nil, nil, nil, ErrWalletLocked
	}
	if signer.Address != account {
		return nil, nil, nil, ErrWrongAccount
	}
	if !ok || active != chainID {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrInactiveChain, schema.HexChainID(chainID))
	}
	backend, err := w.backend(ctx, desc)
	if err != nil {
		return nil, nil, nil, err
	}
	tx := NewTransactor(NewEccSigner(signer), account, backend, chainID)
	return NewRegistry(contracts.DomainRegistry, backend, tx), NewToken(contracts.PaymentToken, backend, tx), backend, nil
}

// backend dials desc once and checks the node really serves desc.ChainID.
func (w *KeyWallet) backend(ctx context.Context, desc schema.NetworkDescriptor) (Backend, error) {
	w.locker.RLock()
	b, ok := w.backends[desc.ChainID]
	w.locker.RUnlock()
	if ok {
		return b, nil
	}
	if len(desc.RpcUrls) == 0 {
		return nil, ErrNoRpcUrl
	}
	b, err := w.dial(ctx, desc.RpcUrls[0])
	if err != nil {
		return nil, err
	}
	id, err := b.ChainID(ctx)
	if err != nil {
		return nil, Classify(err)
	}
	if !id.IsUint64() || id.Uint64() != desc.ChainID {
		return nil, fmt.Errorf("%w: rpc %s serves chain %s", schema.ErrNetworkMismatch, desc.RpcUrls[0], id)
	}
	w.locker.Lock()
	w.backends[desc.ChainID] = b
	w.locker.Unlock()
	return b, nil
}

func (w *KeyWallet) ask(msg string) error {
	w.locker.RLock()
	prompt := w.prompt
	w.locker.RUnlock()
	if prompt == nil || prompt(msg) {
		return nil
	}
	return fmt.Errorf("%w: %s", schema.ErrUserRejected, msg)
}

// emit never blocks; a full buffer drops the event.
func (w *KeyWallet) emit(ev schema.WalletEvent) {
	select {
	case w.events <- ev:
	default:
		log.Warn("wallet event dropped", "type", ev.Type)
	}
}
