package zns

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"github.com/google/uuid"
)

type SessionState string

const (
	StateDisconnected SessionState = "disconnected"
	StateConnecting   SessionState = "connecting"
	StateConnected    SessionState = "connected"
)

// Session is one connected wallet identity. It is never mutated after
// creation: reconnecting builds a new Session and invalidates the old one.
type Session struct {
	ID      string
	Account common.Address
	ChainID uint64

	Registry Registry
	Token    Token
	Chain    ChainReader

	done chan struct{}
	once sync.Once
}

func newSession(account common.Address, chainID uint64, b *Bindings) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Account:  account,
		ChainID:  chainID,
		Registry: b.Registry,
		Token:    b.Token,
		Chain:    b.Chain,
		done:     make(chan struct{}),
	}
}

func (s *Session) Invalidate() {
	s.once.Do(func() { close(s.done) })
}

// Active reports whether the session is still the manager's current one.
func (s *Session) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

func (s *Session) Done() <-chan struct{} {
	return s.done
}

type SessionSource interface {
	CurrentSession() *Session
}

type SessionManager struct {
	wallet    WalletProvider
	binder    Binder
	network   schema.NetworkDescriptor
	contracts schema.Contracts

	connectLocker sync.Mutex // one connect flow at a time

	locker    sync.RWMutex
	state     SessionState
	session   *Session
	listeners []func(*Session)
}

func NewSessionManager(wallet WalletProvider, binder Binder, network schema.NetworkDescriptor, contracts schema.Contracts) *SessionManager {
	return &SessionManager{
		wallet:    wallet,
		binder:    binder,
		network:   network,
		contracts: contracts,
		state:     StateDisconnected,
	}
}

func (m *SessionManager) Network() schema.NetworkDescriptor {
	return m.network
}

func (m *SessionManager) Contracts() schema.Contracts {
	return m.contracts
}

func (m *SessionManager) CurrentSession() *Session {
	m.locker.RLock()
	defer m.locker.RUnlock()
	return m.session
}

func (m *SessionManager) State() SessionState {
	m.locker.RLock()
	defer m.locker.RUnlock()
	return m.state
}

// OnChange registers fn to be called with the new session after every connect,
// reconnect or disconnect. fn receives nil when the session is gone.
func (m *SessionManager) OnChange(fn func(*Session)) {
	m.locker.Lock()
	defer m.locker.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Connect requests account access and moves the wallet to the target chain,
// adding the chain first when the wallet does not know it.
func (m *SessionManager) Connect(ctx context.Context) (*Session, error) {
	return m.connect(ctx, true)
}

// Reconnect restores a session without prompting: it succeeds only when the
// wallet already exposes an account and already sits on the target chain.
func (m *SessionManager) Reconnect(ctx context.Context) (*Session, error) {
	return m.connect(ctx, false)
}

func (m *SessionManager) Disconnect() {
	m.replace(nil, StateDisconnected)
	log.Info("wallet disconnected")
}

func (m *SessionManager) connect(ctx context.Context, interactive bool) (*Session, error) {
	if m.wallet == nil {
		return nil, schema.ErrNoWalletProvider
	}
	m.connectLocker.Lock()
	defer m.connectLocker.Unlock()

	m.replace(nil, StateConnecting)
	sess, err := m.establish(ctx, interactive)
	if err != nil {
		m.replace(nil, StateDisconnected)
		log.Warn("connect wallet failed", "err", err, "interactive", interactive)
		return nil, err
	}
	m.replace(sess, StateConnected)
	log.Info("wallet connected", "account", sess.Account.Hex(), "chainId", sess.ChainID, "session", sess.ID)
	return sess, nil
}

func (m *SessionManager) establish(ctx context.Context, interactive bool) (*Session, error) {
	var (
		accounts []common.Address
		err      error
	)
	if interactive {
		accounts, err = m.wallet.RequestAccounts(ctx)
	} else {
		accounts, err = m.wallet.Accounts(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, schema.ErrNoAccount
	}

	chainID, err := m.ensureNetwork(ctx, interactive)
	if err != nil {
		return nil, err
	}

	b, err := m.binder.Bind(ctx, accounts[0], chainID, m.contracts)
	if err != nil {
		return nil, fmt.Errorf("bind contracts: %w", err)
	}
	return newSession(accounts[0], chainID, b), nil
}

func (m *SessionManager) ensureNetwork(ctx context.Context, interactive bool) (uint64, error) {
	target := m.network.ChainID
	chainID, err := m.wallet.ActiveChain(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", schema.ErrNetworkMismatch, err)
	}
	if chainID == target {
		return chainID, nil
	}
	if !interactive {
		return 0, fmt.Errorf("%w: active chain %d, want %d", schema.ErrNetworkMismatch, chainID, target)
	}

	err = m.wallet.SwitchChain(ctx, target)
	if errors.Is(err, schema.ErrUnknownChain) {
		log.Info("target chain unknown to wallet, adding it", "chainId", target, "chainName", m.network.ChainName)
		if err = m.wallet.AddChain(ctx, m.network); err == nil {
			err = m.wallet.SwitchChain(ctx, target)
		}
	}
	if err != nil {
		if errors.Is(err, schema.ErrUserRejected) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", schema.ErrNetworkSwitchFailed, err)
	}

	chainID, err = m.wallet.ActiveChain(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", schema.ErrNetworkMismatch, err)
	}
	if chainID != target {
		return 0, fmt.Errorf("%w: active chain %d after switch, want %d", schema.ErrNetworkMismatch, chainID, target)
	}
	return chainID, nil
}

// replace swaps the current session, invalidating the previous one.
func (m *SessionManager) replace(sess *Session, state SessionState) {
	m.locker.Lock()
	prev, prevState := m.session, m.state
	m.session = sess
	m.state = state
	listeners := append([]func(*Session){}, m.listeners...)
	m.locker.Unlock()

	if prev != nil {
		prev.Invalidate()
	}
	if state == StateConnecting || (prev == sess && prevState == state) {
		return
	}
	for _, fn := range listeners {
		fn(sess)
	}
}

// Watch applies wallet events until ctx is done or the event channel closes.
func (m *SessionManager) Watch(ctx context.Context) {
	if m.wallet == nil {
		return
	}
	events := m.wallet.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent treats account and chain changes as invalidation: the current
// session is dropped and rebuilt from scratch, never patched.
func (m *SessionManager) HandleEvent(ctx context.Context, ev schema.WalletEvent) {
	switch ev.Type {
	case schema.EventAccountsChanged:
		if len(ev.Accounts) == 0 {
			log.Info("wallet exposes no account")
			m.Disconnect()
			return
		}
		log.Info("wallet accounts changed", "account", ev.Accounts[0].Hex())
	case schema.EventChainChanged:
		if m.State() == StateConnecting {
			// the running connect flow re-validates the chain itself
			return
		}
		// echo of the switch the last connect made; the session already sits there
		if sess := m.CurrentSession(); sess != nil && sess.ChainID == ev.ChainID {
			return
		}
		log.Info("wallet chain changed", "chainId", ev.ChainID)
	default:
		return
	}

	if _, err := m.Reconnect(ctx); err != nil {
		log.Warn("re-establish session failed", "event", ev.Type, "err", err)
	}
}
