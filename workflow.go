package zns

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
)

// ConfirmFunc asks the user to re-confirm an irreversible action.
type ConfirmFunc func(ctx context.Context, prompt string) bool

type ExecuteRequest struct {
	Name    string
	Action  schema.Action
	Target  string // transfer only
	Confirm ConfirmFunc
}

// OutcomeSink receives every terminal outcome. Sink errors are logged and
// never change the outcome.
type OutcomeSink interface {
	OnOutcome(o *schema.Outcome) error
}

type Workflow struct {
	sessions  SessionSource
	journal   *Store
	network   schema.NetworkDescriptor
	contracts schema.Contracts
	confirm   schema.ConfirmConfig

	cache    *ResolveCache
	sinks    []OutcomeSink
	inflight *InflightGuard
	now      func() time.Time
}

func NewWorkflow(sessions SessionSource, journal *Store, network schema.NetworkDescriptor, contracts schema.Contracts, confirm schema.ConfirmConfig) *Workflow {
	return &Workflow{
		sessions:  sessions,
		journal:   journal,
		network:   network,
		contracts: contracts,
		confirm:   confirm,
		inflight:  NewInflightGuard(),
		now:       time.Now,
	}
}

func (w *Workflow) UseCache(c *ResolveCache) {
	w.cache = c
}

func (w *Workflow) AddSink(s OutcomeSink) {
	w.sinks = append(w.sinks, s)
}

func (w *Workflow) session() (*Session, error) {
	sess := w.sessions.CurrentSession()
	if sess == nil || !sess.Active() {
		return nil, schema.ErrNoSession
	}
	return sess, nil
}

// Resolve looks a name up for display. Results may come from the cache.
func (w *Workflow) Resolve(ctx context.Context, name string) (*schema.DomainQueryResult, error) {
	sess, err := w.session()
	if err != nil {
		return nil, err
	}
	domain, err := Normalize(name)
	if err != nil {
		return nil, err
	}
	if res, ok := w.cache.Get(sess.ChainID, domain); ok {
		return res, nil
	}
	res, err := w.query(ctx, sess, domain)
	if err != nil {
		return nil, err
	}
	if !res.Available {
		addr, err := sess.Registry.ResolveDomain(ctx, domain)
		if err != nil {
			log.Debug("resolve domain address failed", "err", err, "domain", domain)
		} else {
			res.Address = addr
		}
	}
	w.cache.Put(sess.ChainID, res)
	return res, nil
}

// query reads the registry directly, bypassing the cache.
func (w *Workflow) query(ctx context.Context, sess *Session, domain string) (*schema.DomainQueryResult, error) {
	available, err := sess.Registry.IsAvailable(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("isAvailable(%s): %w", domain, err)
	}
	res := &schema.DomainQueryResult{Name: domain, Available: available}
	if available {
		return res, nil
	}
	if res.Owner, err = sess.Registry.OwnerOf(ctx, domain); err != nil {
		return nil, fmt.Errorf("domainOwners(%s): %w", domain, err)
	}
	if res.Expiry, err = sess.Registry.ExpiryOf(ctx, domain); err != nil {
		return nil, fmt.Errorf("domainExpiry(%s): %w", domain, err)
	}
	return res, nil
}

func (w *Workflow) checkEligible(sess *Session, res *schema.DomainQueryResult, action schema.Action) error {
	switch action {
	case schema.ActionRegister:
		if !res.Actionable(w.now().Unix()) {
			return fmt.Errorf("%w: %s has %d days remaining", schema.ErrDomainUnavailable, res.Name, res.DaysRemaining(w.now().Unix()))
		}
	default:
		if !res.OwnedBy(sess.Account) {
			return fmt.Errorf("%w: %s is owned by %s", schema.ErrNotOwner, res.Name, FormatAddress(res.Owner))
		}
	}
	return nil
}

// Execute runs one register, renew or transfer end to end. The returned
// outcome is never nil; on failure it carries the hash of any transaction
// that was already submitted.
func (w *Workflow) Execute(ctx context.Context, req ExecuteRequest) (*schema.Outcome, error) {
	out := &schema.Outcome{Action: req.Action}
	out.Err = w.execute(ctx, req, out)
	if last := out.LastHash(); last != (common.Hash{}) {
		out.ExplorerURL = w.network.TxURL(last)
	}
	w.finish(out)
	return out, out.Err
}

func (w *Workflow) execute(ctx context.Context, req ExecuteRequest, out *schema.Outcome) error {
	sess, err := w.session()
	if err != nil {
		return err
	}
	out.Account = sess.Account
	if !req.Action.Valid() {
		return fmt.Errorf("unknown action %q", req.Action)
	}
	domain, err := Normalize(req.Name)
	if err != nil {
		return err
	}
	out.Domain = domain

	release, err := w.inflight.Acquire(sess.Account, domain, req.Action)
	if err != nil {
		return err
	}
	defer release()

	if req.Action == schema.ActionTransfer {
		target, err := ParseTarget(req.Target)
		if err != nil {
			return err
		}
		out.Target = target
		prompt := fmt.Sprintf("Transfer %s to %s?\n\nThis action cannot be undone.", domain, target.Hex())
		if req.Confirm == nil || !req.Confirm(ctx, prompt) {
			return schema.ErrUserCancelled
		}
	}

	// 1. resolve
	res, err := w.query(ctx, sess, domain)
	if err != nil {
		return err
	}
	if err = w.checkEligible(sess, res, req.Action); err != nil {
		return err
	}

	// 2. price & balance, 3. allowance gate
	approved := false
	if req.Action.Paid() {
		if approved, err = w.ensureFunds(ctx, sess, domain, out); err != nil {
			return err
		}
	}
	if approved {
		// the approval took a while; re-derive eligibility before paying
		ctx = context.WithoutCancel(ctx)
		if res, err = w.query(ctx, sess, domain); err != nil {
			return err
		}
		if err = w.checkEligible(sess, res, req.Action); err != nil {
			return err
		}
	}

	// 4. submit
	purpose := schema.PurposeOf(req.Action)
	tx, err := w.submit(ctx, sess, purpose, domain, func(ctx context.Context, gas uint64) (common.Hash, error) {
		switch req.Action {
		case schema.ActionRegister:
			return sess.Registry.Register(ctx, domain, gas)
		case schema.ActionRenew:
			return sess.Registry.Renew(ctx, domain, gas)
		default:
			return sess.Registry.Transfer(ctx, domain, out.Target, gas)
		}
	})
	if err != nil {
		return err
	}
	out.TxHash = tx.Hash

	// 5. confirm; a submitted tx can not be called back, so the caller's
	// cancellation no longer applies
	ctx = context.WithoutCancel(ctx)
	if err = w.await(ctx, sess, tx); err != nil {
		return err
	}

	// 6. refresh
	out.Result, out.Warnings = w.refresh(ctx, sess, domain, req.Action)
	return nil
}

// ensureFunds checks the balance against the price and raises the allowance
// when needed. It reports whether an approval transaction was confirmed.
func (w *Workflow) ensureFunds(ctx context.Context, sess *Session, domain string, out *schema.Outcome) (bool, error) {
	price, err := sess.Registry.RegistrationPrice(ctx)
	if err != nil {
		return false, fmt.Errorf("registrationPrice: %w", err)
	}
	balance, err := sess.Token.BalanceOf(ctx, sess.Account)
	if err != nil {
		return false, fmt.Errorf("balanceOf: %w", err)
	}
	if balance.Cmp(price) < 0 {
		return false, fmt.Errorf("%w: balance %s, price %s", schema.ErrInsufficientBalance, balance, price)
	}

	allowance, err := sess.Token.Allowance(ctx, sess.Account, w.contracts.DomainRegistry)
	if err != nil {
		return false, fmt.Errorf("allowance: %w", err)
	}
	if allowance.Cmp(price) >= 0 {
		return false, nil
	}

	log.Info("allowance below price, approving", "account", sess.Account.Hex(), "allowance", allowance, "price", price)
	amount := new(big.Int).Set(price)
	tx, err := w.submit(ctx, sess, schema.PurposeApprove, domain, func(ctx context.Context, gas uint64) (common.Hash, error) {
		return sess.Token.Approve(ctx, w.contracts.DomainRegistry, amount, gas)
	})
	if err != nil {
		return false, err
	}
	out.ApproveHash = tx.Hash
	if err = w.await(context.WithoutCancel(ctx), sess, tx); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Workflow) submit(ctx context.Context, sess *Session, purpose schema.TxPurpose, domain string,
	send func(ctx context.Context, gasLimit uint64) (common.Hash, error)) (schema.PendingTransaction, error) {
	tx := schema.PendingTransaction{
		Purpose:  purpose,
		Domain:   domain,
		From:     sess.Account,
		ChainID:  sess.ChainID,
		GasLimit: schema.GasLimit(purpose),
	}
	// an account or chain change since the last step must not reach the chain
	if !sess.Active() {
		return tx, schema.ErrNoSession
	}
	hash, err := send(ctx, tx.GasLimit)
	if err != nil {
		return tx, fmt.Errorf("%s %s: %w", purpose, domain, err)
	}
	tx.Hash = hash
	tx.Status = schema.TxSubmitted
	tx.SubmittedAt = w.now()
	if err = w.journal.SaveTx(tx); err != nil {
		log.Error("w.journal.SaveTx(tx)", "err", err, "hash", hash.Hex())
	}
	log.Info("tx submitted", "purpose", purpose, "domain", domain, "hash", hash.Hex(), "explorer", w.network.TxURL(hash))
	return tx, nil
}

func (w *Workflow) await(ctx context.Context, sess *Session, tx schema.PendingTransaction) error {
	receipt, err := WaitMined(ctx, sess.Chain, tx.Hash, w.confirm.Timeout, w.confirm.PollInterval)

	status := schema.TxConfirmed
	var block uint64
	switch {
	case errors.Is(err, schema.ErrTransactionReverted):
		status = schema.TxReverted
	case errors.Is(err, schema.ErrTimedOut):
		status = schema.TxTimedOut
	}
	if receipt != nil && receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	if _, uerr := w.journal.UpdateTxStatus(tx.Hash, status, block); uerr != nil {
		log.Error("w.journal.UpdateTxStatus", "err", uerr, "hash", tx.Hash.Hex(), "status", status)
	}
	metricConfirm(tx.Purpose, status, w.now().Sub(tx.SubmittedAt).Seconds())
	if err != nil {
		log.Warn("tx not confirmed", "purpose", tx.Purpose, "hash", tx.Hash.Hex(), "status", status, "err", err)
	}
	return err
}

// refresh re-reads the post-transaction state. Failures here are warnings:
// the write already succeeded.
func (w *Workflow) refresh(ctx context.Context, sess *Session, domain string, action schema.Action) (*schema.DomainQueryResult, []string) {
	warnings := make([]string, 0)
	w.cache.Invalidate(sess.ChainID, domain)

	res, err := w.query(ctx, sess, domain)
	if err != nil {
		err = fmt.Errorf("%w: %v", schema.ErrTransientRead, err)
		log.Warn("refresh domain failed", "err", err, "domain", domain)
		warnings = append(warnings, err.Error())
		res = nil
	} else {
		w.cache.Put(sess.ChainID, res)
	}

	if action.Paid() {
		if err := w.refreshBalance(ctx, sess); err != nil {
			err = fmt.Errorf("%w: %v", schema.ErrTransientRead, err)
			log.Warn("refresh balance failed", "err", err, "account", sess.Account.Hex())
			warnings = append(warnings, err.Error())
		}
	}
	return res, warnings
}

func (w *Workflow) refreshBalance(ctx context.Context, sess *Session) error {
	bal, decimals, symbol, err := w.tokenBalance(ctx, sess)
	if err != nil {
		return err
	}
	metricBalance(sess.Account.Hex(), symbol, amountFloat(bal, decimals))
	return nil
}

func (w *Workflow) finish(out *schema.Outcome) {
	metricOutcome(out)
	if out.Err != nil {
		if errors.Is(out.Err, schema.ErrUserRejected) || errors.Is(out.Err, schema.ErrUserCancelled) {
			log.Info("workflow cancelled by user", "action", out.Action, "domain", out.Domain)
		} else {
			log.Warn("workflow failed", "action", out.Action, "domain", out.Domain, "kind", schema.KindOf(out.Err), "err", out.Err, "txHash", out.TxHash.Hex())
		}
	} else {
		log.Info("workflow success", "action", out.Action, "domain", out.Domain, "txHash", out.TxHash.Hex())
	}
	if out.Domain == "" {
		return
	}
	for _, s := range w.sinks {
		if err := s.OnOutcome(out); err != nil {
			log.Error("s.OnOutcome(out)", "err", err, "domain", out.Domain)
		}
	}
}

// TxStatus returns the journal entry for hash, first polling the receipt once
// when the entry is not terminal yet.
func (w *Workflow) TxStatus(ctx context.Context, hash common.Hash) (schema.PendingTransaction, error) {
	tx, err := w.journal.LoadTx(hash)
	if err != nil {
		return tx, err
	}
	if tx.Status.Terminal() {
		return tx, nil
	}
	sess := w.sessions.CurrentSession()
	if sess == nil || sess.ChainID != tx.ChainID {
		return tx, nil
	}
	return w.reconcile(ctx, sess.Chain, tx)
}

func (w *Workflow) reconcile(ctx context.Context, reader ReceiptReader, tx schema.PendingTransaction) (schema.PendingTransaction, error) {
	receipt, err := reader.TransactionReceipt(ctx, tx.Hash)
	status, ok := receiptStatus(receipt, err)
	if !ok {
		return tx, nil
	}
	var block uint64
	if receipt.BlockNumber != nil {
		block = receipt.BlockNumber.Uint64()
	}
	log.Info("late receipt found", "hash", tx.Hash.Hex(), "purpose", tx.Purpose, "status", status)
	return w.journal.UpdateTxStatus(tx.Hash, status, block)
}
