package zns

import (
	"context"
	"sync"
	"time"

	"github.com/everFinance/zns/schema"
	"github.com/panjf2000/ants/v2"
)

const (
	reconcileBatch = 100
	reconcilePool  = 20
	jobTimeout     = 30 * time.Second
)

func (s *Zns) runJobs() {
	s.scheduler.Every(10).Seconds().SingletonMode().Do(s.reconcileTxs)
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.updateBalances)

	s.scheduler.StartAsync()
}

func (s *Zns) reconcileTxs() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if n := s.workflow.ReconcileOpen(ctx, reconcileBatch); n > 0 {
		log.Info("reconciled journal entries", "number", n)
	}
}

func (s *Zns) updateBalances() {
	if s.sessions.CurrentSession() == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.workflow.Balances(ctx); err != nil {
		log.Warn("s.workflow.Balances(ctx)", "err", err)
	}
}

// ReconcileOpen polls one receipt for each journal entry still submitted or
// timed_out on the session's chain, and returns how many reached a terminal
// status.
func (w *Workflow) ReconcileOpen(ctx context.Context, num int) int {
	sess, err := w.session()
	if err != nil {
		return 0
	}
	txs, err := w.journal.LoadOpenTxs(sess.ChainID, num)
	if err != nil {
		log.Error("w.journal.LoadOpenTxs(sess.ChainID, num)", "err", err)
		return 0
	}
	if len(txs) == 0 {
		return 0
	}

	log.Debug("load open journal entries", "number", len(txs))
	var (
		wg     sync.WaitGroup
		locker sync.Mutex
		done   int
	)
	p, err := ants.NewPoolWithFunc(reconcilePool, func(i interface{}) {
		defer wg.Done()
		tx := i.(schema.PendingTransaction)
		res, err := w.reconcile(ctx, sess.Chain, tx)
		if err != nil {
			log.Error("w.reconcile", "err", err, "hash", tx.Hash.Hex())
			return
		}
		if res.Status.Terminal() {
			locker.Lock()
			done++
			locker.Unlock()
		}
	})
	if err != nil {
		log.Error("ants.NewPoolWithFunc", "err", err)
		return 0
	}
	defer p.Release()

	for _, tx := range txs {
		wg.Add(1)
		if err := p.Invoke(tx); err != nil {
			wg.Done()
			log.Error("p.Invoke(tx)", "err", err, "hash", tx.Hash.Hex())
		}
	}
	wg.Wait()
	return done
}
