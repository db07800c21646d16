package zns

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/chain"
	zcommon "github.com/everFinance/zns/common"
	"github.com/everFinance/zns/config"
	"github.com/everFinance/zns/schema"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
)

type Zns struct {
	config   *config.Config
	store    *Store
	wdb      *Wdb
	wallet   *chain.KeyWallet
	sessions *SessionManager
	workflow *Workflow
	cache    *ResolveCache
	kWriter  *KWriter

	engine    *gin.Engine
	scheduler *gocron.Scheduler
	apiSrv    *http.Server
	metricSrv *http.Server
	cancel    context.CancelFunc

	limit int // write requests per minute and client
}

func New(cfg schema.Config) (*Zns, error) {
	conf, err := config.New(cfg.NetworkFile)
	if err != nil {
		return nil, err
	}
	if err = conf.SetContracts(cfg.Registry, cfg.Token); err != nil {
		return nil, err
	}

	store, err := NewBoltStore(cfg.BoltDir)
	if err != nil {
		return nil, err
	}
	// the wallet keeps its chains in the same bolt file as the journal
	wallet, err := chain.NewKeyWallet(store.KVDb, chain.EthDial)
	if err != nil {
		store.Close()
		return nil, err
	}
	if cfg.KeyPath != "" {
		if err = useKeyFile(wallet, cfg.KeyPath); err != nil {
			store.Close()
			return nil, err
		}
	}

	var wdb *Wdb
	switch {
	case cfg.UseSqlite:
		wdb = NewSqliteDb(cfg.SqliteDir)
	case cfg.Mysql != "":
		wdb = NewMysqlDb(cfg.Mysql)
	}
	if wdb != nil {
		if err = wdb.Migrate(); err != nil {
			store.Close()
			return nil, err
		}
	}

	c, err := NewResolveCache(cfg.CacheTTL)
	if err != nil {
		store.Close()
		return nil, err
	}

	sessions := NewSessionManager(wallet, KeyWalletBinder(wallet), conf.Network, conf.Contracts)
	workflow := NewWorkflow(sessions, store, conf.Network, conf.Contracts, cfg.Confirm)
	workflow.UseCache(c)
	if wdb != nil {
		workflow.AddSink(wdb)
	}

	s := &Zns{
		config:    conf,
		store:     store,
		wdb:       wdb,
		wallet:    wallet,
		sessions:  sessions,
		workflow:  workflow,
		cache:     c,
		engine:    gin.Default(),
		scheduler: gocron.NewScheduler(time.UTC),
		limit:     schema.DefaultWriteLimit,
	}
	if cfg.Kafka.Start {
		if s.kWriter, err = NewKWriter(OutcomeTopic, cfg.Kafka.Uri); err != nil {
			s.Close()
			return nil, err
		}
		workflow.AddSink(s.kWriter)
	}
	return s, nil
}

// KeyWalletBinder adapts the wallet's concrete bindings to Bindings.
func KeyWalletBinder(w *chain.KeyWallet) Binder {
	return BinderFunc(func(ctx context.Context, account common.Address, chainID uint64, contracts schema.Contracts) (*Bindings, error) {
		registry, token, backend, err := w.Bind(ctx, account, chainID, contracts)
		if err != nil {
			return nil, err
		}
		return &Bindings{Registry: registry, Token: token, Chain: backend}, nil
	})
}

func useKeyFile(w *chain.KeyWallet, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	addr, err := w.UseKey(strings.TrimPrefix(strings.TrimSpace(string(data)), "0x"))
	if err != nil {
		return err
	}
	log.Info("wallet key loaded", "account", addr.Hex())
	return nil
}

func (s *Zns) Sessions() *SessionManager {
	return s.sessions
}

func (s *Zns) Workflow() *Workflow {
	return s.workflow
}

func (s *Zns) Wallet() *chain.KeyWallet {
	return s.wallet
}

// Run restores a session without prompting, then starts the event watcher,
// the jobs, the api and the metric server. It does not block.
func (s *Zns) Run(port, metricPort string) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.config.Run()
	if _, err := s.sessions.Reconnect(ctx); err != nil {
		log.Info("no session restored, waiting for /connect", "err", err)
	}
	go s.sessions.Watch(ctx)
	s.runJobs()
	s.metricSrv = zcommon.NewMetricServer(metricPort)
	s.runAPI(port)
}

func (s *Zns) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
	s.config.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{s.apiSrv, s.metricSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("server shutdown", "err", err, "addr", srv.Addr)
		}
	}
	s.sessions.Disconnect()
	if s.kWriter != nil {
		s.kWriter.Close()
	}
	if s.wdb != nil {
		s.wdb.Close()
	}
	if err := s.store.Close(); err != nil {
		log.Error("s.store.Close()", "err", err)
	}
}
