package zns

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/rawdb"
	"github.com/everFinance/zns/schema"
)

// Store keeps the journal of submitted transactions so that a hash reported
// with a timed_out outcome can be looked up again later.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	Db, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: Db}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

func (s *Store) SaveTx(tx schema.PendingTransaction) error {
	tx.UpdatedAt = time.Now()
	val, err := json.Marshal(tx)
	if err != nil {
		return err
	}
	key := tx.Hash.Hex()
	if err = s.KVDb.Put(schema.TxJournalBucket, key, val); err != nil {
		return err
	}
	if tx.Status.Terminal() {
		return s.KVDb.Delete(schema.TxJournalOpenBucket, key)
	}
	return s.KVDb.Put(schema.TxJournalOpenBucket, key, []byte("0x01"))
}

func (s *Store) LoadTx(hash common.Hash) (schema.PendingTransaction, error) {
	tx := schema.PendingTransaction{}
	val, err := s.KVDb.Get(schema.TxJournalBucket, hash.Hex())
	if err != nil {
		return tx, err
	}
	err = json.Unmarshal(val, &tx)
	return tx, err
}

func (s *Store) UpdateTxStatus(hash common.Hash, status schema.TxStatus, blockNumber uint64) (schema.PendingTransaction, error) {
	tx, err := s.LoadTx(hash)
	if err != nil {
		return tx, err
	}
	tx.Status = status
	if blockNumber > 0 {
		tx.BlockNumber = blockNumber
	}
	return tx, s.SaveTx(tx)
}

// LoadOpenTxs returns up to num journal entries on chainID that are neither
// confirmed nor reverted; chainID 0 matches every chain and num < 0 means all.
func (s *Store) LoadOpenTxs(chainID uint64, num int) ([]schema.PendingTransaction, error) {
	keys, err := s.KVDb.GetAllKey(schema.TxJournalOpenBucket)
	if err != nil {
		return nil, err
	}
	txs := make([]schema.PendingTransaction, 0, len(keys))
	for _, key := range keys {
		if num >= 0 && len(txs) >= num {
			break
		}
		tx, err := s.LoadTx(common.HexToHash(key))
		if err != nil {
			log.Error("s.LoadTx(key)", "err", err, "hash", key)
			continue
		}
		if chainID != 0 && tx.ChainID != chainID {
			continue
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
