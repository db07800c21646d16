package zns

import (
	"os"
	"path"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	sqliteName = "zns.sqlite"
)

// Wdb records the history of terminal workflow outcomes.
type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel), // prod use warn
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		panic(err)
	}
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Silent),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.OutcomeRecord{})
}

func (w *Wdb) InsertOutcome(rec schema.OutcomeRecord) error {
	return w.Db.Create(&rec).Error
}

// OnOutcome implements OutcomeSink.
func (w *Wdb) OnOutcome(o *schema.Outcome) error {
	return w.InsertOutcome(outcomeRecord(o))
}

func (w *Wdb) GetOutcomes(account common.Address, limit int) ([]schema.OutcomeRecord, error) {
	res := make([]schema.OutcomeRecord, 0, 10)
	err := w.Db.Model(&schema.OutcomeRecord{}).
		Where("account = ?", strings.ToLower(account.Hex())).
		Order("id desc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) GetDomainOutcomes(domain string, limit int) ([]schema.OutcomeRecord, error) {
	res := make([]schema.OutcomeRecord, 0, 10)
	err := w.Db.Model(&schema.OutcomeRecord{}).
		Where("domain = ?", domain).
		Order("id desc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}

func outcomeRecord(o *schema.Outcome) schema.OutcomeRecord {
	rec := schema.OutcomeRecord{
		Account:  strings.ToLower(o.Account.Hex()),
		Domain:   o.Domain,
		Action:   string(o.Action),
		Success:  o.Success(),
		Warnings: strings.Join(o.Warnings, "; "),
	}
	if o.Target != (common.Address{}) {
		rec.Target = o.Target.Hex()
	}
	if o.Submitted() {
		rec.TxHash = o.TxHash.Hex()
	}
	if o.ApproveHash != (common.Hash{}) {
		rec.ApproveHash = o.ApproveHash.Hex()
	}
	if o.Err != nil {
		rec.ErrKind = schema.KindOf(o.Err)
		rec.ErrMsg = o.Err.Error()
	}
	return rec
}
