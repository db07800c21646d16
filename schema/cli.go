package schema

import "time"

type Config struct {
	KeyPath     string        `yaml:"keyPath"` // hex private key file of the local wallet
	NetworkFile string        `yaml:"networkFile"`
	Registry    string        `yaml:"registry"`
	Token       string        `yaml:"token"`
	BoltDir     string        `yaml:"boltDir"`
	Mysql       string        `yaml:"mysql"`
	SqliteDir   string        `yaml:"sqliteDir"`
	UseSqlite   bool          `yaml:"useSqlite"`
	Port        string        `yaml:"port"`
	MetricPort  string        `yaml:"metricPort"`
	Confirm     ConfirmConfig `yaml:"confirm"`
	CacheTTL    time.Duration `yaml:"cacheTTL"`

	Kafka Kafka `yaml:"kafka"`
}

type ConfirmConfig struct {
	Timeout      time.Duration `yaml:"timeout"` // ceiling after which a tx is reported timed_out
	PollInterval time.Duration `yaml:"pollInterval"`
}

type Kafka struct {
	Start bool   `yaml:"start"`
	Uri   string `yaml:"uri"`
}
