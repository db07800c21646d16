package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/everFinance/zns"
	"github.com/everFinance/zns/schema"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "zns",
		Usage: "Zircuit Naming Service client",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "key_path", Value: "./data/wallet.key", Usage: "hex private key file of the local wallet", EnvVars: []string{"KEY_PATH"}},
			&cli.StringFlag{Name: "network", Usage: "network/contracts json file, defaults to Zircuit Garfield testnet", EnvVars: []string{"NETWORK"}},
			&cli.StringFlag{Name: "registry", Usage: "DomainRegistry contract address", EnvVars: []string{"REGISTRY"}},
			&cli.StringFlag{Name: "token", Usage: "payment token contract address", EnvVars: []string{"TOKEN"}},
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Usage: "mysql dsn of the outcome history", EnvVars: []string{"MYSQL"}},
			&cli.BoolFlag{Name: "use_sqlite", Value: true, Usage: "keep the outcome history in sqlite", EnvVars: []string{"USE_SQLITE"}},
			&cli.StringFlag{Name: "sqlite_dir", Value: "./data/sqlite", Usage: "sqlite db dir path", EnvVars: []string{"SQLITE_DIR"}},
			&cli.DurationFlag{Name: "confirm_timeout", Value: zns.DefaultConfirmTimeout, EnvVars: []string{"CONFIRM_TIMEOUT"}},
			&cli.DurationFlag{Name: "poll_interval", Value: zns.DefaultPollInterval, EnvVars: []string{"POLL_INTERVAL"}},
			&cli.DurationFlag{Name: "cache_ttl", Value: zns.DefaultCacheTTL, EnvVars: []string{"CACHE_TTL"}},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the http api, the reconcile jobs and the metric server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
					&cli.StringFlag{Name: "metric_port", Value: ":9000", EnvVars: []string{"METRIC_PORT"}},
					&cli.BoolFlag{Name: "kafka", Value: false, EnvVars: []string{"KAFKA"}},
					&cli.StringFlag{Name: "kafka_uri", Value: "localhost:9092", EnvVars: []string{"KAFKA_URI"}},
				},
				Action: serve,
			},
			{Name: "resolve", Usage: "resolve <name>", ArgsUsage: "<name>", Action: resolve},
			{Name: "register", Usage: "register <name>", ArgsUsage: "<name>", Action: execute(schema.ActionRegister)},
			{Name: "renew", Usage: "renew <name>", ArgsUsage: "<name>", Action: execute(schema.ActionRenew)},
			{
				Name:      "transfer",
				Usage:     "transfer <name> <to>",
				ArgsUsage: "<name> <to>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
				Action: execute(schema.ActionTransfer),
			},
			{Name: "tx", Usage: "tx <hash>", ArgsUsage: "<hash>", Action: txStatus},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func config(c *cli.Context) schema.Config {
	return schema.Config{
		KeyPath:     c.String("key_path"),
		NetworkFile: c.String("network"),
		Registry:    c.String("registry"),
		Token:       c.String("token"),
		BoltDir:     c.String("db_dir"),
		Mysql:       c.String("mysql"),
		UseSqlite:   c.Bool("use_sqlite"),
		SqliteDir:   c.String("sqlite_dir"),
		Port:        c.String("port"),
		MetricPort:  c.String("metric_port"),
		Confirm: schema.ConfirmConfig{
			Timeout:      c.Duration("confirm_timeout"),
			PollInterval: c.Duration("poll_interval"),
		},
		CacheTTL: c.Duration("cache_ttl"),
		Kafka: schema.Kafka{
			Start: c.Bool("kafka"),
			Uri:   c.String("kafka_uri"),
		},
	}
}

func serve(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	cfg := config(c)
	s, err := zns.New(cfg)
	if err != nil {
		return err
	}
	s.Run(cfg.Port, cfg.MetricPort)

	<-signals
	s.Close()
	return nil
}

// connected builds the client and connects the local wallet, prompting on
// stdin for network changes.
func connected(c *cli.Context) (*zns.Zns, error) {
	s, err := zns.New(config(c))
	if err != nil {
		return nil, err
	}
	s.Wallet().SetPrompt(func(msg string) bool {
		return ask(msg + "?")
	})
	if _, err = s.Sessions().Connect(c.Context); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func resolve(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.ShowSubcommandHelp(c)
	}
	s, err := connected(c)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.Workflow().Resolve(c.Context, c.Args().First())
	if err != nil {
		return err
	}
	sess := s.Sessions().CurrentSession()
	now := time.Now().Unix()
	fmt.Printf("%s\t%s\n", res.Name, res.Status(sess.Account, now))
	if !res.Available {
		fmt.Printf("owner:\t%s\n", formatOwner(res.Owner))
		fmt.Printf("expiry:\t%s (%d days remaining)\n", time.Unix(res.Expiry, 0).UTC().Format(time.RFC3339), res.DaysRemaining(now))
		if res.Address != (common.Address{}) {
			fmt.Printf("address:\t%s\n", res.Address.Hex())
		}
	}
	if price, decimals, symbol, err := s.Workflow().Price(c.Context); err == nil {
		fmt.Printf("price:\t%s %s\n", zns.FormatAmount(price, decimals), symbol)
	}
	return nil
}

func formatOwner(addr common.Address) string {
	if addr == schema.NoOwner {
		return zns.FormatAddress(addr)
	}
	return addr.Hex()
}

func execute(action schema.Action) cli.ActionFunc {
	return func(c *cli.Context) error {
		req := zns.ExecuteRequest{Name: c.Args().Get(0), Action: action}
		if req.Name == "" {
			return cli.ShowSubcommandHelp(c)
		}
		if action == schema.ActionTransfer {
			if req.Target = c.Args().Get(1); req.Target == "" {
				return cli.ShowSubcommandHelp(c)
			}
			yes := c.Bool("yes")
			req.Confirm = func(_ context.Context, prompt string) bool {
				return yes || ask(prompt)
			}
		}

		s, err := connected(c)
		if err != nil {
			return err
		}
		defer s.Close()

		out, err := s.Workflow().Execute(c.Context, req)
		printJSON(out)
		if errors.Is(err, schema.ErrTimedOut) {
			fmt.Fprintf(os.Stderr, "still pending, check later with: zns tx %s\n", out.LastHash().Hex())
		}
		return err
	}
}

func txStatus(c *cli.Context) error {
	raw := c.Args().First()
	if raw == "" {
		return cli.ShowSubcommandHelp(c)
	}
	s, err := connected(c)
	if err != nil {
		return err
	}
	defer s.Close()

	tx, err := s.Workflow().TxStatus(c.Context, common.HexToHash(raw))
	if err != nil {
		return err
	}
	printJSON(tx)
	return nil
}

func ask(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func printJSON(v interface{}) {
	by, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Println(string(by))
}
