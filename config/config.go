package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	zcommon "github.com/everFinance/zns/common"
	"github.com/everFinance/zns/schema"
	"github.com/go-co-op/gocron"
	"github.com/tidwall/gjson"
)

var log = zcommon.NewLog("config")

// Zircuit Garfield testnet deployment
const (
	DefaultChainID     = 48898
	DefaultChainName   = "Zircuit Garfield Testnet"
	DefaultRpcUrl      = "https://garfield-testnet.zircuit.com"
	DefaultExplorerUrl = "https://explorer.garfield-testnet.zircuit.com"

	DefaultRegistry = "0x8795527c9ED6A4803e0F7d3552973E8C45dee38D"
	DefaultToken    = "0x3a7BabED31AA299a7B5A4964DAEdd4Bf1552Bf1a"
)

func DefaultNetwork() schema.NetworkDescriptor {
	return schema.NetworkDescriptor{
		ChainID:   DefaultChainID,
		ChainName: DefaultChainName,
		NativeCurrency: schema.NativeCurrency{
			Name:     "ETH",
			Symbol:   "ETH",
			Decimals: 18,
		},
		RpcUrls:           []string{DefaultRpcUrl},
		BlockExplorerUrls: []string{DefaultExplorerUrl},
	}
}

func DefaultContracts() schema.Contracts {
	return schema.Contracts{
		DomainRegistry: common.HexToAddress(DefaultRegistry),
		PaymentToken:   common.HexToAddress(DefaultToken),
	}
}

// Config is the target network, the contract pair and the rate limit
// whitelist. When it was loaded from a file the whitelist is re-read
// periodically; network and contracts are fixed for the process lifetime.
type Config struct {
	path      string
	Network   schema.NetworkDescriptor
	Contracts schema.Contracts

	locker      sync.RWMutex
	ipWhiteList map[string]struct{}
	scheduler   *gocron.Scheduler
}

// New loads path, or the defaults when path is empty.
func New(path string) (*Config, error) {
	c := &Config{
		path:        path,
		Network:     DefaultNetwork(),
		Contracts:   DefaultContracts(),
		ipWhiteList: make(map[string]struct{}),
		scheduler:   gocron.NewScheduler(time.UTC),
	}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if c.Network, err = ParseNetwork(data); err != nil {
		return nil, err
	}
	if c.Contracts, err = parseContracts(data, c.Contracts); err != nil {
		return nil, err
	}
	c.ipWhiteList = parseWhiteList(data)
	return c, nil
}

// SetContracts overrides single addresses, e.g. from flags. Empty strings
// keep the current value.
func (c *Config) SetContracts(registry, token string) error {
	if registry != "" {
		if !common.IsHexAddress(registry) {
			return fmt.Errorf("%w: registry %s", schema.ErrInvalidAddress, registry)
		}
		c.Contracts.DomainRegistry = common.HexToAddress(registry)
	}
	if token != "" {
		if !common.IsHexAddress(token) {
			return fmt.Errorf("%w: token %s", schema.ErrInvalidAddress, token)
		}
		c.Contracts.PaymentToken = common.HexToAddress(token)
	}
	return nil
}

func (c *Config) IsWhiteListed(originOrIp string) bool {
	c.locker.RLock()
	defer c.locker.RUnlock()
	_, ok := c.ipWhiteList[originOrIp]
	return ok
}

func (c *Config) Run() {
	if c.path == "" {
		return
	}
	go c.runJobs()
}

func (c *Config) Close() {
	c.scheduler.Stop()
}

// LoadNetwork reads only the network descriptor from a config file.
func LoadNetwork(path string) (schema.NetworkDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.NetworkDescriptor{}, err
	}
	return ParseNetwork(data)
}

// ParseNetwork accepts either a bare descriptor or one under "network".
// chainId may be a number or a 0x-prefixed hex string, as wallets send it.
func ParseNetwork(data []byte) (schema.NetworkDescriptor, error) {
	if !gjson.ValidBytes(data) {
		return schema.NetworkDescriptor{}, fmt.Errorf("invalid network json")
	}
	root := gjson.ParseBytes(data)
	if n := root.Get("network"); n.IsObject() {
		root = n
	}

	desc := DefaultNetwork()
	if id := root.Get("chainId"); id.Exists() {
		chainID, err := parseChainID(id)
		if err != nil {
			return desc, err
		}
		desc.ChainID = chainID
	}
	if v := root.Get("chainName"); v.Exists() {
		desc.ChainName = v.String()
	}
	if v := root.Get("nativeCurrency"); v.IsObject() {
		desc.NativeCurrency = schema.NativeCurrency{
			Name:     v.Get("name").String(),
			Symbol:   v.Get("symbol").String(),
			Decimals: int(v.Get("decimals").Int()),
		}
	}
	if v := root.Get("rpcUrls"); v.IsArray() {
		desc.RpcUrls = stringArray(v)
	}
	if v := root.Get("blockExplorerUrls"); v.IsArray() {
		desc.BlockExplorerUrls = stringArray(v)
	}
	if len(desc.RpcUrls) == 0 {
		return desc, fmt.Errorf("network %s has no rpcUrls", desc.HexChainID())
	}
	return desc, nil
}

func parseChainID(v gjson.Result) (uint64, error) {
	if v.Type == gjson.Number {
		return v.Uint(), nil
	}
	s := strings.TrimSpace(v.String())
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

func parseContracts(data []byte, def schema.Contracts) (schema.Contracts, error) {
	res := def
	for path, dst := range map[string]*common.Address{
		"contracts.domainRegistry": &res.DomainRegistry,
		"contracts.paymentToken":   &res.PaymentToken,
	} {
		v := gjson.GetBytes(data, path)
		if !v.Exists() {
			continue
		}
		if !common.IsHexAddress(v.String()) {
			return def, fmt.Errorf("%w: %s %s", schema.ErrInvalidAddress, path, v.String())
		}
		*dst = common.HexToAddress(v.String())
	}
	return res, nil
}

func parseWhiteList(data []byte) map[string]struct{} {
	res := make(map[string]struct{})
	for _, v := range gjson.GetBytes(data, "ipWhiteList").Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			res[s] = struct{}{}
		}
	}
	return res
}

func stringArray(v gjson.Result) []string {
	res := make([]string, 0)
	for _, item := range v.Array() {
		res = append(res, item.String())
	}
	return res
}
