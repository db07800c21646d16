package zns

import (
	"encoding/json"
	"time"

	"github.com/everFinance/zns/cache"
	"github.com/everFinance/zns/schema"
)

const DefaultCacheTTL = 15 * time.Second

// ResolveCache holds display lookups only. The workflow's own eligibility
// checks always read the registry directly.
type ResolveCache struct {
	localCache *cache.Cache
}

func NewResolveCache(ttl time.Duration) (*ResolveCache, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c, err := cache.NewLocalCache(ttl)
	if err != nil {
		return nil, err
	}
	return &ResolveCache{localCache: c}, nil
}

func cacheKey(chainID uint64, domain string) string {
	return schema.HexChainID(chainID) + "/" + domain
}

func (c *ResolveCache) Get(chainID uint64, domain string) (*schema.DomainQueryResult, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.localCache.Cache.Get(cacheKey(chainID, domain))
	if err != nil {
		return nil, false
	}
	res := &schema.DomainQueryResult{}
	if err := json.Unmarshal(data, res); err != nil {
		return nil, false
	}
	return res, true
}

func (c *ResolveCache) Put(chainID uint64, res *schema.DomainQueryResult) {
	if c == nil || res == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.localCache.Cache.Set(cacheKey(chainID, res.Name), data); err != nil {
		log.Warn("cache domain result failed", "err", err, "domain", res.Name)
	}
}

func (c *ResolveCache) Invalidate(chainID uint64, domain string) {
	if c == nil {
		return
	}
	if err := c.localCache.Cache.Delete(cacheKey(chainID, domain)); err != nil {
		log.Warn("invalidate cached domain failed", "err", err, "domain", domain)
	}
}
