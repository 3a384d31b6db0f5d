package rulecache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"tasnim.dev/vpc-topology/internal/aws/vpc"
)

// Fetcher loads the rules of one security group. Retries and timeouts are the
// fetcher's business; the cache never retries.
type Fetcher interface {
	ListSecurityGroupRules(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error)

func (f FetcherFunc) ListSecurityGroupRules(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
	return f(ctx, groupID)
}

// Recorder receives one lookup result per Get: hit, miss, shared or error.
type Recorder interface {
	IncRuleCacheLookup(result string)
}

// Cache memoizes security group rules per group id. Concurrent lookups for the
// same id share a single fetch. Failed fetches are not cached.
type Cache struct {
	fetch Fetcher
	rec   Recorder

	mu    sync.RWMutex
	rules map[string][]vpc.SecurityGroupRule
	gen   uint64
	group singleflight.Group
}

func New(fetch Fetcher, rec Recorder) *Cache {
	return &Cache{
		fetch: fetch,
		rec:   rec,
		rules: make(map[string][]vpc.SecurityGroupRule),
	}
}

// Get returns the rules for groupID, fetching them on first use. The fetch is
// shared with concurrent callers and is not cancelled with ctx; a caller whose
// ctx ends stops waiting and gets ctx.Err().
func (c *Cache) Get(ctx context.Context, groupID string) ([]vpc.SecurityGroupRule, error) {
	c.mu.RLock()
	rules, ok := c.rules[groupID]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		c.record("hit")
		return rules, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(groupID, func() (any, error) {
		rules, err := c.fetch.ListSecurityGroupRules(fetchCtx, groupID)
		if err != nil {
			return nil, err
		}
		if rules == nil {
			rules = []vpc.SecurityGroupRule{}
		}
		c.mu.Lock()
		// an Invalidate during the fetch makes this result stale
		if c.gen == gen {
			c.rules[groupID] = rules
		}
		c.mu.Unlock()
		return rules, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		c.record("error")
		return nil, ctx.Err()
	}
	switch {
	case res.Err != nil:
		c.record("error")
		return nil, res.Err
	case res.Shared:
		c.record("shared")
	default:
		c.record("miss")
	}
	return res.Val.([]vpc.SecurityGroupRule), nil
}

// Invalidate drops every cached entry. In-flight fetches complete but their
// results are not stored.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.rules = make(map[string][]vpc.SecurityGroupRule)
	c.gen++
	c.mu.Unlock()
}

// Len reports how many groups are cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rules)
}

func (c *Cache) record(result string) {
	if c.rec != nil {
		c.rec.IncRuleCacheLookup(result)
	}
}
