package doctor

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedRepository keeps recently read doctors in an expiring LRU keyed by id
// and by external id. The dashboard resolves the signed-in doctor on every
// request, so external-id lookups dominate. Entries live at most ttl, which
// bounds how long a change made through another process stays invisible here.
//
// Writes go to the underlying repository first and then evict. A read that
// overlapped a write does not populate the cache, so a stale row loaded
// before the write committed cannot be stored after the eviction.
type CachedRepository struct {
	Repository
	byID       *expirable.LRU[string, Doctor]
	byExternal *expirable.LRU[string, string] // external id -> id

	mu     sync.Mutex
	writes uint64
}

func NewCachedRepository(next Repository, size int, ttl time.Duration) *CachedRepository {
	return &CachedRepository{
		Repository: next,
		byID:       expirable.NewLRU[string, Doctor](size, nil, ttl),
		byExternal: expirable.NewLRU[string, string](size, nil, ttl),
	}
}

func (c *CachedRepository) GetByID(ctx context.Context, id string) (*Doctor, error) {
	if d, ok := c.byID.Get(id); ok {
		return clone(d), nil
	}
	gen := c.generation()
	d, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(gen, *d)
	return d, nil
}

func (c *CachedRepository) GetByExternalID(ctx context.Context, externalID string) (*Doctor, error) {
	if id, ok := c.byExternal.Get(externalID); ok {
		if d, ok := c.byID.Get(id); ok {
			return clone(d), nil
		}
	}
	gen := c.generation()
	d, err := c.Repository.GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	c.store(gen, *d)
	return d, nil
}

func (c *CachedRepository) Update(ctx context.Context, id string, u Update) (*Doctor, error) {
	d, err := c.Repository.Update(ctx, id, u)
	c.invalidate(id)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	err := c.Repository.Delete(ctx, id)
	c.invalidate(id)
	return err
}

func (c *CachedRepository) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// store caches d only when no write finished since gen was taken.
func (c *CachedRepository) store(gen uint64, d Doctor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writes != gen {
		return
	}
	c.byID.Add(d.ID, *clone(d))
	if d.ExternalID != "" {
		c.byExternal.Add(d.ExternalID, d.ID)
	}
}

func (c *CachedRepository) invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if d, ok := c.byID.Peek(id); ok && d.ExternalID != "" {
		c.byExternal.Remove(d.ExternalID)
	}
	c.byID.Remove(id)
}

// clone detaches the slices so callers cannot mutate cached entries.
func clone(d Doctor) *Doctor {
	d.Languages = append([]string(nil), d.Languages...)
	d.Availability = append([]string(nil), d.Availability...)
	return &d
}
