package permission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/frahmantamala/hospital-management/internal/core/metrics"
	"github.com/frahmantamala/hospital-management/internal/role"
	"golang.org/x/sync/singleflight"
)

// Loader reads a role from the registry. A nil role means the role does not exist.
type Loader interface {
	Get(ctx context.Context, name string) (*role.Role, error)
}

// Entry is the resolved view of one role.
type Entry struct {
	Name        string
	Scope       role.Scope
	Permissions map[string]struct{}
	Generation  uint64
	// Known is false when the registry had no such role.
	Known bool
}

func (e Entry) Has(key string) bool {
	_, ok := e.Permissions[key]
	return ok
}

// Cache memoizes role name to permission set for the whole process.
//
// Each role carries a generation that Invalidate bumps. A load records the generation it
// started under and its result is stored only if that generation is still current, so a
// slow read that raced a write is returned to its own caller but never cached.
type Cache struct {
	loader  Loader
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu          sync.Mutex
	entries     map[string]Entry
	generations map[string]uint64

	group singleflight.Group

	// hook for observing invalidations, used by the redis broadcaster
	onInvalidate func(roleName string)
}

func NewCache(loader Loader, m *metrics.Metrics, logger *slog.Logger) *Cache {
	return &Cache{
		loader:      loader,
		metrics:     m,
		logger:      logger,
		entries:     make(map[string]Entry),
		generations: make(map[string]uint64),
	}
}

// Resolve returns the cached entry or loads it through the registry.
func (c *Cache) Resolve(ctx context.Context, roleName string) (Entry, error) {
	c.mu.Lock()
	if entry, ok := c.entries[roleName]; ok {
		c.mu.Unlock()
		c.metrics.ObserveCacheLookup(metrics.LookupHit)
		return entry, nil
	}
	gen := c.generations[roleName]
	c.mu.Unlock()

	c.metrics.ObserveCacheLookup(metrics.LookupMiss)

	key := fmt.Sprintf("%s@%d", roleName, gen)
	loads := c.group.DoChan(key, func() (interface{}, error) {
		// shared by every caller on key; the registry applies its own storage deadline
		r, err := c.loader.Get(context.WithoutCancel(ctx), roleName)
		if err != nil {
			return Entry{}, err
		}
		entry := newEntry(roleName, r, gen)

		c.mu.Lock()
		if c.generations[roleName] == gen {
			c.entries[roleName] = entry
		}
		c.mu.Unlock()

		return entry, nil
	})

	select {
	case res := <-loads:
		if res.Err != nil {
			c.logger.Error("permission cache load failed", "role", roleName, "error", res.Err)
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

// Invalidate drops the entry and advances the generation. It is idempotent.
func (c *Cache) Invalidate(roleName string) {
	c.mu.Lock()
	c.generations[roleName]++
	delete(c.entries, roleName)
	hook := c.onInvalidate
	c.mu.Unlock()

	c.metrics.ObserveInvalidation("local")
	if hook != nil {
		hook(roleName)
	}
}

// invalidateRemote applies an invalidation received from another instance without echoing it.
func (c *Cache) invalidateRemote(roleName string) {
	c.mu.Lock()
	c.generations[roleName]++
	delete(c.entries, roleName)
	c.mu.Unlock()

	c.metrics.ObserveInvalidation("remote")
}

// Generation reports the current generation of roleName.
func (c *Cache) Generation(roleName string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[roleName]
}

// Len is the number of cached roles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) setInvalidationHook(hook func(roleName string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalidate = hook
}

func newEntry(name string, r *role.Role, gen uint64) Entry {
	entry := Entry{
		Name:        name,
		Scope:       role.ScopeBranch,
		Permissions: make(map[string]struct{}),
		Generation:  gen,
	}
	if r == nil {
		return entry
	}
	entry.Known = true
	entry.Scope = r.Scope
	for _, key := range r.Permissions {
		entry.Permissions[key] = struct{}{}
	}
	return entry
}
