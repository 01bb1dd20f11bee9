package store

import (
	"fmt"
	"slices"

	"github.com/zjrosen/airdate/internal/cachemanager"
)

// Reader is the read half of a Store, handed to computed getters.
type Reader interface {
	Get(path string) any
}

// Getter derives a computed value. It must be pure over the paths it
// declares as dependencies: reads of undeclared paths are not tracked and
// will go stale.
type Getter func(r Reader) (any, error)

type computedDef struct {
	path   string
	getter Getter
	deps   []string
	dirty  bool
}

// cachedValue wraps a result so a nil value can still be cached.
type cachedValue struct {
	value any
}

// computedRegistry owns the computed definitions and their cache.
type computedRegistry struct {
	defs       map[string]*computedDef
	dependents map[string][]string // dependency path -> computed paths, registration order
	cache      cachemanager.CacheManager[string, cachedValue]
	resolving  map[string]bool
	notify     func(path string, newValue, oldValue any)
	logger     Logger
	computes   int
}

func newComputedRegistry(notify func(path string, newValue, oldValue any), logger Logger) *computedRegistry {
	return &computedRegistry{
		defs:       make(map[string]*computedDef),
		dependents: make(map[string][]string),
		cache:      cachemanager.NewInMemoryCacheManager[string, cachedValue]("computed", cachemanager.NoExpiration, 0),
		resolving:  make(map[string]bool),
		notify:     notify,
		logger:     logger,
	}
}

func (c *computedRegistry) has(path string) bool {
	_, ok := c.defs[path]
	return ok
}

func (c *computedRegistry) register(path string, getter Getter, deps []string) error {
	if c.has(path) {
		return fmt.Errorf("register computed %q: %w", path, ErrPathExists)
	}

	def := &computedDef{
		path:   path,
		getter: getter,
		deps:   slices.Compact(slices.Sorted(slices.Values(deps))),
		dirty:  true,
	}
	c.defs[path] = def
	for _, dep := range def.deps {
		c.dependents[dep] = append(c.dependents[dep], path)
	}
	return nil
}

// resolve returns the cached value when clean, otherwise recomputes.
// A failing getter yields nil and leaves the path dirty so the next read
// retries.
func (c *computedRegistry) resolve(path string, r Reader) any {
	def, ok := c.defs[path]
	if !ok {
		return nil
	}

	if !def.dirty {
		if cached, ok := c.cache.Get(path); ok {
			return cached.value
		}
	}

	if c.resolving[path] {
		c.logger.Error("computed dependency cycle", "path", path)
		return nil
	}
	c.resolving[path] = true
	defer delete(c.resolving, path)

	value, err := c.call(def, r)
	if err != nil {
		cerr := &ComputationError{Path: path, Err: err}
		c.logger.Error("computed getter failed", "path", path, "error", cerr.Error())
		return nil
	}

	c.computes++
	c.cache.Set(path, cachedValue{value: value}, cachemanager.NoExpiration)
	def.dirty = false
	return value
}

func (c *computedRegistry) call(def *computedDef, r Reader) (value any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			value, err = nil, recoveredError(rec)
		}
	}()
	return def.getter(r)
}

// invalidate marks every computed path depending on any of changed dirty,
// following computed-on-computed dependencies, and notifies each one once
// with (nil, previous cached value). The cache itself is left in place
// until the next resolve.
func (c *computedRegistry) invalidate(changed ...string) {
	dirtied := c.markDirty(changed...)
	if len(dirtied) == 0 {
		return
	}
	previous, _ := c.cache.GetMultiple(dirtied)
	for _, path := range dirtied {
		c.notify(path, nil, previous[path].value)
	}
}

// markDirty flags the transitive dependents of changed and returns them in
// breadth-first order. Cycles are visited once.
func (c *computedRegistry) markDirty(changed ...string) []string {
	visited := make(map[string]bool)
	queue := slices.Clone(changed)
	var dirtied []string

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		for _, dependent := range c.dependents[p] {
			if visited[dependent] {
				continue
			}
			visited[dependent] = true

			c.defs[dependent].dirty = true
			dirtied = append(dirtied, dependent)
			queue = append(queue, dependent)
		}
	}
	return dirtied
}

func (c *computedRegistry) markAllDirty() {
	for _, def := range c.defs {
		def.dirty = true
	}
}

func (c *computedRegistry) info() ComputedInfo {
	info := ComputedInfo{Registered: len(c.defs), Cached: c.cache.Count()}
	for _, def := range c.defs {
		if def.dirty {
			info.Dirty++
		}
	}
	return info
}

func (c *computedRegistry) isDirty(path string) bool {
	def, ok := c.defs[path]
	return ok && def.dirty
}
