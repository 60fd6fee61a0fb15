// Package remotecache caches answers from remote services (cross-reference
// services, user directories) between builds. Entries persist as msgpack
// files and can be mirrored to a shared NATS JetStream key-value bucket.
package remotecache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"git.home.luguber.info/inful/docsetbuilder/internal/output"
)

// schemaVersion is bumped when the on-disk entry format changes.
const schemaVersion uint16 = 1

// Mirror is a shared store consulted on local misses and updated on Save.
type Mirror interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type entry[V any] struct {
	Value   V         `msgpack:"v"`
	Fetched time.Time `msgpack:"t"`
}

type diskPayload[V any] struct {
	Schema  uint16              `msgpack:"schema"`
	Entries map[string]entry[V] `msgpack:"entries"`
}

// Cache is a persistent key-value cache. It is safe for concurrent use.
type Cache[V any] struct {
	name   string
	path   string
	ttl    time.Duration
	mirror Mirror
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry[V]
	dirty   map[string]struct{}
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	ttl    time.Duration
	mirror Mirror
	now    func() time.Time
}

// WithTTL expires entries older than ttl. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option { return func(o *options) { o.ttl = ttl } }

// WithMirror attaches a shared mirror.
func WithMirror(m Mirror) Option { return func(o *options) { o.mirror = m } }

func withClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Open loads the cache called name from dir. An empty dir keeps the cache in
// memory. Unreadable or outdated files start an empty cache.
func Open[V any](name, dir string, opts ...Option) *Cache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	c := &Cache[V]{
		name:    name,
		ttl:     o.ttl,
		mirror:  o.mirror,
		now:     o.now,
		entries: make(map[string]entry[V]),
		dirty:   make(map[string]struct{}),
	}
	if dir != "" {
		c.path = filepath.Join(dir, name+".mp")
		c.load()
	}
	return c
}

func (c *Cache[V]) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to read remote cache", slog.String("cache", c.name), slog.String("error", err.Error()))
		}
		return
	}
	var payload diskPayload[V]
	if err := msgpack.Unmarshal(data, &payload); err != nil || payload.Schema != schemaVersion {
		slog.Debug("Discarding unreadable remote cache", slog.String("cache", c.name))
		return
	}
	if payload.Entries != nil {
		c.entries = payload.Entries
	}
}

// Name returns the cache name.
func (c *Cache[V]) Name() string { return c.name }

func (c *Cache[V]) fresh(e entry[V]) bool {
	return c.ttl <= 0 || c.now().Sub(e.Fetched) < c.ttl
}

// Get returns the cached value for key, consulting the mirror on a local miss.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.fresh(e) {
		return e.Value, true
	}

	var zero V
	if c.mirror == nil {
		return zero, false
	}
	data, ok, err := c.mirror.Get(ctx, c.mirrorKey(key))
	if err != nil {
		slog.Debug("Remote cache mirror lookup failed", slog.String("cache", c.name), slog.String("error", err.Error()))
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var remote entry[V]
	if err := msgpack.Unmarshal(data, &remote); err != nil || !c.fresh(remote) {
		return zero, false
	}
	c.mu.Lock()
	c.entries[key] = remote
	c.mu.Unlock()
	return remote.Value, true
}

// Put stores value under key.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{Value: value, Fetched: c.now()}
	c.dirty[key] = struct{}{}
}

// GetOrFetch returns the cached value or calls fetch and caches a found result.
func (c *Cache[V]) GetOrFetch(ctx context.Context, key string, fetch func(context.Context) (V, bool, error)) (V, bool, error) {
	if v, ok := c.Get(ctx, key); ok {
		return v, true, nil
	}
	v, ok, err := fetch(ctx)
	if err != nil || !ok {
		return v, ok, err
	}
	c.Put(key, v)
	return v, true, nil
}

// Len returns the number of entries.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache file and pushes changed entries to the mirror.
func (c *Cache[V]) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.path != "" {
		for key, e := range c.entries {
			if !c.fresh(e) {
				delete(c.entries, key)
			}
		}
		data, err := msgpack.Marshal(diskPayload[V]{Schema: schemaVersion, Entries: c.entries})
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %s cache: %w", c.name, err))
		} else if err := output.WriteFileAtomic(c.path, data); err != nil {
			errs = append(errs, fmt.Errorf("write %s cache: %w", c.name, err))
		}
	}

	if c.mirror != nil {
		for key := range c.dirty {
			data, err := msgpack.Marshal(c.entries[key])
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if err := c.mirror.Put(ctx, c.mirrorKey(key), data); err != nil {
				errs = append(errs, fmt.Errorf("mirror %s cache: %w", c.name, err))
				break
			}
		}
	}
	if len(errs) == 0 {
		c.dirty = make(map[string]struct{})
	}
	return errors.Join(errs...)
}

func (c *Cache[V]) mirrorKey(key string) string {
	return c.name + "." + encodeKey(key)
}
