// Package cache is a key/value facade with TTLs and group invalidation over a
// pluggable Store. The facade never reports store failures: an unavailable
// store behaves like an empty one.
package cache

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/zippicks/critic-backend/internal/logging"
	"github.com/zippicks/critic-backend/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultGroup is used when a caller passes an empty group.
const DefaultGroup = "default"

// ErrMiss is returned by stores for absent or expired keys.
var ErrMiss = errors.New("cache: miss")

// Store is the platform cache underneath the facade. A ttl of zero means the
// entry does not expire.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Producer computes a value on a cache miss.
type Producer func(ctx context.Context) ([]byte, error)

// Cache is the capability handed to services.
type Cache interface {
	Get(ctx context.Context, key, group string) ([]byte, bool)
	Set(ctx context.Context, key, group string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key, group string)
	FlushGroup(ctx context.Context, group string)
	Remember(ctx context.Context, key, group string, ttl time.Duration, producer Producer) ([]byte, error)
}

// Facade implements Cache over a Store. Keys are namespaced as
// prefix:group:generation:key and a group flush moves the group to a new
// generation, orphaning its old keys until they expire.
type Facade struct {
	store      Store
	prefix     string
	defaultTTL time.Duration
	log        logging.Logger
	metrics    *metrics.Metrics
	flight     singleflight.Group
}

type Option func(*Facade)

func WithPrefix(prefix string) Option {
	return func(f *Facade) { f.prefix = prefix }
}

// WithDefaultTTL applies when Set or Remember receive a non-positive ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(f *Facade) { f.defaultTTL = ttl }
}

func WithLogger(log logging.Logger) Option {
	return func(f *Facade) { f.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Facade) { f.metrics = m }
}

func New(store Store, opts ...Option) *Facade {
	f := &Facade{
		store:      store,
		prefix:     "zp",
		defaultTTL: time.Hour,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Facade) Get(ctx context.Context, key, group string) ([]byte, bool) {
	group = normalizeGroup(group)
	full, ok := f.key(ctx, key, group)
	if !ok {
		return nil, false
	}
	value, err := f.store.Get(ctx, full)
	switch {
	case err == nil:
		f.metrics.CacheResult(group, "hit")
		return value, true
	case errors.Is(err, ErrMiss):
		f.metrics.CacheResult(group, "miss")
	default:
		f.storeFailed("get", group, key, err)
	}
	return nil, false
}

func (f *Facade) Set(ctx context.Context, key, group string, value []byte, ttl time.Duration) {
	group = normalizeGroup(group)
	full, ok := f.key(ctx, key, group)
	if !ok {
		return
	}
	if err := f.store.Set(ctx, full, value, f.ttl(ttl)); err != nil {
		f.storeFailed("set", group, key, err)
		return
	}
	f.metrics.CacheResult(group, "set")
}

func (f *Facade) Delete(ctx context.Context, key, group string) {
	group = normalizeGroup(group)
	full, ok := f.key(ctx, key, group)
	if !ok {
		return
	}
	if err := f.store.Delete(ctx, full); err != nil && !errors.Is(err, ErrMiss) {
		f.storeFailed("delete", group, key, err)
	}
}

// FlushGroup invalidates every key in group.
func (f *Facade) FlushGroup(ctx context.Context, group string) {
	group = normalizeGroup(group)
	if err := f.store.Set(ctx, f.generationKey(group), newGeneration(), 0); err != nil {
		f.storeFailed("flush", group, "", err)
		return
	}
	f.metrics.CacheResult(group, "flush")
	f.log.Debug("cache group flushed", "group", group)
}

// Remember returns the cached value for key or runs producer, caches its
// result and returns it. Concurrent callers in this process share one
// producer run; callers in other processes may still race, which is harmless.
// Producer errors are returned and nothing is cached. The shared run does not
// see cancellation of the caller that started it.
func (f *Facade) Remember(ctx context.Context, key, group string, ttl time.Duration, producer Producer) ([]byte, error) {
	if value, ok := f.Get(ctx, key, group); ok {
		return value, nil
	}

	flightKey := normalizeGroup(group) + "\x00" + key
	shared := context.WithoutCancel(ctx)
	v, err, _ := f.flight.Do(flightKey, func() (interface{}, error) {
		value, err := producer(shared)
		if err != nil {
			return nil, err
		}
		f.Set(shared, key, group, value, ttl)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// key resolves the physical key. It fails only if the generation cannot be
// read, in which case the caller treats the operation as a miss.
func (f *Facade) key(ctx context.Context, key, group string) (string, bool) {
	gen, err := f.store.Get(ctx, f.generationKey(group))
	if errors.Is(err, ErrMiss) {
		gen = newGeneration()
		if err := f.store.Set(ctx, f.generationKey(group), gen, 0); err != nil {
			f.storeFailed("generation", group, key, err)
			return "", false
		}
	} else if err != nil {
		f.storeFailed("generation", group, key, err)
		return "", false
	}
	return f.prefix + ":" + group + ":" + string(gen) + ":" + key, true
}

func (f *Facade) generationKey(group string) string {
	return f.prefix + ":gen:" + group
}

func (f *Facade) ttl(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return f.defaultTTL
	}
	return ttl
}

func (f *Facade) storeFailed(op, group, key string, err error) {
	f.metrics.CacheResult(group, "error")
	f.log.Warning("cache store unavailable, treating as miss",
		"operation", "cache."+op, "group", group, "key", key, "error", err)
}

func normalizeGroup(group string) string {
	if group == "" {
		return DefaultGroup
	}
	return group
}

var generationSeq atomic.Uint64

func newGeneration() []byte {
	now := strconv.FormatInt(time.Now().UnixNano(), 36)
	return []byte(now + "." + strconv.FormatUint(generationSeq.Add(1), 36))
}

// Nop is a Cache that stores nothing; Remember always runs the producer.
type Nop struct{}

func (Nop) Get(context.Context, string, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, string, []byte, time.Duration) {}
func (Nop) Delete(context.Context, string, string) {}
func (Nop) FlushGroup(context.Context, string) {}

func (Nop) Remember(ctx context.Context, _, _ string, _ time.Duration, producer Producer) ([]byte, error) {
	return producer(ctx)
}
