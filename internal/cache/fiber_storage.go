package cache

import (
	"context"
	"time"
)

// FiberStorage adapts a Cache to fiber.Storage so middleware state (the rate
// limiter's counters) lives in the same cache as everything else, under one
// group.
type FiberStorage struct {
	cache Cache
	group string
}

func NewFiberStorage(c Cache, group string) *FiberStorage {
	return &FiberStorage{cache: c, group: group}
}

// Get returns nil, nil for absent keys as fiber.Storage requires.
func (s *FiberStorage) Get(key string) ([]byte, error) {
	value, ok := s.cache.Get(context.Background(), key, s.group)
	if !ok {
		return nil, nil
	}
	return value, nil
}

func (s *FiberStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	s.cache.Set(context.Background(), key, s.group, val, exp)
	return nil
}

func (s *FiberStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	s.cache.Delete(context.Background(), key, s.group)
	return nil
}

// Reset flushes the whole group.
func (s *FiberStorage) Reset() error {
	s.cache.FlushGroup(context.Background(), s.group)
	return nil
}

func (s *FiberStorage) Close() error { return nil }
