package cache

import (
	"context"
	"time"

	"github.com/segmentio/encoding/json"
)

// GetJSON decodes a cached value. A value that no longer decodes into T is
// reported as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key, group string) (T, bool) {
	var out T
	raw, ok := c.Get(ctx, key, group)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// RememberJSON is Remember for values of type T.
func RememberJSON[T any](ctx context.Context, c Cache, key, group string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := GetJSON[T](ctx, c, key, group); ok {
		return v, nil
	}

	var produced T
	ran := false
	raw, err := c.Remember(ctx, key, group, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := producer(ctx)
		if err != nil {
			return nil, err
		}
		produced, ran = v, true
		return json.Marshal(v)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if ran {
		return produced, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return producer(ctx)
	}
	return out, nil
}
