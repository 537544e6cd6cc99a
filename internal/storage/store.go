package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the persistent key-value capability that stands in for browser
// local storage. Values are opaque strings; callers serialise JSON.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	// SetTTL writes a value that disappears after ttl. A ttl <= 0 keeps it.
	SetTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes the value at key into out. A value that does not parse is
// treated as absent and the key is deleted.
func GetJSON(ctx context.Context, s Store, key string, out any) (bool, error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !found || raw == "" {
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		if delErr := s.Delete(ctx, key); delErr != nil {
			return false, fmt.Errorf("deleting corrupted %s: %w", key, delErr)
		}
		return false, &CorruptedError{Key: key, Cause: err}
	}

	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	return SetJSONTTL(ctx, s, key, v, 0)
}

// SetJSONTTL is SetJSON for values that should expire.
func SetJSONTTL(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.SetTTL(ctx, key, string(data), ttl); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// CorruptedError is returned by GetJSON after an unparseable value was removed.
// Callers normally log it and continue with an empty value.
type CorruptedError struct {
	Key   string
	Cause error
}

func (e *CorruptedError) Error() string {
	return fmt.Sprintf("corrupted value at %s: %v", e.Key, e.Cause)
}

func (e *CorruptedError) Unwrap() error {
	return e.Cause
}
