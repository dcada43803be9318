// Package typed binds storage keys to Go types.
package typed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/notebox/pkg/core"
)

// Value wraps a core.Storage key to provide type-safe access.
// The stored representation is JSON.
type Value[T any] struct {
	storage core.Storage
	key     string
}

// NewValue creates a typed view of key inside storage.
func NewValue[T any](storage core.Storage, key string) *Value[T] {
	return &Value[T]{storage: storage, key: key}
}

// Key returns the bound storage key.
func (v *Value[T]) Key() string {
	return v.key
}

// Load reads and decodes the value.
// A missing key is reported as core.ErrNotFound.
func (v *Value[T]) Load(ctx context.Context) (T, error) {
	var out T

	data, err := v.storage.Get(ctx, v.key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to decode %s: %w", v.key, err)
	}
	return out, nil
}

// Encode marshals val without writing it.
func (v *Value[T]) Encode(val T) ([]byte, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", v.key, err)
	}
	return data, nil
}

// Save encodes val and overwrites the key.
// Nothing is written when encoding fails.
func (v *Value[T]) Save(ctx context.Context, val T) error {
	data, err := v.Encode(val)
	if err != nil {
		return err
	}
	return v.storage.Set(ctx, v.key, data)
}
