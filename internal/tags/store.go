package tags

import (
	"encoding/json"
	"fmt"

	"github.com/patrickmn/go-cache"
)

// Sink publishes named current-state values to a downstream consumer.
type Sink interface {
	Publish(name string, value any) error
}

// Store keeps the latest value of every published tag in memory. It is the
// primary sink and backs the read side of the HTTP API. Tags represent
// current state only; there is no history and no expiry.
type Store struct {
	cache *cache.Cache
}

// NewStore creates an empty tag store.
func NewStore() *Store {
	return &Store{cache: cache.New(cache.NoExpiration, 0)}
}

// Publish stores the tag. Composite values are stored as their JSON string
// form, scalars as-is.
func (s *Store) Publish(name string, value any) error {
	v, err := encodeValue(value)
	if err != nil {
		return err
	}
	s.cache.Set(name, v, cache.NoExpiration)
	return nil
}

// Get returns the current value of a tag.
func (s *Store) Get(name string) (any, bool) {
	return s.cache.Get(name)
}

// Snapshot returns a copy of all current tag values.
func (s *Store) Snapshot() map[string]any {
	items := s.cache.Items()
	out := make(map[string]any, len(items))
	for name, item := range items {
		out[name] = item.Object
	}
	return out
}

// encodeValue serializes mapping, list and struct values to their JSON
// string form and passes scalars through untouched.
func encodeValue(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, int, int32, int64, float32, float64:
		return value, nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode tag value: %w", err)
		}
		return string(b), nil
	}
}
