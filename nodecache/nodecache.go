// Package nodecache provides a fixed-size, read-through LRU cache in front
// of any merkle.NodeStore, so that hot nodes near the root of a trie don't
// round-trip through the transaction on every access (spec.md §2 item 10).
package nodecache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/0xethsign/pathfinder/felt"
	"github.com/0xethsign/pathfinder/merkle"
)

// Store wraps an underlying merkle.NodeStore with an LRU cache of raw
// serialized node bytes, keyed by hash.
type Store struct {
	underlying merkle.NodeStore
	cache      *lru.Cache
}

// New returns a Store caching up to size entries. A size of zero disables
// caching and every Get/Insert simply passes through to underlying.
func New(underlying merkle.NodeStore, size int) (*Store, error) {
	if size <= 0 {
		return &Store{underlying: underlying}, nil
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Store{underlying: underlying, cache: cache}, nil
}

// Get implements merkle.NodeStore.
func (s *Store) Get(hash felt.Felt) ([]byte, error) {
	if s.cache != nil {
		if v, ok := s.cache.Get(hash); ok {
			return v.([]byte), nil
		}
	}

	raw, err := s.underlying.Get(hash)
	if err != nil {
		return nil, err
	}
	if raw != nil && s.cache != nil {
		s.cache.Add(hash, raw)
	}
	return raw, nil
}

// Insert implements merkle.NodeStore.
func (s *Store) Insert(hash felt.Felt, serialized []byte) error {
	if err := s.underlying.Insert(hash, serialized); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Add(hash, serialized)
	}
	return nil
}
