// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolver

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
)

// DefaultCacheSize is the number of values a CachingSource keeps when no
// size is given.
const DefaultCacheSize = 256

// CachingSource keeps published values of another Source in an LRU cache.
// Missing values are not cached, so a producer that deploys later is seen
// on the next lookup.
type CachingSource struct {
	source Source
	cache  *lru.Cache[contract.EdgeKey, string]
}

// NewCachingSource wraps source with a cache of size entries.
func NewCachingSource(source Source, size int) (*CachingSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[contract.EdgeKey, string](size)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &CachingSource{source: source, cache: cache}, nil
}

// SharedValue is part of the Source interface.
func (s *CachingSource) SharedValue(ctx context.Context, key contract.EdgeKey) (string, error) {
	if value, ok := s.cache.Get(key); ok {
		return value, nil
	}
	value, err := s.source.SharedValue(ctx, key)
	if err != nil {
		return "", errors.Trace(err)
	}
	s.cache.Add(key, value)
	return value, nil
}

// Invalidate drops the cached value of key, e.g. after the producer
// redeployed.
func (s *CachingSource) Invalidate(key contract.EdgeKey) {
	s.cache.Remove(key)
}

// Len returns the number of cached values.
func (s *CachingSource) Len() int {
	return s.cache.Len()
}
