// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package resolver

import (
	"context"
	"sync"

	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
)

// MemorySource is a Source backed by a map, for dry runs and tests.
type MemorySource struct {
	mu     sync.Mutex
	values map[contract.EdgeKey]string
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{values: make(map[contract.EdgeKey]string)}
}

// Publish records value for key.
func (s *MemorySource) Publish(key contract.EdgeKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// SharedValue is part of the Source interface.
func (s *MemorySource) SharedValue(_ context.Context, key contract.EdgeKey) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", errors.NotFoundf("shared value %q", key)
	}
	return value, nil
}
