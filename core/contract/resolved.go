// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import "time"

// Origin says where a resolved value came from.
type Origin string

const (
	// OriginShared values were published by the producing environment.
	OriginShared Origin = "shared"

	// OriginFallback values are the consumer's declared fallback, used
	// before the producer first deployed.
	OriginFallback Origin = "fallback"
)

// ResolvedValue is the deploy time value of a consumer edge.
type ResolvedValue struct {
	Key        EdgeKey   `yaml:"key" json:"key"`
	Value      string    `yaml:"value" json:"value"`
	Origin     Origin    `yaml:"origin" json:"origin"`
	ResolvedAt time.Time `yaml:"resolved-at" json:"resolved-at"`
}
