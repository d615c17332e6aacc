// Package resolve turns the ad hoc remote -> cloud -> cache -> demo fallback
// chain into an ordered list of named steps. The orchestrator returns the
// first step that reports a hit; the final step is conventionally a
// synthesizer that always hits.
package resolve

import (
	"context"

	"github.com/rs/zerolog"
)

// Step is one resolver strategy. Fetch reports ok=false for a miss; a hit
// with an empty slice is still treated as a miss so later steps get a
// chance, matching the original "non-empty result wins" behavior.
type Step[T any] struct {
	Name  string
	Fetch func(ctx context.Context) ([]T, bool)
}

// First walks the steps in order and returns the first non-empty hit. When
// every step misses it returns nil.
func First[T any](ctx context.Context, log zerolog.Logger, steps ...Step[T]) []T {
	for _, step := range steps {
		items, ok := step.Fetch(ctx)
		if ok && len(items) > 0 {
			log.Debug().Str("step", step.Name).Int("count", len(items)).Msg("resolved")
			return items
		}
		log.Debug().Str("step", step.Name).Msg("miss")
	}
	return nil
}

// One is First for single-record lookups.
func One[T any](ctx context.Context, log zerolog.Logger, steps ...func(ctx context.Context) (*T, bool)) *T {
	for _, fetch := range steps {
		if item, ok := fetch(ctx); ok && item != nil {
			return item
		}
	}
	return nil
}
