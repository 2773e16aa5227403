// Package numerator provides domain contracts for farm-scoped sequence counters.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"strings"

	"herdbook/internal/core/tagging"
)

// Strategy defines the counter allocation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Guarantees sequential numbers without gaps.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Much faster, but leaves gaps if the process restarts mid-range.
	StrategyCached
)

// DefaultRangeSize is the number of values reserved at once in Cached strategy.
const DefaultRangeSize int64 = 50

// String implements fmt.Stringer.
func (s Strategy) String() string {
	switch s {
	case StrategyCached:
		return "cached"
	default:
		return "strict"
	}
}

// ParseStrategy converts a config value to a Strategy.
func ParseStrategy(v string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "strict":
		return StrategyStrict, nil
	case "cached":
		return StrategyCached, nil
	}
	return StrategyStrict, fmt.Errorf("unknown counter strategy %q", v)
}

// Options configuration for counter allocation.
type Options struct {
	// Strategy to use for number allocation
	Strategy Strategy
	// RangeSize is the number of values to allocate at once in Cached strategy.
	RangeSize int64
}

// DefaultOptions returns standard options (Strict).
func DefaultOptions() Options {
	return Options{
		Strategy:  StrategyStrict,
		RangeSize: DefaultRangeSize,
	}
}

// Counter is a farm-scoped sequence counter.
type Counter interface {
	tagging.SequenceCounter

	// SetNext makes the next IncrementSequence call for the farm return at
	// least value (for migrations from another numbering scheme). The counter
	// only moves forward.
	SetNext(ctx context.Context, farmID string, value int64) error
}
