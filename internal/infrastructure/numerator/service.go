// Package numerator provides the PostgreSQL implementation of the farm-scoped
// tag sequence counter.
// This is the infrastructure layer - it implements core/numerator.Counter.
package numerator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	corenumerator "herdbook/internal/core/numerator"
)

// Querier interface for database operations.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type cachedRange struct {
	current int64
	max     int64
}

// Service hands out per-farm sequence numbers from tag_sequences.
// Every returned number is consumed: it is never handed out again, even if
// the caller discards the tag built from it.
type Service struct {
	querier Querier
	opts    corenumerator.Options

	// cacheMu protects ranges
	cacheMu sync.Mutex
	// ranges stores the reserved block per farm (Cached strategy only)
	ranges map[string]*cachedRange
}

// Ensure compile-time interface compliance.
var _ corenumerator.Counter = (*Service)(nil)

// New creates a counter service. A zero RangeSize uses the default.
func New(querier Querier, opts corenumerator.Options) *Service {
	if opts.RangeSize <= 0 {
		opts.RangeSize = corenumerator.DefaultRangeSize
	}
	return &Service{
		querier: querier,
		opts:    opts,
		ranges:  make(map[string]*cachedRange),
	}
}

// IncrementSequence returns the farm's next sequence number.
//
// Supports Strict (DB-level) and Cached (Memory-level) strategies.
func (s *Service) IncrementSequence(ctx context.Context, farmID string) (int64, error) {
	if s == nil {
		return 0, fmt.Errorf("numerator service is not initialized")
	}
	if farmID == "" {
		return 0, fmt.Errorf("farm id is required")
	}

	if s.opts.Strategy == corenumerator.StrategyCached {
		return s.nextCached(ctx, farmID)
	}
	return s.nextStrict(ctx, farmID)
}

// nextStrict fetches the next number directly from DB using UPSERT + RETURNING.
func (s *Service) nextStrict(ctx context.Context, farmID string) (int64, error) {
	var num int64
	err := s.querier.QueryRow(ctx, `
        INSERT INTO tag_sequences (farm_id, current_val)
        VALUES ($1, 1)
        ON CONFLICT (farm_id) DO UPDATE SET current_val = tag_sequences.current_val + 1
        RETURNING current_val
	`, farmID).Scan(&num)
	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// nextCached takes the next number from memory, reserving a new block when
// the current one is used up.
func (s *Service) nextCached(ctx context.Context, farmID string) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[farmID]
	if !exists {
		rng = &cachedRange{}
		s.ranges[farmID] = rng
	}

	if rng.current >= rng.max {
		size := s.opts.RangeSize
		var newMax int64

		err := s.querier.QueryRow(ctx, `
            INSERT INTO tag_sequences (farm_id, current_val)
            VALUES ($1, $2)
            ON CONFLICT (farm_id) DO UPDATE SET current_val = tag_sequences.current_val + $2
            RETURNING current_val
		`, farmID, size).Scan(&newMax)
		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// The block is (newMax-size, newMax].
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNext moves the farm's counter forward so the next number is at least
// value. It never moves the counter back: a number that was handed out once
// stays consumed. Any reserved block for the farm is dropped.
func (s *Service) SetNext(ctx context.Context, farmID string, value int64) error {
	if value < 1 {
		return fmt.Errorf("next number must be positive, got %d", value)
	}

	var result int64
	err := s.querier.QueryRow(ctx, `
		INSERT INTO tag_sequences (farm_id, current_val)
		VALUES ($1, $2)
		ON CONFLICT (farm_id) DO UPDATE SET current_val = GREATEST(tag_sequences.current_val, $2)
		RETURNING current_val
	`, farmID, value-1).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, farmID)
	s.cacheMu.Unlock()

	if err != nil {
		return fmt.Errorf("set next number: %w", err)
	}
	return nil
}
