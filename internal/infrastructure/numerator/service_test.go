package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "herdbook/internal/core/numerator"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates tag_sequences by recognising the three statement shapes.
type mockQuerier struct {
	mu      sync.Mutex
	values  map[string]int64
	queries int
	err     error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queries++
	if m.err != nil {
		return &mockRow{err: m.err}
	}

	farmID := args[0].(string)
	switch {
	case strings.Contains(sql, "current_val + $2"):
		m.values[farmID] += args[1].(int64)
	case strings.Contains(sql, "GREATEST(tag_sequences.current_val, $2)"):
		m.values[farmID] = max(m.values[farmID], args[1].(int64))
	default:
		m.values[farmID]++
	}
	return &mockRow{val: m.values[farmID]}
}

func TestIncrementSequence_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, corenumerator.DefaultOptions())
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := svc.IncrementSequence(ctx, "farm-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := svc.IncrementSequence(ctx, "farm-2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got, "counters are farm-scoped")
	assert.Equal(t, 4, q.queries)
}

func TestIncrementSequence_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10})
	ctx := context.Background()

	// 1. First call reserves 1..10
	got, err := svc.IncrementSequence(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	assert.Equal(t, int64(10), q.values["farm-1"])

	// 2. Served from memory
	for want := int64(2); want <= 10; want++ {
		got, err = svc.IncrementSequence(ctx, "farm-1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, 1, q.queries)

	// 3. Boundary reserves 11..20
	got, err = svc.IncrementSequence(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, int64(11), got)
	assert.Equal(t, int64(20), q.values["farm-1"])
	assert.Equal(t, 2, q.queries)
}

func TestSetNext_InvalidatesCache(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10})
	ctx := context.Background()

	_, err := svc.IncrementSequence(ctx, "farm-1")
	require.NoError(t, err)

	require.NoError(t, svc.SetNext(ctx, "farm-1", 100))
	assert.Equal(t, int64(99), q.values["farm-1"])

	got, err := svc.IncrementSequence(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got)

	assert.Error(t, svc.SetNext(ctx, "farm-1", 0))
}

func TestSetNext_NeverMovesBack(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, corenumerator.DefaultOptions())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.IncrementSequence(ctx, "farm-1")
		require.NoError(t, err)
	}

	// a stale settings read echoes next=2 back
	require.NoError(t, svc.SetNext(ctx, "farm-1", 2))
	got, err := svc.IncrementSequence(ctx, "farm-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), got)
}

func TestIncrementSequence_Errors(t *testing.T) {
	q := newMockQuerier()
	q.err = errors.New("connection reset")
	ctx := context.Background()

	_, err := New(q, corenumerator.DefaultOptions()).IncrementSequence(ctx, "farm-1")
	assert.ErrorIs(t, err, q.err)

	cached := New(q, corenumerator.Options{Strategy: corenumerator.StrategyCached})
	_, err = cached.IncrementSequence(ctx, "farm-1")
	assert.ErrorIs(t, err, q.err)

	_, err = New(newMockQuerier(), corenumerator.DefaultOptions()).IncrementSequence(ctx, "")
	assert.Error(t, err)
}

func TestIncrementSequence_ConcurrentCachedIsUnique(t *testing.T) {
	q := newMockQuerier()
	svc := New(q, corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 7})
	ctx := context.Background()

	const n = 200
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := svc.IncrementSequence(ctx, "farm-1")
			if err == nil {
				results <- v
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	for v := range results {
		assert.False(t, seen[v], "duplicate %d", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}
