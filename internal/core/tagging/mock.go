package tagging

import (
	"context"
	"sync/atomic"
)

// MockStore is a test implementation of Store.
// Use in unit tests to avoid database dependencies. Call counters let tests
// assert that pure paths never touch the store.
type MockStore struct {
	GetTaggingSettingsFunc func(ctx context.Context, farmID string) (*Settings, error)
	IncrementSequenceFunc  func(ctx context.Context, farmID string) (int64, error)
	TagExistsFunc          func(ctx context.Context, farmID, candidate string) (bool, error)

	settingsCalls  atomic.Int64
	incrementCalls atomic.Int64
	existsCalls    atomic.Int64
}

// GetTaggingSettings implements SettingsProvider.
func (m *MockStore) GetTaggingSettings(ctx context.Context, farmID string) (*Settings, error) {
	m.settingsCalls.Add(1)
	if m.GetTaggingSettingsFunc != nil {
		return m.GetTaggingSettingsFunc(ctx, farmID)
	}
	// Default: sequential settings with the default prefix
	return &Settings{FarmID: farmID, NumberingSystem: SystemSequential, NextNumber: 1}, nil
}

// IncrementSequence implements SequenceCounter.
func (m *MockStore) IncrementSequence(ctx context.Context, farmID string) (int64, error) {
	n := m.incrementCalls.Add(1)
	if m.IncrementSequenceFunc != nil {
		return m.IncrementSequenceFunc(ctx, farmID)
	}
	return n, nil
}

// TagExists implements TagRegistry.
func (m *MockStore) TagExists(ctx context.Context, farmID, candidate string) (bool, error) {
	m.existsCalls.Add(1)
	if m.TagExistsFunc != nil {
		return m.TagExistsFunc(ctx, farmID, candidate)
	}
	return false, nil
}

// SettingsCalls returns how many times GetTaggingSettings was called.
func (m *MockStore) SettingsCalls() int64 { return m.settingsCalls.Load() }

// IncrementCalls returns how many times IncrementSequence was called.
func (m *MockStore) IncrementCalls() int64 { return m.incrementCalls.Load() }

// ExistsCalls returns how many times TagExists was called.
func (m *MockStore) ExistsCalls() int64 { return m.existsCalls.Load() }

// Ensure compile-time interface compliance.
var _ Store = (*MockStore)(nil)
