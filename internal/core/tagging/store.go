package tagging

import (
	"context"
)

// SettingsProvider loads the tagging settings of a farm.
// Implementations return an apperror NotFound when the farm has none.
type SettingsProvider interface {
	GetTaggingSettings(ctx context.Context, farmID string) (*Settings, error)
}

// SequenceCounter is the farm-scoped atomic counter.
//
// IncrementSequence must be a single atomic operation at the store: two
// concurrent calls for the same farm never observe the same value, and every
// call consumes its value permanently even if the caller discards it.
type SequenceCounter interface {
	IncrementSequence(ctx context.Context, farmID string) (int64, error)
}

// TagRegistry answers whether a tag is already used by an active animal of the farm.
type TagRegistry interface {
	TagExists(ctx context.Context, farmID, candidate string) (bool, error)
}

// SettingsWriter saves a farm's tagging settings. A positive NextNumber
// also moves the farm's counter so the next generated tag uses it.
type SettingsWriter interface {
	SaveTaggingSettings(ctx context.Context, s Settings) error
}

// Store bundles the three operations the generator consumes.
type Store interface {
	SettingsProvider
	SequenceCounter
	TagRegistry
}
