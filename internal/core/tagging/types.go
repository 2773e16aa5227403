// Package tagging provides domain contracts for animal tag number generation.
// The engine lives in internal/domain/tagging; persistence implementations
// live in the infrastructure layer.
package tagging

import (
	"fmt"
	"regexp"
	"strings"
)

// NumberingSystem selects the tag generation strategy.
type NumberingSystem string

const (
	SystemSequential NumberingSystem = "sequential"
	SystemCustom     NumberingSystem = "custom"
	SystemBarcode    NumberingSystem = "barcode"
)

// BarcodeType is a barcode symbology.
type BarcodeType string

const (
	BarcodeCode128 BarcodeType = "code128"
	BarcodeCode39  BarcodeType = "code39"
	BarcodeEAN13   BarcodeType = "ean13"
	BarcodeUPC     BarcodeType = "upc"
)

// AnimalSource describes how the animal joined the herd.
type AnimalSource string

const (
	SourceNewbornCalf     AnimalSource = "newborn_calf"
	SourcePurchasedAnimal AnimalSource = "purchased_animal"
)

// Defaults applied by Settings.Normalized.
const (
	DefaultPrefix        = "COW"
	DefaultSequenceWidth = 3
	DefaultBarcodeLength = 12
	DefaultCustomFormat  = "{PREFIX}-{NUMBER:4}"
)

// Limits enforced by Settings.Validate.
const (
	MaxPrefixLength  = 20
	MaxSequenceWidth = 12
	MaxBarcodeLength = 48
)

// prefixCharset is the tag charset; a prefix must be usable as-is in a tag.
var prefixCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidPrefix reports whether p is non-empty, at most MaxPrefixLength long
// and made only of letters, digits, '-' and '_'.
func ValidPrefix(p string) bool {
	return len(p) <= MaxPrefixLength && prefixCharset.MatchString(p)
}

// AttributeDefinition is a farm-defined attribute with its allowed values.
type AttributeDefinition struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// AttributeValue is a concrete attribute value supplied for one generation.
type AttributeValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Settings is the per-farm tagging configuration. It is owned by the
// surrounding application and read once per generation call.
type Settings struct {
	FarmID          string          `db:"farm_id" json:"farmId"`
	Method          string          `db:"method" json:"method"`
	NumberingSystem NumberingSystem `db:"numbering_system" json:"numberingSystem"`
	TagPrefix       string          `db:"tag_prefix" json:"tagPrefix"`
	CustomFormat    string          `db:"custom_format" json:"customFormat"`
	BarcodeType     BarcodeType     `db:"barcode_type" json:"barcodeType"`
	BarcodeLength   int             `db:"barcode_length" json:"barcodeLength"`
	PaddingZeros    bool            `db:"padding_zeros" json:"paddingZeros"`

	// SequenceWidth is the zero-pad width of sequential tags (COW-001 → 3).
	SequenceWidth     int   `db:"sequence_width" json:"sequenceWidth"`
	IncludeCheckDigit bool  `db:"include_check_digit" json:"includeCheckDigit"`
	NextNumber        int64 `db:"next_number" json:"nextNumber"`

	CustomAttributes []AttributeDefinition `db:"custom_attributes" json:"customAttributes"`

	// TagRule is an optional CEL expression a candidate must satisfy.
	TagRule string `db:"tag_rule" json:"tagRule,omitempty"`
}

// Normalized returns a copy with defaults filled in. The receiver is not modified.
func (s Settings) Normalized() Settings {
	if strings.TrimSpace(s.TagPrefix) == "" {
		s.TagPrefix = DefaultPrefix
	}
	if s.NumberingSystem == "" {
		s.NumberingSystem = SystemSequential
	}
	if s.BarcodeType == "" {
		s.BarcodeType = BarcodeCode128
	}
	if s.BarcodeLength <= 0 {
		s.BarcodeLength = DefaultBarcodeLength
	}
	if s.SequenceWidth <= 0 {
		s.SequenceWidth = DefaultSequenceWidth
	}
	if strings.TrimSpace(s.CustomFormat) == "" {
		s.CustomFormat = DefaultCustomFormat
	}
	s.NumberingSystem = NumberingSystem(strings.ToLower(string(s.NumberingSystem)))
	s.BarcodeType = BarcodeType(strings.ToLower(string(s.BarcodeType)))
	return s
}

// Validate checks the prefix, the width bounds and the enumerated fields.
func (s Settings) Validate() error {
	if !ValidPrefix(s.TagPrefix) {
		return fmt.Errorf("tag prefix %q must be 1-%d letters, digits, '-' or '_'", s.TagPrefix, MaxPrefixLength)
	}
	if s.SequenceWidth > MaxSequenceWidth {
		return fmt.Errorf("sequence width %d exceeds %d", s.SequenceWidth, MaxSequenceWidth)
	}
	if s.BarcodeLength > MaxBarcodeLength {
		return fmt.Errorf("barcode length %d exceeds %d", s.BarcodeLength, MaxBarcodeLength)
	}
	switch s.NumberingSystem {
	case SystemSequential, SystemCustom, SystemBarcode:
	default:
		return fmt.Errorf("unknown numbering system %q", s.NumberingSystem)
	}
	if s.NumberingSystem == SystemBarcode {
		switch s.BarcodeType {
		case BarcodeCode128, BarcodeCode39, BarcodeEAN13, BarcodeUPC:
		default:
			return fmt.Errorf("unknown barcode type %q", s.BarcodeType)
		}
	}
	return nil
}

// GenerationContext carries the animal-specific inputs of one generation call.
type GenerationContext struct {
	AnimalSource     AnimalSource     `json:"animalSource"`
	AnimalData       map[string]any   `json:"animalData"`
	CustomAttributes []AttributeValue `json:"customAttributes"`
}

// Field returns AnimalData[key] as a trimmed string, or "" when absent.
func (c *GenerationContext) Field(key string) string {
	if c == nil || c.AnimalData == nil {
		return ""
	}
	v, ok := c.AnimalData[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// GeneratedTag is a candidate tag with its validity verdict.
type GeneratedTag struct {
	Tag     string   `json:"tagNumber"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Outcome classifies how a tag was produced.
type Outcome string

const (
	// OutcomeGenerated: first candidate was valid and unique.
	OutcomeGenerated Outcome = "generated"
	// OutcomeRetried: an alternative candidate was valid and unique.
	OutcomeRetried Outcome = "retried"
	// OutcomeRetryExhausted: every alternative collided; timestamp fallback.
	OutcomeRetryExhausted Outcome = "retry_exhausted_fallback"
	// OutcomeFallback: the primary path failed; global timestamp fallback.
	OutcomeFallback Outcome = "fallback"
)

// IsFallback reports whether the outcome skipped the uniqueness guarantee.
func (o Outcome) IsFallback() bool {
	return o == OutcomeRetryExhausted || o == OutcomeFallback
}

// Result is the output of one generation call.
type Result struct {
	Tag      string          `json:"tagNumber"`
	Outcome  Outcome         `json:"outcome"`
	System   NumberingSystem `json:"numberingSystem,omitempty"`
	Sequence int64           `json:"sequence,omitempty"`
	Attempts int             `json:"attempts"`
}
