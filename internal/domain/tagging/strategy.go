package tagging

import (
	"fmt"
	"strconv"

	"herdbook/internal/core/apperror"
	"herdbook/internal/core/tagging"
)

// Strategy produces candidates for one numbering system.
type Strategy interface {
	// System returns the numbering system this strategy implements.
	System() tagging.NumberingSystem

	// Candidate builds the primary candidate for in.Sequence.
	Candidate(in TemplateInput) (string, error)

	// Alternative builds the candidate for retry attempt (1-based) after
	// original collided. It must not draw a new counter value.
	Alternative(in TemplateInput, original string, attempt int) (string, error)
}

// StrategyFor returns the strategy of a numbering system.
func StrategyFor(system tagging.NumberingSystem) (Strategy, error) {
	switch system {
	case tagging.SystemSequential:
		return sequentialStrategy{}, nil
	case tagging.SystemCustom:
		return customStrategy{}, nil
	case tagging.SystemBarcode:
		return barcodeStrategy{}, nil
	}
	return nil, apperror.NewTagGenerationFailure(
		fmt.Sprintf("unknown numbering system %q", system), nil)
}

// FormatSequentialTag returns prefix + "-" + n zero-padded to width.
// A width of 0 leaves n unpadded; wider numbers are never truncated.
func FormatSequentialTag(prefix string, n int64, width int) string {
	if width <= 0 {
		return prefix + "-" + strconv.FormatInt(n, 10)
	}
	return fmt.Sprintf("%s-%0*d", prefix, width, n)
}

// --- sequential ---

type sequentialStrategy struct{}

func (sequentialStrategy) System() tagging.NumberingSystem { return tagging.SystemSequential }

func (sequentialStrategy) Candidate(in TemplateInput) (string, error) {
	return FormatSequentialTag(in.Settings.TagPrefix, in.Sequence, in.Settings.SequenceWidth), nil
}

// Alternative reuses the consumed number with an attempt offset.
func (s sequentialStrategy) Alternative(in TemplateInput, _ string, attempt int) (string, error) {
	in.Sequence += int64(attempt)
	return s.Candidate(in)
}

// --- custom template ---

type customStrategy struct{}

func (customStrategy) System() tagging.NumberingSystem { return tagging.SystemCustom }

func (customStrategy) Candidate(in TemplateInput) (string, error) {
	return ResolveTemplate(in.Settings.CustomFormat, in), nil
}

func (customStrategy) Alternative(_ TemplateInput, original string, attempt int) (string, error) {
	return original + "-" + strconv.Itoa(attempt), nil
}

// --- barcode ---

type barcodeStrategy struct{}

func (barcodeStrategy) System() tagging.NumberingSystem { return tagging.SystemBarcode }

func (barcodeStrategy) Candidate(in TemplateInput) (string, error) {
	s := in.Settings
	return FormatBarcode(BarcodeSpec{
		Prefix:            s.TagPrefix,
		Sequence:          in.Sequence,
		Type:              s.BarcodeType,
		Length:            s.BarcodeLength,
		PaddingZeros:      s.PaddingZeros,
		IncludeCheckDigit: s.IncludeCheckDigit,
	})
}

// Alternative perturbs the embedded sequence number so fixed-width
// symbologies keep their length and check digit.
func (b barcodeStrategy) Alternative(in TemplateInput, _ string, attempt int) (string, error) {
	in.Sequence += int64(attempt)
	return b.Candidate(in)
}
