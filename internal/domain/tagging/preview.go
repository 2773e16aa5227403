package tagging

import (
	"context"
	"fmt"
	"time"

	"herdbook/internal/core/apperror"
	"herdbook/internal/core/tagging"
)

// MaxPreviewCount caps how many tags a single preview may return.
const MaxPreviewCount = 100

// PreviewTagNumbers shows what the next count tags would look like, starting
// at startingNumber. It is pure: no counter increment, no uniqueness check,
// no store access, and the farm tag rule is not evaluated.
func PreviewTagNumbers(settings tagging.Settings, gctx *tagging.GenerationContext, startingNumber int64, count int, now time.Time) ([]string, error) {
	if count <= 0 {
		return []string{}, nil
	}
	if count > MaxPreviewCount {
		return nil, apperror.NewValidation(fmt.Sprintf("preview count must not exceed %d", MaxPreviewCount)).
			WithDetail("count", count)
	}
	if startingNumber < 0 {
		return nil, apperror.NewValidation("starting number must not be negative").
			WithDetail("startingNumber", startingNumber)
	}

	s := settings.Normalized()
	if err := s.Validate(); err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	strategy, err := StrategyFor(s.NumberingSystem)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		tag, err := strategy.Candidate(TemplateInput{
			Settings: &s,
			Context:  gctx,
			Sequence: startingNumber + int64(i),
			Now:      now,
		})
		if err != nil {
			return nil, apperror.NewValidation("cannot build preview").WithCause(err)
		}
		out = append(out, tag)
	}
	return out, nil
}

// Preview is PreviewTagNumbers with the generator's clock.
func (g *Generator) Preview(settings tagging.Settings, gctx *tagging.GenerationContext, startingNumber int64, count int) ([]string, error) {
	return PreviewTagNumbers(settings, gctx, startingNumber, count, g.now())
}

// PreviewForFarm loads the farm's settings and previews from its advisory
// NextNumber. It reads settings only; the counter and registry are untouched.
func (g *Generator) PreviewForFarm(ctx context.Context, farmID string, gctx *tagging.GenerationContext, count int) ([]string, error) {
	s, err := g.store.GetTaggingSettings(ctx, farmID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperror.NewNotFound("tagging settings", farmID)
	}
	start := s.NextNumber
	if start <= 0 {
		start = 1
	}
	return g.Preview(*s, gctx, start, count)
}
