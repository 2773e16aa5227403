// Package tagging implements the animal tag number engine: abbreviation
// tables, checksum encoders, the template resolver, the barcode formatter,
// the validator and the uniqueness/retry orchestrator.
package tagging

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"herdbook/internal/core/apperror"
	"herdbook/internal/core/tagging"
)

var tracer = otel.Tracer("herdbook/tagging")

// MaxAlternatives bounds the retry loop after a uniqueness conflict.
const MaxAlternatives = 10

// Generator orchestrates candidate generation, validation, the uniqueness
// check and the fallbacks. It holds no per-farm state and is safe for
// concurrent use.
type Generator struct {
	store     tagging.Store
	validator *Validator
	observer  Observer
	now       func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithObserver sets the event observer.
func WithObserver(o Observer) Option {
	return func(g *Generator) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithClock overrides time.Now (date placeholders and fallbacks).
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// WithValidator replaces the default validator.
func WithValidator(v *Validator) Option {
	return func(g *Generator) {
		if v != nil {
			g.validator = v
		}
	}
}

// NewGenerator creates a generator backed by store.
func NewGenerator(store tagging.Store, opts ...Option) *Generator {
	g := &Generator{
		store:     store,
		validator: NewValidator(),
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a tag for the farm. It never fails: when the primary path
// errors (or panics) the result is a timestamp-based fallback tag.
func (g *Generator) Generate(ctx context.Context, farmID string, gctx *tagging.GenerationContext) tagging.Result {
	ctx, span := tracer.Start(ctx, "tagging.generate",
		trace.WithAttributes(attribute.String("farm.id", farmID)))
	defer span.End()

	start := g.now()
	res, prefix, err := g.safeGenerate(ctx, farmID, gctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "primary generation failed")
		res = g.globalFallback(ctx, farmID, prefix)
	}

	span.SetAttributes(
		attribute.String("tag.system", string(res.System)),
		attribute.String("tag.outcome", string(res.Outcome)),
		attribute.Int("tag.attempts", res.Attempts),
	)
	g.observer.Observe(ctx, Event{
		FarmID:   farmID,
		System:   res.System,
		Outcome:  res.Outcome,
		Tag:      res.Tag,
		Attempts: res.Attempts,
		Duration: g.now().Sub(start),
		Err:      err,
	})
	return res
}

// TryGenerate runs the primary path only and reports its error instead of
// falling back globally. Retry exhaustion still yields a timestamp tag with
// OutcomeRetryExhausted.
func (g *Generator) TryGenerate(ctx context.Context, farmID string, gctx *tagging.GenerationContext) (tagging.Result, error) {
	res, _, err := g.safeGenerate(ctx, farmID, gctx)
	return res, err
}

// safeGenerate converts a panic anywhere in the primary path into a
// GenerationFailure. prefix is the best prefix known when it failed.
func (g *Generator) safeGenerate(ctx context.Context, farmID string, gctx *tagging.GenerationContext) (res tagging.Result, prefix string, err error) {
	prefix = tagging.DefaultPrefix
	defer func() {
		if r := recover(); r != nil {
			err = apperror.NewTagGenerationFailure("tag generation panicked", fmt.Errorf("panic: %v", r))
		}
	}()
	return g.generate(ctx, farmID, gctx, &prefix)
}

func (g *Generator) generate(ctx context.Context, farmID string, gctx *tagging.GenerationContext, prefix *string) (tagging.Result, string, error) {
	raw, err := g.store.GetTaggingSettings(ctx, farmID)
	if err != nil {
		return tagging.Result{}, *prefix, wrapFailure("load tagging settings", err)
	}
	if raw == nil {
		return tagging.Result{}, *prefix, apperror.NewTagGenerationFailure("load tagging settings",
			apperror.NewNotFound("tagging settings", farmID))
	}
	settings := raw.Normalized()
	*prefix = settings.TagPrefix

	if err := settings.Validate(); err != nil {
		return tagging.Result{}, *prefix, apperror.NewTagGenerationFailure("invalid tagging settings", err)
	}
	strategy, err := StrategyFor(settings.NumberingSystem)
	if err != nil {
		return tagging.Result{}, *prefix, err
	}

	seq, err := g.store.IncrementSequence(ctx, farmID)
	if err != nil {
		return tagging.Result{}, *prefix, wrapFailure("increment sequence", err)
	}

	in := TemplateInput{Settings: &settings, Context: gctx, Sequence: seq, Now: g.now()}
	res := tagging.Result{System: settings.NumberingSystem, Sequence: seq, Attempts: 1}

	candidate, err := strategy.Candidate(in)
	if err != nil {
		return res, *prefix, wrapFailure("build candidate", err)
	}
	if err := g.validate(candidate, &settings); err != nil {
		return res, *prefix, err
	}

	exists, err := g.store.TagExists(ctx, farmID, candidate)
	if err != nil {
		return res, *prefix, wrapFailure("check tag uniqueness", err)
	}
	if !exists {
		res.Tag = candidate
		res.Outcome = tagging.OutcomeGenerated
		return res, *prefix, nil
	}

	for attempt := 1; attempt <= MaxAlternatives; attempt++ {
		res.Attempts = attempt + 1

		alt, err := strategy.Alternative(in, candidate, attempt)
		if err != nil {
			return res, *prefix, wrapFailure("build alternative", err)
		}
		if g.validate(alt, &settings) != nil {
			continue
		}

		exists, err := g.store.TagExists(ctx, farmID, alt)
		if err != nil {
			return res, *prefix, wrapFailure("check tag uniqueness", err)
		}
		if !exists {
			res.Tag = alt
			res.Outcome = tagging.OutcomeRetried
			return res, *prefix, nil
		}
	}

	res.Tag = timestampFallback(settings.TagPrefix, g.now())
	res.Outcome = tagging.OutcomeRetryExhausted
	return res, *prefix, nil
}

// validate returns a TagValidation error for an invalid candidate and a
// GenerationFailure for a broken tag rule.
func (g *Generator) validate(candidate string, s *tagging.Settings) error {
	verdict, err := g.validator.Validate(candidate, s)
	if err != nil {
		return apperror.NewTagGenerationFailure("evaluate tag rule", err)
	}
	if !verdict.IsValid {
		return apperror.NewTagValidation(candidate, verdict.Errors)
	}
	return nil
}

// CheckTag validates candidate under settings the way Generate would,
// including the farm tag rule. It does not check uniqueness.
func (g *Generator) CheckTag(candidate string, settings tagging.Settings) (tagging.GeneratedTag, error) {
	s := settings.Normalized()
	return g.validator.Validate(candidate, &s)
}

// CompileRule reports whether expr compiles as a farm tag rule.
func (g *Generator) CompileRule(expr string) error {
	return g.validator.CompileRule(expr)
}

// globalFallback produces prefix-<last 6 millis>, or prefix-<full millis>
// when the short form is taken. The long form is not checked.
func (g *Generator) globalFallback(ctx context.Context, farmID, prefix string) tagging.Result {
	now := g.now()
	res := tagging.Result{Tag: timestampFallback(prefix, now), Outcome: tagging.OutcomeFallback}

	exists, err := g.store.TagExists(ctx, farmID, res.Tag)
	if err == nil && exists {
		res.Tag = fullTimestampFallback(prefix, now)
	}
	return res
}

func wrapFailure(op string, err error) error {
	if apperror.IsTagGenerationFailure(err) || apperror.IsTagValidation(err) {
		return err
	}
	return apperror.NewTagGenerationFailure(op, err)
}
