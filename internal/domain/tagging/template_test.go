package tagging

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"herdbook/internal/core/tagging"
)

var placeholderPattern = regexp.MustCompile(`\{[^}]+\}`)

func templateInput(seq int64, gctx *tagging.GenerationContext) TemplateInput {
	s := tagging.Settings{
		TagPrefix: "COW",
		CustomAttributes: []tagging.AttributeDefinition{
			{Name: "Herd Group", Values: []string{"north", "south"}},
			{Name: "Colour", Values: nil},
		},
	}
	return TemplateInput{
		Settings: &s,
		Context:  gctx,
		Sequence: seq,
		Now:      time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC),
	}
}

func TestResolveTemplate_PrefixBreedNumber(t *testing.T) {
	gctx := &tagging.GenerationContext{AnimalData: map[string]any{"breed": "holstein"}}
	got := ResolveTemplate("{PREFIX}-{BREED:2}-{NUMBER:4}", templateInput(7, gctx))
	assert.Equal(t, "COW-HO-0007", got)
}

func TestResolveTemplate_Placeholders(t *testing.T) {
	gctx := &tagging.GenerationContext{
		AnimalSource: tagging.SourceNewbornCalf,
		AnimalData: map[string]any{
			"breed":             "Jersey",
			"gender":            "female",
			"production_status": "lactating",
		},
		CustomAttributes: []tagging.AttributeValue{{Name: "herd_group", Value: "east"}},
	}

	cases := []struct {
		format string
		want   string
	}{
		{"{NUMBER}", "42"},
		{"{NUMBER:6}", "000042"},
		{"{YEAR}{MONTH}{DAY}", "20260307"},
		{"{YEAR:2}-{MONTH:1}", "26-3"},
		{"{BREED}", "JE"},
		{"{BREED:4}", "JEXX"},
		{"{BREED_GROUP:1}", "J"},
		{"{GENDER}", "F"},
		{"{GENDER:3}", "FXX"},
		{"{STATUS}", "LA"},
		{"{PRODUCTION_STAGE:3}", "LAX"},
		{"{SOURCE}", "BC"},
		{"{SOURCE:1}", "B"},
		{"{HERD_GROUP}", "EAST"},
		{"{herd group:2}", "EA"},
		{"{prefix}-{number:3}", "COW-042"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ResolveTemplate(tc.format, templateInput(42, gctx)), tc.format)
	}
}

func TestResolveTemplate_CustomAttributeFallsBackToFirstAllowedValue(t *testing.T) {
	got := ResolveTemplate("{HERD_GROUP:3}", templateInput(1, nil))
	assert.Equal(t, "NOR", got)
}

func TestResolveTemplate_UnresolvedBecomesX(t *testing.T) {
	cases := map[string]string{
		"{UNKNOWN}":        "X",
		"{COLOUR}":         "X",
		"{BREED}":          "X",
		"{BREED:3}":        "XXX",
		"{NUMBER:abc}":     "X",
		"{NUMBER:0}":       "X",
		"{}":               "X",
		"A-{GENDER}-B":     "A-X-B",
		"{PREFIX}{SOURCE}": "COWX",
	}
	for format, want := range cases {
		assert.Equal(t, want, ResolveTemplate(format, templateInput(5, nil)), format)
	}
}

func TestResolveTemplate_ResolvedValuesAreNotResolvedAgain(t *testing.T) {
	s := tagging.Settings{TagPrefix: "{NUMBER}"}
	in := TemplateInput{Settings: &s, Sequence: 9, Now: time.Now()}
	// a prefix that looks like a placeholder is blanked by cleanup, never resolved to 9
	assert.Equal(t, "X-9", ResolveTemplate("{PREFIX}-{NUMBER}", in))
}

func TestResolveTemplate_UnbalancedBraces(t *testing.T) {
	in := templateInput(3, nil)
	assert.Equal(t, "COW-{NUMBER", ResolveTemplate("{PREFIX}-{NUMBER", in))
	assert.Equal(t, "{3", ResolveTemplate("{{NUMBER}", in))
	assert.Equal(t, "3}", ResolveTemplate("{NUMBER}}", in))
	assert.Equal(t, "X}", ResolveTemplate("{{{GENDER}}}", in))
}

func TestResolveTemplate_NeverLeavesPlaceholders(t *testing.T) {
	formats := []string{
		"{PREFIX}-{BREED:2}-{NUMBER:4}",
		"{A}{B}{C:9}{D:x}",
		"{YEAR}{MONTH:1}{DAY}-{STATUS:2}-{WHATEVER}",
		"{}{}{ }{::}",
		"{{{GENDER}}}",
		"plain",
	}
	for _, f := range formats {
		got := ResolveTemplate(f, templateInput(11, nil))
		assert.False(t, placeholderPattern.MatchString(got), "format %q produced %q", f, got)
	}
}

func TestResolveTemplate_OversizedWidthIsMalformed(t *testing.T) {
	gctx := &tagging.GenerationContext{AnimalData: map[string]any{"breed": "angus", "gender": "female"}}
	in := templateInput(7, gctx)

	assert.Equal(t, strings.Repeat("0", MaxTagLength-1)+"7", ResolveTemplate("{NUMBER:50}", in))
	assert.Equal(t, "X", ResolveTemplate("{NUMBER:51}", in))
	assert.Equal(t, "X", ResolveTemplate("{BREED:200000000}", in))
	assert.Equal(t, "COW-X-X", ResolveTemplate("{PREFIX}-{GENDER:999999999}-{HERD GROUP:9223372036854775807}", in))
}

func TestParseTemplate_Segments(t *testing.T) {
	segs := parseTemplate("AB{NUMBER:4}-{breed}")
	if assert.Len(t, segs, 4) {
		assert.Equal(t, "AB", segs[0].literal)
		assert.Equal(t, "NUMBER", segs[1].placeholder.name)
		assert.Equal(t, 4, segs[1].placeholder.width)
		assert.Equal(t, "-", segs[2].literal)
		assert.Equal(t, "BREED", segs[3].placeholder.name)
		assert.Zero(t, segs[3].placeholder.width)
	}
}

func TestFitWidth(t *testing.T) {
	assert.Equal(t, "HOL", fitWidth("holstein", 3))
	assert.Equal(t, "HOXX", fitWidth("ho", 4))
	assert.Equal(t, "XX", fitWidth("", 2))
}
