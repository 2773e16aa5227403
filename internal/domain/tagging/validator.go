package tagging

import (
	"fmt"
	"regexp"

	"herdbook/internal/core/tagging"
)

// MaxTagLength is the longest tag the validator accepts.
const MaxTagLength = 50

var tagCharset = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateFormat runs the structural checks and, for barcode settings, the
// symbology checks. It does not evaluate the farm's CEL rule.
func ValidateFormat(candidate string, s *tagging.Settings) tagging.GeneratedTag {
	var problems []string

	if candidate == "" {
		problems = append(problems, "tag is empty")
	}
	if len(candidate) > MaxTagLength {
		problems = append(problems, fmt.Sprintf("tag is longer than %d characters", MaxTagLength))
	}
	if candidate != "" && !tagCharset.MatchString(candidate) {
		problems = append(problems, "tag may only contain letters, digits, '-' and '_'")
	}

	if s != nil && s.NumberingSystem == tagging.SystemBarcode {
		problems = append(problems, symbologyProblems(candidate, s.BarcodeType)...)
	}

	return tagging.GeneratedTag{
		Tag:     candidate,
		IsValid: len(problems) == 0,
		Errors:  problems,
	}
}

func symbologyProblems(candidate string, bt tagging.BarcodeType) []string {
	switch bt {
	case tagging.BarcodeEAN13:
		if len(candidate) != 13 || !isDigits(candidate) {
			return []string{"EAN-13 tag must be exactly 13 digits"}
		}
	case tagging.BarcodeUPC:
		if len(candidate) != 12 || !isDigits(candidate) {
			return []string{"UPC-A tag must be exactly 12 digits"}
		}
	case tagging.BarcodeCode39:
		if !isCode39(candidate) {
			return []string{"Code 39 tag contains characters outside the Code 39 charset"}
		}
	}
	return nil
}

// Validator checks candidates before the uniqueness lookup.
type Validator struct {
	rules *RuleCache
}

// NewValidator creates a validator with its own CEL rule cache.
func NewValidator() *Validator {
	return &Validator{rules: NewRuleCache()}
}

// Validate runs ValidateFormat and then the farm's TagRule when the format
// checks pass. The error is non-nil only when the rule itself is broken.
func (v *Validator) Validate(candidate string, s *tagging.Settings) (tagging.GeneratedTag, error) {
	res := ValidateFormat(candidate, s)
	if !res.IsValid || s == nil || s.TagRule == "" {
		return res, nil
	}

	ok, err := v.rules.Eval(s.TagRule, RuleInput{
		Tag:    candidate,
		System: string(s.NumberingSystem),
		Prefix: s.TagPrefix,
	})
	if err != nil {
		return res, err
	}
	if !ok {
		res.IsValid = false
		res.Errors = append(res.Errors, "tag rejected by farm tag rule")
	}
	return res, nil
}

// CompileRule reports whether expr is a usable tag rule. An empty rule is.
func (v *Validator) CompileRule(expr string) error {
	if expr == "" {
		return nil
	}
	return v.rules.Compile(expr)
}
