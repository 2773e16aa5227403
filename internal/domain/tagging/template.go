package tagging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"herdbook/internal/core/tagging"
)

// unresolved replaces any placeholder that cannot be resolved.
const unresolved = "X"

// leftoverPlaceholder matches brace groups that survive resolution, either
// from literal text around unbalanced braces or from resolved values.
var leftoverPlaceholder = regexp.MustCompile(`\{[^}]+\}`)

// segment is either a literal run of text or a placeholder.
type segment struct {
	literal     string
	placeholder *placeholder
}

// placeholder is a parsed {NAME} or {NAME:width} token. A width above
// MaxTagLength could never validate and is treated as malformed.
type placeholder struct {
	name     string // upper-cased
	width    int    // 0 when absent
	badWidth bool
}

// parseTemplate tokenizes format once into literal and placeholder segments.
// A "{" with no closing "}" is literal text. When a "{" is followed by another
// "{" before the closing brace, the first one is literal.
func parseTemplate(format string) []segment {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(format); {
		if format[i] != '{' {
			lit.WriteByte(format[i])
			i++
			continue
		}
		end := strings.IndexByte(format[i+1:], '}')
		if end < 0 {
			lit.WriteString(format[i:])
			break
		}
		body := format[i+1 : i+1+end]
		if nested := strings.IndexByte(body, '{'); nested >= 0 {
			lit.WriteString(format[i : i+1+nested])
			i += 1 + nested
			continue
		}
		flush()
		segs = append(segs, segment{placeholder: parsePlaceholder(body)})
		i += end + 2
	}
	flush()
	return segs
}

func parsePlaceholder(body string) *placeholder {
	name, widthStr, hasWidth := strings.Cut(body, ":")
	p := &placeholder{name: strings.ToUpper(strings.TrimSpace(name))}
	if hasWidth {
		w, err := strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil || w <= 0 || w > MaxTagLength {
			p.badWidth = true
		} else {
			p.width = w
		}
	}
	return p
}

// TemplateInput is everything a template may refer to.
type TemplateInput struct {
	Settings *tagging.Settings
	Context  *tagging.GenerationContext
	Sequence int64
	Now      time.Time
}

// ResolveTemplate turns a custom format string into a literal tag.
// The result never contains a {...} placeholder: anything that cannot be
// resolved becomes "X".
func ResolveTemplate(format string, in TemplateInput) string {
	var b strings.Builder
	for _, seg := range parseTemplate(format) {
		if seg.placeholder == nil {
			b.WriteString(seg.literal)
			continue
		}
		b.WriteString(resolvePlaceholder(seg.placeholder, in))
	}
	return leftoverPlaceholder.ReplaceAllString(b.String(), unresolved)
}

func resolvePlaceholder(p *placeholder, in TemplateInput) string {
	if p.name == "" || p.badWidth {
		return unresolved
	}

	switch p.name {
	case "NUMBER":
		if p.width > 0 {
			return fmt.Sprintf("%0*d", p.width, in.Sequence)
		}
		return strconv.FormatInt(in.Sequence, 10)
	case "YEAR":
		if p.width == 2 {
			return fmt.Sprintf("%02d", in.Now.Year()%100)
		}
		return fmt.Sprintf("%04d", in.Now.Year())
	case "MONTH":
		if p.width == 1 {
			return strconv.Itoa(int(in.Now.Month()))
		}
		return fmt.Sprintf("%02d", int(in.Now.Month()))
	case "DAY":
		return fmt.Sprintf("%02d", in.Now.Day())
	}

	value, ok := contextValue(p.name, in)
	if !ok {
		value, ok = customAttributeValue(p.name, in)
	}
	if !ok || (value == "" && p.width == 0) {
		return unresolved
	}
	if p.width > 0 {
		return fitWidth(value, p.width)
	}
	if p.name == "PREFIX" {
		return value
	}
	return strings.ToUpper(value)
}

// contextValue resolves the built-in context placeholders. ok is false when
// name is not a built-in.
func contextValue(name string, in TemplateInput) (string, bool) {
	switch name {
	case "PREFIX":
		if in.Settings == nil || strings.TrimSpace(in.Settings.TagPrefix) == "" {
			return tagging.DefaultPrefix, true
		}
		return in.Settings.TagPrefix, true
	case "BREED", "BREED_GROUP":
		return BreedAbbreviation(in.Context.Field("breed")), true
	case "GENDER":
		g := in.Context.Field("gender")
		if g == "" {
			return "", true
		}
		r, _ := utf8.DecodeRuneInString(g)
		return strings.ToUpper(string(r)), true
	case "STATUS", "PRODUCTION_STAGE":
		return ProductionStageAbbreviation(in.Context.Field("production_status")), true
	case "SOURCE":
		if in.Context == nil {
			return "", true
		}
		return SourceCode(in.Context.AnimalSource), true
	}
	return "", false
}

// customAttributeValue matches name against the caller's attribute values,
// then against the farm's attribute definitions (first allowed value).
func customAttributeValue(name string, in TemplateInput) (string, bool) {
	key := attributeKey(name)
	if in.Context != nil {
		for _, av := range in.Context.CustomAttributes {
			if attributeKey(av.Name) == key && strings.TrimSpace(av.Value) != "" {
				return strings.TrimSpace(av.Value), true
			}
		}
	}
	if in.Settings != nil {
		for _, def := range in.Settings.CustomAttributes {
			if attributeKey(def.Name) == key && len(def.Values) > 0 {
				return strings.TrimSpace(def.Values[0]), true
			}
		}
	}
	return "", false
}

// attributeKey makes "Herd Group", "herd-group" and "HERD_GROUP" equal.
func attributeKey(name string) string {
	return strings.ToUpper(normalizeKey(name, "_"))
}

// fitWidth truncates value to n runes, upper-cases it and right-pads with 'X'.
func fitWidth(value string, n int) string {
	runes := []rune(strings.ToUpper(value))
	if len(runes) > n {
		runes = runes[:n]
	}
	out := string(runes)
	if pad := n - len(runes); pad > 0 {
		out += strings.Repeat(unresolved, pad)
	}
	return out
}
