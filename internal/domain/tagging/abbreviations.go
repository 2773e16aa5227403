package tagging

import (
	"strings"
	"unicode"

	"herdbook/internal/core/tagging"
)

var breedCodes = map[string]string{
	"holstein":    "HO",
	"friesian":    "FR",
	"jersey":      "JE",
	"guernsey":    "GU",
	"ayrshire":    "AY",
	"brown swiss": "BS",
	"simmental":   "SI",
	"angus":       "AN",
	"hereford":    "HF",
	"sahiwal":     "SA",
	"gir":         "GI",
	"crossbred":   "CR",
}

var productionStageCodes = map[string]string{
	"calf":      "CA",
	"heifer":    "HE",
	"served":    "SE",
	"lactating": "LA",
	"dry":       "DR",
	"pregnant":  "PR",
}

var sourceCodes = map[tagging.AnimalSource]string{
	tagging.SourceNewbornCalf:     "BC",
	tagging.SourcePurchasedAnimal: "PU",
}

// BreedAbbreviation returns the two-letter code of a breed name.
// Lookup is case-insensitive; "_" and "-" count as spaces ("brown_swiss").
// Unknown breeds fall back to their first two letters or digits, uppercased.
func BreedAbbreviation(breed string) string {
	return lookupCode(breedCodes, breed)
}

// ProductionStageAbbreviation returns the two-letter code of a production status.
func ProductionStageAbbreviation(status string) string {
	return lookupCode(productionStageCodes, status)
}

// SourceCode returns "BC" for newborn calves, "PU" for purchased animals and
// "" for anything else.
func SourceCode(source tagging.AnimalSource) string {
	return sourceCodes[tagging.AnimalSource(normalizeKey(string(source), "_"))]
}

func lookupCode(table map[string]string, value string) string {
	key := normalizeKey(value, " ")
	if key == "" {
		return ""
	}
	if code, ok := table[key]; ok {
		return code
	}
	return firstAlnum(key, 2)
}

// normalizeKey lower-cases v, trims it and joins words with sep.
func normalizeKey(v, sep string) string {
	fields := strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
		return unicode.IsSpace(r) || r == '_' || r == '-'
	})
	return strings.Join(fields, sep)
}

func firstAlnum(v string, n int) string {
	var b strings.Builder
	for _, r := range v {
		if b.Len() >= n {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
