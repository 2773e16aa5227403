package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"herdbook/internal/core/tagging"
)

// settingsFlags maps command line flags onto tagging.Settings.
type settingsFlags struct {
	system        string
	prefix        string
	format        string
	barcodeType   string
	barcodeLength int
	padding       bool
	width         int
	checkDigit    bool
	rule          string
	attributes    []string
}

func (f *settingsFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.system, "system", "sequential", "numbering system (sequential, custom, barcode)")
	fs.StringVar(&f.prefix, "prefix", "", "tag prefix (default COW)")
	fs.StringVar(&f.format, "format", "", "custom format, e.g. {PREFIX}-{YEAR:2}-{NUMBER:4}")
	fs.StringVar(&f.barcodeType, "barcode-type", "code128", "barcode symbology (code128, code39, ean13, upc)")
	fs.IntVar(&f.barcodeLength, "barcode-length", 0, "code128/code39 length (default 12)")
	fs.BoolVar(&f.padding, "padding", true, "zero-pad barcode sequences")
	fs.IntVar(&f.width, "width", 0, "sequential zero-pad width (default 3)")
	fs.BoolVar(&f.checkDigit, "check-digit", false, "append the EAN-13/UPC-A check digit")
	fs.StringVar(&f.rule, "rule", "", "CEL expression every tag must satisfy")
	fs.StringArrayVar(&f.attributes, "attribute", nil, "farm attribute definition NAME=V1,V2 (repeatable)")
}

func (f *settingsFlags) settings(farmID string) (tagging.Settings, error) {
	defs, err := parseDefinitions(f.attributes)
	if err != nil {
		return tagging.Settings{}, err
	}
	s := tagging.Settings{
		FarmID:            farmID,
		NumberingSystem:   tagging.NumberingSystem(f.system),
		TagPrefix:         f.prefix,
		CustomFormat:      f.format,
		BarcodeType:       tagging.BarcodeType(f.barcodeType),
		BarcodeLength:     f.barcodeLength,
		PaddingZeros:      f.padding,
		SequenceWidth:     f.width,
		IncludeCheckDigit: f.checkDigit,
		CustomAttributes:  defs,
		TagRule:           f.rule,
	}
	if err := s.Normalized().Validate(); err != nil {
		return tagging.Settings{}, err
	}
	return s, nil
}

// contextFlags maps command line flags onto tagging.GenerationContext.
type contextFlags struct {
	breed  string
	gender string
	status string
	source string
	values map[string]string
}

func (f *contextFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.breed, "breed", "", "animal breed, e.g. Holstein")
	fs.StringVar(&f.gender, "gender", "", "animal gender")
	fs.StringVar(&f.status, "status", "", "production status, e.g. lactating")
	fs.StringVar(&f.source, "source", "", "animal source (newborn_calf, purchased_animal)")
	fs.StringToStringVar(&f.values, "value", nil, "custom attribute value NAME=VALUE (repeatable)")
}

func (f *contextFlags) context() *tagging.GenerationContext {
	data := map[string]any{}
	if f.breed != "" {
		data["breed"] = f.breed
	}
	if f.gender != "" {
		data["gender"] = f.gender
	}
	if f.status != "" {
		data["production_status"] = f.status
	}

	names := make([]string, 0, len(f.values))
	for name := range f.values {
		names = append(names, name)
	}
	sort.Strings(names)
	values := make([]tagging.AttributeValue, 0, len(names))
	for _, name := range names {
		values = append(values, tagging.AttributeValue{Name: name, Value: f.values[name]})
	}

	return &tagging.GenerationContext{
		AnimalSource:     tagging.AnimalSource(f.source),
		AnimalData:       data,
		CustomAttributes: values,
	}
}

func parseDefinitions(raw []string) ([]tagging.AttributeDefinition, error) {
	defs := make([]tagging.AttributeDefinition, 0, len(raw))
	for _, r := range raw {
		name, values, ok := strings.Cut(r, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("attribute %q: want NAME=V1,V2", r)
		}
		def := tagging.AttributeDefinition{Name: strings.TrimSpace(name)}
		for _, v := range strings.Split(values, ",") {
			if v = strings.TrimSpace(v); v != "" {
				def.Values = append(def.Values, v)
			}
		}
		defs = append(defs, def)
	}
	return defs, nil
}
