package dto

import (
	"herdbook/internal/core/tagging"
)

// --- Settings ---

// SettingsRequest carries a farm's tagging settings.
type SettingsRequest struct {
	Method            string                        `json:"method"`
	NumberingSystem   string                        `json:"numberingSystem" binding:"omitempty,oneof=sequential custom barcode"`
	TagPrefix         string                        `json:"tagPrefix" binding:"tagprefix"`
	CustomFormat      string                        `json:"customFormat" binding:"max=100"`
	BarcodeType       string                        `json:"barcodeType" binding:"omitempty,oneof=code128 code39 ean13 upc"`
	BarcodeLength     int                           `json:"barcodeLength" binding:"min=0,max=48"`
	PaddingZeros      bool                          `json:"paddingZeros"`
	SequenceWidth     int                           `json:"sequenceWidth" binding:"min=0,max=12"`
	IncludeCheckDigit bool                          `json:"includeCheckDigit"`
	NextNumber        int64                         `json:"nextNumber" binding:"min=0"`
	CustomAttributes  []tagging.AttributeDefinition `json:"customAttributes"`
	TagRule           string                        `json:"tagRule" binding:"max=500"`
}

// ToDomain converts to tagging.Settings for farmID.
func (r *SettingsRequest) ToDomain(farmID string) tagging.Settings {
	return tagging.Settings{
		FarmID:            farmID,
		Method:            r.Method,
		NumberingSystem:   tagging.NumberingSystem(r.NumberingSystem),
		TagPrefix:         r.TagPrefix,
		CustomFormat:      r.CustomFormat,
		BarcodeType:       tagging.BarcodeType(r.BarcodeType),
		BarcodeLength:     r.BarcodeLength,
		PaddingZeros:      r.PaddingZeros,
		SequenceWidth:     r.SequenceWidth,
		IncludeCheckDigit: r.IncludeCheckDigit,
		NextNumber:        r.NextNumber,
		CustomAttributes:  r.CustomAttributes,
		TagRule:           r.TagRule,
	}
}

// SettingsResponse is tagging.Settings as returned by the API.
type SettingsResponse struct {
	FarmID string `json:"farmId"`
	SettingsRequest
}

// FromSettings converts tagging.Settings to a response.
func FromSettings(s *tagging.Settings) SettingsResponse {
	return SettingsResponse{
		FarmID: s.FarmID,
		SettingsRequest: SettingsRequest{
			Method:            s.Method,
			NumberingSystem:   string(s.NumberingSystem),
			TagPrefix:         s.TagPrefix,
			CustomFormat:      s.CustomFormat,
			BarcodeType:       string(s.BarcodeType),
			BarcodeLength:     s.BarcodeLength,
			PaddingZeros:      s.PaddingZeros,
			SequenceWidth:     s.SequenceWidth,
			IncludeCheckDigit: s.IncludeCheckDigit,
			NextNumber:        s.NextNumber,
			CustomAttributes:  s.CustomAttributes,
			TagRule:           s.TagRule,
		},
	}
}

// --- Generation ---

// GenerationContextRequest describes the animal a tag is for.
type GenerationContextRequest struct {
	AnimalSource     string                   `json:"animalSource" binding:"omitempty,oneof=newborn_calf purchased_animal"`
	AnimalData       map[string]any           `json:"animalData"`
	CustomAttributes []tagging.AttributeValue `json:"customAttributes"`
}

// ToDomain converts to tagging.GenerationContext.
func (r *GenerationContextRequest) ToDomain() *tagging.GenerationContext {
	return &tagging.GenerationContext{
		AnimalSource:     tagging.AnimalSource(r.AnimalSource),
		AnimalData:       r.AnimalData,
		CustomAttributes: r.CustomAttributes,
	}
}

// GenerateTagRequest is the body of POST /farms/:farmId/tags.
type GenerateTagRequest struct {
	GenerationContextRequest
}

// GenerateTagResponse reports the tag. Fallback is true when the tag came
// from a timestamp fallback and was not checked for uniqueness.
type GenerateTagResponse struct {
	TagNumber string `json:"tagNumber"`
	Fallback  bool   `json:"fallback"`
	Outcome   string `json:"outcome"`
	Attempts  int    `json:"attempts"`
}

// FromResult converts a generation result.
func FromResult(r tagging.Result) GenerateTagResponse {
	return GenerateTagResponse{
		TagNumber: r.Tag,
		Fallback:  r.Outcome.IsFallback(),
		Outcome:   string(r.Outcome),
		Attempts:  r.Attempts,
	}
}

// --- Preview ---

// PreviewRequest previews tags for inline settings.
type PreviewRequest struct {
	Settings       SettingsRequest          `json:"settings"`
	Context        GenerationContextRequest `json:"context"`
	StartingNumber int64                    `json:"startingNumber" binding:"min=0"`
	Count          int                      `json:"count" binding:"min=0,max=100"`
}

// FarmPreviewRequest previews tags from the farm's stored settings.
// Settings, when present, replaces the stored settings for this preview.
type FarmPreviewRequest struct {
	Settings *SettingsRequest         `json:"settings"`
	Context  GenerationContextRequest `json:"context"`
	Count    int                      `json:"count" binding:"min=0,max=100"`
}

// PreviewResponse lists previewed tags.
type PreviewResponse struct {
	Tags []string `json:"tags"`
}

// --- Validation ---

// ValidateTagRequest checks a tag under the given settings.
type ValidateTagRequest struct {
	TagNumber string          `json:"tagNumber" binding:"required"`
	Settings  SettingsRequest `json:"settings"`
}

// ValidateTagResponse is the verdict.
type ValidateTagResponse struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// FromGeneratedTag converts a verdict.
func FromGeneratedTag(t tagging.GeneratedTag) ValidateTagResponse {
	errs := t.Errors
	if errs == nil {
		errs = []string{}
	}
	return ValidateTagResponse{IsValid: t.IsValid, Errors: errs}
}
