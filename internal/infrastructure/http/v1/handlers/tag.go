package handlers

import (
	"github.com/gin-gonic/gin"

	"herdbook/internal/core/apperror"
	coretagging "herdbook/internal/core/tagging"
	"herdbook/internal/domain/tagging"
	"herdbook/internal/infrastructure/http/v1/dto"
)

// TagHandler serves tag generation, preview, validation and settings.
type TagHandler struct {
	BaseHandler
	generator *tagging.Generator
	settings  coretagging.SettingsProvider
	writer    coretagging.SettingsWriter
}

// NewTagHandler creates a tag handler. writer may be nil, which disables
// settings updates.
func NewTagHandler(generator *tagging.Generator, settings coretagging.SettingsProvider, writer coretagging.SettingsWriter) *TagHandler {
	return &TagHandler{generator: generator, settings: settings, writer: writer}
}

// Generate produces the farm's next tag. It always answers 201: when the
// primary path fails the body carries a fallback tag with fallback=true.
// POST /api/v1/farms/:farmId/tags
func (h *TagHandler) Generate(c *gin.Context) {
	var req dto.GenerateTagRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	res := h.generator.Generate(c.Request.Context(), c.Param("farmId"), req.ToDomain())
	h.Created(c, dto.FromResult(res))
}

// PreviewForFarm previews the next tags from stored settings, or from the
// settings in the body when given. Nothing is consumed.
// POST /api/v1/farms/:farmId/tags/preview
func (h *TagHandler) PreviewForFarm(c *gin.Context) {
	var req dto.FarmPreviewRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	count := req.Count
	if count == 0 {
		count = 5
	}

	farmID := c.Param("farmId")
	var (
		tags []string
		err  error
	)
	if req.Settings != nil {
		s := req.Settings.ToDomain(farmID)
		start := s.NextNumber
		if start <= 0 {
			start = 1
		}
		tags, err = h.generator.Preview(s, req.Context.ToDomain(), start, count)
	} else {
		tags, err = h.generator.PreviewForFarm(c.Request.Context(), farmID, req.Context.ToDomain(), count)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PreviewResponse{Tags: tags})
}

// Preview previews tags for inline settings. It touches no store.
// POST /api/v1/tags/preview
func (h *TagHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tags, err := h.generator.Preview(req.Settings.ToDomain(""), req.Context.ToDomain(), req.StartingNumber, req.Count)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.PreviewResponse{Tags: tags})
}

// Validate checks a tag under the given settings, including the tag rule.
// POST /api/v1/tags/validate
func (h *TagHandler) Validate(c *gin.Context) {
	var req dto.ValidateTagRequest
	if !h.BindJSON(c, &req) {
		return
	}

	verdict, err := h.generator.CheckTag(req.TagNumber, req.Settings.ToDomain(""))
	if err != nil {
		h.Error(c, apperror.NewValidation("tag rule does not compile").WithDetail("error", err.Error()))
		return
	}
	h.OK(c, dto.FromGeneratedTag(verdict))
}

// GetSettings returns the farm's stored settings.
// GET /api/v1/farms/:farmId/settings
func (h *TagHandler) GetSettings(c *gin.Context) {
	s, err := h.settings.GetTaggingSettings(c.Request.Context(), c.Param("farmId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSettings(s))
}

// PutSettings replaces the farm's settings. A positive nextNumber moves the
// farm's counter forward, never back; the response carries the stored row.
// PUT /api/v1/farms/:farmId/settings
func (h *TagHandler) PutSettings(c *gin.Context) {
	if h.writer == nil {
		h.Error(c, apperror.NewForbidden("settings are read-only on this server"))
		return
	}
	var req dto.SettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToDomain(c.Param("farmId"))
	if err := h.generator.CompileRule(s.TagRule); err != nil {
		h.Error(c, apperror.NewValidation("tag rule does not compile").WithDetail("error", err.Error()))
		return
	}
	if err := h.writer.SaveTaggingSettings(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}
	if h.settings != nil {
		if stored, err := h.settings.GetTaggingSettings(c.Request.Context(), s.FarmID); err == nil && stored != nil {
			s = *stored
		}
	}
	h.OK(c, dto.FromSettings(&s))
}
