package handlers

import (
	"github.com/gin-gonic/gin"

	"herdbook/internal/domain/scanpayload"
	"herdbook/internal/infrastructure/http/v1/dto"
)

// PayloadHandler encodes and decodes scan payloads.
type PayloadHandler struct {
	BaseHandler
	codec *scanpayload.Codec
}

// NewPayloadHandler creates a payload handler.
func NewPayloadHandler(codec *scanpayload.Codec) *PayloadHandler {
	return &PayloadHandler{codec: codec}
}

// Encode builds and encodes a payload.
// POST /api/v1/payloads/encode
func (h *PayloadHandler) Encode(c *gin.Context) {
	var req dto.EncodePayloadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := h.codec.Build(req.AnimalID, req.TagNumber, req.FarmID)
	encode := h.codec.Encode
	if req.Compact {
		encode = h.codec.EncodeCompact
	}
	data, err := encode(p)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPayload(p, data))
}

// Decode parses scanned data.
// POST /api/v1/payloads/decode
func (h *PayloadHandler) Decode(c *gin.Context) {
	var req dto.DecodePayloadRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.codec.Parse(req.Data)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPayload(p, ""))
}
