package dto

import (
	"time"

	"herdbook/internal/domain/scanpayload"
)

// EncodePayloadRequest builds a scan payload for a tag.
type EncodePayloadRequest struct {
	AnimalID  string `json:"animalId" binding:"required"`
	TagNumber string `json:"tagNumber" binding:"required"`
	FarmID    string `json:"farmId" binding:"required"`
	Compact   bool   `json:"compact"`
}

// DecodePayloadRequest carries scanned data.
type DecodePayloadRequest struct {
	Data string `json:"data" binding:"required"`
}

// PayloadResponse is a payload and its encoded form.
type PayloadResponse struct {
	Data      string    `json:"data,omitempty"`
	AnimalID  string    `json:"animalId"`
	TagNumber string    `json:"tagNumber"`
	FarmID    string    `json:"farmId"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// FromPayload converts a payload.
func FromPayload(p scanpayload.Payload, data string) PayloadResponse {
	return PayloadResponse{
		Data:      data,
		AnimalID:  p.AnimalID,
		TagNumber: p.TagNumber,
		FarmID:    p.FarmID,
		Timestamp: p.Timestamp,
		Version:   p.Version,
	}
}
