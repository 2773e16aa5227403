// Package scanpayload builds and parses the data carried by a printed tag's
// scannable code.
package scanpayload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"herdbook/internal/core/apperror"
)

const (
	// CurrentVersion is stamped by Build.
	CurrentVersion = 1

	// MaxAge is how long a printed payload stays valid.
	MaxAge = 365 * 24 * time.Hour

	// MaxClockSkew tolerates scanners whose clock runs behind the printer's.
	MaxClockSkew = 5 * time.Minute

	compactPrefix  = "z1:"
	maxDecodedSize = 64 << 10
)

// ErrExpired is the cause of the error Parse returns for payloads older than MaxAge.
var ErrExpired = errors.New("scan payload expired")

// Payload identifies one animal tag.
type Payload struct {
	AnimalID  string    `json:"animalId"`
	TagNumber string    `json:"tagNumber"`
	FarmID    string    `json:"farmId"`
	Timestamp time.Time `json:"timestamp"`
	Version   int       `json:"version"`
}

// Codec encodes payloads as plain JSON or as zstd-compressed base64url.
// It is safe for concurrent use.
type Codec struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	now     func() time.Time
}

// NewCodec creates a codec. now may be nil to use time.Now.
func NewCodec(now func() time.Time) (*Codec, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	if now == nil {
		now = time.Now
	}
	return &Codec{encoder: encoder, decoder: decoder, now: now}, nil
}

// Build stamps the current version and time.
func (c *Codec) Build(animalID, tagNumber, farmID string) Payload {
	return Payload{
		AnimalID:  animalID,
		TagNumber: tagNumber,
		FarmID:    farmID,
		Timestamp: c.now().UTC().Truncate(time.Second),
		Version:   CurrentVersion,
	}
}

// Encode returns the JSON form.
func (c *Codec) Encode(p Payload) (string, error) {
	if err := p.check(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(raw), nil
}

// EncodeCompact returns "z1:" followed by the base64url of the zstd-compressed JSON.
func (c *Codec) EncodeCompact(p Payload) (string, error) {
	plain, err := c.Encode(p)
	if err != nil {
		return "", err
	}
	compressed := c.encoder.EncodeAll([]byte(plain), nil)
	return compactPrefix + base64.RawURLEncoding.EncodeToString(compressed), nil
}

// Parse accepts either form and checks the payload's fields and age.
func (c *Codec) Parse(data string) (Payload, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Payload{}, apperror.NewPayloadInvalid("scan payload is empty")
	}

	raw := []byte(data)
	if rest, ok := strings.CutPrefix(data, compactPrefix); ok {
		compressed, err := base64.RawURLEncoding.DecodeString(rest)
		if err != nil {
			return Payload{}, apperror.NewPayloadInvalid("compact payload is not base64url").WithCause(err)
		}
		raw, err = c.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return Payload{}, apperror.NewPayloadInvalid("compact payload does not decompress").WithCause(err)
		}
	}

	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, apperror.NewPayloadInvalid("scan payload is not valid JSON").WithCause(err)
	}
	if err := p.check(); err != nil {
		return Payload{}, err
	}

	now := c.now()
	switch {
	case p.Timestamp.IsZero():
		return Payload{}, apperror.NewPayloadInvalid("scan payload has no timestamp")
	case p.Timestamp.After(now.Add(MaxClockSkew)):
		return Payload{}, apperror.NewPayloadInvalid("scan payload timestamp is in the future").
			WithDetail("timestamp", p.Timestamp)
	case now.Sub(p.Timestamp) > MaxAge:
		return Payload{}, apperror.NewPayloadExpired(now.Sub(p.Timestamp).Round(time.Hour).String()).
			WithCause(ErrExpired)
	}
	return p, nil
}

func (p Payload) check() error {
	var missing []string
	if strings.TrimSpace(p.AnimalID) == "" {
		missing = append(missing, "animalId")
	}
	if strings.TrimSpace(p.TagNumber) == "" {
		missing = append(missing, "tagNumber")
	}
	if strings.TrimSpace(p.FarmID) == "" {
		missing = append(missing, "farmId")
	}
	if len(missing) > 0 {
		return apperror.NewPayloadInvalid("scan payload is missing required fields").
			WithDetail("missing", missing)
	}
	return nil
}
