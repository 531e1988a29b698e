// Package intake turns user-supplied images into data-URL attachments.
package intake

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"lumidecor/internal/catalog"
)

type AttachmentType string

const (
	TypeImage   AttachmentType = "image"
	TypeDrawing AttachmentType = "drawing"
)

type Attachment struct {
	ID   string         `json:"id"`
	URL  string         `json:"url"`
	Type AttachmentType `json:"type"`
}

var (
	ErrEmpty    = errors.New("intake: empty image")
	ErrNotImage = errors.New("intake: not an image")
	ErrTooLarge = errors.New("intake: image too large")
	ErrDataURL  = errors.New("intake: invalid data url")
)

const DefaultLimit = 25 << 20

var dataURLRegex = regexp.MustCompile(`^data:([^;,]+)(;[^,]*)?;base64,`)

func TypeFor(input catalog.InputType) AttachmentType {
	if input == catalog.InputSketch {
		return TypeDrawing
	}
	return TypeImage
}

func FromBytes(data []byte, declaredMime string, input catalog.InputType) (Attachment, error) {
	if len(data) == 0 {
		return Attachment{}, ErrEmpty
	}

	mimeType := normalizeMime(declaredMime)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = normalizeMime(http.DetectContentType(data))
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Attachment{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	return newAttachment(mimeType, base64.StdEncoding.EncodeToString(data), input), nil
}

// FromReader reads at most limit bytes; anything longer is rejected rather than truncated.
func FromReader(r io.Reader, declaredMime string, input catalog.InputType, limit int64) (Attachment, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return Attachment{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return Attachment{}, ErrTooLarge
	}
	return FromBytes(data, declaredMime, input)
}

// FromDataURL accepts the string a browser produces when reading a pasted or picked file.
func FromDataURL(value string, input catalog.InputType) (Attachment, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Attachment{}, ErrEmpty
	}

	matches := dataURLRegex.FindStringSubmatch(value)
	if len(matches) < 2 {
		return Attachment{}, ErrDataURL
	}
	mimeType := normalizeMime(matches[1])
	if !strings.HasPrefix(mimeType, "image/") {
		return Attachment{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}

	payload := value[len(matches[0]):]
	if payload == "" {
		return Attachment{}, ErrEmpty
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return Attachment{}, fmt.Errorf("%w: %v", ErrDataURL, err)
	}

	return newAttachment(mimeType, payload, input), nil
}

func FromBase64(data, mimeType string, input catalog.InputType) (Attachment, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Attachment{}, ErrEmpty
	}
	mimeType = normalizeMime(mimeType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return Attachment{}, fmt.Errorf("%w: %s", ErrNotImage, mimeType)
	}
	return newAttachment(mimeType, data, input), nil
}

// SplitDataURL returns the mime type and base64 payload. Bare base64 input is
// returned unchanged with an empty mime type.
func SplitDataURL(value string) (string, string) {
	value = strings.TrimSpace(value)
	if matches := dataURLRegex.FindStringSubmatch(value); len(matches) >= 2 {
		return normalizeMime(matches[1]), value[len(matches[0]):]
	}
	if idx := strings.IndexByte(value, ','); idx >= 0 && strings.HasPrefix(value, "data:") {
		return "", value[idx+1:]
	}
	return "", value
}

func newAttachment(mimeType, payload string, input catalog.InputType) Attachment {
	return Attachment{
		ID:   uuid.NewString(),
		URL:  fmt.Sprintf("data:%s;base64,%s", mimeType, payload),
		Type: TypeFor(input),
	}
}

func normalizeMime(value string) string {
	value = strings.TrimSpace(value)
	if strings.Contains(value, ";") {
		value = strings.TrimSpace(strings.SplitN(value, ";", 2)[0])
	}
	return strings.ToLower(value)
}
