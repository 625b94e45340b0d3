package store

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// InlineImage is a decoded data: URI payload.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// IsInline reports whether the image value is an inline data-encoded payload
// rather than a hosted URL.
func IsInline(imageURL string) bool {
	return strings.HasPrefix(imageURL, "data:")
}

// ParseInline decodes a "data:<mime>;base64,<payload>" image value.
func ParseInline(imageURL string) (*InlineImage, error) {
	if !IsInline(imageURL) {
		return nil, fmt.Errorf("not an inline image")
	}

	meta, payload, ok := strings.Cut(imageURL[len("data:"):], ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing payload")
	}

	mimeType, _, _ := strings.Cut(meta, ";")
	if !strings.Contains(meta, "base64") {
		return nil, fmt.Errorf("unsupported data URI encoding: %q", meta)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode inline image: %w", err)
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	return &InlineImage{MIMEType: mimeType, Data: data}, nil
}

// Extension derives the object key extension from the declared MIME type,
// e.g. "image/png" -> "png". Unknown shapes fall back to webp.
func (img *InlineImage) Extension() string {
	_, subtype, ok := strings.Cut(img.MIMEType, "/")
	if !ok || subtype == "" {
		return "webp"
	}
	return subtype
}
