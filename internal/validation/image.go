package validation

import (
	"errors"
	"fmt"
)

// Inline image constraints: the declared MIME type of a data-encoded image
// and its decoded size.
var (
	allowedImageMimeTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/webp": true,
	}

	maxImageSize = int64(5 << 20) // 5MB
)

// ValidateInlineImage validates the declared MIME type and decoded size of an
// inline image payload.
func ValidateInlineImage(mimeType string, size int64) error {
	if !allowedImageMimeTypes[mimeType] {
		return fmt.Errorf("unsupported image type %q (jpeg, png or webp)", mimeType)
	}
	if size == 0 {
		return errors.New("image is empty")
	}
	if size > maxImageSize {
		return fmt.Errorf("image is too large (max %d MB)", maxImageSize>>20)
	}
	return nil
}
