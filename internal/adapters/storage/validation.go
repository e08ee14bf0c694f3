package storage

import (
	"fmt"
	"net/http"
	"strings"
)

// AllowedImageContentTypes are the photo formats the vision model accepts.
var AllowedImageContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ResolveContentType prefers the stored content type and sniffs the bytes when
// storage only reports a generic type.
func ResolveContentType(reported string, data []byte) string {
	normalized := normalizeContentType(reported)
	if normalized == "" || normalized == "application/octet-stream" || normalized == "binary/octet-stream" {
		return normalizeContentType(http.DetectContentType(data))
	}
	return normalized
}

// ValidateImageContentType checks if the content type is an accepted image.
func ValidateImageContentType(contentType string) error {
	if !AllowedImageContentTypes[normalizeContentType(contentType)] {
		return fmt.Errorf("content type %q is not an accepted image", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits. A non-positive
// limit disables the upper bound.
func ValidateFileSize(sizeBytes, maxFileSize int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxFileSize > 0 && sizeBytes > maxFileSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxFileSize)
	}
	return nil
}

func normalizeContentType(contentType string) string {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}
