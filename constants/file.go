package constants

import "strings"

// File formats the extraction stage understands.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// AllowedContentTypes holds the upload media types we accept.
var AllowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/webp":      {},
}

// MapContentTypeToFormat maps a declared media type to an extraction format.
// Unknown image/* types still go through OCR; anything else is unsupported ("").
func MapContentTypeToFormat(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return PDF
	case strings.HasPrefix(ct, "image/"):
		return IMAGE
	default:
		return ""
	}
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
