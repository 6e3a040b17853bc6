package constants

import "strings"

// Format is the detected container of an uploaded document.
type Format string

const (
	PDF  Format = "PDF"
	PNG  Format = "PNG"
	JPEG Format = "JPEG"
)

// AllowedExtensions holds the file extensions accepted by the upload endpoints.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
}

// MIMEType returns the media type sent to the extraction model for a raster format.
func (f Format) MIMEType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case PDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether an upload with this extension may be processed.
// An empty extension is allowed; the decoder sniffs content anyway.
func IsAllowedExt(ext string) bool {
	ext = NormalizeExt(ext)
	if ext == "" {
		return true
	}
	_, ok := AllowedExtensions[ext]
	return ok
}
