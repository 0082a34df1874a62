package constants

import (
	"path/filepath"
	"strings"
)

// Format is the routing decision made from a file's declared extension.
type Format string

const (
	PDF   Format = "pdf"
	IMAGE Format = "image"
)

// imageExtensions are the only extensions routed to the OCR path.
var imageExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat treats png/jpg/jpeg as images and everything else as PDF.
// There is no content sniffing: a mismatched extension surfaces later as a parse failure.
func MapExtToFormat(ext string) Format {
	if _, ok := imageExtensions[NormalizeExt(ext)]; ok {
		return IMAGE
	}
	return PDF
}

// ClassifyFile classifies by the declared file name, falling back to the storage path.
func ClassifyFile(fileName, storagePath string) Format {
	name := fileName
	if filepath.Ext(name) == "" {
		name = storagePath
	}
	return MapExtToFormat(filepath.Ext(name))
}

// MIMEType returns the MIME type used when a document is inlined as a data URL.
func MIMEType(name string) string {
	switch NormalizeExt(filepath.Ext(name)) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	default:
		return "application/pdf"
	}
}
