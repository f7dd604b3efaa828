package curl

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMIME is used for extensions missing from the table.
const DefaultMIME = "application/octet-stream"

var mimeTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
	"zip":  "application/zip",
	"tar":  "application/x-tar",
	"gz":   "application/gzip",
	"json": "application/json",
	"xml":  "application/xml",
	"txt":  "text/plain",
	"csv":  "text/csv",
	"html": "text/html",
	"css":  "text/css",
	"js":   "application/javascript",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"mp4":  "video/mp4",
	"avi":  "video/x-msvideo",
}

// MIMEType maps a file extension to its MIME type, case-insensitively.
func MIMEType(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return DefaultMIME
}

// sniffMIME inspects file content. Used only for files the table could not type.
func sniffMIME(path string) string {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return DefaultMIME
	}
	return mt.String()
}
