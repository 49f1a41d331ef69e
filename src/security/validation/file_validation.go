package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/username/tradenorm/src/logger"
)

// ErrValidationFailed marks an upload rejected before any row is read.
var ErrValidationFailed = errors.New("file validation failed")

// Client-declared MIME types accepted per upload format. Browsers label CSV
// inconsistently, so the CSV list is wide and content sniffing does the real check.
var allowedClientContentTypes = map[string]map[string]bool{
	"csv": {
		"text/csv":                 true,
		"application/csv":          true,
		"application/vnd.ms-excel": true,
		"text/plain":               true,
		"application/octet-stream": true,
	},
	"xlsx": {
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
		"application/octet-stream":                                          true,
		"application/zip":                                                   true,
	},
	"xml": {
		"text/xml":                 true,
		"application/xml":          true,
		"application/octet-stream": true,
	},
}

// Types http.DetectContentType may report for a genuine file of each format.
var allowedDetectedTypes = map[string]map[string]bool{
	"csv": {
		"text/plain":               true,
		"text/csv":                 true,
		"application/csv":          true,
		"application/octet-stream": true,
	},
	"xlsx": {
		"application/zip": true,
	},
	"xml": {
		"text/xml":   true,
		"text/plain": true,
	},
}

// ValidateClientContentType checks the Content-Type header provided by the client.
// An empty header is allowed; sniffing still runs.
func ValidateClientContentType(contentType, format string) error {
	if contentType == "" {
		return nil
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !allowedClientContentTypes[format][mediaType] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType, "format", format)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed for %s upload", ErrValidationFailed, contentType, format)
	}
	return nil
}

// ValidateFileContentByMagicBytes sniffs the first 512 bytes and rewinds the file.
// It returns the detected content type.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, format string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// The parser reads the whole file next.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}

	detectedContentType := http.DetectContentType(buffer[:n])
	detectedContentType = strings.ToLower(strings.Split(detectedContentType, ";")[0])

	if !allowedDetectedTypes[format][detectedContentType] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detectedContentType, "format", format)
		return detectedContentType, fmt.Errorf("%w: detected file content type '%s' is not consistent with a %s file", ErrValidationFailed, detectedContentType, format)
	}

	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detectedContentType)
	return detectedContentType, nil
}
