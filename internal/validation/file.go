package validation

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	ErrUnsupportedType = errors.New("invalid file type. Only PDF, Word, Excel, PowerPoint, ZIP, text and images are allowed")
	ErrFileTooLarge    = errors.New("file too large")
)

// MaxUploadSize is the default cap for a single upload (50 MiB)
const MaxUploadSize int64 = 50 << 20

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes map[string]bool
	MaxSize          int64
}

// studyMimeTypes lists documents, archives, common images and plain text
var studyMimeTypes = []string{
	// Documents
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	// Archives
	"application/zip",
	"application/x-zip-compressed",
	// Images
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	// Text
	"text/plain",
}

// StudyFileConstraints is the rule set applied to every shared file
var StudyFileConstraints = FileConstraints{
	AllowedMimeTypes: setOf(studyMimeTypes),
	MaxSize:          MaxUploadSize,
}

func setOf(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// WithMaxSize returns a copy with a different size cap
func (c FileConstraints) WithMaxSize(n int64) FileConstraints {
	c.MaxSize = n
	return c
}

// NormalizeContentType lower-cases the media type and drops parameters such as charset.
func NormalizeContentType(declared string) string {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		mediaType, _, _ = strings.Cut(declared, ";")
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// ValidateContentType checks the declared media type against the allow-list
func (c FileConstraints) ValidateContentType(declared string) error {
	if !c.AllowedMimeTypes[NormalizeContentType(declared)] {
		return ErrUnsupportedType
	}
	return nil
}

// ValidateSize rejects payloads strictly larger than MaxSize
func (c FileConstraints) ValidateSize(size int64) error {
	if size > c.MaxSize {
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, c.MaxSize/(1<<20))
	}
	return nil
}
