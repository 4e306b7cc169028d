// Package storage keeps uploaded medicamento images, either on local disk or
// in an S3 bucket.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrInvalidName        = errors.New("invalid file name")
	ErrContentMismatch    = errors.New("file content does not match its content type")
)

// sniffLimit is how many leading bytes are inspected to detect the real type.
const sniffLimit = 3072

// AllowedContentTypes lists the image types accepted for uploads.
var AllowedContentTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// FileStore saves and removes uploaded files by name.
type FileStore interface {
	Save(ctx context.Context, name string, content io.Reader, contentType string) error
	Delete(ctx context.Context, name string) error
}

// CheckUpload validates an incoming upload before it is stored.
func CheckUpload(contentType string, size, maxBytes int64) error {
	if _, ok := AllowedContentTypes[baseContentType(contentType)]; !ok {
		return ErrInvalidContentType
	}
	if maxBytes > 0 && size > maxBytes {
		return ErrFileTooLarge
	}
	return nil
}

// Sniff detects the type of content from its leading bytes and rejects it
// unless it is an allowed image matching the declared content type. The
// returned reader yields the whole content, including the inspected bytes.
func Sniff(content io.Reader, declared string) (io.Reader, error) {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(content, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if _, ok := AllowedContentTypes[baseContentType(detected.String())]; !ok {
		return nil, ErrContentMismatch
	}
	if !detected.Is(baseContentType(declared)) {
		return nil, ErrContentMismatch
	}
	return io.MultiReader(bytes.NewReader(head), content), nil
}

// NewFileName returns a unique stored name whose extension always comes from
// the allowed content type, never from the client's file name.
func NewFileName(contentType string) string {
	return uuid.New().String() + AllowedContentTypes[baseContentType(contentType)]
}

// cleanName rejects names that would escape the upload root.
func cleanName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", ErrInvalidName
	}
	return name, nil
}

func baseContentType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
