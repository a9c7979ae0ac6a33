// Package blob stores contract files.
package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// Bucket is a logical file area with its own read policy.
type Bucket string

const (
	// Contracts holds owner contracts; their URLs are public.
	Contracts Bucket = "contracts"
	// SignedContracts holds guest uploads; read only through signed URLs.
	SignedContracts Bucket = "signed-contracts"
)

type Store interface {
	Upload(ctx context.Context, bucket Bucket, path string, r io.Reader, contentType string) error
	PublicURL(bucket Bucket, path string) (string, error)
	SignedURL(ctx context.Context, bucket Bucket, path string, ttl time.Duration) (string, error)
}

// Allowed upload types, keyed by content type.
var extensions = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
}

const MaxUploadSize = 10 << 20

// Extension returns the file extension for an accepted content type.
func Extension(contentType string) (string, error) {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	ext, ok := extensions[ct]
	if !ok {
		return "", fmt.Errorf("unsupported file type %q", contentType)
	}
	return ext, nil
}

// OwnerContractPath is where the owner's contract for a booking lives.
func OwnerContractPath(bookingID int64, ext string, at time.Time) string {
	return fmt.Sprintf("booking-%d/contract-%d%s", bookingID, at.Unix(), ext)
}

// GuestSignedPath is scoped by public token so a guest upload can never
// land in another booking's area.
func GuestSignedPath(token, ext string, at time.Time) string {
	return fmt.Sprintf("%s/signed-%d%s", token, at.Unix(), ext)
}

// splitExt returns the path without extension and the bare extension.
func splitExt(p string) (string, string) {
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext), strings.TrimPrefix(ext, ".")
}
