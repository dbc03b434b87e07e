// Package storage persists uploaded evidence photos and returns retrievable URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PhotoStorage stores an uploaded file and returns a URL the mobile client can
// fetch later. Implementations must not retry; an orphaned file after a failed
// database write is accepted in this domain.
type PhotoStorage interface {
	Save(ctx context.Context, filename string, r io.Reader) (url string, err error)
}

// allowedExtensions for evidence uploads. PDFs are accepted for survey attachments.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".pdf":  true,
}

// AllowedExtension reports whether the filename carries an accepted extension
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// uniqueName prefixes the original filename with a timestamp to avoid collisions
func uniqueName(filename string) string {
	return fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405.000"), filepath.Base(filename))
}

// NewFromEnv picks the GCS backend when running on Google Cloud (or when
// USE_GCS is forced), otherwise local disk.
func NewFromEnv(ctx context.Context, uploadDir string) (PhotoStorage, error) {
	useGCS := os.Getenv("USE_GCS") == "true" ||
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" ||
		os.Getenv("K_SERVICE") != "" // Cloud Run indicator

	if useGCS {
		bucket := os.Getenv("GCS_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required when GCS storage is enabled")
		}
		return NewGCSStorage(ctx, bucket)
	}
	return NewLocalStorage(uploadDir)
}
