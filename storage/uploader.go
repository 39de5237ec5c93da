package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// Object key prefixes, one per kind of uploaded document.
const (
	PrefixPaper             = "papers"
	PrefixPlagiarism        = "plagiarism"
	PrefixCameraReady       = "camera-ready"
	PrefixPlagiarismReport  = "plagiarism-reports"
	PrefixPaymentScreenshot = "payments"
)

// NewObjectKey builds a collision-free object key under the given prefix.
func NewObjectKey(prefix, ext string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}
