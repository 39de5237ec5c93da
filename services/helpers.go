package services

import (
	"io"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/storage"
)

// StatusPublisher pushes paper status transitions to live dashboard clients.
// Implemented by live.Hub; publishing must never block or fail a transition.
type StatusPublisher interface {
	PublishStatus(paperID int, status models.PaperStatus)
}

// FileUpload carries an uploaded file from the handler into a service.
type FileUpload struct {
	ContentType string
	Size        int64
	Content     io.Reader
}

const (
	maxDocumentSize   = 20 << 20 // 20 MiB
	maxScreenshotSize = 5 << 20  // 5 MiB
)

func validateDocumentUpload(f FileUpload) error {
	if f.Content == nil {
		return ErrFileRequired
	}
	if f.ContentType != "application/pdf" {
		return ErrUnsupportedFileType
	}
	if f.Size <= 0 || f.Size > maxDocumentSize {
		return ErrFileTooLarge
	}
	return nil
}

func validateScreenshotUpload(f FileUpload) error {
	if f.Content == nil {
		return ErrFileRequired
	}
	switch f.ContentType {
	case "image/png", "image/jpeg", "image/jpg", "image/webp":
	default:
		return ErrUnsupportedFileType
	}
	if f.Size <= 0 || f.Size > maxScreenshotSize {
		return ErrFileTooLarge
	}
	return nil
}

// populatePaperFileURLs derives public URLs from the stored object keys before
// a paper leaves the service layer. Keys themselves are never serialized.
func populatePaperFileURLs(p *models.Paper, uploader storage.FileUploader) {
	if p == nil || uploader == nil {
		return
	}
	p.PaperURL = keyToURL(p.PaperKey, uploader)
	p.PlagiarismURL = keyToURL(p.PlagiarismKey, uploader)
	p.CameraReadyURL = keyToURL(p.CameraReadyKey, uploader)
	p.PlagiarismReportURL = keyToURL(p.PlagiarismReportKey, uploader)
	p.PaymentScreenshotURL = keyToURL(p.PaymentScreenshotKey, uploader)
}

func keyToURL(key *string, uploader storage.FileUploader) *string {
	if key == nil || *key == "" {
		return nil
	}
	url := uploader.GetPublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}
