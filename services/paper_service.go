package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/storage"
)

// PaperService is the team-facing side of the paper lifecycle: tracking the
// own paper, uploading payment proof and submitting camera-ready files.
type PaperService interface {
	GetOwn(ctx context.Context, teamID int) (*models.Paper, error)
	UploadPaymentProof(ctx context.Context, teamID int, senderName string, screenshot FileUpload) (*models.Paper, error)
	SubmitFinal(ctx context.Context, teamID int, participationMode string, cameraReady, plagiarismReport FileUpload) (*models.Paper, error)
}

type paperService struct {
	db         *sql.DB
	paperRepo  repositories.PaperRepository
	reviewRepo repositories.ReviewRepository
	uploader   storage.FileUploader
	hub        StatusPublisher
	logger     *slog.Logger
}

func NewPaperService(
	db *sql.DB,
	paperRepo repositories.PaperRepository,
	reviewRepo repositories.ReviewRepository,
	uploader storage.FileUploader,
	hub StatusPublisher,
	logger *slog.Logger,
) PaperService {
	return &paperService{
		db:         db,
		paperRepo:  paperRepo,
		reviewRepo: reviewRepo,
		uploader:   uploader,
		hub:        hub,
		logger:     logger,
	}
}

func (s *paperService) GetOwn(ctx context.Context, teamID int) (*models.Paper, error) {
	paper, err := s.getByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByPaperID(ctx, paper.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	// Teams see review progress and feedback, not who reviewed them.
	paper.Reviews = make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		review.Reviewer = nil
		review.ReviewerID = 0
		paper.Reviews = append(paper.Reviews, *review)
	}

	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

func (s *paperService) UploadPaymentProof(ctx context.Context, teamID int, senderName string, screenshot FileUpload) (*models.Paper, error) {
	senderName = strings.TrimSpace(senderName)
	if senderName == "" {
		return nil, ErrSenderNameRequired
	}
	if err := validateScreenshotUpload(screenshot); err != nil {
		return nil, err
	}

	paper, err := s.getByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if paper.Status != models.StatusAcceptedUnpaid {
		return nil, ErrPaperNotAcceptedUnpaid
	}

	key := storage.NewObjectKey(storage.PrefixPaymentScreenshot, extForImage(screenshot.ContentType))
	upload, err := s.uploader.Upload(ctx, key, screenshot.ContentType, screenshot.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store payment screenshot: %w", err)
	}

	if err := s.paperRepo.SetPaymentProof(ctx, paper.ID, upload.Key, senderName); err != nil {
		if errors.Is(err, repositories.ErrPaperStatusConflict) {
			return nil, ErrPaperNotAcceptedUnpaid
		}
		return nil, fmt.Errorf("failed to record payment proof: %w", err)
	}

	paper.Status = models.StatusPaymentVerification
	paper.PaymentScreenshotKey = &upload.Key
	paper.PaymentSenderName = &senderName
	s.hub.PublishStatus(paper.ID, models.StatusPaymentVerification)
	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

// SubmitFinal records the camera-ready upload. It is tracked independently of
// the review/payment pipeline and does not advance status; the only guard is
// that rejected papers are closed for it.
func (s *paperService) SubmitFinal(ctx context.Context, teamID int, participationMode string, cameraReady, plagiarismReport FileUpload) (*models.Paper, error) {
	participationMode = strings.TrimSpace(participationMode)
	if participationMode == "" {
		return nil, ErrParticipationRequired
	}
	if err := validateDocumentUpload(cameraReady); err != nil {
		return nil, err
	}
	if err := validateDocumentUpload(plagiarismReport); err != nil {
		return nil, err
	}

	paper, err := s.getByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if paper.Status == models.StatusRejected {
		return nil, ErrFinalSubmissionClosed
	}

	cameraUpload, err := s.uploader.Upload(ctx, storage.NewObjectKey(storage.PrefixCameraReady, ".pdf"), cameraReady.ContentType, cameraReady.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store camera-ready file: %w", err)
	}
	reportUpload, err := s.uploader.Upload(ctx, storage.NewObjectKey(storage.PrefixPlagiarismReport, ".pdf"), plagiarismReport.ContentType, plagiarismReport.Content)
	if err != nil {
		s.cleanupBlob(ctx, cameraUpload.Key)
		return nil, fmt.Errorf("failed to store plagiarism report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin final submission transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.paperRepo.SetFinalSubmission(ctx, tx, paper.ID, cameraUpload.Key, reportUpload.Key, participationMode); err != nil {
		s.cleanupBlob(ctx, cameraUpload.Key, reportUpload.Key)
		return nil, fmt.Errorf("failed to record final submission: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.cleanupBlob(ctx, cameraUpload.Key, reportUpload.Key)
		return nil, fmt.Errorf("failed to commit final submission: %w", err)
	}

	paper.CameraReadyKey = &cameraUpload.Key
	paper.PlagiarismReportKey = &reportUpload.Key
	paper.ParticipationMode = &participationMode
	paper.IsFinalSubmitted = true
	populatePaperFileURLs(paper, s.uploader)
	return paper, nil
}

func (s *paperService) getByTeam(ctx context.Context, teamID int) (*models.Paper, error) {
	paper, err := s.paperRepo.GetByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrPaperNotFound) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("failed to load team paper: %w", err)
	}
	return paper, nil
}

func (s *paperService) cleanupBlob(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clean up uploaded file",
				slog.String("key", key), slog.Any("error", err))
		}
	}
}

func extForImage(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
