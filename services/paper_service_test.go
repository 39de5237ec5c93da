package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confdesk/conference-system/models"
)

func pdfUpload() FileUpload {
	return FileUpload{ContentType: "application/pdf", Size: 1024, Content: strings.NewReader("%PDF-1.7")}
}

func pngUpload() FileUpload {
	return FileUpload{ContentType: "image/png", Size: 512, Content: strings.NewReader("png-bytes")}
}

func TestGetOwnHidesReviewerIdentity(t *testing.T) {
	decision := models.DecisionAccept
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusUnderReview, PaperKey: strPtr("papers/a.pdf")},
	}}
	reviewRepo := &fakeReviewRepo{byPaperID: []*models.Review{
		{ID: 10, PaperID: 1, ReviewerID: 2, IsCompleted: true, Decision: &decision,
			Reviewer: &models.Reviewer{ID: 2, Name: "Dr. X", Email: "x@review.test"}},
		{ID: 11, PaperID: 1, ReviewerID: 3},
	}}
	svc := NewPaperService(newStubDB(t), paperRepo, reviewRepo, &fakeUploader{}, &fakePublisher{}, testLogger())

	paper, err := svc.GetOwn(context.Background(), 9)
	require.NoError(t, err)

	require.Len(t, paper.Reviews, 2)
	for _, review := range paper.Reviews {
		assert.Nil(t, review.Reviewer)
		assert.Zero(t, review.ReviewerID)
	}
	require.NotNil(t, paper.PaperURL)
	assert.Equal(t, "https://files.test/papers/a.pdf", *paper.PaperURL)
}

func TestGetOwnWithoutPaper(t *testing.T) {
	svc := NewPaperService(newStubDB(t), &fakePaperRepo{}, &fakeReviewRepo{}, &fakeUploader{}, &fakePublisher{}, testLogger())

	_, err := svc.GetOwn(context.Background(), 9)
	assert.ErrorIs(t, err, ErrPaperNotFound)
}

func TestUploadPaymentProof(t *testing.T) {
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusAcceptedUnpaid},
	}}
	uploader := &fakeUploader{}
	hub := &fakePublisher{}
	svc := NewPaperService(newStubDB(t), paperRepo, &fakeReviewRepo{}, uploader, hub, testLogger())

	paper, err := svc.UploadPaymentProof(context.Background(), 9, "  A. Lead ", pngUpload())
	require.NoError(t, err)

	assert.Equal(t, models.StatusPaymentVerification, paper.Status)
	assert.Equal(t, "A. Lead", *paper.PaymentSenderName)
	require.NotNil(t, paper.PaymentScreenshotURL)
	require.Len(t, uploader.uploaded, 1)
	assert.True(t, strings.HasPrefix(uploader.uploaded[0], "payments/"))
	assert.True(t, strings.HasSuffix(uploader.uploaded[0], ".png"))
	assert.Equal(t, []models.PaperStatus{models.StatusPaymentVerification}, hub.published())
}

func TestUploadPaymentProofValidation(t *testing.T) {
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusAcceptedUnpaid},
	}}
	svc := NewPaperService(newStubDB(t), paperRepo, &fakeReviewRepo{}, &fakeUploader{}, &fakePublisher{}, testLogger())

	t.Run("sender name required", func(t *testing.T) {
		_, err := svc.UploadPaymentProof(context.Background(), 9, "   ", pngUpload())
		assert.ErrorIs(t, err, ErrSenderNameRequired)
	})

	t.Run("pdf is not a screenshot", func(t *testing.T) {
		_, err := svc.UploadPaymentProof(context.Background(), 9, "A. Lead", pdfUpload())
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
	})

	t.Run("oversized screenshot", func(t *testing.T) {
		big := pngUpload()
		big.Size = maxScreenshotSize + 1
		_, err := svc.UploadPaymentProof(context.Background(), 9, "A. Lead", big)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})
}

func TestUploadPaymentProofWrongStatus(t *testing.T) {
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusUnderReview},
	}}
	svc := NewPaperService(newStubDB(t), paperRepo, &fakeReviewRepo{}, &fakeUploader{}, &fakePublisher{}, testLogger())

	_, err := svc.UploadPaymentProof(context.Background(), 9, "A. Lead", pngUpload())
	assert.ErrorIs(t, err, ErrPaperNotAcceptedUnpaid)
}

func TestSubmitFinal(t *testing.T) {
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusAcceptedUnpaid},
	}}
	uploader := &fakeUploader{}
	svc := NewPaperService(newStubDB(t), paperRepo, &fakeReviewRepo{}, uploader, &fakePublisher{}, testLogger())

	paper, err := svc.SubmitFinal(context.Background(), 9, "offline", pdfUpload(), pdfUpload())
	require.NoError(t, err)

	assert.True(t, paper.IsFinalSubmitted)
	assert.Equal(t, "offline", *paper.ParticipationMode)
	require.NotNil(t, paper.CameraReadyURL)
	require.NotNil(t, paper.PlagiarismReportURL)
	assert.Equal(t, []int{1}, paperRepo.finals)
	assert.Len(t, uploader.uploaded, 2)
}

func TestSubmitFinalClosedForRejectedPapers(t *testing.T) {
	paperRepo := &fakePaperRepo{byTeamID: map[int]*models.Paper{
		9: {ID: 1, TeamID: 9, Status: models.StatusRejected},
	}}
	uploader := &fakeUploader{}
	svc := NewPaperService(newStubDB(t), paperRepo, &fakeReviewRepo{}, uploader, &fakePublisher{}, testLogger())

	_, err := svc.SubmitFinal(context.Background(), 9, "online", pdfUpload(), pdfUpload())
	assert.ErrorIs(t, err, ErrFinalSubmissionClosed)
	assert.Empty(t, uploader.uploaded)
}

func TestSubmitFinalRequiresParticipationMode(t *testing.T) {
	svc := NewPaperService(newStubDB(t), &fakePaperRepo{}, &fakeReviewRepo{}, &fakeUploader{}, &fakePublisher{}, testLogger())

	_, err := svc.SubmitFinal(context.Background(), 9, " ", pdfUpload(), pdfUpload())
	assert.ErrorIs(t, err, ErrParticipationRequired)
}
