package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/storage"
	"github.com/confdesk/conference-system/utils"
)

const minAccessCodeLength = 8

type MemberInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	College    string `json:"college"`
	Department string `json:"department"`
	City       string `json:"city"`
	State      string `json:"state"`
	Country    string `json:"country"`
	IsLead     bool   `json:"is_lead"`
}

type RegistrationInput struct {
	TeamName          string        `json:"team_name"`
	LeadEmail         string        `json:"lead_email"`
	AccessCode        string        `json:"access_code"`
	MentorName        string        `json:"mentor_name"`
	MentorDept        string        `json:"mentor_dept"`
	Country           string        `json:"country"`
	ParticipationMode string        `json:"participation_mode"`
	Members           []MemberInput `json:"members"`
	PaperTitle        string        `json:"paper_title"`
	Domains           []string      `json:"domains"`
}

// RegistrationService creates the team, its members and the paper in one
// transaction, then hands the paper to reviewer assignment. Assignment is
// deliberately best-effort: a failure there is logged and the registration
// still succeeds, leaving the paper SUBMITTED for manual follow-up.
type RegistrationService interface {
	Register(ctx context.Context, input RegistrationInput, paperFile, plagiarismFile FileUpload) (*models.Team, error)
}

type registrationService struct {
	db         *sql.DB
	teamRepo   repositories.TeamRepository
	memberRepo repositories.MemberRepository
	paperRepo  repositories.PaperRepository
	assignment AssignmentService
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewRegistrationService(
	db *sql.DB,
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	paperRepo repositories.PaperRepository,
	assignment AssignmentService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		db:         db,
		teamRepo:   teamRepo,
		memberRepo: memberRepo,
		paperRepo:  paperRepo,
		assignment: assignment,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *registrationService) Register(ctx context.Context, input RegistrationInput, paperFile, plagiarismFile FileUpload) (*models.Team, error) {
	if err := validateRegistration(input); err != nil {
		return nil, err
	}
	if err := validateDocumentUpload(paperFile); err != nil {
		return nil, err
	}
	if err := validateDocumentUpload(plagiarismFile); err != nil {
		return nil, err
	}

	accessCodeHash, err := utils.HashAccessCode(input.AccessCode)
	if err != nil {
		return nil, fmt.Errorf("failed to hash access code: %w", err)
	}

	paperUpload, err := s.uploader.Upload(ctx, storage.NewObjectKey(storage.PrefixPaper, ".pdf"), paperFile.ContentType, paperFile.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to store paper file: %w", err)
	}
	plagiarismUpload, err := s.uploader.Upload(ctx, storage.NewObjectKey(storage.PrefixPlagiarism, ".pdf"), plagiarismFile.ContentType, plagiarismFile.Content)
	if err != nil {
		s.cleanupBlob(ctx, paperUpload.Key)
		return nil, fmt.Errorf("failed to store plagiarism file: %w", err)
	}

	team := &models.Team{
		TeamName:          strings.TrimSpace(input.TeamName),
		LeadEmail:         strings.ToLower(strings.TrimSpace(input.LeadEmail)),
		AccessCodeHash:    accessCodeHash,
		MentorName:        input.MentorName,
		MentorDept:        input.MentorDept,
		Country:           input.Country,
		ParticipationMode: input.ParticipationMode,
	}

	paper := &models.Paper{
		Title:         strings.TrimSpace(input.PaperTitle),
		Domains:       normalizeDomains(input.Domains),
		Status:        models.StatusSubmitted,
		PaperKey:      &paperUpload.Key,
		PlagiarismKey: &plagiarismUpload.Key,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.teamRepo.Create(ctx, tx, team); err != nil {
		s.cleanupBlob(ctx, paperUpload.Key, plagiarismUpload.Key)
		if errors.Is(err, repositories.ErrTeamEmailConflict) {
			return nil, ErrTeamEmailConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	members := make([]*models.Member, 0, len(input.Members))
	for _, m := range input.Members {
		members = append(members, &models.Member{
			TeamID:     team.ID,
			Name:       m.Name,
			Email:      strings.ToLower(strings.TrimSpace(m.Email)),
			Phone:      m.Phone,
			College:    m.College,
			Department: m.Department,
			City:       m.City,
			State:      m.State,
			Country:    m.Country,
			IsLead:     m.IsLead,
		})
	}
	if err := s.memberRepo.CreateBatch(ctx, tx, members); err != nil {
		s.cleanupBlob(ctx, paperUpload.Key, plagiarismUpload.Key)
		return nil, fmt.Errorf("failed to create team members: %w", err)
	}

	paper.TeamID = team.ID
	if err := s.paperRepo.Create(ctx, tx, paper); err != nil {
		s.cleanupBlob(ctx, paperUpload.Key, plagiarismUpload.Key)
		if errors.Is(err, repositories.ErrPaperTeamConflict) {
			return nil, ErrPaperTeamConflict
		}
		return nil, fmt.Errorf("failed to create paper: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.cleanupBlob(ctx, paperUpload.Key, plagiarismUpload.Key)
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	// Best-effort: registration is already durable at this point.
	if err := s.assignment.Assign(ctx, paper.ID, paper.Domains); err != nil {
		s.logger.Error("reviewer assignment failed after registration",
			slog.Int("paper_id", paper.ID), slog.Any("error", err))
	}

	team.AccessCodeHash = ""
	for _, m := range members {
		team.Members = append(team.Members, *m)
	}
	populatePaperFileURLs(paper, s.uploader)
	team.Paper = paper
	return team, nil
}

func validateRegistration(input RegistrationInput) error {
	if strings.TrimSpace(input.TeamName) == "" {
		return ErrTeamNameRequired
	}
	if !utils.IsValidEmail(input.LeadEmail) {
		return ErrInvalidEmail
	}
	if len(input.AccessCode) < minAccessCodeLength {
		return ErrAccessCodeTooShort
	}
	if len(input.Members) == 0 {
		return ErrMembersRequired
	}
	leads := 0
	for _, m := range input.Members {
		if strings.TrimSpace(m.Name) == "" || !utils.IsValidEmail(m.Email) {
			return ErrValidationFailed
		}
		if m.IsLead {
			leads++
		}
	}
	if leads != 1 {
		return ErrLeadMemberRequired
	}
	if strings.TrimSpace(input.PaperTitle) == "" {
		return ErrPaperTitleRequired
	}
	if len(normalizeDomains(input.Domains)) == 0 {
		return ErrDomainsRequired
	}
	return nil
}

func normalizeDomains(domains []string) []string {
	seen := make(map[string]bool, len(domains))
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.TrimSpace(d)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

func (s *registrationService) cleanupBlob(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.uploader.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to clean up uploaded file",
				slog.String("key", filepath.Base(key)), slog.Any("error", err))
		}
	}
}
