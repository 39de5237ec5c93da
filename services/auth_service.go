package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/confdesk/conference-system/models"
	"github.com/confdesk/conference-system/repositories"
	"github.com/confdesk/conference-system/utils"
)

// AuthService authenticates the three principal kinds against their rosters.
// Token issuance lives in the handler, mirroring how login responses are
// assembled there.
type AuthService interface {
	LoginTeam(ctx context.Context, leadEmail, accessCode string) (*models.Team, error)
	LoginReviewer(ctx context.Context, email, accessCode string) (*models.Reviewer, error)
	LoginAdmin(ctx context.Context, email, accessCode string) (*models.Admin, error)
}

type authService struct {
	teamRepo     repositories.TeamRepository
	memberRepo   repositories.MemberRepository
	reviewerRepo repositories.ReviewerRepository
	adminRepo    repositories.AdminRepository
}

func NewAuthService(
	teamRepo repositories.TeamRepository,
	memberRepo repositories.MemberRepository,
	reviewerRepo repositories.ReviewerRepository,
	adminRepo repositories.AdminRepository,
) AuthService {
	return &authService{
		teamRepo:     teamRepo,
		memberRepo:   memberRepo,
		reviewerRepo: reviewerRepo,
		adminRepo:    adminRepo,
	}
}

func (s *authService) LoginTeam(ctx context.Context, leadEmail, accessCode string) (*models.Team, error) {
	// Registration stores the lead email lowercased; match that here.
	leadEmail = strings.ToLower(strings.TrimSpace(leadEmail))

	team, err := s.teamRepo.GetByLeadEmail(ctx, leadEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find team by lead email: %w", err)
	}
	if !utils.CheckAccessCode(accessCode, team.AccessCodeHash) {
		return nil, ErrAuthInvalidCredentials
	}

	members, err := s.memberRepo.ListByTeamID(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load team members: %w", err)
	}
	team.Members = members

	team.AccessCodeHash = ""
	return team, nil
}

func (s *authService) LoginReviewer(ctx context.Context, email, accessCode string) (*models.Reviewer, error) {
	reviewer, err := s.reviewerRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrReviewerNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find reviewer by email: %w", err)
	}
	if !utils.CheckAccessCode(accessCode, reviewer.AccessCodeHash) {
		return nil, ErrAuthInvalidCredentials
	}
	reviewer.AccessCodeHash = ""
	return reviewer, nil
}

func (s *authService) LoginAdmin(ctx context.Context, email, accessCode string) (*models.Admin, error) {
	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find admin by email: %w", err)
	}
	if !utils.CheckAccessCode(accessCode, admin.AccessCodeHash) {
		return nil, ErrAuthInvalidCredentials
	}
	admin.AccessCodeHash = ""
	return admin, nil
}
