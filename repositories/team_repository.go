package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/confdesk/conference-system/models"
	"github.com/lib/pq"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamEmailConflict = errors.New("team lead email conflict")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	GetByLeadEmail(ctx context.Context, email string) (*models.Team, error)
	Count(ctx context.Context) (int, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO teams (team_name, lead_email, access_code_hash, mentor_name, mentor_dept, country, participation_mode)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.TeamName,
		team.LeadEmail,
		team.AccessCodeHash,
		team.MentorName,
		team.MentorDept,
		team.Country,
		team.ParticipationMode,
	).Scan(&team.ID, &team.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "teams_lead_email_key" {
				return ErrTeamEmailConflict
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `
		SELECT id, team_name, lead_email, access_code_hash, mentor_name, mentor_dept, country, participation_mode, created_at
		FROM teams
		WHERE id = $1`
	return r.scanTeam(ctx, query, id)
}

func (r *postgresTeamRepository) GetByLeadEmail(ctx context.Context, email string) (*models.Team, error) {
	query := `
		SELECT id, team_name, lead_email, access_code_hash, mentor_name, mentor_dept, country, participation_mode, created_at
		FROM teams
		WHERE lead_email = $1`
	return r.scanTeam(ctx, query, email)
}

func (r *postgresTeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}
	return count, nil
}

func (r *postgresTeamRepository) scanTeam(ctx context.Context, query string, args ...interface{}) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&team.ID,
		&team.TeamName,
		&team.LeadEmail,
		&team.AccessCodeHash,
		&team.MentorName,
		&team.MentorDept,
		&team.Country,
		&team.ParticipationMode,
		&team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}
