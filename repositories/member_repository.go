package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/confdesk/conference-system/models"
)

type MemberRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, members []*models.Member) error
	ListByTeamID(ctx context.Context, teamID int) ([]models.Member, error)
}

type postgresMemberRepository struct {
	db *sql.DB
}

func NewPostgresMemberRepository(db *sql.DB) MemberRepository {
	return &postgresMemberRepository{db: db}
}

func (r *postgresMemberRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMemberRepository) CreateBatch(ctx context.Context, exec SQLExecutor, members []*models.Member) error {
	if len(members) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO members (team_id, name, email, phone, college, department, city, state, country, is_lead)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	for _, m := range members {
		err := executor.QueryRowContext(ctx, query,
			m.TeamID,
			m.Name,
			m.Email,
			m.Phone,
			m.College,
			m.Department,
			m.City,
			m.State,
			m.Country,
			m.IsLead,
		).Scan(&m.ID, &m.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create member %q: %w", m.Email, err)
		}
	}
	return nil
}

func (r *postgresMemberRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.Member, error) {
	query := `
		SELECT id, team_id, name, email, phone, college, department, city, state, country, is_lead, created_at
		FROM members
		WHERE team_id = $1
		ORDER BY is_lead DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		var m models.Member
		scanErr := rows.Scan(
			&m.ID,
			&m.TeamID,
			&m.Name,
			&m.Email,
			&m.Phone,
			&m.College,
			&m.Department,
			&m.City,
			&m.State,
			&m.Country,
			&m.IsLead,
			&m.CreatedAt,
		)
		if scanErr != nil {
			return nil, scanErr
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
