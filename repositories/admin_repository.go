package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/confdesk/conference-system/models"
)

var ErrAdminNotFound = errors.New("admin not found")

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT id, email, access_code_hash, created_at FROM admins WHERE email = $1`

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID,
		&admin.Email,
		&admin.AccessCodeHash,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return admin, nil
}
