package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const superadminColumns = `id, email, full_name, password_hash, active, created_at`

// Superadmin is a platform operator. Superadmins belong to no tenant.
type Superadmin struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SuperadminStore struct {
	db Querier
}

func NewSuperadminStore(db Querier) *SuperadminStore {
	if db == nil {
		panic("SuperadminStore requires a querier")
	}
	return &SuperadminStore{db: db}
}

// CreateSuperadminParams captures the fields required to insert a superadmin.
type CreateSuperadminParams struct {
	ID           uuid.UUID
	Email        string
	FullName     string
	PasswordHash string
}

func (s *SuperadminStore) Create(ctx context.Context, params CreateSuperadminParams) (Superadmin, error) {
	if params.PasswordHash == "" {
		return Superadmin{}, errors.New("password hash is required")
	}
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
        INSERT INTO superadmins (id, email, full_name, password_hash)
        VALUES ($1, $2, $3, $4)
        RETURNING `+superadminColumns,
		params.ID,
		strings.ToLower(strings.TrimSpace(params.Email)),
		strings.TrimSpace(params.FullName),
		params.PasswordHash,
	)

	admin, err := scanSuperadmin(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Superadmin{}, ErrSuperadminConflict
		}
		return Superadmin{}, fmt.Errorf("insert superadmin: %w", err)
	}
	return admin, nil
}

// FindByEmail reports inactive superadmins as missing.
func (s *SuperadminStore) FindByEmail(ctx context.Context, email string) (Superadmin, error) {
	row := s.db.QueryRow(ctx, `SELECT `+superadminColumns+` FROM superadmins WHERE lower(email) = lower($1) AND active`,
		strings.TrimSpace(email))

	admin, err := scanSuperadmin(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Superadmin{}, ErrSuperadminNotFound
	}
	if err != nil {
		return Superadmin{}, fmt.Errorf("find superadmin: %w", err)
	}
	return admin, nil
}

func scanSuperadmin(row pgx.Row) (Superadmin, error) {
	var a Superadmin
	if err := row.Scan(&a.ID, &a.Email, &a.FullName, &a.PasswordHash, &a.Active, &a.CreatedAt); err != nil {
		return Superadmin{}, err
	}
	return a, nil
}
