package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ruidolp/newposter-sub002/platform/go/auth"
)

const userColumns = `id, tenant_id, email, full_name, role, password_hash, active, created_at, updated_at`

// User is one staff account. Users never cross tenants.
type User struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenantId"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         auth.Role `json:"role"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStore exposes persistence helpers for the users table. Every query is
// filtered by tenant id.
type UserStore struct {
	db Querier
}

func NewUserStore(db Querier) *UserStore {
	if db == nil {
		panic("UserStore requires a querier")
	}
	return &UserStore{db: db}
}

// CreateUserParams captures the fields required to insert a user.
type CreateUserParams struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	FullName     string
	Role         auth.Role
	PasswordHash string
}

func (s *UserStore) Create(ctx context.Context, params CreateUserParams) (User, error) {
	if params.TenantID == uuid.Nil {
		return User{}, errors.New("tenant id is required")
	}
	if !params.Role.Valid() {
		return User{}, fmt.Errorf("invalid role %q", params.Role)
	}
	if params.PasswordHash == "" {
		return User{}, errors.New("password hash is required")
	}
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}

	row := s.db.QueryRow(ctx, `
        INSERT INTO users (id, tenant_id, email, full_name, role, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+userColumns,
		params.ID,
		params.TenantID,
		strings.ToLower(strings.TrimSpace(params.Email)),
		strings.TrimSpace(params.FullName),
		string(params.Role),
		params.PasswordHash,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUserConflict
		}
		if isForeignKeyViolation(err) {
			return User{}, fmt.Errorf("unknown tenant %s: %w", params.TenantID, err)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// FindByEmailAndTenant looks a user up inside one tenant. Inactive users are reported as missing.
func (s *UserStore) FindByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (User, error) {
	row := s.db.QueryRow(ctx, `
        SELECT `+userColumns+` FROM users
        WHERE tenant_id = $1 AND lower(email) = lower($2) AND active`,
		tenantID, strings.TrimSpace(email))

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (s *UserStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (User, error) {
	row := s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 AND id = $2`, tenantID, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsersParams captures filters and pagination for ListByTenant.
type ListUsersParams struct {
	Page     int
	PageSize int
	Sort     *string
	Email    *string
	Role     *auth.Role
}

// ListUsersResult includes the rows and the total count for pagination metadata.
type ListUsersResult struct {
	Users      []User
	TotalItems int
}

func (s *UserStore) ListByTenant(ctx context.Context, tenantID uuid.UUID, params ListUsersParams) (ListUsersResult, error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	args := []any{tenantID}
	whereParts := []string{"tenant_id = $1"}

	if params.Email != nil && strings.TrimSpace(*params.Email) != "" {
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*params.Email))+"%")
		whereParts = append(whereParts, fmt.Sprintf("LOWER(email) LIKE $%d", len(args)))
	}
	if params.Role != nil {
		args = append(args, string(*params.Role))
		whereParts = append(whereParts, fmt.Sprintf("role = $%d", len(args)))
	}
	whereSQL := strings.Join(whereParts, " AND ")

	orderSQL, err := buildUserOrderBy(params.Sort)
	if err != nil {
		return ListUsersResult{}, err
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE "+whereSQL, args...).Scan(&total); err != nil {
		return ListUsersResult{}, fmt.Errorf("count users: %w", err)
	}

	result := ListUsersResult{Users: []User{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`
        SELECT %s FROM users
        WHERE %s
        %s
        LIMIT $%d OFFSET $%d`, userColumns, whereSQL, orderSQL, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return ListUsersResult{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return ListUsersResult{}, fmt.Errorf("scan user: %w", err)
		}
		result.Users = append(result.Users, user)
	}
	if err := rows.Err(); err != nil {
		return ListUsersResult{}, fmt.Errorf("iterate users: %w", err)
	}

	return result, nil
}

func buildUserOrderBy(sort *string) (string, error) {
	const defaultOrder = "ORDER BY created_at DESC"
	if sort == nil || strings.TrimSpace(*sort) == "" {
		return defaultOrder, nil
	}

	mapping := map[string]string{
		"email":     "email",
		"fullName":  "full_name",
		"role":      "role",
		"createdAt": "created_at",
		"updatedAt": "updated_at",
	}

	var clauses []string
	for _, raw := range strings.Split(*sort, ",") {
		f := strings.TrimSpace(raw)
		if f == "" {
			continue
		}

		direction := "ASC"
		if strings.HasPrefix(f, "-") {
			direction = "DESC"
			f = strings.TrimPrefix(f, "-")
		}

		column, ok := mapping[f]
		if !ok {
			return "", fmt.Errorf("unsupported sort field %q", f)
		}
		clauses = append(clauses, column+" "+direction)
	}

	if len(clauses) == 0 {
		return defaultOrder, nil
	}
	return "ORDER BY " + strings.Join(clauses, ", "), nil
}

// SetActive enables or disables a user inside its tenant.
func (s *UserStore) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) (User, error) {
	row := s.db.QueryRow(ctx, `
        UPDATE users SET active = $1, updated_at = NOW()
        WHERE tenant_id = $2 AND id = $3
        RETURNING `+userColumns, active, tenantID, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user User
		role string
	)
	if err := row.Scan(&user.ID, &user.TenantID, &user.Email, &user.FullName, &role,
		&user.PasswordHash, &user.Active, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return User{}, err
	}
	user.Role = auth.Role(role)
	return user, nil
}
