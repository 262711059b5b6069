package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

const tenantColumns = `id, slug, name, active, plan, settings, created_at, updated_at`

// TenantStore persists tenant rows. It satisfies tenant.Store.
type TenantStore struct {
	db Querier
}

func NewTenantStore(db Querier) *TenantStore {
	if db == nil {
		panic("TenantStore requires a querier")
	}
	return &TenantStore{db: db}
}

var _ tenant.Store = (*TenantStore)(nil)

// FindActiveBySlug returns tenant.ErrTenantNotFound for unknown and inactive slugs alike.
func (s *TenantStore) FindActiveBySlug(ctx context.Context, slug string) (tenant.Tenant, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE slug = $1 AND active`, slug)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("find tenant by slug: %w", err)
	}
	return t, nil
}

// GetByID returns the tenant regardless of its active flag.
func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (tenant.Tenant, error) {
	row := s.db.QueryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	t, err := scanTenant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("get tenant: %w", err)
	}
	return t, nil
}

// ListTenantsParams captures filters and pagination for List.
type ListTenantsParams struct {
	Page     int
	PageSize int
	Active   *bool
}

// ListTenantsResult includes the rows and the total count for pagination metadata.
type ListTenantsResult struct {
	Tenants    []tenant.Tenant
	TotalItems int
}

func (s *TenantStore) List(ctx context.Context, params ListTenantsParams) (ListTenantsResult, error) {
	params.Page, params.PageSize = normalizePage(params.Page, params.PageSize)

	where := "TRUE"
	var args []any
	if params.Active != nil {
		args = append(args, *params.Active)
		where = fmt.Sprintf("active = $%d", len(args))
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM tenants WHERE "+where, args...).Scan(&total); err != nil {
		return ListTenantsResult{}, fmt.Errorf("count tenants: %w", err)
	}

	result := ListTenantsResult{Tenants: []tenant.Tenant{}, TotalItems: total}
	if total == 0 {
		return result, nil
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM tenants WHERE %s ORDER BY slug LIMIT $%d OFFSET $%d`,
		tenantColumns, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return ListTenantsResult{}, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return ListTenantsResult{}, fmt.Errorf("scan tenant: %w", err)
		}
		result.Tenants = append(result.Tenants, t)
	}
	if err := rows.Err(); err != nil {
		return ListTenantsResult{}, fmt.Errorf("iterate tenants: %w", err)
	}

	return result, nil
}

// CreateTenantParams captures the fields required to insert a tenant.
type CreateTenantParams struct {
	ID       uuid.UUID
	Slug     string
	Name     string
	Plan     string
	Settings json.RawMessage
}

func (s *TenantStore) Create(ctx context.Context, params CreateTenantParams) (tenant.Tenant, error) {
	if params.ID == uuid.Nil {
		params.ID = uuid.New()
	}
	slug, err := tenant.NormalizeSlug(params.Slug)
	if err != nil {
		return tenant.Tenant{}, err
	}
	plan := strings.TrimSpace(params.Plan)
	if plan == "" {
		plan = "free"
	}
	settings := params.Settings
	if len(settings) == 0 {
		settings = json.RawMessage(`{}`)
	}

	row := s.db.QueryRow(ctx, `
        INSERT INTO tenants (id, slug, name, plan, settings)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+tenantColumns,
		params.ID, slug, strings.TrimSpace(params.Name), plan, []byte(settings),
	)

	t, err := scanTenant(row)
	if err != nil {
		if isUniqueViolation(err) {
			return tenant.Tenant{}, ErrTenantConflict
		}
		return tenant.Tenant{}, fmt.Errorf("insert tenant: %w", err)
	}
	return t, nil
}

// UpdateTenantParams holds the superadmin-editable fields; nil leaves a field unchanged.
type UpdateTenantParams struct {
	Name   *string
	Plan   *string
	Active *bool
}

func (s *TenantStore) Update(ctx context.Context, id uuid.UUID, params UpdateTenantParams) (tenant.Tenant, error) {
	var setParts []string
	var args []any

	if params.Name != nil {
		args = append(args, strings.TrimSpace(*params.Name))
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)))
	}
	if params.Plan != nil {
		args = append(args, strings.TrimSpace(*params.Plan))
		setParts = append(setParts, fmt.Sprintf("plan = $%d", len(args)))
	}
	if params.Active != nil {
		args = append(args, *params.Active)
		setParts = append(setParts, fmt.Sprintf("active = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return tenant.Tenant{}, errNoFieldsToUpdate
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE tenants SET %s, updated_at = NOW()
        WHERE id = $%d
        RETURNING %s`, strings.Join(setParts, ", "), len(args), tenantColumns)

	t, err := scanTenant(s.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return tenant.Tenant{}, tenant.ErrTenantNotFound
	}
	if err != nil {
		return tenant.Tenant{}, fmt.Errorf("update tenant: %w", err)
	}
	return t, nil
}

func scanTenant(row pgx.Row) (tenant.Tenant, error) {
	var (
		t        tenant.Tenant
		settings []byte
	)
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Active, &t.Plan, &settings, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return tenant.Tenant{}, err
	}
	if len(settings) > 0 {
		t.Settings = json.RawMessage(settings)
	}
	return t, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
