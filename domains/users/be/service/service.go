package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/domains/users/be/repo"
	"github.com/ruidolp/newposter-sub002/platform/go/auth"
	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
	"github.com/ruidolp/newposter-sub002/platform/go/tenant"
)

// FieldErrors maps request fields to validation issues.
type FieldErrors map[string][]string

// ValidationError is returned when the input payload is invalid.
type ValidationError struct {
	Fields FieldErrors
}

func (v *ValidationError) Error() string {
	return "validation error"
}

// Domain sentinel errors.
var (
	ErrNotFound  = errors.New("user not found")
	ErrConflict  = errors.New("user conflict")
	ErrForbidden = errors.New("role exceeds caller")
)

const minPasswordLength = 8

// User is the domain view of a staff account. The password hash never leaves the service.
type User struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	FullName  string
	Role      auth.Role
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ListOptions controls filtering and pagination.
type ListOptions struct {
	Email    *string
	Role     *string
	Page     int
	PageSize int
	Sort     *string
}

// ListResult wraps a page of users with pagination metadata.
type ListResult struct {
	Users      []User
	Page       int
	PageSize   int
	TotalItems int
	TotalPages int
}

// CreateInput represents the payload required to create a staff account.
type CreateInput struct {
	Email    string
	FullName string
	Role     string
	Password string
}

// TenantSource yields the request's tenant. tenant.Provider satisfies it.
type TenantSource interface {
	RequireTenant(ctx context.Context) (tenant.Tenant, error)
}

// Service defines the business operations for the users domain.
type Service interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (User, error)
	Me(ctx context.Context) (User, error)
	Create(ctx context.Context, input CreateInput) (User, error)
}

type service struct {
	repo    repo.Repository
	tenants TenantSource
	hasher  *auth.PasswordHasher
}

// New constructs a users Service.
func New(r repo.Repository, tenants TenantSource, hasher *auth.PasswordHasher) Service {
	if r == nil {
		panic("users repository is required")
	}
	if tenants == nil {
		panic("tenant source is required")
	}
	if hasher == nil {
		panic("password hasher is required")
	}
	return &service{repo: r, tenants: tenants, hasher: hasher}
}

func (s *service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return ListResult{}, err
	}

	page := opts.Page
	if page < 1 {
		page = 1
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	sortValue, err := sanitizeSort(opts.Sort)
	if err != nil {
		return ListResult{}, err
	}

	params := persistence.ListUsersParams{Page: page, PageSize: pageSize, Sort: sortValue}
	if opts.Email != nil && strings.TrimSpace(*opts.Email) != "" {
		email := strings.TrimSpace(*opts.Email)
		params.Email = &email
	}
	if opts.Role != nil && strings.TrimSpace(*opts.Role) != "" {
		role, err := auth.ParseRole(*opts.Role)
		if err != nil {
			return ListResult{}, newValidationError(map[string]string{"role": err.Error()})
		}
		params.Role = &role
	}

	result, err := s.repo.List(ctx, current.ID, params)
	if err != nil {
		return ListResult{}, err
	}

	users := make([]User, 0, len(result.Users))
	for _, record := range result.Users {
		users = append(users, mapUser(record))
	}

	totalPages := 0
	if result.TotalItems > 0 {
		totalPages = (result.TotalItems + pageSize - 1) / pageSize
	}

	return ListResult{
		Users:      users,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: result.TotalItems,
		TotalPages: totalPages,
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (User, error) {
	if id == uuid.Nil {
		return User{}, ErrNotFound
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return User{}, err
	}

	record, err := s.repo.Get(ctx, current.ID, id)
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return mapUser(record), nil
}

func (s *service) Me(ctx context.Context) (User, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return User{}, auth.ErrUnauthenticated
	}
	return s.Get(ctx, session.UserID)
}

// Create adds a staff account to the caller's tenant. Callers cannot grant a
// role above their own.
func (s *service) Create(ctx context.Context, input CreateInput) (User, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok {
		return User{}, auth.ErrUnauthenticated
	}

	current, err := s.tenants.RequireTenant(ctx)
	if err != nil {
		return User{}, err
	}

	fieldErrors := FieldErrors{}

	email := strings.TrimSpace(input.Email)
	if email == "" {
		fieldErrors.add("email", "email is required")
	} else if !strings.Contains(email, "@") {
		fieldErrors.add("email", "email must contain '@'")
	}

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		fieldErrors.add("fullName", "fullName is required")
	}

	role, roleErr := auth.ParseRole(input.Role)
	if roleErr != nil {
		fieldErrors.add("role", roleErr.Error())
	}

	if len(input.Password) < minPasswordLength {
		fieldErrors.add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	if len(fieldErrors) > 0 {
		return User{}, &ValidationError{Fields: fieldErrors}
	}

	if !session.Role.AtLeast(role) {
		return User{}, ErrForbidden
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return User{}, err
	}

	record, err := s.repo.Create(ctx, persistence.CreateUserParams{
		ID:           uuid.New(),
		TenantID:     current.ID,
		Email:        strings.ToLower(email),
		FullName:     fullName,
		Role:         role,
		PasswordHash: hash,
	})
	if err != nil {
		return User{}, mapPersistenceError(err)
	}
	return mapUser(record), nil
}

func sanitizeSort(sort *string) (*string, error) {
	if sort == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*sort)
	if trimmed == "" {
		return nil, nil
	}

	allowed := map[string]struct{}{
		"email":     {},
		"fullName":  {},
		"role":      {},
		"createdAt": {},
		"updatedAt": {},
	}

	for _, raw := range strings.Split(trimmed, ",") {
		field := strings.TrimPrefix(strings.TrimSpace(raw), "-")
		if field == "" {
			continue
		}
		if _, ok := allowed[field]; !ok {
			return nil, newValidationError(map[string]string{"sort": fmt.Sprintf("unsupported sort field %q", field)})
		}
	}

	return &trimmed, nil
}

func mapUser(record persistence.User) User {
	return User{
		ID:        record.ID,
		TenantID:  record.TenantID,
		Email:     record.Email,
		FullName:  record.FullName,
		Role:      record.Role,
		Active:    record.Active,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func mapPersistenceError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrUserNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrUserConflict):
		return ErrConflict
	default:
		return err
	}
}

func newValidationError(fields map[string]string) error {
	fe := FieldErrors{}
	for key, message := range fields {
		fe.add(key, message)
	}
	return &ValidationError{Fields: fe}
}

func (f FieldErrors) add(field, message string) {
	if f == nil {
		return
	}
	f[field] = append(f[field], message)
}
