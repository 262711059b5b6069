package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/ruidolp/newposter-sub002/platform/go/persistence"
)

// Repository looks up login identities.
type Repository interface {
	FindUserByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error)
	FindSuperadminByEmail(ctx context.Context, email string) (persistence.Superadmin, error)
}

type postgresRepository struct {
	users  *persistence.UserStore
	admins *persistence.SuperadminStore
}

// NewPostgresRepository constructs a repository backed by the shared persistence layer.
func NewPostgresRepository(users *persistence.UserStore, admins *persistence.SuperadminStore) Repository {
	if users == nil || admins == nil {
		panic("user and superadmin stores are required")
	}
	return &postgresRepository{users: users, admins: admins}
}

func (r *postgresRepository) FindUserByEmailAndTenant(ctx context.Context, email string, tenantID uuid.UUID) (persistence.User, error) {
	return r.users.FindByEmailAndTenant(ctx, email, tenantID)
}

func (r *postgresRepository) FindSuperadminByEmail(ctx context.Context, email string) (persistence.Superadmin, error) {
	return r.admins.FindByEmail(ctx, email)
}
