package repository

import (
	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Admin AccountRepository
	User  AccountRepository

	accounts map[entity.Role]AccountRepository
}

func NewRepository(db database.PgxIface, hasher SecretHasher, log *zap.Logger) *Repository {
	return NewRepositoryFrom(
		NewAdminRepository(db, hasher, log),
		NewUserRepository(db, hasher, log),
	)
}

// NewRepositoryFrom assembles the aggregate from ready stores, keyed by the
// role each one serves.
func NewRepositoryFrom(stores ...AccountRepository) *Repository {
	r := &Repository{accounts: make(map[entity.Role]AccountRepository, len(stores))}
	for _, s := range stores {
		r.accounts[s.Role()] = s
		switch s.Role() {
		case entity.RoleAdmin:
			r.Admin = s
		case entity.RoleUser:
			r.User = s
		}
	}
	return r
}

// Account returns the store holding accounts of role.
func (r *Repository) Account(role entity.Role) (AccountRepository, bool) {
	s, ok := r.accounts[role]
	return s, ok
}
