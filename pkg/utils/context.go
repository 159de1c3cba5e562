package utils

import (
	"context"

	"krishi-setu/internal/data/entity"
)

type contextKey string

const (
	AccountKey contextKey = "account"
	RoleKey    contextKey = "role"
)

// SetAccountContext attaches the authenticated account for downstream handlers.
func SetAccountContext(ctx context.Context, account *entity.Account) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

func GetAccountFromContext(ctx context.Context) (*entity.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*entity.Account)
	return account, ok && account != nil
}

// SetRoleContext records which variant a route serves.
func SetRoleContext(ctx context.Context, role entity.Role) context.Context {
	return context.WithValue(ctx, RoleKey, role)
}

func GetRoleFromContext(ctx context.Context) (entity.Role, bool) {
	role, ok := ctx.Value(RoleKey).(entity.Role)
	return role, ok && role.Valid()
}
