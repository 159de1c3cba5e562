package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

var (
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateMobile = errors.New("mobile already registered")
	ErrAccountNotFound = errors.New("account not found")
	ErrNotOwned        = errors.New("variant has no owning admin")
)

// SecretHasher hashes secrets before they reach the table and compares
// candidates against stored hashes.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Check(secret, hash string) bool
}

type AccountRepository interface {
	Role() entity.Role
	Create(ctx context.Context, account *entity.Account, secret string) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)
	UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error
	MarkVerified(ctx context.Context, email string) (*entity.Account, error)
	SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error
	RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, id uuid.UUID) error
	ListByAdmin(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]*entity.Account, error)
	CountByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error)
	VerifySecret(account *entity.Account, candidate string) bool
}

// variant describes where one kind of account lives and how its profile
// columns map onto the entity.
type variant struct {
	role    entity.Role
	table   string
	profile []string
	// owner is the column linking the account to its admin, empty if none
	owner  string
	values func(a *entity.Account) []any
	dests  func(a *entity.Account) []any
}

var lifecycleColumns = []string{
	"id", "email", "mobile", "password", "refresh_token", "verification_token",
	"role", "is_verified", "is_active", "created_at", "updated_at",
}

var adminVariant = variant{
	role:  entity.RoleAdmin,
	table: "admins",
	profile: []string{
		"business_name", "business_owner", "business_address", "about", "city", "state", "country",
	},
	values: func(a *entity.Account) []any {
		p := a.Admin
		if p == nil {
			p = &entity.AdminProfile{}
		}
		return []any{p.BusinessName, p.BusinessOwner, p.BusinessAddress, p.About, p.City, p.State, p.Country}
	},
	dests: func(a *entity.Account) []any {
		a.Admin = &entity.AdminProfile{}
		p := a.Admin
		return []any{&p.BusinessName, &p.BusinessOwner, &p.BusinessAddress, &p.About, &p.City, &p.State, &p.Country}
	},
}

var userVariant = variant{
	role:    entity.RoleUser,
	table:   "users",
	profile: []string{"name", "admin_id"},
	owner:   "admin_id",
	values: func(a *entity.Account) []any {
		p := a.User
		if p == nil {
			p = &entity.UserProfile{}
		}
		return []any{p.Name, p.AdminID}
	},
	dests: func(a *entity.Account) []any {
		a.User = &entity.UserProfile{}
		return []any{&a.User.Name, &a.User.AdminID}
	},
}

type accountRepository struct {
	db     database.PgxIface
	hasher SecretHasher
	log    *zap.Logger
	v      variant

	columns string
}

func newAccountRepository(db database.PgxIface, hasher SecretHasher, log *zap.Logger, v variant) *accountRepository {
	return &accountRepository{
		db:      db,
		hasher:  hasher,
		log:     log.With(zap.String("repository", v.table)),
		v:       v,
		columns: strings.Join(append(append([]string{}, lifecycleColumns...), v.profile...), ", "),
	}
}

func NewAdminRepository(db database.PgxIface, hasher SecretHasher, log *zap.Logger) AccountRepository {
	return newAccountRepository(db, hasher, log, adminVariant)
}

func NewUserRepository(db database.PgxIface, hasher SecretHasher, log *zap.Logger) AccountRepository {
	return newAccountRepository(db, hasher, log, userVariant)
}

func (r *accountRepository) Role() entity.Role {
	return r.v.role
}

func (r *accountRepository) scanDests(a *entity.Account) []any {
	dests := []any{
		&a.ID,
		&a.Email,
		&a.Mobile,
		&a.SecretHash,
		&a.RefreshToken,
		&a.VerificationToken,
		&a.Role,
		&a.IsVerified,
		&a.IsActive,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
	return append(dests, r.v.dests(a)...)
}

// Create hashes secret and inserts the account. ID and timestamps are filled
// in when unset.
func (r *accountRepository) Create(ctx context.Context, account *entity.Account, secret string) error {
	hash, err := r.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("hash secret for %s: %w", account.Email, err)
	}

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.Role = r.v.role
	account.SecretHash = hash

	args := []any{
		account.ID,
		account.Email,
		account.Mobile,
		account.SecretHash,
		account.RefreshToken,
		account.VerificationToken,
		account.Role,
		account.IsVerified,
		account.IsActive,
		account.CreatedAt,
		account.UpdatedAt,
	}
	args = append(args, r.v.values(account)...)

	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		r.v.table, r.columns, strings.Join(placeholders, ", "))

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if dup := r.duplicate(err); dup != nil {
			return dup
		}
		r.log.Error("Failed to create account",
			zap.Error(err),
			zap.String("email", account.Email),
		)
		return fmt.Errorf("create %s %s: %w", r.v.table, account.Email, err)
	}

	return nil
}

// duplicate maps a unique violation onto the field that collided.
func (r *accountRepository) duplicate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}
	if pgErr.ConstraintName == r.v.table+"_mobile_key" {
		return ErrDuplicateMobile
	}
	return ErrDuplicateEmail
}

func (r *accountRepository) findOne(ctx context.Context, where string, arg any) (*entity.Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, r.columns, r.v.table, where)

	var account entity.Account
	err := r.db.QueryRow(ctx, query, arg).Scan(r.scanDests(&account)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find account",
			zap.Error(err),
			zap.String(where, fmt.Sprint(arg)),
		)
		return nil, fmt.Errorf("find %s by %s: %w", r.v.table, where, err)
	}

	return &account, nil
}

func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	return r.findOne(ctx, "id", id)
}

func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return r.findOne(ctx, "email", email)
}

func (r *accountRepository) UpdateSecret(ctx context.Context, id uuid.UUID, secret string) error {
	hash, err := r.hasher.Hash(secret)
	if err != nil {
		return fmt.Errorf("hash secret for %s: %w", id, err)
	}

	query := fmt.Sprintf(`UPDATE %s SET password = $2, updated_at = NOW() WHERE id = $1`, r.v.table)
	return r.execOne(ctx, "update secret", query, id, hash)
}

// MarkVerified activates the account in a single conditional statement and
// returns the updated row. It returns nil when no inactive account holds
// email, either because none exists or because it is already active.
func (r *accountRepository) MarkVerified(ctx context.Context, email string) (*entity.Account, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET is_verified = TRUE, is_active = TRUE, updated_at = NOW()
		WHERE email = $1 AND NOT (is_verified AND is_active)
		RETURNING %s`, r.v.table, r.columns)

	var account entity.Account
	err := r.db.QueryRow(ctx, query, email).Scan(r.scanDests(&account)...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to mark account verified",
			zap.Error(err),
			zap.String("email", email),
		)
		return nil, fmt.Errorf("mark %s verified: %w", r.v.table, err)
	}

	return &account, nil
}

func (r *accountRepository) SetRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	query := fmt.Sprintf(`UPDATE %s SET refresh_token = $2, updated_at = NOW() WHERE id = $1`, r.v.table)
	return r.execOne(ctx, "set refresh token", query, id, token)
}

// RotateRefreshToken swaps oldToken for newToken only while oldToken is still
// the stored one. It reports false when another rotation or a logout won.
func (r *accountRepository) RotateRefreshToken(ctx context.Context, id uuid.UUID, oldToken, newToken string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET refresh_token = $3, updated_at = NOW()
		WHERE id = $1 AND refresh_token = $2`, r.v.table)

	result, err := r.db.Exec(ctx, query, id, oldToken, newToken)
	if err != nil {
		r.log.Error("Failed to rotate refresh token",
			zap.Error(err),
			zap.String("account_id", id.String()),
		)
		return false, fmt.Errorf("rotate refresh token %s: %w", id, err)
	}

	return result.RowsAffected() == 1, nil
}

// ClearRefreshToken ends the session. Clearing an already empty session is not an error.
func (r *accountRepository) ClearRefreshToken(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET refresh_token = NULL, updated_at = NOW() WHERE id = $1`, r.v.table)

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		r.log.Error("Failed to clear refresh token",
			zap.Error(err),
			zap.String("account_id", id.String()),
		)
		return fmt.Errorf("clear refresh token %s: %w", id, err)
	}

	return nil
}

func (r *accountRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.Any("account_id", args[0]),
		)
		return fmt.Errorf("%s %v: %w", op, args[0], err)
	}

	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// ListByAdmin pages through the accounts provisioned by adminID, newest first.
func (r *accountRepository) ListByAdmin(ctx context.Context, adminID uuid.UUID, limit, offset int) ([]*entity.Account, error) {
	if r.v.owner == "" {
		return nil, ErrNotOwned
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, r.columns, r.v.table, r.v.owner)

	rows, err := r.db.Query(ctx, query, adminID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list accounts",
			zap.Error(err),
			zap.String("admin_id", adminID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("list %s for admin %s: %w", r.v.table, adminID, err)
	}
	defer rows.Close()

	var accounts []*entity.Account
	for rows.Next() {
		var account entity.Account
		if err := rows.Scan(r.scanDests(&account)...); err != nil {
			r.log.Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("scan %s row: %w", r.v.table, err)
		}
		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate %s rows: %w", r.v.table, err)
	}

	return accounts, nil
}

func (r *accountRepository) CountByAdmin(ctx context.Context, adminID uuid.UUID) (int64, error) {
	if r.v.owner == "" {
		return 0, ErrNotOwned
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, r.v.table, r.v.owner)

	var count int64
	if err := r.db.QueryRow(ctx, query, adminID).Scan(&count); err != nil {
		r.log.Error("Database error counting accounts",
			zap.Error(err),
			zap.String("admin_id", adminID.String()),
		)
		return 0, fmt.Errorf("count %s for admin %s: %w", r.v.table, adminID, err)
	}

	return count, nil
}

func (r *accountRepository) VerifySecret(account *entity.Account, candidate string) bool {
	if account == nil || account.SecretHash == "" {
		return false
	}
	return r.hasher.Check(candidate, account.SecretHash)
}
