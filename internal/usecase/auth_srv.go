package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"krishi-setu/internal/data/entity"
	"krishi-setu/internal/data/repository"
	"krishi-setu/internal/dto/request"
	"krishi-setu/internal/dto/response"
	"krishi-setu/pkg/apperror"
	"krishi-setu/pkg/notify"
	"krishi-setu/pkg/token"
	"krishi-setu/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultMailTimeout = 10 * time.Second

type AuthService interface {
	RegisterAdmin(ctx context.Context, req *request.RegisterAdminRequest) (*response.AccountResponse, error)
	RegisterUser(ctx context.Context, caller *entity.Account, req *request.RegisterUserRequest) (*response.AccountResponse, error)
	Verify(ctx context.Context, role entity.Role, verificationToken string) (*response.VerifyResponse, error)
	Login(ctx context.Context, role entity.Role, req *request.LoginRequest) (*response.LoginResponse, error)
	Logout(ctx context.Context, account *entity.Account) error
	Refresh(ctx context.Context, role entity.Role, refreshToken string) (*response.TokenResponse, error)
	ChangePassword(ctx context.Context, account *entity.Account, req *request.ChangePasswordRequest) error
	Authenticate(ctx context.Context, role entity.Role, accessToken string) (*entity.Account, error)
	AuthenticateAdmin(ctx context.Context, accessToken string) (*entity.Account, error)
	RequireAdmin(account *entity.Account) error
}

type authService struct {
	repo       *repository.Repository
	tokens     *token.Set
	notifier   notify.Notifier
	background Background
	config     *utils.Config
	log        *zap.Logger
}

func NewAuthService(deps Deps) AuthService {
	return &authService{
		repo:       deps.Repo,
		tokens:     deps.Tokens,
		notifier:   deps.Notifier,
		background: deps.Background,
		config:     deps.Config,
		log:        deps.Log,
	}
}

func (s *authService) store(role entity.Role) (repository.AccountRepository, error) {
	store, ok := s.repo.Account(role)
	if !ok {
		return nil, apperror.BadRequest(apperror.MsgInvalidRole)
	}
	return store, nil
}

func (s *authService) RegisterAdmin(ctx context.Context, req *request.RegisterAdminRequest) (*response.AccountResponse, error) {
	req.Email = utils.NormalizeEmail(req.Email)
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register admin validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation(apperror.MsgInvalidFieldValues, errs)
	}

	return s.register(ctx, entity.RoleAdmin, req.ToAccount())
}

// RegisterUser provisions an end user on behalf of an admin.
func (s *authService) RegisterUser(ctx context.Context, caller *entity.Account, req *request.RegisterUserRequest) (*response.AccountResponse, error) {
	if err := s.RequireAdmin(caller); err != nil {
		return nil, err
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register user validation failed", zap.Any("errors", errs))
		return nil, apperror.Validation(apperror.MsgInvalidFieldValues, errs)
	}

	account := req.ToAccount(caller.ID)
	if owner := *account.User.AdminID; owner != caller.ID {
		admin, err := s.repo.Admin.FindByID(ctx, owner)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if admin == nil {
			return nil, apperror.NotFound(apperror.MsgAdminNotFound)
		}
	}

	return s.register(ctx, entity.RoleUser, account)
}

// register is the creation path shared by both variants: mint the
// verification token, store the account under its default secret and mail
// the verification link in the background.
func (s *authService) register(ctx context.Context, role entity.Role, account *entity.Account) (*response.AccountResponse, error) {
	store, err := s.store(role)
	if err != nil {
		return nil, err
	}

	verificationToken, err := s.tokens.Verification.Issue("", account.Email)
	if err != nil {
		s.log.Error("Failed to issue verification token", zap.Error(err))
		return nil, apperror.Internal(err)
	}
	account.Role = role
	account.VerificationToken = verificationToken
	account.IsVerified = false
	account.IsActive = false

	secret := utils.DefaultSecret(s.config.Security.DefaultPasswordPrefix, account.Mobile)
	if err := store.Create(ctx, account, secret); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperror.Conflict(apperror.MsgEmailAlreadyExist)
		case errors.Is(err, repository.ErrDuplicateMobile):
			return nil, apperror.Conflict(apperror.MsgMobileAlreadyExist)
		}
		s.log.Error("Failed to create account", zap.Error(err), zap.String("role", string(role)))
		return nil, apperror.Internal(err)
	}

	s.background.Go(notify.IntentVerification, s.message(account))

	s.log.Info("Account registered",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(role)),
	)

	resp := response.AccountToResponse(account)
	return &resp, nil
}

// Verify activates the account named by the token. Verifying an account that
// is already active succeeds without touching it or sending mail again.
func (s *authService) Verify(ctx context.Context, role entity.Role, verificationToken string) (*response.VerifyResponse, error) {
	store, err := s.store(role)
	if err != nil {
		return nil, err
	}

	claims, err := s.tokens.Verification.Parse(verificationToken)
	if err != nil {
		s.log.Warn("Rejected verification token", zap.Error(err), zap.String("role", string(role)))
		return nil, apperror.BadRequest(apperror.MsgInvalidToken)
	}

	// the update only matches accounts that are not active yet, so of two
	// concurrent verifications exactly one sends the confirmation
	account, err := store.MarkVerified(ctx, claims.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if account == nil {
		existing, err := store.FindByEmail(ctx, claims.Email)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if existing == nil {
			return nil, apperror.NotFound(apperror.MsgUserNotFound)
		}
		return &response.VerifyResponse{
			Account:         response.AccountToResponse(existing),
			AlreadyVerified: true,
		}, nil
	}

	s.log.Info("Account verified",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(role)),
	)

	timeout := s.config.Email.Timeout
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	mailCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	msg := s.message(account)
	msg.DefaultSecret = utils.DefaultSecret(s.config.Security.DefaultPasswordPrefix, account.Mobile)
	_, mailErr := s.notifier.Dispatch(mailCtx, notify.IntentRegistration, msg)
	if mailErr != nil {
		s.log.Warn("Account verified but confirmation mail failed",
			zap.Error(mailErr),
			zap.String("account_id", account.ID.String()),
		)
	}

	return &response.VerifyResponse{
		Account:  response.AccountToResponse(account),
		MailSent: mailErr == nil,
	}, nil
}

func (s *authService) Login(ctx context.Context, role entity.Role, req *request.LoginRequest) (*response.LoginResponse, error) {
	store, err := s.store(role)
	if err != nil {
		return nil, err
	}
	req.Email = utils.NormalizeEmail(req.Email)
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation(apperror.MsgInvalidFieldValues, errs)
	}

	account, err := store.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if account == nil {
		return nil, apperror.NotFound(apperror.MsgUserNotFound)
	}

	if !store.VerifySecret(account, req.Password) {
		s.log.Warn("Invalid password", zap.String("account_id", account.ID.String()))
		return nil, apperror.BadRequest(apperror.MsgInvalidCredential)
	}

	if !account.CanLogin() {
		s.log.Warn("Inactive account tried to login", zap.String("account_id", account.ID.String()))
		return nil, apperror.Unauthorized(apperror.MsgUnauthorized)
	}

	pair, err := s.tokens.IssuePair(account.ID.String(), account.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if err := store.SetRefreshToken(ctx, account.ID, pair.RefreshToken); err != nil {
		return nil, apperror.Internal(err)
	}

	s.log.Info("Account logged in",
		zap.String("account_id", account.ID.String()),
		zap.String("role", string(role)),
	)

	return &response.LoginResponse{
		Account:      response.AccountToResponse(account),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout drops the stored refresh token. Logging out twice is not an error.
func (s *authService) Logout(ctx context.Context, account *entity.Account) error {
	if account == nil {
		return apperror.Unauthorized(apperror.MsgUnauthorized)
	}
	store, err := s.store(account.Role)
	if err != nil {
		return err
	}

	if err := store.ClearRefreshToken(ctx, account.ID); err != nil {
		return apperror.Internal(err)
	}

	s.log.Info("Account logged out", zap.String("account_id", account.ID.String()))
	return nil
}

// Refresh exchanges the stored refresh token for a new pair. The swap only
// happens while the presented token is still the stored one, so a token can
// be redeemed once.
func (s *authService) Refresh(ctx context.Context, role entity.Role, refreshToken string) (*response.TokenResponse, error) {
	store, err := s.store(role)
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, apperror.Unauthorized(apperror.MsgInvalidRefreshToken)
	}

	claims, err := s.tokens.Refresh.ParseSubject(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return nil, apperror.Unauthorized(apperror.MsgExpiredRefreshToken)
		}
		return nil, apperror.Unauthorized(apperror.MsgInvalidRefreshToken)
	}

	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.MsgInvalidRefreshToken)
	}

	account, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if account == nil || !account.HasSession() ||
		subtle.ConstantTimeCompare([]byte(*account.RefreshToken), []byte(refreshToken)) != 1 {
		s.log.Warn("Refresh token does not match stored session", zap.String("account_id", id.String()))
		return nil, apperror.Unauthorized(apperror.MsgInvalidRefreshToken)
	}

	pair, err := s.tokens.IssuePair(account.ID.String(), account.Email)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	swapped, err := store.RotateRefreshToken(ctx, account.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !swapped {
		s.log.Warn("Refresh token superseded concurrently", zap.String("account_id", id.String()))
		return nil, apperror.Unauthorized(apperror.MsgInvalidRefreshToken)
	}

	return &response.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, account *entity.Account, req *request.ChangePasswordRequest) error {
	if account == nil {
		return apperror.Unauthorized(apperror.MsgUnauthorized)
	}
	store, err := s.store(account.Role)
	if err != nil {
		return err
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return apperror.Validation(apperror.MsgInvalidFieldValues, errs)
	}

	current, err := store.FindByID(ctx, account.ID)
	if err != nil {
		return apperror.Internal(err)
	}
	if current == nil {
		return apperror.Unauthorized(apperror.MsgUnauthorized)
	}

	if !store.VerifySecret(current, req.OldPassword) {
		return apperror.BadRequest(apperror.MsgInvalidOldPassword)
	}

	if err := store.UpdateSecret(ctx, current.ID, req.NewPassword); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return apperror.Unauthorized(apperror.MsgUnauthorized)
		}
		return apperror.Internal(err)
	}

	s.background.Go(notify.IntentChangePassword, s.message(current))

	s.log.Info("Password changed", zap.String("account_id", current.ID.String()))
	return nil
}

// Authenticate resolves an access token to the account holding a live
// session. Secret and verification token are stripped from the result.
func (s *authService) Authenticate(ctx context.Context, role entity.Role, accessToken string) (*entity.Account, error) {
	store, err := s.store(role)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, apperror.Unauthorized(apperror.MsgUnauthorized)
	}

	claims, err := s.tokens.Access.ParseSubject(accessToken)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.MsgInvalidToken)
	}
	id, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return nil, apperror.Unauthorized(apperror.MsgInvalidToken)
	}

	account, err := store.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if account == nil {
		return nil, apperror.NotFound(apperror.MsgUserNotFound)
	}
	if !account.HasSession() {
		return nil, apperror.Unauthorized(apperror.MsgSessionExpired)
	}

	account.SecretHash = ""
	account.VerificationToken = ""
	return account, nil
}

// AuthenticateAdmin is the strict gate. The caller is resolved in whichever
// store holds the token's account so that a live non-admin session is told
// Forbidden rather than NotFound.
func (s *authService) AuthenticateAdmin(ctx context.Context, accessToken string) (*entity.Account, error) {
	account, err := s.Authenticate(ctx, entity.RoleAdmin, accessToken)
	if err == nil {
		return account, s.RequireAdmin(account)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	for _, role := range entity.Roles {
		if role == entity.RoleAdmin {
			continue
		}
		if _, ok := s.repo.Account(role); !ok {
			continue
		}
		other, otherErr := s.Authenticate(ctx, role, accessToken)
		if otherErr == nil {
			s.log.Warn("Non-admin session on admin route",
				zap.String("account_id", other.ID.String()),
				zap.String("role", string(role)),
			)
			return nil, s.RequireAdmin(other)
		}
		if !errors.Is(otherErr, apperror.ErrNotFound) {
			return nil, otherErr
		}
	}
	return nil, err
}

func (s *authService) RequireAdmin(account *entity.Account) error {
	if account == nil {
		return apperror.Unauthorized(apperror.MsgUnauthorized)
	}
	if account.Role != entity.RoleAdmin {
		return apperror.Forbidden(apperror.MsgAdminOnly)
	}
	return nil
}

func (s *authService) message(account *entity.Account) notify.Message {
	return notify.Message{
		AccountID:        account.ID.String(),
		To:               account.Email,
		Name:             account.DisplayName(),
		VerificationLink: s.verificationLink(account),
	}
}

func (s *authService) verificationLink(account *entity.Account) string {
	if account.VerificationToken == "" {
		return ""
	}
	return fmt.Sprintf("%s/auth/%s/verify/%s",
		s.config.App.BaseURL, account.Role.Path(), account.VerificationToken)
}
