package middleware

import (
	"context"
	"net/http"
	"strings"

	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/apperror"
	"krishi-setu/pkg/utils"

	"go.uber.org/zap"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// Authenticator resolves access tokens to accounts with a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, role entity.Role, accessToken string) (*entity.Account, error)
	AuthenticateAdmin(ctx context.Context, accessToken string) (*entity.Account, error)
}

// Role marks every request below it as served for role.
func Role(role entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(utils.SetRoleContext(r.Context(), role)))
		})
	}
}

// AccessToken reads the token from the cookie first, then the bearer header.
func AccessToken(r *http.Request) string {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Authenticate loads the caller for the role set by Role and puts it in the
// request context.
func Authenticate(auth Authenticator, logger *zap.Logger, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok {
				utils.ResponseError(w, apperror.BadRequest(apperror.MsgInvalidRole), debug)
				return
			}

			account, err := auth.Authenticate(r.Context(), role, AccessToken(r))
			if err != nil {
				logger.Warn("Authentication failed",
					zap.Error(err),
					zap.String("role", string(role)),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseError(w, err, debug)
				return
			}

			ctx := utils.SetAccountContext(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Admin is the strict gate: it authenticates the caller against every
// account variant and rejects live sessions that are not admins with
// Forbidden. It replaces Authenticate on admin-only routes.
func Admin(auth Authenticator, logger *zap.Logger, debug bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, err := auth.AuthenticateAdmin(r.Context(), AccessToken(r))
			if err != nil {
				logger.Warn("Admin check failed",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseError(w, err, debug)
				return
			}

			ctx := utils.SetAccountContext(r.Context(), account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
