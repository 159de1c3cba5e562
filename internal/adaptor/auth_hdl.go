package adaptor

import (
	"net/http"
	"time"

	"krishi-setu/internal/dto/request"
	"krishi-setu/internal/usecase"
	"krishi-setu/pkg/apperror"
	"krishi-setu/pkg/middleware"
	"krishi-setu/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	cookies CookieConfig
	debug   bool
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, cookies CookieConfig, debug bool, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		debug:   debug,
		log:     log,
	}
}

// RegisterAdmin handles POST /api/v1/auth/admin/register
func (h *AuthHandler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterAdminRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseError(w, err, h.debug)
		return
	}

	resp, err := h.service.RegisterAdmin(r.Context(), &req)
	if err != nil {
		h.fail(w, err, "register admin")
		return
	}

	utils.ResponseCreated(w, MsgAccountCreated, resp)
}

// RegisterUser handles POST /api/v1/auth/user/register (admin only)
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := utils.GetAccountFromContext(r.Context())

	var req request.RegisterUserRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseError(w, err, h.debug)
		return
	}

	resp, err := h.service.RegisterUser(r.Context(), caller, &req)
	if err != nil {
		h.fail(w, err, "register user")
		return
	}

	utils.ResponseCreated(w, MsgAccountCreated, resp)
}

// Verify handles GET /api/v1/auth/{role}/verify/{token}
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	role, ok := utils.GetRoleFromContext(r.Context())
	if !ok {
		utils.ResponseError(w, apperror.BadRequest(apperror.MsgInvalidRole), h.debug)
		return
	}

	resp, err := h.service.Verify(r.Context(), role, chi.URLParam(r, "token"))
	if err != nil {
		h.fail(w, err, "verify account")
		return
	}

	message := MsgAccountVerified
	switch {
	case resp.AlreadyVerified:
		message = MsgAlreadyVerified
	case !resp.MailSent:
		message = MsgVerifiedMailFailed
	}

	utils.ResponseSuccess(w, message, resp)
}

// Login handles POST /api/v1/auth/{role}/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	role, ok := utils.GetRoleFromContext(r.Context())
	if !ok {
		utils.ResponseError(w, apperror.BadRequest(apperror.MsgInvalidRole), h.debug)
		return
	}

	var req request.LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseError(w, err, h.debug)
		return
	}

	resp, err := h.service.Login(r.Context(), role, &req)
	if err != nil {
		h.fail(w, err, "login")
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	utils.ResponseSuccess(w, MsgLoginSuccess, resp)
}

// Logout handles POST /api/v1/auth/{role}/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	account, _ := utils.GetAccountFromContext(r.Context())

	if err := h.service.Logout(r.Context(), account); err != nil {
		h.fail(w, err, "logout")
		return
	}

	h.clearTokenCookies(w)
	utils.ResponseSuccess(w, MsgLoggedOut, nil)
}

// RefreshToken handles POST /api/v1/auth/{role}/refresh-token. The cookie
// wins over the body.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	role, ok := utils.GetRoleFromContext(r.Context())
	if !ok {
		utils.ResponseError(w, apperror.BadRequest(apperror.MsgInvalidRole), h.debug)
		return
	}

	var req request.RefreshTokenRequest
	if err := decodeJSON(r, &req, true); err != nil {
		utils.ResponseError(w, err, h.debug)
		return
	}
	if c, err := r.Cookie(middleware.RefreshTokenCookie); err == nil && c.Value != "" {
		req.RefreshToken = c.Value
	}

	resp, err := h.service.Refresh(r.Context(), role, req.RefreshToken)
	if err != nil {
		h.fail(w, err, "refresh token")
		return
	}

	h.setTokenCookies(w, resp.AccessToken, resp.RefreshToken)
	utils.ResponseCreated(w, MsgTokenRegenerated, resp)
}

// ChangePassword handles PUT /api/v1/auth/{role}/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, _ := utils.GetAccountFromContext(r.Context())

	var req request.ChangePasswordRequest
	if err := decodeJSON(r, &req, false); err != nil {
		utils.ResponseError(w, err, h.debug)
		return
	}

	if err := h.service.ChangePassword(r.Context(), account, &req); err != nil {
		h.fail(w, err, "change password")
		return
	}

	utils.ResponseSuccess(w, MsgPasswordChanged, nil)
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, h.cookie(middleware.AccessTokenCookie, accessToken, h.cookies.AccessTTL))
	http.SetCookie(w, h.cookie(middleware.RefreshTokenCookie, refreshToken, h.cookies.RefreshTTL))
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		c := h.cookie(name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (h *AuthHandler) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// fail logs by kind and writes the error envelope.
func (h *AuthHandler) fail(w http.ResponseWriter, err error, operation string) {
	logFailure(h.log, err, operation)
	utils.ResponseError(w, err, h.debug)
}

func logFailure(log *zap.Logger, err error, operation string) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		return
	}
	log.Warn(operation+" rejected",
		zap.String("kind", string(appErr.Kind)),
		zap.String("message", appErr.Message),
	)
}
