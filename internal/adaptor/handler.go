package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"krishi-setu/internal/usecase"
	"krishi-setu/pkg/apperror"
	"krishi-setu/pkg/utils"

	"go.uber.org/zap"
)

// Success messages
const (
	MsgAccountCreated      = "Account created successfully."
	MsgAccountVerified     = "Account verified successfully!"
	MsgAlreadyVerified     = "Account is already verified!"
	MsgVerifiedMailFailed  = "Account verified successfully but failed to send confirmation mail."
	MsgLoginSuccess        = "Authentication successful."
	MsgLoggedOut           = "Session ended."
	MsgTokenRegenerated    = "Tokens reissued."
	MsgPasswordChanged     = "Password modification successful."
	MsgRecordsRetrieved    = "Records retrieved successfully."
	MsgProfileRetrieved    = "Profile retrieved successfully."
	MsgHealthy             = "OK"
	MsgDatabaseUnreachable = "Database unreachable"
)

// CookieConfig controls the token cookies set on login and refresh.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	Auth    *AuthHandler
	Account *AccountHandler
	Health  *HealthHandler
	debug   bool
}

func NewHandler(service *usecase.Service, db Pinger, cookies CookieConfig, debug bool, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, cookies, debug, log),
		Account: NewAccountHandler(service.Account, debug, log),
		Health:  NewHealthHandler(db, log),
		debug:   debug,
	}
}

// NotFound answers unknown routes with the error envelope.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	utils.ResponseError(w, apperror.NotFound(apperror.MsgInvalidRoute), h.debug)
}

func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	utils.ResponseJSON(w, http.StatusMethodNotAllowed, utils.Response{
		Message: apperror.MsgMethodNotAllowed,
		Errors:  apperror.MsgMethodNotAllowed,
	})
}

// decodeJSON reads the body into dst. An empty body is allowed when
// optional is set.
func decodeJSON(r *http.Request, dst any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return nil
	}
	return apperror.BadRequest(apperror.MsgInvalidRequestBody)
}

type HealthHandler struct {
	db  Pinger
	log *zap.Logger
}

func NewHealthHandler(db Pinger, log *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, log: log}
}

// Check handles GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Health check failed", zap.Error(err))
		utils.ResponseJSON(w, http.StatusServiceUnavailable, utils.Response{
			Message: MsgDatabaseUnreachable,
			Errors:  MsgDatabaseUnreachable,
		})
		return
	}

	utils.ResponseSuccess(w, MsgHealthy, nil)
}
