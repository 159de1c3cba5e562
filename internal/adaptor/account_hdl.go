package adaptor

import (
	"net/http"

	"krishi-setu/internal/dto/request"
	"krishi-setu/internal/usecase"
	"krishi-setu/pkg/utils"

	"go.uber.org/zap"
)

type AccountHandler struct {
	service usecase.AccountService
	debug   bool
	log     *zap.Logger
}

func NewAccountHandler(service usecase.AccountService, debug bool, log *zap.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		debug:   debug,
		log:     log,
	}
}

// Me handles GET /api/v1/auth/{role}/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, _ := utils.GetAccountFromContext(r.Context())

	profile, err := h.service.Profile(r.Context(), account)
	if err != nil {
		logFailure(h.log, err, "get profile")
		utils.ResponseError(w, err, h.debug)
		return
	}

	utils.ResponseSuccess(w, MsgProfileRetrieved, profile)
}

// ListUsers handles GET /api/v1/admin/users?page=1&per_page=10 (admin only)
func (h *AccountHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	admin, _ := utils.GetAccountFromContext(r.Context())

	query := r.URL.Query()
	req := request.NewPaginatedRequest(query.Get("page"), query.Get("per_page"))

	users, err := h.service.ListUsers(r.Context(), admin, req)
	if err != nil {
		logFailure(h.log, err, "list users")
		utils.ResponseError(w, err, h.debug)
		return
	}

	utils.ResponseSuccess(w, MsgRecordsRetrieved, users)
}
