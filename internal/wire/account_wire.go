package wire

import (
	"krishi-setu/internal/adaptor"
	"krishi-setu/pkg/middleware"
	"krishi-setu/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireAccount configures the admin-only account management routes.
func wireAccount(
	r chi.Router,
	accountHandler *adaptor.AccountHandler,
	auth middleware.Authenticator,
	config *utils.Config,
	log *zap.Logger,
) {
	r.With(middleware.Admin(auth, log, config.App.Debug)).Route("/admin/users", func(r chi.Router) {
		r.Get("/", accountHandler.ListUsers) // GET /api/v1/admin/users?page=1&per_page=10
	})
}
