package wire

import (
	"krishi-setu/internal/adaptor"
	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/middleware"
	"krishi-setu/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireAuth mounts the same auth surface once per account variant.
func wireAuth(
	r chi.Router,
	handler *adaptor.Handler,
	auth middleware.Authenticator,
	config *utils.Config,
	log *zap.Logger,
) {
	authenticate := middleware.Authenticate(auth, log, config.App.Debug)
	admin := middleware.Admin(auth, log, config.App.Debug)

	for _, role := range entity.Roles {
		r.Route("/auth/"+role.Path(), func(r chi.Router) {
			r.Use(middleware.Role(role))

			// ==================== PUBLIC ROUTES ====================
			if role == entity.RoleAdmin {
				r.Post("/register", handler.Auth.RegisterAdmin)
			} else {
				// users are onboarded by an authenticated admin
				r.With(admin).Post("/register", handler.Auth.RegisterUser)
			}
			r.Get("/verify/{token}", handler.Auth.Verify)
			r.Post("/login", handler.Auth.Login)
			r.Post("/refresh-token", handler.Auth.RefreshToken)
			r.Post("/regenerateToken", handler.Auth.RefreshToken) // legacy client path

			// ==================== PROTECTED ROUTES ====================
			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/logout", handler.Auth.Logout)
				r.Put("/change-password", handler.Auth.ChangePassword)
				r.Get("/me", handler.Account.Me)
			})
		})
	}
}
