package wire

import (
	"krishi-setu/internal/adaptor"
	"krishi-setu/internal/usecase"
	"krishi-setu/pkg/middleware"
	"krishi-setu/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const apiPrefix = "/api/v1"

// App holds the assembled HTTP surface.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring builds services, handlers and routes from the process dependencies.
func Wiring(deps usecase.Deps, db adaptor.Pinger) *App {
	service := usecase.NewService(deps)

	cookies := adaptor.CookieConfig{
		Secure:     deps.Config.Security.CookieSecure,
		AccessTTL:  deps.Config.Token.Access.Expiry,
		RefreshTTL: deps.Config.Token.Refresh.Expiry,
	}
	handler := adaptor.NewHandler(service, db, cookies, deps.Config.App.Debug, deps.Log)

	router := setupRouter(handler, service, deps.Config, deps.Log)

	return &App{
		Router:  router,
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	service *usecase.Service,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger, config.App.Debug))
	r.Use(middleware.CORS(config.App.CORSOrigin))

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	r.Get("/health", handler.Health.Check)

	r.Route(apiPrefix, func(r chi.Router) {
		wireAuth(r, handler, service.Auth, config, logger)
		wireAccount(r, handler.Account, service.Auth, config, logger)
	})

	return r
}
