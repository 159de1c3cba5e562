package usecase

import (
	"krishi-setu/internal/data/repository"
	"krishi-setu/pkg/notify"
	"krishi-setu/pkg/token"
	"krishi-setu/pkg/utils"

	"go.uber.org/zap"
)

// Background starts a dispatch without waiting for it.
type Background interface {
	Go(intent notify.Intent, msg notify.Message)
}

// Deps are the process-scoped collaborators built once in main.
type Deps struct {
	Repo       *repository.Repository
	Tokens     *token.Set
	Notifier   notify.Notifier
	Background Background
	Config     *utils.Config
	Log        *zap.Logger
}

type Service struct {
	Auth    AuthService
	Account AccountService
}

func NewService(deps Deps) *Service {
	return &Service{
		Auth:    NewAuthService(deps),
		Account: NewAccountService(deps.Repo, deps.Log),
	}
}
