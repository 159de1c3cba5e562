package usecase

import (
	"context"

	"krishi-setu/internal/data/entity"
	"krishi-setu/internal/data/repository"
	"krishi-setu/internal/dto/request"
	"krishi-setu/internal/dto/response"
	"krishi-setu/pkg/apperror"

	"go.uber.org/zap"
)

type AccountService interface {
	Profile(ctx context.Context, account *entity.Account) (*response.AccountResponse, error)
	ListUsers(ctx context.Context, admin *entity.Account, req request.PaginatedRequest) (*response.PaginatedResponse[response.AccountResponse], error)
}

type accountService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewAccountService(repo *repository.Repository, log *zap.Logger) AccountService {
	return &accountService{
		repo: repo,
		log:  log,
	}
}

func (s *accountService) Profile(ctx context.Context, account *entity.Account) (*response.AccountResponse, error) {
	if account == nil {
		return nil, apperror.Unauthorized(apperror.MsgUnauthorized)
	}
	resp := response.AccountToResponse(account)
	return &resp, nil
}

// ListUsers pages through the users provisioned by admin.
func (s *accountService) ListUsers(ctx context.Context, admin *entity.Account, req request.PaginatedRequest) (*response.PaginatedResponse[response.AccountResponse], error) {
	if admin == nil {
		return nil, apperror.Unauthorized(apperror.MsgUnauthorized)
	}
	if admin.Role != entity.RoleAdmin {
		return nil, apperror.Forbidden(apperror.MsgAdminOnly)
	}

	users, err := s.repo.User.ListByAdmin(ctx, admin.ID, req.Limit(), req.Offset())
	if err != nil {
		s.log.Error("Failed to list users",
			zap.Error(err),
			zap.String("admin_id", admin.ID.String()),
			zap.Int("page", req.Page),
		)
		return nil, apperror.Internal(err)
	}

	total, err := s.repo.User.CountByAdmin(ctx, admin.ID)
	if err != nil {
		s.log.Error("Failed to count users", zap.Error(err))
		return nil, apperror.Internal(err)
	}

	s.log.Info("Users retrieved",
		zap.Int("count", len(users)),
		zap.Int64("total", total),
		zap.Int("page", req.Page),
	)

	return response.NewPaginatedResponse(response.AccountsToResponse(users), req.Page, req.Limit(), total), nil
}
