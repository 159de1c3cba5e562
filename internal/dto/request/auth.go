package request

import (
	"strings"

	"krishi-setu/internal/data/entity"
	"krishi-setu/pkg/utils"

	"github.com/google/uuid"
)

type RegisterAdminRequest struct {
	BusinessName    string `json:"businessName" validate:"required,min=3,max=50"`
	BusinessOwner   string `json:"businessOwner" validate:"required,min=3,max=50"`
	BusinessAddress string `json:"businessAddress" validate:"required,min=3,max=500"`
	About           string `json:"about" validate:"omitempty,max=1000"`
	Email           string `json:"email" validate:"required,email"`
	Mobile          string `json:"mobile" validate:"required,mobile"`
	City            string `json:"city" validate:"required,min=3,max=50"`
	State           string `json:"state" validate:"required,min=3,max=50"`
	Country         string `json:"country" validate:"required,min=3,max=50"`
}

func (r *RegisterAdminRequest) ToAccount() *entity.Account {
	return &entity.Account{
		Email:  utils.NormalizeEmail(r.Email),
		Mobile: strings.TrimSpace(r.Mobile),
		Admin: &entity.AdminProfile{
			BusinessName:    strings.TrimSpace(r.BusinessName),
			BusinessOwner:   strings.TrimSpace(r.BusinessOwner),
			BusinessAddress: strings.TrimSpace(r.BusinessAddress),
			About:           strings.TrimSpace(r.About),
			City:            strings.TrimSpace(r.City),
			State:           strings.TrimSpace(r.State),
			Country:         strings.TrimSpace(r.Country),
		},
	}
}

// RegisterUserRequest is submitted by an admin. AdminID defaults to the caller.
type RegisterUserRequest struct {
	Name    string `json:"name" validate:"required,min=3,max=50"`
	Email   string `json:"email" validate:"required,email"`
	Mobile  string `json:"mobile" validate:"required,mobile"`
	AdminID string `json:"adminId" validate:"omitempty,uuid"`
}

func (r *RegisterUserRequest) ToAccount(defaultAdmin uuid.UUID) *entity.Account {
	adminID := defaultAdmin
	if id, err := uuid.Parse(r.AdminID); err == nil {
		adminID = id
	}
	return &entity.Account{
		Email:  utils.NormalizeEmail(r.Email),
		Mobile: strings.TrimSpace(r.Mobile),
		User: &entity.UserProfile{
			Name:    strings.TrimSpace(r.Name),
			AdminID: &adminID,
		},
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required,min=8,max=50"`
	NewPassword string `json:"newPassword" validate:"required,strongsecret"`
}

// RefreshTokenRequest is optional; the cookie takes precedence.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}
