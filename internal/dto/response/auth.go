package response

import (
	"time"

	"krishi-setu/internal/data/entity"
)

// AccountResponse is the sanitized projection of an account. Secret, refresh
// token and verification token never leave the service.
type AccountResponse struct {
	ID         string      `json:"id"`
	Email      string      `json:"email"`
	Mobile     string      `json:"mobile"`
	Role       entity.Role `json:"role"`
	IsVerified bool        `json:"isVerified"`
	IsActive   bool        `json:"isActive"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`

	// admin profile
	BusinessName    string `json:"businessName,omitempty"`
	BusinessOwner   string `json:"businessOwner,omitempty"`
	BusinessAddress string `json:"businessAddress,omitempty"`
	About           string `json:"about,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`

	// user profile
	Name    string  `json:"name,omitempty"`
	AdminID *string `json:"adminId,omitempty"`
}

type LoginResponse struct {
	Account      AccountResponse `json:"account"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type VerifyResponse struct {
	Account         AccountResponse `json:"account"`
	AlreadyVerified bool            `json:"alreadyVerified"`
	MailSent        bool            `json:"mailSent"`
}

func AccountToResponse(a *entity.Account) AccountResponse {
	resp := AccountResponse{
		ID:         a.ID.String(),
		Email:      a.Email,
		Mobile:     a.Mobile,
		Role:       a.Role,
		IsVerified: a.IsVerified,
		IsActive:   a.IsActive,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}

	if p := a.Admin; p != nil {
		resp.BusinessName = p.BusinessName
		resp.BusinessOwner = p.BusinessOwner
		resp.BusinessAddress = p.BusinessAddress
		resp.About = p.About
		resp.City = p.City
		resp.State = p.State
		resp.Country = p.Country
	}
	if p := a.User; p != nil {
		resp.Name = p.Name
		if p.AdminID != nil {
			id := p.AdminID.String()
			resp.AdminID = &id
		}
	}

	return resp
}

func AccountsToResponse(accounts []*entity.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountToResponse(a))
	}
	return out
}
