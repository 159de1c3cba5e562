package entity

import "github.com/google/uuid"

// Account is the credential record shared by both variants. Exactly one of
// Admin or User is set, matching Role.
type Account struct {
	Base
	Email             string  `db:"email"`
	Mobile            string  `db:"mobile"`
	SecretHash        string  `db:"password"`
	RefreshToken      *string `db:"refresh_token"`
	VerificationToken string  `db:"verification_token"`
	Role              Role    `db:"role"`
	IsVerified        bool    `db:"is_verified"`
	IsActive          bool    `db:"is_active"`

	Admin *AdminProfile
	User  *UserProfile
}

type AdminProfile struct {
	BusinessName    string `db:"business_name"`
	BusinessOwner   string `db:"business_owner"`
	BusinessAddress string `db:"business_address"`
	About           string `db:"about"`
	City            string `db:"city"`
	State           string `db:"state"`
	Country         string `db:"country"`
}

type UserProfile struct {
	Name    string     `db:"name"`
	AdminID *uuid.UUID `db:"admin_id"`
}

// DisplayName is the name used to greet the account holder in mail.
func (a *Account) DisplayName() string {
	switch {
	case a.User != nil && a.User.Name != "":
		return a.User.Name
	case a.Admin != nil && a.Admin.BusinessOwner != "":
		return a.Admin.BusinessOwner
	}
	return a.Email
}

// HasSession reports whether a refresh token is currently stored.
func (a *Account) HasSession() bool {
	return a.RefreshToken != nil && *a.RefreshToken != ""
}

// CanLogin holds once the verification flow has activated the account.
func (a *Account) CanLogin() bool {
	return a.IsVerified && a.IsActive
}
