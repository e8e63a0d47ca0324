package usecase

import (
	authdomain "avencrm-mailer/internal/auth/domain"
	authdto "avencrm-mailer/internal/auth/dto"
)

// AuthUsecase defines the authentication business logic.
type AuthUsecase interface {
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	// CreateCompany bootstraps a tenant; Register requires an existing
	// company id.
	CreateCompany(name string) (*authdomain.Company, error)
	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error
	ValidateToken(tokenString string) (*authdomain.User, error)
}
