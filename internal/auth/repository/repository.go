package repository

import authdomain "avencrm-mailer/internal/auth/domain"

// UserRepository persists users, their companies and refresh tokens.
type UserRepository interface {
	Create(user *authdomain.User) error
	FindByEmail(email string) (*authdomain.User, error)
	FindByID(id string) (*authdomain.User, error)
	Update(user *authdomain.User) error

	CreateCompany(company *authdomain.Company) error
	FindCompanyByID(id string) (*authdomain.Company, error)

	SaveRefreshToken(token *authdomain.RefreshToken) error
	FindRefreshToken(token string) (*authdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}
