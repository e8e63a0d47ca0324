package domain

import "time"

// MailProvider identifies which external provider owns a connected account.
type MailProvider string

const (
	ProviderGmail   MailProvider = "GMAIL"
	ProviderOutlook MailProvider = "OUTLOOK"
)

// AccountStatus represents the health of a connected account.
type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusError  AccountStatus = "ERROR"
)

// MailAccount is an external mail identity a user sends campaigns from.
// Token fields are opaque secrets: never logged, never returned in JSON.
type MailAccount struct {
	ID           string        `json:"id" gorm:"primaryKey"`
	UserID       string        `json:"user_id" gorm:"index;not null"`
	Provider     MailProvider  `json:"provider" gorm:"not null"`
	AccessToken  string        `json:"-" gorm:"not null"`
	RefreshToken string        `json:"-"`
	ExpiresAt    *time.Time    `json:"expires_at,omitempty"`
	Email        string        `json:"email" gorm:"not null"`
	IsActive     bool          `json:"is_active" gorm:"default:true"`
	Status       AccountStatus `json:"status" gorm:"default:ACTIVE"`
	LastError    string        `json:"last_error,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Tokens is the result of an OAuth code exchange.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenUpdateFunc is called when a provider transparently refreshes tokens,
// so the stored credentials can be kept current.
type TokenUpdateFunc func(tokens *Tokens) error

// OutgoingMessage is a single rendered email handed to a transport.
type OutgoingMessage struct {
	FromName string
	From     string
	ToName   string
	To       string
	Subject  string
	HTMLBody string
}
