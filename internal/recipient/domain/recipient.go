package domain

import "time"

// Recipient is an addressee campaigns can be sent to. Variables holds
// free-form values substituted into campaign templates per recipient.
type Recipient struct {
	ID        string            `json:"id" gorm:"primaryKey"`
	CompanyID string            `json:"company_id" gorm:"index;not null"`
	Email     string            `json:"email" gorm:"not null"`
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables,omitempty" gorm:"serializer:json"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// TemplateVariables merges the recipient's free-form variables with the
// implicit name/email keys every template can rely on.
func (r *Recipient) TemplateVariables() map[string]string {
	vars := make(map[string]string, len(r.Variables)+2)
	for k, v := range r.Variables {
		vars[k] = v
	}
	vars["name"] = r.Name
	vars["email"] = r.Email
	return vars
}
