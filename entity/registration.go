package entity

import (
	"log/slog"

	"tenderdesk/internal/lib/sl"
)

type UserType string

const (
	UserIndividual UserType = "individual"
	UserBusiness   UserType = "business"
)

// Registration is the payload of the sign up call.
type Registration struct {
	Email        string   `json:"email"`
	Password     string   `json:"password"`
	UserType     UserType `json:"userType"`
	Phone        string   `json:"phone"`
	DateOfBirth  string   `json:"dateOfBirth"`
	AgreeToTerms bool     `json:"agreeToTerms"`
	FullName     string   `json:"fullName,omitempty"`
	CompanyName  string   `json:"companyName,omitempty"`
}

func (r Registration) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("email", r.Email),
		slog.String("user_type", string(r.UserType)),
		sl.Secret("phone", r.Phone),
	)
}

// AuthResult is the backend reply to auth calls.
type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reason returns the most specific text the backend gave.
func (a *AuthResult) Reason() string {
	if a.Error != "" {
		return a.Error
	}
	return a.Message
}

type ResendVerification struct {
	Email string `json:"email"`
}
