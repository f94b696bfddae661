package validation

import (
	"net/mail"
	"strings"
)

// CreateInviteRequest mirrors the fields needed for invite validation.
type CreateInviteRequest struct {
	Email string
}

// ValidateCreateInviteRequest validates the fields of an invite request.
func ValidateCreateInviteRequest(req CreateInviteRequest) []FieldError {
	var errs []FieldError

	email := strings.TrimSpace(req.Email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid address"})
	}

	return errs
}
