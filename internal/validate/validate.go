// Package validate checks the shape of form submissions before they reach storage.
package validate

import (
	"regexp"
	"sort"
	"strings"

	"github.com/JakeFAU/marketing-site/internal/site"
)

// Messages returned for missing or malformed fields.
const (
	MsgNameRequired     = "Name is required"
	MsgEmailRequired    = "Email is required"
	MsgEmailInvalid     = "Invalid email format"
	MsgInterestRequired = "Interest is required"
	MsgMessageRequired  = "Message is required"
)

// emailPattern accepts dotted atoms or a quoted local part, then either a
// bracketed IPv4 literal or dotted labels ending in an alphabetic TLD.
var emailPattern = regexp.MustCompile(
	`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@` +
		`((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`,
)

// FieldErrors maps a JSON field name to a human-readable message.
type FieldErrors map[string]string

// Error implements error so FieldErrors can travel through error returns.
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidEmail reports whether email looks like a deliverable address.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateContact checks every required field independently and returns nil
// when the form is acceptable.
func ValidateContact(form site.ContactForm) FieldErrors {
	errs := FieldErrors{}
	if blank(form.Name) {
		errs["name"] = MsgNameRequired
	}
	switch {
	case blank(form.Email):
		errs["email"] = MsgEmailRequired
	case !IsValidEmail(strings.TrimSpace(form.Email)):
		errs["email"] = MsgEmailInvalid
	}
	if blank(form.Interest) {
		errs["interest"] = MsgInterestRequired
	}
	if blank(form.Message) {
		errs["message"] = MsgMessageRequired
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidateSubscription returns the first problem with email, or "".
func ValidateSubscription(email string) string {
	if blank(email) {
		return MsgEmailRequired
	}
	if !IsValidEmail(strings.TrimSpace(email)) {
		return MsgEmailInvalid
	}
	return ""
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
