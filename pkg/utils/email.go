package utils

import "strings"

// EmailLocalPart returns the part of an email address before the "@".
// Used as the default display name when a user signs up without one.
func EmailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	if idx := strings.Index(email, "@"); idx >= 0 {
		return email[:idx]
	}
	return email
}
