package utils

import (
	"errors"
	"strings"
)

// ExtractEmailDomain returns the lowercased substring after the last "@".
// Quoted locals containing "@" resolve to the real domain this way.
func ExtractEmailDomain(email string) (string, error) {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", errors.New("invalid email format")
	}
	dom := strings.ToLower(email[at+1:])
	if strings.ContainsAny(dom, " \t@") || !strings.Contains(dom, ".") {
		return "", errors.New("invalid email format")
	}
	return dom, nil
}
