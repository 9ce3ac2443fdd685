package service

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// plainText trims value and rejects it when the policy would strip anything from it.
// Entities and bare characters such as "&" or ">" are kept as typed.
func plainText(policy *bluemonday.Policy, field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return value, nil
	}
	if html.UnescapeString(policy.Sanitize(value)) != html.UnescapeString(value) {
		return "", newValidationError(field, "must not contain markup")
	}
	return value, nil
}
