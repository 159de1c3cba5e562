package utils

import (
	"strconv"
	"strings"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DefaultSecret is the provisioning password handed out at registration:
// prefix followed by the last four digits of the mobile number.
func DefaultSecret(prefix, mobile string) string {
	mobile = strings.TrimSpace(mobile)
	if len(mobile) > 4 {
		mobile = mobile[len(mobile)-4:]
	}
	return prefix + mobile
}
