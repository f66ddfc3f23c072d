package service

import (
	"context"
	"strings"
)

// NormalizeEmail is applied before every store write and lookup, which makes
// email matching case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDispatcher hands outbound mail to a delivery channel. Callers treat it
// as fire-and-forget; an error is logged and never fails the calling flow.
type EmailDispatcher interface {
	SendVerificationEmail(ctx context.Context, email, token string) error
	SendPasswordResetEmail(ctx context.Context, email, token string) error
}
