package auth

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Notifier delivers a plain-text message to an email address. Callers wait
// for the send to finish before responding.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TokenService mints and validates the signed tokens used by the module.
// Access and refresh tokens are signed with independent secrets and carry a
// token_use discriminator so one can never stand in for the other.
type TokenService interface {
	SignAccessToken(accountID string) (string, error)
	SignRefreshToken(accountID string) (string, error)
	ValidateAccess(token string) (AuthClaims, error)
	ValidateRefresh(token string) (AuthClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// OTPGenerator produces a short one-time numeric code.
type OTPGenerator interface {
	Generate() (string, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
