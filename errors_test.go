package auth_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/talentdesk/go-auth"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      auth.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Structured session expired error",
			err:      auth.ErrSessionExpired,
			expected: true,
		},
		{
			name:     "Legacy token expired error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      auth.ErrAccountNotFound,
			expected: false,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsTokenExpiredError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured malformed error",
			err:      auth.ErrTokenMalformed,
			expected: true,
		},
		{
			name:     "Legacy malformed error (string match)",
			err:      errors.New("token is malformed"),
			expected: true,
		},
		{
			name:     "Legacy missing JWT error (string match)",
			err:      errors.New("missing or malformed JWT"),
			expected: true,
		},
		{
			name:     "Different legacy error",
			err:      errors.New("invalid token"),
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := auth.IsMalformedError(tt.err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestStructuredErrorProperties(t *testing.T) {
	t.Run("ErrPasswordMismatch", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrPasswordMismatch.Category)
		assert.Equal(t, auth.TextCodePasswordMismatch, auth.ErrPasswordMismatch.TextCode)
	})

	t.Run("ErrAccountExists", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryConflict, auth.ErrAccountExists.Category)
		assert.Equal(t, auth.TextCodeAccountExists, auth.ErrAccountExists.TextCode)
	})

	t.Run("ErrInvalidCredentials", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrInvalidCredentials.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, auth.ErrInvalidCredentials.TextCode)
		assert.Equal(t, goerrors.CodeBadRequest, auth.ErrInvalidCredentials.Code)
	})

	t.Run("ErrAccountSuspended", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrAccountSuspended.Category)
		assert.Equal(t, auth.TextCodeSuspended, auth.ErrAccountSuspended.TextCode)
		assert.Equal(t, goerrors.CodeForbidden, auth.ErrAccountSuspended.Code)
	})

	t.Run("ErrRefreshTokenMismatch", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuthz, auth.ErrRefreshTokenMismatch.Category)
		assert.Equal(t, auth.TextCodeRefreshMismatch, auth.ErrRefreshTokenMismatch.TextCode)
		assert.Equal(t, goerrors.CodeForbidden, auth.ErrRefreshTokenMismatch.Code)
	})

	t.Run("ErrSessionExpired", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrSessionExpired.Category)
		assert.Equal(t, goerrors.CodeUnauthorized, auth.ErrSessionExpired.Code)
	})

	t.Run("ErrMismatchedHashAndPassword", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrMismatchedHashAndPassword.Category)
		assert.Equal(t, auth.TextCodeInvalidCreds, auth.ErrMismatchedHashAndPassword.TextCode)
		assert.Equal(t, "the credentials provided are invalid", auth.ErrMismatchedHashAndPassword.Message)
	})

	t.Run("ErrUnableToFindSession", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryAuth, auth.ErrUnableToFindSession.Category)
		assert.Equal(t, auth.TextCodeSessionNotFound, auth.ErrUnableToFindSession.TextCode)
	})

	t.Run("ErrNoEmptyString", func(t *testing.T) {
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrNoEmptyString.Category)
	})

	t.Run("ErrOTPExpired and ErrOTPInvalid are distinct", func(t *testing.T) {
		assert.NotEqual(t, auth.ErrOTPExpired.TextCode, auth.ErrOTPInvalid.TextCode)
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrOTPExpired.Category)
		assert.Equal(t, goerrors.CategoryValidation, auth.ErrOTPInvalid.Category)
	})
}
