package auth

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes identify failures to API clients independently of the message.
const (
	TextCodePasswordMismatch  = "PASSWORD_MISMATCH"
	TextCodeAccountExists     = "ACCOUNT_EXISTS"
	TextCodeOrgEmailTaken     = "ORGANIZATION_EMAIL_TAKEN"
	TextCodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeNotVerified       = "ACCOUNT_NOT_VERIFIED"
	TextCodeSuspended         = "ACCOUNT_SUSPENDED"
	TextCodeAlreadyVerified   = "ALREADY_VERIFIED"
	TextCodeOTPExpired        = "OTP_EXPIRED"
	TextCodeOTPInvalid        = "OTP_INVALID"
	TextCodeNoRefreshToken    = "REFRESH_TOKEN_MISSING"
	TextCodeSessionExpired    = "SESSION_EXPIRED"
	TextCodeRefreshMismatch   = "REFRESH_TOKEN_INVALID"
	TextCodeTokenExpired      = "TOKEN_EXPIRED"
	TextCodeTokenMalformed    = "TOKEN_MALFORMED"
	TextCodeSessionNotFound   = "SESSION_NOT_FOUND"

	TextCodeNoAccountsToClear = "NO_ACCOUNTS_TO_CLEAR"
)

// ErrPasswordMismatch is returned when password and confirmation differ.
var ErrPasswordMismatch = goerrors.New("passwords do not match", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordMismatch).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountExists is returned when the email already belongs to an account.
var ErrAccountExists = goerrors.New("account already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeBadRequest)

// ErrOrganizationEmailTaken is returned when the email is already an
// organization work email. Registration is rejected across both namespaces
// so the two account kinds can never collide on an identifier.
var ErrOrganizationEmailTaken = goerrors.New("organization with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeOrgEmailTaken).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotFound is returned when no account matches the identifier.
var ErrAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeBadRequest)

// ErrNoAccountsToClear is returned when a bulk account wipe finds nothing
// to remove.
var ErrNoAccountsToClear = goerrors.New("no accounts found to delete", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNoAccountsToClear).
	WithCode(goerrors.CodeNotFound)

// ErrInvalidCredentials covers both unknown email and wrong password. The
// message is deliberately uniform so callers cannot tell which part failed.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountNotVerified blocks login before OTP verification.
var ErrAccountNotVerified = goerrors.New("account not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeNotVerified).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountSuspended blocks login for suspended accounts.
var ErrAccountSuspended = goerrors.New("your account has been suspended, please contact support", goerrors.CategoryAuth).
	WithTextCode(TextCodeSuspended).
	WithCode(goerrors.CodeForbidden)

// ErrAlreadyVerified is returned when resending an OTP to a verified account.
var ErrAlreadyVerified = goerrors.New("account is already verified", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyVerified).
	WithCode(goerrors.CodeBadRequest)

// ErrOTPExpired is returned when the submitted code is past its window.
var ErrOTPExpired = goerrors.New("otp has expired", goerrors.CategoryValidation).
	WithTextCode(TextCodeOTPExpired).
	WithCode(goerrors.CodeBadRequest)

// ErrOTPInvalid is returned when the submitted code does not match.
var ErrOTPInvalid = goerrors.New("invalid otp", goerrors.CategoryValidation).
	WithTextCode(TextCodeOTPInvalid).
	WithCode(goerrors.CodeBadRequest)

// ErrRefreshTokenMissing is returned when the refresh request has no token.
var ErrRefreshTokenMissing = goerrors.New("no refresh token found", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoRefreshToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionExpired is returned when the refresh token fails signature or
// expiry verification.
var ErrSessionExpired = goerrors.New("your session has expired, please log in again", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrRefreshTokenMismatch is returned when the decoded account is gone or
// its stored refresh token does not equal the supplied one. The equality
// check is what makes tokens single-use-per-login-session: only the most
// recently issued token for an account is valid.
var ErrRefreshTokenMismatch = goerrors.New("invalid refresh token", goerrors.CategoryAuthz).
	WithTextCode(TextCodeRefreshMismatch).
	WithCode(goerrors.CodeForbidden)

// ErrTokenExpired is returned for expired access tokens.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail to parse or verify.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToFindSession is the error when the request carries no session.
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionAccountNotFound is returned when the account referenced by a
// valid access token no longer exists.
var ErrSessionAccountNotFound = goerrors.New("account not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is the low-level bcrypt mismatch error.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value should not be an empty string", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) || goerrors.Is(err, ErrSessionExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenMalformed) {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
