package auth

import "fmt"

const (
	// SubjectOTPVerification is the subject used for registration and resend emails.
	SubjectOTPVerification = "OTP Verification Code"
	// SubjectPasswordReset is the subject used for password recovery emails.
	SubjectPasswordReset = "Password Reset OTP"
)

// OTPVerificationEmail renders the body for a verification code email.
func OTPVerificationEmail(code string) string {
	return fmt.Sprintf(
		"Your verification code is %s.\n\nThe code expires in %d minutes. If you did not request it, you can ignore this email.",
		code, int(OTPWindow.Minutes()),
	)
}

// PasswordResetEmail renders the body for a password recovery email.
func PasswordResetEmail(code string) string {
	return fmt.Sprintf(
		"Use code %s to reset your password.\n\nThe code expires in %d minutes. If you did not request a reset, no action is needed.",
		code, int(OTPWindow.Minutes()),
	)
}
