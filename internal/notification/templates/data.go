package templates

// VerifyEmailData holds variables for the account.verify_email scenario using
// an 8-digit code.
type VerifyEmailData struct {
	FullName     string
	Code         string
	SupportEmail string
}

// VerifyEmail is the typed handle for the account.verify_email template.
var VerifyEmail = Expect[VerifyEmailData]("account.verify_email")

// PasswordResetData holds variables for the password recovery email carrying a
// link back to the reset page.
type PasswordResetData struct {
	FullName     string
	ResetURL     string
	SupportEmail string
}

// PasswordReset is the typed handle for the account.password_reset template.
var PasswordReset = Expect[PasswordResetData]("account.password_reset")
