package domain

import "time"

// MaxOTPAttempts is the number of failed verifications permitted per
// challenge. Once reached, verification stays blocked until a new code
// is requested, which resets the counter.
const MaxOTPAttempts = 5

// OTPVerification is the ephemeral per-email challenge row. One row per
// email at a time: a new request replaces the hash and expiry and resets
// attempts. The raw code is never stored, only a salted keyed hash.
type OTPVerification struct {
	Email     string
	OTPHash   string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

type CompleteRegistrationRequest struct {
	RegistrationToken string `json:"registrationToken" validate:"required"`
	Password          string `json:"password" validate:"required,min=8,max=72"`
	AccountName       string `json:"accountName" validate:"required"`
}
