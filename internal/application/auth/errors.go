package auth

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmailFormat    = errors.New("Invalid email address")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters and contain a letter and a number")
	ErrEmailTaken            = errors.New("An account with this email already exists")
	ErrInvalidEmail          = errors.New("Invalid Email")
	ErrIncorrectPassword     = errors.New("Incorrect Password")
	ErrPhoneRequired         = errors.New("Phone number is required")
	ErrInvalidPhone          = errors.New("Phone number must be in international format, e.g. +15551234567")
	ErrInvalidOTP            = errors.New("Invalid or expired code")
	ErrOTPDelivery           = errors.New("Could not send the verification code")
	ErrNotAuthenticated      = errors.New("Not authenticated")
)
