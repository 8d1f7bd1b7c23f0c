package domain

import "time"

// Purpose namespaces a capability token to one operation.
type Purpose string

const (
	PurposeEmailVerify     Purpose = "email-verify"
	PurposeSupportVerify   Purpose = "support-verify"
	PurposeMakeAuth        Purpose = "make-auth"
	PurposeRemoveAuth      Purpose = "remove-auth"
	PurposeDeleteAuth      Purpose = "delete-auth"
	PurposeForgetPassword  Purpose = "forget-password"
	PurposeDeletionRequest Purpose = "deletion_request"
)

// Purposes is the closed set of purposes a token may carry.
var Purposes = []Purpose{
	PurposeEmailVerify,
	PurposeSupportVerify,
	PurposeMakeAuth,
	PurposeRemoveAuth,
	PurposeDeleteAuth,
	PurposeForgetPassword,
	PurposeDeletionRequest,
}

// Valid reports whether p is a member of Purposes.
func (p Purpose) Valid() bool {
	for _, known := range Purposes {
		if p == known {
			return true
		}
	}
	return false
}

// TokenAges holds the maximum age accepted for each purpose.
type TokenAges struct {
	EmailVerify     time.Duration
	SupportVerify   time.Duration
	RoleChange      time.Duration
	DeleteAuth      time.Duration
	DeletionRequest time.Duration
	PasswordReset   time.Duration
}

// DefaultTokenAges are the lifetimes used when nothing is configured.
var DefaultTokenAges = TokenAges{
	EmailVerify:     time.Hour,
	SupportVerify:   time.Hour,
	RoleChange:      800 * time.Second,
	DeleteAuth:      800 * time.Second,
	DeletionRequest: 72 * time.Hour,
	PasswordReset:   30 * time.Minute,
}

// For returns the maximum age for p.
func (a TokenAges) For(p Purpose) time.Duration {
	switch p {
	case PurposeEmailVerify:
		return a.EmailVerify
	case PurposeSupportVerify:
		return a.SupportVerify
	case PurposeMakeAuth, PurposeRemoveAuth:
		return a.RoleChange
	case PurposeDeleteAuth:
		return a.DeleteAuth
	case PurposeDeletionRequest:
		return a.DeletionRequest
	case PurposeForgetPassword:
		return a.PasswordReset
	}
	return 0
}
