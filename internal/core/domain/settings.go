package domain

import "time"

// SiteSettings holds the support contact. A rotated address stays pending,
// and the support address reads as unset, until its owner confirms it.
type SiteSettings struct {
	SupportEmail        string    `json:"support_email" bson:"support_email"`
	PendingSupportEmail string    `json:"pending_support_email" bson:"pending_support_email"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

// Support returns the active support address, or false while unset or pending.
func (s *SiteSettings) Support() (string, bool) {
	if s == nil || s.SupportEmail == "" || s.PendingSupportEmail != "" {
		return "", false
	}
	return s.SupportEmail, true
}
