package domain

import "time"

// APIKey is the single API credential an identity may hold. Only the hash of
// the secret is stored.
type APIKey struct {
	ID        string           `json:"id" bson:"_id"`
	OwnerID   string           `json:"owner_id" bson:"owner_id"`
	KeyHash   string           `json:"-" bson:"key_hash"`
	Prefix    string           `json:"prefix" bson:"prefix"`
	Blocked   bool             `json:"blocked" bson:"blocked"`
	Usage     map[string]int64 `json:"usage" bson:"usage"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
