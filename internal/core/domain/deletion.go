package domain

import "time"

// DeletionReport is a pending account-deletion request. At most one exists per user.
type DeletionReport struct {
	ID          string    `json:"id" bson:"_id"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	Reason      string    `json:"reason" bson:"reason"`
	Explanation string    `json:"explanation" bson:"explanation"`
	ApproveLink string    `json:"approve_link" bson:"approve_link"`
	RejectLink  string    `json:"reject_link" bson:"reject_link"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
