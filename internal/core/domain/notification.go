package domain

import (
	"fmt"
	"time"
)

// Category tags what a notification is about. The set is closed.
type Category string

const (
	CategoryNew      Category = "new"
	CategoryRemoval  Category = "removal"
	CategoryComment  Category = "comment"
	CategoryReply    Category = "reply"
	CategoryBlock    Category = "block"
	CategoryUnblock  Category = "unblock"
	CategoryDeletion Category = "deletion"
)

var categories = map[Category]ParentKind{
	CategoryNew:      ParentNone,
	CategoryRemoval:  ParentNone,
	CategoryComment:  ParentComment,
	CategoryReply:    ParentReply,
	CategoryBlock:    ParentNone,
	CategoryUnblock:  ParentNone,
	CategoryDeletion: ParentNone,
}

// ParseCategory rejects anything outside the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categories[c]; !ok {
		return "", fmt.Errorf("unknown notification category %q", s)
	}
	return c, nil
}

// ParentKind is the kind of record a notification may deep-link to.
type ParentKind int

const (
	ParentNone ParentKind = iota
	ParentComment
	ParentReply
)

func (k ParentKind) String() string {
	switch k {
	case ParentComment:
		return "comment"
	case ParentReply:
		return "reply"
	}
	return "none"
}

// ParentKind returns the kind of record a notification of this category links to.
func (c Category) ParentKind() ParentKind {
	return categories[c]
}

// Notification is an event addressed to a user. ParentID is a weak link to a
// comment or reply depending on Category.
type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	RecipientID string    `json:"recipient_id" bson:"recipient_id"`
	Category    Category  `json:"category" bson:"category"`
	ActorName   string    `json:"actor_name" bson:"actor_name"`
	ActorEmail  string    `json:"actor_email" bson:"actor_email"`
	Body        string    `json:"body" bson:"body"`
	ParentID    string    `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Read        bool      `json:"read" bson:"read"`
	Date        time.Time `json:"date" bson:"date"`
}
