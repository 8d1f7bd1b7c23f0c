package domain

import "time"

// Role is an elevated capability that can be granted to a user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleAuthor Role = "author"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAuthor
}

// User is an identity on the platform. Email is unique and matched exactly.
type User struct {
	ID             string     `json:"id" bson:"_id"`
	Email          string     `json:"email" bson:"email"`
	Name           string     `json:"name" bson:"name"`
	PasswordHash   string     `json:"-" bson:"password_hash"`
	Admin          bool       `json:"admin" bson:"admin"`
	Author         bool       `json:"author" bson:"author"`
	ConfirmedEmail bool       `json:"confirmed_email" bson:"confirmed_email"`
	JoinDate       *time.Time `json:"join_date,omitempty" bson:"join_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at"`
}

// HasRole reports whether the user currently holds r.
func (u *User) HasRole(r Role) bool {
	switch r {
	case RoleAdmin:
		return u.Admin
	case RoleAuthor:
		return u.Author
	}
	return false
}

// SetRole flips the flag backing r.
func (u *User) SetRole(r Role, on bool) {
	switch r {
	case RoleAdmin:
		u.Admin = on
	case RoleAuthor:
		u.Author = on
	}
}

// IsStaff reports whether the user may publish posts.
func (u *User) IsStaff() bool {
	return u.Admin || u.Author
}

// Ref returns the denormalised identity stored inside archive snapshots.
func (u *User) Ref() AuthorRef {
	return AuthorRef{ID: u.ID, Email: u.Email, Name: u.Name}
}

// AuthorRef is an identity snapshot that survives deletion of the live user.
type AuthorRef struct {
	ID    string
	Email string
	Name  string
}

// CanManage reports whether actor may archive, restore or delete content
// owned by ownerID.
func CanManage(actor *User, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.Admin || actor.ID == ownerID
}
