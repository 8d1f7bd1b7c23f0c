package domain

import "time"

// ArchivedAggregate is an immutable snapshot of a post taken at deletion time.
type ArchivedAggregate struct {
	ID             string       `json:"id" bson:"_id"`
	OriginalPostID string       `json:"original_post_id" bson:"original_post_id"`
	ArchivedAt     time.Time    `json:"archived_at" bson:"archived_at"`
	Snapshot       PostSnapshot `json:"snapshot" bson:"snapshot"`
}

// PostSnapshot carries the post and every comment and reply, each with a
// denormalised copy of its author.
type PostSnapshot struct {
	PostTitle   string            `json:"post_title" bson:"post_title" validate:"required"`
	AuthorID    string            `json:"author_id" bson:"author_id" validate:"required"`
	AuthorEmail string            `json:"author_email" bson:"author_email" validate:"required,email"`
	AuthorName  string            `json:"author_name" bson:"author_name"`
	Subtitle    string            `json:"subtitle" bson:"subtitle"`
	Color       string            `json:"color" bson:"color"`
	ImgURL      string            `json:"img_url" bson:"img_url"`
	Body        string            `json:"body" bson:"body" validate:"required"`
	Date        time.Time         `json:"date" bson:"date"`
	Comments    []CommentSnapshot `json:"comments" bson:"comments" validate:"dive"`
}

type CommentSnapshot struct {
	AuthorID    string          `json:"author_id" bson:"author_id" validate:"required"`
	AuthorEmail string          `json:"author_email" bson:"author_email" validate:"required,email"`
	AuthorName  string          `json:"author_name" bson:"author_name"`
	CommentID   string          `json:"comment_id" bson:"comment_id" validate:"required"`
	Comment     string          `json:"comment" bson:"comment" validate:"required"`
	Date        time.Time       `json:"date" bson:"date"`
	Replies     []ReplySnapshot `json:"replies" bson:"replies" validate:"dive"`
}

// ReplySnapshot.CommentID is the id of the parent comment.
type ReplySnapshot struct {
	AuthorID    string    `json:"author_id" bson:"author_id" validate:"required"`
	AuthorEmail string    `json:"author_email" bson:"author_email" validate:"required,email"`
	AuthorName  string    `json:"author_name" bson:"author_name"`
	CommentID   string    `json:"comment_id" bson:"comment_id" validate:"required"`
	Reply       string    `json:"reply" bson:"reply" validate:"required"`
	Date        time.Time `json:"date" bson:"date"`
}

// Counts returns the number of comments and replies captured in the snapshot.
func (s *PostSnapshot) Counts() (comments, replies int) {
	for _, c := range s.Comments {
		comments++
		replies += len(c.Replies)
	}
	return comments, replies
}

// CanRestore reports whether actor may restore a. Ownership is matched by
// email since the archived author id may no longer exist.
func CanRestore(actor *User, a *ArchivedAggregate) bool {
	if actor == nil || a == nil {
		return false
	}
	return actor.Admin || actor.Email == a.Snapshot.AuthorEmail
}
