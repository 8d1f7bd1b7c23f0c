package domain

import "time"

// Post is the root of a content aggregate. AuthorID is a weak reference.
type Post struct {
	ID        string    `json:"id" bson:"_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Title     string    `json:"title" bson:"title"`
	Subtitle  string    `json:"subtitle" bson:"subtitle"`
	Color     string    `json:"color" bson:"color"`
	ImgURL    string    `json:"img_url" bson:"img_url"`
	Body      string    `json:"body" bson:"body"`
	Date      time.Time `json:"date" bson:"date"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Comment belongs to a post. Position orders comments within the post.
type Comment struct {
	ID       string    `json:"id" bson:"_id"`
	PostID   string    `json:"post_id" bson:"post_id"`
	AuthorID string    `json:"author_id" bson:"author_id"`
	Body     string    `json:"body" bson:"body"`
	Date     time.Time `json:"date" bson:"date"`
	Position int       `json:"position" bson:"position"`
}

// Reply belongs to a comment. Position orders replies within the comment.
type Reply struct {
	ID        string    `json:"id" bson:"_id"`
	PostID    string    `json:"post_id" bson:"post_id"`
	CommentID string    `json:"comment_id" bson:"comment_id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Body      string    `json:"body" bson:"body"`
	Date      time.Time `json:"date" bson:"date"`
	Position  int       `json:"position" bson:"position"`
}

// Thread is a comment together with its ordered replies.
type Thread struct {
	Comment *Comment `json:"comment"`
	Replies []*Reply `json:"replies"`
}

// Aggregate is a post with its full comment/reply tree.
type Aggregate struct {
	Post    *Post     `json:"post"`
	Threads []*Thread `json:"threads"`
}

// Counts returns the number of comments and the total number of replies.
func (a *Aggregate) Counts() (comments, replies int) {
	for _, t := range a.Threads {
		comments++
		replies += len(t.Replies)
	}
	return comments, replies
}
