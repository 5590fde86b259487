package models

import "time"

// PostPageSize bounds a single post listing.
const PostPageSize = 50

// Post is a public status update.
type Post struct {
	ID        string    `db:"id" json:"id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	MoodText  *string   `db:"mood_text" json:"mood_text"`
	MoodEmoji *string   `db:"mood_emoji" json:"mood_emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Author    User      `db:"author" json:"author"`
	LikeCount int       `db:"like_count" json:"like_count"`
	Images    []string  `db:"-" json:"images"`
	Comments  []Comment `db:"-" json:"comments"`
}

// Comment belongs to exactly one post.
type Comment struct {
	ID        string    `db:"id" json:"id"`
	PostID    string    `db:"post_id" json:"post_id"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Author    User      `db:"author" json:"author"`
	Images    []string  `db:"-" json:"images"`
}

// Like records one user's like of one post.
type Like struct {
	PostID    string    `db:"post_id" json:"post_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
