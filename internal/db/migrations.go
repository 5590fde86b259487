package db

import (
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// schema is written for Postgres; sqliteTypes rewrites the few types sqlite spells differently.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            subject_id VARCHAR(255) NOT NULL UNIQUE,
            username VARCHAR(50) NOT NULL UNIQUE,
            display_name VARCHAR(100) NOT NULL,
            avatar_url TEXT,
            bio TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            receiver_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS message_attachments (
            message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            ordinal SMALLINT NOT NULL CHECK (ordinal IN (0, 1)),
            url TEXT NOT NULL,
            PRIMARY KEY (message_id, ordinal)
        );`,
	`CREATE TABLE IF NOT EXISTS posts (
            id UUID PRIMARY KEY,
            author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            mood_text VARCHAR(50),
            mood_emoji VARCHAR(10),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS post_attachments (
            post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            ordinal SMALLINT NOT NULL CHECK (ordinal IN (0, 1)),
            url TEXT NOT NULL,
            PRIMARY KEY (post_id, ordinal)
        );`,
	`CREATE TABLE IF NOT EXISTS comments (
            id UUID PRIMARY KEY,
            post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            author_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS comment_attachments (
            comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
            ordinal SMALLINT NOT NULL CHECK (ordinal IN (0, 1)),
            url TEXT NOT NULL,
            PRIMARY KEY (comment_id, ordinal)
        );`,
	`CREATE TABLE IF NOT EXISTS likes (
            post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (post_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS post_mentions (
            post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (post_id, user_id)
        );`,
	`CREATE TABLE IF NOT EXISTS comment_mentions (
            comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (comment_id, user_id)
        );`,
	`CREATE INDEX IF NOT EXISTS idx_messages_sender_receiver ON messages(sender_id, receiver_id);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_unread ON messages(receiver_id, sender_id, read);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);`,
	`CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id);`,
}

var sqliteTypes = strings.NewReplacer("TIMESTAMPTZ", "TIMESTAMP", "UUID", "TEXT")

// Migrate applies the schema. Every statement is idempotent.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if !IsPostgres(db) {
			stmt = sqliteTypes.Replace(stmt)
		}
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "apply %q", firstLine(stmt))
		}
	}
	logMigrations(db.DriverName(), len(schema))
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
