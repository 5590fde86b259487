package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/config"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := Connect(config.Database{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func insertUser(t *testing.T, database *sqlx.DB, id, subject, username string) error {
	t.Helper()
	_, err := database.Exec(database.Rebind(`INSERT INTO users (id, subject_id, username, display_name, created_at) VALUES (?, ?, ?, ?, ?)`),
		id, subject, username, "User", time.Now().UTC())
	return err
}

func TestMigrateIsIdempotent(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, Migrate(database))

	var tables int
	require.NoError(t, database.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN
        ('users','messages','message_attachments','posts','post_attachments','comments','comment_attachments','likes','post_mentions','comment_mentions')`))
	assert.Equal(t, 10, tables)
}

func TestForeignKeysEnforced(t *testing.T) {
	database := newTestDB(t)

	var enabled int
	require.NoError(t, database.Get(&enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)

	_, err := database.Exec(database.Rebind(`INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`), "missing", "missing", time.Now().UTC())
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
}

func TestIsUniqueViolation(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, insertUser(t, database, "u1", "auth0|1", "alice"))
	err := insertUser(t, database, "u2", "auth0|2", "alice")

	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("alice")))
}

func TestAttachmentOrdinalCapped(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, insertUser(t, database, "u1", "auth0|1", "alice"))
	_, err := database.Exec(database.Rebind(`INSERT INTO posts (id, author_id, content, created_at) VALUES (?, ?, ?, ?)`), "p1", "u1", "hi", time.Now().UTC())
	require.NoError(t, err)

	_, err = database.Exec(database.Rebind(`INSERT INTO post_attachments (post_id, ordinal, url) VALUES (?, ?, ?)`), "p1", 2, "https://i.example/x.png")
	assert.Error(t, err)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	database := newTestDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(tx.Rebind(`INSERT INTO users (id, subject_id, username, display_name, created_at) VALUES (?, ?, ?, ?, ?)`),
			"u1", "auth0|1", "alice", "Alice", time.Now().UTC()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, database.Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Zero(t, count)
}

func TestWithTxCommits(t *testing.T) {
	database := newTestDB(t)

	err := WithTx(context.Background(), database, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(tx.Rebind(`INSERT INTO users (id, subject_id, username, display_name, created_at) VALUES (?, ?, ?, ?, ?)`),
			"u1", "auth0|1", "alice", "Alice", time.Now().UTC())
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, database.Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)
}

func TestSQLiteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=on&_busy_timeout=5000", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=on&_busy_timeout=5000", sqliteDSN("file:x.db?cache=shared"))
	assert.Equal(t, "a.db?_fk=1&_busy_timeout=10", sqliteDSN("a.db?_fk=1&_busy_timeout=10"))
}
