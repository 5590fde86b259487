package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-service/internal/config"
	"social-service/internal/db"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/services"
)

const (
	aliceID = "10000000-0000-4000-8000-000000000001"
	bobID   = "10000000-0000-4000-8000-000000000002"
	carolID = "10000000-0000-4000-8000-000000000003"
	ghostID = "10000000-0000-4000-8000-0000000000ff"

	messageID = "20000000-0000-4000-8000-000000000001"
	postID    = "30000000-0000-4000-8000-000000000001"
	commentID = "40000000-0000-4000-8000-000000000001"
)

type fixture struct {
	db       *sqlx.DB
	users    *repositories.UserRepo
	messages *services.MessageService
	posts    *services.PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database, err := db.Connect(config.Database{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	users := repositories.NewUserRepo(database)
	return &fixture{
		db:       database,
		users:    users,
		messages: services.NewMessageService(users, repositories.NewMessageRepo(database), nil, nil, nil),
		posts:    services.NewPostService(users, repositories.NewPostRepo(database), nil, nil),
	}
}

func (f *fixture) user(t *testing.T, id, username string) models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), models.User{
		ID: id, SubjectID: "auth|" + id, Username: username, DisplayName: username, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func TestMentionHandles(t *testing.T) {
	got := services.MentionHandles("hey @Bob and @carol. also email a@b.c and @bob again", []string{"@Dave", "carol", " "})
	assert.Equal(t, []string{"dave", "carol", "bob"}, got)

	assert.Equal(t, []string{}, services.MentionHandles("no mentions here", nil))
}
