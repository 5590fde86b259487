package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"social-service/internal/apperr"
	"social-service/internal/mocks"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

func TestCreatePostValidation(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)
	long := "this mood text is far too long to fit inside the fifty character limit"

	_, err := svc.CreatePost(ctx, aliceID, services.CreatePostInput{Content: " "})
	assert.Equal(t, "content", apperr.FieldOf(err))

	_, err = svc.CreatePost(ctx, aliceID, services.CreatePostInput{Content: "ok", MoodText: &long})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "mood_text", apperr.FieldOf(err))

	posts.AssertNotCalled(t, "CreatePost", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreatePostEmitsOneEventPerMention(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepositoryMock{}
	posts := &mocks.PostRepositoryMock{}
	uploader := &mocks.UploaderMock{}
	events := &mocks.EmitterMock{}
	svc := services.NewPostService(users, posts, uploader, events)
	images := [][]byte{[]byte("a")}

	users.On("GetByID", ctx, aliceID).Return(models.User{ID: aliceID, Username: "alice"}, nil)
	uploader.On("UploadMany", ctx, images, models.MaxAttachments).Return([]string{})
	posts.On("CreatePost", ctx, mock.MatchedBy(func(p models.Post) bool { return p.Content == "hi @bob " }), []string{}, []string{"carol", "bob"}).
		Return(models.Post{ID: postID, AuthorID: aliceID, Content: "hi @bob "}, []models.User{{ID: bobID}, {ID: carolID}}, nil)
	events.On("Emit", ctx, telemetry.EventPostCreated, aliceID, mock.Anything).Return().Once()
	events.On("Emit", ctx, telemetry.EventMentionCreated, aliceID, mock.Anything).Return().Twice()

	post, err := svc.CreatePost(ctx, aliceID, services.CreatePostInput{Content: "hi @bob ", Images: images, Mentions: []string{"Carol"}})

	require.NoError(t, err)
	assert.Equal(t, "alice", post.Author.Username)
	posts.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestLikePostConflictAndNotFound(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)
	const (
		dupID    = "30000000-0000-4000-8000-0000000000d1"
		goneID   = "30000000-0000-4000-8000-0000000000d2"
		brokenID = "30000000-0000-4000-8000-0000000000d3"
	)

	posts.On("CreateLike", ctx, mock.MatchedBy(func(l models.Like) bool { return l.PostID == dupID })).Return(repositories.ErrDuplicate)
	posts.On("CreateLike", ctx, mock.MatchedBy(func(l models.Like) bool { return l.PostID == goneID })).Return(repositories.ErrPostNotFound)
	posts.On("CreateLike", ctx, mock.MatchedBy(func(l models.Like) bool { return l.PostID == brokenID })).Return(errors.New("io"))

	assert.True(t, apperr.Is(svc.LikePost(ctx, bobID, dupID), apperr.KindConflict))
	assert.True(t, apperr.Is(svc.LikePost(ctx, bobID, goneID), apperr.KindNotFound))
	assert.True(t, apperr.Is(svc.LikePost(ctx, bobID, brokenID), apperr.KindStore))
}

func TestPostOperationsRejectMalformedIDs(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)

	for _, id := range []string{"x", "p1", "30000000-0000-4000-8000-00000000000g"} {
		assert.True(t, apperr.Is(svc.DeletePost(ctx, aliceID, id), apperr.KindNotFound), id)
		assert.True(t, apperr.Is(svc.LikePost(ctx, aliceID, id), apperr.KindNotFound), id)
		assert.True(t, apperr.Is(svc.UnlikePost(ctx, aliceID, id), apperr.KindNotFound), id)
		assert.True(t, apperr.Is(svc.DeleteComment(ctx, aliceID, id), apperr.KindNotFound), id)

		_, err := svc.CreateComment(ctx, aliceID, id, services.CreateCommentInput{Content: "hi"})
		assert.True(t, apperr.Is(err, apperr.KindNotFound), id)

		listed, err := svc.ListPosts(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, listed)
	}

	assert.Empty(t, posts.Calls)
}

func TestDeletePostOwnership(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)
	missingID := "30000000-0000-4000-8000-0000000000ee"
	posts.On("GetPost", ctx, postID).Return(models.Post{ID: postID, AuthorID: aliceID}, nil)
	posts.On("GetPost", ctx, missingID).Return(nil, repositories.ErrPostNotFound)

	assert.True(t, apperr.Is(svc.DeletePost(ctx, bobID, postID), apperr.KindForbidden))
	assert.True(t, apperr.Is(svc.DeletePost(ctx, aliceID, missingID), apperr.KindNotFound))
	posts.AssertNotCalled(t, "DeletePost", mock.Anything, mock.Anything)
}

func TestCreateCommentRequiresPost(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)
	posts.On("GetPost", ctx, postID).Return(nil, repositories.ErrPostNotFound)

	_, err := svc.CreateComment(ctx, aliceID, postID, services.CreateCommentInput{Content: "hi"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.CreateComment(ctx, aliceID, postID, services.CreateCommentInput{Content: ""})
	assert.Equal(t, "content", apperr.FieldOf(err))
}

func TestDeleteCommentOwnership(t *testing.T) {
	ctx := context.Background()
	posts := &mocks.PostRepositoryMock{}
	svc := services.NewPostService(&mocks.UserRepositoryMock{}, posts, nil, nil)
	posts.On("GetComment", ctx, commentID).Return(models.Comment{ID: commentID, PostID: postID, AuthorID: aliceID}, nil)
	posts.On("DeleteComment", ctx, commentID).Return(nil)

	assert.True(t, apperr.Is(svc.DeleteComment(ctx, bobID, commentID), apperr.KindForbidden))
	require.NoError(t, svc.DeleteComment(ctx, aliceID, commentID))
	posts.AssertNumberOfCalls(t, "DeleteComment", 1)
}

func TestLikeTwiceLeavesOneRow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, aliceID, "alice")
	f.user(t, bobID, "bob")
	post, err := f.posts.CreatePost(ctx, aliceID, services.CreatePostInput{Content: "hello"})
	require.NoError(t, err)

	require.NoError(t, f.posts.LikePost(ctx, bobID, post.ID))
	err = f.posts.LikePost(ctx, bobID, post.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Equal(t, 1, f.count(t, "likes"))

	require.NoError(t, f.posts.UnlikePost(ctx, bobID, post.ID))
	assert.True(t, apperr.Is(f.posts.UnlikePost(ctx, bobID, post.ID), apperr.KindNotFound))
}

func TestDeletePostLeavesNoOrphans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.user(t, aliceID, "alice")
	f.user(t, bobID, "bob")
	f.user(t, carolID, "carol")

	post, err := f.posts.CreatePost(ctx, aliceID, services.CreatePostInput{Content: "  hi @bob @ghost", Mentions: []string{"carol"}})
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(t, "post_mentions"))

	_, err = f.posts.CreateComment(ctx, bobID, post.ID, services.CreateCommentInput{Content: "thanks @alice\n"})
	require.NoError(t, err)
	require.NoError(t, f.posts.LikePost(ctx, bobID, post.ID))
	require.NoError(t, f.posts.LikePost(ctx, carolID, post.ID))

	listed, err := f.posts.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "  hi @bob @ghost", listed[0].Content)
	assert.Equal(t, 2, listed[0].LikeCount)
	require.Len(t, listed[0].Comments, 1)
	assert.Equal(t, "thanks @alice\n", listed[0].Comments[0].Content)

	byAuthor, err := f.posts.ListPosts(ctx, aliceID)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 1)

	assert.True(t, apperr.Is(f.posts.DeletePost(ctx, bobID, post.ID), apperr.KindForbidden))
	require.NoError(t, f.posts.DeletePost(ctx, aliceID, post.ID))

	for _, table := range []string{"posts", "comments", "likes", "post_mentions", "comment_mentions", "post_attachments", "comment_attachments"} {
		assert.Zero(t, f.count(t, table), table)
	}
}
