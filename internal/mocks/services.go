package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/services"
)

type MessageServiceMock struct {
	mock.Mock
}

func (m *MessageServiceMock) SendMessage(ctx context.Context, senderID string, in services.SendMessageInput) (models.Message, error) {
	args := m.Called(ctx, senderID, in)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageServiceMock) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *MessageServiceMock) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, counterpartID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageServiceMock) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	return m.Called(ctx, requesterID, messageID).Error(0)
}

type PostServiceMock struct {
	mock.Mock
}

func (m *PostServiceMock) CreatePost(ctx context.Context, authorID string, in services.CreatePostInput) (models.Post, error) {
	args := m.Called(ctx, authorID, in)
	var out models.Post
	if val := args.Get(0); val != nil {
		out = val.(models.Post)
	}
	return out, args.Error(1)
}

func (m *PostServiceMock) ListPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	args := m.Called(ctx, authorID)
	var list []models.Post
	if val := args.Get(0); val != nil {
		list = val.([]models.Post)
	}
	return list, args.Error(1)
}

func (m *PostServiceMock) DeletePost(ctx context.Context, requesterID, postID string) error {
	return m.Called(ctx, requesterID, postID).Error(0)
}

func (m *PostServiceMock) LikePost(ctx context.Context, userID, postID string) error {
	return m.Called(ctx, userID, postID).Error(0)
}

func (m *PostServiceMock) UnlikePost(ctx context.Context, userID, postID string) error {
	return m.Called(ctx, userID, postID).Error(0)
}

func (m *PostServiceMock) CreateComment(ctx context.Context, authorID, postID string, in services.CreateCommentInput) (models.Comment, error) {
	args := m.Called(ctx, authorID, postID, in)
	var out models.Comment
	if val := args.Get(0); val != nil {
		out = val.(models.Comment)
	}
	return out, args.Error(1)
}

func (m *PostServiceMock) DeleteComment(ctx context.Context, requesterID, commentID string) error {
	return m.Called(ctx, requesterID, commentID).Error(0)
}

type UserServiceMock struct {
	mock.Mock
}

func (m *UserServiceMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	var out models.User
	if val := args.Get(0); val != nil {
		out = val.(models.User)
	}
	return out, args.Error(1)
}

var _ services.AttachmentUploader = (*UploaderMock)(nil)
var _ services.EventEmitter = (*EmitterMock)(nil)
var _ services.Notifier = (*NotifierMock)(nil)
