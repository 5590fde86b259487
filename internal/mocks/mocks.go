package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"social-service/internal/models"
	"social-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetByID(ctx context.Context, id string) (models.User, error) {
	args := m.Called(ctx, id)
	return userArg(args), args.Error(1)
}

func (m *UserRepositoryMock) GetBySubject(ctx context.Context, subjectID string) (models.User, error) {
	args := m.Called(ctx, subjectID)
	return userArg(args), args.Error(1)
}

func (m *UserRepositoryMock) GetByUsername(ctx context.Context, username string) (models.User, error) {
	args := m.Called(ctx, username)
	return userArg(args), args.Error(1)
}

func (m *UserRepositoryMock) Create(ctx context.Context, user models.User) (models.User, error) {
	args := m.Called(ctx, user)
	return userArg(args), args.Error(1)
}

func userArg(args mock.Arguments) models.User {
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message, imageURLs []string) (models.Message, error) {
	args := m.Called(ctx, msg, imageURLs)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, id string) (models.Message, error) {
	args := m.Called(ctx, id)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) MarkThreadRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	args := m.Called(ctx, receiverID, senderID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	args := m.Called(ctx, userID, counterpartID)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) DeleteMessage(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type PostRepositoryMock struct {
	mock.Mock
}

func (m *PostRepositoryMock) CreatePost(ctx context.Context, post models.Post, imageURLs, mentions []string) (models.Post, []models.User, error) {
	args := m.Called(ctx, post, imageURLs, mentions)
	var out models.Post
	if val := args.Get(0); val != nil {
		out = val.(models.Post)
	}
	var users []models.User
	if val := args.Get(1); val != nil {
		users = val.([]models.User)
	}
	return out, users, args.Error(2)
}

func (m *PostRepositoryMock) GetPost(ctx context.Context, id string) (models.Post, error) {
	args := m.Called(ctx, id)
	var out models.Post
	if val := args.Get(0); val != nil {
		out = val.(models.Post)
	}
	return out, args.Error(1)
}

func (m *PostRepositoryMock) ListPosts(ctx context.Context, authorID string, limit int) ([]models.Post, error) {
	args := m.Called(ctx, authorID, limit)
	var list []models.Post
	if val := args.Get(0); val != nil {
		list = val.([]models.Post)
	}
	return list, args.Error(1)
}

func (m *PostRepositoryMock) DeletePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *PostRepositoryMock) CreateLike(ctx context.Context, like models.Like) error {
	return m.Called(ctx, like).Error(0)
}

func (m *PostRepositoryMock) DeleteLike(ctx context.Context, postID, userID string) error {
	return m.Called(ctx, postID, userID).Error(0)
}

func (m *PostRepositoryMock) CreateComment(ctx context.Context, comment models.Comment, imageURLs, mentions []string) (models.Comment, []models.User, error) {
	args := m.Called(ctx, comment, imageURLs, mentions)
	var out models.Comment
	if val := args.Get(0); val != nil {
		out = val.(models.Comment)
	}
	var users []models.User
	if val := args.Get(1); val != nil {
		users = val.([]models.User)
	}
	return out, users, args.Error(2)
}

func (m *PostRepositoryMock) GetComment(ctx context.Context, id string) (models.Comment, error) {
	args := m.Called(ctx, id)
	var out models.Comment
	if val := args.Get(0); val != nil {
		out = val.(models.Comment)
	}
	return out, args.Error(1)
}

func (m *PostRepositoryMock) DeleteComment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type UploaderMock struct {
	mock.Mock
}

func (m *UploaderMock) UploadMany(ctx context.Context, images [][]byte, limit int) []string {
	args := m.Called(ctx, images, limit)
	if val := args.Get(0); val != nil {
		return val.([]string)
	}
	return nil
}

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) Emit(ctx context.Context, eventType, userID string, payload any) {
	m.Called(ctx, eventType, userID, payload)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyUser(userID string, event models.InboxEvent) {
	m.Called(userID, event)
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.PostRepository = (*PostRepositoryMock)(nil)
