package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"social-service/internal/apperr"
	"social-service/internal/models"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

const (
	maxMoodTextLength  = 50
	maxMoodEmojiLength = 10
)

type CreatePostInput struct {
	Content   string
	MoodText  *string
	MoodEmoji *string
	Images    [][]byte
	Mentions  []string
}

type CreateCommentInput struct {
	Content  string
	Images   [][]byte
	Mentions []string
}

// PostService implements posts, comments, likes and mentions.
type PostService struct {
	users    repositories.UserRepository
	posts    repositories.PostRepository
	uploader AttachmentUploader
	events   EventEmitter
	now      func() time.Time
	newID    func() string
}

func NewPostService(users repositories.UserRepository, posts repositories.PostRepository, uploader AttachmentUploader, events EventEmitter) *PostService {
	return &PostService{
		users:    users,
		posts:    posts,
		uploader: uploader,
		events:   events,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *PostService) CreatePost(ctx context.Context, authorID string, in CreatePostInput) (models.Post, error) {
	if strings.TrimSpace(in.Content) == "" {
		return models.Post{}, apperr.Validation("content", "content is required")
	}
	moodText, err := boundedOptional("mood_text", in.MoodText, maxMoodTextLength)
	if err != nil {
		return models.Post{}, err
	}
	moodEmoji, err := boundedOptional("mood_emoji", in.MoodEmoji, maxMoodEmojiLength)
	if err != nil {
		return models.Post{}, err
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return models.Post{}, userLookupError("author", err)
	}

	urls := uploadAll(ctx, s.uploader, in.Images)

	post, mentioned, err := s.posts.CreatePost(ctx, models.Post{
		ID:        s.newID(),
		AuthorID:  authorID,
		Content:   in.Content,
		MoodText:  moodText,
		MoodEmoji: moodEmoji,
		CreatedAt: s.now().UTC(),
	}, urls, MentionHandles(in.Content, in.Mentions))
	if err != nil {
		return models.Post{}, apperr.Store("create post", err)
	}
	post.Author = author

	s.emit(ctx, telemetry.EventPostCreated, authorID, map[string]any{"post_id": post.ID, "attachments": len(post.Images)})
	s.emitMentions(ctx, authorID, mentioned, map[string]any{"post_id": post.ID})
	return post, nil
}

// ListPosts returns the newest page of posts, optionally for one author only.
// A malformed author id matches nobody.
func (s *PostService) ListPosts(ctx context.Context, authorID string) ([]models.Post, error) {
	authorID = strings.TrimSpace(authorID)
	if authorID != "" && !validID(authorID) {
		return []models.Post{}, nil
	}
	posts, err := s.posts.ListPosts(ctx, authorID, models.PostPageSize)
	if err != nil {
		return nil, apperr.Store("list posts", err)
	}
	return posts, nil
}

// DeletePost removes the post and all of its dependents. Only the author may do that.
func (s *PostService) DeletePost(ctx context.Context, requesterID, postID string) error {
	if !validID(postID) {
		return apperr.NotFound("post")
	}
	post, err := s.posts.GetPost(ctx, postID)
	if err != nil {
		return postLookupError(err)
	}
	if post.AuthorID != requesterID {
		return apperr.Forbidden("only the author can delete this post")
	}
	if err := s.posts.DeletePost(ctx, postID); err != nil {
		return postLookupError(err)
	}
	s.emit(ctx, telemetry.EventPostDeleted, requesterID, map[string]any{"post_id": postID})
	return nil
}

// LikePost relies on the (post, user) unique key; a repeat like is a Conflict.
func (s *PostService) LikePost(ctx context.Context, userID, postID string) error {
	if !validID(postID) {
		return apperr.NotFound("post")
	}
	err := s.posts.CreateLike(ctx, models.Like{PostID: postID, UserID: userID, CreatedAt: s.now().UTC()})
	switch {
	case err == nil:
		s.emit(ctx, telemetry.EventPostLiked, userID, map[string]any{"post_id": postID})
		return nil
	case errors.Is(err, repositories.ErrDuplicate):
		return apperr.Conflict("post already liked")
	default:
		return postLookupError(err)
	}
}

func (s *PostService) UnlikePost(ctx context.Context, userID, postID string) error {
	if !validID(postID) {
		return apperr.NotFound("post")
	}
	err := s.posts.DeleteLike(ctx, postID, userID)
	switch {
	case err == nil:
		s.emit(ctx, telemetry.EventPostUnliked, userID, map[string]any{"post_id": postID})
		return nil
	case errors.Is(err, repositories.ErrLikeNotFound):
		return apperr.NotFound("like")
	default:
		return apperr.Store("delete like", err)
	}
}

func (s *PostService) CreateComment(ctx context.Context, authorID, postID string, in CreateCommentInput) (models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return models.Comment{}, apperr.Validation("content", "content is required")
	}
	if !validID(postID) {
		return models.Comment{}, apperr.NotFound("post")
	}
	if _, err := s.posts.GetPost(ctx, postID); err != nil {
		return models.Comment{}, postLookupError(err)
	}
	author, err := s.users.GetByID(ctx, authorID)
	if err != nil {
		return models.Comment{}, userLookupError("author", err)
	}

	urls := uploadAll(ctx, s.uploader, in.Images)

	comment, mentioned, err := s.posts.CreateComment(ctx, models.Comment{
		ID:        s.newID(),
		PostID:    postID,
		AuthorID:  authorID,
		Content:   in.Content,
		CreatedAt: s.now().UTC(),
	}, urls, MentionHandles(in.Content, in.Mentions))
	if err != nil {
		return models.Comment{}, postLookupError(err)
	}
	comment.Author = author

	s.emit(ctx, telemetry.EventCommentCreated, authorID, map[string]any{"post_id": postID, "comment_id": comment.ID})
	s.emitMentions(ctx, authorID, mentioned, map[string]any{"post_id": postID, "comment_id": comment.ID})
	return comment, nil
}

// DeleteComment removes a comment. Only its author may do that.
func (s *PostService) DeleteComment(ctx context.Context, requesterID, commentID string) error {
	if !validID(commentID) {
		return apperr.NotFound("comment")
	}
	comment, err := s.posts.GetComment(ctx, commentID)
	if errors.Is(err, repositories.ErrCommentNotFound) {
		return apperr.NotFound("comment")
	}
	if err != nil {
		return apperr.Store("get comment", err)
	}
	if comment.AuthorID != requesterID {
		return apperr.Forbidden("only the author can delete this comment")
	}
	if err := s.posts.DeleteComment(ctx, commentID); err != nil {
		if errors.Is(err, repositories.ErrCommentNotFound) {
			return apperr.NotFound("comment")
		}
		return apperr.Store("delete comment", err)
	}
	s.emit(ctx, telemetry.EventCommentDeleted, requesterID, map[string]any{"comment_id": commentID, "post_id": comment.PostID})
	return nil
}

func (s *PostService) emit(ctx context.Context, eventType, userID string, payload any) {
	if s.events != nil {
		s.events.Emit(ctx, eventType, userID, payload)
	}
}

func (s *PostService) emitMentions(ctx context.Context, authorID string, mentioned []models.User, payload map[string]any) {
	for _, u := range mentioned {
		body := map[string]any{"mentioned_user_id": u.ID}
		for k, v := range payload {
			body[k] = v
		}
		s.emit(ctx, telemetry.EventMentionCreated, authorID, body)
	}
}

func postLookupError(err error) error {
	if errors.Is(err, repositories.ErrPostNotFound) {
		return apperr.NotFound("post")
	}
	return apperr.Store("post store", err)
}

// boundedOptional trims v; blank becomes nil, overlong is a Validation error on field.
func boundedOptional(field string, v *string, max int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > max {
		return nil, apperr.Validation(field, "too long")
	}
	return &trimmed, nil
}
