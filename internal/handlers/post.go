package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"social-service/internal/models"
	"social-service/internal/services"
)

type postService interface {
	CreatePost(ctx context.Context, authorID string, in services.CreatePostInput) (models.Post, error)
	ListPosts(ctx context.Context, authorID string) ([]models.Post, error)
	DeletePost(ctx context.Context, requesterID, postID string) error
	LikePost(ctx context.Context, userID, postID string) error
	UnlikePost(ctx context.Context, userID, postID string) error
	CreateComment(ctx context.Context, authorID, postID string, in services.CreateCommentInput) (models.Comment, error)
	DeleteComment(ctx context.Context, requesterID, commentID string) error
}

// PostHandler manages the feed: posts, comments and likes.
type PostHandler struct {
	posts postService
}

func NewPostHandler(posts postService) *PostHandler {
	return &PostHandler{posts: posts}
}

// ListPosts returns the newest posts, or one user's posts when user_id is given.
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.posts.ListPosts(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req struct {
		Content   string   `json:"content" binding:"required,notblank"`
		MoodText  *string  `json:"mood_text" binding:"omitempty,max=50"`
		MoodEmoji *string  `json:"mood_emoji" binding:"omitempty,max=10"`
		Images    []string `json:"images"`
		Mentions  []string `json:"mentions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	images, err := decodeImages(req.Images)
	if err != nil {
		respondError(c, err)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), currentUserID(c), services.CreatePostInput{
		Content:   req.Content,
		MoodText:  req.MoodText,
		MoodEmoji: req.MoodEmoji,
		Images:    images,
		Mentions:  req.Mentions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.posts.DeletePost(c.Request.Context(), currentUserID(c), c.Param("post_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) LikePost(c *gin.Context) {
	if err := h.posts.LikePost(c.Request.Context(), currentUserID(c), c.Param("post_id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"liked": true})
}

func (h *PostHandler) UnlikePost(c *gin.Context) {
	if err := h.posts.UnlikePost(c.Request.Context(), currentUserID(c), c.Param("post_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PostHandler) CreateComment(c *gin.Context) {
	var req struct {
		Content  string   `json:"content" binding:"required,notblank"`
		Images   []string `json:"images"`
		Mentions []string `json:"mentions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	images, err := decodeImages(req.Images)
	if err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.posts.CreateComment(c.Request.Context(), currentUserID(c), c.Param("post_id"), services.CreateCommentInput{
		Content:  req.Content,
		Images:   images,
		Mentions: req.Mentions,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	if err := h.posts.DeleteComment(c.Request.Context(), currentUserID(c), c.Param("comment_id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
