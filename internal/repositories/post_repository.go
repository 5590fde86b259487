package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"social-service/internal/db"
	"social-service/internal/models"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrLikeNotFound    = errors.New("like not found")
)

// PostRepository abstracts posts, comments, likes and mentions.
type PostRepository interface {
	CreatePost(ctx context.Context, post models.Post, imageURLs, mentions []string) (models.Post, []models.User, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	ListPosts(ctx context.Context, authorID string, limit int) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	CreateLike(ctx context.Context, like models.Like) error
	DeleteLike(ctx context.Context, postID, userID string) error
	CreateComment(ctx context.Context, comment models.Comment, imageURLs, mentions []string) (models.Comment, []models.User, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// PostRepo is a sqlx implementation of PostRepository.
type PostRepo struct {
	db *sqlx.DB
}

// NewPostRepo constructs a PostRepo.
func NewPostRepo(db *sqlx.DB) *PostRepo {
	return &PostRepo{db: db}
}

var postSelect = `SELECT p.id, p.author_id, p.content, p.mood_text, p.mood_emoji, p.created_at, ` +
	userColumns("u", "author") + `,
        (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count
        FROM posts p
        JOIN users u ON u.id = p.author_id`

var commentSelect = `SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, ` +
	userColumns("u", "author") + `
        FROM comments c
        JOIN users u ON u.id = c.author_id`

// CreatePost stores the post, its attachments and the mentions of handles that
// resolve to existing users. Unknown handles are skipped.
func (r *PostRepo) CreatePost(ctx context.Context, post models.Post, imageURLs, mentions []string) (models.Post, []models.User, error) {
	var mentioned []models.User
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO posts (id, author_id, content, mood_text, mood_emoji, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`),
			post.ID, post.AuthorID, post.Content, post.MoodText, post.MoodEmoji, post.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert post")
		}
		if post.Images, err = postAttachments.insert(ctx, tx, post.ID, imageURLs); err != nil {
			return err
		}
		mentioned, err = insertMentions(ctx, tx, "post_mentions", "post_id", post.ID, mentions, post.CreatedAt)
		return err
	})
	if err != nil {
		return models.Post{}, nil, err
	}
	post.Comments = []models.Comment{}
	return post, mentioned, nil
}

func (r *PostRepo) GetPost(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post, r.db.Rebind(postSelect+` WHERE p.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Post{}, ErrPostNotFound
	}
	if err != nil {
		return models.Post{}, errors.Wrap(err, "get post")
	}
	images, err := postAttachments.load(ctx, r.db, []string{id})
	if err != nil {
		return models.Post{}, err
	}
	post.Images = images[id]
	post.Comments = []models.Comment{}
	return post, nil
}

// ListPosts returns up to limit posts newest first, optionally restricted to
// one author, each with like count, images and comments oldest first.
func (r *PostRepo) ListPosts(ctx context.Context, authorID string, limit int) ([]models.Post, error) {
	if limit <= 0 || limit > models.PostPageSize {
		limit = models.PostPageSize
	}

	query := postSelect
	args := []interface{}{}
	if authorID != "" {
		query += ` WHERE p.author_id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC LIMIT ?`
	args = append(args, limit)

	posts := []models.Post{}
	if err := r.db.SelectContext(ctx, &posts, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list posts")
	}
	if len(posts) == 0 {
		return posts, nil
	}

	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	images, err := postAttachments.load(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	comments, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Images = images[posts[i].ID]
		posts[i].Comments = comments[posts[i].ID]
	}
	return posts, nil
}

func (r *PostRepo) commentsFor(ctx context.Context, postIDs []string) (map[string][]models.Comment, error) {
	query, args, err := sqlx.In(commentSelect+` WHERE c.post_id IN (?) ORDER BY c.created_at ASC, c.id ASC`, postIDs)
	if err != nil {
		return nil, errors.Wrap(err, "build comments query")
	}
	var rows []models.Comment
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list comments")
	}

	ids := make([]string, len(rows))
	for i, c := range rows {
		ids[i] = c.ID
	}
	images, err := commentAttachments.load(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]models.Comment, len(postIDs))
	for _, id := range postIDs {
		result[id] = []models.Comment{}
	}
	for _, c := range rows {
		c.Images = images[c.ID]
		result[c.PostID] = append(result[c.PostID], c)
	}
	return result, nil
}

// DeletePost removes the post and everything hanging off it, children first.
func (r *PostRepo) DeletePost(ctx context.Context, id string) error {
	steps := []struct {
		what  string
		query string
	}{
		{"comment mentions", `DELETE FROM comment_mentions WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)`},
		{"post mentions", `DELETE FROM post_mentions WHERE post_id = ?`},
		{"likes", `DELETE FROM likes WHERE post_id = ?`},
		{"comment attachments", `DELETE FROM comment_attachments WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)`},
		{"comments", `DELETE FROM comments WHERE post_id = ?`},
		{"post attachments", `DELETE FROM post_attachments WHERE post_id = ?`},
	}
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, step := range steps {
			if _, err := tx.ExecContext(ctx, tx.Rebind(step.query), id); err != nil {
				return errors.Wrapf(err, "delete %s", step.what)
			}
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM posts WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "delete post")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrPostNotFound
		}
		return nil
	})
}

// CreateLike returns ErrDuplicate when the user already likes the post.
func (r *PostRepo) CreateLike(ctx context.Context, like models.Like) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`),
		like.PostID, like.UserID, like.CreatedAt)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err):
		return ErrDuplicate
	case db.IsForeignKeyViolation(err):
		return ErrPostNotFound
	default:
		return errors.Wrap(err, "insert like")
	}
}

func (r *PostRepo) DeleteLike(ctx context.Context, postID, userID string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM likes WHERE post_id = ? AND user_id = ?`), postID, userID)
	if err != nil {
		return errors.Wrap(err, "delete like")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrLikeNotFound
	}
	return nil
}

func (r *PostRepo) CreateComment(ctx context.Context, comment models.Comment, imageURLs, mentions []string) (models.Comment, []models.User, error) {
	var mentioned []models.User
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO comments (id, post_id, author_id, content, created_at)
            VALUES (?, ?, ?, ?, ?)`),
			comment.ID, comment.PostID, comment.AuthorID, comment.Content, comment.CreatedAt)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrPostNotFound
			}
			return errors.Wrap(err, "insert comment")
		}
		if comment.Images, err = commentAttachments.insert(ctx, tx, comment.ID, imageURLs); err != nil {
			return err
		}
		mentioned, err = insertMentions(ctx, tx, "comment_mentions", "comment_id", comment.ID, mentions, comment.CreatedAt)
		return err
	})
	if err != nil {
		return models.Comment{}, nil, err
	}
	return comment, mentioned, nil
}

func (r *PostRepo) GetComment(ctx context.Context, id string) (models.Comment, error) {
	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, r.db.Rebind(commentSelect+` WHERE c.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Comment{}, ErrCommentNotFound
	}
	if err != nil {
		return models.Comment{}, errors.Wrap(err, "get comment")
	}
	images, err := commentAttachments.load(ctx, r.db, []string{id})
	if err != nil {
		return models.Comment{}, err
	}
	comment.Images = images[id]
	return comment, nil
}

func (r *PostRepo) DeleteComment(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comment_mentions WHERE comment_id = ?`), id); err != nil {
			return errors.Wrap(err, "delete comment mentions")
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comment_attachments WHERE comment_id = ?`), id); err != nil {
			return errors.Wrap(err, "delete comment attachments")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "delete comment")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrCommentNotFound
		}
		return nil
	})
}

// insertMentions resolves handles to users inside tx and links them to the
// parent row. Returns the users that were resolved.
func insertMentions(ctx context.Context, tx *sqlx.Tx, table, parentColumn, parentID string, handles []string, at time.Time) ([]models.User, error) {
	if len(handles) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns("u", "")+` FROM users u WHERE u.username IN (?) ORDER BY u.username`, handles)
	if err != nil {
		return nil, errors.Wrap(err, "build mention query")
	}
	users := []models.User{}
	if err := tx.SelectContext(ctx, &users, tx.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "resolve mentions")
	}

	insert := tx.Rebind(`INSERT INTO ` + table + ` (` + parentColumn + `, user_id, created_at) VALUES (?, ?, ?)
        ON CONFLICT (` + parentColumn + `, user_id) DO NOTHING`)
	for _, u := range users {
		if _, err := tx.ExecContext(ctx, insert, parentID, u.ID, at); err != nil {
			return nil, errors.Wrapf(err, "insert %s", table)
		}
	}
	return users, nil
}
