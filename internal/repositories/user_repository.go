package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"social-service/internal/db"
	"social-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository abstracts user persistence.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetBySubject(ctx context.Context, subjectID string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	Create(ctx context.Context, user models.User) (models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepo) GetBySubject(ctx context.Context, subjectID string) (models.User, error) {
	return r.getBy(ctx, "subject_id", subjectID)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (models.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepo) getBy(ctx context.Context, column, value string) (models.User, error) {
	var user models.User
	query := r.db.Rebind(`SELECT ` + userColumns("u", "") + ` FROM users u WHERE u.` + column + ` = ?`)
	err := r.db.GetContext(ctx, &user, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "get user")
}

// Create inserts user as a single statement. A collision on subject id or
// username yields ErrDuplicate so callers can retry with another handle.
func (r *UserRepo) Create(ctx context.Context, user models.User) (models.User, error) {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO users (id, subject_id, username, display_name, avatar_url, bio, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`),
		user.ID, user.SubjectID, user.Username, user.DisplayName, user.AvatarURL, user.Bio, user.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, errors.Wrap(err, "insert user")
	}
	return user, nil
}
