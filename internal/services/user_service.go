package services

import (
	"context"
	"strings"

	"social-service/internal/apperr"
	"social-service/internal/models"
	"social-service/internal/repositories"
)

// UserService exposes profile lookups.
type UserService struct {
	users repositories.UserRepository
}

func NewUserService(users repositories.UserRepository) *UserService {
	return &UserService{users: users}
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (models.User, error) {
	username = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(username, "@")))
	if username == "" {
		return models.User{}, apperr.Validation("username", "username is required")
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return models.User{}, userLookupError("user", err)
	}
	return user, nil
}
