package identity

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"social-service/internal/apperr"
	"social-service/internal/logger"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

const (
	maxSequentialAttempts = 20
	maxRandomAttempts     = 3
	maxHandleLength       = 40
	defaultDisplayName    = "User"
)

var errHandlesExhausted = errors.New("no free handle found")

type eventEmitter interface {
	Emit(ctx context.Context, eventType, userID string, payload any)
}

// Resolver maps an external session to an internal user, creating the user on
// first sight.
type Resolver struct {
	users  repositories.UserRepository
	events eventEmitter
	now    func() time.Time
	newID  func() string
}

func NewResolver(users repositories.UserRepository, events eventEmitter) *Resolver {
	return &Resolver{
		users:  users,
		events: events,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Resolve returns the user owning session, provisioning one if needed.
// Handles are claimed by inserting against the unique index and retrying on
// conflict, so two concurrent sessions deriving the same base never share a handle.
func (r *Resolver) Resolve(ctx context.Context, session models.Session) (models.User, error) {
	if strings.TrimSpace(session.SubjectID) == "" {
		return models.User{}, apperr.Authentication("session has no subject")
	}

	user, err := r.users.GetBySubject(ctx, session.SubjectID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return models.User{}, apperr.Store("lookup user", err)
	}

	base := DeriveHandle(session, r.now())
	for attempt := 0; attempt < maxSequentialAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = base + strconv.Itoa(attempt)
			observability.IncHandleRetry("sequential")
		}
		user, ok, err := r.claim(ctx, session, candidate)
		if err != nil || ok {
			return user, err
		}
	}

	for attempt := 0; attempt < maxRandomAttempts; attempt++ {
		observability.IncHandleRetry("random")
		candidate := base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		user, ok, err := r.claim(ctx, session, candidate)
		if err != nil || ok {
			return user, err
		}
	}

	logger.Error("handle allocation exhausted", zap.String("base", base))
	return models.User{}, apperr.Store("provision user", errHandlesExhausted)
}

// claim tries to insert the user under handle. ok is false when the handle is
// taken and the caller should try another one.
func (r *Resolver) claim(ctx context.Context, session models.Session, handle string) (models.User, bool, error) {
	user := models.User{
		ID:          r.newID(),
		SubjectID:   session.SubjectID,
		Username:    handle,
		DisplayName: displayName(session),
		AvatarURL:   optional(session.AvatarURL),
		CreatedAt:   r.now().UTC(),
	}

	created, err := r.users.Create(ctx, user)
	if err == nil {
		logger.Info("user provisioned", zap.String("user_id", created.ID), zap.String("username", created.Username))
		if r.events != nil {
			r.events.Emit(ctx, telemetry.EventUserCreated, created.ID, map[string]string{"username": created.Username})
		}
		return created, true, nil
	}
	if !errors.Is(err, repositories.ErrDuplicate) {
		return models.User{}, false, apperr.Store("create user", err)
	}

	// the conflict may come from a concurrent request for the same subject
	existing, err := r.users.GetBySubject(ctx, session.SubjectID)
	switch {
	case err == nil:
		return existing, true, nil
	case errors.Is(err, repositories.ErrUserNotFound):
		return models.User{}, false, nil
	default:
		return models.User{}, false, apperr.Store("lookup user", err)
	}
}

// DeriveHandle picks the base handle for a new user: the email local-part
// without any +tag, else the display name without whitespace, else a
// timestamp handle.
// Both sources are lower-cased and reduced to [a-z0-9_.].
func DeriveHandle(session models.Session, now time.Time) string {
	local, _, _ := strings.Cut(session.Email, "@")
	local, _, _ = strings.Cut(local, "+")
	if handle := sanitizeHandle(local); handle != "" {
		return handle
	}
	if handle := sanitizeHandle(strings.Join(strings.Fields(session.DisplayName), "")); handle != "" {
		return handle
	}
	return "user" + strconv.FormatInt(now.UnixMilli(), 10)
}

func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '.' {
			b.WriteRune(r)
		}
		if b.Len() == maxHandleLength {
			break
		}
	}
	return strings.Trim(b.String(), ".")
}

func displayName(session models.Session) string {
	if name := strings.TrimSpace(session.DisplayName); name != "" {
		return name
	}
	return defaultDisplayName
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
