package services

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"social-service/internal/models"
)

// AttachmentUploader stores raw images and returns their public URLs. It is
// best-effort: failed images are left out of the result.
type AttachmentUploader interface {
	UploadMany(ctx context.Context, images [][]byte, limit int) []string
}

// EventEmitter publishes domain events after a write has committed.
type EventEmitter interface {
	Emit(ctx context.Context, eventType, userID string, payload any)
}

// Notifier pushes inbox events to a user's live connections.
type Notifier interface {
	NotifyUser(userID string, event models.InboxEvent)
}

// validID reports whether id is in the canonical form row ids are stored in.
// Anything else cannot name a row, and Postgres would reject it as a UUID.
func validID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func uploadAll(ctx context.Context, uploader AttachmentUploader, images [][]byte) []string {
	if uploader == nil || len(images) == 0 {
		return nil
	}
	if len(images) > models.MaxAttachments {
		images = images[:models.MaxAttachments]
	}
	return uploader.UploadMany(ctx, images, models.MaxAttachments)
}

var mentionPattern = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9_.]+)`)

// MentionHandles merges explicit handles with @handle tokens found in content.
// Handles are lower-cased, stripped of a leading @ and trailing dots, and deduplicated
// in first-seen order.
func MentionHandles(content string, explicit []string) []string {
	seen := map[string]bool{}
	handles := []string{}
	add := func(h string) {
		h = strings.Trim(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "@"))), ".")
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		handles = append(handles, h)
	}
	for _, h := range explicit {
		add(h)
	}
	for _, m := range mentionPattern.FindAllStringSubmatch(content, -1) {
		add(m[1])
	}
	return handles
}
