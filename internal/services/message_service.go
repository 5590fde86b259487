package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"social-service/internal/apperr"
	"social-service/internal/models"
	"social-service/internal/observability"
	"social-service/internal/repositories"
	"social-service/internal/telemetry"
)

// SendMessageInput carries a new direct message. Images are raw bytes; only
// the first two are considered.
type SendMessageInput struct {
	ReceiverID string
	Content    string
	Images     [][]byte
}

// MessageService implements private messaging between two users.
type MessageService struct {
	users    repositories.UserRepository
	messages repositories.MessageRepository
	uploader AttachmentUploader
	events   EventEmitter
	notifier Notifier
	now      func() time.Time
	newID    func() string
}

func NewMessageService(users repositories.UserRepository, messages repositories.MessageRepository, uploader AttachmentUploader, events EventEmitter, notifier Notifier) *MessageService {
	return &MessageService{
		users:    users,
		messages: messages,
		uploader: uploader,
		events:   events,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// SendMessage validates the request, uploads attachments outside any
// transaction, then stores the message and its attachment rows atomically.
func (s *MessageService) SendMessage(ctx context.Context, senderID string, in SendMessageInput) (models.Message, error) {
	receiverID := strings.TrimSpace(in.ReceiverID)
	if receiverID == "" {
		return models.Message{}, apperr.Validation("receiver_id", "receiver is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return models.Message{}, apperr.Validation("content", "content is required")
	}
	if receiverID == senderID {
		return models.Message{}, apperr.Validation("receiver_id", "cannot send a message to yourself")
	}
	if !validID(receiverID) {
		return models.Message{}, apperr.NotFound("receiver")
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		return models.Message{}, userLookupError("receiver", err)
	}
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return models.Message{}, userLookupError("sender", err)
	}

	urls := uploadAll(ctx, s.uploader, in.Images)

	msg, err := s.messages.CreateMessage(ctx, models.Message{
		ID:         s.newID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    in.Content,
		CreatedAt:  s.now().UTC(),
	}, urls)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return models.Message{}, apperr.NotFound("receiver")
		}
		return models.Message{}, apperr.Store("create message", err)
	}
	msg.Sender = sender
	msg.Receiver = receiver

	s.emit(ctx, telemetry.EventMessageSent, senderID, map[string]any{
		"message_id":  msg.ID,
		"receiver_id": receiverID,
		"attachments": len(msg.Images),
	})
	s.notify(receiverID, models.InboxEvent{Type: "message", Message: &msg})
	s.notify(senderID, models.InboxEvent{Type: "message", Message: &msg})
	return msg, nil
}

func (s *MessageService) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	conversations, err := s.messages.ListConversations(ctx, userID)
	if err != nil {
		return nil, apperr.Store("list conversations", err)
	}
	return conversations, nil
}

// ListThread marks the counterpart's messages to userID as read and then
// returns the whole thread oldest first. The two steps are independent: the
// read marks stay even if the fetch fails.
func (s *MessageService) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	counterpartID = strings.TrimSpace(counterpartID)
	if counterpartID == "" {
		return nil, apperr.Validation("user_id", "counterpart is required")
	}
	if !validID(counterpartID) {
		return nil, apperr.NotFound("user")
	}
	if _, err := s.users.GetByID(ctx, counterpartID); err != nil {
		return nil, userLookupError("user", err)
	}

	marked, err := s.messages.MarkThreadRead(ctx, userID, counterpartID)
	if err != nil {
		return nil, apperr.Store("mark thread read", err)
	}
	if marked > 0 {
		observability.AddMarkedRead(marked)
		s.emit(ctx, telemetry.EventMessageRead, userID, map[string]any{"counterpart_id": counterpartID, "count": marked})
		s.notify(counterpartID, models.InboxEvent{Type: "read", CounterpartID: userID, Count: marked})
	}

	thread, err := s.messages.ListThread(ctx, userID, counterpartID)
	if err != nil {
		return nil, apperr.Store("list thread", err)
	}
	return thread, nil
}

// DeleteMessage removes a message. Only its sender may do that.
func (s *MessageService) DeleteMessage(ctx context.Context, requesterID, messageID string) error {
	if !validID(messageID) {
		return apperr.NotFound("message")
	}
	msg, err := s.messages.GetMessage(ctx, messageID)
	if errors.Is(err, repositories.ErrMessageNotFound) {
		return apperr.NotFound("message")
	}
	if err != nil {
		return apperr.Store("get message", err)
	}
	if msg.SenderID != requesterID {
		return apperr.Forbidden("only the sender can delete this message")
	}

	if err := s.messages.DeleteMessage(ctx, messageID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return apperr.NotFound("message")
		}
		return apperr.Store("delete message", err)
	}

	s.emit(ctx, telemetry.EventMessageDeleted, requesterID, map[string]any{"message_id": messageID, "receiver_id": msg.ReceiverID})
	s.notify(msg.ReceiverID, models.InboxEvent{Type: "delete", MessageID: messageID, CounterpartID: requesterID})
	return nil
}

func (s *MessageService) emit(ctx context.Context, eventType, userID string, payload any) {
	if s.events != nil {
		s.events.Emit(ctx, eventType, userID, payload)
	}
}

func (s *MessageService) notify(userID string, event models.InboxEvent) {
	if s.notifier != nil {
		s.notifier.NotifyUser(userID, event)
	}
}

func userLookupError(resource string, err error) error {
	if errors.Is(err, repositories.ErrUserNotFound) {
		return apperr.NotFound(resource)
	}
	return apperr.Store("get "+resource, err)
}
