package repositories

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"social-service/internal/db"
	"social-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository abstracts direct message persistence.
type MessageRepository interface {
	CreateMessage(ctx context.Context, msg models.Message, imageURLs []string) (models.Message, error)
	GetMessage(ctx context.Context, id string) (models.Message, error)
	ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error)
	MarkThreadRead(ctx context.Context, receiverID, senderID string) (int64, error)
	ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var messageSelect = `SELECT m.id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at, ` +
	userColumns("s", "sender") + `, ` + userColumns("r", "receiver") + `
        FROM messages m
        JOIN users s ON s.id = m.sender_id
        JOIN users r ON r.id = m.receiver_id`

// CreateMessage stores the message row and its attachments atomically.
func (r *MessageRepo) CreateMessage(ctx context.Context, msg models.Message, imageURLs []string) (models.Message, error) {
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO messages (id, sender_id, receiver_id, content, read, created_at)
            VALUES (?, ?, ?, ?, ?, ?)`),
			msg.ID, msg.SenderID, msg.ReceiverID, msg.Content, false, msg.CreatedAt)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrUserNotFound
			}
			return errors.Wrap(err, "insert message")
		}
		msg.Images, err = messageAttachments.insert(ctx, tx, msg.ID, imageURLs)
		return err
	})
	if err != nil {
		return models.Message{}, err
	}
	msg.Read = false
	return msg, nil
}

func (r *MessageRepo) GetMessage(ctx context.Context, id string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, r.db.Rebind(messageSelect+` WHERE m.id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, errors.Wrap(err, "get message")
	}

	images, err := messageAttachments.load(ctx, r.db, []string{id})
	if err != nil {
		return models.Message{}, err
	}
	msg.Images = images[id]
	return msg, nil
}

// ListConversations returns one summary per counterpart, newest exchange first.
// The summary row is the message of the pair with no newer sibling.
func (r *MessageRepo) ListConversations(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	query := `SELECT ` + userColumns("u", "counterpart") + `,
            m.content AS last_message,
            m.created_at AS last_message_at,
            (SELECT COUNT(*) FROM messages um
                WHERE um.sender_id = u.id AND um.receiver_id = ? AND um.read = FALSE) AS unread_count
        FROM messages m
        JOIN users u ON u.id = CASE WHEN m.sender_id = ? THEN m.receiver_id ELSE m.sender_id END
        WHERE (m.sender_id = ? OR m.receiver_id = ?)
          AND NOT EXISTS (
            SELECT 1 FROM messages n
            WHERE ((n.sender_id = m.sender_id AND n.receiver_id = m.receiver_id)
                OR (n.sender_id = m.receiver_id AND n.receiver_id = m.sender_id))
              AND (n.created_at > m.created_at OR (n.created_at = m.created_at AND n.id > m.id))
          )
        ORDER BY m.created_at DESC, u.id ASC`

	conversations := []models.ConversationSummary{}
	err := r.db.SelectContext(ctx, &conversations, r.db.Rebind(query), userID, userID, userID, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list conversations")
	}
	return conversations, nil
}

// MarkThreadRead flags every unread message from sender to receiver as read.
// Only the receiver's side changes; running it twice is a no-op.
func (r *MessageRepo) MarkThreadRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE messages SET read = TRUE
        WHERE sender_id = ? AND receiver_id = ? AND read = FALSE`), senderID, receiverID)
	if err != nil {
		return 0, errors.Wrap(err, "mark thread read")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}

// ListThread returns both directions of the conversation, oldest first.
func (r *MessageRepo) ListThread(ctx context.Context, userID, counterpartID string) ([]models.Message, error) {
	query := messageSelect + `
        WHERE (m.sender_id = ? AND m.receiver_id = ?) OR (m.sender_id = ? AND m.receiver_id = ?)
        ORDER BY m.created_at ASC, m.id ASC`

	messages := []models.Message{}
	if err := r.db.SelectContext(ctx, &messages, r.db.Rebind(query), userID, counterpartID, counterpartID, userID); err != nil {
		return nil, errors.Wrap(err, "list thread")
	}

	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	images, err := messageAttachments.load(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].Images = images[messages[i].ID]
	}
	return messages, nil
}

func (r *MessageRepo) DeleteMessage(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM message_attachments WHERE message_id = ?`), id); err != nil {
			return errors.Wrap(err, "delete message attachments")
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM messages WHERE id = ?`), id)
		if err != nil {
			return errors.Wrap(err, "delete message")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrMessageNotFound
		}
		return nil
	})
}
