// This file implements the messages table accessor. sent_at is stored as
// Unix milliseconds and assigned by the backend clock, never by callers.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: messagesTable must implement MessageTable.
var _ types.MessageTable = (*messagesTable)(nil)

const messageColumns = "id, sender_id, recipient_id, content, sent_at, is_read"

type messagesTable struct {
	backend *Backend
}

// Send stores an unread message stamped with the current time.
func (mt *messagesTable) Send(senderID, recipientID int64, content string) (message *types.Message, err error) {
	defer mt.backend.observe(types.MessagesTable, "send", time.Now(), &err)

	if err := validID(senderID, recipientID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("content: %w", types.ErrInvalidData)
	}

	db, release, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	m := &types.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		SentAt:      mt.backend.stamp(),
	}
	err = withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"INSERT INTO messages (sender_id, recipient_id, content, sent_at, is_read) VALUES (?, ?, ?, ?, 0)",
			senderID, recipientID, content, m.SentAt.UnixMilli(),
		)
		if err != nil {
			return classify("inserting message", err)
		}
		m.MessageID, err = res.LastInsertId()
		if err != nil {
			return classify("reading message id", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Inbox returns messages addressed to recipientID, newest first.
func (mt *messagesTable) Inbox(recipientID int64) (messages []*types.Message, err error) {
	defer mt.backend.observe(types.MessagesTable, "inbox", time.Now(), &err)

	if err := validID(recipientID); err != nil {
		return nil, err
	}
	return mt.query("listing inbox",
		"SELECT "+messageColumns+" FROM messages WHERE recipient_id = ? ORDER BY sent_at DESC, id DESC",
		recipientID)
}

func (mt *messagesTable) MarkRead(messageID int64) (err error) {
	defer mt.backend.observe(types.MessagesTable, "mark_read", time.Now(), &err)

	if err := validID(messageID); err != nil {
		return err
	}
	db, release, err := mt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("UPDATE messages SET is_read = 1 WHERE id = ?", messageID)
		if err != nil {
			return classify("marking message read", err)
		}
		return expectOneRow(res, fmt.Sprintf("message %d", messageID))
	})
}

func (mt *messagesTable) Delete(messageID int64) (err error) {
	defer mt.backend.observe(types.MessagesTable, "delete", time.Now(), &err)

	if err := validID(messageID); err != nil {
		return err
	}
	db, release, err := mt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM messages WHERE id = ?", messageID)
		if err != nil {
			return classify("deleting message", err)
		}
		return expectOneRow(res, fmt.Sprintf("message %d", messageID))
	})
}

// LastBetween returns the most recent message in either direction.
func (mt *messagesTable) LastBetween(userA, userB int64) (message *types.Message, err error) {
	defer mt.backend.observe(types.MessagesTable, "last_between", time.Now(), &err)

	if err := validID(userA, userB); err != nil {
		return nil, err
	}
	db, release, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	m, err := hydrateMessage(db.QueryRow(
		"SELECT "+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY sent_at DESC, id DESC LIMIT 1`,
		userA, userB, userB, userA,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("messages between %d and %d: %w", userA, userB, types.ErrNotFound)
		}
		return nil, classify("getting last message", err)
	}
	return m, nil
}

// Involving returns every message userID sent or received, newest first.
func (mt *messagesTable) Involving(userID int64) (messages []*types.Message, err error) {
	defer mt.backend.observe(types.MessagesTable, "involving", time.Now(), &err)

	if err := validID(userID); err != nil {
		return nil, err
	}
	return mt.query("listing messages",
		"SELECT "+messageColumns+" FROM messages WHERE sender_id = ? OR recipient_id = ? ORDER BY sent_at DESC, id DESC",
		userID, userID)
}

// Between returns the conversation between two users, oldest first.
func (mt *messagesTable) Between(userA, userB int64) (messages []*types.Message, err error) {
	defer mt.backend.observe(types.MessagesTable, "between", time.Now(), &err)

	if err := validID(userA, userB); err != nil {
		return nil, err
	}
	return mt.query("listing conversation",
		"SELECT "+messageColumns+` FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY sent_at, id`,
		userA, userB, userB, userA)
}

// UnreadCount returns how many messages addressed to recipientID are unread.
func (mt *messagesTable) UnreadCount(recipientID int64) (n int, err error) {
	defer mt.backend.observe(types.MessagesTable, "unread_count", time.Now(), &err)

	if err := validID(recipientID); err != nil {
		return 0, err
	}
	db, release, err := mt.backend.conn()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := db.QueryRow("SELECT COUNT(*) FROM messages WHERE recipient_id = ? AND is_read = 0", recipientID).Scan(&n); err != nil {
		return 0, classify("counting unread messages", err)
	}
	return n, nil
}

// query runs a multi-row message SELECT. Callers have validated arguments.
func (mt *messagesTable) query(op, query string, args ...any) ([]*types.Message, error) {
	db, release, err := mt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	messages := []*types.Message{}
	for rows.Next() {
		m, err := hydrateMessage(rows)
		if err != nil {
			return nil, classify("hydrating message", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating messages", err)
	}
	return messages, nil
}

// hydrateMessage converts a row into a *types.Message.
func hydrateMessage(row rowScanner) (*types.Message, error) {
	var m types.Message
	var sentAt, isRead int64
	if err := row.Scan(&m.MessageID, &m.SenderID, &m.RecipientID, &m.Content, &sentAt, &isRead); err != nil {
		return nil, err
	}
	m.SentAt = time.UnixMilli(sentAt).UTC()
	m.IsRead = isRead != 0
	return &m, nil
}
