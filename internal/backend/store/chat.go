package store

import (
	"database/sql"
	"fmt"
	"time"

	"letschat/internal/model"
)

// InsertChat adds a chat and its ordered participant list in one
// transaction. Participant order is preserved as given.
func (db *DB) InsertChat(c model.Chat) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		INSERT INTO chats (id, is_group, group_name, unread_count, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		c.ID, c.IsGroup, c.GroupName, c.UnreadCount, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	for i, p := range c.Participants {
		if _, err := tx.Exec(`
			INSERT INTO chat_participants (chat_id, user_id, position)
			VALUES (?, ?, ?)
			ON CONFLICT(chat_id, user_id) DO NOTHING`,
			c.ID, p.ID, i); err != nil {
			return fmt.Errorf("insert participant: %w", err)
		}
	}
	return tx.Commit()
}

// NextChatID returns the next sequential chat id as a string.
func (db *DB) NextChatID() (string, error) {
	var maxID sql.NullInt64
	err := db.QueryRow(`SELECT MAX(CAST(id AS INTEGER)) FROM chats`).Scan(&maxID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", maxID.Int64+1), nil
}

// ChatExists reports whether a chat with the given id exists.
func (db *DB) ChatExists(id string) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM chats WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// ChatByID returns a fully resolved chat, or nil if absent.
func (db *DB) ChatByID(id string) (*model.Chat, error) {
	var c model.Chat
	err := db.QueryRow(`
		SELECT id, is_group, group_name, unread_count FROM chats WHERE id = ?`, id).
		Scan(&c.ID, &c.IsGroup, &c.GroupName, &c.UnreadCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := db.resolveChat(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChats returns every chat in id order with participants and last
// message resolved.
func (db *DB) ListChats() ([]model.Chat, error) {
	rows, err := db.Query(`
		SELECT id, is_group, group_name, unread_count
		FROM chats ORDER BY CAST(id AS INTEGER)`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var chats []model.Chat
	for rows.Next() {
		var c model.Chat
		if err := rows.Scan(&c.ID, &c.IsGroup, &c.GroupName, &c.UnreadCount); err != nil {
			return nil, err
		}
		chats = append(chats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range chats {
		if err := db.resolveChat(&chats[i]); err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// FindDirectChat returns the non-group chat whose participant pair matches
// {a, b} ignoring order and case, or nil when no such chat exists.
func (db *DB) FindDirectChat(a, b string) (*model.Chat, error) {
	var id string
	err := db.QueryRow(`
		SELECT p.chat_id
		FROM chat_participants p
		JOIN chats c ON c.id = p.chat_id
		WHERE c.is_group = 0
		GROUP BY p.chat_id
		HAVING COUNT(*) = 2
		   AND SUM(LOWER(p.user_id) IN (LOWER(?), LOWER(?))) = 2
		ORDER BY CAST(p.chat_id AS INTEGER)
		LIMIT 1`, a, b).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.ChatByID(id)
}

// BumpUnread adjusts a chat's unread counter by delta, clamped at zero.
func (db *DB) BumpUnread(chatID string, delta int) error {
	_, err := db.Exec(`
		UPDATE chats SET unread_count = MAX(0, unread_count + ?) WHERE id = ?`,
		delta, chatID)
	return err
}

// ClearUnread resets a chat's unread counter.
func (db *DB) ClearUnread(chatID string) error {
	_, err := db.Exec(`UPDATE chats SET unread_count = 0 WHERE id = ?`, chatID)
	return err
}

func (db *DB) resolveChat(c *model.Chat) error {
	rows, err := db.Query(`
		SELECT u.id, u.email, u.name, u.avatar_url
		FROM chat_participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.chat_id = ?
		ORDER BY p.position`, c.ID)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL); err != nil {
			return err
		}
		c.Participants = append(c.Participants, u)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	last, err := db.LastMessage(c.ID)
	if err != nil {
		return err
	}
	c.LastMessage = last
	return nil
}
