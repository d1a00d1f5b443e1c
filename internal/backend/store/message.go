package store

import (
	"database/sql"
	"time"

	"letschat/internal/model"
)

// InsertMessage appends a message to chatID's sequence. SQLite's rowid
// fixes the insertion order; messages are never updated or deleted.
func (db *DB) InsertMessage(chatID string, m model.Message) error {
	_, err := db.Exec(`
		INSERT INTO messages (id, chat_id, sender_id, receiver_id, content, kind, media_url, status, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, chatID, m.SenderID, m.ReceiverID, m.Content, string(m.Kind),
		m.MediaURL, string(m.Status), m.Timestamp.UnixMilli())
	return err
}

// MessagesByChat returns a chat's messages in insertion order. An unknown
// chat id yields an empty sequence, not an error.
func (db *DB) MessagesByChat(chatID string) ([]model.Message, error) {
	rows, err := db.Query(`
		SELECT id, sender_id, receiver_id, content, kind, media_url, status, timestamp
		FROM messages WHERE chat_id = ? ORDER BY seq`, chatID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// LastMessage returns the most recently appended message of a chat, or nil.
func (db *DB) LastMessage(chatID string) (*model.Message, error) {
	row := db.QueryRow(`
		SELECT id, sender_id, receiver_id, content, kind, media_url, status, timestamp
		FROM messages WHERE chat_id = ? ORDER BY seq DESC LIMIT 1`, chatID)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(s scanner) (model.Message, error) {
	var (
		m    model.Message
		kind string
		st   string
		ts   int64
	)
	err := s.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &kind, &m.MediaURL, &st, &ts)
	if err != nil {
		return model.Message{}, err
	}
	m.Kind = model.Kind(kind)
	m.Status = model.DeliveryStatus(st)
	m.Timestamp = time.UnixMilli(ts)
	return m, nil
}
