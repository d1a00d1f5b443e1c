// Package backend emulates the remote chat service. It holds the
// authoritative mutable fixtures; every operation is a function of the
// fixture state plus the request payload.
package backend

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"letschat/internal/backend/store"
	"letschat/internal/errs"
	"letschat/internal/model"
)

// MessageInput is the client-supplied part of a posted message. The server
// stamps id, timestamp, and initial delivery status.
type MessageInput struct {
	Content    string     `json:"content"`
	Kind       model.Kind `json:"type"`
	MediaURL   string     `json:"mediaUrl,omitempty"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
}

// Upload is the result of a stored file upload.
type Upload struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Service implements the chat service operations over the fixture store.
type Service struct {
	db     *store.DB
	logger *zap.Logger
}

// NewService creates a service over a migrated fixture store.
func NewService(db *store.DB, logger *zap.Logger) *Service {
	return &Service{db: db, logger: logger}
}

// Authenticate matches an email/password pair against the fixture accounts.
// Anything but an exact match fails with invalid credentials.
func (s *Service) Authenticate(email, password string) (model.User, error) {
	u, fixturePassword, err := s.db.UserByEmail(email)
	if err != nil {
		return model.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || fixturePassword == "" || fixturePassword != password {
		return model.User{}, errs.New(errs.CodeInvalidCredentials)
	}
	return *u, nil
}

// ListChats returns every chat in id order. Never fails on content.
func (s *Service) ListChats() ([]model.Chat, error) {
	return s.db.ListChats()
}

// ListMessages returns a chat's ordered message sequence. Unknown chat ids
// yield an empty sequence; reading a chat clears its unread counter.
func (s *Service) ListMessages(chatID string) ([]model.Message, error) {
	msgs, err := s.db.MessagesByChat(chatID)
	if err != nil {
		return nil, err
	}
	if err := s.db.ClearUnread(chatID); err != nil {
		return nil, err
	}
	return msgs, nil
}

// PostMessage stamps and appends a message to the canonical store.
func (s *Service) PostMessage(chatID string, in MessageInput) (model.Message, error) {
	exists, err := s.db.ChatExists(chatID)
	if err != nil {
		return model.Message{}, err
	}
	if !exists {
		return model.Message{}, errs.New(errs.CodeNotFound, "chat %q not found", chatID)
	}

	kind := in.Kind
	if kind == "" {
		kind = model.KindText
	}
	if !kind.Valid() {
		return model.Message{}, errs.New(errs.CodeUnsupportedFileType, "kind %q", kind)
	}

	msg := model.Message{
		ID:         uuid.NewString(),
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Content:    in.Content,
		Timestamp:  time.Now(),
		Kind:       kind,
		MediaURL:   in.MediaURL,
		Status:     model.StatusSent,
	}
	if err := s.db.InsertMessage(chatID, msg); err != nil {
		return model.Message{}, fmt.Errorf("insert message: %w", err)
	}
	if err := s.db.BumpUnread(chatID, 1); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

// ListUsers returns all fixture users. Filtering out the caller is the
// client's job.
func (s *Service) ListUsers() ([]model.User, error) {
	return s.db.ListUsers()
}

// CreateChat looks up or creates a chat for the given participants. For a
// two-party set the existing direct chat is reused (matched on the unordered,
// case-insensitive id pair); created reports whether a new chat was made.
func (s *Service) CreateChat(participantIDs []string) (model.Chat, bool, error) {
	if len(participantIDs) == 2 {
		existing, err := s.db.FindDirectChat(participantIDs[0], participantIDs[1])
		if err != nil {
			return model.Chat{}, false, err
		}
		if existing != nil {
			return *existing, false, nil
		}
	}

	chat := model.Chat{IsGroup: len(participantIDs) > 2}
	for _, id := range participantIDs {
		u, err := s.db.UserByID(id)
		if err != nil {
			return model.Chat{}, false, err
		}
		if u != nil {
			chat.Participants = append(chat.Participants, *u)
		}
	}

	id, err := s.db.NextChatID()
	if err != nil {
		return model.Chat{}, false, err
	}
	chat.ID = id
	if err := s.db.InsertChat(chat); err != nil {
		return model.Chat{}, false, fmt.Errorf("insert chat: %w", err)
	}
	s.logger.Info("chat created", zap.String("chat_id", id), zap.Strings("participants", participantIDs))
	return chat, true, nil
}

// SaveUpload returns a content-addressed-by-encoding reference for the
// uploaded bytes: a data URL, exactly what the original service handed back.
func (s *Service) SaveUpload(filename, mime string, data []byte) Upload {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return Upload{
		URL:      "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		Filename: filename,
	}
}
