package backend

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"letschat/internal/model"
)

// Fixture credentials: the one account that can log in.
const (
	SeedEmail    = "test@chat.com"
	SeedPassword = "123456"
)

// Seed loads the fixture set: four users, three direct chats pairing the
// seed account with each other user, and one opening message in the first
// two chats. Safe to call more than once.
func (s *Service) Seed() error {
	users := []model.User{
		{ID: "1", Email: SeedEmail, Name: "Test User", AvatarURL: "https://mui.com/static/images/avatar/1.jpg"},
		{ID: "2", Email: "jane@chat.com", Name: "Jane Doe", AvatarURL: "https://mui.com/static/images/avatar/2.jpg"},
		{ID: "3", Email: "john@chat.com", Name: "John Smith", AvatarURL: "https://mui.com/static/images/avatar/3.jpg"},
		{ID: "4", Email: "alice@chat.com", Name: "Alice Johnson", AvatarURL: "https://mui.com/static/images/avatar/4.jpg"},
	}
	for _, u := range users {
		password := SeedPassword
		if u.ID != "1" {
			// Only the seed account has working credentials.
			password = uuid.NewString()
		}
		if err := s.db.InsertUser(u, password); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for i, other := range []model.User{users[1], users[2], users[3]} {
		chat := model.Chat{
			ID:           fmt.Sprintf("%d", i+1),
			Participants: []model.User{users[0], other},
		}
		if err := s.db.InsertChat(chat); err != nil {
			return fmt.Errorf("seed chat %s: %w", chat.ID, err)
		}
	}

	seedMessages := []struct {
		chatID string
		msg    model.Message
	}{
		{"1", model.Message{
			ID: "1", SenderID: "2", ReceiverID: "1", Content: "Hey there!",
			Timestamp: time.Now().Add(-time.Hour), Kind: model.KindText, Status: model.StatusRead,
		}},
		{"2", model.Message{
			ID: "2", SenderID: "3", ReceiverID: "1", Content: "Hi! How are you doing?",
			Timestamp: time.Now().Add(-2 * time.Hour), Kind: model.KindText, Status: model.StatusRead,
		}},
	}
	for _, sm := range seedMessages {
		existing, err := s.db.MessagesByChat(sm.chatID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			continue
		}
		if err := s.db.InsertMessage(sm.chatID, sm.msg); err != nil {
			return fmt.Errorf("seed message %s: %w", sm.msg.ID, err)
		}
	}
	return nil
}
