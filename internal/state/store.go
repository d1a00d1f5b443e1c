// Package state is the client-side store: one addressable state object
// holding auth, theme, the chat list, per-chat message slots, and the
// active chat selection. All mutation goes through its action methods;
// views only read and subscribe to the bus.
package state

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"letschat/internal/bus"
	"letschat/internal/model"
	"letschat/internal/transport"
)

// Store owns every entity the client holds in memory. Only the auth/theme
// subset survives a restart; everything else is hydrated from the service.
type Store struct {
	mu         sync.Mutex
	auth       model.AuthState
	darkMode   bool
	chats      []model.Chat
	activeChat *model.Chat
	messages   map[string][]model.Message

	// loginMu serializes concurrent Login calls so two of them never race
	// to set the session.
	loginMu sync.Mutex

	tr     transport.Client
	bus    *bus.Bus
	path   string
	logger *zap.Logger
}

// AppendedMessage is the bus payload for a message appended to a chat.
type AppendedMessage struct {
	ChatID  string
	Message model.Message
}

// New builds a store, reading the persisted auth/theme subset from path.
// An empty path disables persistence.
func New(tr transport.Client, b *bus.Bus, path string, logger *zap.Logger) (*Store, error) {
	s := &Store{
		messages: make(map[string][]model.Message),
		tr:       tr,
		bus:      b,
		path:     path,
		logger:   logger,
	}
	if path != "" {
		snap, err := load(path)
		if err != nil {
			return nil, err
		}
		s.auth = snap.authState()
		s.darkMode = snap.DarkMode
	}
	return s, nil
}

// Login authenticates via the transport and, on success, sets the session.
// A failed login leaves all state untouched.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	user, err := s.tr.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.auth = model.AuthState{User: &user, Authenticated: true}
	s.mu.Unlock()

	s.persist()
	s.publish(bus.KindAuthChanged)
	return nil
}

// Logout clears the session unconditionally. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	s.auth = model.AuthState{}
	s.mu.Unlock()

	s.persist()
	s.publish(bus.KindAuthChanged)
}

// SetActiveChat records the chat selection. Pure local state, no I/O.
// The chat is copied so the caller's pointer cannot mutate store state.
func (s *Store) SetActiveChat(c *model.Chat) {
	s.mu.Lock()
	if c == nil {
		s.activeChat = nil
	} else {
		cp := *c
		s.activeChat = &cp
	}
	s.mu.Unlock()
	s.publish(bus.KindActiveChat)
}

// ToggleTheme flips the dark mode flag and returns the new value.
func (s *Store) ToggleTheme() bool {
	s.mu.Lock()
	s.darkMode = !s.darkMode
	v := s.darkMode
	s.mu.Unlock()

	s.persist()
	s.publish(bus.KindThemeChanged)
	return v
}

// AppendMessage appends msg to chatID's sequence, creating the slot if
// absent, and updates that chat's lastMessage. Insertion order is
// preserved; duplicate ids are the caller's problem.
func (s *Store) AppendMessage(chatID string, msg model.Message) {
	s.mu.Lock()
	s.messages[chatID] = append(s.messages[chatID], msg)
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			m := msg
			s.chats[i].LastMessage = &m
			break
		}
	}
	s.mu.Unlock()

	s.bus.Publish(bus.New(bus.KindMessageAppended, AppendedMessage{ChatID: chatID, Message: msg}))
}

// SetChats replaces the chat list (bulk hydration).
func (s *Store) SetChats(chats []model.Chat) {
	s.mu.Lock()
	s.chats = append([]model.Chat(nil), chats...)
	s.mu.Unlock()
	s.publish(bus.KindChatsChanged)
}

// AddChat appends one chat to the list.
func (s *Store) AddChat(c model.Chat) {
	s.mu.Lock()
	s.chats = append(s.chats, c)
	s.mu.Unlock()
	s.publish(bus.KindChatsChanged)
}

// SetMessagesFor replaces one chat's message slot (bulk hydration).
// Responses land in their own keyed slot, so fetches completing out of
// order across chats cannot clobber each other.
func (s *Store) SetMessagesFor(chatID string, msgs []model.Message) {
	s.mu.Lock()
	s.messages[chatID] = append([]model.Message(nil), msgs...)
	s.mu.Unlock()
	s.publish(bus.KindMessageAppended)
}

// Auth returns the current session.
func (s *Store) Auth() model.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.auth
	if a.User != nil {
		u := *a.User
		a.User = &u
	}
	return a
}

// DarkMode returns the theme flag.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.darkMode
}

// Chats returns a copy of the chat list.
func (s *Store) Chats() []model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Chat(nil), s.chats...)
}

// ActiveChat returns a copy of the current selection, or nil.
func (s *Store) ActiveChat() *model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeChat == nil {
		return nil
	}
	cp := *s.activeChat
	return &cp
}

// MessagesFor returns a copy of one chat's message sequence.
func (s *Store) MessagesFor(chatID string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Message(nil), s.messages[chatID]...)
}

func (s *Store) publish(kind string) {
	s.bus.Publish(bus.New(kind, nil))
}

// persist writes the auth/theme subset. Called after every mutation of
// those fields; failures are logged, never surfaced as action errors.
func (s *Store) persist() {
	if s.path == "" {
		return
	}
	s.mu.Lock()
	snap := makeSnapshot(s.auth, s.darkMode)
	s.mu.Unlock()

	if err := save(s.path, snap); err != nil {
		s.logger.Warn("persist state", zap.Error(err), zap.String("path", s.path))
	}
}
