package model

import "time"

// User is an identity record. Users are immutable once created and owned
// by the backend's fixture set.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar"`
}

// Chat is a conversation thread between two or more participants.
// Non-group chats always have exactly two participants.
type Chat struct {
	ID           string   `json:"id"`
	Participants []User   `json:"participants"`
	LastMessage  *Message `json:"lastMessage,omitempty"`
	UnreadCount  int      `json:"unreadCount"`
	IsGroup      bool     `json:"isGroup,omitempty"`
	GroupName    string   `json:"groupName,omitempty"`
}

// Message is a single entry in a chat's ordered message sequence.
// Messages are immutable after creation and are never reordered or deleted.
// MediaURL is set iff Kind is not KindText.
type Message struct {
	ID         string         `json:"id"`
	SenderID   string         `json:"senderId"`
	ReceiverID string         `json:"receiverId"`
	Content    string         `json:"content"`
	Timestamp  time.Time      `json:"timestamp"`
	Kind       Kind           `json:"type"`
	MediaURL   string         `json:"mediaUrl,omitempty"`
	Status     DeliveryStatus `json:"status"`
}

// AuthState holds the current session.
type AuthState struct {
	User          *User
	Authenticated bool
}

// File stands in for a selected local file awaiting upload.
type File struct {
	Name string
	MIME string
	Data []byte
}
