// Package transport defines the operation surface of the chat service as
// seen by the client. The store and higher layers depend only on the Client
// interface, never on whether calls cross a real network.
package transport

import (
	"context"

	"letschat/internal/model"
)

// ProgressFunc receives upload progress as a percentage, 0 through 100.
// Calls are monotonically non-decreasing.
type ProgressFunc func(percent int)

// UploadResult references an uploaded file.
type UploadResult struct {
	URL      string
	Filename string
}

// MessageInput is the payload of a posted message.
type MessageInput struct {
	Content    string
	Kind       model.Kind
	MediaURL   string
	SenderID   string
	ReceiverID string
}

// Client is the chat service operation table.
type Client interface {
	Authenticate(ctx context.Context, email, password string) (model.User, error)
	ListChats(ctx context.Context) ([]model.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]model.Message, error)
	PostMessage(ctx context.Context, chatID string, in MessageInput) (model.Message, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateChat(ctx context.Context, participantIDs []string) (model.Chat, error)
	Upload(ctx context.Context, file model.File, onProgress ProgressFunc) (UploadResult, error)
}
