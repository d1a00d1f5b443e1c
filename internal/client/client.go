// Package client ties the state store, the transport and the upload
// pipeline together into the operations a user-facing frontend drives:
// login, hydration, sending and broadcasting.
package client

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"letschat/internal/errs"
	"letschat/internal/model"
	"letschat/internal/state"
	"letschat/internal/transport"
	"letschat/internal/upload"
)

// Client exposes the chat operations. All blocking calls take a context.
type Client struct {
	st     *state.Store
	tr     transport.Client
	up     *upload.Manager
	logger *zap.Logger
}

// New builds a client over an existing store, transport and upload manager.
func New(st *state.Store, tr transport.Client, up *upload.Manager, logger *zap.Logger) *Client {
	return &Client{st: st, tr: tr, up: up, logger: logger}
}

// Store returns the underlying state store.
func (c *Client) Store() *state.Store { return c.st }

// Uploads returns the upload manager.
func (c *Client) Uploads() *upload.Manager { return c.up }

// Login authenticates and establishes the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	return c.st.Login(ctx, email, password)
}

// Logout drops the session. Hydrated chats and messages stay in memory
// until the store goes away; they never persist anyway.
func (c *Client) Logout() {
	c.st.Logout()
}

// Hydrate loads the chat list and then each chat's messages into the
// store. A failed message fetch for one chat is logged and skipped; the
// rest of the hydration continues.
func (c *Client) Hydrate(ctx context.Context) error {
	chats, err := c.tr.ListChats(ctx)
	if err != nil {
		return err
	}
	c.st.SetChats(chats)

	for _, chat := range chats {
		msgs, err := c.tr.ListMessages(ctx, chat.ID)
		if err != nil {
			c.logger.Warn("hydrate messages", zap.String("chat", chat.ID), zap.Error(err))
			continue
		}
		c.st.SetMessagesFor(chat.ID, msgs)
	}
	return nil
}

// SendText posts a text message to chatID and appends it to the store.
func (c *Client) SendText(ctx context.Context, chatID, content string) (model.Message, error) {
	return c.send(ctx, chatID, transport.MessageInput{
		Content: content,
		Kind:    model.KindText,
	})
}

// SendMedia posts a media message referencing an already uploaded file.
func (c *Client) SendMedia(ctx context.Context, chatID string, kind model.Kind, mediaURL, caption string) (model.Message, error) {
	return c.send(ctx, chatID, transport.MessageInput{
		Content:  caption,
		Kind:     kind,
		MediaURL: mediaURL,
	})
}

// SendPending takes every finished upload and posts one media message per
// file to chatID, in no particular order. Failures are logged and skipped.
func (c *Client) SendPending(ctx context.Context, chatID string) ([]model.Message, error) {
	var sent []model.Message
	for _, task := range c.up.TakeUploaded() {
		kind, _ := model.KindForMIME(task.File().MIME)
		msg, err := c.SendMedia(ctx, chatID, kind, task.Result().URL, "")
		if err != nil {
			c.logger.Warn("send upload", zap.String("file", task.File().Name), zap.Error(err))
			continue
		}
		sent = append(sent, msg)
	}
	return sent, nil
}

// ListPeers returns every user except the authenticated one, the set a
// broadcast can target.
func (c *Client) ListPeers(ctx context.Context) ([]model.User, error) {
	auth := c.st.Auth()
	if !auth.Authenticated {
		return nil, errs.New(errs.CodeInvalidCredentials, "not logged in")
	}

	users, err := c.tr.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	peers := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID != auth.User.ID {
			peers = append(peers, u)
		}
	}
	return peers, nil
}

// send fills in the sender and receiver, posts via the transport and, on
// success, appends the acknowledged message to the store.
func (c *Client) send(ctx context.Context, chatID string, in transport.MessageInput) (model.Message, error) {
	auth := c.st.Auth()
	if !auth.Authenticated {
		return model.Message{}, errs.New(errs.CodeInvalidCredentials, "not logged in")
	}
	in.SenderID = auth.User.ID
	in.ReceiverID = c.receiverFor(chatID, auth.User.ID)

	msg, err := c.tr.PostMessage(ctx, chatID, in)
	if err != nil {
		return model.Message{}, err
	}
	c.st.AppendMessage(chatID, msg)
	return msg, nil
}

// receiverFor picks the other participant of a two-party chat. Group chats
// and unknown chats get an empty receiver; the backend addresses by chat.
func (c *Client) receiverFor(chatID, senderID string) string {
	for _, chat := range c.st.Chats() {
		if chat.ID != chatID || chat.IsGroup {
			continue
		}
		for _, p := range chat.Participants {
			if !strings.EqualFold(p.ID, senderID) {
				return p.ID
			}
		}
	}
	return ""
}
