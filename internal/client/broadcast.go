package client

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"letschat/internal/errs"
	"letschat/internal/model"
	"letschat/internal/transport"
)

// BroadcastOutcome reports what happened for one recipient of a broadcast.
// Err is nil on success.
type BroadcastOutcome struct {
	RecipientID string
	ChatID      string
	Message     model.Message
	Err         error
}

// Broadcast sends the same text to every recipient, one direct chat each.
// An existing two-party chat with the recipient is reused; otherwise one is
// created and added to the store. A failure for one recipient never stops
// the rest; the caller inspects the outcomes.
func (c *Client) Broadcast(ctx context.Context, recipientIDs []string, content string) ([]BroadcastOutcome, error) {
	auth := c.st.Auth()
	if !auth.Authenticated {
		return nil, errs.New(errs.CodeInvalidCredentials, "not logged in")
	}

	outcomes := make([]BroadcastOutcome, 0, len(recipientIDs))
	for _, rid := range recipientIDs {
		out := BroadcastOutcome{RecipientID: rid}

		chatID, err := c.directChatWith(ctx, auth.User.ID, rid)
		if err != nil {
			out.Err = err
			c.logger.Warn("broadcast chat", zap.String("recipient", rid), zap.Error(err))
			outcomes = append(outcomes, out)
			continue
		}
		out.ChatID = chatID

		msg, err := c.tr.PostMessage(ctx, chatID, transport.MessageInput{
			Content:    content,
			Kind:       model.KindText,
			SenderID:   auth.User.ID,
			ReceiverID: rid,
		})
		if err != nil {
			out.Err = err
			c.logger.Warn("broadcast send", zap.String("recipient", rid), zap.Error(err))
			outcomes = append(outcomes, out)
			continue
		}
		c.st.AppendMessage(chatID, msg)
		out.Message = msg
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// directChatWith finds the hydrated two-party chat pairing the two users,
// or asks the backend for one. The pair match ignores participant order
// and id case.
func (c *Client) directChatWith(ctx context.Context, selfID, otherID string) (string, error) {
	for _, chat := range c.st.Chats() {
		if chat.IsGroup || len(chat.Participants) != 2 {
			continue
		}
		if pairs(chat.Participants, selfID, otherID) {
			return chat.ID, nil
		}
	}

	chat, err := c.tr.CreateChat(ctx, []string{selfID, otherID})
	if err != nil {
		return "", err
	}
	c.st.AddChat(chat)
	return chat.ID, nil
}

func pairs(ps []model.User, a, b string) bool {
	return (strings.EqualFold(ps[0].ID, a) && strings.EqualFold(ps[1].ID, b)) ||
		(strings.EqualFold(ps[0].ID, b) && strings.EqualFold(ps[1].ID, a))
}
