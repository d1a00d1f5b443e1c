package client

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"letschat/internal/backend"
	"letschat/internal/backend/store"
	"letschat/internal/bus"
	"letschat/internal/errs"
	"letschat/internal/model"
	"letschat/internal/state"
	"letschat/internal/transport"
	"letschat/internal/upload"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	db, err := store.Open("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	svc := backend.NewService(db, zap.NewNop())
	if err := svc.Seed(); err != nil {
		t.Fatal(err)
	}

	tr := transport.NewFake(svc)
	b := bus.NewBus()
	st, err := state.New(tr, b, "", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	up := upload.NewManager(tr, b, zap.NewNop())
	return New(st, tr, up, zap.NewNop())
}

func login(t *testing.T, c *Client) {
	t.Helper()
	if err := c.Login(context.Background(), backend.SeedEmail, backend.SeedPassword); err != nil {
		t.Fatal(err)
	}
}

func TestLoginAndHydrate(t *testing.T) {
	c := testClient(t)
	login(t, c)

	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	chats := c.Store().Chats()
	if len(chats) != 3 {
		t.Fatalf("got %d chats, want 3", len(chats))
	}
	msgs := c.Store().MessagesFor("1")
	if len(msgs) != 1 || msgs[0].Content != "Hey there!" {
		t.Errorf("chat 1 messages = %v", msgs)
	}
	msgs = c.Store().MessagesFor("2")
	if len(msgs) != 1 || msgs[0].Content != "Hi! How are you doing?" {
		t.Errorf("chat 2 messages = %v", msgs)
	}
}

func TestSendTextAppends(t *testing.T) {
	c := testClient(t)
	login(t, c)
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	msg, err := c.SendText(context.Background(), "1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ID == "" {
		t.Error("acknowledged message has no id")
	}
	if msg.SenderID != "1" || msg.ReceiverID != "2" {
		t.Errorf("sender/receiver = %s/%s, want 1/2", msg.SenderID, msg.ReceiverID)
	}
	if msg.Status != model.StatusSent {
		t.Errorf("status = %s, want %s", msg.Status, model.StatusSent)
	}

	msgs := c.Store().MessagesFor("1")
	if len(msgs) != 2 || msgs[1].ID != msg.ID {
		t.Errorf("chat 1 sequence = %v", msgs)
	}

	// A later hydration sees the posted message too.
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	msgs = c.Store().MessagesFor("1")
	if len(msgs) != 2 || msgs[1].ID != msg.ID {
		t.Errorf("chat 1 after rehydrate = %v", msgs)
	}
}

func TestSendRequiresAuth(t *testing.T) {
	c := testClient(t)

	_, err := c.SendText(context.Background(), "1", "hello")
	if !errs.IsCode(err, errs.CodeInvalidCredentials) {
		t.Fatalf("got %v, want invalid credentials", err)
	}
}

func TestListPeers(t *testing.T) {
	c := testClient(t)
	login(t, c)

	peers, err := c.ListPeers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(peers) != 3 {
		t.Fatalf("got %d peers, want 3", len(peers))
	}
	for _, p := range peers {
		if p.ID == "1" {
			t.Error("peer list contains the authenticated user")
		}
	}
}

func TestBroadcastReusesDirectChats(t *testing.T) {
	c := testClient(t)
	login(t, c)
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	outcomes, err := c.Broadcast(context.Background(), []string{"2", "3", "4"}, "ping")
	if err != nil {
		t.Fatal(err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	for _, out := range outcomes {
		if out.Err != nil {
			t.Errorf("recipient %s: %v", out.RecipientID, out.Err)
		}
		if out.Message.Content != "ping" {
			t.Errorf("recipient %s message = %+v", out.RecipientID, out.Message)
		}
	}
	// Every recipient already shares a direct chat with the seed user, so
	// no new chats appear.
	if got := len(c.Store().Chats()); got != 3 {
		t.Errorf("got %d chats after broadcast, want 3", got)
	}
}

func TestBroadcastWithoutHydration(t *testing.T) {
	c := testClient(t)
	login(t, c)

	// The store has no chats yet; the backend still pairs each recipient
	// with the existing direct chat rather than minting a new one.
	outcomes, err := c.Broadcast(context.Background(), []string{"2", "3"}, "ping")
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, out := range outcomes {
		if out.Err != nil {
			t.Fatalf("recipient %s: %v", out.RecipientID, out.Err)
		}
		ids[out.ChatID] = true
	}
	if !ids["1"] || !ids["2"] {
		t.Errorf("chat ids = %v, want existing chats 1 and 2", ids)
	}
	if got := len(c.Store().Chats()); got != 2 {
		t.Errorf("got %d chats in store, want 2", got)
	}
}

// failingPost fails PostMessage for one receiver and delegates the rest.
type failingPost struct {
	transport.Client
	failFor string
}

func (f *failingPost) PostMessage(ctx context.Context, chatID string, in transport.MessageInput) (model.Message, error) {
	if in.ReceiverID == f.failFor {
		return model.Message{}, errs.New(errs.CodeUnknown, "injected")
	}
	return f.Client.PostMessage(ctx, chatID, in)
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	c := testClient(t)
	login(t, c)
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.tr = &failingPost{Client: c.tr, failFor: "3"}

	outcomes, err := c.Broadcast(context.Background(), []string{"2", "3", "4"}, "ping")
	if err != nil {
		t.Fatal(err)
	}
	var failed, ok int
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			if out.RecipientID != "3" {
				t.Errorf("unexpected failure for %s: %v", out.RecipientID, out.Err)
			}
		} else {
			ok++
		}
	}
	if failed != 1 || ok != 2 {
		t.Errorf("failed=%d ok=%d, want 1/2", failed, ok)
	}
}

func TestSendPendingPostsUploads(t *testing.T) {
	c := testClient(t)
	login(t, c)
	if err := c.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}

	task, err := c.Uploads().Add(context.Background(), model.File{Name: "cat.png", MIME: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatal(err)
	}
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("upload never finished")
	}

	sent, err := c.SendPending(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].Kind != model.KindImage {
		t.Errorf("kind = %s, want image", sent[0].Kind)
	}
	if sent[0].MediaURL == "" {
		t.Error("media url missing")
	}

	msgs := c.Store().MessagesFor("1")
	if msgs[len(msgs)-1].ID != sent[0].ID {
		t.Error("media message not appended to chat 1")
	}
}
