package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"letschat/internal/backend"
	"letschat/internal/backend/store"
	"letschat/internal/errs"
	"letschat/internal/model"
)

func testServer(t *testing.T) *HTTP {
	t.Helper()
	db, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate()
	require.NoError(t, err)
	svc := backend.NewService(db, zap.NewNop())
	require.NoError(t, svc.Seed())

	srv := httptest.NewServer(backend.NewRouter(svc, zap.NewNop(), backend.RouterConfig{}))
	t.Cleanup(srv.Close)
	return NewHTTP(srv.URL)
}

func TestHTTPAuthenticate(t *testing.T) {
	c := testServer(t)
	ctx := context.Background()

	u, err := c.Authenticate(ctx, backend.SeedEmail, backend.SeedPassword)
	require.NoError(t, err)
	require.Equal(t, "1", u.ID)
	require.Equal(t, "Test User", u.Name)

	_, err = c.Authenticate(ctx, backend.SeedEmail, "wrong")
	require.True(t, errs.IsCode(err, errs.CodeInvalidCredentials), "got %v", err)
}

func TestHTTPChatAndMessageFlow(t *testing.T) {
	c := testServer(t)
	ctx := context.Background()

	chats, err := c.ListChats(ctx)
	require.NoError(t, err)
	require.Len(t, chats, 3)

	posted, err := c.PostMessage(ctx, "1", MessageInput{
		Content: "hi", Kind: model.KindText, SenderID: "1", ReceiverID: "1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, posted.ID)
	require.Equal(t, model.StatusSent, posted.Status)

	msgs, err := c.ListMessages(ctx, "1")
	require.NoError(t, err)
	require.Equal(t, posted.ID, msgs[len(msgs)-1].ID)

	_, err = c.PostMessage(ctx, "99", MessageInput{Content: "hi", Kind: model.KindText})
	require.True(t, errs.IsCode(err, errs.CodeNotFound), "got %v", err)
}

func TestHTTPCreateChatAndUsers(t *testing.T) {
	c := testServer(t)
	ctx := context.Background()

	users, err := c.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)

	chat, err := c.CreateChat(ctx, []string{"1", "2"})
	require.NoError(t, err)
	require.Equal(t, "1", chat.ID, "existing direct chat should be reused")

	chat, err = c.CreateChat(ctx, []string{"2", "4"})
	require.NoError(t, err)
	require.Equal(t, "4", chat.ID)
}

func TestHTTPUpload(t *testing.T) {
	c := testServer(t)

	var last int
	res, err := c.Upload(context.Background(), model.File{
		Name: "clip.mp4", MIME: "video/mp4", Data: []byte("frames"),
	}, func(p int) { last = p })
	require.NoError(t, err)
	require.Equal(t, "clip.mp4", res.Filename)
	require.True(t, strings.HasPrefix(res.URL, "data:video/mp4;base64,"), "url = %s", res.URL)
	require.Equal(t, 100, last)
}

func TestHTTPUploadCancelled(t *testing.T) {
	// A server that never finishes reading lets cancellation win.
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	t.Cleanup(func() {
		close(blocked)
		srv.Close()
	})

	c := NewHTTP(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := c.Upload(ctx, model.File{Name: "a.png", MIME: "image/png", Data: []byte("x")}, nil)
	require.True(t, errs.IsCode(err, errs.CodeUploadCancelled), "got %v", err)
}

func TestHTTPTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	t.Cleanup(func() {
		close(blocked)
		srv.Close()
	})

	c := NewHTTP(srv.URL)
	c.timeout = 50 * time.Millisecond

	_, err := c.ListChats(context.Background())
	require.True(t, errs.IsCode(err, errs.CodeTimeout), "got %v", err)
}
