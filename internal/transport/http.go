package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"letschat/internal/errs"
	"letschat/internal/model"
)

// DefaultTimeout bounds every call made by the HTTP client. The mock always
// resolves eventually; a real service might not.
const DefaultTimeout = 15 * time.Second

// HTTP is a Client over a real network connection to any server exposing
// the chat endpoint surface.
type HTTP struct {
	base    string
	hc      *http.Client
	timeout time.Duration
}

var _ Client = (*HTTP)(nil)

// NewHTTP creates a client for the service rooted at baseURL.
func NewHTTP(baseURL string) *HTTP {
	return &HTTP{
		base:    strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{},
		timeout: DefaultTimeout,
	}
}

func (c *HTTP) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	var resp struct {
		User model.User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.postJSON(ctx, "/auth/login", body, &resp); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

func (c *HTTP) ListChats(ctx context.Context) ([]model.Chat, error) {
	var chats []model.Chat
	if err := c.get(ctx, "/chats", &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (c *HTTP) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.get(ctx, "/chats/"+chatID+"/messages", &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *HTTP) PostMessage(ctx context.Context, chatID string, in MessageInput) (model.Message, error) {
	body := map[string]any{
		"content":    in.Content,
		"type":       in.Kind,
		"senderId":   in.SenderID,
		"receiverId": in.ReceiverID,
	}
	if in.MediaURL != "" {
		body["mediaUrl"] = in.MediaURL
	}
	var msg model.Message
	if err := c.postJSON(ctx, "/chats/"+chatID+"/messages", body, &msg); err != nil {
		return model.Message{}, err
	}
	return msg, nil
}

func (c *HTTP) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.get(ctx, "/users", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *HTTP) CreateChat(ctx context.Context, participantIDs []string) (model.Chat, error) {
	body := map[string][]string{"participantIds": participantIDs}
	var chat model.Chat
	if err := c.postJSON(ctx, "/chats", body, &chat); err != nil {
		return model.Chat{}, err
	}
	return chat, nil
}

// Upload sends the file as a multipart body, reporting progress as the
// request body is consumed by the wire.
func (c *HTTP) Upload(ctx context.Context, file model.File, onProgress ProgressFunc) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(fileHeader(file))
	if err != nil {
		return UploadResult{}, fmt.Errorf("multipart part: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return UploadResult{}, fmt.Errorf("multipart write: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("multipart close: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := &progressReader{r: &buf, total: int64(buf.Len()), onProgress: onProgress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/upload", body)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return UploadResult{}, errs.New(errs.CodeUploadCancelled)
		case errors.Is(err, context.DeadlineExceeded):
			return UploadResult{}, errs.New(errs.CodeTimeout)
		}
		return UploadResult{}, errs.New(errs.CodeUploadFailed, "upload: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return UploadResult{}, errs.New(errs.CodeUploadFailed, "upload: %s", readErrorMessage(resp))
	}
	var out struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return UploadResult{}, errs.New(errs.CodeUploadFailed, "decode upload response: %v", err)
	}
	return UploadResult{URL: out.URL, Filename: out.Filename}, nil
}

func (c *HTTP) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *HTTP) postJSON(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return fmt.Errorf("encode body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, &buf, "application/json", out)
}

func (c *HTTP) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errs.New(errs.CodeTimeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return errs.FromHTTPStatus(resp.StatusCode, readErrorMessage(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func readErrorMessage(resp *http.Response) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Message == "" {
		return resp.Status
	}
	return e.Message
}

func fileHeader(file model.File) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	mime := file.MIME
	if mime == "" {
		mime = "application/octet-stream"
	}
	h.Set("Content-Type", mime)
	return h
}

// progressReader reports cumulative read progress over a known total.
// The transport reads the body sequentially, so no locking is needed.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.onProgress != nil && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		p.onProgress(pct)
	}
	return n, err
}
