package transport

import (
	"context"
	"errors"
	"time"

	"letschat/internal/backend"
	"letschat/internal/errs"
	"letschat/internal/model"
)

// Fake is an in-process Client over the fixture-backed backend service. It
// reproduces the latency and progress behavior of the mock without a
// network, and is what tests and offline mode run against.
type Fake struct {
	svc *backend.Service

	// ReadDelay, WriteDelay inject latency per call. Zero values disable
	// delay entirely.
	ReadDelay  time.Duration
	WriteDelay time.Duration

	// ProgressSteps is how many progress callbacks an upload spreads its
	// delay over. Defaults to 4.
	ProgressSteps int
}

var _ Client = (*Fake)(nil)

// NewFake wraps a backend service with zero injected latency.
func NewFake(svc *backend.Service) *Fake {
	return &Fake{svc: svc}
}

func (f *Fake) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fake) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	if err := f.sleep(ctx, f.WriteDelay); err != nil {
		return model.User{}, err
	}
	return f.svc.Authenticate(email, password)
}

func (f *Fake) ListChats(ctx context.Context) ([]model.Chat, error) {
	if err := f.sleep(ctx, f.ReadDelay); err != nil {
		return nil, err
	}
	return f.svc.ListChats()
}

func (f *Fake) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	if err := f.sleep(ctx, f.ReadDelay); err != nil {
		return nil, err
	}
	return f.svc.ListMessages(chatID)
}

func (f *Fake) PostMessage(ctx context.Context, chatID string, in MessageInput) (model.Message, error) {
	if err := f.sleep(ctx, f.WriteDelay); err != nil {
		return model.Message{}, err
	}
	return f.svc.PostMessage(chatID, backend.MessageInput{
		Content:    in.Content,
		Kind:       in.Kind,
		MediaURL:   in.MediaURL,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
	})
}

func (f *Fake) ListUsers(ctx context.Context) ([]model.User, error) {
	if err := f.sleep(ctx, f.ReadDelay); err != nil {
		return nil, err
	}
	return f.svc.ListUsers()
}

func (f *Fake) CreateChat(ctx context.Context, participantIDs []string) (model.Chat, error) {
	if err := f.sleep(ctx, f.WriteDelay); err != nil {
		return model.Chat{}, err
	}
	chat, _, err := f.svc.CreateChat(participantIDs)
	return chat, err
}

// Upload stores the file and reports stepped progress along the way.
// Cancellation mid-flight yields errs.CodeUploadCancelled and no result.
func (f *Fake) Upload(ctx context.Context, file model.File, onProgress ProgressFunc) (UploadResult, error) {
	steps := f.ProgressSteps
	if steps <= 0 {
		steps = 4
	}
	for i := 1; i <= steps; i++ {
		if err := f.sleep(ctx, f.WriteDelay/time.Duration(steps)); err != nil {
			if errors.Is(err, context.Canceled) {
				return UploadResult{}, errs.New(errs.CodeUploadCancelled)
			}
			return UploadResult{}, errs.New(errs.CodeUploadFailed, "upload interrupted: %v", err)
		}
		if onProgress != nil {
			onProgress(i * 100 / steps)
		}
	}

	up := f.svc.SaveUpload(file.Name, file.MIME, file.Data)
	return UploadResult{URL: up.URL, Filename: up.Filename}, nil
}
