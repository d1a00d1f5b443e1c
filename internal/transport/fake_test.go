package transport

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"letschat/internal/backend"
	"letschat/internal/backend/store"
	"letschat/internal/errs"
	"letschat/internal/model"
)

func testFake(t *testing.T) *Fake {
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
	return NewFake(svc)
}

func TestFakeAuthenticate(t *testing.T) {
	f := testFake(t)
	ctx := context.Background()

	u, err := f.Authenticate(ctx, backend.SeedEmail, backend.SeedPassword)
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "1" {
		t.Errorf("user id = %q, want 1", u.ID)
	}

	_, err = f.Authenticate(ctx, backend.SeedEmail, "wrong")
	if !errs.IsCode(err, errs.CodeInvalidCredentials) {
		t.Errorf("got %v, want invalid credentials", err)
	}
}

func TestFakeUploadProgressMonotonic(t *testing.T) {
	f := testFake(t)
	f.WriteDelay = 20 * time.Millisecond
	f.ProgressSteps = 5

	var seen []int
	res, err := f.Upload(context.Background(), model.File{Name: "a.png", MIME: "image/png", Data: []byte("x")}, func(p int) {
		seen = append(seen, p)
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.URL == "" || res.Filename != "a.png" {
		t.Errorf("result = %+v", res)
	}
	if len(seen) != 5 {
		t.Fatalf("got %d progress calls, want 5", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Errorf("progress went backwards: %v", seen)
		}
	}
	if seen[len(seen)-1] != 100 {
		t.Errorf("final progress = %d, want 100", seen[len(seen)-1])
	}
}

func TestFakeUploadCancelled(t *testing.T) {
	f := testFake(t)
	f.WriteDelay = 500 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := f.Upload(ctx, model.File{Name: "a.png", MIME: "image/png", Data: []byte("x")}, nil)
	if !errs.IsCode(err, errs.CodeUploadCancelled) {
		t.Errorf("got %v, want upload cancelled", err)
	}
}

func TestFakeLatencyHonorsContext(t *testing.T) {
	f := testFake(t)
	f.ReadDelay = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.ListChats(ctx)
	if err == nil {
		t.Fatal("expected context error")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancel took %v, should return promptly", elapsed)
	}
}
