package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewUsesCanonicalMessage(t *testing.T) {
	err := New(CodeInvalidCredentials)
	if err.Message != "Invalid credentials" {
		t.Errorf("message = %q, want Invalid credentials", err.Message)
	}
	if err.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", err.Status)
	}
}

func TestNewWithDetails(t *testing.T) {
	err := New(CodeNotFound, "chat %q not found", "42")
	if err.Message != `chat "42" not found` {
		t.Errorf("message = %q", err.Message)
	}
	if err.Code != CodeNotFound {
		t.Errorf("code = %v, want CodeNotFound", err.Code)
	}
}

func TestNewUnknownCodeFallsBack(t *testing.T) {
	err := New(Code(9999))
	if err.Code != CodeUnknown {
		t.Errorf("code = %v, want CodeUnknown", err.Code)
	}
}

func TestCodeOfWrappedError(t *testing.T) {
	err := fmt.Errorf("post message: %w", New(CodeNotFound))
	if CodeOf(err) != CodeNotFound {
		t.Errorf("CodeOf = %v, want CodeNotFound", CodeOf(err))
	}
	if !IsCode(err, CodeNotFound) {
		t.Error("IsCode should see through wrapping")
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if CodeOf(errors.New("plain")) != CodeUnknown {
		t.Error("foreign errors should map to CodeUnknown")
	}
	if IsCode(nil, CodeUnknown) {
		t.Error("nil error carries no code")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		code Code
		want int
	}{
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnsupportedFileType, http.StatusUnsupportedMediaType},
		{CodeTimeout, http.StatusGatewayTimeout},
	}
	for _, c := range cases {
		if got := HTTPStatus(New(c.code)); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.code, got, c.want)
		}
	}
	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("foreign error status = %d, want 500", got)
	}
}

func TestFromHTTPStatusRoundTrip(t *testing.T) {
	err := FromHTTPStatus(http.StatusUnauthorized, "Invalid credentials")
	if !IsCode(err, CodeInvalidCredentials) {
		t.Errorf("401 should map to CodeInvalidCredentials, got %v", CodeOf(err))
	}
	err = FromHTTPStatus(http.StatusNotFound, "")
	if !IsCode(err, CodeNotFound) {
		t.Errorf("404 should map to CodeNotFound, got %v", CodeOf(err))
	}
}
