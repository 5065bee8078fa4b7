package browserauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// get fetches url, retrying briefly while the loopback server comes up.
func get(t *testing.T, url string) string {
	t.Helper()
	var lastErr error
	for i := 0; i < 50; i++ {
		resp, err := http.Get(url)
		if err == nil {
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				t.Error(err)
				return ""
			}
			return string(body)
		}
		lastErr = err
		time.Sleep(20 * time.Millisecond)
	}
	t.Errorf("callback server never came up: %v", lastErr)
	return ""
}

func TestReturnAddress(t *testing.T) {
	a := NewLoopbackAuthorizer(43117)
	if got := a.ReturnAddress(); got != "http://127.0.0.1:43117/callback" {
		t.Errorf("return address = %q", got)
	}
}

func TestAuthorizeSuccess(t *testing.T) {
	a := &LoopbackAuthorizer{Port: 43901}
	a.OpenURL = func(url string) error {
		go get(t, a.ReturnAddress()+"?access_token=access-1&refresh_token=refresh-1")
		return nil
	}

	result := a.Authorize(context.Background(), "https://provider.example/authorize")
	if result.Kind != Success {
		t.Fatalf("kind = %v, err = %v", result.Kind, result.Err)
	}
	if !strings.Contains(result.ReturnURL, "access_token=access-1") ||
		!strings.Contains(result.ReturnURL, "refresh_token=refresh-1") {
		t.Errorf("return url = %q", result.ReturnURL)
	}
}

func TestAuthorizeCancelled(t *testing.T) {
	a := &LoopbackAuthorizer{Port: 43902}
	a.OpenURL = func(url string) error { return nil }

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	result := a.Authorize(ctx, "https://provider.example/authorize")
	if result.Kind != Cancelled {
		t.Errorf("kind = %v, want Cancelled", result.Kind)
	}
	if result.Err != nil {
		t.Errorf("cancellation must not carry an error, got %v", result.Err)
	}
}

func TestAuthorizeProviderError(t *testing.T) {
	a := &LoopbackAuthorizer{Port: 43903}
	a.OpenURL = func(url string) error {
		go get(t, a.ReturnAddress()+"?error=access_denied&error_description=geweigerd")
		return nil
	}

	result := a.Authorize(context.Background(), "https://provider.example/authorize")
	if result.Kind != Error {
		t.Fatalf("kind = %v", result.Kind)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "access_denied") {
		t.Errorf("err = %v", result.Err)
	}
}

func TestAuthorizeServesRelayPage(t *testing.T) {
	a := &LoopbackAuthorizer{Port: 43904}
	a.OpenURL = func(url string) error {
		go func() {
			// first hit mimics the provider redirect with fragment tokens:
			// no query, so the relay page must come back
			body := get(t, a.ReturnAddress())
			if !strings.Contains(body, "location.hash") {
				t.Errorf("expected relay page, got %q", body)
			}
			// second hit is the relay's re-request with tokens in the query
			get(t, a.ReturnAddress()+"?access_token=access-2&refresh_token=refresh-2")
		}()
		return nil
	}

	result := a.Authorize(context.Background(), "https://provider.example/authorize")
	if result.Kind != Success {
		t.Fatalf("kind = %v, err = %v", result.Kind, result.Err)
	}
}

func TestAuthorizeBrowserOpenFails(t *testing.T) {
	a := &LoopbackAuthorizer{Port: 43905}
	a.OpenURL = func(url string) error {
		return fmt.Errorf("geen browser gevonden")
	}

	result := a.Authorize(context.Background(), "https://provider.example/authorize")
	if result.Kind != Error {
		t.Fatalf("kind = %v", result.Kind)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "opening browser") {
		t.Errorf("err = %v", result.Err)
	}
}
