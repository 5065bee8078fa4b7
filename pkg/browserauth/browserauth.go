// Package browserauth runs the browser half of an OAuth redirect flow:
// open the authorization URL in the system browser, then wait on a
// loopback server for the provider to send the user back.
package browserauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

type Kind int

const (
	// Success carries the return URL the provider redirected to.
	Success Kind = iota
	// Cancelled means the user aborted before completion. Not an error.
	Cancelled
	// Error means the round trip failed.
	Error
)

// Result is the single outcome of one authorization round trip.
type Result struct {
	Kind      Kind
	ReturnURL string
	Err       error
}

// Authorizer is the browser-based authorization boundary.
type Authorizer interface {
	// ReturnAddress is the pre-registered address the provider redirects
	// back to. Stable for the process lifetime.
	ReturnAddress() string
	// Authorize opens authURL in a browsing context and blocks until
	// exactly one outcome is known. Cancelling ctx resolves Cancelled.
	Authorize(ctx context.Context, authURL string) Result
}

// LoopbackAuthorizer serves the return address on localhost and opens
// the system browser for the user.
type LoopbackAuthorizer struct {
	Port int
	// OpenURL opens a URL in a browsing context. Defaults to the system
	// browser; tests replace it.
	OpenURL func(url string) error
}

const callbackPath = "/callback"

func NewLoopbackAuthorizer(port int) *LoopbackAuthorizer {
	return &LoopbackAuthorizer{
		Port:    port,
		OpenURL: OpenBrowser,
	}
}

func (a *LoopbackAuthorizer) ReturnAddress() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", a.Port, callbackPath)
}

// relayPage moves fragment tokens into the query string. Providers return
// tokens in the URL fragment, which never reaches the server; the second
// request carries them where the loopback can see them.
const relayPage = `<!DOCTYPE html>
<html><body>
<script>
if (window.location.hash.length > 1) {
  window.location.replace("` + callbackPath + `?" + window.location.hash.substring(1));
} else {
  document.body.textContent = "Er kwam niets terug van de login. Ge kunt dit venster sluiten.";
}
</script>
</body></html>`

const donePage = `<!DOCTYPE html>
<html><body>Ingelogd. Ge kunt dit venster sluiten en terug naar de app.</body></html>`

func (a *LoopbackAuthorizer) Authorize(ctx context.Context, authURL string) Result {
	resultChan := make(chan Result, 1)
	var once sync.Once
	deliver := func(r Result) {
		once.Do(func() { resultChan <- r })
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET(callbackPath, func(c echo.Context) error {
		query := c.QueryParams()

		if query.Get("error") != "" {
			deliver(Result{Kind: Error, Err: fmt.Errorf("%s: %s",
				query.Get("error"), query.Get("error_description"))})
			return c.HTML(http.StatusOK, donePage)
		}

		if query.Get("access_token") != "" || query.Get("refresh_token") != "" {
			deliver(Result{Kind: Success, ReturnURL: a.ReturnAddress() + "?" + c.QueryString()})
			return c.HTML(http.StatusOK, donePage)
		}

		// tokens are still hiding in the fragment
		return c.HTML(http.StatusOK, relayPage)
	})

	go func() {
		err := e.Start(fmt.Sprintf("127.0.0.1:%d", a.Port))
		if err != nil && err != http.ErrServerClosed {
			deliver(Result{Kind: Error, Err: fmt.Errorf("starting callback server: %w", err)})
		}
	}()

	slog.Info("waiting for authorization redirect", "return_address", a.ReturnAddress())

	openURL := a.OpenURL
	if openURL == nil {
		openURL = OpenBrowser
	}
	if err := openURL(authURL); err != nil {
		deliver(Result{Kind: Error, Err: fmt.Errorf("opening browser: %w", err)})
	}

	var result Result
	select {
	case result = <-resultChan:
	case <-ctx.Done():
		result = Result{Kind: Cancelled}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e.Shutdown(shutdownCtx)

	return result
}
