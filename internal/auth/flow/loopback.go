package flow

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dealhunt/dealhunt-go/internal/config"
	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/pkg/browser"
	"go.uber.org/zap"
)

const callbackPath = "/auth/callback"

// forwarderPage turns the token fragment the provider appends to the
// redirect into query parameters the loopback server can read. Fragments
// never reach the server on their own.
const forwarderPage = `<!DOCTYPE html>
<html><body><script>
if (window.location.hash.length > 1) {
  window.location.replace(window.location.pathname + "?" + window.location.hash.substring(1));
} else {
  document.body.innerText = "Sign-in failed: no credentials returned.";
}
</script></body></html>`

const completedPage = `<!DOCTYPE html>
<html><body><p>Sign-in complete. You can close this window and return to the app.</p></body></html>`

// LoopbackFlow is the native-runtime flow: it opens the system browser on
// the authorization URL and catches the provider's redirect on a loopback
// HTTP listener.
type LoopbackFlow struct {
	host    string
	port    int
	timeout time.Duration
	open    func(url string) error

	mu       sync.Mutex
	listener net.Listener
}

// NewLoopbackFlow creates the interactive flow from configuration
func NewLoopbackFlow(cfg *config.OAuthConfig) *LoopbackFlow {
	return &LoopbackFlow{
		host:    cfg.RedirectHost,
		port:    cfg.RedirectPort,
		timeout: cfg.Timeout,
		open:    browser.OpenURL,
	}
}

func (f *LoopbackFlow) RedirectURI() string {
	listener, err := f.ensureListener()
	if err != nil {
		logger.Error("failed to bind loopback listener", zap.Error(err))
		return fmt.Sprintf("http://%s:%d%s", f.host, f.port, callbackPath)
	}
	return fmt.Sprintf("http://%s%s", listener.Addr().String(), callbackPath)
}

func (f *LoopbackFlow) Authorize(ctx context.Context, authURL string) (string, error) {
	listener, err := f.ensureListener()
	if err != nil {
		return "", fmt.Errorf("failed to bind loopback listener: %w", err)
	}

	results := make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// First hit carries the tokens in the fragment; serve the forwarder
		// so the browser re-requests with them as query parameters.
		if len(r.URL.Query()) == 0 {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(forwarderPage))
			return
		}

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(completedPage))

		select {
		case results <- "http://" + r.Host + r.URL.String():
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("loopback server error", zap.Error(serveErr))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		f.mu.Lock()
		f.listener = nil
		f.mu.Unlock()
	}()

	if err := f.open(authURL); err != nil {
		return "", fmt.Errorf("failed to open browser: %w", err)
	}

	timeout := f.timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	select {
	case callbackURL := <-results:
		return callbackURL, nil
	case <-ctx.Done():
		return "", ErrCancelled
	case <-time.After(timeout):
		return "", ErrCancelled
	}
}

func (f *LoopbackFlow) ensureListener() (net.Listener, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listener != nil {
		return f.listener, nil
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", f.host, f.port))
	if err != nil {
		return nil, err
	}
	f.listener = listener
	return listener, nil
}
