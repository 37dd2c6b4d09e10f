package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"

	"github.com/calchat/calchat/internal/logging"
)

// consentTimeout bounds how long the interactive flow waits for the user
// to complete the browser consent screen.
const consentTimeout = 5 * time.Minute

// Provider owns the persisted Google credential: it loads, refreshes,
// obtains, and removes it. No other component touches the token file.
type Provider struct {
	conf      *oauth2.Config
	tokenPath string
	logger    *slog.Logger
}

// NewProvider creates a credential provider persisting the token at
// tokenPath. If logger is nil, slog.Default() is used.
func NewProvider(conf *oauth2.Config, tokenPath string, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		conf:      conf,
		tokenPath: tokenPath,
		logger:    logger,
	}
}

// GetCredentials returns a valid credential, refreshing or running the
// interactive consent flow as needed. The returned token is always
// persisted. Identity-provider failures (unrefreshable token, denied
// consent, network errors) are returned as errors, never as a partial
// credential.
func (p *Provider) GetCredentials(ctx context.Context) (*oauth2.Token, error) {
	token, err := p.loadToken()
	if err != nil {
		p.logger.Debug("stored credential unreadable, starting consent flow", logging.Err(err))
		token = nil
	}

	if token != nil && token.Valid() {
		return token, nil
	}

	if token != nil && token.RefreshToken != "" {
		p.logger.Info("refreshing expired credential")
		refreshed, err := p.conf.TokenSource(ctx, token).Token()
		if err != nil {
			return nil, fmt.Errorf("failed to refresh credential: %w", err)
		}
		if err := p.saveToken(refreshed); err != nil {
			return nil, err
		}
		return refreshed, nil
	}

	p.logger.Info("no usable credential, starting interactive authorization")
	token, err = p.authorize(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.saveToken(token); err != nil {
		return nil, err
	}
	return token, nil
}

// IsLoggedIn reports whether a persisted credential exists and is valid
// without attempting a network refresh. Parse failures are treated as
// "not logged in", never propagated, so the UI can cheaply decide whether
// to show a login prompt.
func (p *Provider) IsLoggedIn() bool {
	token, err := p.loadToken()
	if err != nil || token == nil {
		return false
	}
	return token.Valid()
}

// Logout removes the persisted credential if present and reports whether
// removal occurred. Calling it twice is safe; the second call returns
// false.
func (p *Provider) Logout() bool {
	if err := os.Remove(p.tokenPath); err != nil {
		if !os.IsNotExist(err) {
			p.logger.Warn("failed to remove credential file", logging.Err(err))
		}
		return false
	}
	p.logger.Info("credential removed")
	return true
}

// TokenSource returns an auto-persisting token source: refreshed tokens
// are written back to the token file so the next process start does not
// need to refresh again.
func (p *Provider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	token, err := p.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		source:    oauth2.ReuseTokenSource(token, p.conf.TokenSource(ctx, token)),
		provider:  p,
		lastToken: token,
	}, nil
}

// HTTPClient returns an HTTP client that authenticates requests with the
// stored credential, refreshing it transparently.
func (p *Provider) HTTPClient(ctx context.Context) (*http.Client, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func (p *Provider) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(p.tokenPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func (p *Provider) saveToken(token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(p.tokenPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(p.tokenPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	p.logger.Debug("credential persisted",
		slog.String("path", p.tokenPath),
		slog.String("access_token", logging.SanitizeToken(token.AccessToken)))
	return nil
}

// authorize runs the browser-based consent flow: it starts a local
// callback listener, prints the consent URL, and exchanges the returned
// authorization code for a credential.
func (p *Provider) authorize(ctx context.Context) (*oauth2.Token, error) {
	redirectURL, codeChan, errChan, shutdown, err := startCallbackListener()
	if err != nil {
		return nil, err
	}
	defer shutdown()

	conf := *p.conf
	conf.RedirectURL = redirectURL

	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Println("Please visit the following URL to authorize calendar access:")
	fmt.Println(authURL)
	fmt.Println("\nWaiting for authorization...")

	var code string
	select {
	case code = <-codeChan:
	case err := <-errChan:
		return nil, fmt.Errorf("authorization failed: %w", err)
	case <-time.After(consentTimeout):
		return nil, fmt.Errorf("authorization timed out after %s", consentTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// startCallbackListener starts a local HTTP server to receive the OAuth
// callback. Port 8080 is tried first so the redirect URI matches common
// Google Cloud console configurations; a random port is used as fallback.
func startCallbackListener() (string, <-chan string, <-chan error, func(), error) {
	listener, err := net.Listen("tcp", "127.0.0.1:8080")
	if err != nil {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return "", nil, nil, nil, fmt.Errorf("failed to start callback listener: %w", err)
		}
	}

	port := listener.Addr().(*net.TCPAddr).Port
	redirectURL := fmt.Sprintf("http://127.0.0.1:%d/callback", port)

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	server := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Only the first callback counts; the non-blocking sends keep a
	// stray duplicate request from wedging a handler goroutine.
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if code := r.URL.Query().Get("code"); code != "" {
			fmt.Fprint(w, "<html><body><h1>Authorization successful</h1><p>You can close this window.</p></body></html>")
			select {
			case codeChan <- code:
			default:
			}
			return
		}
		if errMsg := r.URL.Query().Get("error"); errMsg != "" {
			fmt.Fprintf(w, "<html><body><h1>Authorization failed</h1><p>%s</p></body></html>", errMsg)
			select {
			case errChan <- fmt.Errorf("consent denied: %s", errMsg):
			default:
			}
			return
		}
		fmt.Fprint(w, "<html><body><h1>No authorization code received</h1></body></html>")
		select {
		case errChan <- fmt.Errorf("no authorization code received"):
		default:
		}
	})

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("callback server error: %w", err)
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}

	return redirectURL, codeChan, errChan, shutdown, nil
}

// persistingTokenSource wraps an oauth2.TokenSource and writes refreshed
// tokens back to disk.
type persistingTokenSource struct {
	source    oauth2.TokenSource
	provider  *Provider
	lastToken *oauth2.Token
}

// Token implements oauth2.TokenSource.
func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	if s.lastToken == nil || s.lastToken.AccessToken != token.AccessToken {
		if err := s.provider.saveToken(token); err != nil {
			return nil, fmt.Errorf("failed to persist refreshed token: %w", err)
		}
		s.lastToken = token
	}

	return token, nil
}
