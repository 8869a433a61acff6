package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jakechorley/shift-planner/internal/config"
)

const (
	// AuthPort is where the consent redirect lands; it must match the client's redirect URIs
	AuthPort     = 3000
	callbackPath = "/oauth/callback"
	authTimeout  = 5 * time.Minute

	tokenFilePerms = 0o600
	tokenDirPerms  = 0o700
)

// ScopeSheets is the only scope the planner asks for
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

// SheetsOAuthConfig builds the OAuth2 config for publishing to Google Sheets
func SheetsOAuthConfig(client *config.GoogleClientConfig) (*oauth2.Config, error) {
	data, err := client.JSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal google client config: %w", err)
	}

	cfg, err := google.ConfigFromJSON(data, ScopeSheets)
	if err != nil {
		return nil, fmt.Errorf("failed to create google config: %w", err)
	}
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d%s", AuthPort, callbackPath)

	return cfg, nil
}

// TokenStore keeps one token per environment as JSON files in a private directory
type TokenStore struct {
	dir string
}

// NewTokenStore uses ~/.shift-planner/tokens
func NewTokenStore() (*TokenStore, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return NewTokenStoreAt(filepath.Join(home, ".shift-planner", "tokens")), nil
}

func NewTokenStoreAt(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

func (s *TokenStore) path(env string) string {
	return filepath.Join(s.dir, "token-"+env+".json")
}

// Load returns nil without error when nothing has been saved for env
func (s *TokenStore) Load(env string) (*oauth2.Token, error) {
	data, err := os.ReadFile(s.path(env))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

func (s *TokenStore) Save(env string, token *oauth2.Token) error {
	if err := os.MkdirAll(s.dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := os.WriteFile(s.path(env), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete forgets the token for env; a missing file is not an error
func (s *TokenStore) Delete(env string) error {
	if err := os.Remove(s.path(env)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}

// persistingSource writes each newly minted token back to the store
type persistingSource struct {
	base   oauth2.TokenSource
	store  *TokenStore
	env    string
	logger *zap.Logger

	mu   sync.Mutex
	last string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	token, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if token.AccessToken != p.last {
		p.last = token.AccessToken
		if err := p.store.Save(p.env, token); err != nil {
			p.logger.Warn("Failed to save refreshed token", zap.Error(err))
		} else {
			p.logger.Debug("Saved refreshed token", zap.String("env", p.env))
		}
	}
	return token, nil
}

// SheetsTokenSource returns a token source for env. A stored token is reused and refreshed
// as needed; with no usable token the browser consent flow runs once.
func SheetsTokenSource(ctx context.Context, oauthConfig *oauth2.Config, store *TokenStore, env string, logger *zap.Logger) (oauth2.TokenSource, error) {
	token, err := store.Load(env)
	if err != nil {
		logger.Warn("Ignoring unreadable token file", zap.Error(err))
	}

	if token != nil && !token.Valid() && token.RefreshToken != "" {
		refreshed, err := oauthConfig.TokenSource(ctx, token).Token()
		if err != nil {
			logger.Warn("Token refresh failed, starting consent flow", zap.Error(err))
			token = nil
		} else {
			token = refreshed
			if err := store.Save(env, token); err != nil {
				logger.Warn("Failed to save refreshed token", zap.Error(err))
			}
		}
	}

	if token == nil || !token.Valid() {
		token, err = authorize(ctx, oauthConfig, logger)
		if err != nil {
			return nil, err
		}
		if err := store.Save(env, token); err != nil {
			logger.Warn("Failed to save token", zap.Error(err))
		}
	}

	src := &persistingSource{
		base:   oauthConfig.TokenSource(ctx, token),
		store:  store,
		env:    env,
		logger: logger,
		last:   token.AccessToken,
	}
	return oauth2.ReuseTokenSource(token, src), nil
}

func authorize(ctx context.Context, oauthConfig *oauth2.Config, logger *zap.Logger) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", AuthPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the oauth redirect: %w", err)
	}

	state := uuid.NewString()
	authURL := oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Printf("\nVisit this URL to authorize the shift planner:\n%s\n\n", authURL)
	logger.Debug("Waiting for oauth redirect", zap.Int("port", AuthPort))

	code, err := receiveCode(ctx, ln, state, authTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to get authorization code: %w", err)
	}

	token, err := oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return token, nil
}

type callbackResult struct {
	code string
	err  error
}

// receiveCode serves the redirect on ln until one callback arrives. The callback must
// carry the state sent with the consent URL.
func receiveCode(ctx context.Context, ln net.Listener, state string, timeout time.Duration) (string, error) {
	results := make(chan callbackResult, 1)
	report := func(r callbackResult) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			report(callbackResult{err: errors.New("oauth state mismatch")})
			http.Error(w, "Authorization failed", http.StatusBadRequest)
		case q.Get("error") != "":
			report(callbackResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			http.Error(w, "Authorization denied", http.StatusForbidden)
		case q.Get("code") == "":
			report(callbackResult{err: errors.New("no authorization code received")})
			http.Error(w, "Authorization failed", http.StatusBadRequest)
		default:
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, "<html><body><h1>Shift planner authorized.</h1><p>You can close this window.</p></body></html>")
			report(callbackResult{code: q.Get("code")})
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			report(callbackResult{err: fmt.Errorf("server error: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-results:
		return r.code, r.err
	case <-timer.C:
		return "", fmt.Errorf("authorization timeout after %v", timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
