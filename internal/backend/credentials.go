package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// ErrNoCredential indicates no usable bearer credential is available.
var ErrNoCredential = errors.New("backend: no credential")

// CredentialProvider supplies the bearer credential attached to every request.
// Token acquisition and refresh belong to the auth collaborator, not here.
type CredentialProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Session is a credential with an explicit lifecycle: acquired once at session
// start, invalidated at logout.
type Session struct {
	mu    sync.RWMutex
	token *oauth2.Token
}

// NewSession returns a session with no credential.
func NewSession() *Session {
	return &Session{}
}

// Acquire stores the credential for subsequent requests.
func (s *Session) Acquire(token *oauth2.Token) error {
	if token == nil || strings.TrimSpace(token.AccessToken) == "" {
		return ErrNoCredential
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// AcquireBearer is Acquire for a plain access token.
func (s *Session) AcquireBearer(accessToken string) error {
	return s.Acquire(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
}

// Invalidate drops the credential; later requests fail with ErrNoCredential.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Token implements CredentialProvider.
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil || !s.token.Valid() {
		return nil, ErrNoCredential
	}
	return s.token, nil
}

type bearerContextKey struct{}

// WithBearer attaches the caller's access token to ctx for RequestCredentials.
func WithBearer(ctx context.Context, accessToken string) context.Context {
	return context.WithValue(ctx, bearerContextKey{}, accessToken)
}

// BearerFromContext returns the access token stored by WithBearer.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerContextKey{}).(string)
	return token, ok && token != ""
}

// RequestCredentials forwards the bearer token carried by the request context.
// The gateway uses it so each call runs with the end user's own credential.
type RequestCredentials struct{}

// Token implements CredentialProvider.
func (RequestCredentials) Token(ctx context.Context) (*oauth2.Token, error) {
	access, ok := BearerFromContext(ctx)
	if !ok {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: access, TokenType: "Bearer"}, nil
}
