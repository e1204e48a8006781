package client

import (
	"context"
	"net/http"
	"sync"
)

// Session holds the signed-in user and bearer token. It is the token source
// for the API it was created with.
type Session struct {
	api *API

	mu    sync.RWMutex
	token string
	user  *User
}

// NewSession binds a session to api. token is a previously stored bearer
// token, or empty.
func NewSession(api *API, token string) *Session {
	s := &Session{api: api, token: token}
	api.token = s.Token
	return s
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.IsAdmin
}

// Restore loads the user behind the stored token. A rejected token clears
// the session and is not an error; other failures leave the token in place.
func (s *Session) Restore(ctx context.Context) (*User, error) {
	if s.Token() == "" {
		return nil, nil
	}

	user, err := s.api.me(ctx)
	if err != nil {
		if apiErr, ok := AsAPIError(err); ok && apiErr.Status == http.StatusUnauthorized {
			s.clear()
			return nil, nil
		}
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	result, err := s.api.login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.set(result), nil
}

func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	result, err := s.api.register(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.set(result), nil
}

// Logout clears the session first, then revokes the token server side. The
// local session is cleared even when revocation fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.token, s.user = "", nil
	s.mu.Unlock()

	if token == "" {
		return nil
	}
	return s.api.logout(ctx, token)
}

func (s *Session) set(result *AuthResult) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = result.Token
	u := result.User
	s.user = &u
	return &u
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()
}
