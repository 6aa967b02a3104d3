// Package session holds the console's authentication state: the bearer token
// issued by the server and the username it belongs to.
package session

import "sync"

// Session is the client-held proof of authentication.
// Token and Username are either both set or both empty.
type Session struct {
	Token    string
	Username string
}

// Authenticated reports whether s carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}

// Store keeps the single logged-in session of a console instance.
type Store struct {
	mu  sync.RWMutex
	cur Session
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Set replaces the current session. The token is opaque and not validated.
// An empty token or username clears the store instead, so a session is
// never half-populated.
func (s *Store) Set(token, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" || username == "" {
		s.cur = Session{}
		return
	}
	s.cur = Session{Token: token, Username: username}
}

// Clear drops the current session.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Session{}
}

// Get returns a copy of the current session.
func (s *Store) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	return s.Get().Token
}

// Authenticated reports whether a session is present.
func (s *Store) Authenticated() bool {
	return s.Get().Authenticated()
}
