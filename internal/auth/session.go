package auth

import (
	"errors"
	"sync"
)

// Identity is the authenticated user as resolved by login or register.
type Identity struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

var (
	// ErrNoCredential means no bearer token is present: the user must log in.
	ErrNoCredential = errors.New("no credential: not logged in")
	// ErrNoIdentity means a token is present but no identity was resolved.
	// The session is incomplete and must not grant access.
	ErrNoIdentity = errors.New("credential present but identity unresolved")
)

// Session is the process-wide holder of the current credential and identity.
// Single writer at a time (the login/register/logout path), many readers.
// Mutations happen only through SetLogin and Logout.
type Session struct {
	store *CredentialStore

	mu       sync.RWMutex
	cred     *Credential
	identity *Identity
	watchers []func()
}

// NewSession creates a session backed by the given credential store. The
// stored credential, if any, is loaded; the identity starts unresolved until
// the caller re-authenticates or resolves it against the server.
func NewSession(store *CredentialStore) (*Session, error) {
	s := &Session{store: store}
	cred, err := store.Load()
	if err != nil {
		return nil, err
	}
	if cred != nil && Expired(cred.Token) {
		// Stale token: drop it rather than present it to the server.
		_ = store.Delete()
		cred = nil
	}
	s.cred = cred
	if cred != nil {
		s.identity = IdentityFromToken(cred.Token)
	}
	return s, nil
}

// SetLogin installs the credential and identity after a successful login or
// register and persists the credential.
func (s *Session) SetLogin(cred *Credential, id *Identity) error {
	if err := s.store.Save(cred); err != nil {
		return err
	}
	s.mu.Lock()
	s.cred = cred
	s.identity = id
	s.mu.Unlock()
	s.notify()
	return nil
}

// SetIdentity records the resolved identity for an already-stored credential.
func (s *Session) SetIdentity(id *Identity) {
	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	s.notify()
}

// Logout clears credential and identity and removes the stored credential.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.cred = nil
	s.identity = nil
	s.mu.Unlock()
	s.notify()
	return s.store.Delete()
}

// Token returns the bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ""
	}
	return s.cred.Token
}

// Identity returns the resolved identity, or nil.
func (s *Session) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Guard is the session gate. It permits entry to a protected surface only
// when both a credential and a resolved identity are present. A token without
// an identity is an incomplete session and is denied. Guard never panics;
// callers redirect to the login flow on error.
func (s *Session) Guard() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cred == nil {
		return ErrNoCredential
	}
	if s.identity == nil {
		return ErrNoIdentity
	}
	return nil
}

// Watch registers fn to run after every session mutation. The gate is
// reactive: a logout elsewhere in the program must revoke access to an
// already-rendered protected view, so views re-run Guard from their watcher.
func (s *Session) Watch(fn func()) {
	s.mu.Lock()
	s.watchers = append(s.watchers, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.RLock()
	watchers := make([]func(), len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.RUnlock()
	for _, fn := range watchers {
		fn()
	}
}
