package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestCredentialStoreRoundTrip(t *testing.T) {
	store := NewCredentialStore(t.TempDir())

	cred, err := store.Load()
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if cred != nil {
		t.Fatalf("Load on empty store = %+v, want nil", cred)
	}

	want := &Credential{Token: "tok-abc", IssuedAt: time.Now().Unix()}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Token != want.Token || got.IssuedAt != want.IssuedAt {
		t.Errorf("Load = %+v, want %+v", got, want)
	}

	if err := store.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete twice: %v", err)
	}
	got, err = store.Load()
	if err != nil || got != nil {
		t.Errorf("Load after Delete = %+v, %v; want nil, nil", got, err)
	}
}

func TestExpired(t *testing.T) {
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	live := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	noExp := signedToken(t, jwt.MapClaims{"_id": "u1"})

	if !Expired(expired) {
		t.Error("expired token reported live")
	}
	if Expired(live) {
		t.Error("live token reported expired")
	}
	if Expired(noExp) {
		t.Error("token without exp must be treated as live")
	}
	if Expired("opaque-not-a-jwt") {
		t.Error("opaque token must be treated as live")
	}
}

func TestIdentityFromToken(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{"_id": "u1", "email": "a@b.com"})
	id := IdentityFromToken(tok)
	if id == nil || id.ID != "u1" || id.Email != "a@b.com" {
		t.Errorf("IdentityFromToken = %+v", id)
	}

	if id := IdentityFromToken("opaque"); id != nil {
		t.Errorf("IdentityFromToken(opaque) = %+v, want nil", id)
	}
}

func TestGuardMatrix(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	s, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// No credential at all.
	if err := s.Guard(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Guard with nothing = %v, want ErrNoCredential", err)
	}

	// Credential present, identity unresolved: an incomplete session must be
	// denied, not silently granted.
	s.mu.Lock()
	s.cred = &Credential{Token: "opaque"}
	s.identity = nil
	s.mu.Unlock()
	if err := s.Guard(); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("Guard without identity = %v, want ErrNoIdentity", err)
	}

	// Both present.
	if err := s.SetLogin(&Credential{Token: "opaque"}, &Identity{ID: "u1", Email: "a@b.com"}); err != nil {
		t.Fatalf("SetLogin: %v", err)
	}
	if err := s.Guard(); err != nil {
		t.Errorf("Guard with full session = %v, want nil", err)
	}

	// Logout revokes everything.
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := s.Guard(); !errors.Is(err, ErrNoCredential) {
		t.Errorf("Guard after logout = %v, want ErrNoCredential", err)
	}
}

func TestSessionReactiveWatch(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	s, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	fired := 0
	s.Watch(func() { fired++ })

	if err := s.SetLogin(&Credential{Token: "t"}, &Identity{ID: "u1"}); err != nil {
		t.Fatalf("SetLogin: %v", err)
	}
	if err := s.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if fired != 2 {
		t.Errorf("watcher fired %d times, want 2", fired)
	}
}

func TestSessionDropsExpiredStoredCredential(t *testing.T) {
	dir := t.TempDir()
	store := NewCredentialStore(dir)
	expired := signedToken(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})
	if err := store.Save(&Credential{Token: expired}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if got := s.Token(); got != "" {
		t.Errorf("Token after loading expired credential = %q, want empty", got)
	}
	cred, err := store.Load()
	if err != nil || cred != nil {
		t.Errorf("expired credential not removed from store: %+v, %v", cred, err)
	}
}

func TestSessionResolvesIdentityFromStoredToken(t *testing.T) {
	store := NewCredentialStore(t.TempDir())
	tok := signedToken(t, jwt.MapClaims{"_id": "u7", "email": "me@x.com"})
	if err := store.Save(&Credential{Token: tok}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	s, err := NewSession(store)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if err := s.Guard(); err != nil {
		t.Errorf("Guard after restart with claim-bearing token = %v, want nil", err)
	}
	if id := s.Identity(); id == nil || id.ID != "u7" {
		t.Errorf("Identity = %+v", id)
	}
}
