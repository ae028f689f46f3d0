// Package auth holds the bearer credential, the resolved identity, and the
// gate that protects authenticated surfaces.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

// Credential is the opaque bearer token issued at login/register. It is the
// only client state that survives a restart.
type Credential struct {
	Token    string `yaml:"token"`
	IssuedAt int64  `yaml:"issued_at"`
}

// CredentialStore persists the credential in the config directory.
type CredentialStore struct {
	Dir string
}

func NewCredentialStore(dir string) *CredentialStore {
	return &CredentialStore{Dir: dir}
}

func (s *CredentialStore) credentialPath() string {
	return filepath.Join(s.Dir, "credential.yaml")
}

func (s *CredentialStore) Save(cred *Credential) error {
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	if err := os.WriteFile(s.credentialPath(), data, 0600); err != nil {
		return fmt.Errorf("write credential: %w", err)
	}
	return nil
}

// Load returns (nil, nil) when no credential is stored.
func (s *CredentialStore) Load() (*Credential, error) {
	data, err := os.ReadFile(s.credentialPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credential: %w", err)
	}

	var cred Credential
	if err := yaml.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("parse credential: %w", err)
	}
	return &cred, nil
}

func (s *CredentialStore) Delete() error {
	err := os.Remove(s.credentialPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete credential: %w", err)
	}
	return nil
}

// IdentityFromToken recovers the identity embedded in a JWT credential's
// claims, or nil when the token is opaque or carries none. Used after a
// restart: the credential is the only persisted state, so the identity is
// re-derived rather than stored.
func IdentityFromToken(token string) *Identity {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	id := Identity{}
	for _, key := range []string{"_id", "id", "sub"} {
		if v, ok := claims[key].(string); ok && v != "" {
			id.ID = v
			break
		}
	}
	if v, ok := claims["email"].(string); ok {
		id.Email = v
	}
	if id.ID == "" && id.Email == "" {
		return nil
	}
	return &id
}

// Expired reports whether the token carries a JWT exp claim that has passed.
// The claims are not verified here; the server remains the authority. Tokens
// that do not parse as JWTs are treated as live until the server rejects them.
func Expired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().After(exp.Time)
}
