// Package credentials manages the GitHub identity used by the tool
// catalog. Tokens set at runtime are encrypted before being persisted to
// the env file; a plain GITHUB_TOKEN in the process environment always
// takes precedence.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gitpilot/internal/crypto"
)

const (
	envUsername       = "GITHUB_USERNAME"
	envToken          = "GITHUB_TOKEN"
	envEncryptedToken = "GITHUB_TOKEN_ENC"

	// tokenScope keys the HKDF derivation for stored tokens.
	tokenScope = "github-credentials"
)

// ErrNotConfigured indicates no usable GitHub credentials were found.
var ErrNotConfigured = errors.New("github credentials are not configured")

// Store holds the GitHub username and token, backed by the process
// environment and an optional persisted env file.
type Store struct {
	mu       sync.RWMutex
	envPath  string
	enc      *crypto.EncryptionService
	username string
	token    string
	log      *logrus.Logger
}

// NewStore builds a credential store. envPath is where runtime updates
// are persisted (empty disables persistence). enc may be nil, in which
// case tokens are persisted in the clear with a warning.
func NewStore(envPath string, enc *crypto.EncryptionService) *Store {
	s := &Store{
		envPath: envPath,
		enc:     enc,
		log:     logrus.StandardLogger(),
	}
	s.loadFromEnv()
	return s
}

// loadFromEnv seeds the store from the environment, decrypting a
// persisted token when no plaintext one is present.
func (s *Store) loadFromEnv() {
	s.username = strings.TrimSpace(os.Getenv(envUsername))

	if token := strings.TrimSpace(os.Getenv(envToken)); token != "" {
		s.token = token
		return
	}

	encToken := strings.TrimSpace(os.Getenv(envEncryptedToken))
	if encToken == "" || s.enc == nil {
		return
	}
	token, err := s.enc.DecryptString(tokenScope, encToken)
	if err != nil {
		s.log.Warnf("Could not decrypt stored GitHub token: %v", err)
		return
	}
	s.token = token
}

// GitHubUsername returns the configured username.
func (s *Store) GitHubUsername() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.username == "" {
		return "", ErrNotConfigured
	}
	return s.username, nil
}

// GitHubToken returns the configured token.
func (s *Store) GitHubToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotConfigured
	}
	return s.token, nil
}

// Configured reports whether both username and token are set.
func (s *Store) Configured() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username != "" && s.token != ""
}

// Setup stores a new username/token pair, updates the process
// environment, and persists to the env file when one is configured.
func (s *Store) Setup(username, token string) error {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" {
		return errors.New("username and token are both required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.token = token

	os.Setenv(envUsername, username)
	os.Setenv(envToken, token)

	if s.envPath == "" {
		return nil
	}
	if err := s.persist(username, token); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}
	s.log.Infof("GitHub credentials updated for %s", username)
	return nil
}

// persist writes the credentials to the env file, preserving unrelated
// keys already in it. The token is encrypted when an encryption service
// is available.
func (s *Store) persist(username, token string) error {
	env, err := godotenv.Read(s.envPath)
	if err != nil {
		env = map[string]string{}
	}

	env[envUsername] = username
	if s.enc != nil {
		encToken, err := s.enc.EncryptString(tokenScope, token)
		if err != nil {
			return err
		}
		env[envEncryptedToken] = encToken
		delete(env, envToken)
	} else {
		s.log.Warn("No encryption key configured, persisting GitHub token in the clear")
		env[envToken] = token
	}

	return godotenv.Write(env, s.envPath)
}

// Status describes the store without exposing the token.
func (s *Store) Status() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"configured": s.username != "" && s.token != "",
		"username":   s.username,
		"encrypted":  s.enc != nil,
	}
}
