package credentials

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"

	"gitpilot/internal/crypto"
)

const testMasterKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func clearCredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GITHUB_USERNAME", "")
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN_ENC", "")
	os.Unsetenv("GITHUB_USERNAME")
	os.Unsetenv("GITHUB_TOKEN")
	os.Unsetenv("GITHUB_TOKEN_ENC")
}

func TestStoreUnconfigured(t *testing.T) {
	clearCredEnv(t)
	s := NewStore("", nil)

	if s.Configured() {
		t.Error("Expected unconfigured store")
	}
	if _, err := s.GitHubToken(); err != ErrNotConfigured {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
	if _, err := s.GitHubUsername(); err != ErrNotConfigured {
		t.Errorf("Expected ErrNotConfigured, got %v", err)
	}
}

func TestStoreLoadsPlaintextEnv(t *testing.T) {
	clearCredEnv(t)
	t.Setenv("GITHUB_USERNAME", "octocat")
	t.Setenv("GITHUB_TOKEN", "tok123")

	s := NewStore("", nil)
	if !s.Configured() {
		t.Fatal("Expected configured store")
	}
	token, err := s.GitHubToken()
	if err != nil || token != "tok123" {
		t.Errorf("Expected tok123, got %q, %v", token, err)
	}
}

func TestPlaintextTokenWinsOverEncrypted(t *testing.T) {
	clearCredEnv(t)
	enc, _ := crypto.NewEncryptionService(testMasterKey)
	cipher, _ := enc.EncryptString("github-credentials", "encrypted-token")

	t.Setenv("GITHUB_USERNAME", "octocat")
	t.Setenv("GITHUB_TOKEN", "plain-token")
	t.Setenv("GITHUB_TOKEN_ENC", cipher)

	s := NewStore("", enc)
	token, _ := s.GitHubToken()
	if token != "plain-token" {
		t.Errorf("Plaintext env token must win, got %q", token)
	}
}

func TestStoreDecryptsPersistedToken(t *testing.T) {
	clearCredEnv(t)
	enc, _ := crypto.NewEncryptionService(testMasterKey)
	cipher, err := enc.EncryptString("github-credentials", "secret-token")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}

	t.Setenv("GITHUB_USERNAME", "octocat")
	t.Setenv("GITHUB_TOKEN_ENC", cipher)

	s := NewStore("", enc)
	token, err := s.GitHubToken()
	if err != nil || token != "secret-token" {
		t.Errorf("Expected decrypted token, got %q, %v", token, err)
	}
}

func TestSetupPersistsEncrypted(t *testing.T) {
	clearCredEnv(t)
	enc, _ := crypto.NewEncryptionService(testMasterKey)
	envPath := filepath.Join(t.TempDir(), ".env")

	s := NewStore(envPath, enc)
	if err := s.Setup("octocat", "tok123"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	raw, err := os.ReadFile(envPath)
	if err != nil {
		t.Fatalf("Env file not written: %v", err)
	}
	if strings.Contains(string(raw), "tok123") {
		t.Error("Token must not be persisted in the clear")
	}

	env, err := godotenv.Read(envPath)
	if err != nil {
		t.Fatalf("Failed to read env file: %v", err)
	}
	if env["GITHUB_USERNAME"] != "octocat" {
		t.Errorf("Expected username persisted, got %q", env["GITHUB_USERNAME"])
	}
	if _, hasPlain := env["GITHUB_TOKEN"]; hasPlain {
		t.Error("Plaintext token key must be removed")
	}
	decrypted, err := enc.DecryptString("github-credentials", env["GITHUB_TOKEN_ENC"])
	if err != nil || decrypted != "tok123" {
		t.Errorf("Persisted token does not decrypt: %q, %v", decrypted, err)
	}
}

func TestSetupPersistsPlaintextWithoutEncryption(t *testing.T) {
	clearCredEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")

	s := NewStore(envPath, nil)
	if err := s.Setup("octocat", "tok123"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	env, err := godotenv.Read(envPath)
	if err != nil {
		t.Fatalf("Failed to read env file: %v", err)
	}
	if env["GITHUB_TOKEN"] != "tok123" {
		t.Errorf("Expected plaintext token persisted, got %q", env["GITHUB_TOKEN"])
	}
}

func TestSetupPreservesUnrelatedKeys(t *testing.T) {
	clearCredEnv(t)
	envPath := filepath.Join(t.TempDir(), ".env")
	if err := godotenv.Write(map[string]string{"PORT": "9000"}, envPath); err != nil {
		t.Fatalf("Failed to seed env file: %v", err)
	}

	s := NewStore(envPath, nil)
	if err := s.Setup("octocat", "tok123"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	env, _ := godotenv.Read(envPath)
	if env["PORT"] != "9000" {
		t.Errorf("Unrelated key lost: %v", env)
	}
}

func TestSetupValidatesInput(t *testing.T) {
	clearCredEnv(t)
	s := NewStore("", nil)
	if err := s.Setup("", "tok"); err == nil {
		t.Error("Expected error for empty username")
	}
	if err := s.Setup("user", "  "); err == nil {
		t.Error("Expected error for blank token")
	}
}

func TestStatusNeverExposesToken(t *testing.T) {
	clearCredEnv(t)
	s := NewStore("", nil)
	if err := s.Setup("octocat", "super-secret"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	status := s.Status()
	if status["configured"] != true || status["username"] != "octocat" {
		t.Errorf("Unexpected status: %v", status)
	}
	for k, v := range status {
		if sv, ok := v.(string); ok && strings.Contains(sv, "super-secret") {
			t.Errorf("Status field %q leaks the token", k)
		}
	}
	if _, present := status["token"]; present {
		t.Error("Status must not contain a token field")
	}
}
