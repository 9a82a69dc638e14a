package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PORT", "ENV", "CLASSIFIER_THRESHOLD", "MAX_CHAIN_LENGTH",
		"CACHE_TTL_SECONDS", "DATABASE_PATH", "ENV_FILE", "GITHUB_API_URL",
		"REQUEST_TIMEOUT_SECONDS", "ENCRYPTION_MASTER_KEY", "ALLOWED_ORIGINS",
		"ENABLE_AUTH", "JWT_SECRET", "OVERRIDES_FILE",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want 3001", cfg.Port)
	}
	if cfg.Environment != "development" {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.IsProduction() {
		t.Error("development config reports production")
	}
	if cfg.ClassifierThreshold != 0.3 {
		t.Errorf("ClassifierThreshold = %v", cfg.ClassifierThreshold)
	}
	if cfg.MaxChainLength != 10 {
		t.Errorf("MaxChainLength = %d", cfg.MaxChainLength)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("RequestTimeout = %v", cfg.RequestTimeout)
	}
	if cfg.GitHubAPIURL != "https://api.github.com" {
		t.Errorf("GitHubAPIURL = %q", cfg.GitHubAPIURL)
	}
	if cfg.EnableAuth {
		t.Error("EnableAuth should default off")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "8080")
	t.Setenv("ENV", "Production")
	t.Setenv("CLASSIFIER_THRESHOLD", "0.5")
	t.Setenv("MAX_CHAIN_LENGTH", "3")
	t.Setenv("CACHE_TTL_SECONDS", "60")
	t.Setenv("ENABLE_AUTH", "true")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.IsProduction() {
		t.Error("ENV=Production should report production (case insensitive)")
	}
	if cfg.ClassifierThreshold != 0.5 {
		t.Errorf("ClassifierThreshold = %v", cfg.ClassifierThreshold)
	}
	if cfg.MaxChainLength != 3 {
		t.Errorf("MaxChainLength = %d", cfg.MaxChainLength)
	}
	if cfg.CacheTTL != time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if !cfg.EnableAuth {
		t.Error("EnableAuth = false")
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CLASSIFIER_THRESHOLD", "not-a-number")
	t.Setenv("MAX_CHAIN_LENGTH", "lots")
	t.Setenv("ENABLE_AUTH", "yes please")

	cfg := Load()
	if cfg.ClassifierThreshold != 0.3 {
		t.Errorf("ClassifierThreshold = %v, want default", cfg.ClassifierThreshold)
	}
	if cfg.MaxChainLength != 10 {
		t.Errorf("MaxChainLength = %d, want default", cfg.MaxChainLength)
	}
	if cfg.EnableAuth {
		t.Error("EnableAuth should fall back to default")
	}
}

func TestLoadOverrides(t *testing.T) {
	clearConfigEnv(t)

	t.Run("not configured", func(t *testing.T) {
		cfg := &Config{}
		ov, err := cfg.LoadOverrides()
		if err != nil || ov != nil {
			t.Fatalf("LoadOverrides = %v, %v", ov, err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{OverridesFile: filepath.Join(t.TempDir(), "nope.yaml")}
		ov, err := cfg.LoadOverrides()
		if err != nil || ov != nil {
			t.Fatalf("LoadOverrides = %v, %v", ov, err)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("workflows: {not: [valid"), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := &Config{OverridesFile: path}
		if _, err := cfg.LoadOverrides(); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("full file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "overrides.yaml")
		doc := `
classifier_threshold: 0.45
max_chain_length: 4
workflows:
  - name: ship-it
    steps:
      - tool: commit
        required: true
        params:
          message: release
      - tool: push
        required: false
`
		if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg := &Config{OverridesFile: path, ClassifierThreshold: 0.3, MaxChainLength: 10}
		ov, err := cfg.LoadOverrides()
		if err != nil {
			t.Fatalf("LoadOverrides: %v", err)
		}
		if ov == nil || ov.ClassifierThreshold == nil || *ov.ClassifierThreshold != 0.45 {
			t.Fatalf("threshold override = %+v", ov)
		}
		if len(ov.Workflows) != 1 || ov.Workflows[0].Name != "ship-it" {
			t.Fatalf("workflows = %+v", ov.Workflows)
		}
		steps := ov.Workflows[0].Steps
		if len(steps) != 2 || steps[0].Tool != "commit" || !steps[0].Required {
			t.Fatalf("steps = %+v", steps)
		}
		if steps[0].Params["message"] != "release" {
			t.Errorf("params = %v", steps[0].Params)
		}

		cfg.Apply(ov)
		if cfg.ClassifierThreshold != 0.45 || cfg.MaxChainLength != 4 {
			t.Errorf("Apply: threshold=%v chain=%d", cfg.ClassifierThreshold, cfg.MaxChainLength)
		}
	})
}

func TestApplyNil(t *testing.T) {
	cfg := &Config{ClassifierThreshold: 0.3, MaxChainLength: 10}
	cfg.Apply(nil)
	if cfg.ClassifierThreshold != 0.3 || cfg.MaxChainLength != 10 {
		t.Error("nil overrides must not change the config")
	}
}
