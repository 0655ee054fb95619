package internal

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestHTTPConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}
	cfg.App.HTTP.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestCorpusAndSQLitePathsRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Corpus.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty corpus path")
	}

	cfg = NewDefaultConfig()
	cfg.SQLite.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty sqlite path")
	}
}

func TestAuthConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = AuthModeToken
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for token mode without a token")
	}

	cfg.Auth.Token = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("token mode with token should validate: %v", err)
	}
	if !cfg.Auth.AuthEnabled() {
		t.Error("AuthEnabled() = false in token mode")
	}

	cfg = NewDefaultConfig()
	cfg.Auth.Mode = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty mode should normalise to disabled: %v", err)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("Mode = %q, want %q", cfg.Auth.Mode, AuthModeDisabled)
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("AuthEnabled() = true in disabled mode")
	}

	cfg.Auth.Mode = "basic"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown auth mode")
	}
}

func TestPageRankConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PageRankConfig)
	}{
		{"damping zero", func(c *PageRankConfig) { c.Damping = 0 }},
		{"damping one", func(c *PageRankConfig) { c.Damping = 1.0 }},
		{"no iterations", func(c *PageRankConfig) { c.MaxIterations = 0 }},
		{"zero tolerance", func(c *PageRankConfig) { c.Tolerance = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg.PageRank)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestHTTPAddress(t *testing.T) {
	cfg := NewDefaultConfig()
	if got := cfg.App.HTTP.Address(); got != ":8080" {
		t.Errorf("Address() = %q, want \":8080\"", got)
	}
}
