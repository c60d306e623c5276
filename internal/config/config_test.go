package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/partyshah/ai-math-tutor/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, _, exists, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if cfg.Feedback.MaxSlideFloor != 4 {
		t.Fatalf("expected default max slide floor 4, got %d", cfg.Feedback.MaxSlideFloor)
	}
	if cfg.STT.Model != "whisper-1" {
		t.Fatalf("unexpected default stt model %q", cfg.STT.Model)
	}
}

func TestLoadParsesAndExpandsPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"
api_bind = "127.0.0.1:9000"

[feedback]
max_slide_floor = 6
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if resolved != path {
		t.Fatalf("resolved path %q != %q", resolved, path)
	}
	if cfg.Paths.APIBind != "127.0.0.1:9000" {
		t.Fatalf("unexpected bind %q", cfg.Paths.APIBind)
	}
	if cfg.Feedback.MaxSlideFloor != 6 {
		t.Fatalf("unexpected floor %d", cfg.Feedback.MaxSlideFloor)
	}
	if !filepath.IsAbs(cfg.Paths.DataDir) {
		t.Fatalf("data dir not absolute: %q", cfg.Paths.DataDir)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "tutor.db") {
		t.Fatalf("unexpected db path %q", cfg.DatabasePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero floor", func(c *config.Config) { c.Feedback.MaxSlideFloor = 0 }, "max_slide_floor"},
		{"zero retention", func(c *config.Config) { c.Feedback.SessionMaxAgeHours = 0 }, "session_max_age_hours"},
		{"empty llm model", func(c *config.Config) { c.LLM.Model = "" }, "llm.model"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestEnvFallbackForAPIKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg, _, _, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.LLM.APIKey != "sk-test" || cfg.STT.APIKey != "sk-test" {
		t.Fatalf("expected env key fallback, got llm=%q stt=%q", cfg.LLM.APIKey, cfg.STT.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[feedback]") {
		t.Fatal("sample config missing feedback section")
	}
}
