package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("MODE", "")
	t.Setenv("QUIZ_DEFAULTS_FILE", "")
	t.Setenv("REDIS_TTL", "")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mode != ModeOffline || cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.RedisTTL != 2*time.Hour {
		t.Errorf("RedisTTL = %v", cfg.RedisTTL)
	}
	if diff := cmp.Diff(cat.DefaultConfig(), cfg.QuizDefaults); diff != "" {
		t.Errorf("quiz defaults (-want +got):\n%s", diff)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("REDIS_TTL", "90")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , https://b.example,")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("LogMode = %q", cfg.LogMode)
	}
	if cfg.RedisTTL != 90*time.Second {
		t.Errorf("RedisTTL = %v", cfg.RedisTTL)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.CORSOriginsOnline); diff != "" {
		t.Errorf("origins:\n%s", diff)
	}
}

func TestLoadQuizDefaults(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	os.WriteFile(good, []byte("startinglevel: 3\nmaximumquestions: 30\ncatmodel: fisher\n"), 0o644)

	cfg, err := LoadQuizDefaults(good)
	if err != nil {
		t.Fatal(err)
	}
	want := cat.DefaultConfig()
	want.StartingLevel = 3
	want.MaxQuestions = 30
	want.Model = cat.ModelFisher
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("startinglevel: 42\n"), 0o644)
	if _, err := LoadQuizDefaults(bad); !errors.Is(err, cat.ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
}
