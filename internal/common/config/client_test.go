package config

import (
	"path/filepath"
	"testing"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

func TestLoadClientConfig(t *testing.T) {
	t.Setenv("BOARD_API_URL", "")
	t.Setenv("BOARD_STATE_FILE", "")

	cfg := LoadClientConfig()
	if cfg.APIBaseURL != constants.DefaultAPIBaseURL {
		t.Errorf("expected default api url, got %q", cfg.APIBaseURL)
	}
	if filepath.Base(cfg.StatePath) != constants.ClientStateFile {
		t.Errorf("expected state file %s, got %q", constants.ClientStateFile, cfg.StatePath)
	}

	t.Setenv("BOARD_API_URL", "https://board.example.com/api")
	t.Setenv("BOARD_STATE_FILE", "/tmp/board.db")

	cfg = LoadClientConfig()
	if cfg.APIBaseURL != "https://board.example.com/api" || cfg.StatePath != "/tmp/board.db" {
		t.Errorf("env overrides ignored: %+v", cfg)
	}
}
