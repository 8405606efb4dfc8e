package config

import (
	"os"
	"path/filepath"

	"github.com/AlibekovAA/community-board/internal/common/constants"
)

// ClientConfig configures boardctl.
type ClientConfig struct {
	APIBaseURL string
	// StatePath is the SQLite file backing the persistent token store.
	StatePath string
	LogLevel  string
}

func LoadClientConfig() ClientConfig {
	return ClientConfig{
		APIBaseURL: getEnv("BOARD_API_URL", constants.DefaultAPIBaseURL),
		StatePath:  getEnv("BOARD_STATE_FILE", defaultStatePath()),
		LogLevel:   getEnv("LOG_LEVEL", "warning"),
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return constants.ClientStateFile
	}
	return filepath.Join(dir, "boardctl", constants.ClientStateFile)
}
