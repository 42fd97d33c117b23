package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr    string
	StoreBackend  string
	DBPath        string
	BadgerPath    string
	PhotoPath     string
	VisionBackend string
	OllamaHost    string
	OllamaModel   string
	ClaudeAPIKey  string
	ClaudeModel   string
	LogLevel      string
	LogFormat     string
	LogFile       string
}

// Load reads configuration from the environment. Values in .env and
// .env.local fill in variables that are not already set.
func Load() *Config {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	return &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		StoreBackend:  getEnv("STORE_BACKEND", "sqlite"),
		DBPath:        getEnv("DB_PATH", "data/shelfmap.db"),
		BadgerPath:    getEnv("BADGER_PATH", "data/badger"),
		PhotoPath:     getEnv("PHOTO_LOCAL_PATH", "data/storage_images"),
		VisionBackend: getEnv("VISION_BACKEND", "none"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:  getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:   getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		LogFile:       getEnv("LOG_FILE", ""),
	}
}

// Validate rejects unknown backend names, incomplete vision settings and a
// photo directory that would swallow spooled uploads.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite", "badger":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.VisionBackend {
	case "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
	default:
		return fmt.Errorf("unknown VISION_BACKEND %q", c.VisionBackend)
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat)
	}

	// Uploads are spooled under the temp dir and must never look like
	// already-managed photos.
	photoDir, err := filepath.Abs(c.PhotoPath)
	if err != nil {
		return fmt.Errorf("invalid PHOTO_LOCAL_PATH %q: %w", c.PhotoPath, err)
	}
	if tmp, err := filepath.Abs(os.TempDir()); err == nil && containsDir(photoDir, tmp) {
		return fmt.Errorf("PHOTO_LOCAL_PATH %q must not contain the temp directory %q", c.PhotoPath, tmp)
	}
	return nil
}

// containsDir reports whether sub is dir or lies beneath it.
func containsDir(dir, sub string) bool {
	rel, err := filepath.Rel(dir, sub)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
