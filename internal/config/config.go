package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"worklogd/internal/jira"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Jira jira.Config

	ListenAddr  string
	OpenBrowser bool

	DataPath  string
	LogDir    string
	CachePath string
	CacheTTL  time.Duration

	ExcelPath  string
	ExcelSheet string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// 1. Try to load from the executable's directory (the packaged desktop
	// app ships its .env next to the binary)
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}

	// 2. Fallback to current working directory (useful for development/go run)
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	// 3. Resolve data paths
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", logDir).Msg("Failed to create log directory")
	}

	timeoutSecs, _ := strconv.Atoi(getEnv("JIRA_TIMEOUT_SECONDS", "30"))
	maxResults, _ := strconv.Atoi(getEnv("JIRA_MAX_RESULTS", "500"))
	ttlMinutes, _ := strconv.Atoi(getEnv("CACHE_TTL_MINUTES", "10"))

	cfg := &AppConfig{
		Jira: jira.Config{
			BaseURL:    getEnv("JIRA_URL", ""),
			Token:      getEnv("JIRA_TOKEN", ""),
			MaxResults: maxResults,
			Timeout:    time.Duration(timeoutSecs) * time.Second,
		},
		ListenAddr:  getEnv("LISTEN_ADDR", "127.0.0.1:8000"),
		OpenBrowser: getEnvBool("OPEN_BROWSER", false),
		DataPath:    dataPath,
		LogDir:      logDir,
		CachePath:   filepath.Join(dataPath, "data", "tasks_cache.db"),
		CacheTTL:    time.Duration(ttlMinutes) * time.Minute,
		ExcelPath:   getEnv("EXCEL_PATH", ""),
		ExcelSheet:  getEnv("EXCEL_SHEET", "Daily"),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
