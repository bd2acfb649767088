package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/queue-tracker-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	Port         string
	Env          string

	// TeamAccessKey is the shared secret required to join. Empty leaves the session open.
	TeamAccessKey  string
	FrontendURL    string
	AllowedOrigins []string

	HTTPRateLimitWindow   time.Duration
	HTTPRateLimitMax      int
	SocketRateLimitWindow time.Duration
	SocketRateLimitMax    int
	MaxMessageSize        int64

	LegacyDataFile         string
	EnforceLogDownloadAuth bool
	JWTSecret              string
}

// New sets up all config related services
func New() (*Config, error) {
	// a missing .env is fine, the environment may be set by the platform
	_ = godotenv.Load()

	env := getEnv("ENV", "local")
	logger, err := setLogger(env)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	_ = zap.ReplaceGlobals(logger)

	conf := &Config{
		URL:            getEnv("DB_URI", getEnv("MONGODB_URI", "mongodb://localhost:27017")),
		DatabaseName:   getEnv("DB_NAME", "queue_tracker"),
		Port:           getEnv("PORT", "3001"),
		Env:            env,
		TeamAccessKey:  strings.TrimSpace(os.Getenv("TEAM_ACCESS_KEY")),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LegacyDataFile: getEnv("LEGACY_DATA_FILE", "data.json"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_jwt_secret"),
		MaxMessageSize: 1 << 20,
	}

	windowMinutes, err := getInt("HTTP_RATE_LIMIT_WINDOW", 15)
	if err != nil {
		return nil, err
	}
	conf.HTTPRateLimitWindow = time.Duration(windowMinutes) * time.Minute

	if conf.HTTPRateLimitMax, err = getInt("HTTP_RATE_LIMIT_MAX", 100); err != nil {
		return nil, err
	}

	windowMS, err := getInt("SOCKET_RATE_LIMIT_WINDOW_MS", 1000)
	if err != nil {
		return nil, err
	}
	conf.SocketRateLimitWindow = time.Duration(windowMS) * time.Millisecond

	if conf.SocketRateLimitMax, err = getInt("SOCKET_RATE_LIMIT_MAX", 20); err != nil {
		return nil, err
	}

	if v := os.Getenv("ENFORCE_LOG_DOWNLOAD_AUTH"); v != "" {
		if conf.EnforceLogDownloadAuth, err = strconv.ParseBool(v); err != nil {
			return nil, fmt.Errorf("invalid ENFORCE_LOG_DOWNLOAD_AUTH: %w", err)
		}
	}

	if conf.TeamAccessKey == "" {
		zap.S().Warn("TEAM_ACCESS_KEY is not set, anyone can join the session")
	}

	return conf, nil
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)

	resp := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		resp.Response.Error = err.Error()
	}
	b, _ := json.Marshal(resp)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	_, _ = w.Write(b)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
