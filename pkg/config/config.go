package config

import (
	"log"
	"os"
	"strings"

	"github.com/renningen-dev/bobbervox/pkg/logger"
	"github.com/renningen-dev/bobbervox/pkg/util"
)

type Config struct {
	DBDriver  string `env:"DB_DRIVER"`
	DSN       string `env:"DSN"`
	Addr      string `env:"ADDR"`
	Mode      string `env:"MODE"`
	APIPrefix string `env:"API_PREFIX"`

	Log logger.LogConfig

	// On-disk roots. Every path persisted in the database is relative to
	// ProjectsDir (or VoicesDir for custom voices) and resolved at use.
	ProjectsDir string `env:"PROJECTS_DIR"`
	VoicesDir   string `env:"VOICES_DIR"`

	MaxUploadSizeMB        int64    `env:"MAX_UPLOAD_SIZE_MB"`
	AllowedVideoExtensions []string `env:"ALLOWED_VIDEO_EXTENSIONS"`

	// Empty means resolve from PATH.
	FFmpegPath  string `env:"FFMPEG_PATH"`
	FFprobePath string `env:"FFPROBE_PATH"`

	// Server-side fallback key; per-user keys in settings take precedence.
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	ChatterboxBaseURL string `env:"CHATTERBOX_BASE_URL"`

	// Bearer tokens are verified against this endpoint. Empty disables auth
	// and requests run as the test user.
	AuthVerifyURL string `env:"AUTH_VERIFY_URL"`

	CacheType     string `env:"CACHE_TYPE"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	SearchEnabled bool   `env:"SEARCH_ENABLED"`
	SearchPath    string `env:"SEARCH_PATH"`

	BackupEnabled  bool   `env:"BACKUP_ENABLED"`
	BackupPath     string `env:"BACKUP_PATH"`
	BackupSchedule string `env:"BACKUP_SCHEDULE"`

	// Optional offsite copy of backup artifacts.
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL"`

	RateLimit string `env:"RATE_LIMIT"` // e.g. "100-M", empty disables
}

var GlobalConfig *Config

func Load() error {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	GlobalConfig = &Config{
		DBDriver:  util.GetEnv("DB_DRIVER"),
		DSN:       util.GetEnvDefault("DSN", "bobbervox.db"),
		Addr:      util.GetEnvDefault("ADDR", ":8080"),
		Mode:      util.GetEnv("MODE"),
		APIPrefix: util.GetEnvDefault("API_PREFIX", "/api"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		ProjectsDir:            util.GetEnvDefault("PROJECTS_DIR", "./projects"),
		VoicesDir:              util.GetEnvDefault("VOICES_DIR", "./voices"),
		MaxUploadSizeMB:        util.GetIntEnvDefault("MAX_UPLOAD_SIZE_MB", 500),
		AllowedVideoExtensions: splitList(util.GetEnvDefault("ALLOWED_VIDEO_EXTENSIONS", ".mp4,.mov,.avi,.mkv,.webm")),
		FFmpegPath:             util.GetEnv("FFMPEG_PATH"),
		FFprobePath:            util.GetEnv("FFPROBE_PATH"),
		OpenAIAPIKey:           util.GetEnv("OPENAI_API_KEY"),
		ChatterboxBaseURL:      util.GetEnvDefault("CHATTERBOX_BASE_URL", "http://localhost:8004"),
		AuthVerifyURL:          util.GetEnv("AUTH_VERIFY_URL"),
		CacheType:              util.GetEnvDefault("CACHE_TYPE", "local"),
		RedisAddr:              util.GetEnv("REDIS_ADDR"),
		RedisPassword:          util.GetEnv("REDIS_PASSWORD"),
		RedisDB:                int(util.GetIntEnv("REDIS_DB")),
		SearchEnabled:          util.GetBoolEnv("SEARCH_ENABLED"),
		SearchPath:             util.GetEnvDefault("SEARCH_PATH", "./search.bleve"),
		BackupEnabled:          util.GetBoolEnv("BACKUP_ENABLED"),
		BackupPath:             util.GetEnvDefault("BACKUP_PATH", "./backups"),
		BackupSchedule:         util.GetEnvDefault("BACKUP_SCHEDULE", "0 3 * * *"),
		MinioEndpoint:          util.GetEnv("MINIO_ENDPOINT"),
		MinioAccessKey:         util.GetEnv("MINIO_ACCESS_KEY"),
		MinioSecretKey:         util.GetEnv("MINIO_SECRET_KEY"),
		MinioBucket:            util.GetEnv("MINIO_BUCKET"),
		MinioUseSSL:            util.GetBoolEnv("MINIO_USE_SSL"),
		RateLimit:              util.GetEnv("RATE_LIMIT"),
	}
	return nil
}

func (c *Config) MaxUploadSizeBytes() int64 {
	return c.MaxUploadSizeMB * 1024 * 1024
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
