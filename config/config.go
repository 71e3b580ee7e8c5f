package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config stores the application configuration, loaded from the environment.
type Config struct {
	ServerAddr  string
	FrontendURL string // allowed CORS origin

	MongoURI        string
	MongoDatabase   string
	SoundCollection string

	// Redis configuration (analytics result cache)
	RedisHost            string
	RedisPort            string
	RedisPassword        string
	RedisDB              int
	AnalyticsCacheTTLSec int

	// MinIO configuration (audio object storage)
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool
	MinioBucket    string
	AudioBaseURL   string // public base URL under which audio objects are served

	// Upload constraints; enforced at the HTTP boundary only.
	AllowedAudioExtensions []string
	MaxUploadMB            int64

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	extensions := strings.Split(getEnv("ALLOWED_AUDIO_EXTENSIONS", "mp3,wav,ogg,m4a"), ",")
	for i, ext := range extensions {
		extensions[i] = strings.ToLower(strings.TrimSpace(ext))
	}

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		MongoURI:        getEnv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		MongoDatabase:   getEnv("DATABASE_NAME", "soundscape"),
		SoundCollection: getEnv("SOUND_COLLECTION", "sounds"),

		RedisHost:            getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:            getEnv("REDIS_PORT", "6379"),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		AnalyticsCacheTTLSec: getEnvInt("ANALYTICS_CACHE_TTL", 60),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioBucket:    getEnv("MINIO_BUCKET", "soundscape-audio"),
		AudioBaseURL:   getEnv("AUDIO_BASE_URL", "/audio"),

		AllowedAudioExtensions: extensions,
		MaxUploadMB:            int64(getEnvInt("MAX_UPLOAD_MB", 50)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// ExtensionAllowed reports whether the given file extension (without the dot)
// is in the configured allow-list.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, allowed := range c.AllowedAudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
