package config

import (
	"os"

	"github.com/rs/zerolog"
)

// DefaultEncryptionKey is the fallback passphrase used when ENCRYPTION_KEY is
// unset. Anything sealed with it is only obfuscated, not protected; Load
// warns loudly but keeps the original behavior of degrading instead of
// refusing to start.
const DefaultEncryptionKey = "default-key-change-in-production"

// Config carries everything the server reads from the environment. Absence
// of the remote API or the pin-store credentials degrades the service to
// cache/demo-data mode rather than failing startup.
type Config struct {
	Port        string
	DatabaseURL string

	// Upstream record API. Empty means every remote step is a miss.
	RemoteAPIURL string

	// Pinata-style pinned-content store.
	PinataAPIKey  string
	PinataSecret  string
	PinataBaseURL string
	PinataGateway string

	// MinIO-backed pin store, used when Pinata keys are absent.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	EncryptionKey string
	JWTSecret     string
	CachePath     string
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration from the environment, applying defaults.
func Load(log zerolog.Logger) *Config {
	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RemoteAPIURL:   os.Getenv("REMOTE_API_URL"),
		PinataAPIKey:   os.Getenv("PINATA_API_KEY"),
		PinataSecret:   os.Getenv("PINATA_SECRET"),
		PinataBaseURL:  getenv("PINATA_BASE_URL", "https://api.pinata.cloud"),
		PinataGateway:  getenv("PINATA_GATEWAY", "https://gateway.pinata.cloud"),
		MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getenv("MINIO_BUCKET", "mediscan"),
		MinioUseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		EncryptionKey:  os.Getenv("ENCRYPTION_KEY"),
		JWTSecret:      getenv("JWT_SECRET", "dev-secret"),
		CachePath:      getenv("CACHE_PATH", "data/cache"),
	}

	if cfg.EncryptionKey == "" {
		log.Warn().Msg("ENCRYPTION_KEY not set, using default key (not secure for production)")
		cfg.EncryptionKey = DefaultEncryptionKey
	}
	if cfg.PinataAPIKey == "" && cfg.PinataSecret == "" && cfg.MinioEndpoint == "" {
		log.Warn().Msg("no pin store configured, sensitive uploads will fail and cloud reads will miss")
	}

	return cfg
}

// HasPinata reports whether Pinata credentials are present.
func (c *Config) HasPinata() bool { return c.PinataAPIKey != "" && c.PinataSecret != "" }

// HasMinio reports whether a MinIO endpoint is configured.
func (c *Config) HasMinio() bool { return c.MinioEndpoint != "" }
