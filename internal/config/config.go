package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// EncryptionKey is a 64-char hex string (32 bytes). When empty the vault
	// derives a key from SessionSecret instead.
	EncryptionKey string
	SessionSecret string

	// ServiceToken authenticates verification nodes calling the metrics endpoint.
	ServiceToken string

	// MockMetrics short-circuits the metrics endpoint with a canned payload.
	MockMetrics bool

	YouTubeClientID     string
	YouTubeClientSecret string
	TikTokClientKey     string
	TikTokClientSecret  string

	Chain ChainConfig

	Verifier VerifierConfig
}

// ChainConfig holds settlement-chain connectivity.
type ChainConfig struct {
	RPCURL          string
	ChainID         int64
	ContractAddress string
	GasLimit        uint64

	// NodePrivateKey is the node signing key, hex-encoded secp256k1.
	NodePrivateKey string

	PollInterval  time.Duration
	FinalityDepth uint64

	// RunTimeout bounds one verification run end to end, including the
	// wait for the report transaction to mine. Expiry is a hard failure
	// for that event; the poller moves on to the next one.
	RunTimeout time.Duration
}

// VerifierConfig holds the verification workflow settings. These are read once
// at workflow construction and threaded in explicitly.
type VerifierConfig struct {
	Enabled bool

	// BackendURL is the metrics API base URL the workflow fetches from.
	BackendURL string

	// ServiceToken is the bearer credential presented to the metrics endpoint.
	ServiceToken string

	// ConsensusWindow is the agreement window for the deterministic fetch.
	ConsensusWindow time.Duration
	FetchTimeout    time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	serviceToken := strings.TrimSpace(getenv("SERVICE_TOKEN", ""))

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "flowback"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":3001"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "flowback"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     int(getenvInt64("DATABASE_MAX_IDLE_CONN", 5)),
		DBMaxOpenConn:     int(getenvInt64("DATABASE_MAX_OPEN_CONN", 20)),
		DBConnMaxLifetime: int(getenvInt64("DATABASE_CONN_MAX_LIFETIME", 300)),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       int(getenvInt64("REDIS_DB", 0)),

		EncryptionKey: strings.TrimSpace(getenv("ENCRYPTION_KEY", "")),
		SessionSecret: getenv("SESSION_SECRET", ""),
		ServiceToken:  serviceToken,
		MockMetrics:   getenvBool("USE_MOCK_METRICS", false),

		YouTubeClientID:     getenv("YOUTUBE_CLIENT_ID", ""),
		YouTubeClientSecret: getenv("YOUTUBE_CLIENT_SECRET", ""),
		TikTokClientKey:     getenv("TIKTOK_CLIENT_KEY", ""),
		TikTokClientSecret:  getenv("TIKTOK_CLIENT_SECRET", ""),

		Chain: ChainConfig{
			RPCURL:          getenv("CHAIN_RPC_URL", ""),
			ChainID:         getenvInt64("CHAIN_ID", 84532),
			ContractAddress: strings.TrimSpace(getenv("CONTRACT_ADDRESS", "")),
			GasLimit:        uint64(getenvInt64("CHAIN_GAS_LIMIT", 750_000)),
			NodePrivateKey:  strings.TrimSpace(getenv("NODE_PRIVATE_KEY", "")),
			PollInterval:    getenvDuration("CHAIN_POLL_INTERVAL", 15*time.Second),
			FinalityDepth:   uint64(getenvInt64("CHAIN_FINALITY_DEPTH", 0)),
			RunTimeout:      getenvDuration("CHAIN_RUN_TIMEOUT", 2*time.Minute),
		},

		Verifier: VerifierConfig{
			Enabled:         getenvBool("VERIFIER_ENABLED", false),
			BackendURL:      strings.TrimRight(getenv("BACKEND_URL", "http://localhost:3001"), "/"),
			ServiceToken:    serviceToken,
			ConsensusWindow: getenvDuration("CONSENSUS_WINDOW", 60*time.Second),
			FetchTimeout:    getenvDuration("CONSENSUS_FETCH_TIMEOUT", 30*time.Second),
		},
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
