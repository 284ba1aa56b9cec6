package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Port     string
	LogLevel string
	AMQPURL  string

	DB        DBConfig
	Discovery DiscoveryConfig
	Dispatch  DispatchConfig
	Providers ProviderConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled is false when no database host is configured; the server then
// falls back to the in-memory store.
func (c DBConfig) Enabled() bool { return c.Host != "" }

type DiscoveryConfig struct {
	QueryDelay time.Duration
	ChunkPause time.Duration
	MaxBatch   int
}

type DispatchConfig struct {
	Workers        int
	RequestTimeout time.Duration
}

// ProviderConfig holds credentials for every external provider. An empty
// credential means the provider is unavailable, not misconfigured.
type ProviderConfig struct {
	SerperAPIKey      string
	BraveAPIKey       string
	DuckDuckGoEnabled bool

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string

	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
}

func Load(logger *zap.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file found, relying on OS environment variables")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		AMQPURL:  getEnv("AMQP_URL", ""),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "outreach"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Discovery: DiscoveryConfig{
			QueryDelay: getDuration("DISCOVERY_QUERY_DELAY", 500*time.Millisecond),
			ChunkPause: getDuration("DISCOVERY_CHUNK_PAUSE", time.Second),
			MaxBatch:   getInt("DISCOVERY_MAX_BATCH", 100),
		},
		Dispatch: DispatchConfig{
			Workers:        getInt("DISPATCH_WORKERS", 10),
			RequestTimeout: getDuration("PROVIDER_TIMEOUT", 15*time.Second),
		},
		Providers: ProviderConfig{
			SerperAPIKey:          getEnv("SERPER_API_KEY", ""),
			BraveAPIKey:           getEnv("BRAVE_API_KEY", ""),
			DuckDuckGoEnabled:     getBool("DUCKDUCKGO_ENABLED", false),
			TwilioAccountSID:      getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:       getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFromNumber:      getEnv("TWILIO_FROM_NUMBER", ""),
			WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
			WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			SendGridAPIKey:        getEnv("SENDGRID_API_KEY", ""),
			SendGridFromEmail:     getEnv("SENDGRID_FROM_EMAIL", ""),
			SendGridFromName:      getEnv("SENDGRID_FROM_NAME", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
