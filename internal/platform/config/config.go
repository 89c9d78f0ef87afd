package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/escrow_ledger_app/internal/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	StorageDriver string
	JWTSecret     string

	// Audit trail
	AuditSigningSecret string
	AuditLocation      *time.Location

	// Currencies
	DefaultCurrency     string
	SupportedCurrencies []string

	// Escrow engine
	DisputeWindow       time.Duration
	AutoReleaseAfter    time.Duration
	DisputeResolvers    []string
	EscrowSweepInterval time.Duration
	EscrowSweepBatch    int

	// HTTP
	RateLimit          string
	CORSAllowedOrigins []string

	// Optional infrastructure
	RedisURL           string
	KafkaBrokers       []string
	KafkaSecurityTopic string
	PosthogAPIKey      string
	PosthogEndpoint    string

	// Security monitor
	MonitorBufferSize int
	VelocityThreshold int
	VelocityWindow    time.Duration
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("STORAGE_DRIVER", StorageDriverPostgres)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("AUDIT_SIGNING_SECRET", "")
	viper.SetDefault("AUDIT_TIMEZONE", "UTC")
	viper.SetDefault("DEFAULT_CURRENCY", "USD")
	viper.SetDefault("SUPPORTED_CURRENCIES", "USD")
	viper.SetDefault("DISPUTE_WINDOW", "720h")
	viper.SetDefault("AUTO_RELEASE_AFTER", "336h")
	viper.SetDefault("DISPUTE_RESOLVERS", "")
	viper.SetDefault("ESCROW_SWEEP_INTERVAL", "1m")
	viper.SetDefault("ESCROW_SWEEP_BATCH", 100)
	viper.SetDefault("RATE_LIMIT", "300-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_SECURITY_TOPIC", "escrow-ledger.security")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://eu.i.posthog.com")
	viper.SetDefault("MONITOR_BUFFER_SIZE", 1024)
	viper.SetDefault("VELOCITY_THRESHOLD", 20)
	viper.SetDefault("VELOCITY_WINDOW", "1m")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.JWTSecret = viper.GetString("JWT_SECRET")

	cfg.StorageDriver = strings.ToLower(viper.GetString("STORAGE_DRIVER"))
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case StorageDriverMemory:
		log.Println("Warning: STORAGE_DRIVER=memory, data will not survive a restart.")
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	cfg.AuditSigningSecret = viper.GetString("AUDIT_SIGNING_SECRET")
	if cfg.AuditSigningSecret == "" {
		if cfg.IsProduction {
			return nil, fmt.Errorf("AUDIT_SIGNING_SECRET must be set in production")
		}
		secret, err := utils.GenerateSecureRandomString(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate audit signing secret: %w", err)
		}
		cfg.AuditSigningSecret = secret
		log.Println("Warning: AUDIT_SIGNING_SECRET not set. Using a random secret, signatures will not verify after a restart.")
	}

	tz := viper.GetString("AUDIT_TIMEZONE")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("Warning: Invalid value for AUDIT_TIMEZONE ('%s'). Defaulting to UTC.\n", tz)
		loc = time.UTC
	}
	cfg.AuditLocation = loc

	cfg.DefaultCurrency = strings.ToUpper(viper.GetString("DEFAULT_CURRENCY"))
	cfg.SupportedCurrencies = splitList(strings.ToUpper(viper.GetString("SUPPORTED_CURRENCIES")))
	if cfg.DefaultCurrency != "" && !contains(cfg.SupportedCurrencies, cfg.DefaultCurrency) {
		cfg.SupportedCurrencies = append(cfg.SupportedCurrencies, cfg.DefaultCurrency)
	}

	cfg.DisputeWindow = durationOrDefault("DISPUTE_WINDOW", 30*24*time.Hour)
	cfg.AutoReleaseAfter = durationOrDefault("AUTO_RELEASE_AFTER", 14*24*time.Hour)
	cfg.EscrowSweepInterval = durationOrDefault("ESCROW_SWEEP_INTERVAL", time.Minute)
	cfg.EscrowSweepBatch = viper.GetInt("ESCROW_SWEEP_BATCH")
	if cfg.EscrowSweepBatch <= 0 {
		cfg.EscrowSweepBatch = 100
	}
	cfg.DisputeResolvers = splitList(viper.GetString("DISPUTE_RESOLVERS"))
	if len(cfg.DisputeResolvers) == 0 {
		log.Println("Warning: DISPUTE_RESOLVERS not set. Disputes will be left unassigned.")
	}

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))

	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.KafkaBrokers = splitList(viper.GetString("KAFKA_BROKERS"))
	cfg.KafkaSecurityTopic = viper.GetString("KAFKA_SECURITY_TOPIC")
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PosthogEndpoint = viper.GetString("POSTHOG_ENDPOINT")

	cfg.MonitorBufferSize = viper.GetInt("MONITOR_BUFFER_SIZE")
	if cfg.MonitorBufferSize <= 0 {
		cfg.MonitorBufferSize = 1024
	}
	cfg.VelocityThreshold = viper.GetInt("VELOCITY_THRESHOLD")
	cfg.VelocityWindow = durationOrDefault("VELOCITY_WINDOW", time.Minute)

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

// splitList parses a comma separated list, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
