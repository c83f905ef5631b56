package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration, loaded from the environment.
type Config struct {
	// SQLite database file path.
	DBPath string `envconfig:"DB_PATH" default:"workflow.db"`
	// gRPC server listen address.
	GRPCAddress string `envconfig:"GRPC_ADDRESS" default:":50051"`
	// HTTP status-projection listen address.
	HTTPAddress string `envconfig:"HTTP_ADDRESS" default:":8080"`
	// JWT signing secret. Required in production (Load); defaulted in dev.
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
	// Kafka brokers for transition events. Empty disables publishing.
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:""`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order-workflow-events"`
	// Redis address for the order view cache. Empty disables caching.
	RedisAddr string `envconfig:"REDIS_ADDR" default:""`
	// Checklist items a driver must verify before pickup confirmation.
	// The set is configuration; completeness of the configured set is not.
	PickupChecklist []string `envconfig:"PICKUP_CHECKLIST" default:"order_number_match,items_present,packaging_intact,special_instructions_noted,temperature_ok"`
}

// Load loads configuration from the environment (and a .env file if present).
// It fails when JWT_SECRET is unset; use LoadWithDefaults in development.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set; required for production")
	}
	return cfg, nil
}

// LoadWithDefaults is like Load but uses a safe default for JWT_SECRET.
// WARNING: Only use in development! Use Load() in production.
func LoadWithDefaults() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-me"
	}
	return cfg, nil
}

func load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if len(cfg.PickupChecklist) == 0 {
		return nil, fmt.Errorf("PICKUP_CHECKLIST must name at least one item")
	}
	for _, item := range cfg.PickupChecklist {
		if strings.TrimSpace(item) == "" {
			return nil, fmt.Errorf("PICKUP_CHECKLIST contains an empty item")
		}
	}
	return &cfg, nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s, gRPC: %s, HTTP: %s, Kafka: %v, Redis: %s, JWT: *** (masked) ***}",
		c.DBPath, c.GRPCAddress, c.HTTPAddress, c.KafkaBrokers, c.RedisAddr)
}
