// Package config reads process configuration from the environment, plus an
// optional YAML rules file overriding the plausibility thresholds.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"lineage/internal/genealogy/plausibility"
	listutil "lineage/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
}

type DatabaseConfig struct {
	// URL selects postgres storage; empty runs on in-memory stores.
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

type RedisConfig struct {
	// URL enables the person read-through cache; empty disables it.
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type KafkaConfig struct {
	// Brokers enables publishing change events to Kafka; empty delivers them
	// to the feed in process.
	Brokers       []string
	Topic         string
	ConsumerGroup string
	Partitions    int32
	Replication   int16
}

type ChangefeedConfig struct {
	RelayInterval time.Duration
	BatchSize     int
}

type LogConfig struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server     Server
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Changefeed ChangefeedConfig
	Log        LogConfig
	RulesFile  string
	Thresholds plausibility.Thresholds
}

// RulesFile is the YAML document at LINEAGE_RULES_FILE.
//
//	plausibility:
//	  max_lifespan_years: 120
//	  min_parent_age: 12
type RulesFile struct {
	Plausibility plausibility.Thresholds `yaml:"plausibility"`
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: Server{
			Addr:           getenv("LINEAGE_ADDR", ":8080"),
			RequestTimeout: durationEnv("LINEAGE_REQUEST_TIMEOUT", 30*time.Second),
			// Use a default for development - should be overridden in production
			JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			JWTIssuer:     getenv("JWT_ISSUER", "lineage"),
			JWTAudience:   getenv("JWT_AUDIENCE", "lineage-api"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intEnv("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    intEnv("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationEnv("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
			TxTimeout:       durationEnv("TX_TIMEOUT", 5*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: intEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     durationEnv("PERSON_CACHE_TTL", 10*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers:       listEnv("KAFKA_BROKERS"),
			Topic:         getenv("KAFKA_TOPIC", "lineage.changes"),
			ConsumerGroup: getenv("KAFKA_CONSUMER_GROUP", "lineage-feed"),
			Partitions:    int32(intEnv("KAFKA_PARTITIONS", 3)),
			Replication:   int16(intEnv("KAFKA_REPLICATION", 1)),
		},
		Changefeed: ChangefeedConfig{
			RelayInterval: durationEnv("CHANGEFEED_RELAY_INTERVAL", time.Second),
			BatchSize:     intEnv("CHANGEFEED_BATCH_SIZE", 100),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "info"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		RulesFile:  os.Getenv("LINEAGE_RULES_FILE"),
		Thresholds: plausibility.DefaultThresholds(),
	}

	if cfg.RulesFile != "" {
		t, err := LoadRules(cfg.RulesFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Thresholds = t
	}
	return cfg, cfg.Validate()
}

// LoadRules reads plausibility thresholds from a YAML file. Keys left out
// keep their defaults.
func LoadRules(path string) (plausibility.Thresholds, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return plausibility.Thresholds{}, fmt.Errorf("reading rules file: %w", err)
	}
	doc := RulesFile{Plausibility: plausibility.DefaultThresholds()}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return plausibility.Thresholds{}, fmt.Errorf("parsing rules file: %w", err)
	}
	return doc.Plausibility, nil
}

// Validate rejects combinations the server cannot start with.
func (c Config) Validate() error {
	t := c.Thresholds
	if t.MinParentAge < 0 || t.MaxParentAge < 0 || t.MaxLifespanYears < 0 || t.MinMarriageAge < 0 {
		return fmt.Errorf("plausibility thresholds must not be negative")
	}
	if t.MinParentAge > 0 && t.MaxParentAge > 0 && t.MinParentAge >= t.MaxParentAge {
		return fmt.Errorf("min_parent_age must be below max_parent_age")
	}
	if c.Server.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY must not be empty")
	}
	if c.Changefeed.BatchSize <= 0 {
		return fmt.Errorf("CHANGEFEED_BATCH_SIZE must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func listEnv(key string) []string {
	return listutil.SplitList(os.Getenv(key))
}
