package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"roombook/pkg/client"
	"roombook/pkg/logger"
	"roombook/pkg/retry"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	HotelBaseURL     string
	HotelCallTimeout time.Duration
	HotelRetry       retry.Policy

	HoldSweepInterval time.Duration
	HoldStaleAfter    time.Duration
	RoomLockTTL       time.Duration

	KafkaBrokers       []string
	KafkaBookingsTopic string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		HotelBaseURL:     getEnvStr(EnvHotelBaseURL, DefaultHotelBaseURL),
		HotelCallTimeout: getEnvDuration(EnvHotelCallTimeout, DefaultHotelCallTimeout),
		HotelRetry: retry.Policy{
			MaxRetries:     getEnvNum(EnvHotelMaxRetries, DefaultHotelMaxRetries),
			InitialBackoff: getEnvDuration(EnvHotelInitialBackoff, DefaultHotelInitialBackoff),
			MaxBackoff:     getEnvDuration(EnvHotelMaxBackoff, DefaultHotelMaxBackoff),
		},

		HoldSweepInterval: getEnvDuration(EnvHoldSweepInterval, DefaultHoldSweepInterval),
		HoldStaleAfter:    getEnvDuration(EnvHoldStaleAfter, DefaultHoldStaleAfter),
		RoomLockTTL:       getEnvDuration(EnvRoomLockTTL, DefaultRoomLockTTL),

		KafkaBrokers:       splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),
		KafkaBookingsTopic: getEnvStr(EnvKafkaBookingsTopic, DefaultKafkaBookingsTopic),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetHotel() {
	cfg.Client.SetHotel(cfg.HotelBaseURL, cfg.HotelCallTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if !regexp.MustCompile(`^https?://`).MatchString(cfg.HotelBaseURL) {
		errors = append(errors, fmt.Sprintf("HotelBaseURL must start with http:// or https://, got: %s", cfg.HotelBaseURL))
	}
	if cfg.HotelCallTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("HotelCallTimeout must be positive, got: %s", cfg.HotelCallTimeout))
	}
	if cfg.HotelRetry.MaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("HotelMaxRetries cannot be negative, got: %d", cfg.HotelRetry.MaxRetries))
	}
	if cfg.HotelRetry.InitialBackoff <= 0 {
		errors = append(errors, fmt.Sprintf("HotelInitialBackoff must be positive, got: %s", cfg.HotelRetry.InitialBackoff))
	}
	if cfg.HotelRetry.MaxBackoff < cfg.HotelRetry.InitialBackoff {
		errors = append(errors, fmt.Sprintf("HotelMaxBackoff (%s) must be >= HotelInitialBackoff (%s)", cfg.HotelRetry.MaxBackoff, cfg.HotelRetry.InitialBackoff))
	}

	if cfg.HoldSweepInterval <= 0 {
		errors = append(errors, fmt.Sprintf("HoldSweepInterval must be positive, got: %s", cfg.HoldSweepInterval))
	}
	if cfg.HoldStaleAfter <= 0 {
		errors = append(errors, fmt.Sprintf("HoldStaleAfter must be positive, got: %s", cfg.HoldStaleAfter))
	}
	if cfg.RoomLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("RoomLockTTL must be positive, got: %s", cfg.RoomLockTTL))
	}

	if len(cfg.KafkaBrokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	if cfg.KafkaBookingsTopic == "" {
		errors = append(errors, "KafkaBookingsTopic cannot be empty")
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"hotel_base_url", cfg.HotelBaseURL,
		"hotel_call_timeout", cfg.HotelCallTimeout,
		"hotel_max_retries", cfg.HotelRetry.MaxRetries,
		"hotel_initial_backoff", cfg.HotelRetry.InitialBackoff,
		"hotel_max_backoff", cfg.HotelRetry.MaxBackoff,
		"hold_sweep_interval", cfg.HoldSweepInterval,
		"hold_stale_after", cfg.HoldStaleAfter,
		"room_lock_ttl", cfg.RoomLockTTL,
		"kafka_brokers", strings.Join(cfg.KafkaBrokers, ","),
		"kafka_bookings_topic", cfg.KafkaBookingsTopic,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}
