package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultHotelBaseURL        = "http://localhost:8081"
	DefaultHotelCallTimeout    = 3 * time.Second
	DefaultHotelMaxRetries     = 3
	DefaultHotelInitialBackoff = 300 * time.Millisecond
	DefaultHotelMaxBackoff     = 2 * time.Second

	DefaultHoldSweepInterval = 1 * time.Minute
	DefaultHoldStaleAfter    = 15 * time.Minute
	DefaultRoomLockTTL       = 10 * time.Second

	DefaultKafkaBrokers       = "localhost:9092"
	DefaultKafkaBookingsTopic = "bookings.lifecycle"

	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
