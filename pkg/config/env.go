package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvHotelBaseURL        = "HOTEL_BASE_URL"
	EnvHotelCallTimeout    = "HOTEL_CALL_TIMEOUT"
	EnvHotelMaxRetries     = "HOTEL_MAX_RETRIES"
	EnvHotelInitialBackoff = "HOTEL_INITIAL_BACKOFF"
	EnvHotelMaxBackoff     = "HOTEL_MAX_BACKOFF"

	EnvHoldSweepInterval = "HOLD_SWEEP_INTERVAL"
	EnvHoldStaleAfter    = "HOLD_STALE_AFTER"
	EnvRoomLockTTL       = "ROOM_LOCK_TTL"

	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaBookingsTopic = "KAFKA_BOOKINGS_TOPIC"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
