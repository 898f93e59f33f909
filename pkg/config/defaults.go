package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "renta"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	// Flat per-booking platform charge, in currency units.
	DefaultServiceFee = "8.50"
	// Percent of base price accrued per full day past due while active.
	DefaultLateFeeRatePercent = "5"
	// Upper bound on bookings scanned per availability check. Checking up to
	// 30 overlapping bookings is sufficient in practice.
	DefaultMaxOverlapScan = 30

	DefaultLockTTL = 10 * time.Second

	DefaultKafkaEnabled       = false
	DefaultBookingEventsTopic = "booking-events"
	DefaultBookingEventsDLQ   = "booking-events-dlq"
)
