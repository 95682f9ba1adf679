package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures the process-level configuration.
type Server struct {
	Addr string
	// OwnerAddress seeds the identity's first management key at startup.
	OwnerAddress string
	// ActionThreshold is how many distinct ACTION-key approvals an execution
	// request needs when no management key approves it.
	ActionThreshold int
	JWTSigningKey   string
	// InvokerURL is the outbound gateway executions are dispatched to. Empty
	// means calls are logged instead of delivered.
	InvokerURL string

	// ClaimsBackend selects the claim store: memory, redis, or postgres.
	ClaimsBackend string
	Redis         RedisConfig
	PostgresDSN   string

	// KafkaBrokers enables the notification sink when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig carries connection tuning for the optional Redis backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("SELFID_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	threshold := 2
	if raw := os.Getenv("SELFID_ACTION_THRESHOLD"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 {
			threshold = n
		}
	}

	jwtSigningKey := os.Getenv("SELFID_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	backend := os.Getenv("SELFID_CLAIMS_BACKEND")
	if backend == "" {
		backend = "memory"
	}

	var brokers []string
	if raw := os.Getenv("SELFID_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:            addr,
		OwnerAddress:    os.Getenv("SELFID_OWNER_ADDRESS"),
		ActionThreshold: threshold,
		JWTSigningKey:   jwtSigningKey,
		InvokerURL:      os.Getenv("SELFID_INVOKER_URL"),
		ClaimsBackend:   backend,
		Redis: RedisConfig{
			URL:          os.Getenv("SELFID_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		PostgresDSN:  os.Getenv("SELFID_POSTGRES_DSN"),
		KafkaBrokers: brokers,
		KafkaTopic:   os.Getenv("SELFID_KAFKA_TOPIC"),
	}
}
