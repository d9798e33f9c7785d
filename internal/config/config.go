package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Booking  BookingConfig
	Upload   UploadConfig
}

type ServerConfig struct {
	Port         string
	CORSOrigin   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type AuthConfig struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CookieName  string
	QRSecretKey string
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Addr    string
	Enabled bool
}

type KafkaConfig struct {
	Brokers  []string
	Topics   TopicConfig
	Enabled  bool
	MockMode bool
}

type TopicConfig struct {
	TicketBooked    string
	TicketCancelled string
	TicketUsed      string
}

type BookingConfig struct {
	LockTTL      time.Duration
	LockAttempts int
}

type UploadConfig struct {
	Dir         string
	MaxFileSize int64
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":4000"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:5173"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", "dev_jwt_secret"),
			TokenTTL:    time.Duration(getEnvInt("TOKEN_TTL_HOURS", 168)) * time.Hour,
			CookieName:  getEnv("AUTH_COOKIE_NAME", "token"),
			QRSecretKey: getEnv("QR_SECRET_KEY", "dev_qr_secret"),
		},
		Database: DatabaseConfig{
			DSN:          getEnv("SQLITE_DSN", "file:eventhub.db?cache=shared&_fk=1"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 1),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 1),
		},
		Redis: RedisConfig{
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			Enabled: getEnvBool("REDIS_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Enabled:  getEnvBool("KAFKA_ENABLED", false),
			MockMode: getEnvBool("KAFKA_MOCK_MODE", false),
			Topics: TopicConfig{
				TicketBooked:    getEnv("KAFKA_TOPIC_BOOKED", "eventhub.tickets.booked"),
				TicketCancelled: getEnv("KAFKA_TOPIC_CANCELLED", "eventhub.tickets.cancelled"),
				TicketUsed:      getEnv("KAFKA_TOPIC_USED", "eventhub.tickets.used"),
			},
		},
		Booking: BookingConfig{
			LockTTL:      time.Duration(getEnvInt("BOOKING_LOCK_TTL_SECONDS", 10)) * time.Second,
			LockAttempts: getEnvInt("BOOKING_LOCK_ATTEMPTS", 3),
		},
		Upload: UploadConfig{
			Dir:         getEnv("UPLOAD_DIR", "uploads"),
			MaxFileSize: int64(getEnvInt("UPLOAD_MAX_MB", 5)) << 20,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
