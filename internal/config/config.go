package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// App — конфигурация сервиса, собирается из переменных окружения.
type App struct {
	// DB
	DBHost            string `envconfig:"DB_HOST" default:"postgres"`
	DBPort            int    `envconfig:"DB_PORT" default:"5432"`
	DBUser            string `envconfig:"DB_USER" default:"booking"`
	DBPassword        string `envconfig:"DB_PASSWORD" default:"booking"`
	DBName            string `envconfig:"DB_NAME" default:"booking_db"`
	DBSSLMode         string `envconfig:"DB_SSLMODE" default:"disable"`
	DBTimeZone        string `envconfig:"DB_TIMEZONE" default:"UTC"`
	DBMaxOpenConns    int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int    `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifeTime int    `envconfig:"DB_CONN_MAX_LIFETIME_MIN" default:"30"` // минут

	// Rate limiter
	RedisAddr       string        `envconfig:"REDIS_ADDR" default:""`
	BookRateLimit   int           `envconfig:"BOOK_RATE_LIMIT" default:"10"`
	BookRateWindow  time.Duration `envconfig:"BOOK_RATE_WINDOW" default:"60s"`
	EdgeRPS         float64       `envconfig:"EDGE_RPS" default:"50"`
	EdgeBurst       int           `envconfig:"EDGE_BURST" default:"100"`

	// FCFS-очередь
	FCFSEnabled     bool          `envconfig:"FCFS_ENABLED" default:"false"`
	FCFSQueueSize   int           `envconfig:"FCFS_QUEUE_SIZE" default:"1024"`
	FCFSWaitTimeout time.Duration `envconfig:"FCFS_WAIT_TIMEOUT" default:"30s"`

	// Брокер событий
	AMQPURL      string `envconfig:"AMQP_URL" default:""`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"booking.events"`

	// Трассировка
	OTELEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:""`
	Env          string `envconfig:"ENV" default:"dev"`

	// Network
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

func Load() (App, error) {
	var c App
	if err := envconfig.Process("", &c); err != nil {
		return c, err
	}
	if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
		return c, fmt.Errorf("invalid DB config: host/user/name must not be empty")
	}
	return c, nil
}
