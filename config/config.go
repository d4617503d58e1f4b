package config

import (
	"fmt"
	"sync"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const (
	BookingFlowDeposit = "deposit"
	BookingFlowDirect  = "direct"
)

// PostgresEndpoint is one side (read or write) of the database.
type PostgresEndpoint struct {
	Host     string `envconfig:"HOST"`
	Port     string `envconfig:"PORT"`
	Username string `envconfig:"USER"`
	Password string `envconfig:"PASSWORD"`
	Name     string `envconfig:"NAME"`
	Timezone string `envconfig:"TIMEZONE"`
	SSLMode  string `envconfig:"SSL_MODE"`
}

type Config struct {
	Server struct {
		Env      string `envconfig:"ENV"`
		LogLevel string `envconfig:"LOG_LEVEL"`
		Port     string `envconfig:"PORT"`
		Host     string `envconfig:"HOST"`
		Shutdown struct {
			CleanupPeriodSeconds int64 `envconfig:"CLEANUP_PERIOD_SECONDS"`
			GracePeriodSeconds   int64 `envconfig:"GRACE_PERIOD_SECONDS"`
		} `envconfig:"SHUTDOWN"`
	} `envconfig:"SERVER"`

	App struct {
		Name        string `envconfig:"APP_NAME"`
		Timezone    string `envconfig:"TIMEZONE"`
		FrontendURL string `envconfig:"FRONTEND_URL"`
		CORS        struct {
			AllowCredentials bool     `envconfig:"ALLOW_CREDENTIALS"`
			AllowedHeaders   []string `envconfig:"ALLOWED_HEADERS"`
			AllowedMethods   []string `envconfig:"ALLOWED_METHODS"`
			AllowedOrigins   []string `envconfig:"ALLOWED_ORIGINS"`
			Enable           bool     `envconfig:"ENABLE"`
			MaxAgeSeconds    int      `envconfig:"MAX_AGE_SECONDS"`
		} `envconfig:"CORS"`
		RateLimiter struct {
			Enable        bool `envconfig:"ENABLE"`
			MaxRequests   int  `envconfig:"MAX_REQUESTS"`
			WindowSeconds int  `envconfig:"WINDOW_SECONDS"`
		} `envconfig:"RATE_LIMITER"`
		APIKey string `envconfig:"API_KEY"`
	} `envconfig:"APP"`

	Booking struct {
		Flow                 string   `envconfig:"FLOW"                   default:"deposit"`
		DailySlots           []string `envconfig:"DAILY_SLOTS"            default:"09:00,13:00"`
		DepositAmount        int64    `envconfig:"DEPOSIT_AMOUNT"         default:"2500"`
		Currency             string   `envconfig:"CURRENCY"               default:"usd"`
		DepositProductName   string   `envconfig:"DEPOSIT_PRODUCT_NAME"   default:"Hair Braiding Deposit"`
		DepositExpiryMinutes int      `envconfig:"DEPOSIT_EXPIRY_MINUTES" default:"30"`
	} `envconfig:"BOOKING"`

	Payment struct {
		Stripe struct {
			SecretKey             string `envconfig:"SECRET_KEY"`
			WebhookSecret         string `envconfig:"WEBHOOK_SECRET"`
			WebhookToleranceSecs  int    `envconfig:"WEBHOOK_TOLERANCE_SECONDS" default:"300"`
			WebhookMaxBodyBytes   int64  `envconfig:"WEBHOOK_MAX_BODY_BYTES"    default:"65536"`
			RequestTimeoutSeconds int    `envconfig:"REQUEST_TIMEOUT_SECONDS"   default:"10"`
		} `envconfig:"STRIPE"`
	} `envconfig:"PAYMENT"`

	Sweeper struct {
		IntervalSeconds        int `envconfig:"INTERVAL_SECONDS"          default:"300"`
		MaxRetries             int `envconfig:"MAX_RETRIES"               default:"3"`
		RetryInitialIntervalMs int `envconfig:"RETRY_INITIAL_INTERVAL_MS" default:"500"`
	} `envconfig:"SWEEPER"`

	Admin struct {
		PasswordHash string `envconfig:"PASSWORD_HASH"`
	} `envconfig:"ADMIN"`

	Cache struct {
		Redis struct {
			Primary struct {
				Host     string `envconfig:"HOST"`
				Port     string `envconfig:"PORT"`
				Password string `envconfig:"PASSWORD"`
				DB       int    `envconfig:"DB"`
			} `envconfig:"PRIMARY"`
			URL           string `envconfig:"URL"`
			PoolSize      int    `envconfig:"POOL_SIZE"      default:"10"`
			DialTimeoutMs int    `envconfig:"DIAL_TIMEOUT_MS" default:"2000"`
		} `envconfig:"REDIS"`
		TTL int `envconfig:"TTL" default:"60"`
	} `envconfig:"CACHE"`

	JWT struct {
		AccessSecret    string `envconfig:"ACCESS_SECRET"`
		AccessExpireMin int    `envconfig:"ACCESS_EXPIRE_MIN"`
	} `envconfig:"JWT"`

	DB struct {
		Postgres struct {
			MaxRetry       int              `envconfig:"MAX_RETRY"`
			RetryWaitTime  int              `envconfig:"RETRY_WAIT_TIME"`
			MigrationTable string           `envconfig:"MIGRATION_TABLE"   default:"schema_migrations"`
			MigrationPath  string           `envconfig:"MIGRATION_PATH"    default:"migrations/postgres"`
			AutoMigrate    bool             `envconfig:"AUTO_MIGRATE"`
			Prefix         string           `envconfig:"PREFIX"`
			MaxOpenConns   int              `envconfig:"MAX_OPEN_CONNS"    default:"10"`
			MaxIdleConns   int              `envconfig:"MAX_IDLE_CONNS"    default:"5"`
			ConnMaxLifeSec int              `envconfig:"CONN_MAX_LIFE_SEC" default:"300"`
			Read           PostgresEndpoint `envconfig:"READ"`
			Write          PostgresEndpoint `envconfig:"WRITE"`
		} `envconfig:"POSTGRES"`
	} `envconfig:"DB"`

	Kafka struct {
		Brokers       []string `envconfig:"BROKERS"`
		ConsumerGroup string   `envconfig:"CONSUMER_GROUP"`
		SASL          struct {
			Username string `envconfig:"USERNAME"`
			Password string `envconfig:"PASSWORD"`
		} `envconfig:"SASL"`
		Topics struct {
			BookingEvents string `envconfig:"BOOKING_EVENTS" default:"booking-events"`
		} `envconfig:"TOPICS"`
	} `envconfig:"KAFKA"`

	External struct {
		Otel struct {
			Endpoint    string  `envconfig:"ENDPOINT"`
			SampleRatio float64 `envconfig:"SAMPLE_RATIO" default:"1"`
		} `envconfig:"OTEL"`
		S3 struct {
			BucketName      string `envconfig:"BUCKET_NAME"`
			PublicDomain    string `envconfig:"PUBLIC_DOMAIN"`
			APIEndpoint     string `envconfig:"API_ENDPOINT"`
			Region          string `envconfig:"REGION" default:"auto"`
			AccessKeyID     string `envconfig:"ACCESS_KEY_ID"`
			SecretAccessKey string `envconfig:"SECRET_ACCESS_KEY"`
		} `envconfig:"S3"`
	}
}

var (
	conf    Config
	once    sync.Once
	loadErr error
)

// Load reads the optional dotenv files into the environment and decodes it. Missing files are skipped.
func Load(files ...string) (*Config, error) {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			log.Debug().Err(err).Str("file", file).Msg("Skipping env file")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	return &cfg, nil
}

// Get loads the process configuration once, from .env and the environment.
func Get() *Config {
	once.Do(func() {
		cfg, err := Load(".env")
		if err != nil {
			loadErr = err

			return
		}

		conf = *cfg

		log.Info().Str("env", conf.Server.Env).Str("bookingFlow", conf.Booking.Flow).Msg("Configuration loaded")
	})

	if loadErr != nil {
		log.Fatal().Err(loadErr).Msg("Failed to initialize configuration")
	}

	return &conf
}
