package config

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AppPort     string `env:"APP_PORT,default=8080"`
	AppTimezone string `env:"APP_TIMEZONE,default=America/Sao_Paulo"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	DatabaseURL       string        `env:"DATABASE_URL,required"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=10"`
	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=30m"`
	DBAutoMigrate     bool          `env:"DB_AUTO_MIGRATE,default=true"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	JWTSecret     string        `env:"JWT_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=24h"`
	ClerkWebhook  string        `env:"CLERK_WEBHOOK_SECRET"`
	CORSOrigins   []string      `env:"CORS_ALLOWED_ORIGINS,default=*"`
	QueryCacheTTL time.Duration `env:"QUERY_CACHE_TTL,default=5m"`

	// TrustedProxies lists peer IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	OutlierThreshold   float64 `env:"CONTRIBUTION_OUTLIER_THRESHOLD,default=50"`
	OfferRetentionDays int     `env:"OFFER_RETENTION_DAYS,default=30"`
	OfferCleanupCron   string  `env:"OFFER_CLEANUP_CRON,default=@daily"`

	RateLimitMaxAttempts int           `env:"RATE_LIMIT_MAX_ATTEMPTS,default=10"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW,default=60m"`
	RateLimitBlock       time.Duration `env:"RATE_LIMIT_BLOCK,default=30m"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"VAPID_SUBSCRIBER,default=mailto:contato@precocerto.app"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     string `env:"SMTP_PORT,default=465"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	KafkaBrokers        []string `env:"KAFKA_BROKERS"`
	KafkaAnalyticsTopic string   `env:"KAFKA_ANALYTICS_TOPIC,default=analytics.events"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return loadFrom(ctx, envconfig.OsLookuper())
}

func loadFrom(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves AppTimezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
