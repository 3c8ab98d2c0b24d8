package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Bot          BotConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Mirror       MirrorConfig
	Cron         CronConfig
	EventAPI     EventAPIConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.PersistenceEnabled {
		if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
			return nil, err
		}
	}
	if cfg.FeatureFlags.RedisCooldowns && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s or %s is required when redis cooldowns are enabled", EnvRedisURL, EnvRedisAddr)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERBOT_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERBOT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERBOT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERBOT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BotConfig carries the chat transport and order workflow settings.
type BotConfig struct {
	Token         string        `envconfig:"ORDERBOT_BOT_TOKEN" required:"true"`
	APIBaseURL    string        `envconfig:"ORDERBOT_BOT_API_BASE_URL" default:"https://api.telegram.org"`
	OperatorID    int64         `envconfig:"ORDERBOT_OPERATOR_ID" required:"true"`
	TimeZone      string        `envconfig:"ORDERBOT_TIME_ZONE" default:"America/New_York"`
	OrderCooldown time.Duration `envconfig:"ORDERBOT_ORDER_COOLDOWN" default:"24h"`
	HelpCooldown  time.Duration `envconfig:"ORDERBOT_HELP_COOLDOWN" default:"24h"`
	OrderIDLength int           `envconfig:"ORDERBOT_ORDER_ID_LENGTH" default:"6"`
	MaxChunkLen   int           `envconfig:"ORDERBOT_MAX_MESSAGE_CHUNK" default:"3500"`
	SendTimeout   time.Duration `envconfig:"ORDERBOT_SEND_TIMEOUT" default:"10s"`
	EventsSecret  string        `envconfig:"ORDERBOT_EVENTS_SECRET"`
}

// Location resolves the configured time zone. An empty or unknown zone falls
// back to process-local time.
func (b BotConfig) Location() *time.Location {
	name := strings.TrimSpace(b.TimeZone)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERBOT_DB_DSN"`
	Driver string `envconfig:"ORDERBOT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ORDERBOT_DB_HOST"`
	LegacyPort     int    `envconfig:"ORDERBOT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ORDERBOT_DB_USER"`
	LegacyPassword string `envconfig:"ORDERBOT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ORDERBOT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ORDERBOT_DB_SSLMODE" default:"require"`

	MaxOpenConns    int           `envconfig:"ORDERBOT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ORDERBOT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERBOT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERBOT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERBOT_REDIS_URL"`
	Address      string        `envconfig:"ORDERBOT_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERBOT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERBOT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERBOT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERBOT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERBOT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERBOT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ORDERBOT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type FeatureFlagsConfig struct {
	UseSQLite          bool `envconfig:"ORDERBOT_USE_SQLITE" default:"false"`
	AutoMigrate        bool `envconfig:"ORDERBOT_AUTO_MIGRATE" default:"false"`
	PersistenceEnabled bool `envconfig:"ORDERBOT_PERSISTENCE_ENABLED" default:"true"`
	RedisCooldowns     bool `envconfig:"ORDERBOT_REDIS_COOLDOWNS" default:"false"`
	CronEnabled        bool `envconfig:"ORDERBOT_CRON_ENABLED" default:"true"`
}

type MirrorConfig struct {
	QueueSize    int           `envconfig:"ORDERBOT_MIRROR_QUEUE_SIZE" default:"256"`
	Workers      int           `envconfig:"ORDERBOT_MIRROR_WORKERS" default:"2"`
	WriteTimeout time.Duration `envconfig:"ORDERBOT_MIRROR_WRITE_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	Interval           time.Duration `envconfig:"ORDERBOT_CRON_INTERVAL" default:"24h"`
	PendingReminderAge time.Duration `envconfig:"ORDERBOT_PENDING_REMINDER_AGE" default:"48h"`
	LockTTL            time.Duration `envconfig:"ORDERBOT_CRON_LOCK_TTL" default:"1h"`
	JobTimeout         time.Duration `envconfig:"ORDERBOT_CRON_JOB_TIMEOUT" default:"2m"`
}

// EventAPIConfig throttles and deduplicates POST /v1/events. Limits of zero
// disable the corresponding check.
type EventAPIConfig struct {
	RateWindow     time.Duration `envconfig:"ORDERBOT_EVENTS_RATE_WINDOW" default:"1m"`
	IPLimit        int           `envconfig:"ORDERBOT_EVENTS_IP_LIMIT" default:"0"`
	UserLimit      int           `envconfig:"ORDERBOT_EVENTS_USER_LIMIT" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"ORDERBOT_EVENTS_IDEMPOTENCY_TTL" default:"24h"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.Driver = DriverSQLite
		db.DSN = defaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
