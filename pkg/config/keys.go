package config

// EnvPrefix is handed to envconfig; every field carries an explicit key.
const EnvPrefix = "ORDERBOT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:orderbot.db?_busy_timeout=5000"
)

const (
	EnvAppEnv     = "ORDERBOT_APP_ENV"
	EnvPort       = "ORDERBOT_APP_PORT"
	EnvLogLevel   = "ORDERBOT_LOG_LEVEL"
	EnvBotToken   = "ORDERBOT_BOT_TOKEN"
	EnvOperatorID = "ORDERBOT_OPERATOR_ID"
	EnvTimeZone   = "ORDERBOT_TIME_ZONE"
	EnvEventsKey  = "ORDERBOT_EVENTS_SECRET"

	EnvDBDSN  = "ORDERBOT_DB_DSN"
	EnvDBHost = "ORDERBOT_DB_HOST"
	EnvDBUser = "ORDERBOT_DB_USER"
	EnvDBName = "ORDERBOT_DB_NAME"

	EnvRedisURL  = "ORDERBOT_REDIS_URL"
	EnvRedisAddr = "ORDERBOT_REDIS_ADDR"

	EnvUseSQLite          = "ORDERBOT_USE_SQLITE"
	EnvPersistenceEnabled = "ORDERBOT_PERSISTENCE_ENABLED"
	EnvRedisCooldowns     = "ORDERBOT_REDIS_COOLDOWNS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
