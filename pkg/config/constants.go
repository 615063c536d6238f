package config

const (
	EnvPrefix = "STOCKLEDGER"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "STOCKLEDGER_APP_ENV"
	EnvPort     = "STOCKLEDGER_APP_PORT"
	EnvDBDSN    = "STOCKLEDGER_DB_DSN"
	EnvDBHost   = "STOCKLEDGER_DB_HOST"
	EnvDBUser   = "STOCKLEDGER_DB_USER"
	EnvDBName   = "STOCKLEDGER_DB_NAME"
	EnvRedisURL = "STOCKLEDGER_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
