package config

const (
	EnvPrefix = "STOCKROOM"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "STOCKROOM_APP_ENV"
	EnvPort     = "STOCKROOM_APP_PORT"
	EnvDBDSN    = "STOCKROOM_DB_DSN"
	EnvRedisURL = "STOCKROOM_REDIS_URL"
)
