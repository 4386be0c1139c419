package config

// EnvPrefix is handed to envconfig; every field also declares its full name.
const EnvPrefix = "NOVATECH"

const (
	EnvAppEnv   = "NOVATECH_APP_ENV"
	EnvPort     = "NOVATECH_APP_PORT"
	EnvDBDSN    = "NOVATECH_DB_DSN"
	EnvDBDriver = "NOVATECH_DB_DRIVER"
	EnvDBHost   = "NOVATECH_DB_HOST"
	EnvDBUser   = "NOVATECH_DB_USER"
	EnvDBName   = "NOVATECH_DB_NAME"

	EnvRedisURL = "NOVATECH_REDIS_URL"

	EnvJWTKey      = "NOVATECH_JWT_KEY"
	EnvJWTIssuer   = "NOVATECH_JWT_ISSUER"
	EnvJWTAudience = "NOVATECH_JWT_AUDIENCE"

	EnvCORSOrigins = "NOVATECH_CORS_ALLOWED_ORIGINS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
