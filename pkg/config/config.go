package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Metrics       MetricsConfig
	Cron          CronConfig
	Bootstrap     BootstrapConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NOVATECH_APP_ENV" required:"true"`
	Port         string `envconfig:"NOVATECH_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NOVATECH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NOVATECH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "development")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"NOVATECH_DB_DSN"`
	Driver string `envconfig:"NOVATECH_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NOVATECH_DB_HOST"`
	Port     int    `envconfig:"NOVATECH_DB_PORT" default:"5432"`
	User     string `envconfig:"NOVATECH_DB_USER"`
	Password string `envconfig:"NOVATECH_DB_PASSWORD"`
	Name     string `envconfig:"NOVATECH_DB_NAME"`
	SSLMode  string `envconfig:"NOVATECH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NOVATECH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NOVATECH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NOVATECH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NOVATECH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"NOVATECH_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the sqlite dialector is configured.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"NOVATECH_REDIS_URL"`
	Address      string        `envconfig:"NOVATECH_REDIS_ADDR"`
	Password     string        `envconfig:"NOVATECH_REDIS_PASSWORD"`
	DB           int           `envconfig:"NOVATECH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NOVATECH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NOVATECH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NOVATECH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NOVATECH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NOVATECH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig carries the symmetric signing material. All three values are required.
type JWTConfig struct {
	Key      string `envconfig:"NOVATECH_JWT_KEY" required:"true"`
	Issuer   string `envconfig:"NOVATECH_JWT_ISSUER" required:"true"`
	Audience string `envconfig:"NOVATECH_JWT_AUDIENCE" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"NOVATECH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"NOVATECH_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"NOVATECH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"NOVATECH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"NOVATECH_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"NOVATECH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"NOVATECH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"NOVATECH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"NOVATECH_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"NOVATECH_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"NOVATECH_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// RateLimitConfig drives the in-process token bucket applied to /api.
type RateLimitConfig struct {
	RequestsPerSecond float64 `envconfig:"NOVATECH_RATE_LIMIT_RPS" default:"50"`
	Burst             int     `envconfig:"NOVATECH_RATE_LIMIT_BURST" default:"100"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"NOVATECH_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"NOVATECH_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"NOVATECH_METRICS_PATH" default:"/metrics"`
}

type CronConfig struct {
	Schedule   string        `envconfig:"NOVATECH_CRON_SCHEDULE" default:"@every 1h"`
	LockTTL    time.Duration `envconfig:"NOVATECH_CRON_LOCK_TTL" default:"10m"`
	JobTimeout time.Duration `envconfig:"NOVATECH_CRON_JOB_TIMEOUT" default:"5m"`
}

// BootstrapConfig optionally seeds an administrator at API startup.
type BootstrapConfig struct {
	AdminEmail    string `envconfig:"NOVATECH_BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `envconfig:"NOVATECH_BOOTSTRAP_ADMIN_PASSWORD"`
}

func (b BootstrapConfig) Enabled() bool {
	return strings.TrimSpace(b.AdminEmail) != "" && b.AdminPassword != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NOVATECH_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
	}

	missing := []string{}
	discrete := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discrete[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
