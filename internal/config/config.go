package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"victim-aid-go/pkg/logger"
)

type Config struct {
	Env       string `env:"ENV" env-default:"development"`
	HTTP      HTTPConfig
	DB        DBConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Uploads   UploadsConfig
	Reports   ReportsConfig
	Bootstrap BootstrapConfig
}

type HTTPConfig struct {
	Port            string        `env:"HTTP_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT"     env-default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT"     env-default:"60s"`
	RequestTimeout  time.Duration `env:"HTTP_REQUEST_TIMEOUT"  env-default:"30s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"5s"`
	CORSOrigins     []string      `env:"CORS_ALLOWED_ORIGINS"  env-separator:","`
}

type DBConfig struct {
	DSN             string        `env:"DB_DSN"`
	Host            string        `env:"DB_HOST"              env-default:"localhost"`
	Port            string        `env:"DB_PORT"              env-default:"5432"`
	User            string        `env:"DB_USER"              env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD"          env-default:"postgres"`
	Name            string        `env:"DB_NAME"              env-default:"victim_aid"`
	SSLMode         string        `env:"DB_SSLMODE"           env-default:"disable"`
	TimeZone        string        `env:"DB_TIMEZONE"          env-default:"UTC"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS"    env-default:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS"    env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE"      env-default:"true"`
	SlowQuery       time.Duration `env:"DB_SLOW_QUERY"        env-default:"500ms"`
}

type AuthConfig struct {
	JWTSecret      string        `env:"AUTH_JWT_SECRET"`
	JWTIssuer      string        `env:"AUTH_JWT_ISSUER"       env-default:"victim-aid"`
	AccessTokenTTL time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" env-default:"8h"`
	UserCacheTTL   time.Duration `env:"AUTH_USER_CACHE_TTL"   env-default:"1m"`
	BcryptCost     int           `env:"AUTH_BCRYPT_COST"      env-default:"10"`
}

// RedisConfig is optional; without a URL token revocations stay in memory.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      env-default:"10"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   env-default:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   env-default:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  env-default:"3s"`
}

type StorageConfig struct {
	Driver     string `env:"STORAGE_DRIVER"      env-default:"fs"`
	Root       string `env:"STORAGE_ROOT"        env-default:"./media"`
	PublicPath string `env:"STORAGE_PUBLIC_PATH" env-default:"/media"`
	S3         S3Config
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION"            env-default:"us-east-1"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PathStyle       bool   `env:"S3_PATH_STYLE"        env-default:"false"`
}

type UploadsConfig struct {
	MaxAttachmentSize int64         `env:"UPLOAD_MAX_ATTACHMENT_SIZE" env-default:"10485760"`
	URLExpiry         time.Duration `env:"UPLOAD_URL_EXPIRY"          env-default:"15m"`
}

type ReportsConfig struct {
	CacheTTL time.Duration `env:"REPORTS_CACHE_TTL" env-default:"1m"`
}

// BootstrapConfig creates the first administrator on startup when set.
type BootstrapConfig struct {
	AdminUsername string `env:"BOOTSTRAP_ADMIN_USERNAME"`
	AdminEmail    string `env:"BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

// Load reads configuration from the environment, preceded by the nearest
// .env file when one exists. Values in .env win over the process
// environment.
func Load(log logger.Logger) (Config, error) {
	var cfg Config

	path, err := findDotEnv(dotenvFilename)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		log.Info("config: loaded dotenv", "path", path)
	case errors.Is(err, os.ErrNotExist):
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("config: read env: %w", err)
		}
	default:
		return Config{}, fmt.Errorf("config: find .env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string

	if len(c.Auth.JWTSecret) < 32 {
		problems = append(problems, "AUTH_JWT_SECRET must be at least 32 characters")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		problems = append(problems, "AUTH_ACCESS_TOKEN_TTL must be positive")
	}
	switch c.Storage.Driver {
	case "fs", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			problems = append(problems, "S3_BUCKET is required for the s3 storage driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}
	if c.Uploads.MaxAttachmentSize <= 0 {
		problems = append(problems, "UPLOAD_MAX_ATTACHMENT_SIZE must be positive")
	}
	if c.Bootstrap.AdminUsername != "" && c.Bootstrap.AdminPassword == "" {
		problems = append(problems, "BOOTSTRAP_ADMIN_PASSWORD is required with BOOTSTRAP_ADMIN_USERNAME")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

// Usage lists every environment variable the service reads with its default.
func Usage() (string, error) {
	header := "Environment variables:"
	return cleanenv.GetDescription(&Config{}, &header)
}
