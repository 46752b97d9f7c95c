package config

import (
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `env:"ENV" env-required:"true"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer   HttpServer
	Database     Database
	Limiter      Limiter
	Auth         AuthConfig
	Veriff       VeriffConfig
	Verification VerificationConfig
	Storage      StorageConfig
	SMTP         SMTPConfig
	Email        EmailConfig
	Cache        Cache
	Queue        QueueConfig
	PDF          PDFConfig
}

type HttpServer struct {
	Port           string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout        time.Duration `env:"HTTP_TIMEOUT" env-default:"40s" env-description:"must exceed VERIFF_TIMEOUT"`
	IdleTimeout    time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	SwaggerEnabled bool          `env:"HTTP_SWAGGER_ENABLED" env-default:"false"`
	MaxUploadSize  int64         `env:"HTTP_MAX_UPLOAD_SIZE" env-default:"10485760"`
	CORSOrigins    []string      `env:"HTTP_CORS_ORIGINS" env-default:"http://localhost:3000" env-separator:","`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER" env-required:"true"`
	DBName             string        `env:"DB_NAME" env-required:"true"`
	User               string        `env:"DB_USER" env-required:"true"`
	Password           string        `env:"DB_PASSWORD" env-required:"true"`
	TimeZone           string        `env:"DB_TIMEZONE"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"40"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"40"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	JWT JWTConfig
}

type JWTConfig struct {
	AccessTokenTTL time.Duration `env:"JWT_ACCESS_TOKEN_TTL" env-default:"15m"`
	SigningKey     string        `env:"JWT_SIGNING_KEY" env-required:"true"`
}

type VeriffConfig struct {
	BaseURL      string        `env:"VERIFF_BASE_URL" env-default:"https://stationapi.veriff.com"`
	APIKey       string        `env:"VERIFF_API_KEY" env-required:"true"`
	SharedSecret string        `env:"VERIFF_SHARED_SECRET" env-required:"true" env-description:"HMAC key for webhook and decision signatures"`
	CallbackURL  string        `env:"VERIFF_CALLBACK_URL" env-required:"true"`
	Country      string        `env:"VERIFF_COUNTRY" env-default:"PH" env-description:"ISO country every session is created for"`
	Timeout      time.Duration `env:"VERIFF_TIMEOUT" env-default:"30s"`
}

type VerificationConfig struct {
	MaxAttempts int `env:"VERIFICATION_MAX_ATTEMPTS" env-default:"3" env-description:"total submissions a user may make"`
}

type StorageConfig struct {
	Type      string `env:"STORAGE_TYPE" env-default:"local" env-description:"one of local/s3"`
	BasePath  string `env:"STORAGE_BASE_PATH" env-default:"./uploads"`
	Bucket    string `env:"STORAGE_BUCKET"`
	Region    string `env:"STORAGE_REGION" env-default:"ap-southeast-1"`
	Endpoint  string `env:"STORAGE_ENDPOINT" env-description:"custom S3 compatible endpoint, empty for AWS"`
	AccessKey string `env:"STORAGE_ACCESS_KEY"`
	SecretKey string `env:"STORAGE_SECRET_KEY"`
}

type SMTPConfig struct {
	Host string `env:"SMTP_HOST" env-required:"true"`
	Port int    `env:"SMTP_PORT" env-required:"true"`
	From string `env:"SMTP_FROM" env-required:"true"`
	Pass string `env:"SMTP_PASS" env-required:"true"`
}

type EmailConfig struct {
	Enabled      bool   `env:"EMAIL_ENABLED" env-default:"false"`
	TemplatesDir string `env:"EMAIL_TEMPLATES_DIR" env-default:"./templates"`
	Templates    EmailTemplates
}

type EmailTemplates struct {
	VerificationApproved string `env:"EMAIL_TEMPLATE_VERIFICATION_APPROVED" env-default:"verification_approved.html"`
	VerificationRejected string `env:"EMAIL_TEMPLATE_VERIFICATION_REJECTED" env-default:"verification_rejected.html"`
}

type QueueConfig struct {
	Concurrency       int           `env:"QUEUE_CONCURRENCY" env-default:"10"`
	MaxRetry          int           `env:"QUEUE_MAX_RETRY" env-default:"5"`
	ReconcileInterval time.Duration `env:"QUEUE_RECONCILE_INTERVAL" env-default:"5m" env-description:"how often stale eligibility projections are swept"`
}

type PDFConfig struct {
	FontPath string `env:"PDF_FONT_PATH" env-default:"./fonts/DejaVuSans.ttf"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-required:"true" env-description:"specifies provider, one of redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: ['172.27.29.90:7000','172.27.29.91:7001'', '172.27.29.92:7002'']"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"70" env-description:"max tcp connections pool size"`
	}
}

func MustLoad() *Config {
	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return &cfg
}
