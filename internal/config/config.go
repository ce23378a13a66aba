// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/magabrotheeeer/community-portal/internal/lib/jwt"
)

const (
	// EnvLocal — локальный запуск, текстовые логи.
	EnvLocal = "local"
	// EnvDev — стенд разработки.
	EnvDev = "dev"
	// EnvProd — продакшен, cookie только по HTTPS.
	EnvProd = "prod"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	Mongo           `yaml:"mongo"`
	RedisConnection `yaml:"redis_connection"`
	JWTToken        `yaml:"jwttoken"`
	AccessCodes     `yaml:"access_codes"`
	RateLimit       `yaml:"rate_limit"`
	LoginThrottle   `yaml:"login_throttle"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// Mongo структура для подключения к документному хранилищу
type Mongo struct {
	MongoURI            string        `yaml:"uri" env:"MONGODB_URI"`
	MongoDatabase       string        `yaml:"database" env:"MONGODB_DATABASE" env-default:"community"`
	MongoConnectTimeout time.Duration `yaml:"connect_timeout" env-default:"10s"`
	MongoRetryAttempts  int           `yaml:"retry_attempts" env-default:"3"`
	MongoRetryInterval  time.Duration `yaml:"retry_interval" env-default:"5s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном.
//
// У каждого семейства ролей свой срок жизни сессии; срок жизни токена
// совпадает с Max-Age его cookie.
type JWTToken struct {
	JWTSecretKey  string        `yaml:"jwt_secret_key" env:"JWT_SECRET"`
	AdminTTL      time.Duration `yaml:"admin_ttl" env-default:"24h"`
	MentorTTL     time.Duration `yaml:"mentor_ttl" env-default:"168h"`
	AmbassadorTTL time.Duration `yaml:"ambassador_ttl" env-default:"24h"`
	PreAuthTTL    time.Duration `yaml:"pre_auth_ttl" env-default:"5m"`
}

// AccessCodes коды доступа, которые открывают страницы входа admin и ambassador
type AccessCodes struct {
	AdminAccessCode      string `yaml:"admin" env:"ADMIN_ACCESS_CODE"`
	AmbassadorAccessCode string `yaml:"ambassador" env:"AMBASSADOR_ACCESS_CODE"`
}

// RateLimit ограничение частоты запросов к эндпоинтам входа, отдельно для каждого IP клиента
type RateLimit struct {
	RPS        float64       `yaml:"rps" env-default:"1"`
	Burst      int           `yaml:"burst" env-default:"5"`
	ClientIdle time.Duration `yaml:"client_idle" env-default:"10m"` // лимитер молчащего клиента забывается
}

// LoginThrottle блокировка подбора пароля по имени пользователя
type LoginThrottle struct {
	MaxAttempts int           `yaml:"max_attempts" env-default:"5"`
	Window      time.Duration `yaml:"window" env-default:"15m"`
}

// MustLoad функция для загрузки конфига из CONFIG_PATH.
//
// Без секрета JWT процесс не стартует.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}

// Load читает YAML-файл, применяет переменные окружения и проверяет результат.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file: %s - does not exist", op, configPath)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// Validate проверяет обязательные поля.
func (c *Config) Validate() error {
	if c.JWTSecretKey == "" {
		return jwt.ErrMissingSecret
	}
	if c.MongoURI == "" {
		return errors.New("mongo uri is not set")
	}
	for name, ttl := range map[string]time.Duration{
		"admin_ttl":      c.AdminTTL,
		"mentor_ttl":     c.MentorTTL,
		"ambassador_ttl": c.AmbassadorTTL,
		"pre_auth_ttl":   c.PreAuthTTL,
	} {
		if ttl < time.Second {
			return fmt.Errorf("%s must be at least 1s, got %s", name, ttl)
		}
	}
	return nil
}

// CookieSecure сообщает, нужно ли ставить cookie с флагом Secure.
func (c *Config) CookieSecure() bool {
	return c.Env == EnvProd
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"Mongo:\n"+
			"  URI: %s\n"+
			"  Database: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  AdminTTL: %s\n"+
			"  MentorTTL: %s\n"+
			"  AmbassadorTTL: %s\n"+
			"  PreAuthTTL: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.MongoURI),
		c.MongoDatabase,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		mask(c.JWTSecretKey),
		c.AdminTTL,
		c.MentorTTL,
		c.AmbassadorTTL,
		c.PreAuthTTL,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
