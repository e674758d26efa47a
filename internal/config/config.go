// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек всех сервисов.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	Companion               `yaml:"companion"`
	Maintenance             `yaml:"maintenance"`
	RateLimits              `yaml:"rate_limits"`
	Reports                 `yaml:"reports"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"5s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env-default:"3s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ структура для настройки подключения к брокеру отчётов.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP структура для отправки писем с отчётами.
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"pass"`
}

// Companion структура для настройки клиента ИИ-компаньона.
type Companion struct {
	CompanionURL     string        `yaml:"url"`
	CompanionKey     string        `yaml:"key"`
	CompanionTimeout time.Duration `yaml:"timeout" env-default:"30s"`
	CompanionRPS     float64       `yaml:"rps" env-default:"5"`
}

// Maintenance структура для настройки джобы обслуживания подписок.
type Maintenance struct {
	Interval  time.Duration `yaml:"interval" env-default:"30m"`
	BatchSize int           `yaml:"batch_size" env-default:"200"`
	TrialDays int           `yaml:"trial_days" env-default:"7"`
}

// RateLimit параметры одного лимитера: окно и максимум запросов в окне.
type RateLimit struct {
	Window time.Duration `yaml:"window" env-default:"1m"`
	Max    int           `yaml:"max" env-default:"60"`
}

// RateLimits независимые лимитеры для разных групп маршрутов.
type RateLimits struct {
	General RateLimit `yaml:"general"`
	Chat    RateLimit `yaml:"chat"`
	Auth    RateLimit `yaml:"auth"`
}

// Reports структура для настройки еженедельных отчётов.
type Reports struct {
	ReportWeekday int `yaml:"weekday" env-default:"1"` // День недели запуска, 0 — воскресенье
	ReportHour    int `yaml:"hour" env-default:"9"`    // Час запуска по UTC
	ReportWorkers int `yaml:"workers" env-default:"3"` // Предел одновременных генераций
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}
