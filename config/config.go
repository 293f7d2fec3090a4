package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Backends de armazenamento aceitos em STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config armazena todas as configurações do aplicativo GoCatalog.
type Config struct {
	// Geral
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// Armazenamento
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"memory"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	DBTimeout      time.Duration `env:"DB_TIMEOUT" envDefault:"5s"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`

	// Cache (Redis). Vazio desliga o cache.
	RedisAddr string        `env:"REDIS_ADDR"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	// Segurança (JWT)
	JWTSecretKey string        `env:"JWT_SECRET_KEY"`
	TokenExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"60m"`

	// Rate Limiting. Zero desliga o limitador.
	RateLimitMaxRequests int           `env:"RATE_LIMIT_MAX_REQUESTS" envDefault:"100"`
	RateLimitPeriod      time.Duration `env:"RATE_LIMIT_PERIOD" envDefault:"1m"`

	// Eventos (Kafka). Sem brokers, eventos são descartados.
	KafkaBrokers     []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopicPrefix string   `env:"KAFKA_TOPIC_PREFIX"`

	// Busca de produtos
	SearchDefaultLimit int `env:"SEARCH_DEFAULT_LIMIT" envDefault:"20"`
	SearchMaxLimit     int `env:"SEARCH_MAX_LIMIT" envDefault:"100"`
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler configuração: %w", err)
	}
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(cfg.StorageBackend))
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT inválida: %d", c.Port)
	}
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL deve ser definida quando STORAGE_BACKEND=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND inválido: %q (use %s ou %s)", c.StorageBackend, StorageMemory, StoragePostgres)
	}
	if c.JWTSecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY deve ser definida")
	}
	if c.DBTimeout <= 0 {
		return fmt.Errorf("DB_TIMEOUT deve ser positivo")
	}
	if c.SearchDefaultLimit < 1 || c.SearchMaxLimit < c.SearchDefaultLimit {
		return fmt.Errorf("limites de busca inválidos: padrão %d, máximo %d", c.SearchDefaultLimit, c.SearchMaxLimit)
	}
	return nil
}

// Addr retorna o endereço de escuta do servidor HTTP.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// DatabaseConfig é o subconjunto lido por cmd/migrate, que só conversa com o banco.
type DatabaseConfig struct {
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`
}

// LoadDatabaseConfig carrega apenas as configurações do banco.
func LoadDatabaseConfig() (*DatabaseConfig, error) {
	cfg := &DatabaseConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler configuração do banco: %w", err)
	}
	return cfg, nil
}

// AuthConfig é o subconjunto lido por cmd/token para assinar tokens.
type AuthConfig struct {
	JWTSecretKey string        `env:"JWT_SECRET_KEY,notEmpty"`
	TokenExpiry  time.Duration `env:"JWT_EXPIRY" envDefault:"60m"`
}

// LoadAuthConfig carrega apenas as configurações de JWT.
func LoadAuthConfig() (*AuthConfig, error) {
	cfg := &AuthConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("falha ao ler configuração de autenticação: %w", err)
	}
	return cfg, nil
}
