package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis    Redis  `yaml:"redis"`
	AI       AI     `yaml:"ai"`
}

type Redis struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	TTL      time.Duration `yaml:"ttl" env:"REDIS_TTL" env-default:"24h"`
}

type AI struct {
	// ConfigSource is an http(s) URL or a file path of ai-config.json.
	ConfigSource  string            `yaml:"config-source" env:"AI_CONFIG_SOURCE" env-default:"./ai-config.json"`
	DotEnvPath    string            `yaml:"dotenv-path" env:"AI_DOTENV_PATH" env-default:".env"`
	Credentials   map[string]string `yaml:"credentials" env:"AI_CREDENTIALS"`
	ThinkingDelay bool              `yaml:"thinking-delay" env:"AI_THINKING_DELAY" env-default:"true"`
	HTTPTimeout   time.Duration     `yaml:"http-timeout" env:"AI_HTTP_TIMEOUT" env-default:"60s"`
}

// Load reads config.yml and applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

// LoadCredentials merges provider secrets keyed by env-var name. Later
// sources win: config.yml, then the .env file, then environ. A missing .env
// file is not an error. The process environment is never modified.
func (that *AI) LoadCredentials(environ []string) (map[string]string, error) {
	credentials := make(map[string]string, len(that.Credentials))
	for name, value := range that.Credentials {
		credentials[name] = value
	}

	if that.DotEnvPath != "" {
		dotEnv, err := godotenv.Read(that.DotEnvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", that.DotEnvPath, err)
		}

		for name, value := range dotEnv {
			credentials[name] = value
		}
	}

	for _, entry := range environ {
		name, value, ok := strings.Cut(entry, "=")
		if ok && value != "" {
			credentials[name] = value
		}
	}

	return credentials, nil
}
