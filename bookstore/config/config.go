package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/Astemirdum/bookstore/bookstore/internal/catalog"
	"github.com/Astemirdum/bookstore/bookstore/internal/model"
	"github.com/Astemirdum/bookstore/pkg/database"
	"github.com/Astemirdum/bookstore/pkg/kafka"
	"github.com/Astemirdum/bookstore/pkg/logger"
	"github.com/Astemirdum/bookstore/pkg/worker"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"BOOKSTORE_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"BOOKSTORE_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"30s"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Catalog  catalog.Config
	Database database.Config
	History  model.HistoryPolicy
	Worker   worker.Config
	Kafka    kafka.Config
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment once. Options are applied
// afterwards and override what the environment sets. The result is printed
// to stderr.
func NewConfig(ops ...Option) Config {
	once.Do(func() {
		config, err := load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(os.Stderr, cfg)
	})

	return cfg
}

func load(ops ...Option) (Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return Config{}, err
	}
	for _, op := range ops {
		op(&config)
	}
	return config, nil
}

func printConfig(w io.Writer, cfg Config) {
	masked := cfg
	if masked.Catalog.APIKey != "" {
		masked.Catalog.APIKey = "***"
	}
	jscfg, _ := json.MarshalIndent(masked, "", "	") //nolint:errcheck
	fmt.Fprintln(w, string(jscfg))
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithDatabase(driver, dsn string) Option {
	return func(c *Config) {
		if driver != "" {
			c.Database.Driver = driver
		}
		if dsn != "" {
			c.Database.DSN = dsn
		}
	}
}

func WithAPIKey(key string) Option {
	return func(c *Config) {
		if key != "" {
			c.Catalog.APIKey = key
		}
	}
}
