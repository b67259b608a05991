package nsindex

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/khicago/nsindex/redisdriver"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 6379
)

// Config describes how Open reaches the store and which shape the index has.
type Config struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	IndexType string `yaml:"indexType"`
	Namespace string `yaml:"namespace"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`

	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`

	// Client, when set, is used instead of dialing Host:Port.
	// The index shares it and never closes it.
	Client redis.UniversalClient `yaml:"-"`
}

// DefaultConfig returns a Config for a local store and a list index.
func DefaultConfig() Config {
	return Config{
		Host:      DefaultHost,
		Port:      DefaultPort,
		IndexType: KindList.String(),
	}
}

// withDefaults fills zero connection fields.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	return c
}

// LoadConfig reads a YAML file over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %w", ErrConfiguration, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: decode %s: %w", ErrConfiguration, path, err)
	}
	if _, err := ParseKind(cfg.IndexType); err != nil {
		return cfg, err
	}
	return cfg.withDefaults(), nil
}

// Open builds an Index from cfg. The kind is resolved and opts are applied
// before any connection is made: an unknown IndexType fails without touching
// the network, and a driver set through opts means nothing is dialed.
func Open[TKey ~string](ctx context.Context, cfg Config, opts ...Option[TKey]) (*Index[TKey], error) {
	kind, err := ParseKind(cfg.IndexType)
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	idx, err := build[TKey](cfg.Namespace, append([]Option[TKey]{WithKind[TKey](kind)}, opts...))
	if err != nil {
		return nil, err
	}
	if idx.driver != nil {
		return idx, nil
	}

	if cfg.Client != nil {
		idx.driver = redisdriver.New(cfg.Client)
		return idx, nil
	}

	d, err := redisdriver.Dial(ctx, redisdriver.Options{
		Host:         cfg.Host,
		Port:         cfg.Port,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	idx.driver = d
	idx.ownsDriver = true
	return idx, nil
}
