package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/feedloader/pkg/cache"
	"github.com/Sternrassler/feedloader/pkg/loader"
	"github.com/Sternrassler/feedloader/pkg/logging"
	"github.com/Sternrassler/feedloader/pkg/pagination"
	"github.com/Sternrassler/feedloader/pkg/source"
)

const (
	sourceSimulated = "simulated"
	sourceRedis     = "redis"
)

// options is the binary configuration. Values come from the environment,
// then the optional YAML config file, then explicitly set flags.
type options struct {
	ConfigFile string `yaml:"-"`

	LogLevel string `yaml:"log_level"`
	Pretty   bool   `yaml:"pretty"`

	Source   string        `yaml:"source"`
	RedisURL string        `yaml:"redis_url"`
	RedisKey string        `yaml:"redis_key"`
	PageSize int           `yaml:"page_size"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
	Seed     int64         `yaml:"seed"`

	SelfName       string        `yaml:"self_name"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`

	Addr string `yaml:"addr"`
}

func defaultOptions() *options {
	return &options{
		LogLevel:       getEnv("LOG_LEVEL", string(logging.LevelInfo)),
		Source:         getEnv("FEED_SOURCE", sourceSimulated),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		RedisKey:       getEnv("FEED_REDIS_KEY", source.DefaultRedisKey),
		PageSize:       source.DefaultSimulatedConfig().PageSize,
		CacheTTL:       cache.DefaultTTL,
		SelfName:       getEnv("FEED_SELF_NAME", loader.DefaultSelfName),
		FetchTimeout:   pagination.DefaultConfig().Timeout,
		RefreshTimeout: loader.DefaultRefreshTimeout,
		Addr:           ":" + getEnv("PORT", "8080"),
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := defaultOptions()

	cmd := &cobra.Command{
		Use:          "feed",
		Short:        "Incremental people list loader",
		Long:         "feed pages through a people directory, deduplicating records and keeping your own entry at the top.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.loadFile(cmd.Flags()); err != nil {
				return err
			}
			if _, err := logging.ParseLevel(opts.LogLevel); err != nil {
				return err
			}
			return opts.validate()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	flags.StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "log level (debug, info, warn, error, disabled)")
	flags.BoolVar(&opts.Pretty, "pretty", opts.Pretty, "human-readable log output")
	flags.StringVar(&opts.Source, "source", opts.Source, "page source (simulated, redis)")
	flags.StringVar(&opts.RedisURL, "redis-url", opts.RedisURL, "Redis address for the redis source and page cache")
	flags.StringVar(&opts.RedisKey, "redis-key", opts.RedisKey, "Redis list holding the records")
	flags.IntVar(&opts.PageSize, "page-size", opts.PageSize, "records per page")
	flags.DurationVar(&opts.CacheTTL, "cache-ttl", opts.CacheTTL, "continuation page cache TTL (redis source)")
	flags.Int64Var(&opts.Seed, "seed", opts.Seed, "simulated source seed (0 for random)")
	flags.StringVar(&opts.SelfName, "self-name", opts.SelfName, "display name of your own record")
	flags.DurationVar(&opts.FetchTimeout, "fetch-timeout", opts.FetchTimeout, "per-page fetch timeout")
	flags.DurationVar(&opts.RefreshTimeout, "refresh-timeout", opts.RefreshTimeout, "refresh watchdog timeout")

	cmd.AddCommand(newServeCmd(opts), newBrowseCmd(opts), newConfigCmd(opts))
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(opts)
		},
	}
}

// loadFile applies the config file, if any. Flags set on the command line
// keep precedence over the file.
func (o *options) loadFile(flags *pflag.FlagSet) error {
	if o.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(o.ConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	changed := make(map[string]string)
	flags.Visit(func(f *pflag.Flag) {
		changed[f.Name] = f.Value.String()
	})

	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("parse config file %s: %w", o.ConfigFile, err)
	}

	for name, value := range changed {
		if err := flags.Set(name, value); err != nil {
			return fmt.Errorf("reapply flag --%s: %w", name, err)
		}
	}
	return nil
}

func (o *options) validate() error {
	switch o.Source {
	case sourceSimulated, sourceRedis:
	default:
		return fmt.Errorf("unknown source %q (want %s or %s)", o.Source, sourceSimulated, sourceRedis)
	}
	if o.PageSize <= 0 {
		return fmt.Errorf("page-size must be > 0, got %d", o.PageSize)
	}
	if o.CacheTTL < 0 {
		return fmt.Errorf("cache-ttl must be >= 0, got %s", o.CacheTTL)
	}
	return nil
}

func (o *options) loaderConfig() loader.Config {
	cfg := loader.DefaultConfig()
	cfg.SelfName = o.SelfName
	cfg.FetchTimeout = o.FetchTimeout
	return cfg
}

// buildFetcher creates the configured page source. The returned cleanup
// releases any connections it opened.
func (o *options) buildFetcher(ctx context.Context) (pagination.PageFetcher, func(), error) {
	switch o.Source {
	case sourceRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr: o.RedisURL,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", o.RedisURL, err)
		}
		log.Info().Str("addr", o.RedisURL).Str("key", o.RedisKey).Msg("Connected to Redis")

		src := source.NewRedisSource(redisClient, o.RedisKey, o.PageSize)
		fetcher := cache.NewCachingFetcher(src, cache.NewManager(redisClient), src.Key(), o.CacheTTL)
		return fetcher, func() { redisClient.Close() }, nil

	default:
		cfg := source.DefaultSimulatedConfig()
		cfg.PageSize = o.PageSize
		cfg.Seed = o.Seed
		return source.NewSimulated(cfg), func() {}, nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
