package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const envPrefix = "BLOG"

// Source kinds
const (
	SourceEmbed  = "embed"
	SourceDir    = "dir"
	SourceGithub = "github"
	SourceS3     = "s3"
)

type Config struct {
	Mode   string       `mapstructure:"mode"`
	Port   int          `mapstructure:"port"`
	Source SourceConfig `mapstructure:"source"`
	Github GithubConfig `mapstructure:"github"`
	S3     S3Config     `mapstructure:"s3"`
	Cache  CacheConfig  `mapstructure:"cache"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Site   SiteConfig   `mapstructure:"site"`
}

type SourceConfig struct {
	Kind string `mapstructure:"kind"`
	Dir  string `mapstructure:"dir"`
	// Policy is "fail-fast" or "skip-invalid"
	Policy         string `mapstructure:"policy"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
}

type GithubConfig struct {
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
	Dir   string `mapstructure:"dir"`
	Ref   string `mapstructure:"ref"`
	Token string `mapstructure:"token"`
}

type S3Config struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	// MaxAgeHours drops cached renders older than this at startup. 0 keeps everything.
	MaxAgeHours int `mapstructure:"max_age_hours"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type SiteConfig struct {
	PostsPath  string `mapstructure:"posts_path"`
	ImagesPath string `mapstructure:"images_path"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "production")
	v.SetDefault("port", 8080)
	v.SetDefault("source.kind", SourceEmbed)
	v.SetDefault("source.dir", "posts")
	v.SetDefault("source.policy", "fail-fast")
	v.SetDefault("source.max_concurrency", 0)
	v.SetDefault("github.dir", "posts")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.ref", "")
	v.SetDefault("github.token", "")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.prefix", "posts/")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "./portfolio.db")
	v.SetDefault("cache.max_age_hours", 0)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("site.posts_path", "/blog")
	v.SetDefault("site.images_path", "/images")
}

// Load reads configuration from defaults, an optional config.yaml, and BLOG_* environment variables,
// in increasing order of precedence. A .env file in the working directory is loaded first when present.
func Load(configPaths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range configPaths {
		v.AddConfigPath(p)
	}
	if len(configPaths) == 0 {
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Source.Kind {
	case SourceEmbed, SourceDir:
	case SourceGithub:
		if c.Github.Owner == "" || c.Github.Repo == "" {
			return fmt.Errorf("config: github source needs github.owner and github.repo")
		}
	case SourceS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("config: s3 source needs s3.bucket")
		}
	default:
		return fmt.Errorf("config: unknown source kind %q", c.Source.Kind)
	}

	switch c.Source.Policy {
	case "fail-fast", "skip-invalid":
	default:
		return fmt.Errorf("config: unknown source policy %q", c.Source.Policy)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}

	return nil
}
