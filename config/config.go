package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/filegate"
	"github.com/sagarc03/filegate/database"
	filegatehttp "github.com/sagarc03/filegate/http"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for filegate.
type Config struct {
	Env      string                  `mapstructure:"env" validate:"omitempty,oneof=dev prod production"`
	Server   ServerConfig            `mapstructure:"server"`
	Storage  StorageConfig           `mapstructure:"storage"`
	MinIO    MinIOConfig             `mapstructure:"minio"`
	Local    LocalConfig             `mapstructure:"local"`
	Database database.Config         `mapstructure:"database"`
	CORS     filegatehttp.CORSConfig `mapstructure:"cors"`
	Log      LogConfig               `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size" validate:"min=0"`
	StreamList      bool          `mapstructure:"stream_list"`
	DownloadErrors  string        `mapstructure:"download_errors" validate:"required,oneof=precise conflate"`
	Metrics         bool          `mapstructure:"metrics"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

// StorageConfig selects the object store backend and the gateway's bucket.
type StorageConfig struct {
	Backend           string        `mapstructure:"backend" validate:"required,oneof=minio local"`
	Bucket            string        `mapstructure:"bucket" validate:"required"`
	Region            string        `mapstructure:"region" validate:"required"`
	PresignExpiry     time.Duration `mapstructure:"presign_expiry" validate:"min=1s,max=168h"`
	FailFastOnStartup bool          `mapstructure:"fail_fast_on_startup"`
	NamePolicy        string        `mapstructure:"name_policy" validate:"required,oneof=permissive strict"`
}

// MinIOConfig holds the S3-compatible endpoint settings.
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKey       string `mapstructure:"access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	VerifyOnPresign bool   `mapstructure:"verify_on_presign"`
}

// LocalConfig holds the filesystem backend settings.
// An empty SecretKey makes serve generate one per process.
type LocalConfig struct {
	Path      string `mapstructure:"path" validate:"required"`
	PublicURL string `mapstructure:"public_url" validate:"required,url"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	PageSize  int    `mapstructure:"page_size" validate:"min=1,max=10000"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is parsed leniently at logger setup: "warning" means warn and an
	// unknown name means info.
	Level string `mapstructure:"level"`
}

// IsProd reports whether the process runs with production logging.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// GatewayConfig returns the gateway settings carried by the storage section.
func (c *Config) GatewayConfig() filegate.GatewayConfig {
	return filegate.GatewayConfig{
		Bucket:            c.Storage.Bucket,
		Region:            c.Storage.Region,
		PresignExpiry:     c.Storage.PresignExpiry,
		NamePolicy:        filegate.NamePolicy(c.Storage.NamePolicy),
		FailFastOnStartup: c.Storage.FailFastOnStartup,
	}
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":      "database.type",
	"db-dsn":       "database.dsn",
	"backend":      "storage.backend",
	"bucket":       "storage.bucket",
	"fail-fast":    "storage.fail_fast_on_startup",
	"storage-path": "local.path",
	"endpoint":     "minio.endpoint",
	"port":         "server.port",
	"stream-list":  "server.stream_list",
	"log-level":    "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
// Every key needs a default so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit
	v.SetDefault("server.stream_list", false)
	v.SetDefault("server.download_errors", "precise")
	v.SetDefault("server.metrics", true)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("storage.backend", "minio")
	v.SetDefault("storage.bucket", filegate.DefaultBucket)
	v.SetDefault("storage.region", filegate.DefaultRegion)
	v.SetDefault("storage.presign_expiry", filegate.DefaultPresignExpiry)
	v.SetDefault("storage.fail_fast_on_startup", false)
	v.SetDefault("storage.name_policy", "permissive")

	v.SetDefault("minio.endpoint", "127.0.0.1:9000")
	v.SetDefault("minio.access_key", "minioadmin")
	v.SetDefault("minio.secret_key", "minioadmin123")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.verify_on_presign", true)

	v.SetDefault("local.path", "./data")
	v.SetDefault("local.public_url", "http://localhost:3000")
	v.SetDefault("local.access_key", "filegate")
	v.SetDefault("local.secret_key", "")
	v.SetDefault("local.page_size", 1000)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "filegate.db")
	v.SetDefault("database.tables.objects", "filegate_objects")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "HEAD", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.exposed_headers", []string{})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "") // empty: debug in dev, info in prod
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix("FILEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the cross-section rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.Storage.Backend == "minio" && c.MinIO.Endpoint == "" {
		return errors.New("validate config: minio.endpoint is required for the minio backend")
	}

	if c.Storage.Backend == "local" {
		if err := c.Database.Tables.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	return nil
}
