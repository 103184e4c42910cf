package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	ImageKit   ImageKitConfig   `mapstructure:"imagekit"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Migrations MigrationsConfig `mapstructure:"migrations"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Addr               string `mapstructure:"addr" default:":8080"`
	GinMode            string `mapstructure:"gin_mode" default:"release"`
	ShutdownTimeoutSec int    `mapstructure:"shutdown_timeout_sec" default:"15"`
	ReadTimeoutSec     int    `mapstructure:"read_timeout_sec" default:"30"`
	WriteTimeoutSec    int    `mapstructure:"write_timeout_sec" default:"60"`
	MaxUploadSizeMB    int    `mapstructure:"max_upload_size_mb" default:"20"`
}

type StorageConfig struct {
	// BasePath is the application root used to re-root legacy absolute paths.
	BasePath string `mapstructure:"base_path" default:"."`
	// PublicPath is the public assets directory used as watermark fallback.
	PublicPath string       `mapstructure:"public_path" default:"public"`
	Disks      []DiskConfig `mapstructure:"disks"`
}

type DiskConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	Root   string `mapstructure:"root"`
	URL    string `mapstructure:"url"`

	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

type DimensionsConfig struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

type WatermarkConfig struct {
	Image    string `mapstructure:"image" default:"watermark.png"`
	Position string `mapstructure:"position" default:"bottom-right"`
	Opacity  *int   `mapstructure:"opacity" default:"50"`
	X        *int   `mapstructure:"x" default:"10"`
	Y        *int   `mapstructure:"y" default:"10"`
	Width    int    `mapstructure:"width"`
	Height   int    `mapstructure:"height"`
}

type ImageKitConfig struct {
	Disk              string   `mapstructure:"disk" default:"public"`
	DefaultSavedPath  string   `mapstructure:"default_saved_path" default:"uploads/images"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" default:"[\"jpg\",\"jpeg\",\"png\",\"webp\"]"`
	// MaxFileSizeKB of zero disables the size ceiling.
	MaxFileSizeKB  int64            `mapstructure:"max_file_size"`
	MaxDimensions  DimensionsConfig `mapstructure:"max_dimensions"`
	NamingStrategy string           `mapstructure:"naming_strategy" default:"default"`
	Dimensions     DimensionsConfig `mapstructure:"dimensions"`
	AspectRatio    *bool            `mapstructure:"aspect_ratio" default:"true"`
	Compress       *bool            `mapstructure:"compress" default:"true"`
	// CompressionQuality of zero selects the size-tiered heuristic.
	CompressionQuality   int                         `mapstructure:"compression_quality"`
	EnableMultiSize      bool                        `mapstructure:"enable_multi_size"`
	MultiSizeOptions     []string                    `mapstructure:"multi_size_options" default:"[\"small\",\"medium\",\"large\"]"`
	MultiSizeDimensions  map[string]DimensionsConfig `mapstructure:"multi_size_dimensions"`
	EnableWatermark      bool                        `mapstructure:"enable_watermark"`
	Watermark            WatermarkConfig             `mapstructure:"watermark"`
	WatermarkStoragePath string                      `mapstructure:"watermark_storage_path" default:"watermarks"`
	ReturnKeys           []string                    `mapstructure:"return_keys" default:"[\"name\"]"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	Slaves               string `mapstructure:"slaves"`
	MaxOpenConns         int    `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns         int    `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeSec   int    `mapstructure:"conn_max_lifetime_sec" default:"300"`
	ConnectRetries       int    `mapstructure:"connect_retries" default:"15"`
	ConnectRetryDelaySec int    `mapstructure:"connect_retry_delay_sec" default:"3"`
}

type MigrationsConfig struct {
	Path string `mapstructure:"path" default:"migrations"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic" default:"imagekit.events"`
	GroupID string   `mapstructure:"group_id" default:"imagekit-catalog"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" default:"100"`
	MaxBackups int    `mapstructure:"max_backups" default:"3"`
	MaxAgeDays int    `mapstructure:"max_age_days" default:"28"`
}

func defaultMultiSizeDimensions() map[string]DimensionsConfig {
	return map[string]DimensionsConfig{
		"small":  {Width: 300, Height: 300},
		"medium": {Width: 600, Height: 600},
		"large":  {Width: 1024, Height: 1024},
	}
}

func defaultDisks() []DiskConfig {
	return []DiskConfig{
		{Name: "public", Driver: "local", Root: "storage/app/public", URL: "/storage"},
		{Name: "local", Driver: "local", Root: "storage/app"},
	}
}

// Default returns a configuration with every option at its default value.
func Default() *Config {
	cfg := &Config{}
	if err := applyDefaults(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func applyDefaults(cfg *Config) error {
	if err := defaults.Set(cfg); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if cfg.ImageKit.MultiSizeDimensions == nil {
		cfg.ImageKit.MultiSizeDimensions = defaultMultiSizeDimensions()
	}
	if len(cfg.Storage.Disks) == 0 {
		cfg.Storage.Disks = defaultDisks()
	}
	for i := range cfg.Storage.Disks {
		if cfg.Storage.Disks[i].Driver == "" {
			cfg.Storage.Disks[i].Driver = "local"
		}
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := config.New()

	configPath := path
	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		} else if _, err := os.Stat("/app/config.yaml"); err == nil {
			configPath = "/app/config.yaml"
		} else {
			return nil, fmt.Errorf("config.yaml not found")
		}
	}

	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = ""
	}

	if err := cfg.Load(configPath, envPath, "APP"); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appConfig := &Config{}
	if err := cfg.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyDefaults(appConfig); err != nil {
		return nil, err
	}

	if err := Validate(appConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	zlog.Logger.Info().
		Str("disk", appConfig.ImageKit.Disk).
		Str("default_saved_path", appConfig.ImageKit.DefaultSavedPath).
		Strs("allowed_extensions", appConfig.ImageKit.AllowedExtensions).
		Str("naming_strategy", appConfig.ImageKit.NamingStrategy).
		Int("disks", len(appConfig.Storage.Disks)).
		Msg("Config loaded successfully via wbf")

	return appConfig, nil
}

func Validate(cfg *Config) error {
	// Server
	if cfg.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("server.shutdown_timeout_sec must be positive")
	}
	if cfg.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("server.max_upload_size_mb must be positive")
	}

	// Storage
	names := make(map[string]bool, len(cfg.Storage.Disks))
	for _, d := range cfg.Storage.Disks {
		if d.Name == "" {
			return fmt.Errorf("storage.disks[].name is required")
		}
		if names[d.Name] {
			return fmt.Errorf("storage.disks: duplicate disk %q", d.Name)
		}
		names[d.Name] = true

		switch d.Driver {
		case "local":
			if d.Root == "" {
				return fmt.Errorf("storage.disks[%s].root is required for local disks", d.Name)
			}
		case "s3":
			if d.S3Endpoint == "" {
				return fmt.Errorf("storage.disks[%s].s3_endpoint is required for s3 disks", d.Name)
			}
			if d.S3Bucket == "" {
				return fmt.Errorf("storage.disks[%s].s3_bucket is required for s3 disks", d.Name)
			}
			if d.S3AccessKey == "" || d.S3SecretKey == "" {
				return fmt.Errorf("storage.disks[%s].s3_access_key and s3_secret_key are required for s3 disks", d.Name)
			}
		default:
			return fmt.Errorf("storage.disks[%s].driver must be 'local' or 's3'", d.Name)
		}
	}

	// ImageKit
	ik := cfg.ImageKit
	if !names[ik.Disk] {
		return fmt.Errorf("imagekit.disk %q is not a configured disk", ik.Disk)
	}
	if len(ik.AllowedExtensions) == 0 {
		return fmt.Errorf("imagekit.allowed_extensions must contain at least one extension")
	}
	switch ik.NamingStrategy {
	case "default", "uuid", "hash", "timestamp":
	default:
		return fmt.Errorf("imagekit.naming_strategy must be one of default, uuid, hash, timestamp")
	}
	if ik.CompressionQuality < 0 || ik.CompressionQuality > 100 {
		return fmt.Errorf("imagekit.compression_quality must be between 0 and 100")
	}
	if ik.MaxFileSizeKB < 0 {
		return fmt.Errorf("imagekit.max_file_size must be non-negative")
	}
	if ik.EnableMultiSize {
		for _, label := range ik.MultiSizeOptions {
			if _, ok := ik.MultiSizeDimensions[label]; !ok {
				return fmt.Errorf("imagekit.multi_size_options: %q is not defined in multi_size_dimensions", label)
			}
		}
	}

	// Kafka
	if cfg.Kafka.Enabled() && strings.TrimSpace(cfg.Kafka.Topic) == "" {
		return fmt.Errorf("kafka.topic is required when kafka.brokers is set")
	}

	if cfg.Logging.Level == "" {
		return fmt.Errorf("logging.level is required")
	}

	return nil
}

// ValidateCatalog checks the settings the catalog worker cannot run without.
func ValidateCatalog(cfg *Config) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if cfg.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns must be non-negative")
	}
	if cfg.Migrations.Path == "" {
		return fmt.Errorf("migrations.path is required")
	}
	if !cfg.Kafka.Enabled() {
		return fmt.Errorf("kafka.brokers must contain at least one broker")
	}
	if cfg.Kafka.GroupID == "" {
		return fmt.Errorf("kafka.group_id is required")
	}
	return nil
}
