package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "public", cfg.ImageKit.Disk)
	assert.Equal(t, "uploads/images", cfg.ImageKit.DefaultSavedPath)
	assert.Equal(t, []string{"jpg", "jpeg", "png", "webp"}, cfg.ImageKit.AllowedExtensions)
	assert.Equal(t, []string{"name"}, cfg.ImageKit.ReturnKeys)
	require.NotNil(t, cfg.ImageKit.AspectRatio)
	assert.True(t, *cfg.ImageKit.AspectRatio)
	assert.Len(t, cfg.Storage.Disks, 2)
	assert.Contains(t, cfg.ImageKit.MultiSizeDimensions, "small")
	assert.False(t, cfg.Kafka.Enabled())
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown disk":   func(c *Config) { c.ImageKit.Disk = "cdn" },
		"duplicate disk": func(c *Config) { c.Storage.Disks = append(c.Storage.Disks, c.Storage.Disks[0]) },
		"unknown driver": func(c *Config) { c.Storage.Disks[0].Driver = "ftp" },
		"s3 without bucket": func(c *Config) {
			c.Storage.Disks[0] = DiskConfig{Name: "public", Driver: "s3", S3Endpoint: "minio:9000"}
		},
		"naming strategy":     func(c *Config) { c.ImageKit.NamingStrategy = "random" },
		"quality":             func(c *Config) { c.ImageKit.CompressionQuality = 101 },
		"no extensions":       func(c *Config) { c.ImageKit.AllowedExtensions = nil },
		"undefined size":      func(c *Config) { c.ImageKit.EnableMultiSize = true; c.ImageKit.MultiSizeOptions = []string{"huge"} },
		"kafka without topic": func(c *Config) { c.Kafka.Brokers = []string{"kafka:9092"}; c.Kafka.Topic = " " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateCatalog(t *testing.T) {
	cfg := Default()
	assert.Error(t, ValidateCatalog(cfg))

	cfg.Database.DSN = "postgres://imagekit@localhost/imagekit?sslmode=disable"
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	assert.NoError(t, ValidateCatalog(cfg))
}
