package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/objectfs/s3kv/internal/metrics"
	"github.com/objectfs/s3kv/internal/storage/s3"
	"github.com/objectfs/s3kv/pkg/errors"
	"github.com/objectfs/s3kv/pkg/utils"
)

// EnvPrefix prefixes every environment variable LoadFromEnv reads.
const EnvPrefix = "S3KV_"

// Configuration represents the complete application configuration
type Configuration struct {
	Global     GlobalConfig     `yaml:"global"`
	Storage    StorageConfig    `yaml:"storage"`
	Network    NetworkConfig    `yaml:"network"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`
}

// StorageConfig describes the bucket the driver talks to.
type StorageConfig struct {
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`

	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`

	StorageClass    string `yaml:"storage_class"`
	DeleteBatchSize int    `yaml:"delete_batch_size"`
	ListPageSize    int    `yaml:"list_page_size"`
	ListAll         bool   `yaml:"list_all"`

	Transfer TransferConfig `yaml:"transfer"`
}

// TransferConfig configures accelerated uploads. Sizes are human-readable ("32MB").
type TransferConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Threshold   string `yaml:"threshold"`
	ChunkSize   string `yaml:"chunk_size"`
	Concurrency int    `yaml:"concurrency"`
}

// NetworkConfig represents network configuration
type NetworkConfig struct {
	Timeouts TimeoutConfig `yaml:"timeouts"`
	Retry    RetryConfig   `yaml:"retry"`
}

// TimeoutConfig represents timeout settings
type TimeoutConfig struct {
	Request time.Duration `yaml:"request"`
}

// RetryConfig represents SDK retry settings. The driver itself never retries.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
}

// MonitoringConfig represents monitoring settings
type MonitoringConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig represents metrics settings
type MetricsConfig struct {
	Enabled      bool              `yaml:"enabled"`
	Port         int               `yaml:"port"`
	Path         string            `yaml:"path"`
	Namespace    string            `yaml:"namespace"`
	CustomLabels map[string]string `yaml:"custom_labels"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:  "INFO",
			LogFormat: "text",
			LogFile:   "",
		},
		Storage: StorageConfig{
			DeleteBatchSize: s3.DefaultDeleteBatchSize,
			Transfer: TransferConfig{
				Enabled:     false,
				Threshold:   "32MB",
				ChunkSize:   "16MB",
				Concurrency: 8,
			},
		},
		Network: NetworkConfig{
			Timeouts: TimeoutConfig{
				Request: 30 * time.Second,
			},
			Retry: RetryConfig{
				MaxAttempts: 3,
			},
		},
		Monitoring: MonitoringConfig{
			Metrics: MetricsConfig{
				Enabled:   false,
				Port:      8080,
				Path:      "/metrics",
				Namespace: "s3kv",
				CustomLabels: map[string]string{
					"service": "s3kv",
				},
			},
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadError("failed to read config file", err).WithContext("file", filename)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return loadError("failed to parse config file", err).WithContext("file", filename)
	}

	return nil
}

// LoadFromEnv overrides settings from S3KV_* environment variables.
func (c *Configuration) LoadFromEnv() error {
	// Global settings
	setString(&c.Global.LogLevel, "LOG_LEVEL")
	setString(&c.Global.LogFormat, "LOG_FORMAT")
	setString(&c.Global.LogFile, "LOG_FILE")

	// Storage settings
	setString(&c.Storage.Bucket, "BUCKET")
	setString(&c.Storage.Prefix, "PREFIX")
	setString(&c.Storage.Region, "REGION")
	setString(&c.Storage.Endpoint, "ENDPOINT")
	setString(&c.Storage.AccessKeyID, "ACCESS_KEY_ID")
	setString(&c.Storage.SecretAccessKey, "SECRET_ACCESS_KEY")
	setString(&c.Storage.SessionToken, "SESSION_TOKEN")
	setString(&c.Storage.StorageClass, "STORAGE_CLASS")
	setString(&c.Storage.Transfer.Threshold, "TRANSFER_THRESHOLD")
	setString(&c.Storage.Transfer.ChunkSize, "TRANSFER_CHUNK_SIZE")
	setBool(&c.Storage.ForcePathStyle, "FORCE_PATH_STYLE")
	setBool(&c.Storage.ListAll, "LIST_ALL")
	setBool(&c.Storage.Transfer.Enabled, "TRANSFER_ENABLED")
	setBool(&c.Monitoring.Metrics.Enabled, "METRICS_ENABLED")

	ints := []struct {
		name string
		dst  *int
	}{
		{"DELETE_BATCH_SIZE", &c.Storage.DeleteBatchSize},
		{"LIST_PAGE_SIZE", &c.Storage.ListPageSize},
		{"TRANSFER_CONCURRENCY", &c.Storage.Transfer.Concurrency},
		{"MAX_ATTEMPTS", &c.Network.Retry.MaxAttempts},
		{"METRICS_PORT", &c.Monitoring.Metrics.Port},
	}
	for _, v := range ints {
		val := os.Getenv(EnvPrefix + v.name)
		if val == "" {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return loadError("invalid integer in environment", err).WithContext("variable", EnvPrefix+v.name)
		}
		*v.dst = n
	}

	if val := os.Getenv(EnvPrefix + "REQUEST_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return loadError("invalid duration in environment", err).WithContext("variable", EnvPrefix+"REQUEST_TIMEOUT")
		}
		c.Network.Timeouts.Request = d
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Configuration) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return saveError("failed to marshal config", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return saveError("failed to create config directory", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return saveError("failed to write config file", err)
	}

	return nil
}

// Validate checks settings that do not depend on the storage URI.
// Bucket and credential checks happen when the driver is created.
func (c *Configuration) Validate() error {
	if _, err := utils.ParseLogLevel(c.Global.LogLevel); err != nil {
		return invalid("global.log_level", fmt.Sprintf("invalid log_level: %s (must be one of: DEBUG, INFO, WARN, ERROR)", c.Global.LogLevel))
	}
	if _, err := utils.ParseLogFormat(c.Global.LogFormat); err != nil {
		return invalid("global.log_format", fmt.Sprintf("invalid log_format: %s (must be text or json)", c.Global.LogFormat))
	}

	if c.Network.Timeouts.Request < 0 {
		return invalid("network.timeouts.request", "request timeout cannot be negative")
	}
	if c.Network.Retry.MaxAttempts < 0 {
		return invalid("network.retry.max_attempts", "max_attempts cannot be negative")
	}

	if c.Storage.DeleteBatchSize < 0 || c.Storage.DeleteBatchSize > s3.MaxDeleteBatchSize {
		return invalid("storage.delete_batch_size",
			fmt.Sprintf("delete_batch_size must be between 1 and %d", s3.MaxDeleteBatchSize))
	}
	if _, err := c.Storage.transferOptions(); err != nil {
		return err
	}

	if m := c.Monitoring.Metrics; m.Enabled {
		if m.Port <= 0 || m.Port > 65535 {
			return invalid("monitoring.metrics.port", fmt.Sprintf("invalid metrics port: %d", m.Port))
		}
		if !strings.HasPrefix(m.Path, "/") {
			return invalid("monitoring.metrics.path", "metrics path must start with /")
		}
	}

	return nil
}

// DriverOptions converts the storage and network sections into driver options.
func (c *Configuration) DriverOptions() (s3.Options, error) {
	transfer, err := c.Storage.transferOptions()
	if err != nil {
		return s3.Options{}, err
	}

	return s3.Options{
		Bucket:          c.Storage.Bucket,
		Prefix:          c.Storage.Prefix,
		Region:          c.Storage.Region,
		Endpoint:        c.Storage.Endpoint,
		ForcePathStyle:  c.Storage.ForcePathStyle,
		AccessKeyID:     c.Storage.AccessKeyID,
		SecretAccessKey: c.Storage.SecretAccessKey,
		SessionToken:    c.Storage.SessionToken,
		MaxAttempts:     c.Network.Retry.MaxAttempts,
		RequestTimeout:  c.Network.Timeouts.Request,
		DeleteBatchSize: c.Storage.DeleteBatchSize,
		ListPageSize:    c.Storage.ListPageSize,
		ListAll:         c.Storage.ListAll,
		StorageClass:    c.Storage.StorageClass,
		Transfer:        transfer,
	}, nil
}

// MetricsConfig converts the monitoring section into collector settings.
func (c *Configuration) MetricsConfig() *metrics.Config {
	m := c.Monitoring.Metrics
	return &metrics.Config{
		Enabled:   m.Enabled,
		Port:      m.Port,
		Path:      m.Path,
		Namespace: m.Namespace,
		Labels:    m.CustomLabels,
	}
}

func (s StorageConfig) transferOptions() (s3.TransferOptions, error) {
	opts := s3.NewDefaultTransferOptions()
	opts.Enabled = s.Transfer.Enabled
	if s.Transfer.Concurrency > 0 {
		opts.Concurrency = s.Transfer.Concurrency
	}

	if s.Transfer.Threshold != "" {
		n, err := utils.ParseBytes(s.Transfer.Threshold)
		if err != nil {
			return s3.TransferOptions{}, invalid("storage.transfer.threshold", err.Error())
		}
		opts.Threshold = n
	}
	if s.Transfer.ChunkSize != "" {
		n, err := utils.ParseBytes(s.Transfer.ChunkSize)
		if err != nil {
			return s3.TransferOptions{}, invalid("storage.transfer.chunk_size", err.Error())
		}
		opts.ChunkSize = n
	}

	return opts, nil
}

func setString(dst *string, name string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = val
	}
}

func setBool(dst *bool, name string) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		*dst = strings.ToLower(val) == "true" || val == "1"
	}
}

func invalid(field, msg string) *errors.Error {
	return errors.NewError(errors.ErrCodeInvalidConfig, msg).
		WithComponent("config").
		WithOperation("Validate").
		WithContext("field", field)
}

func loadError(msg string, cause error) *errors.Error {
	return errors.NewError(errors.ErrCodeConfigLoad, msg).
		WithComponent("config").
		WithCause(cause)
}

func saveError(msg string, cause error) *errors.Error {
	return errors.NewError(errors.ErrCodeConfigSave, msg).
		WithComponent("config").
		WithCause(cause)
}
