// Package config provides configuration management for svcrunner.
package config

import (
	"os"
	"time"

	"svcrunner/internal/logger"
)

// Config is the root configuration structure.
type Config struct {
	Service ServiceConfig `json:"Service"`
	Logging logger.Config `json:"Logging"`
	Events  EventsConfig  `json:"Events"`
}

// ServiceConfig describes the supervised service: its identity in the
// service control manager and the run-loop timing parameters.
type ServiceConfig struct {
	Name        string `json:"Name"`
	DisplayName string `json:"DisplayName"`
	Description string `json:"Description"`
	BatPath     string `json:"BatPath"`
	WorkDir     string `json:"WorkDir"`

	// PollInterval bounds how long the run loop sleeps between
	// control-channel drains and child liveness checks.
	PollInterval time.Duration `json:"PollInterval"`
	// HeartbeatInterval bounds how often the run loop logs that the
	// child is still alive.
	HeartbeatInterval time.Duration `json:"HeartbeatInterval"`
	// StopWait bounds how long a stop waits for the killed child to be
	// reaped before giving up on the exit status.
	StopWait time.Duration `json:"StopWait"`
	// StartWaitHint and StopWaitHint are reported to the service control
	// manager while the service is in a pending state.
	StartWaitHint time.Duration `json:"StartWaitHint"`
	StopWaitHint  time.Duration `json:"StopWaitHint"`
}

// EventsConfig selects and configures the lifecycle event sink.
type EventsConfig struct {
	SinkType   string        `json:"SinkType"` // "none", "file", "kafka", "webhook", or "redis"
	File       FileConfig    `json:"File"`
	Kafka      KafkaConfig   `json:"Kafka"`
	Webhook    WebhookConfig `json:"Webhook"`
	Redis      RedisConfig   `json:"Redis"`
	SOCKSProxy SOCKSConfig   `json:"SocksProxy"`
}

// FileConfig contains settings for the file event sink.
type FileConfig struct {
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
}

// KafkaConfig contains Kafka connection settings.
type KafkaConfig struct {
	Brokers        []string      `json:"Brokers"`
	Topic          string        `json:"Topic"`
	Compression    string        `json:"Compression"`
	RequiredAcks   int           `json:"RequiredAcks"`
	MaxRetries     int           `json:"MaxRetries"`
	RetryBackoff   time.Duration `json:"RetryBackoff"`
	FlushFrequency time.Duration `json:"FlushFrequency"`
	FlushMessages  int           `json:"FlushMessages"`
	BatchSize      int           `json:"BatchSize"`
	Timeout        time.Duration `json:"Timeout"`
	EnableTLS      bool          `json:"EnableTLS"`
	TLSCertFile    string        `json:"TLSCertFile"`
	TLSKeyFile     string        `json:"TLSKeyFile"`
	TLSCAFile      string        `json:"TLSCAFile"`
	SASLEnabled    bool          `json:"SASLEnabled"`
	SASLMechanism  string        `json:"SASLMechanism"`
	SASLUser       string        `json:"SASLUser"`
	SASLPassword   string        `json:"SASLPassword"`
}

// WebhookConfig contains settings for the HTTP webhook event sink.
type WebhookConfig struct {
	URL        string        `json:"URL"`
	Timeout    time.Duration `json:"Timeout"`
	MaxRetries int           `json:"MaxRetries"`
	RetryDelay time.Duration `json:"RetryDelay"`
}

// RedisConfig contains settings for the Redis event sink. Events are
// pushed onto a list at Key, trimmed to MaxLen entries.
type RedisConfig struct {
	Addr     string `json:"Addr"`
	Password string `json:"Password"`
	DB       int    `json:"DB"`
	Key      string `json:"Key"`
	MaxLen   int64  `json:"MaxLen"`
}

// SOCKSConfig contains SOCKS5 proxy settings.
type SOCKSConfig struct {
	Host string `json:"Host"`
	Port int    `json:"Port"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:              "svcrunner",
			PollInterval:      1 * time.Second,
			HeartbeatInterval: 30 * time.Second,
			StopWait:          5 * time.Second,
			StartWaitHint:     10 * time.Second,
			StopWaitHint:      10 * time.Second,
		},
		Logging: logger.DefaultConfig(),
		Events: EventsConfig{
			SinkType: "none",
			File: FileConfig{
				FilePath:   "logs/events.jsonl",
				MaxSizeMB:  50,
				MaxBackups: 3,
			},
			Kafka: KafkaConfig{
				Brokers:        []string{"localhost:9092"},
				Topic:          "service-events",
				Compression:    "snappy",
				RequiredAcks:   1,
				MaxRetries:     3,
				RetryBackoff:   100 * time.Millisecond,
				FlushFrequency: 500 * time.Millisecond,
				FlushMessages:  100,
				BatchSize:      16384,
				Timeout:        10 * time.Second,
			},
			Webhook: WebhookConfig{
				Timeout:    10 * time.Second,
				MaxRetries: 2,
				RetryDelay: 500 * time.Millisecond,
			},
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Key:    "svcrunner:events",
				MaxLen: 1000,
			},
		},
	}
}

// Merge applies non-zero values from other to this config.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Merge Service config
	if other.Service.Name != "" {
		c.Service.Name = other.Service.Name
	}
	if other.Service.DisplayName != "" {
		c.Service.DisplayName = other.Service.DisplayName
	}
	if other.Service.Description != "" {
		c.Service.Description = other.Service.Description
	}
	if other.Service.BatPath != "" {
		c.Service.BatPath = other.Service.BatPath
	}
	if other.Service.WorkDir != "" {
		c.Service.WorkDir = other.Service.WorkDir
	}
	if other.Service.PollInterval != 0 {
		c.Service.PollInterval = other.Service.PollInterval
	}
	if other.Service.HeartbeatInterval != 0 {
		c.Service.HeartbeatInterval = other.Service.HeartbeatInterval
	}
	if other.Service.StopWait != 0 {
		c.Service.StopWait = other.Service.StopWait
	}
	if other.Service.StartWaitHint != 0 {
		c.Service.StartWaitHint = other.Service.StartWaitHint
	}
	if other.Service.StopWaitHint != 0 {
		c.Service.StopWaitHint = other.Service.StopWaitHint
	}

	// Merge Logging config
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxBackups != 0 {
		c.Logging.MaxBackups = other.Logging.MaxBackups
	}
	if other.Logging.MaxAgeDays != 0 {
		c.Logging.MaxAgeDays = other.Logging.MaxAgeDays
	}
	c.Logging.Compress = other.Logging.Compress
	c.Logging.Console = other.Logging.Console

	// Merge Events config
	if other.Events.SinkType != "" {
		c.Events.SinkType = other.Events.SinkType
	}
	if other.Events.File.FilePath != "" {
		c.Events.File.FilePath = other.Events.File.FilePath
	}
	if other.Events.File.MaxSizeMB != 0 {
		c.Events.File.MaxSizeMB = other.Events.File.MaxSizeMB
	}
	if other.Events.File.MaxBackups != 0 {
		c.Events.File.MaxBackups = other.Events.File.MaxBackups
	}

	// Merge Kafka config
	if len(other.Events.Kafka.Brokers) > 0 {
		c.Events.Kafka.Brokers = other.Events.Kafka.Brokers
	}
	if other.Events.Kafka.Topic != "" {
		c.Events.Kafka.Topic = other.Events.Kafka.Topic
	}
	if other.Events.Kafka.Compression != "" {
		c.Events.Kafka.Compression = other.Events.Kafka.Compression
	}
	if other.Events.Kafka.RequiredAcks != 0 {
		c.Events.Kafka.RequiredAcks = other.Events.Kafka.RequiredAcks
	}
	if other.Events.Kafka.MaxRetries != 0 {
		c.Events.Kafka.MaxRetries = other.Events.Kafka.MaxRetries
	}
	if other.Events.Kafka.RetryBackoff != 0 {
		c.Events.Kafka.RetryBackoff = other.Events.Kafka.RetryBackoff
	}
	if other.Events.Kafka.FlushFrequency != 0 {
		c.Events.Kafka.FlushFrequency = other.Events.Kafka.FlushFrequency
	}
	if other.Events.Kafka.FlushMessages != 0 {
		c.Events.Kafka.FlushMessages = other.Events.Kafka.FlushMessages
	}
	if other.Events.Kafka.BatchSize != 0 {
		c.Events.Kafka.BatchSize = other.Events.Kafka.BatchSize
	}
	if other.Events.Kafka.Timeout != 0 {
		c.Events.Kafka.Timeout = other.Events.Kafka.Timeout
	}
	c.Events.Kafka.EnableTLS = other.Events.Kafka.EnableTLS
	if other.Events.Kafka.TLSCertFile != "" {
		c.Events.Kafka.TLSCertFile = other.Events.Kafka.TLSCertFile
	}
	if other.Events.Kafka.TLSKeyFile != "" {
		c.Events.Kafka.TLSKeyFile = other.Events.Kafka.TLSKeyFile
	}
	if other.Events.Kafka.TLSCAFile != "" {
		c.Events.Kafka.TLSCAFile = other.Events.Kafka.TLSCAFile
	}
	c.Events.Kafka.SASLEnabled = other.Events.Kafka.SASLEnabled
	if other.Events.Kafka.SASLMechanism != "" {
		c.Events.Kafka.SASLMechanism = other.Events.Kafka.SASLMechanism
	}
	if other.Events.Kafka.SASLUser != "" {
		c.Events.Kafka.SASLUser = other.Events.Kafka.SASLUser
	}
	if other.Events.Kafka.SASLPassword != "" {
		c.Events.Kafka.SASLPassword = other.Events.Kafka.SASLPassword
	}

	// Merge Webhook config
	if other.Events.Webhook.URL != "" {
		c.Events.Webhook.URL = other.Events.Webhook.URL
	}
	if other.Events.Webhook.Timeout != 0 {
		c.Events.Webhook.Timeout = other.Events.Webhook.Timeout
	}
	if other.Events.Webhook.MaxRetries != 0 {
		c.Events.Webhook.MaxRetries = other.Events.Webhook.MaxRetries
	}
	if other.Events.Webhook.RetryDelay != 0 {
		c.Events.Webhook.RetryDelay = other.Events.Webhook.RetryDelay
	}

	// Merge Redis config
	if other.Events.Redis.Addr != "" {
		c.Events.Redis.Addr = other.Events.Redis.Addr
	}
	if other.Events.Redis.Password != "" {
		c.Events.Redis.Password = other.Events.Redis.Password
	}
	if other.Events.Redis.DB != 0 {
		c.Events.Redis.DB = other.Events.Redis.DB
	}
	if other.Events.Redis.Key != "" {
		c.Events.Redis.Key = other.Events.Redis.Key
	}
	if other.Events.Redis.MaxLen != 0 {
		c.Events.Redis.MaxLen = other.Events.Redis.MaxLen
	}

	// Merge SOCKS proxy config
	if other.Events.SOCKSProxy.Host != "" {
		c.Events.SOCKSProxy.Host = other.Events.SOCKSProxy.Host
	}
	if other.Events.SOCKSProxy.Port != 0 {
		c.Events.SOCKSProxy.Port = other.Events.SOCKSProxy.Port
	}
}

// Hostname returns the system hostname, or "unknown" if it cannot be
// determined.
func Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}
