package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"svcrunner/internal/logger"
)

// rawConfig is used for JSON unmarshaling with duration strings.
type rawConfig struct {
	Service rawServiceConfig `json:"Service"`
	Logging logger.Config    `json:"Logging"`
	Events  rawEventsConfig  `json:"Events"`
}

type rawServiceConfig struct {
	Name              string `json:"Name"`
	DisplayName       string `json:"DisplayName"`
	Description       string `json:"Description"`
	BatPath           string `json:"BatPath"`
	WorkDir           string `json:"WorkDir"`
	PollInterval      string `json:"PollInterval"`
	HeartbeatInterval string `json:"HeartbeatInterval"`
	StopWait          string `json:"StopWait"`
	StartWaitHint     string `json:"StartWaitHint"`
	StopWaitHint      string `json:"StopWaitHint"`
}

type rawEventsConfig struct {
	SinkType   string           `json:"SinkType"`
	File       FileConfig       `json:"File"`
	Kafka      rawKafkaConfig   `json:"Kafka"`
	Webhook    rawWebhookConfig `json:"Webhook"`
	Redis      RedisConfig      `json:"Redis"`
	SOCKSProxy SOCKSConfig      `json:"SocksProxy"`
}

type rawKafkaConfig struct {
	Brokers        []string `json:"Brokers"`
	Topic          string   `json:"Topic"`
	Compression    string   `json:"Compression"`
	RequiredAcks   int      `json:"RequiredAcks"`
	MaxRetries     int      `json:"MaxRetries"`
	RetryBackoff   string   `json:"RetryBackoff"`
	FlushFrequency string   `json:"FlushFrequency"`
	FlushMessages  int      `json:"FlushMessages"`
	BatchSize      int      `json:"BatchSize"`
	Timeout        string   `json:"Timeout"`
	EnableTLS      bool     `json:"EnableTLS"`
	TLSCertFile    string   `json:"TLSCertFile"`
	TLSKeyFile     string   `json:"TLSKeyFile"`
	TLSCAFile      string   `json:"TLSCAFile"`
	SASLEnabled    bool     `json:"SASLEnabled"`
	SASLMechanism  string   `json:"SASLMechanism"`
	SASLUser       string   `json:"SASLUser"`
	SASLPassword   string   `json:"SASLPassword"`
}

type rawWebhookConfig struct {
	URL        string `json:"URL"`
	Timeout    string `json:"Timeout"`
	MaxRetries int    `json:"MaxRetries"`
	RetryDelay string `json:"RetryDelay"`
}

// Load reads configuration from the specified file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// LoadOrDefault reads configuration from the specified file path. A
// missing file is not an error: the defaults are returned. Any other
// read or parse failure is.
func LoadOrDefault(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from JSON bytes.
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	cfg := DefaultConfig()
	parsed, err := convertRawConfig(&raw)
	if err != nil {
		return nil, err
	}

	cfg.Merge(parsed)
	return cfg, nil
}

func convertRawConfig(raw *rawConfig) (*Config, error) {
	cfg := &Config{
		Logging: raw.Logging,
	}

	svc, err := convertRawService(&raw.Service)
	if err != nil {
		return nil, err
	}
	cfg.Service = *svc

	cfg.Events.SinkType = raw.Events.SinkType
	cfg.Events.File = raw.Events.File
	cfg.Events.Redis = raw.Events.Redis
	cfg.Events.SOCKSProxy = raw.Events.SOCKSProxy

	kafka, err := convertRawKafka(&raw.Events.Kafka)
	if err != nil {
		return nil, err
	}
	cfg.Events.Kafka = *kafka

	webhook, err := convertRawWebhook(&raw.Events.Webhook)
	if err != nil {
		return nil, err
	}
	cfg.Events.Webhook = *webhook

	return cfg, nil
}

func convertRawService(raw *rawServiceConfig) (*ServiceConfig, error) {
	svc := &ServiceConfig{
		Name:        raw.Name,
		DisplayName: raw.DisplayName,
		Description: raw.Description,
		BatPath:     raw.BatPath,
		WorkDir:     raw.WorkDir,
	}

	durations := []struct {
		name string
		in   string
		out  *time.Duration
	}{
		{"PollInterval", raw.PollInterval, &svc.PollInterval},
		{"HeartbeatInterval", raw.HeartbeatInterval, &svc.HeartbeatInterval},
		{"StopWait", raw.StopWait, &svc.StopWait},
		{"StartWaitHint", raw.StartWaitHint, &svc.StartWaitHint},
		{"StopWaitHint", raw.StopWaitHint, &svc.StopWaitHint},
	}
	for _, d := range durations {
		if d.in == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.in)
		if err != nil {
			return nil, fmt.Errorf("invalid %s duration: %w", d.name, err)
		}
		*d.out = parsed
	}

	return svc, nil
}

func convertRawKafka(raw *rawKafkaConfig) (*KafkaConfig, error) {
	kafka := &KafkaConfig{
		Brokers:       raw.Brokers,
		Topic:         raw.Topic,
		Compression:   raw.Compression,
		RequiredAcks:  raw.RequiredAcks,
		MaxRetries:    raw.MaxRetries,
		FlushMessages: raw.FlushMessages,
		BatchSize:     raw.BatchSize,
		EnableTLS:     raw.EnableTLS,
		TLSCertFile:   raw.TLSCertFile,
		TLSKeyFile:    raw.TLSKeyFile,
		TLSCAFile:     raw.TLSCAFile,
		SASLEnabled:   raw.SASLEnabled,
		SASLMechanism: raw.SASLMechanism,
		SASLUser:      raw.SASLUser,
		SASLPassword:  raw.SASLPassword,
	}

	if raw.RetryBackoff != "" {
		d, err := time.ParseDuration(raw.RetryBackoff)
		if err != nil {
			return nil, fmt.Errorf("invalid RetryBackoff duration: %w", err)
		}
		kafka.RetryBackoff = d
	}

	if raw.FlushFrequency != "" {
		d, err := time.ParseDuration(raw.FlushFrequency)
		if err != nil {
			return nil, fmt.Errorf("invalid FlushFrequency duration: %w", err)
		}
		kafka.FlushFrequency = d
	}

	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid Timeout duration: %w", err)
		}
		kafka.Timeout = d
	}

	return kafka, nil
}

func convertRawWebhook(raw *rawWebhookConfig) (*WebhookConfig, error) {
	webhook := &WebhookConfig{
		URL:        raw.URL,
		MaxRetries: raw.MaxRetries,
	}

	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid Timeout duration: %w", err)
		}
		webhook.Timeout = d
	}

	if raw.RetryDelay != "" {
		d, err := time.ParseDuration(raw.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("invalid RetryDelay duration: %w", err)
		}
		webhook.RetryDelay = d
	}

	return webhook, nil
}
