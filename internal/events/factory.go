package events

import (
	"fmt"
	"strings"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
	"svcrunner/internal/network"
)

// NewSink creates a Sink based on the configuration.
func NewSink(cfg config.EventsConfig) (Sink, error) {
	log := logger.WithComponent("events-factory")

	sinkType := strings.ToLower(cfg.SinkType)
	if sinkType == "" {
		sinkType = "none"
	}

	log.Info().
		Str("sink_type", sinkType).
		Msg("Creating event sink")

	switch sinkType {
	case "none":
		return NopSink{}, nil
	case "file":
		return NewFileSink(cfg.File)
	case "kafka":
		return NewKafkaSink(cfg.Kafka, cfg.SOCKSProxy)
	case "webhook":
		return NewWebhookSink(cfg.Webhook, cfg.SOCKSProxy)
	case "redis":
		return NewRedisSink(cfg.Redis, network.DialerFunc(cfg.SOCKSProxy.Host, cfg.SOCKSProxy.Port))
	default:
		return nil, fmt.Errorf("unknown sink type: %s (supported: none, file, kafka, webhook, redis)", sinkType)
	}
}
