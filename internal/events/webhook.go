package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	"svcrunner/internal/config"
	"svcrunner/internal/logger"
)

const webhookContentType = "application/json"

// WebhookSink POSTs events to an HTTP endpoint with bounded retries.
type WebhookSink struct {
	client     *http.Client
	url        string
	maxRetries int
	retryDelay time.Duration
	mu         sync.RWMutex
	closed     bool
}

// NewWebhookSink creates a new HTTP webhook sink.
func NewWebhookSink(cfg config.WebhookConfig, socksCfg config.SOCKSConfig) (*WebhookSink, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webhook sink requires a URL")
	}

	transport := &http.Transport{}

	if socksCfg.Host != "" && socksCfg.Port > 0 {
		proxyAddr := fmt.Sprintf("%s:%d", socksCfg.Host, socksCfg.Port)
		socksDialer, err := proxy.SOCKS5("tcp", proxyAddr, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer for webhook: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return socksDialer.Dial(network, addr)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}

	return &WebhookSink{
		client:     client,
		url:        ensureHTTPScheme(cfg.URL),
		maxRetries: cfg.MaxRetries,
		retryDelay: retryDelay,
	}, nil
}

// Send POSTs a single event, retrying transient failures.
func (s *WebhookSink) Send(ctx context.Context, ev Event) error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return fmt.Errorf("sink is closed")
	}
	s.mu.RUnlock()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.retryDelay):
			}
		}

		lastErr = s.doPost(ctx, body)
		if lastErr == nil {
			return nil
		}

		log := logger.WithComponent("webhook-sink")
		log.Warn().
			Err(lastErr).
			Int("attempt", attempt+1).
			Msg("Webhook send failed, retrying")
	}

	return fmt.Errorf("webhook send failed after %d retries: %w", s.maxRetries, lastErr)
}

// Close releases resources.
func (s *WebhookSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *WebhookSink) doPost(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", webhookContentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}

	return nil
}

func ensureHTTPScheme(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr
	}
	return "http://" + addr
}
