package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"svcrunner/internal/config"
)

func newTestRedisSink(t *testing.T, maxLen int64) (*RedisSink, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.RedisConfig{
		Addr:   mr.Addr(),
		Key:    "svcrunner:events",
		MaxLen: maxLen,
	}

	s, err := NewRedisSink(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create RedisSink: %v", err)
	}

	return s, mr
}

func TestNewRedisSink_RequiresAddr(t *testing.T) {
	_, err := NewRedisSink(config.RedisConfig{}, nil)
	if err == nil {
		t.Fatal("expected error for empty Addr, got nil")
	}
}

func TestRedisSink_Send_NewestFirst(t *testing.T) {
	s, mr := newTestRedisSink(t, 0)
	defer s.Close()

	kinds := []Kind{KindStarting, KindRunning, KindStopped}
	for _, k := range kinds {
		if err := s.Send(context.Background(), Event{Kind: k, Service: "svcrunner"}); err != nil {
			t.Fatalf("Send(%s) failed: %v", k, err)
		}
	}

	items, err := mr.List("svcrunner:events")
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	// LPUSH prepends: index 0 is the most recent event.
	var newest Event
	if err := json.Unmarshal([]byte(items[0]), &newest); err != nil {
		t.Fatalf("item is not a valid event: %v", err)
	}
	if newest.Kind != KindStopped {
		t.Errorf("expected newest kind=stopped, got %q", newest.Kind)
	}

	var oldest Event
	if err := json.Unmarshal([]byte(items[2]), &oldest); err != nil {
		t.Fatalf("item is not a valid event: %v", err)
	}
	if oldest.Kind != KindStarting {
		t.Errorf("expected oldest kind=starting, got %q", oldest.Kind)
	}
}

func TestRedisSink_Send_TrimsToMaxLen(t *testing.T) {
	s, mr := newTestRedisSink(t, 2)
	defer s.Close()

	kinds := []Kind{KindStarting, KindRunning, KindStopped}
	for _, k := range kinds {
		if err := s.Send(context.Background(), Event{Kind: k}); err != nil {
			t.Fatalf("Send(%s) failed: %v", k, err)
		}
	}

	items, err := mr.List("svcrunner:events")
	if err != nil {
		t.Fatalf("failed to read list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected list trimmed to 2 items, got %d", len(items))
	}

	// Oldest event must have been trimmed away.
	var kept Event
	if err := json.Unmarshal([]byte(items[1]), &kept); err != nil {
		t.Fatalf("item is not a valid event: %v", err)
	}
	if kept.Kind != KindRunning {
		t.Errorf("expected tail kind=running after trim, got %q", kept.Kind)
	}
}

func TestRedisSink_DefaultKey(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisSink(config.RedisConfig{Addr: mr.Addr()}, nil)
	if err != nil {
		t.Fatalf("failed to create RedisSink: %v", err)
	}
	defer s.Close()

	if err := s.Send(context.Background(), Event{Kind: KindHeartbeat}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if !mr.Exists("svcrunner:events") {
		t.Error("expected events under default key svcrunner:events")
	}
}

func TestRedisSink_SendAfterClose(t *testing.T) {
	s, _ := newTestRedisSink(t, 0)

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Send(context.Background(), Event{Kind: KindStopped}); err == nil {
		t.Fatal("expected error sending on closed sink, got nil")
	}
}

func TestRedisSink_CloseIsIdempotent(t *testing.T) {
	s, _ := newTestRedisSink(t, 0)

	if err := s.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}
