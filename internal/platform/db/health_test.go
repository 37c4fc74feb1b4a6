package db

import (
	"encoding/json"
	"testing"
)

func TestPoolStats_JSON(t *testing.T) {
	stats := PoolStats{
		TotalConns:      2,
		IdleConns:       1,
		AcquiredConns:   1,
		MaxConns:        4,
		AcquireCount:    12,
		AcquireDuration: "250ms",
		Healthy:         true,
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded["total_conns"] != float64(2) {
		t.Errorf("expected total_conns 2, got %v", decoded["total_conns"])
	}
	if decoded["acquire_duration"] != "250ms" {
		t.Errorf("expected acquire_duration 250ms, got %v", decoded["acquire_duration"])
	}
	if decoded["healthy"] != true {
		t.Errorf("expected healthy true, got %v", decoded["healthy"])
	}
}

func TestNewPool_EmptyURL(t *testing.T) {
	if _, err := NewPool(t.Context(), "", 4, 1); err == nil {
		t.Error("expected error for empty database url")
	}
}

func TestNewPool_InvalidURL(t *testing.T) {
	if _, err := NewPool(t.Context(), "postgres://%zz", 4, 1); err == nil {
		t.Error("expected error for malformed database url")
	}
}
