package domain

import "testing"

func TestNewRuntimeConfig_Defaults(t *testing.T) {
	cfg := NewRuntimeConfig("", "", "", "")

	if cfg.StoreBackend != BackendMemory {
		t.Errorf("expected memory store, got %s", cfg.StoreBackend)
	}
	if cfg.CacheBackend != BackendMemory {
		t.Errorf("expected memory cache, got %s", cfg.CacheBackend)
	}
	if cfg.QueueBackend != BackendNone {
		t.Errorf("expected no queue, got %s", cfg.QueueBackend)
	}
	if cfg.LockBackend != BackendMemory {
		t.Errorf("expected memory lock, got %s", cfg.LockBackend)
	}
	if cfg.AsyncAnalysis() {
		t.Error("expected inline analysis without a queue")
	}
	if cfg.Durable() {
		t.Error("expected memory store to be non-durable")
	}
}

func TestRuntimeConfig_Backends(t *testing.T) {
	cfg := NewRuntimeConfig(BackendPostgres, BackendRedis, BackendRedis, BackendRedis)

	if !cfg.AsyncAnalysis() {
		t.Error("expected async analysis with a redis queue")
	}
	if !cfg.Durable() {
		t.Error("expected postgres store to be durable")
	}
}
