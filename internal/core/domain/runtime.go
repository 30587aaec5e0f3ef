package domain

// Backend names reported by RuntimeConfig
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendNone     = "none"
)

// RuntimeConfig records which infrastructure backs each concern.
// It is determined at startup and read-only afterwards.
type RuntimeConfig struct {
	StoreBackend string `json:"store"` // documents and chat history
	CacheBackend string `json:"cache"` // parsed CSV rows
	QueueBackend string `json:"queue"` // analysis tasks
	LockBackend  string `json:"lock"`  // per-document mutation locks
}

// NewRuntimeConfig creates a RuntimeConfig, defaulting empty fields
func NewRuntimeConfig(store, cache, queue, lock string) *RuntimeConfig {
	return &RuntimeConfig{
		StoreBackend: orDefault(store, BackendMemory),
		CacheBackend: orDefault(cache, BackendMemory),
		QueueBackend: orDefault(queue, BackendNone),
		LockBackend:  orDefault(lock, BackendMemory),
	}
}

// AsyncAnalysis returns true if uploads are analyzed by a worker
func (c *RuntimeConfig) AsyncAnalysis() bool {
	return c.QueueBackend != BackendNone
}

// Durable returns true if documents survive a restart
func (c *RuntimeConfig) Durable() bool {
	return c.StoreBackend == BackendPostgres
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
