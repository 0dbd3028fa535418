package model

// ServiceStats is the /stats payload.
type ServiceStats struct {
	Started bool   `json:"started"`
	Driver  string `json:"driver"`
	// Uptime and Pool are only reported while the store is open.
	UptimeSeconds int64      `json:"uptimeSeconds,omitempty"`
	Pool          *PoolStats `json:"pool,omitempty"`
}

// PoolStats mirrors the database/sql pool counters.
type PoolStats struct {
	OpenConnections    int   `json:"openConnections"`
	InUse              int   `json:"inUse"`
	Idle               int   `json:"idle"`
	WaitCount          int64 `json:"waitCount"`
	WaitDurationMs     int64 `json:"waitDurationMs"`
	MaxOpenConnections int   `json:"maxOpenConnections"`
}
