package postgres

import (
	"context"
	"fmt"
	"time"
)

// DefaultPingTimeout bounds a single readiness probe.
const DefaultPingTimeout = 2 * time.Second

// HealthCheck probes the database with a trivial statement.
type HealthCheck struct {
	pool    Pool
	timeout time.Duration
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool, timeout: DefaultPingTimeout}
}

// Ping fails if the pool cannot run SELECT 1 within the probe timeout.
func (h *HealthCheck) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	if _, err := h.pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
