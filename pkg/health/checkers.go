package health

import (
	"context"
	"time"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/resilience"
)

// Checkable is a component that can probe its own dependency.
type Checkable interface {
	HealthCheck(ctx context.Context) error
}

// AdapterChecker wraps a Checkable with a name and a timeout.
type AdapterChecker struct {
	name    string
	adapter Checkable
	timeout time.Duration
	// failStatus is reported when HealthCheck fails.
	failStatus Status
}

// NewAdapterChecker creates a checker reporting unhealthy on failure.
// A zero timeout means 5s.
func NewAdapterChecker(name string, adapter Checkable, timeout time.Duration) *AdapterChecker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AdapterChecker{name: name, adapter: adapter, timeout: timeout, failStatus: StatusUnhealthy}
}

// NewSourceChecker checks the config service. An unreachable service only degrades
// the engine since every domain falls back to its defaults.
func NewSourceChecker(source Checkable, timeout time.Duration) *AdapterChecker {
	c := NewAdapterChecker("config-source", source, timeout)
	c.failStatus = StatusDegraded
	return c
}

// NewStoreChecker checks a remote cache store.
func NewStoreChecker(store Checkable) *AdapterChecker {
	return NewAdapterChecker("cache-store", store, 3*time.Second)
}

func (c *AdapterChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.adapter.HealthCheck(checkCtx)
	res := CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		res.Status = c.failStatus
		res.Error = err.Error()
		return res
	}
	res.Message = "reachable"
	return res
}

func (c *AdapterChecker) Name() string {
	return c.name
}

// BreakerChecker reports the state of the fetch circuit breaker. An open or
// half-open circuit is degraded.
type BreakerChecker struct {
	breaker *resilience.CircuitBreaker
}

func NewBreakerChecker(breaker *resilience.CircuitBreaker) *BreakerChecker {
	return &BreakerChecker{breaker: breaker}
}

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	state := c.breaker.State()
	res := CheckResult{
		Name:      c.Name(),
		Status:    StatusHealthy,
		Message:   "circuit " + state.String(),
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"state":    state.String(),
			"failures": c.breaker.Failures(),
		},
	}
	if state != resilience.StateClosed {
		res.Status = StatusDegraded
	}
	return res
}

func (c *BreakerChecker) Name() string {
	return "circuit-breaker"
}
