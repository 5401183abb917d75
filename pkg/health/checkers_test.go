package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/resilience"
)

type fakeCheckable struct {
	err   error
	block bool
}

func (f *fakeCheckable) HealthCheck(ctx context.Context) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func TestAdapterChecker(t *testing.T) {
	ctx := context.Background()

	ok := NewStoreChecker(&fakeCheckable{}).Check(ctx)
	if ok.Status != StatusHealthy || ok.Name != "cache-store" {
		t.Fatalf("unexpected result %+v", ok)
	}

	down := NewStoreChecker(&fakeCheckable{err: errors.New("connection refused")}).Check(ctx)
	if down.Status != StatusUnhealthy || down.Error != "connection refused" {
		t.Fatalf("unexpected result %+v", down)
	}
}

func TestSourceChecker_DegradesOnFailure(t *testing.T) {
	res := NewSourceChecker(&fakeCheckable{err: errors.New("status 503")}, time.Second).Check(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", res.Status)
	}
	if res.Name != "config-source" {
		t.Fatalf("unexpected name %s", res.Name)
	}
}

func TestAdapterChecker_Timeout(t *testing.T) {
	c := NewAdapterChecker("slow", &fakeCheckable{block: true}, 20*time.Millisecond)
	res := c.Check(context.Background())
	if res.Status != StatusUnhealthy {
		t.Fatalf("expected unhealthy, got %s", res.Status)
	}
	if res.Duration >= time.Second {
		t.Fatalf("timeout not applied: %v", res.Duration)
	}
}

func TestBreakerChecker(t *testing.T) {
	cb := resilience.NewCircuitBreaker(resilience.BreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	c := NewBreakerChecker(cb)

	if res := c.Check(context.Background()); res.Status != StatusHealthy {
		t.Fatalf("expected healthy closed circuit, got %+v", res)
	}

	_ = cb.Execute(func() error { return errors.New("boom") })
	res := c.Check(context.Background())
	if res.Status != StatusDegraded {
		t.Fatalf("expected degraded open circuit, got %+v", res)
	}
	if res.Metadata["state"] != "open" || res.Metadata["failures"] != 1 {
		t.Fatalf("unexpected metadata %v", res.Metadata)
	}
}
