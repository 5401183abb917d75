package configcache

import (
	"fmt"
	"strings"
	"time"
)

// Default freshness windows.
const (
	DefaultStaleAfter = 5 * time.Minute
	DefaultEvictAfter = 10 * time.Minute
)

// Key identifies one cached fetch.
type Key struct {
	Domain      string
	Environment string
	Selector    string
}

// String renders the deterministic store key. Keys of one domain share the prefix
// returned by domainPrefix.
func (k Key) String() string {
	return environmentPrefix(k.Domain, k.Environment) + k.Selector
}

func domainPrefix(domain string) string {
	return strings.ToLower(domain) + "|"
}

func environmentPrefix(domain, environment string) string {
	return domainPrefix(domain) + environment + "|"
}

// Policy holds the freshness windows applied to an entry when it is stored.
type Policy struct {
	StaleAfter time.Duration
	EvictAfter time.Duration
}

// DefaultPolicy returns the 5m/10m policy.
func DefaultPolicy() Policy {
	return Policy{StaleAfter: DefaultStaleAfter, EvictAfter: DefaultEvictAfter}
}

// Validate reports a policy whose eviction does not leave room for a stale phase.
func (p Policy) Validate() error {
	if p.StaleAfter <= 0 {
		return fmt.Errorf("stale after must be positive, got %s", p.StaleAfter)
	}
	if p.EvictAfter < 2*p.StaleAfter {
		return fmt.Errorf("evict after (%s) must be at least twice stale after (%s)", p.EvictAfter, p.StaleAfter)
	}
	return nil
}

// normalized fills a missing stale window with the default and stretches eviction
// to at least twice the stale window.
func (p Policy) normalized() Policy {
	if p.StaleAfter <= 0 {
		p.StaleAfter = DefaultStaleAfter
	}
	if p.EvictAfter < 2*p.StaleAfter {
		p.EvictAfter = 2 * p.StaleAfter
	}
	return p
}

// State is the freshness of an entry at a point in time.
type State int

const (
	// StateFresh entries are served without a network call.
	StateFresh State = iota
	// StateStale entries are served and trigger a background refresh.
	StateStale
	// StateEvicted entries are dropped and refetched synchronously.
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateEvicted:
		return "evicted"
	default:
		return "unknown"
	}
}

// Entry is a fetched value with its freshness windows.
type Entry[T any] struct {
	Value      T             `json:"value"`
	FetchedAt  time.Time     `json:"fetched_at"`
	StaleAfter time.Duration `json:"stale_after"`
	EvictAfter time.Duration `json:"evict_after"`
}

// StateAt returns the entry's freshness at now.
func (e Entry[T]) StateAt(now time.Time) State {
	age := now.Sub(e.FetchedAt)
	switch {
	case age < e.StaleAfter:
		return StateFresh
	case age < e.EvictAfter:
		return StateStale
	default:
		return StateEvicted
	}
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}
