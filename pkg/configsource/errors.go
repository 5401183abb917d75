package configsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoData is returned when the service answers with an envelope whose data is null or missing.
	ErrNoData = errors.New("config source returned no data")
	// ErrMalformedEnvelope is returned when the response body is not a JSON envelope.
	ErrMalformedEnvelope = errors.New("malformed config envelope")
	// ErrUnknownDomain is returned for a domain without a route.
	ErrUnknownDomain = errors.New("unknown config domain")
)

// NetworkError reports a failed round trip: connection failure, timeout, open circuit
// or non-2xx status.
type NetworkError struct {
	Domain Domain
	// Status is the HTTP status code, 0 when no response was received.
	Status int
	Reason string
	Err    error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("fetch %s config", e.Domain)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// ShouldTrip reports whether err indicates an unhealthy config service.
// Client errors and empty payloads are answers, not outages.
func ShouldTrip(err error) bool {
	if err == nil || errors.Is(err, ErrNoData) || errors.Is(err, ErrUnknownDomain) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) && netErr.Status >= http.StatusBadRequest && netErr.Status < http.StatusInternalServerError {
		return netErr.Status == http.StatusTooManyRequests || netErr.Status == http.StatusRequestTimeout
	}
	return true
}
