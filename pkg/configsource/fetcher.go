package configsource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/logger"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/metrics"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/observability/tracing"
	"github.com/bhatinags-creator/au-api-banking-sub001/pkg/resilience"
)

const (
	// RequestIDHeader carries the id generated for every round trip.
	RequestIDHeader = "X-Request-ID"

	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 4 << 20
)

// Fetch outcomes recorded in metrics.
const (
	outcomeSuccess     = "success"
	outcomeNoData      = "no_data"
	outcomeTimeout     = "timeout"
	outcomeCircuitOpen = "circuit_open"
	outcomeError       = "error"
)

// Options configures a Fetcher.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	CredentialsHeader string
	CredentialsToken  string
	UserAgent         string
	// ProbeEnvironment is the environment used by HealthCheck.
	ProbeEnvironment string

	HTTPClient *http.Client
	Breaker    *resilience.CircuitBreaker
	Logger     logger.Logger
	Metrics    *metrics.Engine
}

// Fetcher performs exactly one GET per Fetch against the config service.
// It neither retries nor caches.
type Fetcher struct {
	baseURL           string
	timeout           time.Duration
	credentialsHeader string
	credentialsToken  string
	userAgent         string
	probeEnvironment  string

	client  *http.Client
	breaker *resilience.CircuitBreaker
	log     logger.Logger
	metrics *metrics.Engine
}

// NewFetcher creates a fetcher for the service at opts.BaseURL.
func NewFetcher(opts Options) (*Fetcher, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid config source base url %q", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	probe := opts.ProbeEnvironment
	if probe == "" {
		probe = "sandbox"
	}

	return &Fetcher{
		baseURL:           base,
		timeout:           timeout,
		credentialsHeader: opts.CredentialsHeader,
		credentialsToken:  opts.CredentialsToken,
		userAgent:         opts.UserAgent,
		probeEnvironment:  probe,
		client:            client,
		breaker:           opts.Breaker,
		log:               logger.OrNop(opts.Logger),
		metrics:           opts.Metrics,
	}, nil
}

// Timeout returns the per-fetch timeout.
func (f *Fetcher) Timeout() time.Duration {
	return f.timeout
}

// Fetch retrieves the data member of the envelope served for req.
//
// Failures are *NetworkError (transport, timeout, open circuit, non-2xx),
// ErrNoData, or ErrMalformedEnvelope.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	rt, ok := routes[req.Domain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, req.Domain)
	}

	requestID := uuid.NewString()
	ctx = logger.ContextWithRequestID(ctx, requestID)
	ctx, span := tracing.StartFetchSpan(ctx, req.Domain.String(), req.Environment, req.Selector)
	defer span.End()

	log := f.log.WithContext(ctx).With(
		"domain", req.Domain.String(),
		"environment", req.Environment,
		"selector", req.Selector,
	)

	start := time.Now()
	var payload json.RawMessage
	call := func() error {
		return resilience.WithTimeout(ctx, f.timeout, func(ctx context.Context) error {
			data, err := f.roundTrip(ctx, rt, req, requestID)
			if err != nil {
				return err
			}
			payload = data
			return nil
		})
	}

	var err error
	if f.breaker != nil {
		err = f.breaker.Execute(call)
	} else {
		err = call()
	}
	err = f.classify(req.Domain, err)

	outcome := outcomeOf(err)
	f.metrics.ObserveFetch(req.Domain.String(), outcome, time.Since(start))
	if err != nil {
		tracing.RecordError(span, err)
		log.Debug("config fetch failed", "outcome", outcome, "error", err)
		return nil, err
	}
	tracing.RecordSuccess(span)
	log.Debug("config fetched", "bytes", len(payload), "duration", time.Since(start))
	return payload, nil
}

// HealthCheck probes the ui endpoint. An empty envelope still proves the service is reachable.
func (f *Fetcher) HealthCheck(ctx context.Context) error {
	err := resilience.WithTimeout(ctx, f.timeout, func(ctx context.Context) error {
		_, err := f.roundTrip(ctx, routes[DomainUI], Request{Domain: DomainUI, Environment: f.probeEnvironment}, uuid.NewString())
		return err
	})
	if errors.Is(err, ErrNoData) {
		return nil
	}
	return f.classify(DomainUI, err)
}

func (f *Fetcher) roundTrip(ctx context.Context, rt route, req Request, requestID string) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("environment", req.Environment)
	if rt.selectorParam != "" && req.Selector != "" {
		query.Set(rt.selectorParam, req.Selector)
	}
	target := f.baseURL + rt.path + "?" + query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{Domain: req.Domain, Reason: "build request", Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if f.userAgent != "" {
		httpReq.Header.Set("User-Agent", f.userAgent)
	}
	if f.credentialsHeader != "" && f.credentialsToken != "" {
		httpReq.Header.Set(f.credentialsHeader, f.credentialsToken)
	}
	tracing.InjectHeaders(ctx, httpReq.Header)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Domain: req.Domain, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &NetworkError{Domain: req.Domain, Status: resp.StatusCode, Reason: "read body", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Domain: req.Domain, Status: resp.StatusCode, Reason: http.StatusText(resp.StatusCode)}
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", req.Domain, ErrMalformedEnvelope, err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, fmt.Errorf("%s: %w", req.Domain, ErrNoData)
	}
	return json.RawMessage(data), nil
}

// classify wraps timeouts and open-circuit rejections into NetworkError.
func (f *Fetcher) classify(domain Domain, err error) error {
	switch {
	case err == nil:
		return nil
	case IsNetworkError(err), errors.Is(err, ErrNoData), errors.Is(err, ErrMalformedEnvelope):
		return err
	case errors.Is(err, resilience.ErrTimeout):
		return &NetworkError{Domain: domain, Reason: "timeout", Err: err}
	case errors.Is(err, resilience.ErrCircuitBreakerOpen):
		return &NetworkError{Domain: domain, Reason: "circuit open", Err: err}
	default:
		return &NetworkError{Domain: domain, Reason: "request failed", Err: err}
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return outcomeSuccess
	case errors.Is(err, ErrNoData):
		return outcomeNoData
	case errors.Is(err, resilience.ErrTimeout):
		return outcomeTimeout
	case errors.Is(err, resilience.ErrCircuitBreakerOpen):
		return outcomeCircuitOpen
	default:
		return outcomeError
	}
}
