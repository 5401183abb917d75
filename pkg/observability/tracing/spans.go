package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer scope used by the engine.
const InstrumentationName = "github.com/bhatinags-creator/au-api-banking-sub001"

// Attribute keys shared by engine spans.
const (
	AttrDomain      = attribute.Key("portalcfg.domain")
	AttrEnvironment = attribute.Key("portalcfg.environment")
	AttrSelector    = attribute.Key("portalcfg.selector")
	AttrEntityType  = attribute.Key("portalcfg.entity_type")
	AttrSource      = attribute.Key("portalcfg.validation_source")
)

// StartFetchSpan starts a client span around one config source round trip.
func StartFetchSpan(ctx context.Context, domain, environment, selector string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(InstrumentationName).Start(ctx, "config.fetch "+domain,
		trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		AttrDomain.String(domain),
		AttrEnvironment.String(environment),
	)
	if selector != "" {
		span.SetAttributes(AttrSelector.String(selector))
	}
	return ctx, span
}

// StartValidationSpan starts an internal span around one validation call.
func StartValidationSpan(ctx context.Context, entityType, environment string) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(InstrumentationName).Start(ctx, "validation.validate "+entityType,
		trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(
		AttrEntityType.String(entityType),
		AttrEnvironment.String(environment),
	)
	return ctx, span
}

// InjectHeaders propagates the span context in ctx onto outgoing request headers.
func InjectHeaders(ctx context.Context, header http.Header) {
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(header))
}

// RecordError marks the span as failed.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// RecordSuccess sets the span status to OK.
func RecordSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}
