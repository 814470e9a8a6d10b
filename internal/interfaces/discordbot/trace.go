package discordbot

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var botTracer = otel.Tracer("rando-league/internal/interfaces/discordbot")

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return botTracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer))
}
