package engine

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"chatcli/message"
	"chatcli/provider"
)

// Spans are no-ops until the process installs an SDK tracer provider.
var tracer = otel.Tracer("chatcli/engine")

func (e *Engine) startRunSpan(ctx context.Context, entry string) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "engine."+entry)
	span.SetAttributes(
		attribute.Bool("engine.task", e.isTask),
		attribute.Int("engine.max_steps", e.maxSteps),
		attribute.String("provider.model", e.provider.GetModel()),
	)
	return ctx, span
}

func endRunSpan(span trace.Span, out Outcome) {
	span.SetAttributes(attribute.String("engine.state", out.State.String()))
	if out.State == StateFailed {
		span.SetStatus(codes.Error, "turn failed")
	}
	span.End()
}

func startStepSpan(ctx context.Context, step int) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "engine.step")
	span.SetAttributes(attribute.Int("step.index", step))
	return ctx, span
}

func endStepSpan(span trace.Span, finish provider.FinishReason, calls int, err error) {
	span.SetAttributes(
		attribute.String("step.finish_reason", string(finish)),
		attribute.Int("step.tool_calls", calls),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func startToolSpan(ctx context.Context, call message.ToolCall) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "tool."+call.Name)
	span.SetAttributes(
		attribute.String("tool.name", call.Name),
		attribute.String("tool.call_id", call.ID),
	)
	return ctx, span
}

func endToolSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
