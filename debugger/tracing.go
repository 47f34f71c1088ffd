// Copyright © 2018 The ELPS authors

package debugger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sdbg"

// Span attribute keys.
const (
	attrSessionID = attribute.Key("sdbg.session.id")
	attrThread    = attribute.Key("sdbg.thread")
	attrReason    = attribute.Key("sdbg.stop.reason")
	attrBreak     = attribute.Key("sdbg.breakpoint.id")
	attrCommand   = attribute.Key("sdbg.command")
)

// sessionTracer records a span for every stop and a child span for every
// command run while stopped.  Without a configured provider the global
// (no-op by default) provider is used.
type sessionTracer struct {
	tracer trace.Tracer
	id     string
}

func newSessionTracer(tp trace.TracerProvider, id string) *sessionTracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &sessionTracer{tracer: tp.Tracer(tracerName), id: id}
}

func (t *sessionTracer) startStop(ctx *Context, ev Event) (context.Context, trace.Span) {
	spanCtx, span := t.tracer.Start(context.Background(), "sdbg.stop")
	attrs := []attribute.KeyValue{
		attrSessionID.String(t.id),
		attrThread.Int(ctx.Thread),
		attrReason.String(ctx.Reason.String()),
		semconv.CodeFilepath(ev.Location.File),
		semconv.CodeLineNumber(ev.Location.Line),
	}
	if ev.Method != "" {
		attrs = append(attrs, semconv.CodeFunction(ev.Method))
	}
	if ctx.Breakpoint != nil {
		attrs = append(attrs, attrBreak.Int(ctx.Breakpoint.ID))
	}
	span.SetAttributes(attrs...)
	return spanCtx, span
}

func (t *sessionTracer) startCommand(parent context.Context, name string) trace.Span {
	if parent == nil {
		parent = context.Background()
	}
	_, span := t.tracer.Start(parent, "sdbg.command", trace.WithAttributes(
		attrSessionID.String(t.id),
		attrCommand.String(name),
	))
	return span
}

// stopTrace parents the command spans of one stop.
type stopTrace struct {
	ctx    context.Context
	tracer *sessionTracer
}

func (st stopTrace) command(name string) trace.Span {
	return st.tracer.startCommand(st.ctx, name)
}
