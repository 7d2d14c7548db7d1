// Package telemetry times translation and execution with OpenTelemetry spans.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	ServiceName = "hostjit"

	SpanTranslate = "translate"
	SpanExecute   = "execute"
)

var timingLabels = map[string]string{
	SpanTranslate: "Translation time",
	SpanExecute:   "Execution time",
}

type Options struct {
	// Timing receives one "<phase> time: N ms" line per finished phase span.
	Timing io.Writer
	// OTLPEndpoint exports spans over OTLP/HTTP when set (host:port).
	OTLPEndpoint string
}

// Provider owns the tracer provider for one CLI run.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

func Setup(ctx context.Context, opts Options) (*Provider, error) {
	var spOpts []sdktrace.TracerProviderOption
	spOpts = append(spOpts, sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))))
	if opts.Timing != nil {
		spOpts = append(spOpts, sdktrace.WithSpanProcessor(NewTimingProcessor(opts.Timing)))
	}
	if opts.OTLPEndpoint != "" {
		exp, err := otlptracehttp.New(ctx,
			otlptracehttp.WithEndpoint(opts.OTLPEndpoint),
			otlptracehttp.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("otlp exporter: %w", err)
		}
		spOpts = append(spOpts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(spOpts...)
	return &Provider{tp: tp, tracer: tp.Tracer(ServiceName)}, nil
}

// Noop returns a provider that records nothing.
func Noop() *Provider {
	return &Provider{tracer: noop.NewTracerProvider().Tracer(ServiceName)}
}

// Start begins a phase span.
func (p *Provider) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// Shutdown flushes exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

// TimingProcessor prints the duration of translate and execute spans.
type TimingProcessor struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTimingProcessor(w io.Writer) *TimingProcessor {
	return &TimingProcessor{w: w}
}

func (p *TimingProcessor) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {}

func (p *TimingProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	label, ok := timingLabels[s.Name()]
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s: %d ms\n", label, s.EndTime().Sub(s.StartTime()).Milliseconds())
}

func (p *TimingProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *TimingProcessor) ForceFlush(ctx context.Context) error { return nil }
