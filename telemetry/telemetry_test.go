package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestTimingLines(t *testing.T) {
	var buf bytes.Buffer
	p, err := Setup(context.Background(), Options{Timing: &buf})
	require.NoError(t, err)

	ctx, span := p.Start(context.Background(), SpanTranslate, attribute.Int("words", 3))
	_, inner := p.Start(ctx, "prepass")
	inner.End()
	span.End()
	_, span = p.Start(context.Background(), SpanExecute)
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	assert.Regexp(t, `^Translation time: \d+ ms\nExecution time: \d+ ms\n$`, buf.String())
}

func TestNoop(t *testing.T) {
	p := Noop()
	_, span := p.Start(context.Background(), SpanExecute)
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}
