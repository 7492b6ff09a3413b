package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func Test_WithSpanError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := tp.Tracer("test")

	_, span := tracer.Start(context.Background(), "ok")
	require.NoError(t, WithSpanError(span, nil))
	span.End()

	errSave := errors.New("save failed")

	_, span = tracer.Start(context.Background(), "failed")
	require.ErrorIs(t, WithSpanError(span, errSave), errSave)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	require.Equal(t, codes.Unset, spans[0].Status.Code)

	require.Equal(t, codes.Error, spans[1].Status.Code)
	require.Equal(t, "save failed", spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1)
}
