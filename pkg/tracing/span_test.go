package tracing

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledTracerReturnsNilSpans(t *testing.T) {
	ctx := context.Background()
	for _, tr := range []*Tracer{nil, NewTracer(false)} {
		got, span := tr.Start(ctx, "search")
		assert.Nil(t, span)
		assert.Equal(t, ctx, got)

		_, child := StartChild(got, "parse")
		assert.Nil(t, child)
		// No-ops on nil spans.
		span.SetAttr("k", 1)
		span.End()
	}
}

func TestSpanTree(t *testing.T) {
	ctx := logger.WithRequestID(context.Background(), "req-1")
	ctx, root := NewTracer(true).Start(ctx, "search")
	require.NotNil(t, root)
	assert.Same(t, root, FromContext(ctx))

	_, parse := StartChild(ctx, "parse")
	parse.SetAttr("terms", 2)
	parse.End()
	_, rank := StartChild(ctx, "rank")
	rank.End()
	root.End()

	assert.Equal(t, "req-1", root.TraceID)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "parse", root.Children[0].Name)
	assert.Equal(t, "req-1", root.Children[0].TraceID)
	assert.Equal(t, 2, root.Children[0].Attrs["terms"])
	assert.False(t, root.Children[1].root)
}
