package correlation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "abc")
	ctx, id := EnsureCorrelationID(ctx)
	require.Equal(t, "abc", id)
	require.Equal(t, "abc", ExtractCorrelationID(ctx))
}

func TestEnsureCorrelationIDGenerates(t *testing.T) {
	ctx, id := EnsureCorrelationID(context.Background())
	require.Len(t, id, 26)
	require.Equal(t, id, ExtractCorrelationID(ctx))
}

func TestMetadataRoundTrip(t *testing.T) {
	ctx := ContextWithCorrelationID(context.Background(), "cid-1")
	ctx = ContextWithRemoteSpan(ctx, "4bf92f3577b34da6a3ce929d0e0e4736", "00f067aa0ba902b7")

	md := Metadata(ctx, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.Equal(t, "cid-1", md["correlation_id"])
	require.Equal(t, "2024-01-02T03:04:05Z", md["published_at"])
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", md["trace_id"])

	restored := ContextFromMetadata(context.Background(), md)
	require.Equal(t, "cid-1", ExtractCorrelationID(restored))
}

func TestContextWithRemoteSpanIgnoresInvalid(t *testing.T) {
	ctx := context.Background()
	require.Equal(t, ctx, ContextWithRemoteSpan(ctx, "zz", "00f067aa0ba902b7"))
}
