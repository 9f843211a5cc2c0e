package metrics

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("user_id", "alice"),
		attribute.String("group_id", "456"),
		attribute.String("status", "accepted"),
	)
	if len(attrs) != 1 {
		t.Fatalf("expected 1 attribute, got %d", len(attrs))
	}
	if attrs[0].Key != "status" {
		t.Fatalf("expected status to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordGroupCreated(context.Background())
	m.RecordMessageSent(context.Background())
	m.RecordRateLimitDenied(context.Background(), "dm", "exhausted")
	m.RecordReaction(context.Background(), "status", "like")
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	if m == nil {
		t.Fatalf("expected noop metrics")
	}
	m.RecordInvitationTransition(context.Background(), "accepted")
	m.RecordPostCreated(context.Background(), "group_post")
	m.RecordReaction(context.Background(), "group_post", "reply")
}
