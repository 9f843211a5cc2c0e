package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes domain instruments for the social graph.
type Metrics struct {
	groupsCreated     metric.Int64Counter
	membershipChanges metric.Int64Counter
	invitationChanges metric.Int64Counter
	postsCreated      metric.Int64Counter
	messagesSent      metric.Int64Counter
	reactions         metric.Int64Counter
	rateLimitDenied   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "chirp"
	}
	meter := provider.Meter(name)

	var err error
	m := &Metrics{}
	if m.groupsCreated, err = meter.Int64Counter("chirp_groups_created_total"); err != nil {
		return nil, err
	}
	if m.membershipChanges, err = meter.Int64Counter("chirp_membership_changes_total"); err != nil {
		return nil, err
	}
	if m.invitationChanges, err = meter.Int64Counter("chirp_invitation_transitions_total"); err != nil {
		return nil, err
	}
	if m.postsCreated, err = meter.Int64Counter("chirp_posts_created_total"); err != nil {
		return nil, err
	}
	if m.messagesSent, err = meter.Int64Counter("chirp_direct_messages_sent_total"); err != nil {
		return nil, err
	}
	if m.reactions, err = meter.Int64Counter("chirp_reactions_total"); err != nil {
		return nil, err
	}
	if m.rateLimitDenied, err = meter.Int64Counter("chirp_rate_limit_denied_total"); err != nil {
		return nil, err
	}
	return m, nil
}

// NewNoop returns instruments backed by the noop provider, for tests.
func NewNoop() *Metrics {
	m, _ := New(Config{}, noop.NewMeterProvider())
	return m
}

func (m *Metrics) RecordGroupCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.groupsCreated.Add(ctx, 1)
}

// RecordMembershipChange counts member additions, removals and role changes.
func (m *Metrics) RecordMembershipChange(ctx context.Context, change string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("change", strings.TrimSpace(change)))
	m.membershipChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInvitationTransition counts invitation status changes, e.g. pending to accepted.
func (m *Metrics) RecordInvitationTransition(ctx context.Context, to string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("status", strings.TrimSpace(to)))
	m.invitationChanges.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordPostCreated counts group posts and status updates.
func (m *Metrics) RecordPostCreated(ctx context.Context, kind string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(attribute.String("kind", strings.TrimSpace(kind)))
	m.postsCreated.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordMessageSent(ctx context.Context) {
	if m == nil {
		return
	}
	m.messagesSent.Add(ctx, 1)
}

// RecordReaction counts likes, unlikes and replies on statuses and group posts.
func (m *Metrics) RecordReaction(ctx context.Context, kind, action string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("action", strings.TrimSpace(action)),
	)
	m.reactions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitDenied increments rate limit deny counts.
func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("reason", strings.TrimSpace(reason)),
	)
	m.rateLimitDenied.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

// User and group identifiers are never allowed as labels.
var allowedLabelKeys = map[attribute.Key]struct{}{
	"change":   {},
	"status":   {},
	"kind":     {},
	"endpoint": {},
	"reason":   {},
	"action":   {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
