package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
	"github.com/smallbiznis/chirp/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	batchSize    = 50
	relayLockKey = "chirp:outbox:relay"
)

// Envelope is the message published on the events channel.
type Envelope struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	AggregateID string            `json:"aggregate_id"`
	Payload     json.RawMessage   `json:"payload"`
	Metadata    datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type RelayParams struct {
	fx.In

	DB      *gorm.DB
	Redis   *redis.Client     `optional:"true"`
	Locker  *ratelimit.Locker `optional:"true"`
	Cfg     config.Config
	Clock   clock.Clock
	Metrics *metrics.OutboxMetrics `optional:"true"`
	Log     *zap.Logger
}

// Relay moves committed outbox events to Redis. Only one instance publishes
// at a time when a Locker is available.
type Relay struct {
	db       *gorm.DB
	client   *redis.Client
	locker   *ratelimit.Locker
	channel  string
	interval time.Duration
	clock    clock.Clock
	metrics  *metrics.OutboxMetrics
	log      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRelay returns nil when Redis is not configured.
func NewRelay(p RelayParams) *Relay {
	if p.Redis == nil {
		return nil
	}
	interval := p.Cfg.OutboxRelayInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{
		db:       p.DB,
		client:   p.Redis,
		locker:   p.Locker,
		channel:  p.Cfg.OutboxChannel,
		interval: interval,
		clock:    p.Clock,
		metrics:  p.Metrics,
		log:      p.Log.Named("events.relay"),
	}
}

func (r *Relay) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.RelayOnce(ctx); err != nil && ctx.Err() == nil {
					r.log.Warn("outbox relay failed", zap.Error(err))
				}
			}
		}
	}()
}

func (r *Relay) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// RelayOnce publishes one batch and returns how many events were sent.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	var sent int
	run := func(ctx context.Context) error {
		n, err := r.publishBatch(ctx)
		sent = n
		return err
	}

	if r.locker == nil {
		return sent, run(ctx)
	}
	_, err := r.locker.WithLock(ctx, relayLockKey, 4*r.interval+time.Second, run)
	return sent, err
}

func (r *Relay) publishBatch(ctx context.Context) (int, error) {
	start := time.Now()
	var rows []OutboxEvent
	err := r.db.WithContext(ctx).
		Where("published = ?", false).
		Order("created_at ASC").Order("id ASC").
		Limit(batchSize).
		Find(&rows).Error
	if err != nil {
		r.metrics.RecordBatch("error", time.Since(start))
		return 0, err
	}

	sent := 0
	for _, row := range rows {
		if err := r.publish(ctx, row); err != nil {
			r.metrics.RecordBatch("error", time.Since(start))
			return sent, err
		}
		sent++
	}

	var backlog int64
	if err := r.db.WithContext(ctx).Model(&OutboxEvent{}).Where("published = ?", false).Count(&backlog).Error; err == nil {
		r.metrics.SetBacklog(float64(backlog))
	}
	r.metrics.RecordBatch("success", time.Since(start))
	return sent, nil
}

func (r *Relay) publish(ctx context.Context, row OutboxEvent) error {
	data, err := json.Marshal(Envelope{
		ID:          row.ID.String(),
		Topic:       row.Topic,
		AggregateID: row.AggregateID,
		Payload:     json.RawMessage(row.Payload),
		Metadata:    row.Metadata,
		CreatedAt:   row.CreatedAt,
	})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return err
	}
	r.metrics.RecordPublished(row.Topic)
	return r.markPublished(ctx, row.ID)
}

func (r *Relay) markPublished(ctx context.Context, id snowflake.ID) error {
	now := r.clock.Now()
	return r.db.WithContext(ctx).Model(&OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{"published": true, "published_at": now}).Error
}
