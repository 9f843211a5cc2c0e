package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/ratelimit"
	"github.com/smallbiznis/chirp/pkg/db"
	"github.com/smallbiznis/chirp/pkg/telemetry/correlation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type relayFixture struct {
	db        *gorm.DB
	publisher Publisher
	relay     *Relay
	client    *redis.Client
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&OutboxEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := NewRelay(RelayParams{
		DB:     conn,
		Redis:  client,
		Locker: ratelimit.NewLocker(client),
		Cfg:    config.Config{OutboxChannel: "chirp.events", OutboxRelayInterval: time.Second},
		Clock:  clk,
		Log:    zap.NewNop(),
	})

	return relayFixture{
		db:        conn,
		publisher: NewOutboxPublisher(conn, node, clk),
		relay:     relay,
		client:    client,
	}
}

func TestPublishInsideTransactionRollsBack(t *testing.T) {
	f := newRelayFixture(t)
	ctx := context.Background()

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := f.publisher.WithTx(tx).Publish(ctx, TopicGroupCreated, "1", map[string]string{"name": "go"}); err != nil {
			return err
		}
		return gorm.ErrInvalidData
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, f.db.Model(&OutboxEvent{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestRelayPublishesPendingEvents(t *testing.T) {
	f := newRelayFixture(t)
	ctx := correlation.ContextWithCorrelationID(context.Background(), "cid-42")

	sub := f.client.Subscribe(ctx, "chirp.events")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, f.publisher.Publish(ctx, TopicMemberAdded, "7", map[string]string{"user_id": "bob"}))

	sent, err := f.relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, sent)

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	require.Equal(t, TopicMemberAdded, env.Topic)
	require.Equal(t, "7", env.AggregateID)
	require.JSONEq(t, `{"user_id":"bob"}`, string(env.Payload))
	require.Equal(t, "cid-42", env.Metadata["correlation_id"])

	sent, err = f.relay.RelayOnce(ctx)
	require.NoError(t, err)
	require.Zero(t, sent)

	var row OutboxEvent
	require.NoError(t, f.db.First(&row).Error)
	require.True(t, row.Published)
	require.NotNil(t, row.PublishedAt)
}

func TestNewRelayDisabledWithoutRedis(t *testing.T) {
	require.Nil(t, NewRelay(RelayParams{Log: zap.NewNop()}))
}
