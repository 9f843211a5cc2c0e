package logger

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/chirp/internal/observability/context"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(nil, Config{Level: "loud"})
	require.Error(t, err)
}

func TestWithContextAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "alice")
	WithContext(ctx, base).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["request_id"])
	require.Equal(t, "alice", fields["actor_id"])
	require.NotContains(t, fields, "trace_id")
}

func TestGinMiddlewareSetsHeaders(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(err error) (string, string) { return "permission", "not_admin" },
	}))
	r.GET("/groups/:id", func(c *gin.Context) {
		require.Equal(t, "req-9", obscontext.RequestIDFromContext(c.Request.Context()))
		_ = c.Error(errors.New("denied"))
		c.Status(http.StatusForbidden)
	})

	req := httptest.NewRequest(http.MethodGet, "/groups/1", nil)
	req.Header.Set(HeaderRequestID, "req-9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, "req-9", w.Header().Get(HeaderRequestID))
	require.NotEmpty(t, w.Header().Get(HeaderCorrelationID))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "/groups/:id", fields["route"])
	require.Equal(t, "permission", fields["error_type"])
}

func TestOperationFromSQL(t *testing.T) {
	require.Equal(t, "SELECT", operationFromSQL("WITH x AS (SELECT 1) SELECT * FROM x"))
	require.Equal(t, "UPDATE", operationFromSQL(" update invitations set status = 'accepted'"))
	require.Equal(t, "UNKNOWN", operationFromSQL(""))
}

func TestGormTraceLevels(t *testing.T) {
	l := NewGormLogger(DefaultGormLoggerConfig())

	_, ok := l.traceLevel(gormlogger.ErrRecordNotFound, false)
	require.False(t, ok)

	level, ok := l.traceLevel(gorm.ErrDuplicatedKey, false)
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, level)

	level, ok = l.traceLevel(errors.New("UNIQUE constraint failed: group_memberships.group_id"), false)
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, level)

	level, ok = l.traceLevel(errors.New("disk I/O error"), false)
	require.True(t, ok)
	require.Equal(t, zapcore.ErrorLevel, level)

	level, ok = l.traceLevel(nil, true)
	require.True(t, ok)
	require.Equal(t, zapcore.WarnLevel, level)

	_, ok = l.traceLevel(nil, false)
	require.False(t, ok)
}
