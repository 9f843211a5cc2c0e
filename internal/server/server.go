package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/chirp/internal/auth/jwt"
	"github.com/smallbiznis/chirp/internal/config"
	directmessagedomain "github.com/smallbiznis/chirp/internal/directmessage/domain"
	groupdomain "github.com/smallbiznis/chirp/internal/group/domain"
	grouppostdomain "github.com/smallbiznis/chirp/internal/grouppost/domain"
	"github.com/smallbiznis/chirp/internal/observability"
	obsmiddleware "github.com/smallbiznis/chirp/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/chirp/internal/observability/metrics"
	obstracing "github.com/smallbiznis/chirp/internal/observability/tracing"
	"github.com/smallbiznis/chirp/internal/ratelimit"
	statusdomain "github.com/smallbiznis/chirp/internal/status/domain"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: obsmetrics.ClassifyError,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	verifier       *jwt.Verifier
	userSvc        userdomain.Service
	groupSvc       groupdomain.Service
	groupPostSvc   grouppostdomain.Service
	messageSvc     directmessagedomain.Service
	statusSvc      statusdomain.Service
	messageLimiter *ratelimit.MessageLimiter
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Verifier       *jwt.Verifier
	UserSvc        userdomain.Service
	GroupSvc       groupdomain.Service
	GroupPostSvc   grouppostdomain.Service
	MessageSvc     directmessagedomain.Service
	StatusSvc      statusdomain.Service
	MessageLimiter *ratelimit.MessageLimiter `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics       `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		verifier:       p.Verifier,
		userSvc:        p.UserSvc,
		groupSvc:       p.GroupSvc,
		groupPostSvc:   p.GroupPostSvc,
		messageSvc:     p.MessageSvc,
		statusSvc:      p.StatusSvc,
		messageLimiter: p.MessageLimiter,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	api.GET("/me", s.Me)

	// -------- Groups --------
	api.POST("/groups", s.CreateGroup)
	api.GET("/groups", s.ListGroups)
	api.GET("/groups/:id", s.GetGroup)
	api.PATCH("/groups/:id", s.UpdateGroup)
	api.DELETE("/groups/:id", s.DeleteGroup)
	api.GET("/search/groups", s.SearchGroups)

	// -------- Members --------
	api.GET("/groups/:id/members", s.ListMembers)
	api.POST("/groups/:id/members", s.AddMember)
	api.DELETE("/groups/:id/members/:userId", s.RemoveMember)
	api.PUT("/groups/:id/members/:userId/role", s.SetMemberRole)

	// -------- Invitations --------
	api.POST("/groups/:id/invitations", s.CreateInvitation)
	api.GET("/invitations", s.ListInvitations)
	api.POST("/invitations/:id/accept", s.AcceptInvitation)
	api.POST("/invitations/:id/decline", s.DeclineInvitation)
	api.POST("/invitations/:id/revoke", s.RevokeInvitation)

	// -------- Group posts --------
	api.POST("/groups/:id/posts", s.CreateGroupPost)
	api.GET("/groups/:id/posts", s.ListGroupPosts)
	api.DELETE("/group-posts/:id", s.DeleteGroupPost)
	api.POST("/group-posts/:id/like", s.LikeGroupPost)
	api.DELETE("/group-posts/:id/like", s.UnlikeGroupPost)
	api.POST("/group-posts/:id/replies", s.CreateGroupPostReply)
	api.GET("/group-posts/:id/replies", s.ListGroupPostReplies)
	api.DELETE("/group-post-replies/:id", s.DeleteGroupPostReply)

	// -------- Direct messages --------
	api.POST("/messages", s.MessageRateLimit(), s.SendMessage)
	api.GET("/messages", s.ListMessages)
	api.GET("/messages/unread-count", s.UnreadMessageCount)
	api.GET("/messages/:id", s.GetMessage)
	api.POST("/messages/:id/read", s.MarkMessageRead)
	api.GET("/conversations/:userId", s.ListConversation)

	// -------- Statuses --------
	api.POST("/statuses", s.CreateStatus)
	api.DELETE("/statuses/:id", s.DeleteStatus)
	api.POST("/statuses/:id/like", s.LikeStatus)
	api.DELETE("/statuses/:id/like", s.UnlikeStatus)
	api.POST("/statuses/:id/replies", s.CreateStatusReply)
	api.GET("/statuses/:id/replies", s.ListStatusReplies)
	api.DELETE("/status-replies/:id", s.DeleteStatusReply)
	api.GET("/users/:id/statuses", s.ListUserStatuses)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
