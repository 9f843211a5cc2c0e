package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/content"
	"github.com/smallbiznis/chirp/internal/events"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
	"github.com/smallbiznis/chirp/internal/status/domain"
	userdomain "github.com/smallbiznis/chirp/internal/user/domain"
	"github.com/smallbiznis/chirp/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	UserRepo  userdomain.Repository
	Publisher events.Publisher
	Policy    *content.Policy
	Limits    *config.LimitsHolder
	Metrics   *metrics.Metrics `optional:"true"`
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	users     userdomain.Repository
	publisher events.Publisher
	policy    *content.Policy
	limits    *config.LimitsHolder
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("status.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		users:     p.UserRepo,
		publisher: p.Publisher,
		policy:    p.Policy,
		limits:    p.Limits,
		metrics:   p.Metrics,
	}
}

func (s *service) CreateStatus(ctx context.Context, actorID string, text string) (*domain.Status, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	body, err := s.policy.Check(text, s.limits.Get().StatusMax)
	if err != nil {
		return nil, err
	}

	status := domain.Status{
		ID:        s.genID.Generate(),
		AuthorID:  actorID,
		Content:   body,
		CreatedAt: s.clock.Now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, status); err != nil {
			return fmt.Errorf("create status: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicStatusCreated, status.ID.String(), status)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPostCreated(ctx, "status")
	return &status, nil
}

// ListStatuses returns a user's statuses, newest first. Unknown users are NotFound.
func (s *service) ListStatuses(ctx context.Context, viewerID string, userID string, page pagination.Pagination) (*domain.ListStatusesResponse, error) {
	viewerID, err := normalizeUserID(viewerID)
	if err != nil {
		return nil, err
	}
	userID, err = normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}

	items, err := s.repo.ListByAuthor(ctx, userID, page)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return nil, err
		}
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(st domain.Status) pagination.Cursor {
		return pagination.NewCursor(st.ID, st.CreatedAt)
	})
	if items == nil {
		items = []domain.Status{}
	}

	ids := make([]snowflake.ID, 0, len(items))
	for _, st := range items {
		ids = append(ids, st.ID)
	}
	liked, err := s.repo.LikedBy(ctx, viewerID, ids)
	if err != nil {
		return nil, fmt.Errorf("load likes: %w", err)
	}
	for i := range items {
		items[i].Liked = liked[items[i].ID]
	}
	return &domain.ListStatusesResponse{Statuses: items, PageInfo: pageInfo}, nil
}

func (s *service) DeleteStatus(ctx context.Context, actorID string, statusID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	if statusID == 0 {
		return domain.ErrInvalidStatus
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		status, err := repo.Get(ctx, statusID)
		if err != nil {
			return fmt.Errorf("get status: %w", err)
		}
		if status == nil {
			return domain.ErrStatusNotFound
		}
		if status.AuthorID != actorID {
			s.log.Debug("status delete denied", zap.String("status_id", status.ID.String()), zap.String("actor_id", actorID))
			return domain.ErrNotAuthor
		}

		if err := repo.Delete(ctx, status.ID); err != nil {
			return fmt.Errorf("delete status: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicStatusDeleted, status.ID.String(), map[string]any{
			"status_id": status.ID,
			"author_id": status.AuthorID,
		})
	})
}

// LikeStatus is idempotent: liking twice keeps one like and reports Created false.
func (s *service) LikeStatus(ctx context.Context, actorID string, statusID snowflake.ID) (*domain.LikeResult, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if statusID == 0 {
		return nil, domain.ErrInvalidStatus
	}

	var result domain.LikeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		status, err := loadStatus(ctx, repo, statusID)
		if err != nil {
			return err
		}

		created, err := repo.AddLike(ctx, domain.Like{StatusID: status.ID, UserID: actorID, CreatedAt: s.clock.Now()})
		if err != nil {
			return fmt.Errorf("add like: %w", err)
		}
		result = domain.LikeResult{Created: created, LikeCount: status.LikeCount}
		if !created {
			return nil
		}

		if err := repo.AdjustCounts(ctx, status.ID, 1, 0); err != nil {
			return fmt.Errorf("count like: %w", err)
		}
		result.LikeCount++
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicStatusLiked, status.ID.String(), map[string]any{
			"status_id": status.ID,
			"user_id":   actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.metrics.RecordReaction(ctx, "status", "like")
	}
	return &result, nil
}

// UnlikeStatus reports ErrLikeNotFound when the actor does not like the status.
func (s *service) UnlikeStatus(ctx context.Context, actorID string, statusID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	if statusID == 0 {
		return domain.ErrInvalidStatus
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		status, err := loadStatus(ctx, repo, statusID)
		if err != nil {
			return err
		}
		removed, err := repo.RemoveLike(ctx, status.ID, actorID)
		if err != nil {
			return fmt.Errorf("remove like: %w", err)
		}
		if !removed {
			return domain.ErrLikeNotFound
		}
		return repo.AdjustCounts(ctx, status.ID, -1, 0)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordReaction(ctx, "status", "unlike")
	return nil
}

func (s *service) Reply(ctx context.Context, actorID string, statusID snowflake.ID, text string) (*domain.Reply, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if statusID == 0 {
		return nil, domain.ErrInvalidStatus
	}
	body, err := s.policy.Check(text, s.limits.Get().StatusMax)
	if err != nil {
		return nil, err
	}

	var reply domain.Reply
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		status, err := loadStatus(ctx, repo, statusID)
		if err != nil {
			return err
		}

		reply = domain.Reply{
			ID:        s.genID.Generate(),
			StatusID:  status.ID,
			AuthorID:  actorID,
			Content:   body,
			CreatedAt: s.clock.Now(),
		}
		if err := repo.CreateReply(ctx, reply); err != nil {
			return fmt.Errorf("create reply: %w", err)
		}
		if err := repo.AdjustCounts(ctx, status.ID, 0, 1); err != nil {
			return fmt.Errorf("count reply: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicStatusReplied, status.ID.String(), reply)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReaction(ctx, "status", "reply")
	return &reply, nil
}

// ListReplies returns the replies to a status, oldest first.
func (s *service) ListReplies(ctx context.Context, actorID string, statusID snowflake.ID, page pagination.Pagination) (*domain.ListRepliesResponse, error) {
	if _, err := normalizeUserID(actorID); err != nil {
		return nil, err
	}
	if statusID == 0 {
		return nil, domain.ErrInvalidStatus
	}
	if _, err := loadStatus(ctx, s.repo, statusID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListReplies(ctx, statusID, page)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return nil, err
		}
		return nil, fmt.Errorf("list replies: %w", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(r domain.Reply) pagination.Cursor {
		return pagination.NewCursor(r.ID, r.CreatedAt)
	})
	if items == nil {
		items = []domain.Reply{}
	}
	return &domain.ListRepliesResponse{Replies: items, PageInfo: pageInfo}, nil
}

func (s *service) DeleteReply(ctx context.Context, actorID string, replyID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	if replyID == 0 {
		return domain.ErrInvalidReply
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reply, err := repo.GetReply(ctx, replyID)
		if err != nil {
			return fmt.Errorf("get reply: %w", err)
		}
		if reply == nil {
			return domain.ErrReplyNotFound
		}
		if reply.AuthorID != actorID {
			status, err := loadStatus(ctx, repo, reply.StatusID)
			if err != nil {
				return err
			}
			if status.AuthorID != actorID {
				return domain.ErrNotAuthor
			}
		}

		if err := repo.DeleteReply(ctx, reply.ID); err != nil {
			return fmt.Errorf("delete reply: %w", err)
		}
		if err := repo.AdjustCounts(ctx, reply.StatusID, 0, -1); err != nil {
			return fmt.Errorf("count reply: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicStatusReplyDeleted, reply.StatusID.String(), map[string]any{
			"reply_id":   reply.ID,
			"status_id":  reply.StatusID,
			"deleted_by": actorID,
		})
	})
}

func loadStatus(ctx context.Context, repo domain.Repository, id snowflake.ID) (*domain.Status, error) {
	status, err := repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if status == nil {
		return nil, domain.ErrStatusNotFound
	}
	return status, nil
}

func normalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > userdomain.MaxIDLength {
		return "", userdomain.ErrInvalidUser
	}
	return id, nil
}
