package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/chirp/internal/authorization"
	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/config"
	"github.com/smallbiznis/chirp/internal/content"
	"github.com/smallbiznis/chirp/internal/events"
	groupdomain "github.com/smallbiznis/chirp/internal/group/domain"
	"github.com/smallbiznis/chirp/internal/grouppost/domain"
	"github.com/smallbiznis/chirp/internal/observability/metrics"
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
	GroupRepo groupdomain.Repository
	Publisher events.Publisher
	Authz     authorization.Service
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
	groups    groupdomain.Repository
	publisher events.Publisher
	authz     authorization.Service
	policy    *content.Policy
	limits    *config.LimitsHolder
	metrics   *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("grouppost.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		groups:    p.GroupRepo,
		publisher: p.Publisher,
		authz:     p.Authz,
		policy:    p.Policy,
		limits:    p.Limits,
		metrics:   p.Metrics,
	}
}

func (s *service) CreatePost(ctx context.Context, actorID string, groupID snowflake.ID, text string) (*domain.GroupPost, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if groupID == 0 {
		return nil, groupdomain.ErrInvalidGroup
	}

	var post domain.GroupPost
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		groups := s.groups.WithTx(tx)
		if err := s.requireAction(ctx, groups, groupID, actorID, authorization.ActionPostCreate); err != nil {
			return err
		}

		body, err := s.policy.Check(text, s.limits.Get().GroupPostMax)
		if err != nil {
			return err
		}

		post = domain.GroupPost{
			ID:        s.genID.Generate(),
			GroupID:   groupID,
			AuthorID:  actorID,
			Content:   body,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, post); err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicGroupPostCreated, groupID.String(), post)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPostCreated(ctx, "group_post")
	s.log.Debug("post created", zap.String("post_id", post.ID.String()), zap.String("group_id", groupID.String()))
	return &post, nil
}

func (s *service) ListPosts(ctx context.Context, actorID string, groupID snowflake.ID, page pagination.Pagination) (*domain.ListPostsResponse, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if groupID == 0 {
		return nil, groupdomain.ErrInvalidGroup
	}
	if err := s.requireAction(ctx, s.groups, groupID, actorID, authorization.ActionPostList); err != nil {
		return nil, err
	}

	items, err := s.repo.ListByGroup(ctx, groupID, page)
	if err != nil {
		if errors.Is(err, pagination.ErrInvalidPageToken) {
			return nil, err
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(p domain.GroupPost) pagination.Cursor {
		return pagination.NewCursor(p.ID, p.CreatedAt)
	})
	if items == nil {
		items = []domain.GroupPost{}
	}
	if len(items) > 0 {
		ids := make([]snowflake.ID, len(items))
		for i := range items {
			ids[i] = items[i].ID
		}
		liked, err := s.repo.LikedBy(ctx, actorID, ids)
		if err != nil {
			return nil, fmt.Errorf("liked by: %w", err)
		}
		for i := range items {
			items[i].Liked = liked[items[i].ID]
		}
	}
	return &domain.ListPostsResponse{Posts: items, PageInfo: pageInfo}, nil
}

// DeletePost lets the author or a group admin remove a post.
func (s *service) DeletePost(ctx context.Context, actorID string, postID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	if postID == 0 {
		return domain.ErrInvalidPost
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := s.repo.WithTx(tx)
		post, err := posts.Get(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return domain.ErrPostNotFound
		}

		if post.AuthorID != actorID {
			if err := s.requireAction(ctx, s.groups.WithTx(tx), post.GroupID, actorID, authorization.ActionPostDelete); err != nil {
				return err
			}
		}

		if err := posts.Delete(ctx, post.ID); err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicGroupPostDeleted, post.GroupID.String(), map[string]any{
			"post_id":    post.ID,
			"group_id":   post.GroupID,
			"deleted_by": actorID,
		})
	})
}

func (s *service) LikePost(ctx context.Context, actorID string, postID snowflake.ID) (*domain.LikeResult, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if postID == 0 {
		return nil, domain.ErrInvalidPost
	}

	var result domain.LikeResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		post, err := s.loadPost(ctx, repo, s.groups.WithTx(tx), postID, actorID, authorization.ActionPostLike)
		if err != nil {
			return err
		}

		created, err := repo.AddLike(ctx, domain.Like{PostID: post.ID, UserID: actorID, CreatedAt: s.clock.Now()})
		if err != nil {
			return fmt.Errorf("add like: %w", err)
		}
		result = domain.LikeResult{Created: created, LikeCount: post.LikeCount}
		if !created {
			return nil
		}

		if err := repo.AdjustCounts(ctx, post.ID, 1, 0); err != nil {
			return fmt.Errorf("count like: %w", err)
		}
		result.LikeCount++
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicGroupPostLiked, post.GroupID.String(), map[string]any{
			"post_id":  post.ID,
			"group_id": post.GroupID,
			"user_id":  actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Created {
		s.metrics.RecordReaction(ctx, "group_post", "like")
	}
	return &result, nil
}

// UnlikePost does not require membership so a former member can withdraw a like.
func (s *service) UnlikePost(ctx context.Context, actorID string, postID snowflake.ID) error {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return err
	}
	if postID == 0 {
		return domain.ErrInvalidPost
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		post, err := repo.Get(ctx, postID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return domain.ErrPostNotFound
		}
		removed, err := repo.RemoveLike(ctx, post.ID, actorID)
		if err != nil {
			return fmt.Errorf("remove like: %w", err)
		}
		if !removed {
			return domain.ErrLikeNotFound
		}
		return repo.AdjustCounts(ctx, post.ID, -1, 0)
	})
	if err != nil {
		return err
	}

	s.metrics.RecordReaction(ctx, "group_post", "unlike")
	return nil
}

func (s *service) Reply(ctx context.Context, actorID string, postID snowflake.ID, text string) (*domain.Reply, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if postID == 0 {
		return nil, domain.ErrInvalidPost
	}

	var reply domain.Reply
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		post, err := s.loadPost(ctx, repo, s.groups.WithTx(tx), postID, actorID, authorization.ActionPostReply)
		if err != nil {
			return err
		}

		body, err := s.policy.Check(text, s.limits.Get().GroupPostMax)
		if err != nil {
			return err
		}

		reply = domain.Reply{
			ID:        s.genID.Generate(),
			PostID:    post.ID,
			AuthorID:  actorID,
			Content:   body,
			CreatedAt: s.clock.Now(),
		}
		if err := repo.CreateReply(ctx, reply); err != nil {
			return fmt.Errorf("create reply: %w", err)
		}
		if err := repo.AdjustCounts(ctx, post.ID, 0, 1); err != nil {
			return fmt.Errorf("count reply: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicGroupPostReplied, post.GroupID.String(), reply)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReaction(ctx, "group_post", "reply")
	return &reply, nil
}

// ListReplies returns the replies to a post, oldest first.
func (s *service) ListReplies(ctx context.Context, actorID string, postID snowflake.ID, page pagination.Pagination) (*domain.ListRepliesResponse, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if postID == 0 {
		return nil, domain.ErrInvalidPost
	}
	if _, err := s.loadPost(ctx, s.repo, s.groups, postID, actorID, authorization.ActionPostList); err != nil {
		return nil, err
	}

	items, err := s.repo.ListReplies(ctx, postID, page)
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
		post, err := repo.Get(ctx, reply.PostID)
		if err != nil {
			return fmt.Errorf("get post: %w", err)
		}
		if post == nil {
			return domain.ErrPostNotFound
		}
		if reply.AuthorID != actorID {
			if err := s.requireAction(ctx, s.groups.WithTx(tx), post.GroupID, actorID, authorization.ActionPostDelete); err != nil {
				return err
			}
		}

		if err := repo.DeleteReply(ctx, reply.ID); err != nil {
			return fmt.Errorf("delete reply: %w", err)
		}
		if err := repo.AdjustCounts(ctx, post.ID, 0, -1); err != nil {
			return fmt.Errorf("count reply: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicGroupPostReplyDeleted, post.GroupID.String(), map[string]any{
			"reply_id":   reply.ID,
			"post_id":    post.ID,
			"group_id":   post.GroupID,
			"deleted_by": actorID,
		})
	})
}

// loadPost fetches a post and checks the actor may perform action in its group.
func (s *service) loadPost(ctx context.Context, repo domain.Repository, groups groupdomain.Repository, postID snowflake.ID, actorID, action string) (*domain.GroupPost, error) {
	post, err := repo.Get(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, domain.ErrPostNotFound
	}
	if err := s.requireAction(ctx, groups, post.GroupID, actorID, action); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) requireAction(ctx context.Context, groups groupdomain.Repository, groupID snowflake.ID, actorID string, action string) error {
	group, err := groups.GetGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}
	if group == nil {
		return groupdomain.ErrGroupNotFound
	}

	member, err := groups.GetMembership(ctx, groupID, actorID)
	if err != nil {
		return fmt.Errorf("get membership: %w", err)
	}
	role := ""
	if member != nil {
		role = member.Role
	}
	return s.authz.Authorize(ctx, role, action)
}

func normalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > userdomain.MaxIDLength {
		return "", userdomain.ErrInvalidUser
	}
	return id, nil
}
