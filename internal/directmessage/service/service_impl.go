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
	"github.com/smallbiznis/chirp/internal/directmessage/domain"
	"github.com/smallbiznis/chirp/internal/events"
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
		log:       p.Log.Named("directmessage.service"),
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

func (s *service) SendMessage(ctx context.Context, senderID string, recipientID string, text string) (*domain.DirectMessage, error) {
	senderID, err := normalizeUserID(senderID)
	if err != nil {
		return nil, err
	}
	recipientID, err = normalizeUserID(recipientID)
	if err != nil {
		return nil, err
	}

	var message domain.DirectMessage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.users.WithTx(tx).Exists(ctx, recipientID)
		if err != nil {
			return fmt.Errorf("check recipient: %w", err)
		}
		if !ok {
			return userdomain.ErrUserNotFound
		}

		body, err := s.policy.Check(text, s.limits.Get().DirectMessageMax)
		if err != nil {
			return err
		}

		message = domain.DirectMessage{
			ID:          s.genID.Generate(),
			SenderID:    senderID,
			RecipientID: recipientID,
			Content:     body,
			CreatedAt:   s.clock.Now(),
		}
		if err := s.repo.WithTx(tx).Create(ctx, message); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicDirectMessageSent, message.ID.String(), message)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordMessageSent(ctx)
	s.log.Debug("message sent", zap.String("message_id", message.ID.String()))
	return &message, nil
}

func (s *service) ListMessages(ctx context.Context, actorID string, page pagination.Pagination) (*domain.ListMessagesResponse, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListForUser(ctx, actorID, page)
	if err != nil {
		return nil, wrapListErr(err)
	}
	return buildPage(items, page), nil
}

func (s *service) ListConversation(ctx context.Context, actorID string, otherID string, page pagination.Pagination) (*domain.ListMessagesResponse, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	otherID, err = normalizeUserID(otherID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListBetween(ctx, actorID, otherID, page)
	if err != nil {
		return nil, wrapListErr(err)
	}
	return buildPage(items, page), nil
}

func (s *service) GetMessage(ctx context.Context, actorID string, messageID snowflake.ID) (*domain.DirectMessage, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if messageID == 0 {
		return nil, domain.ErrInvalidMessage
	}

	message, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	if message == nil || (message.SenderID != actorID && message.RecipientID != actorID) {
		return nil, domain.ErrMessageNotFound
	}
	return message, nil
}

func (s *service) MarkRead(ctx context.Context, actorID string, messageID snowflake.ID) (*domain.DirectMessage, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return nil, err
	}
	if messageID == 0 {
		return nil, domain.ErrInvalidMessage
	}

	var message *domain.DirectMessage
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		message, err = repo.Get(ctx, messageID)
		if err != nil {
			return fmt.Errorf("get message: %w", err)
		}
		if message == nil || (message.SenderID != actorID && message.RecipientID != actorID) {
			return domain.ErrMessageNotFound
		}
		if message.RecipientID != actorID {
			return domain.ErrNotRecipient
		}
		if message.ReadAt != nil {
			return nil
		}

		now := s.clock.Now()
		changed, err := repo.MarkRead(ctx, message.ID, now)
		if err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		if !changed {
			// a concurrent call won; report its timestamp
			message, err = repo.Get(ctx, messageID)
			if err != nil {
				return fmt.Errorf("get message: %w", err)
			}
			return nil
		}
		message.ReadAt = &now
		return s.publisher.WithTx(tx).Publish(ctx, events.TopicDirectMessageRead, message.ID.String(), map[string]any{
			"message_id": message.ID,
			"sender_id":  message.SenderID,
			"reader_id":  actorID,
			"read_at":    now,
		})
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *service) UnreadCount(ctx context.Context, actorID string) (int64, error) {
	actorID, err := normalizeUserID(actorID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.CountUnread(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func buildPage(items []domain.DirectMessage, page pagination.Pagination) *domain.ListMessagesResponse {
	items, pageInfo := pagination.BuildCursorPageInfo(items, page.Limit(), func(m domain.DirectMessage) pagination.Cursor {
		return pagination.NewCursor(m.ID, m.CreatedAt)
	})
	if items == nil {
		items = []domain.DirectMessage{}
	}
	return &domain.ListMessagesResponse{Messages: items, PageInfo: pageInfo}
}

func wrapListErr(err error) error {
	if errors.Is(err, pagination.ErrInvalidPageToken) {
		return err
	}
	return fmt.Errorf("list messages: %w", err)
}

func normalizeUserID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > userdomain.MaxIDLength {
		return "", userdomain.ErrInvalidUser
	}
	return id, nil
}
