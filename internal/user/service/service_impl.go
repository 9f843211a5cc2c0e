package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/smallbiznis/chirp/internal/clock"
	"github.com/smallbiznis/chirp/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Repo  domain.Repository
	Clock clock.Clock
	Log   *zap.Logger
}

type service struct {
	repo  domain.Repository
	clock clock.Clock
	log   *zap.Logger
}

func NewService(p Params) domain.Service {
	return &service{
		repo:  p.Repo,
		clock: p.Clock,
		log:   p.Log.Named("user.service"),
	}
}

func (s *service) Touch(ctx context.Context, id string, username string) (*domain.User, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if utf8.RuneCountInString(username) > domain.MaxIDLength {
		username = string([]rune(username)[:domain.MaxIDLength])
	}

	now := s.clock.Now()
	if err := s.repo.Upsert(ctx, domain.User{ID: id, Username: username, CreatedAt: now, UpdatedAt: now}); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *service) Get(ctx context.Context, id string) (*domain.User, error) {
	id, err := normalizeID(id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *service) Exists(ctx context.Context, id string) (bool, error) {
	id, err := normalizeID(id)
	if err != nil {
		return false, err
	}
	return s.repo.Exists(ctx, id)
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > domain.MaxIDLength {
		return "", domain.ErrInvalidUser
	}
	return id, nil
}
