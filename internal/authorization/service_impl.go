package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

var Module = fx.Module("authorization",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer loads the policy from the casbin_rule table and seeds the role matrix.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer without persistence.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role string, action string) error {
	role = strings.TrimSpace(role)
	if role == "" {
		return ErrNotMember
	}
	if !ValidRole(role) {
		return ErrInvalidRole
	}

	allowed, err := s.enforcer.Enforce(subject(role), objectOf(action), action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied", zap.String("role", role), zap.String("action", action))
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) Can(role string, action string) bool {
	return s.Authorize(context.Background(), role, action) == nil
}

func subject(role string) string {
	return "role:" + strings.ToLower(role)
}

func objectOf(action string) string {
	object, _, _ := strings.Cut(action, ".")
	return object
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Any member
		{"role:member", ObjectMember, ActionMemberList},
		{"role:member", ObjectInvitation, ActionInvitationCreate},
		{"role:member", ObjectPost, ActionPostCreate},
		{"role:member", ObjectPost, ActionPostList},
		{"role:member", ObjectPost, ActionPostLike},
		{"role:member", ObjectPost, ActionPostReply},

		// Admins only
		{"role:admin", ObjectGroup, ActionGroupUpdate},
		{"role:admin", ObjectGroup, ActionGroupDelete},
		{"role:admin", ObjectMember, ActionMemberAdd},
		{"role:admin", ObjectMember, ActionMemberRemove},
		{"role:admin", ObjectMember, ActionMemberSetRole},
		{"role:admin", ObjectInvitation, ActionInvitationRevoke},
		{"role:admin", ObjectPost, ActionPostDelete},
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	if _, err := enforcer.AddGroupingPolicy("role:admin", "role:member"); err != nil {
		return err
	}
	return nil
}
