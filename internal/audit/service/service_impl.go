package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/resailhq/resail/internal/audit/domain"
	"github.com/resailhq/resail/internal/auditcontext"
	"github.com/resailhq/resail/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p ServiceParam) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

// AuditLog records one action. Failures are surfaced to the caller but
// never abort the underlying operation; callers log and continue.
func (s *Service) AuditLog(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return errors.New("missing_audit_action")
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		return errors.New("missing_audit_target_type")
	}

	actorType, actorID := auditcontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeSystem)
	}

	entry := &auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  s.clock.Now(),
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if ip := auditcontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := auditcontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}
	for key, value := range metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		entry.Metadata[key] = value
	}
	if requestID := auditcontext.RequestIDFromContext(ctx); requestID != "" {
		entry.Metadata["request_id"] = requestID
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return s.repo.List(ctx, s.db, filter)
}
