package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-placement-api/internal/models"
	appErrors "github.com/noah-isme/campus-placement-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error)
}

// AuditService records admin actions.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// LogAdminAction appends an entry. Failures are logged and swallowed.
func (s *AuditService) LogAdminAction(ctx context.Context, adminID, action string, details models.AuditDetails) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.AuditLog{AdminID: adminID, Action: action, Details: details}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("record audit log", zap.String("admin_id", adminID), zap.String("action", action), zap.Error(err))
		return
	}
	s.logger.Info("admin action", zap.String("admin_id", adminID), zap.String("action", action), zap.String("audit_id", entry.ID))
}

// List returns recent entries, optionally for a single admin.
func (s *AuditService) List(ctx context.Context, adminID string, limit int) ([]models.AuditLog, error) {
	entries, err := s.repo.List(ctx, adminID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return entries, nil
}
