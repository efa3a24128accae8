package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	"github.com/himilaisan-astr/elts-backend/pkg/jobs"
)

type auditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditService writes audit rows through a background worker pool so admin
// requests do not wait on the insert. When the pool is saturated or stopped
// the row is written inline instead of being dropped.
type AuditService struct {
	store  auditStore
	queue  *jobs.Queue[*models.AuditLog]
	logger *zap.Logger
}

// NewAuditService constructs an AuditService. Call Start before serving.
func NewAuditService(store auditStore, cfg jobs.Config, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &AuditService{
		store:  store,
		queue:  jobs.New("audit", store.Create, cfg),
		logger: logger,
	}
}

// Start launches the writers. ctx must stay valid until Stop returns.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop flushes pending rows.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Create queues the entry, falling back to a synchronous write.
func (s *AuditService) Create(ctx context.Context, entry *models.AuditLog) error {
	err := s.queue.Enqueue(entry)
	if err == nil {
		return nil
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		s.logger.Debug("audit queue full, writing inline", zap.String("action", entry.Action))
	}
	return s.store.Create(ctx, entry)
}
