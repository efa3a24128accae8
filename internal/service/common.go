package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/himilaisan-astr/elts-backend/internal/dto"
	"github.com/himilaisan-astr/elts-backend/internal/repository"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
)

// dashboardCachePattern matches every cached dashboard payload.
const dashboardCachePattern = "dash:*"

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// invalidateDashboard drops cached stats after a mutation. Failures are logged
// only; stale stats expire with the TTL.
func invalidateDashboard(ctx context.Context, cache cacheInvalidator, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, dashboardCachePattern); err != nil {
		logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}

func validateBulk(validate *validator.Validate, ids []string) error {
	if err := validate.Struct(dto.BulkIDsRequest{IDs: ids}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "ids must be a non-empty list of uuids")
	}
	return nil
}

// validateIDFilters rejects non-empty id filters that are not uuids. Keys are
// the query parameter names.
func validateIDFilters(filters map[string]string) error {
	for name, value := range filters {
		if value == "" {
			continue
		}
		if _, err := uuid.Parse(value); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
		}
	}
	return nil
}

// mapDeleteError converts repository delete failures for entity into API errors.
func mapDeleteError(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrHasEnrollments):
		return appErrors.Clone(appErrors.ErrHasEnrollments, entity+" still has enrollments")
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete "+entity)
	}
}

// notFoundOr maps sql.ErrNoRows to a not-found error and anything else to an
// internal error carrying action.
func notFoundOr(err error, notFound *appErrors.Error, message, action string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(notFound, message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, action)
}
