package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
)

const dashboardSummaryKey = "dashboard:summary"

type dashboardCounts interface {
	CountActiveStudents(ctx context.Context) (int, error)
	CountByRegistrationStatus(ctx context.Context, statuses ...models.RegistrationStatus) (int, error)
}

type iepCounts interface {
	CountByStatus(ctx context.Context, status models.IEPStatus) (int, error)
}

type sessionCounts interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

// DashboardService composes the landing-page counters, served from Redis
// when a fresh copy exists.
type DashboardService struct {
	registrations dashboardCounts
	ieps          iepCounts
	sessions      sessionCounts
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs the service. cache may be nil.
func NewDashboardService(registrations dashboardCounts, ieps iepCounts, sessions sessionCounts, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		registrations: registrations,
		ieps:          ieps,
		sessions:      sessions,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           time.Now,
	}
}

// Summary returns the dashboard counters and whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context, actor *models.JWTClaims) (*dto.DashboardSummary, bool, error) {
	if actor == nil {
		return nil, false, appErrors.ErrUnauthorized
	}

	var cached dto.DashboardSummary
	if hit, err := s.cache.Get(ctx, dashboardSummaryKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary := &dto.DashboardSummary{}
	var err error

	summary.ActiveStudents, err = s.registrations.CountActiveStudents(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count active students")
	}
	summary.PendingApprovals, err = s.registrations.CountByRegistrationStatus(ctx, models.RegistrationStatusPendingReview, models.RegistrationStatusOnHold)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count pending approvals")
	}
	summary.ActiveIEPs, err = s.ieps.CountByStatus(ctx, models.IEPStatusActive)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count active IEPs")
	}
	weekStart := startOfWeek(s.now().UTC())
	summary.SessionsThisWeek, err = s.sessions.CountSince(ctx, weekStart)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "failed to count sessions")
	}

	if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard summary", zap.Error(err))
	}
	return summary, false, nil
}

// startOfWeek returns midnight of the most recent Monday.
func startOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}
