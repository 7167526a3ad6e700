package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type dashboardCounters interface {
	CountAll(ctx context.Context) (int, error)
}

type classCounter interface {
	CountClasses(ctx context.Context) (int, error)
}

type feeSummer interface {
	SumPendingAmount(ctx context.Context) (float64, error)
}

// DashboardSummary is the admin landing-page payload.
type DashboardSummary struct {
	TotalStudents int     `json:"total_students"`
	TotalTeachers int     `json:"total_teachers"`
	TotalParents  int     `json:"total_parents"`
	TotalClasses  int     `json:"total_classes"`
	PendingFees   float64 `json:"pending_fees"`
	GeneratedAt   string  `json:"generated_at"`
	FromCache     bool    `json:"from_cache"`
}

// DashboardService aggregates headline counts, cached in Redis so the admin
// landing page does not hammer five COUNT queries per load.
type DashboardService struct {
	students dashboardCounters
	teachers dashboardCounters
	parents  dashboardCounters
	classes  classCounter
	fees     feeSummer
	cache    dashboardCache
	ttl      time.Duration
	logger   *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(students, teachers, parents dashboardCounters, classes classCounter, fees feeSummer, cache dashboardCache, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, teachers: teachers, parents: parents, classes: classes, fees: fees, cache: cache, ttl: ttl, logger: logger}
}

// Summary returns the cached counts, rebuilding them on a miss.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	var cached DashboardSummary
	err := s.cache.Get(ctx, dashboardCacheKey, &cached)
	if err == nil {
		cached.FromCache = true
		return &cached, nil
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	summary, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return summary, nil
}

// Invalidate drops the cached summary. Called after bulk imports or other
// admin actions that skew the counts.
func (s *DashboardService) Invalidate(ctx context.Context) error {
	if err := s.cache.DeleteByPattern(ctx, dashboardCacheKey); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate dashboard cache")
	}
	return nil
}

func (s *DashboardService) build(ctx context.Context) (*DashboardSummary, error) {
	students, err := s.students.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	teachers, err := s.teachers.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count teachers")
	}
	parents, err := s.parents.CountAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count parents")
	}
	classes, err := s.classes.CountClasses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count classes")
	}
	pending, err := s.fees.SumPendingAmount(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum pending fees")
	}

	return &DashboardSummary{
		TotalStudents: students,
		TotalTeachers: teachers,
		TotalParents:  parents,
		TotalClasses:  classes,
		PendingFees:   pending,
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
	}, nil
}
