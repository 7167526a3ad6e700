package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubDashboardCache struct {
	stored  *DashboardSummary
	sets    int
	deleted []string
	getErr  error
}

func (c *stubDashboardCache) Get(_ context.Context, _ string, dest interface{}) error {
	if c.getErr != nil {
		return c.getErr
	}
	if c.stored == nil {
		return appErrors.ErrCacheMiss
	}
	*dest.(*DashboardSummary) = *c.stored
	return nil
}

func (c *stubDashboardCache) Set(_ context.Context, _ string, value interface{}, _ time.Duration) error {
	c.sets++
	if s, ok := value.(*DashboardSummary); ok {
		copied := *s
		c.stored = &copied
	}
	return nil
}

func (c *stubDashboardCache) DeleteByPattern(_ context.Context, pattern string) error {
	c.deleted = append(c.deleted, pattern)
	c.stored = nil
	return nil
}

type stubCounter struct {
	n   int
	err error
}

func (c stubCounter) CountAll(context.Context) (int, error)     { return c.n, c.err }
func (c stubCounter) CountClasses(context.Context) (int, error) { return c.n, c.err }

type stubFeeSummer struct {
	total float64
	err   error
}

func (f stubFeeSummer) SumPendingAmount(context.Context) (float64, error) { return f.total, f.err }

func TestDashboardSummaryCacheMiss(t *testing.T) {
	cache := &stubDashboardCache{}
	svc := NewDashboardService(stubCounter{n: 120}, stubCounter{n: 14}, stubCounter{n: 210}, stubCounter{n: 8}, stubFeeSummer{total: 4250.50}, cache, time.Minute, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, summary.TotalStudents)
	assert.Equal(t, 14, summary.TotalTeachers)
	assert.Equal(t, 210, summary.TotalParents)
	assert.Equal(t, 8, summary.TotalClasses)
	assert.Equal(t, 4250.50, summary.PendingFees)
	assert.False(t, summary.FromCache)
	assert.NotEmpty(t, summary.GeneratedAt)
	assert.Equal(t, 1, cache.sets)
}

func TestDashboardSummaryCacheHit(t *testing.T) {
	cache := &stubDashboardCache{stored: &DashboardSummary{TotalStudents: 99}}
	// Counters that would fail prove the hit path never touches the database.
	svc := NewDashboardService(stubCounter{err: assert.AnError}, stubCounter{err: assert.AnError}, stubCounter{err: assert.AnError}, stubCounter{err: assert.AnError}, stubFeeSummer{err: assert.AnError}, cache, time.Minute, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 99, summary.TotalStudents)
	assert.True(t, summary.FromCache)
	assert.Zero(t, cache.sets)
}

func TestDashboardSummaryRebuildsAfterCacheError(t *testing.T) {
	cache := &stubDashboardCache{getErr: assert.AnError}
	svc := NewDashboardService(stubCounter{n: 1}, stubCounter{n: 2}, stubCounter{n: 7}, stubCounter{n: 3}, stubFeeSummer{}, cache, time.Minute, nil)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.FromCache)
	assert.Equal(t, 1, summary.TotalStudents)
}

func TestDashboardSummaryCounterError(t *testing.T) {
	cache := &stubDashboardCache{}
	svc := NewDashboardService(stubCounter{err: assert.AnError}, stubCounter{}, stubCounter{}, stubCounter{}, stubFeeSummer{}, cache, time.Minute, nil)

	_, err := svc.Summary(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestDashboardInvalidate(t *testing.T) {
	cache := &stubDashboardCache{stored: &DashboardSummary{TotalStudents: 99}}
	svc := NewDashboardService(stubCounter{n: 1}, stubCounter{}, stubCounter{}, stubCounter{}, stubFeeSummer{}, cache, time.Minute, nil)

	require.NoError(t, svc.Invalidate(context.Background()))
	require.Len(t, cache.deleted, 1)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.FromCache)
	assert.Equal(t, 1, summary.TotalStudents)
}
