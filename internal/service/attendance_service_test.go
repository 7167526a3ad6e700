package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubAttendanceScope struct {
	denied bool
}

func (s *stubAttendanceScope) HoldsClassAssignment(_ context.Context, _, _ string, _ models.SectionScope) error {
	if s.denied {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned")
	}
	return nil
}

type stubAttendanceRepo struct {
	upserted []models.AttendanceRecord
}

func (s *stubAttendanceRepo) UpsertBatchTx(_ context.Context, _ *sqlx.Tx, records []models.AttendanceRecord) error {
	s.upserted = append(s.upserted, records...)
	return nil
}

func (s *stubAttendanceRepo) ListByStudent(_ context.Context, _, _, _ string) ([]models.AttendanceRecord, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) ListByClassDate(_ context.Context, _ string, _ *string, _ string) ([]models.AttendanceRecord, error) {
	return []models.AttendanceRecord{{StudentID: "st1"}}, nil
}

func (s *stubAttendanceRepo) Overview(_ context.Context, _, _ string) ([]models.AttendanceOverviewRow, error) {
	return nil, nil
}

func attendanceFixture() (MarkAttendanceRequest, *stubAttendanceScope, *stubRoster, *stubAttendanceRepo) {
	req := MarkAttendanceRequest{
		ClassID: "c1",
		Date:    "2026-03-02",
		Entries: []AttendanceEntry{
			{StudentID: "st1", Status: models.AttendancePresent},
			{StudentID: "st2", Status: models.AttendanceAbsent},
		},
	}
	scope := &stubAttendanceScope{}
	roster := &stubRoster{students: []models.RosterStudent{{ID: "st1"}, {ID: "st2"}}}
	return req, scope, roster, &stubAttendanceRepo{}
}

func TestAttendanceMark(t *testing.T) {
	db, mock, cleanup := newTxMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	req, scope, roster, repo := attendanceFixture()
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	count, err := svc.Mark(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, repo.upserted, 2)
	assert.Equal(t, "t1", repo.upserted[0].MarkedBy)
	assert.Equal(t, "2026-03-02", repo.upserted[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceMarkBadDate(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, roster, repo := attendanceFixture()
	req.Date = "02-03-2026"
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	_, err := svc.Mark(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "YYYY-MM-DD")
}

func TestAttendanceMarkDenied(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, roster, repo := attendanceFixture()
	scope.denied = true
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	_, err := svc.Mark(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestAttendanceMarkRejectsUnknownStatus(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, roster, repo := attendanceFixture()
	req.Entries[1].Status = "Sleeping"
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	_, err := svc.Mark(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "invalid status")
}

func TestAttendanceMarkRejectsStudentOutsideRoster(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, roster, repo := attendanceFixture()
	roster.students = roster.students[:1]
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	_, err := svc.Mark(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "not in the target roster")
}

func TestAttendanceClassSheetChecksScope(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	_, scope, roster, repo := attendanceFixture()
	svc := NewAttendanceService(db, repo, scope, roster, nil, nil)

	records, err := svc.ClassSheet(context.Background(), "t1", "c1", nil, "2026-03-02")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	scope.denied = true
	_, err = svc.ClassSheet(context.Background(), "t1", "c1", nil, "2026-03-02")
	require.Error(t, err)
}
