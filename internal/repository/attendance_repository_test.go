package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
)

func TestAttendanceRepositoryUpsertBatchTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectBegin()
	upsert := regexp.QuoteMeta(`ON CONFLICT (student_id, date)`)
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	records := []models.AttendanceRecord{
		{StudentID: "st1", Date: "2026-03-02", Status: models.AttendancePresent, MarkedBy: "t1"},
		{StudentID: "st2", Date: "2026-03-02", Status: models.AttendanceAbsent, MarkedBy: "t1"},
	}
	require.NoError(t, repo.UpsertBatchTx(context.Background(), tx, records))
	require.NoError(t, tx.Commit())
	assert.NotEmpty(t, records[0].ID)
}

func TestAttendanceRepositoryListByStudentRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "date", "status", "marked_by", "remarks"}).
		AddRow("a1", "st1", "2026-03-02", "Present", "t1", nil)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE student_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC`)).
		WithArgs("st1", "2026-03-01", "2026-03-31").
		WillReturnRows(rows)

	records, err := repo.ListByStudent(context.Background(), "st1", "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.AttendancePresent, records[0].Status)
}

func TestAttendanceRepositoryListByStudentNoRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE student_id = $1 ORDER BY date DESC`)).
		WithArgs("st1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "date", "status", "marked_by", "remarks"}))

	records, err := repo.ListByStudent(context.Background(), "st1", "", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAttendanceRepositoryOverview(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"class_id", "class_name", "section_name", "total_records", "present_count", "percentage"}).
		AddRow("c1", "Grade 5", "A", 40, 36, 90.0).
		AddRow("c1", "Grade 5", "B", 38, 30, 78.95)
	mock.ExpectQuery(regexp.QuoteMeta(`AND a.date >= $1 AND a.date <= $2`)).
		WithArgs("2026-03-01", "2026-03-31").
		WillReturnRows(rows)

	overview, err := repo.Overview(context.Background(), "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, overview, 2)
	require.NotNil(t, overview[0].Percentage)
	assert.Equal(t, 90.0, *overview[0].Percentage)
}
