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

func TestMarkRepositoryUpsertBatchTx(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMarkRepository(db)

	mock.ExpectBegin()
	upsert := regexp.QuoteMeta(`ON CONFLICT (exam_subject_id, student_id)`)
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(upsert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Beginx()
	require.NoError(t, err)

	marks := []models.Mark{
		{ExamSubjectID: "es1", StudentID: "st1", Marks: 80},
		{ExamSubjectID: "es1", StudentID: "st2", Marks: 95.5},
	}
	require.NoError(t, repo.UpsertBatchTx(context.Background(), tx, marks))
	require.NoError(t, tx.Commit())

	// Generated ids are written back so callers can echo saved rows.
	assert.NotEmpty(t, marks[0].ID)
	assert.NotEmpty(t, marks[1].ID)
}

func TestMarkRepositoryMarkSheet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"student_id", "admission_no", "student_name", "marks", "grade"}).
		AddRow("st1", "ADM-001", "Asha Rao", 80.0, "A").
		AddRow("st2", "ADM-002", "Vikram Nair", nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN marks m ON m.exam_subject_id = es.id AND m.student_id = s.id`)).
		WithArgs("es1").
		WillReturnRows(rows)

	sheet, err := repo.MarkSheet(context.Background(), "es1")
	require.NoError(t, err)
	require.Len(t, sheet, 2)
	require.NotNil(t, sheet[0].Marks)
	assert.Equal(t, 80.0, *sheet[0].Marks)
	assert.Nil(t, sheet[1].Marks)
	assert.Nil(t, sheet[1].Grade)
}

func TestMarkRepositoryListByStudent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMarkRepository(db)

	rows := sqlmock.NewRows([]string{"marks", "grade", "max_marks", "exam_name", "subject_name"}).
		AddRow(42.0, "B", 50.0, "Midterm", "Maths")
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE m.student_id = $1`)).
		WithArgs("st1").
		WillReturnRows(rows)

	marks, err := repo.ListByStudent(context.Background(), "st1")
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "Midterm", marks[0].ExamName)
}
