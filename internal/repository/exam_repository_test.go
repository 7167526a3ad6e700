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

func examSubjectFixture() *models.ExamSubject {
	return &models.ExamSubject{ExamID: "ex1", ClassID: "c1", SubjectID: "sub1", MaxMarks: 100}
}

func examSubjectRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "exam_id", "class_id", "section_id", "subject_id", "max_marks"})
}

func TestExamRepositoryFindExamSubjectExact(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE exam_id = $1 AND class_id = $2 AND section_id IS NOT DISTINCT FROM $3 AND subject_id = $4`)).
		WithArgs("ex1", "c1", "s1", "sub1").
		WillReturnRows(examSubjectRows().AddRow("es1", "ex1", "c1", "s1", "sub1", 100.0))

	sectionID := "s1"
	es, err := repo.FindExamSubjectExact(context.Background(), "ex1", "c1", &sectionID, "sub1")
	require.NoError(t, err)
	require.NotNil(t, es)
	assert.Equal(t, "es1", es.ID)
	require.NotNil(t, es.SectionID)
	assert.Equal(t, "s1", *es.SectionID)
}

func TestExamRepositoryFindExamSubjectExactMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`section_id IS NOT DISTINCT FROM $3`)).
		WithArgs("ex1", "c1", nil, "sub1").
		WillReturnRows(examSubjectRows())

	es, err := repo.FindExamSubjectExact(context.Background(), "ex1", "c1", nil, "sub1")
	require.NoError(t, err)
	assert.Nil(t, es)
}

func TestExamRepositoryFindExamSubjectCommon(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE exam_id = $1 AND class_id = $2 AND section_id IS NULL AND subject_id = $3`)).
		WithArgs("ex1", "c1", "sub1").
		WillReturnRows(examSubjectRows().AddRow("es2", "ex1", "c1", nil, "sub1", 50.0))

	es, err := repo.FindExamSubjectCommon(context.Background(), "ex1", "c1", "sub1")
	require.NoError(t, err)
	require.NotNil(t, es)
	assert.Nil(t, es.SectionID)
	assert.Equal(t, 50.0, es.MaxMarks)
}

func TestExamRepositoryCreateExamSubject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExamRepository(db)

	mock.ExpectExec(`INSERT INTO exam_subjects`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	es := examSubjectFixture()
	require.NoError(t, repo.CreateExamSubject(context.Background(), es))
	assert.NotEmpty(t, es.ID)
}
