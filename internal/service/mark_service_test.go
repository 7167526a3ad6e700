package service

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubScope struct {
	denied bool
	calls  int
}

func (s *stubScope) Authorize(_ context.Context, _, _ string, _ models.SectionScope, _ string) error {
	s.calls++
	if s.denied {
		return appErrors.Clone(appErrors.ErrForbidden, "not assigned")
	}
	return nil
}

type stubExamResolver struct {
	examSubject *models.ExamSubject
}

func (s *stubExamResolver) ResolveExamSubject(_ context.Context, _, _ string, _ models.SectionScope, _ string) (*models.ExamSubject, error) {
	return s.examSubject, nil
}

func (s *stubExamResolver) FindExamSubject(_ context.Context, _ string) (*models.ExamSubject, error) {
	return s.examSubject, nil
}

type stubRoster struct {
	students []models.RosterStudent
}

func (s *stubRoster) Roster(_ context.Context, _ string, _ *string) ([]models.RosterStudent, error) {
	return s.students, nil
}

type stubMarkRepo struct {
	upserted []models.Mark
}

func (s *stubMarkRepo) UpsertBatchTx(_ context.Context, _ *sqlx.Tx, marks []models.Mark) error {
	s.upserted = append(s.upserted, marks...)
	return nil
}

func (s *stubMarkRepo) ListByStudent(_ context.Context, _ string) ([]models.StudentMark, error) {
	return nil, nil
}

func (s *stubMarkRepo) MarkSheet(_ context.Context, _ string) ([]models.MarkSheetRow, error) {
	return []models.MarkSheetRow{{StudentID: "st1"}}, nil
}

func newTxMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func submitFixture() (SubmitMarksRequest, *stubScope, *stubExamResolver, *stubRoster, *stubMarkRepo) {
	req := SubmitMarksRequest{
		ExamID:    "e1",
		ClassID:   "c1",
		SectionID: strPtr("s1"),
		SubjectID: "sub1",
		Marks: []MarkEntry{
			{StudentID: "st1", Marks: 80},
			{StudentID: "st2", Marks: 95.5},
		},
	}
	scope := &stubScope{}
	exams := &stubExamResolver{examSubject: &models.ExamSubject{
		ID: "es1", ExamID: "e1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1", MaxMarks: 100,
	}}
	roster := &stubRoster{students: []models.RosterStudent{{ID: "st1"}, {ID: "st2"}}}
	return req, scope, exams, roster, &stubMarkRepo{}
}

func TestMarkSubmit(t *testing.T) {
	db, mock, cleanup := newTxMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	req, scope, exams, roster, repo := submitFixture()
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	result, err := svc.Submit(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, "es1", result.ExamSubjectID)
	assert.Equal(t, 2, result.SavedCount)
	assert.Len(t, repo.upserted, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkSubmitDeniedByScope(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, exams, roster, repo := submitFixture()
	scope.denied = true
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserted)
}

func TestMarkSubmitRejectsStudentOutsideRoster(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, exams, roster, repo := submitFixture()
	req.Marks = append(req.Marks, MarkEntry{StudentID: "intruder", Marks: 10})
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "intruder")
	assert.Empty(t, repo.upserted)
}

func TestMarkSubmitRejectsDuplicateStudent(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, exams, roster, repo := submitFixture()
	req.Marks = append(req.Marks, MarkEntry{StudentID: "st1", Marks: 60})
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "duplicate entry")
}

func TestMarkSubmitRejectsMarksOverCeiling(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, exams, roster, repo := submitFixture()
	exams.examSubject.MaxMarks = 50
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "exceed the ceiling")
	assert.Empty(t, repo.upserted)
}

func TestMarkSubmitValidatesPayload(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	req, scope, exams, roster, repo := submitFixture()
	req.Marks = nil
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	_, err := svc.Submit(context.Background(), "t1", req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, scope.calls)
}

func TestMarkSheetChecksScope(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	_, scope, exams, roster, repo := submitFixture()
	svc := NewMarkService(db, repo, scope, exams, roster, nil, nil)

	rows, err := svc.Sheet(context.Background(), "t1", "es1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, scope.calls)

	scope.denied = true
	_, err = svc.Sheet(context.Background(), "t1", "es1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
