package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubMaterialRepo struct {
	created []models.Material
	stored  *models.Material
	deleted []string
}

func (s *stubMaterialRepo) CreateTx(_ context.Context, _ *sqlx.Tx, m *models.Material) error {
	s.created = append(s.created, *m)
	return nil
}

func (s *stubMaterialRepo) FindByID(_ context.Context, _ string) (*models.Material, error) {
	if s.stored == nil {
		return nil, sql.ErrNoRows
	}
	return s.stored, nil
}

func (s *stubMaterialRepo) ListByTeacher(_ context.Context, _ string) ([]models.MaterialDetail, error) {
	return nil, nil
}

func (s *stubMaterialRepo) ListForStudent(_ context.Context, _ string, _ *string) ([]models.MaterialDetail, error) {
	return nil, nil
}

func (s *stubMaterialRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubNotifications struct {
	batches [][]models.Notification
}

func (s *stubNotifications) CreateBatchTx(_ context.Context, _ *sqlx.Tx, notifications []models.Notification) error {
	s.batches = append(s.batches, notifications)
	return nil
}

type stubAssignmentLister struct {
	assignments []models.TeacherAssignment
	calls       int
}

func (s *stubAssignmentLister) AssignmentsForSubject(_ context.Context, _, _ string) ([]models.TeacherAssignment, error) {
	s.calls++
	return s.assignments, nil
}

func materialFixture() (*stubMaterialRepo, *stubScope, *stubAssignmentLister, *stubRoster, *stubNotifications) {
	repo := &stubMaterialRepo{}
	scope := &stubScope{}
	assignments := &stubAssignmentLister{}
	roster := &stubRoster{students: []models.RosterStudent{
		{ID: "st1", UserID: "u-st1"},
		{ID: "st2", UserID: "u-st2"},
	}}
	return repo, scope, assignments, roster, &stubNotifications{}
}

func TestMaterialCreateExplicitTarget(t *testing.T) {
	db, mock, cleanup := newTxMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo, scope, assignments, roster, notifications := materialFixture()
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	materials, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{
		ClassID:   "c1",
		SectionID: strPtr("s1"),
		SubjectID: "sub1",
		Title:     "Algebra worksheet",
		DueDate:   strPtr("2026-09-15"),
	})
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, "c1", materials[0].ClassID)
	assert.Equal(t, "t1", materials[0].TeacherID)
	assert.Equal(t, "2026-09-15", *materials[0].DueDate)
	assert.Equal(t, 1, scope.calls)
	assert.Zero(t, assignments.calls)
	require.Len(t, notifications.batches, 1)
	assert.Len(t, notifications.batches[0], 2)
	assert.Equal(t, "u-st1", *notifications.batches[0][0].TargetUserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialCreateDeniedByScope(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	scope.denied = true
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	_, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{
		ClassID:   "c1",
		SubjectID: "sub1",
		Title:     "Algebra worksheet",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
	assert.Empty(t, notifications.batches)
}

func TestMaterialCreateFanOut(t *testing.T) {
	db, mock, cleanup := newTxMockDB(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo, scope, assignments, roster, notifications := materialFixture()
	assignments.assignments = []models.TeacherAssignment{
		{ID: "a1", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
		{ID: "a2", TeacherID: "t1", ClassID: "c2", SubjectID: "sub1"},
		{ID: "a3", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
	}
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	materials, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{
		SubjectID: "sub1",
		Title:     "Revision notes",
	})
	require.NoError(t, err)

	// The duplicate (c1, s1) assignment collapses into one target.
	require.Len(t, materials, 2)
	assert.Equal(t, "c1", materials[0].ClassID)
	assert.Equal(t, "s1", *materials[0].SectionID)
	assert.Equal(t, "c2", materials[1].ClassID)
	assert.Nil(t, materials[1].SectionID)
	assert.Zero(t, scope.calls)
	assert.Len(t, repo.created, 2)
	require.Len(t, notifications.batches, 1)
	assert.Len(t, notifications.batches[0], 4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaterialCreateFanOutWithoutAssignments(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	_, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{
		SubjectID: "sub1",
		Title:     "Revision notes",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestMaterialCreateMissingTitle(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	_, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{ClassID: "c1", SubjectID: "sub1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMaterialCreateBadDueDate(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	_, err := svc.Create(context.Background(), "t1", CreateMaterialRequest{
		ClassID:   "c1",
		SubjectID: "sub1",
		Title:     "Homework",
		DueDate:   strPtr("15-09-2026"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestMaterialDeleteOwnership(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	repo.stored = &models.Material{ID: "m1", TeacherID: "t2"}
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	err := svc.Delete(context.Background(), "t1", "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "t2", "m1"))
	assert.Equal(t, []string{"m1"}, repo.deleted)
}

func TestMaterialDeleteMissing(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()

	repo, scope, assignments, roster, notifications := materialFixture()
	svc := NewMaterialService(db, repo, scope, assignments, roster, notifications, nil, nil)

	err := svc.Delete(context.Background(), "t1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
