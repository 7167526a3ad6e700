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

type stubNotificationRepo struct {
	created []models.Notification
	batches [][]models.Notification
	deleted []string
}

func (s *stubNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	s.created = append(s.created, *n)
	return nil
}

func (s *stubNotificationRepo) CreateBatchTx(_ context.Context, _ *sqlx.Tx, notifications []models.Notification) error {
	s.batches = append(s.batches, notifications)
	return nil
}

func (s *stubNotificationRepo) ListForUser(_ context.Context, _ string, _ models.UserRole, _ int) ([]models.Notification, error) {
	return nil, nil
}

func (s *stubNotificationRepo) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func notificationFixture(t *testing.T) (*NotificationService, *stubNotificationRepo, *stubAttendanceScope, func()) {
	t.Helper()
	db, mock, cleanup := newTxMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()
	repo := &stubNotificationRepo{}
	scope := &stubAttendanceScope{}
	roster := &stubRoster{students: []models.RosterStudent{
		{ID: "st1", UserID: "u-st1"},
		{ID: "st2", UserID: "u-st2"},
	}}
	return NewNotificationService(db, repo, scope, roster, nil, nil), repo, scope, cleanup
}

func TestNotificationCreateBroadcast(t *testing.T) {
	svc, repo, _, cleanup := notificationFixture(t)
	defer cleanup()

	n, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:   "Holiday",
		Message: "School closed Friday",
	})
	require.NoError(t, err)
	assert.Nil(t, n.TargetRole)
	assert.Nil(t, n.TargetUserID)
	assert.Len(t, repo.created, 1)
}

func TestNotificationCreateRejectsDualTarget(t *testing.T) {
	svc, repo, _, cleanup := notificationFixture(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:        "Fee reminder",
		Message:      "Pay up",
		TargetRole:   strPtr("STUDENT"),
		TargetUserID: strPtr("u1"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestNotificationCreateRejectsUnknownRole(t *testing.T) {
	svc, _, _, cleanup := notificationFixture(t)
	defer cleanup()

	_, err := svc.Create(context.Background(), CreateNotificationRequest{
		Title:      "Hello",
		Message:    "World",
		TargetRole: strPtr("janitor"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationSendToClass(t *testing.T) {
	svc, repo, _, cleanup := notificationFixture(t)
	defer cleanup()

	sent, err := svc.SendToClass(context.Background(), "t1", SendClassNotificationRequest{
		ClassID:   "c1",
		SectionID: strPtr("s1"),
		Title:     "Test tomorrow",
		Message:   "Bring calculators",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	// One row per roster student's user id.
	require.Len(t, repo.batches, 1)
	batch := repo.batches[0]
	require.Len(t, batch, 2)
	assert.Equal(t, "u-st1", *batch[0].TargetUserID)
	assert.Equal(t, "u-st2", *batch[1].TargetUserID)
	assert.Nil(t, batch[0].TargetRole)
}

func TestNotificationSendToClassDeniedByScope(t *testing.T) {
	svc, repo, scope, cleanup := notificationFixture(t)
	defer cleanup()
	scope.denied = true

	_, err := svc.SendToClass(context.Background(), "t1", SendClassNotificationRequest{
		ClassID: "c1",
		Title:   "Test tomorrow",
		Message: "Bring calculators",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.batches)
}

func TestNotificationSendToClassEmptyRoster(t *testing.T) {
	db, _, cleanup := newTxMockDB(t)
	defer cleanup()
	repo := &stubNotificationRepo{}
	svc := NewNotificationService(db, repo, &stubAttendanceScope{}, &stubRoster{}, nil, nil)

	sent, err := svc.SendToClass(context.Background(), "t1", SendClassNotificationRequest{
		ClassID: "c1",
		Title:   "Test tomorrow",
		Message: "Bring calculators",
	})
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, repo.batches)
}

func TestNotificationSendToClassRequiresClass(t *testing.T) {
	svc, repo, _, cleanup := notificationFixture(t)
	defer cleanup()

	_, err := svc.SendToClass(context.Background(), "t1", SendClassNotificationRequest{
		Title:   "Test tomorrow",
		Message: "Bring calculators",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.batches)
}
