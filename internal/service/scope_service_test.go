package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubAssignmentRepo struct {
	assignments []models.TeacherAssignment
	err         error
}

func (s *stubAssignmentRepo) FindForScope(_ context.Context, teacherID, classID, subjectID string) ([]models.TeacherAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []models.TeacherAssignment
	for _, a := range s.assignments {
		if a.TeacherID == teacherID && a.ClassID == classID && a.SubjectID == subjectID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *stubAssignmentRepo) FindForClass(_ context.Context, teacherID, classID string) ([]models.TeacherAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []models.TeacherAssignment
	for _, a := range s.assignments {
		if a.TeacherID == teacherID && a.ClassID == classID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *stubAssignmentRepo) FindForSubject(_ context.Context, teacherID, subjectID string) ([]models.TeacherAssignment, error) {
	if s.err != nil {
		return nil, s.err
	}
	var result []models.TeacherAssignment
	for _, a := range s.assignments {
		if a.TeacherID == teacherID && a.SubjectID == subjectID {
			result = append(result, a)
		}
	}
	return result, nil
}

func strPtr(s string) *string { return &s }

func TestScopeServiceAuthorize(t *testing.T) {
	repo := &stubAssignmentRepo{assignments: []models.TeacherAssignment{
		{ID: "a1", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
		{ID: "a2", TeacherID: "t1", ClassID: "c2", SectionID: nil, SubjectID: "sub1"},
	}}
	svc := NewScopeService(repo, false, nil)
	ctx := context.Background()

	// exact section match
	require.NoError(t, svc.Authorize(ctx, "t1", "c1", models.OneSection("s1"), "sub1"))

	// all-sections assignment covers any section
	require.NoError(t, svc.Authorize(ctx, "t1", "c2", models.OneSection("s9"), "sub1"))
	require.NoError(t, svc.Authorize(ctx, "t1", "c2", models.AllSections(), "sub1"))

	// wrong section, class or subject
	assertForbidden(t, svc.Authorize(ctx, "t1", "c1", models.OneSection("s2"), "sub1"))
	assertForbidden(t, svc.Authorize(ctx, "t1", "c3", models.OneSection("s1"), "sub1"))
	assertForbidden(t, svc.Authorize(ctx, "t1", "c1", models.OneSection("s1"), "sub2"))
	assertForbidden(t, svc.Authorize(ctx, "t2", "c1", models.OneSection("s1"), "sub1"))
}

func TestScopeServiceAuthorizeStrictMode(t *testing.T) {
	repo := &stubAssignmentRepo{assignments: []models.TeacherAssignment{
		{ID: "a1", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
	}}
	ctx := context.Background()

	// permissive: a sectioned assignment satisfies a request without a section
	permissive := NewScopeService(repo, false, nil)
	require.NoError(t, permissive.Authorize(ctx, "t1", "c1", models.AllSections(), "sub1"))

	// strict: it does not
	strict := NewScopeService(repo, true, nil)
	assertForbidden(t, strict.Authorize(ctx, "t1", "c1", models.AllSections(), "sub1"))
	require.NoError(t, strict.Authorize(ctx, "t1", "c1", models.OneSection("s1"), "sub1"))
}

func TestScopeServiceHoldsClassAssignment(t *testing.T) {
	repo := &stubAssignmentRepo{assignments: []models.TeacherAssignment{
		{ID: "a1", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
	}}
	svc := NewScopeService(repo, false, nil)
	ctx := context.Background()

	// subject is ignored for class-level duties
	require.NoError(t, svc.HoldsClassAssignment(ctx, "t1", "c1", models.OneSection("s1")))
	require.NoError(t, svc.HoldsClassAssignment(ctx, "t1", "c1", models.AllSections()))
	assertForbidden(t, svc.HoldsClassAssignment(ctx, "t1", "c2", models.OneSection("s1")))
	assertForbidden(t, svc.HoldsClassAssignment(ctx, "t1", "c1", models.OneSection("s2")))
}

func TestScopeServiceAssignmentsForSubject(t *testing.T) {
	repo := &stubAssignmentRepo{assignments: []models.TeacherAssignment{
		{ID: "a1", TeacherID: "t1", ClassID: "c1", SectionID: strPtr("s1"), SubjectID: "sub1"},
		{ID: "a2", TeacherID: "t1", ClassID: "c2", SubjectID: "sub1"},
		{ID: "a3", TeacherID: "t1", ClassID: "c1", SubjectID: "sub2"},
	}}
	svc := NewScopeService(repo, false, nil)

	assignments, err := svc.AssignmentsForSubject(context.Background(), "t1", "sub1")
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	assignments, err = svc.AssignmentsForSubject(context.Background(), "t1", "sub9")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}

func TestScopeServiceRepositoryError(t *testing.T) {
	svc := NewScopeService(&stubAssignmentRepo{err: errors.New("boom")}, false, nil)

	err := svc.Authorize(context.Background(), "t1", "c1", models.AllSections(), "sub1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
