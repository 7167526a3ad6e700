package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/internal/service"
)

type stubTimetableStore struct {
	classConflict *models.TimetableConflict
	created       []*models.TimetableEntry
}

func (s *stubTimetableStore) FirstClassConflict(context.Context, string, string, string, string, string) (*models.TimetableConflict, error) {
	return s.classConflict, nil
}

func (s *stubTimetableStore) FirstTeacherConflict(context.Context, string, string, string, string, string) (*models.TimetableConflict, error) {
	return nil, nil
}

func (s *stubTimetableStore) Create(_ context.Context, entry *models.TimetableEntry) error {
	s.created = append(s.created, entry)
	return nil
}

func (s *stubTimetableStore) FindByID(context.Context, string) (*models.TimetableEntry, error) {
	return nil, sql.ErrNoRows
}

func (s *stubTimetableStore) Update(context.Context, string, models.TimetablePatch) error { return nil }
func (s *stubTimetableStore) Delete(context.Context, string) error                        { return nil }
func (s *stubTimetableStore) DeleteGroup(context.Context, string, *string) (int64, error) {
	return 0, nil
}
func (s *stubTimetableStore) ListByClass(context.Context, string, *string) ([]models.TimetableEntryDetail, error) {
	return nil, nil
}
func (s *stubTimetableStore) ListForTeacher(context.Context, string) ([]models.TimetableEntryDetail, error) {
	return nil, nil
}
func (s *stubTimetableStore) ListGroups(context.Context) ([]models.TimetableGroup, error) {
	return nil, nil
}

func TestTimetableHandlerCreateEntry(t *testing.T) {
	store := &stubTimetableStore{}
	h := NewTimetableHandler(service.NewTimetableService(store, nil, nil))

	rec, c := postJSON(t, "/admin/timetables", gin.H{
		"class_id":    "c1",
		"day_of_week": "Monday",
		"start_time":  "09:00",
		"end_time":    "10:00",
		"entry_type":  "lecture",
		"subject_id":  "sub1",
		"teacher_id":  "t1",
	})
	h.CreateEntry(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, "c1", store.created[0].ClassID)
}

func TestTimetableHandlerCreateEntryConflict(t *testing.T) {
	store := &stubTimetableStore{classConflict: &models.TimetableConflict{
		EntryID: "e9", Dimension: "CLASS", DayOfWeek: "Monday", StartTime: "09:30", EndTime: "10:30",
	}}
	h := NewTimetableHandler(service.NewTimetableService(store, nil, nil))

	rec, c := postJSON(t, "/admin/timetables", gin.H{
		"class_id":    "c1",
		"day_of_week": "Monday",
		"start_time":  "09:00",
		"end_time":    "10:00",
		"entry_type":  "lecture",
		"subject_id":  "sub1",
		"teacher_id":  "t1",
	})
	h.CreateEntry(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Error.Message, "class already booked")
	assert.Empty(t, store.created)
}

func TestTimetableHandlerUpdateEntryNotFound(t *testing.T) {
	h := NewTimetableHandler(service.NewTimetableService(&stubTimetableStore{}, nil, nil))

	rec, c := postJSON(t, "/admin/timetables/e404", gin.H{"start_time": "09:00"})
	c.Params = gin.Params{{Key: "id", Value: "e404"}}
	h.UpdateEntry(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTimetableHandlerDeleteGroupRequiresClass(t *testing.T) {
	h := NewTimetableHandler(service.NewTimetableService(&stubTimetableStore{}, nil, nil))

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/timetables", nil)
	h.DeleteGroup(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
