package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type timetableRepo interface {
	FirstClassConflict(ctx context.Context, classID, day, start, end, excludeID string) (*models.TimetableConflict, error)
	FirstTeacherConflict(ctx context.Context, teacherID, day, start, end, excludeID string) (*models.TimetableConflict, error)
	Create(ctx context.Context, entry *models.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*models.TimetableEntry, error)
	Update(ctx context.Context, id string, patch models.TimetablePatch) error
	Delete(ctx context.Context, id string) error
	DeleteGroup(ctx context.Context, classID string, sectionID *string) (int64, error)
	ListByClass(ctx context.Context, classID string, sectionID *string) ([]models.TimetableEntryDetail, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]models.TimetableEntryDetail, error)
	ListGroups(ctx context.Context) ([]models.TimetableGroup, error)
}

// CreateTimetableEntryRequest is the payload for adding a period.
type CreateTimetableEntryRequest struct {
	ClassID   string           `json:"class_id" validate:"required"`
	SectionID *string          `json:"section_id"`
	DayOfWeek string           `json:"day_of_week" validate:"required"`
	StartTime string           `json:"start_time" validate:"required"`
	EndTime   string           `json:"end_time" validate:"required"`
	EntryType models.EntryType `json:"entry_type" validate:"required"`
	Title     *string          `json:"title"`
	SubjectID *string          `json:"subject_id"`
	TeacherID *string          `json:"teacher_id"`
	Room      *string          `json:"room"`
}

// TimetableService owns the weekly schedule and its double-booking rules.
type TimetableService struct {
	repo      timetableRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs TimetableService.
func NewTimetableService(repo timetableRepo, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, validator: validate, logger: logger}
}

// CreateEntry validates a new period and rejects it when the class slot or the
// teacher is already booked. The class dimension is checked before the teacher
// dimension, so a double-booked slot reports the class conflict even when the
// teacher also collides.
func (s *TimetableService) CreateEntry(ctx context.Context, req CreateTimetableEntryRequest) (*models.TimetableEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	entry := &models.TimetableEntry{
		ClassID:   req.ClassID,
		SectionID: normalizeOptional(req.SectionID),
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		EntryType: req.EntryType,
		Title:     normalizeOptional(req.Title),
		SubjectID: normalizeOptional(req.SubjectID),
		TeacherID: normalizeOptional(req.TeacherID),
		Room:      normalizeOptional(req.Room),
	}
	if err := validateEntry(entry); err != nil {
		return nil, err
	}
	if err := s.checkConflicts(ctx, entry, ""); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable entry")
	}
	return entry, nil
}

// UpdateEntry applies a partial update, re-validating and re-running both
// conflict checks against the merged row. The row itself is excluded from the
// overlap scan so an unchanged time range never collides with itself.
func (s *TimetableService) UpdateEntry(ctx context.Context, id string, patch models.TimetablePatch) (*models.TimetableEntry, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}

	merged := applyPatch(*existing, patch)
	if err := validateEntry(&merged); err != nil {
		return nil, err
	}
	if merged.EntryType == models.EntryBreak {
		// validateEntry cleared subject/teacher on the merged row; the stored
		// row must drop them too, so the teacher is no longer booked by it.
		clear := ""
		patch.SubjectID = &clear
		patch.TeacherID = &clear
	}
	if err := s.checkConflicts(ctx, &merged, id); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update timetable entry")
	}
	return &merged, nil
}

// DeleteEntry removes a period.
func (s *TimetableService) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable entry")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable entry")
	}
	return nil
}

// DeleteGroup clears a whole (class, section-or-all) timetable and returns how
// many periods were removed.
func (s *TimetableService) DeleteGroup(ctx context.Context, classID string, sectionID *string) (int64, error) {
	n, err := s.repo.DeleteGroup(ctx, classID, normalizeOptional(sectionID))
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable group")
	}
	return n, nil
}

// ClassTimetable lists the periods a (class, section) student sees, grouped by
// day in week order.
func (s *TimetableService) ClassTimetable(ctx context.Context, classID string, sectionID *string) (map[string][]models.TimetableEntryDetail, error) {
	entries, err := s.repo.ListByClass(ctx, classID, normalizeOptional(sectionID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable")
	}
	return groupByDay(entries), nil
}

// TeacherTimetable lists a teacher's bookings grouped by day.
func (s *TimetableService) TeacherTimetable(ctx context.Context, teacherID string) (map[string][]models.TimetableEntryDetail, error) {
	entries, err := s.repo.ListForTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher timetable")
	}
	return groupByDay(entries), nil
}

// ListGroups summarises the timetables that exist.
func (s *TimetableService) ListGroups(ctx context.Context) ([]models.TimetableGroup, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable groups")
	}
	return groups, nil
}

func (s *TimetableService) checkConflicts(ctx context.Context, entry *models.TimetableEntry, excludeID string) error {
	conflict, err := s.repo.FirstClassConflict(ctx, entry.ClassID, entry.DayOfWeek, entry.StartTime, entry.EndTime, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check class conflict")
	}
	if conflict != nil {
		return conflictError(conflict)
	}

	if entry.TeacherID != nil {
		conflict, err = s.repo.FirstTeacherConflict(ctx, *entry.TeacherID, entry.DayOfWeek, entry.StartTime, entry.EndTime, excludeID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher conflict")
		}
		if conflict != nil {
			return conflictError(conflict)
		}
	}
	return nil
}

func conflictError(c *models.TimetableConflict) error {
	dimension := "class"
	if c.Dimension == "TEACHER" {
		dimension = "teacher"
	}
	return appErrors.Clone(appErrors.ErrConflict,
		fmt.Sprintf("%s already booked on %s %s-%s", dimension, c.DayOfWeek, c.StartTime, c.EndTime))
}

// validateEntry enforces the shape rules: valid day, HH:MM times with
// start < end, and type-specific required fields.
func validateEntry(entry *models.TimetableEntry) error {
	if !models.ValidWeekDay(entry.DayOfWeek) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid day of week %q", entry.DayOfWeek))
	}
	start, err := time.Parse("15:04", entry.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be HH:MM")
	}
	end, err := time.Parse("15:04", entry.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be HH:MM")
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}

	switch entry.EntryType {
	case models.EntryLecture:
		if entry.SubjectID == nil || entry.TeacherID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "lecture entries require subject_id and teacher_id")
		}
	case models.EntryBreak:
		if entry.Title == nil {
			return appErrors.Clone(appErrors.ErrValidation, "break entries require a title")
		}
		// Break rows never book a subject or teacher.
		entry.SubjectID = nil
		entry.TeacherID = nil
	default:
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid entry type %q", entry.EntryType))
	}
	return nil
}

// applyPatch merges a patch onto an existing entry to produce the row as it
// would be after the update. Empty strings on nullable fields clear them,
// mirroring the repository's column mapping.
func applyPatch(entry models.TimetableEntry, patch models.TimetablePatch) models.TimetableEntry {
	if patch.DayOfWeek != nil {
		entry.DayOfWeek = *patch.DayOfWeek
	}
	if patch.StartTime != nil {
		entry.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		entry.EndTime = *patch.EndTime
	}
	if patch.EntryType != nil {
		entry.EntryType = *patch.EntryType
	}
	if patch.Title != nil {
		entry.Title = normalizeOptional(patch.Title)
	}
	if patch.SubjectID != nil {
		entry.SubjectID = normalizeOptional(patch.SubjectID)
	}
	if patch.TeacherID != nil {
		entry.TeacherID = normalizeOptional(patch.TeacherID)
	}
	if patch.Room != nil {
		entry.Room = normalizeOptional(patch.Room)
	}
	return entry
}

func groupByDay(entries []models.TimetableEntryDetail) map[string][]models.TimetableEntryDetail {
	grouped := make(map[string][]models.TimetableEntryDetail, len(models.WeekDays))
	for _, day := range models.WeekDays {
		grouped[day] = []models.TimetableEntryDetail{}
	}
	for _, e := range entries {
		grouped[e.DayOfWeek] = append(grouped[e.DayOfWeek], e)
	}
	return grouped
}

// normalizeOptional maps a pointer to an empty string to nil so nullable
// columns store NULL rather than "".
func normalizeOptional(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}
