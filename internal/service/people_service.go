package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolstack/sms-api/internal/models"
	"github.com/schoolstack/sms-api/pkg/database"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type peopleUserRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type studentRepo interface {
	List(ctx context.Context, classID, sectionID string, page, size int) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, student *models.Student) error
	Update(ctx context.Context, id string, patch models.StudentPatch) error
	Delete(ctx context.Context, id string) error
	Roster(ctx context.Context, classID string, sectionID *string) ([]models.RosterStudent, error)
}

type teacherProfileRepo interface {
	List(ctx context.Context, page, size int) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, teacher *models.Teacher) error
	Update(ctx context.Context, id string, patch models.TeacherPatch) error
	Delete(ctx context.Context, id string) error
}

type parentRepo interface {
	List(ctx context.Context, page, size int) ([]models.ParentDetail, int, error)
	FindByUserID(ctx context.Context, userID string) (*models.Parent, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, parent *models.Parent) error
	LinkStudentTx(ctx context.Context, tx *sqlx.Tx, link models.StudentParentLink) error
	Children(ctx context.Context, parentID string) ([]models.StudentDetail, error)
	Delete(ctx context.Context, id string) error
}

// CreateStudentRequest carries the account and profile fields for enrolment.
type CreateStudentRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=6"`
	FullName    string  `json:"full_name" validate:"required"`
	Phone       *string `json:"phone"`
	AdmissionNo string  `json:"admission_no" validate:"required"`
	ClassID     string  `json:"class_id" validate:"required"`
	SectionID   *string `json:"section_id"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	Address     *string `json:"address"`
}

// CreateTeacherRequest carries the account and profile fields for hiring.
type CreateTeacherRequest struct {
	Email         string  `json:"email" validate:"required,email"`
	Password      string  `json:"password" validate:"required,min=6"`
	FullName      string  `json:"full_name" validate:"required"`
	Phone         *string `json:"phone"`
	EmployeeNo    string  `json:"employee_no" validate:"required"`
	Department    *string `json:"department"`
	Qualification *string `json:"qualification"`
}

// CreateParentRequest carries the account fields plus optional child links.
type CreateParentRequest struct {
	Email      string            `json:"email" validate:"required,email"`
	Password   string            `json:"password" validate:"required,min=6"`
	FullName   string            `json:"full_name" validate:"required"`
	Phone      *string           `json:"phone"`
	Occupation *string           `json:"occupation"`
	Children   []ChildLinkEntry  `json:"children" validate:"dive"`
}

// ChildLinkEntry names one child to link at parent creation.
type ChildLinkEntry struct {
	StudentID    string `json:"student_id" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
}

// PeopleService manages user accounts and their role profiles. Account and
// profile rows are always created in one transaction so an orphaned user
// never exists.
type PeopleService struct {
	db        *sqlx.DB
	users     peopleUserRepo
	students  studentRepo
	teachers  teacherProfileRepo
	parents   parentRepo
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPeopleService constructs PeopleService.
func NewPeopleService(db *sqlx.DB, users peopleUserRepo, students studentRepo, teachers teacherProfileRepo, parents parentRepo, validate *validator.Validate, logger *zap.Logger) *PeopleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeopleService{db: db, users: users, students: students, teachers: teachers, parents: parents, validator: validate, logger: logger}
}

// CreateStudent enrols a student: one user row plus one profile row,
// atomically.
func (s *PeopleService) CreateStudent(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	user, err := s.newUser(ctx, req.Email, req.Password, req.FullName, req.Phone, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		AdmissionNo: req.AdmissionNo,
		ClassID:     req.ClassID,
		SectionID:   normalizeOptional(req.SectionID),
		DOB:         normalizeOptional(req.DOB),
		Gender:      normalizeOptional(req.Gender),
		Address:     normalizeOptional(req.Address),
	}
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		student.UserID = user.ID
		return s.students.CreateTx(ctx, tx, student)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// CreateTeacher hires a teacher atomically.
func (s *PeopleService) CreateTeacher(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	user, err := s.newUser(ctx, req.Email, req.Password, req.FullName, req.Phone, models.RoleTeacher)
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		EmployeeNo:    req.EmployeeNo,
		Department:    normalizeOptional(req.Department),
		Qualification: normalizeOptional(req.Qualification),
	}
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		teacher.UserID = user.ID
		return s.teachers.CreateTx(ctx, tx, teacher)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}
	return teacher, nil
}

// CreateParent registers a parent and links any named children in the same
// transaction.
func (s *PeopleService) CreateParent(ctx context.Context, req CreateParentRequest) (*models.Parent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parent payload")
	}
	user, err := s.newUser(ctx, req.Email, req.Password, req.FullName, req.Phone, models.RoleParent)
	if err != nil {
		return nil, err
	}

	parent := &models.Parent{Occupation: normalizeOptional(req.Occupation)}
	err = database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := s.users.CreateTx(ctx, tx, user); err != nil {
			return err
		}
		parent.UserID = user.ID
		if err := s.parents.CreateTx(ctx, tx, parent); err != nil {
			return err
		}
		for _, child := range req.Children {
			link := models.StudentParentLink{ParentID: parent.ID, StudentID: child.StudentID, Relationship: child.Relationship}
			if err := s.parents.LinkStudentTx(ctx, tx, link); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parent")
	}
	return parent, nil
}

// ListStudents returns students with optional class/section filters.
func (s *PeopleService) ListStudents(ctx context.Context, classID, sectionID string, page, size int) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.students.List(ctx, classID, sectionID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, models.NewPagination(page, size, total), nil
}

// GetStudent returns one student with names.
func (s *PeopleService) GetStudent(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// UpdateStudent applies a partial profile update.
func (s *PeopleService) UpdateStudent(ctx context.Context, id string, patch models.StudentPatch) error {
	if _, err := s.GetStudent(ctx, id); err != nil {
		return err
	}
	if err := s.students.Update(ctx, id, patch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return nil
}

// DeleteStudent removes the profile and its user account.
func (s *PeopleService) DeleteStudent(ctx context.Context, id string) error {
	student, err := s.GetStudent(ctx, id)
	if err != nil {
		return err
	}
	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if err := s.users.Delete(ctx, student.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

// ListTeachers returns teachers with pagination.
func (s *PeopleService) ListTeachers(ctx context.Context, page, size int) ([]models.TeacherDetail, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, models.NewPagination(page, size, total), nil
}

// GetTeacher returns one teacher with names.
func (s *PeopleService) GetTeacher(ctx context.Context, id string) (*models.TeacherDetail, error) {
	teacher, err := s.teachers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// UpdateTeacher applies a partial profile update.
func (s *PeopleService) UpdateTeacher(ctx context.Context, id string, patch models.TeacherPatch) error {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return err
	}
	if err := s.teachers.Update(ctx, id, patch); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return nil
}

// DeleteTeacher removes the profile and its user account.
func (s *PeopleService) DeleteTeacher(ctx context.Context, id string) error {
	teacher, err := s.GetTeacher(ctx, id)
	if err != nil {
		return err
	}
	if err := s.teachers.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}
	if err := s.users.Delete(ctx, teacher.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

// ListParents returns parents with pagination.
func (s *PeopleService) ListParents(ctx context.Context, page, size int) ([]models.ParentDetail, *models.Pagination, error) {
	parents, total, err := s.parents.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return parents, models.NewPagination(page, size, total), nil
}

// StudentByUser resolves the profile behind a STUDENT account.
func (s *PeopleService) StudentByUser(ctx context.Context, userID string) (*models.Student, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student profile")
	}
	return student, nil
}

// TeacherByUser resolves the profile behind a TEACHER account.
func (s *PeopleService) TeacherByUser(ctx context.Context, userID string) (*models.Teacher, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher profile")
	}
	return teacher, nil
}

// ParentByUser resolves the profile behind a PARENT account.
func (s *PeopleService) ParentByUser(ctx context.Context, userID string) (*models.Parent, error) {
	parent, err := s.parents.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent profile")
	}
	return parent, nil
}

// Children lists a parent's linked students.
func (s *PeopleService) Children(ctx context.Context, parentID string) ([]models.StudentDetail, error) {
	children, err := s.parents.Children(ctx, parentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list children")
	}
	return children, nil
}

// LinkChild ties an existing parent to an existing student.
func (s *PeopleService) LinkChild(ctx context.Context, parentID string, entry ChildLinkEntry) error {
	if err := s.validator.Struct(entry); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid link payload")
	}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		link := models.StudentParentLink{ParentID: parentID, StudentID: entry.StudentID, Relationship: entry.Relationship}
		return s.parents.LinkStudentTx(ctx, tx, link)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to link child")
	}
	return nil
}

// Roster exposes the class roster for teacher flows.
func (s *PeopleService) Roster(ctx context.Context, classID string, sectionID *string) ([]models.RosterStudent, error) {
	roster, err := s.students.Roster(ctx, classID, normalizeOptional(sectionID))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// newUser hashes the password and builds the user row, rejecting duplicate
// emails up front.
func (s *PeopleService) newUser(ctx context.Context, email, password, fullName string, phone *string, role models.UserRole) (*models.User, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	now := time.Now().UTC()
	return &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     fullName,
		Phone:        normalizeOptional(phone),
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
