package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

// DefaultStudentPassword is assigned to imported students that carry no password column.
const DefaultStudentPassword = "student123"

var errNothingImported = errors.New("roster holds no new students")

type studentStore interface {
	All(ctx context.Context) []models.Student
	Update(ctx context.Context, mutate func([]models.Student) ([]models.Student, error)) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	Semester   int    `json:"semester" validate:"required,min=1,max=12"`
	Password   string `json:"password" validate:"required,min=6"`
}

// UpdateStudentRequest replaces every mutable field of a student.
type UpdateStudentRequest struct {
	Name            string               `json:"name" validate:"required"`
	Email           string               `json:"email" validate:"required,email"`
	Department      string               `json:"department" validate:"required"`
	Semester        int                  `json:"semester" validate:"required,min=1,max=12"`
	EnrolledCourses []string             `json:"enrolledCourses"`
	Status          models.StudentStatus `json:"status" validate:"required,oneof=Enrolled On_Probation Graduated Suspended"`
	EnrollmentDate  string               `json:"enrollmentDate" validate:"omitempty,datetime=2006-01-02"`
}

// ImportSummary reports the outcome of a roster import.
type ImportSummary struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// StudentService handles student use-cases.
type StudentService struct {
	students  studentStore
	users     userStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(students studentStore, users userStore, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, users: users, validator: validate, logger: logger, now: time.Now}
}

// List returns the students matching filter.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) []models.Student {
	out := make([]models.Student, 0)
	for _, student := range s.students.All(ctx) {
		if !student.Matches(filter.Search) {
			continue
		}
		if filter.CourseID != "" && !student.IsEnrolledIn(filter.CourseID) {
			continue
		}
		if filter.Status != "" && student.Status != filter.Status {
			continue
		}
		out = append(out, student)
	}
	return out
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	for _, student := range s.students.All(ctx) {
		if student.ID == id {
			st := student
			return &st, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Create registers a new student together with the login credential.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := models.Student{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Department:      req.Department,
		Semester:        req.Semester,
		EnrolledCourses: []string{},
		Status:          models.StudentStatusEnrolled,
		EnrollmentDate:  s.now().UTC().Format(models.DateLayout),
	}

	err := s.students.Update(ctx, func(students []models.Student) ([]models.Student, error) {
		student.ID = nextStudentID(students)
		return append(students, student), nil
	})
	if err != nil {
		return nil, saveError(err, "failed to create student")
	}
	err = s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		return append(users, models.User{ID: student.ID, Password: req.Password, Role: models.RoleStudent, Name: student.Name}), nil
	})
	if err != nil {
		return nil, saveError(err, "failed to create student credentials")
	}

	s.logger.Info("student created", zap.String("student_id", student.ID))
	return &student, nil
}

// Update replaces a student's fields, keeping the id.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	var updated models.Student
	err := s.students.Update(ctx, func(students []models.Student) ([]models.Student, error) {
		for i := range students {
			if students[i].ID != id {
				continue
			}
			enrolled := req.EnrolledCourses
			if enrolled == nil {
				enrolled = []string{}
			}
			enrollmentDate := req.EnrollmentDate
			if enrollmentDate == "" {
				enrollmentDate = students[i].EnrollmentDate
			}
			students[i] = models.Student{
				ID:              id,
				Name:            req.Name,
				Email:           req.Email,
				Department:      req.Department,
				Semester:        req.Semester,
				EnrolledCourses: enrolled,
				Status:          req.Status,
				EnrollmentDate:  enrollmentDate,
			}
			updated = students[i]
			return students, nil
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	})
	if err != nil {
		return nil, saveError(err, "failed to update student")
	}
	return &updated, nil
}

// Delete removes the student and the matching credential. Attendance and results are kept.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	err := s.students.Update(ctx, func(students []models.Student) ([]models.Student, error) {
		kept := make([]models.Student, 0, len(students))
		for _, student := range students {
			if student.ID != id {
				kept = append(kept, student)
			}
		}
		if len(kept) == len(students) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return kept, nil
	})
	if err != nil {
		return saveError(err, "failed to delete student")
	}

	err = s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		kept := make([]models.User, 0, len(users))
		for _, user := range users {
			if user.ID != id {
				kept = append(kept, user)
			}
		}
		return kept, nil
	})
	if err != nil {
		return saveError(err, "failed to delete student credentials")
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return nil
}

// ImportStudents reads an XLSX roster whose first sheet holds a header row followed by
// id, name, email, department, semester and an optional password column.
// Rows missing an id or name, or reusing an existing id, are skipped.
func (s *StudentService) ImportStudents(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to open roster")
	}
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("closing roster failed", zap.Error(err))
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "roster does not contain any sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read roster rows")
	}

	summary := &ImportSummary{}
	enrolledOn := s.now().UTC().Format(models.DateLayout)
	imported := make([]models.User, 0)
	err = s.students.Update(ctx, func(students []models.Student) ([]models.Student, error) {
		known := make(map[string]struct{}, len(students))
		for _, student := range students {
			known[student.ID] = struct{}{}
		}
		for i, row := range rows {
			if i == 0 {
				continue
			}
			id, name := cell(row, 0), cell(row, 1)
			if id == "" || name == "" {
				summary.Skipped++
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: missing id or name", i+1))
				continue
			}
			if _, exists := known[id]; exists {
				summary.Skipped++
				summary.Errors = append(summary.Errors, fmt.Sprintf("row %d: student %s already exists", i+1, id))
				continue
			}
			semester, err := strconv.Atoi(cell(row, 4))
			if err != nil || semester < 1 {
				semester = 1
			}
			password := cell(row, 5)
			if password == "" {
				password = DefaultStudentPassword
			}

			students = append(students, models.Student{
				ID:              id,
				Name:            name,
				Email:           cell(row, 2),
				Department:      cell(row, 3),
				Semester:        semester,
				EnrolledCourses: []string{},
				Status:          models.StudentStatusEnrolled,
				EnrollmentDate:  enrolledOn,
			})
			imported = append(imported, models.User{ID: id, Password: password, Role: models.RoleStudent, Name: name})
			known[id] = struct{}{}
		}
		if len(imported) == 0 {
			return nil, errNothingImported
		}
		return students, nil
	})
	summary.Imported = len(imported)
	if errors.Is(err, errNothingImported) {
		return summary, nil
	}
	if err != nil {
		return nil, saveError(err, "failed to save imported students")
	}
	err = s.users.Update(ctx, func(users []models.User) ([]models.User, error) {
		return append(users, imported...), nil
	})
	if err != nil {
		return nil, saveError(err, "failed to save imported credentials")
	}
	s.logger.Info("roster imported", zap.Int("imported", summary.Imported), zap.Int("skipped", summary.Skipped))
	return summary, nil
}

// nextStudentID numbers from the collection size, skipping ids already taken.
func nextStudentID(students []models.Student) string {
	taken := make(map[string]struct{}, len(students))
	for _, student := range students {
		taken[student.ID] = struct{}{}
	}
	for n := len(students) + 1; ; n++ {
		id := fmt.Sprintf("student%03d", n)
		if _, exists := taken[id]; !exists {
			return id
		}
	}
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
