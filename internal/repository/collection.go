package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/store"
)

// Collection is a typed view over one record store key. Reads always yield the
// whole collection and writes always replace it.
type Collection[T any] struct {
	store  *store.RecordStore
	key    string
	logger *zap.Logger
}

// NewCollection binds a typed collection to key.
func NewCollection[T any](s *store.RecordStore, key string, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{store: s, key: key, logger: logger}
}

// Key returns the record store key backing the collection.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored items. An absent or undecodable collection yields an
// empty slice; backend faults are returned.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	var items []T
	ok, err := c.store.Get(ctx, c.key, &items)
	if err != nil {
		return []T{}, err
	}
	if !ok || items == nil {
		return []T{}, nil
	}
	return items, nil
}

// All returns the stored items, treating any read failure as an empty collection.
func (c *Collection[T]) All(ctx context.Context) []T {
	items, err := c.Load(ctx)
	if err != nil {
		c.logger.Warn("reading collection failed, using empty", zap.String("key", c.key), zap.Error(err))
	}
	return items
}

// ErrWriteFailed reports that the record store rejected a collection write.
var ErrWriteFailed = errors.New("collection write failed")

// Update applies mutate to the stored items and writes the result back while
// holding the collection's write lock. A failed read or a mutate error aborts
// the cycle without writing, so a backend fault never replaces stored records.
func (c *Collection[T]) Update(ctx context.Context, mutate func([]T) ([]T, error)) error {
	unlock := c.store.Lock(c.key)
	defer unlock()

	items, err := c.Load(ctx)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.key, err)
	}
	next, err := mutate(items)
	if err != nil {
		return err
	}
	if !c.write(ctx, next) {
		return fmt.Errorf("write %s: %w", c.key, ErrWriteFailed)
	}
	return nil
}

func (c *Collection[T]) write(ctx context.Context, items []T) bool {
	if items == nil {
		items = []T{}
	}
	return c.store.Set(ctx, c.key, items)
}

// Typed repositories over the portal collections.
type (
	StudentRepository    = Collection[models.Student]
	CourseRepository     = Collection[models.Course]
	TeacherRepository    = Collection[models.Teacher]
	UserRepository       = Collection[models.User]
	AttendanceRepository = Collection[models.AttendanceRecord]
	ResultRepository     = Collection[models.ResultRecord]
	ReportJobRepository  = Collection[models.ReportJob]
)

// NewStudentRepository binds the students collection.
func NewStudentRepository(s *store.RecordStore, logger *zap.Logger) *StudentRepository {
	return NewCollection[models.Student](s, store.KeyStudents, logger)
}

// NewCourseRepository binds the courses collection.
func NewCourseRepository(s *store.RecordStore, logger *zap.Logger) *CourseRepository {
	return NewCollection[models.Course](s, store.KeyCourses, logger)
}

// NewTeacherRepository binds the teachers collection.
func NewTeacherRepository(s *store.RecordStore, logger *zap.Logger) *TeacherRepository {
	return NewCollection[models.Teacher](s, store.KeyTeachers, logger)
}

// NewUserRepository binds the users collection.
func NewUserRepository(s *store.RecordStore, logger *zap.Logger) *UserRepository {
	return NewCollection[models.User](s, store.KeyUsers, logger)
}

// NewAttendanceRepository binds the attendance collection.
func NewAttendanceRepository(s *store.RecordStore, logger *zap.Logger) *AttendanceRepository {
	return NewCollection[models.AttendanceRecord](s, store.KeyAttendance, logger)
}

// NewResultRepository binds the results collection.
func NewResultRepository(s *store.RecordStore, logger *zap.Logger) *ResultRepository {
	return NewCollection[models.ResultRecord](s, store.KeyResults, logger)
}

// NewReportJobRepository binds the report_jobs collection.
func NewReportJobRepository(s *store.RecordStore, logger *zap.Logger) *ReportJobRepository {
	return NewCollection[models.ReportJob](s, store.KeyReportJobs, logger)
}
