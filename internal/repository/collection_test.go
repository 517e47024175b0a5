package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/internal/models"
	"github.com/noah-isme/sis-portal/internal/store"
)

type brokenBackend struct{}

func (brokenBackend) Load(context.Context, string) ([]byte, error) {
	return nil, errors.New("io failure")
}

func (brokenBackend) Save(context.Context, string, []byte) error {
	return errors.New("io failure")
}

func (brokenBackend) Delete(context.Context, string) error {
	return errors.New("io failure")
}

type flakyBackend struct {
	*store.MemoryBackend
	loadDelay time.Duration
	failSave  bool
}

func (b *flakyBackend) Load(ctx context.Context, key string) ([]byte, error) {
	time.Sleep(b.loadDelay)
	return b.MemoryBackend.Load(ctx, key)
}

func (b *flakyBackend) Save(ctx context.Context, key string, payload []byte) error {
	if b.failSave {
		return errors.New("io failure")
	}
	return b.MemoryBackend.Save(ctx, key, payload)
}

func newMemoryStore() *store.RecordStore {
	return store.New(store.NewMemoryBackend(), store.Options{})
}

func TestCollectionAllEmptyWhenAbsent(t *testing.T) {
	repo := NewStudentRepository(newMemoryStore(), nil)
	items := repo.All(context.Background())
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCollectionAllEmptyOnBackendFault(t *testing.T) {
	repo := NewResultRepository(store.New(brokenBackend{}, store.Options{}), nil)
	assert.Empty(t, repo.All(context.Background()))

	_, err := repo.Load(context.Background())
	assert.Error(t, err)
}

func TestCollectionUpdateAbortsOnReadFault(t *testing.T) {
	repo := NewResultRepository(store.New(brokenBackend{}, store.Options{}), nil)
	called := false
	err := repo.Update(context.Background(), func(items []models.ResultRecord) ([]models.ResultRecord, error) {
		called = true
		return items, nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCollectionUpdateReportsWriteFault(t *testing.T) {
	backend := &flakyBackend{MemoryBackend: store.NewMemoryBackend(), failSave: true}
	repo := NewCourseRepository(store.New(backend, store.Options{}), nil)
	err := repo.Update(context.Background(), func(items []models.Course) ([]models.Course, error) {
		return append(items, models.Course{ID: "CS101"}), nil
	})
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestCollectionUpdateMutateErrorSkipsWrite(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	repo := NewCourseRepository(store.New(backend, store.Options{}), nil)
	stop := errors.New("stop")

	err := repo.Update(ctx, func(items []models.Course) ([]models.Course, error) {
		return append(items, models.Course{ID: "CS101"}), stop
	})
	assert.ErrorIs(t, err, stop)
	_, err = backend.Load(ctx, store.DefaultKeyPrefix+store.KeyCourses)
	assert.ErrorIs(t, err, store.ErrKeyNotFound)
}

func TestCollectionUpdateAndQuery(t *testing.T) {
	ctx := context.Background()
	repo := NewCourseRepository(newMemoryStore(), nil)
	require.NoError(t, repo.Update(ctx, func(items []models.Course) ([]models.Course, error) {
		return append(items,
			models.Course{ID: "CS101", Name: "Introduction to Programming", Credits: 3},
			models.Course{ID: "CS201", Name: "Data Structures & Algorithms", Credits: 4},
		), nil
	}))

	courses := repo.All(ctx)
	require.Len(t, courses, 2)
	assert.Equal(t, "CS201", courses[1].ID)
	assert.Equal(t, store.KeyCourses, repo.Key())
}

func TestCollectionUpdateNilWritesEmptyArray(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryBackend()
	repo := NewAttendanceRepository(store.New(backend, store.Options{}), nil)
	require.NoError(t, repo.Update(ctx, func([]models.AttendanceRecord) ([]models.AttendanceRecord, error) {
		return nil, nil
	}))

	raw, err := backend.Load(ctx, store.DefaultKeyPrefix+store.KeyAttendance)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestCollectionUpdateSerialisesWriters(t *testing.T) {
	ctx := context.Background()
	backend := &flakyBackend{MemoryBackend: store.NewMemoryBackend(), loadDelay: time.Millisecond}
	records := store.New(backend, store.Options{})
	// Two handles on the same key share the store's lock.
	first := NewAttendanceRepository(records, nil)
	second := NewAttendanceRepository(records, nil)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		repo := first
		if i%2 == 1 {
			repo = second
		}
		wg.Add(1)
		go func(i int, repo *AttendanceRepository) {
			defer wg.Done()
			err := repo.Update(ctx, func(items []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
				return append(items, models.AttendanceRecord{ID: fmt.Sprintf("r%d", i)}), nil
			})
			assert.NoError(t, err)
		}(i, repo)
	}
	wg.Wait()

	assert.Len(t, first.All(ctx), 40)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(newMemoryStore(), nil)

	_, ok := repo.Current(ctx)
	assert.False(t, ok)

	login := time.Date(2024, 10, 1, 9, 0, 0, 0, time.UTC)
	require.True(t, repo.Save(ctx, models.Session{UserID: "teacher001", Name: "Dr. Sarah Johnson", Role: models.RoleTeacher, LoginTime: login}))

	session, ok := repo.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "teacher001", session.UserID)
	assert.True(t, session.LoginTime.Equal(login))

	require.True(t, repo.Clear(ctx))
	_, ok = repo.Current(ctx)
	assert.False(t, ok)
}
