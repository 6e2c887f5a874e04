package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/models"
	"github.com/smart-campus/campus-api/internal/scheduler"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
)

type stubSectionRepo struct {
	sections []models.Section
}

func (s *stubSectionRepo) List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error) {
	if len(filter.SectionIDs) == 0 {
		return s.sections, nil
	}
	scoped := make(map[string]bool, len(filter.SectionIDs))
	for _, id := range filter.SectionIDs {
		scoped[id] = true
	}
	var result []models.Section
	for _, section := range s.sections {
		if scoped[section.ID] {
			result = append(result, section)
		}
	}
	return result, nil
}

type stubClassroomRepo struct {
	rooms []models.Classroom
}

func (s *stubClassroomRepo) List(ctx context.Context) ([]models.Classroom, error) {
	return s.rooms, nil
}

type stubScheduleStore struct {
	current  []models.Schedule
	replaced []models.Schedule
	calls    int
}

func (s *stubScheduleStore) ListBySemester(ctx context.Context, semester string, year int) ([]models.Schedule, error) {
	return s.current, nil
}

func (s *stubScheduleStore) ReplaceSemester(ctx context.Context, semester string, year int, schedules []models.Schedule) error {
	s.replaced = schedules
	s.calls++
	return nil
}

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, pattern)
	return nil
}

func newTestAutoScheduleService(sections []models.Section, rooms []models.Classroom, store *stubScheduleStore) *AutoScheduleService {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	engine := scheduler.NewEngine(scheduler.CatalogConfig{}, nil)
	return NewAutoScheduleService(
		&stubSectionRepo{sections: sections},
		&stubClassroomRepo{rooms: rooms},
		store,
		engine,
		cache,
		NewMetricsService(),
		AutoScheduleConfig{AsyncWorkers: 1},
		nil,
		nil,
	)
}

func testSections() []models.Section {
	return []models.Section{
		{ID: "sec-1", CourseCode: "CS101", CourseName: "Intro to CS", SectionNumber: 1, InstructorID: "inst-1", InstructorName: "Dr. Sari", Semester: "ganjil", Year: 2026, RequiredCapacity: 30},
		{ID: "sec-2", CourseCode: "CS102", CourseName: "Data Structures", SectionNumber: 1, InstructorID: "inst-2", InstructorName: "Dr. Budi", Semester: "ganjil", Year: 2026, RequiredCapacity: 25},
	}
}

func testClassrooms() []models.Classroom {
	return []models.Classroom{
		{ID: "room-a", Building: "Gedung A", RoomNumber: "101", Capacity: 40},
	}
}

func TestAutoScheduleServiceRunPersistsTimetable(t *testing.T) {
	store := &stubScheduleStore{}
	svc := newTestAutoScheduleService(testSections(), testClassrooms(), store)

	result, err := svc.Run(context.Background(), dto.AutoScheduleRequest{Semester: "ganjil", Year: 2026})
	require.NoError(t, err)

	assert.True(t, result.IsSuccess)
	assert.Equal(t, 2, result.TotalSections)
	assert.Equal(t, 2, result.ScheduledSections)
	assert.Equal(t, 0, result.UnscheduledSections)
	require.Len(t, result.GeneratedSchedules, 2)
	assert.Equal(t, "CS101", result.GeneratedSchedules[0].CourseCode)
	assert.Equal(t, "Gedung A 101", result.GeneratedSchedules[0].ClassroomInfo)

	require.Equal(t, 1, store.calls)
	require.Len(t, store.replaced, 2)
	assert.Equal(t, "ganjil", store.replaced[0].Semester)
	assert.Regexp(t, `^\d{2}:\d{2}$`, store.replaced[0].StartTime)
}

func TestAutoScheduleServiceDryRunSkipsPersist(t *testing.T) {
	store := &stubScheduleStore{}
	svc := newTestAutoScheduleService(testSections(), testClassrooms(), store)

	result, err := svc.Run(context.Background(), dto.AutoScheduleRequest{Semester: "ganjil", Year: 2026, DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ScheduledSections)
	assert.Equal(t, 0, store.calls)
}

func TestAutoScheduleServiceRunReportsFailures(t *testing.T) {
	sections := testSections()
	sections[1].RequiredCapacity = 500
	store := &stubScheduleStore{}
	svc := newTestAutoScheduleService(sections, testClassrooms(), store)

	result, err := svc.Run(context.Background(), dto.AutoScheduleRequest{Semester: "ganjil", Year: 2026})
	require.NoError(t, err)

	assert.True(t, result.IsSuccess, "partial results are not errors")
	assert.Equal(t, 1, result.ScheduledSections)
	require.Len(t, result.FailedSections, 1)
	assert.Equal(t, "sec-2", result.FailedSections[0].SectionID)
	assert.Equal(t, "CS102", result.FailedSections[0].CourseCode)
	assert.NotEmpty(t, result.FailedSections[0].Reason)

	// The partial timetable is still committed.
	require.Equal(t, 1, store.calls)
	assert.Len(t, store.replaced, 1)
}

func TestAutoScheduleServiceScopedRunKeepsOtherPlacements(t *testing.T) {
	store := &stubScheduleStore{
		current: []models.Schedule{
			{ID: "sch-old", Semester: "ganjil", Year: 2026, SectionID: "sec-2", ClassroomID: "room-a", InstructorID: "inst-2", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
		},
	}
	svc := newTestAutoScheduleService(testSections(), testClassrooms(), store)

	result, err := svc.Run(context.Background(), dto.AutoScheduleRequest{
		Semester:   "ganjil",
		Year:       2026,
		SectionIDs: []string{"sec-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ScheduledSections)
	require.Len(t, store.replaced, 2)

	byID := make(map[string]models.Schedule)
	for _, sched := range store.replaced {
		byID[sched.SectionID] = sched
	}
	kept, ok := byID["sec-2"]
	require.True(t, ok, "placement outside the run scope must survive")
	assert.Equal(t, "sch-old", kept.ID)

	fresh := byID["sec-1"]
	sameSlot := fresh.DayOfWeek == kept.DayOfWeek && fresh.StartTime == kept.StartTime
	assert.False(t, sameSlot, "new placement must not collide with the fixed one")
}

func TestAutoScheduleServiceRejectsInvalidRequest(t *testing.T) {
	svc := newTestAutoScheduleService(testSections(), testClassrooms(), &stubScheduleStore{})

	_, err := svc.Run(context.Background(), dto.AutoScheduleRequest{Year: 2026})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Run(context.Background(), dto.AutoScheduleRequest{
		Semester:     "ganjil",
		Year:         2026,
		AllowedSlots: []dto.TimeSlotRequest{{DayOfWeek: 1, StartTime: "26:00", EndTime: "27:00"}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleServiceAsyncRun(t *testing.T) {
	store := &stubScheduleStore{}
	svc := newTestAutoScheduleService(testSections(), testClassrooms(), store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.StartWorkers(ctx)
	defer svc.StopWorkers()

	accepted, err := svc.RunAsync(ctx, dto.AutoScheduleRequest{Semester: "ganjil", Year: 2026})
	require.NoError(t, err)
	require.NotEmpty(t, accepted.RunID)
	assert.Equal(t, dto.RunStatusQueued, accepted.Status)

	require.Eventually(t, func() bool {
		status, err := svc.GetRunStatus(ctx, accepted.RunID)
		return err == nil && status.Status == dto.RunStatusDone
	}, 2*time.Second, 10*time.Millisecond)

	status, err := svc.GetRunStatus(ctx, accepted.RunID)
	require.NoError(t, err)
	require.NotNil(t, status.Result)
	assert.Equal(t, 2, status.Result.ScheduledSections)
}

func TestAutoScheduleServiceGetRunStatusUnknown(t *testing.T) {
	svc := newTestAutoScheduleService(nil, nil, &stubScheduleStore{})

	_, err := svc.GetRunStatus(context.Background(), "missing-run")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAutoScheduleServiceGetTimetableCaches(t *testing.T) {
	store := &stubScheduleStore{
		current: []models.Schedule{
			{ID: "sch-1", Semester: "ganjil", Year: 2026, SectionID: "sec-1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"},
		},
	}
	svc := newTestAutoScheduleService(nil, nil, store)

	first, err := svc.GetTimetable(context.Background(), "ganjil", 2026)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Second read is served from cache even if the store changes underneath.
	store.current = nil
	second, err := svc.GetTimetable(context.Background(), "ganjil", 2026)
	require.NoError(t, err)
	assert.Len(t, second, 1)
}
