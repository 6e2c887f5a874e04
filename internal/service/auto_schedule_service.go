package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/smart-campus/campus-api/internal/dto"
	"github.com/smart-campus/campus-api/internal/models"
	"github.com/smart-campus/campus-api/internal/scheduler"
	appErrors "github.com/smart-campus/campus-api/pkg/errors"
	"github.com/smart-campus/campus-api/pkg/jobs"
)

type sectionReader interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, error)
}

type classroomReader interface {
	List(ctx context.Context) ([]models.Classroom, error)
}

type scheduleStore interface {
	ListBySemester(ctx context.Context, semester string, year int) ([]models.Schedule, error)
	ReplaceSemester(ctx context.Context, semester string, year int, schedules []models.Schedule) error
}

type scheduleRunner interface {
	Run(ctx context.Context, input scheduler.Input) scheduler.Result
}

// AutoScheduleConfig tunes scheduling-run behaviour.
type AutoScheduleConfig struct {
	MaxIterations    int
	TimetableTTL     time.Duration
	AsyncWorkers     int
	AsyncQueueBuffer int
	AsyncResultTTL   time.Duration
}

// AutoScheduleService orchestrates automatic timetable generation: it loads
// the semester snapshot, invokes the constraint engine, persists the outcome
// atomically, and serves cached timetables. Async runs are executed on an
// in-process worker queue and polled by run id.
type AutoScheduleService struct {
	sections   sectionReader
	classrooms classroomReader
	schedules  scheduleStore
	engine     scheduleRunner
	cache      *CacheService
	metrics    *MetricsService
	queue      *jobs.Queue
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AutoScheduleConfig
}

// NewAutoScheduleService constructs the service and its async run queue.
func NewAutoScheduleService(
	sections sectionReader,
	classrooms classroomReader,
	schedules scheduleStore,
	engine scheduleRunner,
	cache *CacheService,
	metrics *MetricsService,
	cfg AutoScheduleConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *AutoScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = scheduler.DefaultMaxIterations
	}
	if cfg.TimetableTTL <= 0 {
		cfg.TimetableTTL = 10 * time.Minute
	}
	if cfg.AsyncResultTTL <= 0 {
		cfg.AsyncResultTTL = time.Hour
	}

	s := &AutoScheduleService{
		sections:   sections,
		classrooms: classrooms,
		schedules:  schedules,
		engine:     engine,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
	}
	s.queue = jobs.NewQueue("auto-schedule", s.handleRunJob, jobs.QueueConfig{
		Workers:    cfg.AsyncWorkers,
		BufferSize: cfg.AsyncQueueBuffer,
		MaxRetries: 1,
		Logger:     logger,
	})
	return s
}

// StartWorkers launches the async run workers.
func (s *AutoScheduleService) StartWorkers(ctx context.Context) {
	s.queue.Start(ctx)
}

// StopWorkers drains and stops the async run workers.
func (s *AutoScheduleService) StopWorkers() {
	s.queue.Stop()
}

// Run executes one synchronous scheduling run and returns its full outcome.
// Partial results are not errors: sections that cannot be placed are reported
// in FailedSections while the rest of the timetable is committed.
func (s *AutoScheduleService) Run(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AutoScheduleResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-schedule request")
	}

	slots, err := parseAllowedSlots(req.AllowedSlots)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	sections, err := s.sections.List(ctx, models.SectionFilter{
		Semester:   req.Semester,
		Year:       req.Year,
		SectionIDs: req.SectionIDs,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	current, err := s.schedules.ListBySemester(ctx, req.Semester, req.Year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current timetable")
	}

	// A scoped run only reschedules the requested sections; placements of
	// every other section stay fixed and constrain the search.
	scoped := make(map[string]bool, len(req.SectionIDs))
	for _, id := range req.SectionIDs {
		scoped[id] = true
	}
	var kept []models.Schedule
	var existing []scheduler.Assignment
	if len(scoped) > 0 {
		for _, sched := range current {
			if scoped[sched.SectionID] {
				continue
			}
			assignment, convErr := scheduleToAssignment(sched)
			if convErr != nil {
				return nil, appErrors.Wrap(convErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt timetable entry")
			}
			kept = append(kept, sched)
			existing = append(existing, assignment)
		}
	}

	input := scheduler.Input{
		Classrooms:    make([]scheduler.Classroom, 0, len(classrooms)),
		Sections:      make([]scheduler.Section, 0, len(sections)),
		Slots:         slots,
		Existing:      existing,
		MaxIterations: req.MaxIterations,
	}
	if input.MaxIterations <= 0 {
		input.MaxIterations = s.cfg.MaxIterations
	}

	roomByID := make(map[string]models.Classroom, len(classrooms))
	for _, room := range classrooms {
		roomByID[room.ID] = room
		input.Classrooms = append(input.Classrooms, scheduler.Classroom{
			ID:       room.ID,
			Label:    room.Label(),
			Capacity: room.Capacity,
			Features: decodeFeatureSet(room.Features),
		})
	}
	sectionByID := make(map[string]models.Section, len(sections))
	for _, section := range sections {
		sectionByID[section.ID] = section
		input.Sections = append(input.Sections, scheduler.Section{
			ID:               section.ID,
			CourseCode:       section.CourseCode,
			CourseName:       section.CourseName,
			SectionNumber:    section.SectionNumber,
			InstructorID:     section.InstructorID,
			RequiredCapacity: requiredCapacity(section),
			RequiredFeatures: decodeFeatureList(section.RequiredFeatures),
		})
	}

	outcome := s.engine.Run(ctx, input)
	result := buildRunResult(outcome, sectionByID, roomByID)

	if s.metrics != nil {
		s.metrics.ObserveSchedulingRun(len(outcome.Assigned), len(outcome.Failed), outcome.Stats.Elapsed)
	}

	if !outcome.OK || req.DryRun {
		return result, nil
	}

	committed := append(kept, assignmentsToSchedules(outcome.Assigned, req.Semester, req.Year, sectionByID, roomByID)...)
	if err := s.schedules.ReplaceSemester(ctx, req.Semester, req.Year, committed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	s.invalidateTimetable(ctx, req.Semester, req.Year)

	return result, nil
}

// RunAsync queues a scheduling run and returns immediately with a run id the
// caller can poll.
func (s *AutoScheduleService) RunAsync(ctx context.Context, req dto.AutoScheduleRequest) (*dto.AsyncRunAccepted, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid auto-schedule request")
	}

	runID := uuid.NewString()
	status := dto.AsyncRunStatus{RunID: runID, Status: dto.RunStatusQueued}
	if err := s.cache.Set(ctx, runKey(runID), status, s.cfg.AsyncResultTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record run status")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: runID, Type: "auto-schedule", Payload: req}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue scheduling run")
	}

	return &dto.AsyncRunAccepted{RunID: runID, Status: dto.RunStatusQueued}, nil
}

// GetRunStatus returns the polled state of an async run.
func (s *AutoScheduleService) GetRunStatus(ctx context.Context, runID string) (*dto.AsyncRunStatus, error) {
	var status dto.AsyncRunStatus
	hit, err := s.cache.Get(ctx, runKey(runID), &status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load run status")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "scheduling run not found or expired")
	}
	return &status, nil
}

func (s *AutoScheduleService) handleRunJob(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.AutoScheduleRequest)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	s.setRunStatus(ctx, dto.AsyncRunStatus{RunID: job.ID, Status: dto.RunStatusRunning})

	result, err := s.Run(ctx, req)
	if err != nil {
		s.logger.Error("async scheduling run failed", zap.String("run_id", job.ID), zap.Error(err))
		s.setRunStatus(ctx, dto.AsyncRunStatus{RunID: job.ID, Status: dto.RunStatusFailed, Error: err.Error()})
		return nil
	}

	s.setRunStatus(ctx, dto.AsyncRunStatus{RunID: job.ID, Status: dto.RunStatusDone, Result: result})
	return nil
}

func (s *AutoScheduleService) setRunStatus(ctx context.Context, status dto.AsyncRunStatus) {
	if err := s.cache.Set(ctx, runKey(status.RunID), status, s.cfg.AsyncResultTTL); err != nil {
		s.logger.Warn("failed to update run status", zap.String("run_id", status.RunID), zap.Error(err))
	}
}

// GetTimetable serves the committed semester timetable through the cache.
func (s *AutoScheduleService) GetTimetable(ctx context.Context, semester string, year int) ([]models.Schedule, error) {
	key := timetableKey(semester, year)

	var cached []models.Schedule
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	schedules, err := s.schedules.ListBySemester(ctx, semester, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if err := s.cache.Set(ctx, key, schedules, s.cfg.TimetableTTL); err != nil {
		s.logger.Warn("failed to cache timetable", zap.String("key", key), zap.Error(err))
	}
	return schedules, nil
}

func (s *AutoScheduleService) invalidateTimetable(ctx context.Context, semester string, year int) {
	if err := s.cache.Invalidate(ctx, timetableKey(semester, year)); err != nil {
		s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
	}
}

func runKey(runID string) string {
	return "schedule:run:" + runID
}

func timetableKey(semester string, year int) string {
	return fmt.Sprintf("schedule:timetable:%s:%d", semester, year)
}

func parseAllowedSlots(requests []dto.TimeSlotRequest) ([]scheduler.TimeSlot, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	slots := make([]scheduler.TimeSlot, 0, len(requests))
	for _, r := range requests {
		start, err := scheduler.ParseClock(r.StartTime)
		if err != nil {
			return nil, fmt.Errorf("allowed slot: %w", err)
		}
		end, err := scheduler.ParseClock(r.EndTime)
		if err != nil {
			return nil, fmt.Errorf("allowed slot: %w", err)
		}
		slot := scheduler.TimeSlot{Day: r.DayOfWeek, Start: start, End: end}
		if !slot.Valid() {
			return nil, fmt.Errorf("invalid allowed slot: %s", slot)
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func scheduleToAssignment(sched models.Schedule) (scheduler.Assignment, error) {
	start, err := scheduler.ParseClock(sched.StartTime)
	if err != nil {
		return scheduler.Assignment{}, fmt.Errorf("schedule %s: %w", sched.ID, err)
	}
	end, err := scheduler.ParseClock(sched.EndTime)
	if err != nil {
		return scheduler.Assignment{}, fmt.Errorf("schedule %s: %w", sched.ID, err)
	}
	return scheduler.Assignment{
		SectionID:    sched.SectionID,
		ClassroomID:  sched.ClassroomID,
		InstructorID: sched.InstructorID,
		Slot:         scheduler.TimeSlot{Day: sched.DayOfWeek, Start: start, End: end},
	}, nil
}

func assignmentsToSchedules(assigned []scheduler.Assignment, semester string, year int, sections map[string]models.Section, rooms map[string]models.Classroom) []models.Schedule {
	schedules := make([]models.Schedule, 0, len(assigned))
	for _, a := range assigned {
		section := sections[a.SectionID]
		room := rooms[a.ClassroomID]
		schedules = append(schedules, models.Schedule{
			Semester:       semester,
			Year:           year,
			SectionID:      a.SectionID,
			CourseCode:     section.CourseCode,
			CourseName:     section.CourseName,
			SectionNumber:  section.SectionNumber,
			ClassroomID:    a.ClassroomID,
			ClassroomInfo:  room.Label(),
			InstructorID:   a.InstructorID,
			InstructorName: section.InstructorName,
			DayOfWeek:      a.Slot.Day,
			StartTime:      scheduler.FormatClock(a.Slot.Start),
			EndTime:        scheduler.FormatClock(a.Slot.End),
		})
	}
	return schedules
}

func buildRunResult(outcome scheduler.Result, sections map[string]models.Section, rooms map[string]models.Classroom) *dto.AutoScheduleResult {
	result := &dto.AutoScheduleResult{
		IsSuccess:           outcome.OK,
		Message:             outcome.Message,
		TotalSections:       len(outcome.Assigned) + len(outcome.Failed),
		ScheduledSections:   len(outcome.Assigned),
		UnscheduledSections: len(outcome.Failed),
		GeneratedSchedules:  make([]dto.GeneratedScheduleDto, 0, len(outcome.Assigned)),
		FailedSections:      make([]dto.FailedSectionDto, 0, len(outcome.Failed)),
		Statistics: dto.ScheduleStatisticsDto{
			TotalIterations:     outcome.Stats.TotalIterations,
			BacktrackCount:      outcome.Stats.BacktrackCount,
			ElapsedMilliseconds: outcome.Stats.Elapsed.Milliseconds(),
		},
	}

	for _, a := range outcome.Assigned {
		section := sections[a.SectionID]
		room := rooms[a.ClassroomID]
		result.GeneratedSchedules = append(result.GeneratedSchedules, dto.GeneratedScheduleDto{
			SectionID:      a.SectionID,
			CourseCode:     section.CourseCode,
			CourseName:     section.CourseName,
			SectionNumber:  section.SectionNumber,
			ClassroomID:    a.ClassroomID,
			ClassroomInfo:  room.Label(),
			DayOfWeek:      a.Slot.Day,
			StartTime:      scheduler.FormatClock(a.Slot.Start),
			EndTime:        scheduler.FormatClock(a.Slot.End),
			InstructorName: section.InstructorName,
		})
	}
	for _, f := range outcome.Failed {
		section := sections[f.SectionID]
		result.FailedSections = append(result.FailedSections, dto.FailedSectionDto{
			SectionID:     f.SectionID,
			CourseCode:    section.CourseCode,
			CourseName:    section.CourseName,
			SectionNumber: section.SectionNumber,
			Reason:        f.Reason,
		})
	}
	return result
}

func requiredCapacity(section models.Section) int {
	if section.RequiredCapacity > 0 {
		return section.RequiredCapacity
	}
	return section.EnrolledCount
}

func decodeFeatureList(raw types.JSONText) []string {
	if len(raw) == 0 {
		return nil
	}
	var features []string
	if err := json.Unmarshal(raw, &features); err != nil {
		return nil
	}
	return features
}

func decodeFeatureSet(raw types.JSONText) map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	set := make(map[string]bool)
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil
	}
	return set
}
