package dto

// TimeSlotRequest is a caller-supplied candidate period.
type TimeSlotRequest struct {
	DayOfWeek int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartTime string `json:"startTime" validate:"required"`
	EndTime   string `json:"endTime" validate:"required"`
}

// AutoScheduleRequest instructs the engine to build a timetable for a semester.
// When SectionIDs is empty every section of the semester is scheduled. When
// AllowedSlots is empty the configured default weekday catalogue is used.
type AutoScheduleRequest struct {
	Semester      string            `json:"semester" validate:"required"`
	Year          int               `json:"year" validate:"required,min=2000,max=2100"`
	SectionIDs    []string          `json:"sectionIds" validate:"omitempty,dive,required"`
	AllowedSlots  []TimeSlotRequest `json:"allowedSlots" validate:"omitempty,dive"`
	MaxIterations int               `json:"maxIterations" validate:"omitempty,min=1"`
	DryRun        bool              `json:"dryRun"`
	Async         bool              `json:"async"`
}

// GeneratedScheduleDto is one placed section in the result.
type GeneratedScheduleDto struct {
	SectionID      string `json:"sectionId"`
	CourseCode     string `json:"courseCode"`
	CourseName     string `json:"courseName"`
	SectionNumber  int    `json:"sectionNumber"`
	ClassroomID    string `json:"classroomId"`
	ClassroomInfo  string `json:"classroomInfo"`
	DayOfWeek      int    `json:"dayOfWeek"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	InstructorName string `json:"instructorName"`
}

// FailedSectionDto explains why a section could not be placed.
type FailedSectionDto struct {
	SectionID     string `json:"sectionId"`
	CourseCode    string `json:"courseCode"`
	CourseName    string `json:"courseName"`
	SectionNumber int    `json:"sectionNumber"`
	Reason        string `json:"reason"`
}

// ScheduleStatisticsDto summarises the search effort.
type ScheduleStatisticsDto struct {
	TotalIterations     int   `json:"totalIterations"`
	BacktrackCount      int   `json:"backtrackCount"`
	ElapsedMilliseconds int64 `json:"elapsedMilliseconds"`
}

// AutoScheduleResult is the outcome of one scheduling run.
type AutoScheduleResult struct {
	IsSuccess           bool                   `json:"isSuccess"`
	Message             string                 `json:"message"`
	TotalSections       int                    `json:"totalSections"`
	ScheduledSections   int                    `json:"scheduledSections"`
	UnscheduledSections int                    `json:"unscheduledSections"`
	GeneratedSchedules  []GeneratedScheduleDto `json:"generatedSchedules"`
	FailedSections      []FailedSectionDto     `json:"failedSections"`
	Statistics          ScheduleStatisticsDto  `json:"statistics"`
}

// AsyncRunAccepted acknowledges a queued scheduling run.
type AsyncRunAccepted struct {
	RunID  string `json:"runId"`
	Status string `json:"status"`
}

// Async run lifecycle states.
const (
	RunStatusQueued  = "queued"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// AsyncRunStatus is the polled state of a queued scheduling run. Result is
// populated once the run reaches the done state.
type AsyncRunStatus struct {
	RunID  string              `json:"runId"`
	Status string              `json:"status"`
	Result *AutoScheduleResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}
