package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Failure reasons reported per section. Per-section infeasibility is data,
// not an error: the engine never fails the whole run because one section
// cannot be placed.
const (
	ReasonNoCapacity      = "no classroom meets the required capacity"
	ReasonNoFeatures      = "no classroom provides the required features"
	ReasonNoFeasibleSlot  = "no available classroom/time slot satisfies capacity and conflict constraints"
	ReasonBudgetExhausted = "search budget exhausted"
)

// DefaultMaxIterations bounds the search when the caller does not override it.
const DefaultMaxIterations = 10000

// Section is the scheduling view of a course offering. Inputs are read-only
// snapshots; the engine never mutates them.
type Section struct {
	ID               string
	CourseCode       string
	CourseName       string
	SectionNumber    int
	InstructorID     string
	RequiredCapacity int
	RequiredFeatures []string
}

// Classroom is a schedulable room with capacity and feature flags.
type Classroom struct {
	ID       string
	Label    string
	Capacity int
	Features map[string]bool
}

// Assignment is one placed section: a classroom plus a weekly slot. An
// assignment is atomic; sections are never partially scheduled.
type Assignment struct {
	SectionID    string
	ClassroomID  string
	InstructorID string
	Slot         TimeSlot
}

// Failure explains why a section was left unscheduled.
type Failure struct {
	SectionID string
	Reason    string
}

// Stats summarises the search effort of one run.
type Stats struct {
	TotalIterations int
	BacktrackCount  int
	Elapsed         time.Duration
}

// Input is the fully materialised snapshot for one scheduling run. The engine
// performs no I/O: sections, classrooms and slots must be loaded before Run.
type Input struct {
	Sections   []Section
	Classrooms []Classroom
	// Slots is the allowed period catalogue; when empty the engine's default
	// catalogue is used.
	Slots []TimeSlot
	// Existing holds placements that are fixed for this run. They occupy the
	// conflict index, and any section listed here is skipped, so re-running
	// the engine on its own output produces no new conflicts.
	Existing      []Assignment
	MaxIterations int
}

// Result is the outcome of one run. OK is false only for malformed input;
// unplaced sections appear in Failed with a reason and leave OK true.
type Result struct {
	OK       bool
	Message  string
	Assigned []Assignment
	Failed   []Failure
	Stats    Stats
}

// Engine assigns sections to (classroom, slot) pairs with most-constrained-
// first backtracking over a conflict index. One Engine may serve concurrent
// runs: every Run builds its own index and search state.
type Engine struct {
	catalog CatalogConfig
	logger  *zap.Logger
}

// NewEngine builds an engine with the given default catalogue configuration.
func NewEngine(catalog CatalogConfig, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{catalog: catalog, logger: logger}
}

// Run executes one scheduling run. It only returns early for malformed input
// (empty sections or classrooms, invalid slot definitions); everything else,
// including budget exhaustion and cancellation, degrades into a partial
// result.
func (e *Engine) Run(ctx context.Context, input Input) Result {
	started := time.Now()

	if msg := validateInput(input); msg != "" {
		return Result{OK: false, Message: msg}
	}

	slots := input.Slots
	if len(slots) == 0 {
		slots = DefaultCatalog(e.catalog)
	}

	run := &searchRun{
		classrooms:    sortClassrooms(input.Classrooms),
		slots:         sortSlots(slots),
		bySection:     make(map[string]int),
		index:         NewConflictIndex(),
		assigned:      make(map[string]Assignment),
		failed:        make(map[string]string),
		maxIterations: input.MaxIterations,
	}
	if run.maxIterations <= 0 {
		run.maxIterations = DefaultMaxIterations
	}

	fixed := make(map[string]bool, len(input.Existing))
	for _, placement := range input.Existing {
		fixed[placement.SectionID] = true
		run.index.Insert("fixed:"+placement.SectionID, placement.ClassroomID, placement.InstructorID, placement.Slot)
	}

	// Sections with an empty static domain fail immediately, before any
	// search effort is spent on them.
	for _, section := range sortSections(input.Sections) {
		if fixed[section.ID] {
			continue
		}
		if _, seen := run.bySection[section.ID]; seen {
			continue
		}
		domain, domainErr := buildDomain(section, run.classrooms, run.slots)
		switch domainErr {
		case domainNoCapacity:
			run.failed[section.ID] = ReasonNoCapacity
		case domainNoFeatures:
			run.failed[section.ID] = ReasonNoFeatures
		default:
			run.bySection[section.ID] = len(run.sections)
			run.sections = append(run.sections, section)
			run.domains = append(run.domains, domain)
		}
	}

	run.search(ctx)

	result := run.collect()
	result.Stats.Elapsed = time.Since(started)

	e.logger.Info("scheduling run finished",
		zap.Int("total", len(result.Assigned)+len(result.Failed)),
		zap.Int("scheduled", len(result.Assigned)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("iterations", result.Stats.TotalIterations),
		zap.Int("backtracks", result.Stats.BacktrackCount),
		zap.Duration("elapsed", result.Stats.Elapsed),
	)
	return result
}

func validateInput(input Input) string {
	if len(input.Sections) == 0 {
		return "section list is empty"
	}
	if len(input.Classrooms) == 0 {
		return "classroom catalogue is empty"
	}
	for _, slot := range input.Slots {
		if !slot.Valid() {
			return fmt.Sprintf("invalid time slot: %s", slot)
		}
	}
	for _, placement := range input.Existing {
		if !placement.Slot.Valid() {
			return fmt.Sprintf("invalid existing placement for section %s: %s", placement.SectionID, placement.Slot)
		}
	}
	return ""
}

// searchRun holds the mutable state of one run. It is confined to a single
// goroutine for the lifetime of the run.
type searchRun struct {
	classrooms []Classroom
	slots      []TimeSlot

	sections  []Section
	domains   [][]candidate
	bySection map[string]int

	index    *ConflictIndex
	assigned map[string]Assignment
	failed   map[string]string

	iterations    int
	backtracks    int
	maxIterations int
	stopped       bool
	lastStuck     string
}

// search drives the outer loop: strict chronological backtracking, and when a
// branch proves a section unplaceable under every arrangement, that section is
// dropped from the pending set and the search restarts without it. Restarting
// keeps partial-result semantics without giving up on backtracking inside a
// single attempt.
func (r *searchRun) search(ctx context.Context) {
	for {
		if r.exhausted(ctx) {
			r.markPendingExhausted()
			return
		}
		if r.solve(ctx) {
			if r.stopped {
				r.markPendingExhausted()
			}
			return
		}
		// The branch died at lastStuck: record it and retry without it.
		stuck := r.lastStuck
		if stuck == "" {
			// No stuck section identified means nothing is placeable at all.
			r.markPendingExhausted()
			return
		}
		r.failed[stuck] = ReasonNoFeasibleSlot
		r.reset()
	}
}

// solve is one strict backtracking attempt over every pending section.
// Returning true means every pending section is placed, or the budget stopped
// the search with the current partial accepted. Returning false propagates a
// dead branch to the caller.
func (r *searchRun) solve(ctx context.Context) bool {
	if r.stopped {
		return true
	}
	if r.exhausted(ctx) {
		r.stopped = true
		return true
	}

	idx := r.pickMostConstrained()
	if idx < 0 {
		return true
	}
	section := r.sections[idx]

	feasible := r.feasibleCandidates(idx)
	if len(feasible) == 0 {
		r.lastStuck = section.ID
		return false
	}

	for _, c := range feasible {
		r.iterations++
		r.place(section, c)
		if r.solve(ctx) {
			return true
		}
		r.unplace(section)
		r.backtracks++
		if r.exhausted(ctx) {
			r.stopped = true
			return true
		}
	}
	return false
}

// pickMostConstrained returns the pending section with the fewest feasible
// candidates against the current index; ties break on ascending section id
// because sections are kept in id order. Returns -1 when nothing is pending.
func (r *searchRun) pickMostConstrained() int {
	best := -1
	bestCount := -1
	for i, section := range r.sections {
		if _, done := r.assigned[section.ID]; done {
			continue
		}
		if _, dead := r.failed[section.ID]; dead {
			continue
		}
		count := r.countFeasible(i)
		if best < 0 || count < bestCount {
			best = i
			bestCount = count
			if count == 0 {
				break
			}
		}
	}
	return best
}

func (r *searchRun) countFeasible(idx int) int {
	count := 0
	for _, c := range r.domains[idx] {
		if r.candidateFree(r.sections[idx], c) {
			count++
		}
	}
	return count
}

func (r *searchRun) feasibleCandidates(idx int) []candidate {
	var feasible []candidate
	for _, c := range r.domains[idx] {
		if r.candidateFree(r.sections[idx], c) {
			feasible = append(feasible, c)
		}
	}
	return feasible
}

func (r *searchRun) candidateFree(section Section, c candidate) bool {
	slot := r.slots[c.slot]
	if r.index.HasClassroomConflict(r.classrooms[c.room].ID, slot, "") {
		return false
	}
	return !r.index.HasInstructorConflict(section.InstructorID, slot, "")
}

func (r *searchRun) place(section Section, c candidate) {
	assignment := Assignment{
		SectionID:    section.ID,
		ClassroomID:  r.classrooms[c.room].ID,
		InstructorID: section.InstructorID,
		Slot:         r.slots[c.slot],
	}
	r.assigned[section.ID] = assignment
	r.index.Insert(section.ID, assignment.ClassroomID, assignment.InstructorID, assignment.Slot)
}

func (r *searchRun) unplace(section Section) {
	assignment, ok := r.assigned[section.ID]
	if !ok {
		return
	}
	delete(r.assigned, section.ID)
	r.index.Remove(section.ID, assignment.ClassroomID, assignment.InstructorID)
}

// reset retracts every tentative placement ahead of a restart. Fixed entries
// stay in the index because they were inserted under a "fixed:" id.
func (r *searchRun) reset() {
	for id, assignment := range r.assigned {
		r.index.Remove(id, assignment.ClassroomID, assignment.InstructorID)
	}
	r.assigned = make(map[string]Assignment)
	r.lastStuck = ""
	r.stopped = false
}

func (r *searchRun) exhausted(ctx context.Context) bool {
	return r.iterations >= r.maxIterations || ctx.Err() != nil
}

func (r *searchRun) markPendingExhausted() {
	for _, section := range r.sections {
		if _, done := r.assigned[section.ID]; done {
			continue
		}
		if _, dead := r.failed[section.ID]; dead {
			continue
		}
		r.failed[section.ID] = ReasonBudgetExhausted
	}
}

// collect produces the deterministic result: assignments and failures sorted
// by section id.
func (r *searchRun) collect() Result {
	assigned := make([]Assignment, 0, len(r.assigned))
	for _, assignment := range r.assigned {
		assigned = append(assigned, assignment)
	}
	sort.Slice(assigned, func(i, j int) bool { return assigned[i].SectionID < assigned[j].SectionID })

	failed := make([]Failure, 0, len(r.failed))
	for id, reason := range r.failed {
		failed = append(failed, Failure{SectionID: id, Reason: reason})
	}
	sort.Slice(failed, func(i, j int) bool { return failed[i].SectionID < failed[j].SectionID })

	total := len(assigned) + len(failed)
	message := fmt.Sprintf("scheduled %d of %d sections", len(assigned), total)
	if len(failed) == 0 {
		message = fmt.Sprintf("all %d sections scheduled", total)
	}

	return Result{
		OK:       true,
		Message:  message,
		Assigned: assigned,
		Failed:   failed,
		Stats: Stats{
			TotalIterations: r.iterations,
			BacktrackCount:  r.backtracks,
		},
	}
}
