package scheduler

// indexEntry is one placed reservation inside a bucket.
type indexEntry struct {
	id   string
	slot TimeSlot
}

// ConflictIndex answers overlap queries for tentative assignments. Entries are
// bucketed per classroom and per instructor; each check is a linear scan of
// one bucket. That is a complexity choice, not a correctness one: campus-scale
// inputs keep buckets at a handful of entries, and the engine inserts and
// retracts entries far more often than it would amortise a tree.
type ConflictIndex struct {
	byClassroom  map[string][]indexEntry
	byInstructor map[string][]indexEntry
}

// NewConflictIndex builds an empty index.
func NewConflictIndex() *ConflictIndex {
	return &ConflictIndex{
		byClassroom:  make(map[string][]indexEntry),
		byInstructor: make(map[string][]indexEntry),
	}
}

// Insert records a placement under both its classroom and instructor buckets.
func (x *ConflictIndex) Insert(id, classroomID, instructorID string, slot TimeSlot) {
	x.byClassroom[classroomID] = append(x.byClassroom[classroomID], indexEntry{id: id, slot: slot})
	x.byInstructor[instructorID] = append(x.byInstructor[instructorID], indexEntry{id: id, slot: slot})
}

// Remove retracts a previously inserted placement.
func (x *ConflictIndex) Remove(id, classroomID, instructorID string) {
	x.byClassroom[classroomID] = removeEntry(x.byClassroom[classroomID], id)
	x.byInstructor[instructorID] = removeEntry(x.byInstructor[instructorID], id)
}

// HasClassroomConflict reports whether the classroom already holds an entry
// overlapping the slot. Entries matching excludeID are ignored.
func (x *ConflictIndex) HasClassroomConflict(classroomID string, slot TimeSlot, excludeID string) bool {
	return bucketConflicts(x.byClassroom[classroomID], slot, excludeID)
}

// HasInstructorConflict is the instructor-scoped analogue.
func (x *ConflictIndex) HasInstructorConflict(instructorID string, slot TimeSlot, excludeID string) bool {
	return bucketConflicts(x.byInstructor[instructorID], slot, excludeID)
}

// Len returns the number of classroom reservations currently held.
func (x *ConflictIndex) Len() int {
	total := 0
	for _, bucket := range x.byClassroom {
		total += len(bucket)
	}
	return total
}

func bucketConflicts(bucket []indexEntry, slot TimeSlot, excludeID string) bool {
	for _, entry := range bucket {
		if excludeID != "" && entry.id == excludeID {
			continue
		}
		if entry.slot.Overlaps(slot) {
			return true
		}
	}
	return false
}

func removeEntry(bucket []indexEntry, id string) []indexEntry {
	for i, entry := range bucket {
		if entry.id == id {
			return append(bucket[:i], bucket[i+1:]...)
		}
	}
	return bucket
}
