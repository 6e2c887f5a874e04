package scheduler

import "sort"

// candidate is one (classroom, slot) pair from a section's domain, referenced
// by index into the run's sorted classroom and slot slices.
type candidate struct {
	room int
	slot int
}

// domainError distinguishes why a section has an empty domain before the
// search even starts.
type domainError int

const (
	domainOK domainError = iota
	domainNoCapacity
	domainNoFeatures
)

// buildDomain enumerates the legal (classroom, slot) pairs for a section.
// Classrooms and slots must already be in their deterministic order; the
// resulting candidates are ordered classroom-major so that two runs over
// identical input explore identical sequences.
func buildDomain(section Section, classrooms []Classroom, slots []TimeSlot) ([]candidate, domainError) {
	fitting := make([]int, 0, len(classrooms))
	capacityOK := false
	for i, room := range classrooms {
		if room.Capacity < section.RequiredCapacity {
			continue
		}
		capacityOK = true
		if !featuresSatisfied(section.RequiredFeatures, room.Features) {
			continue
		}
		fitting = append(fitting, i)
	}
	if len(fitting) == 0 {
		if !capacityOK {
			return nil, domainNoCapacity
		}
		return nil, domainNoFeatures
	}

	domain := make([]candidate, 0, len(fitting)*len(slots))
	for _, room := range fitting {
		for slot := range slots {
			domain = append(domain, candidate{room: room, slot: slot})
		}
	}
	return domain, domainOK
}

func featuresSatisfied(required []string, available map[string]bool) bool {
	for _, feature := range required {
		if !available[feature] {
			return false
		}
	}
	return true
}

// sortClassrooms orders the pool by id ascending; part of the determinism
// contract for candidate enumeration.
func sortClassrooms(classrooms []Classroom) []Classroom {
	sorted := make([]Classroom, len(classrooms))
	copy(sorted, classrooms)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// sortSlots orders the catalogue day ascending, then start, then end.
func sortSlots(slots []TimeSlot) []TimeSlot {
	sorted := make([]TimeSlot, len(slots))
	copy(sorted, slots)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	return sorted
}

// sortSections orders sections by id ascending; the MRV heuristic breaks ties
// in this order.
func sortSections(sections []Section) []Section {
	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}
