package grading

import (
	"fmt"
	"sort"

	"github.com/trezcool/reportcard/core"
)

// Rank orders students by descending aggregate and assigns 1-based positions.
// Ties keep submission order, so every student gets a unique position.
// The input slice is left untouched.
func Rank(students []StudentRecord) (RankedRoster, error) {
	for i, s := range students {
		if !isFinite(s.Aggregate) {
			return nil, core.NewValidationError(ErrInvalidAggregate, core.FieldError{
				Field: fmt.Sprintf("students[%d].aggregate", i),
				Error: ErrInvalidAggregate.Error(),
			})
		}
	}

	roster := make(RankedRoster, len(students))
	for i, s := range students {
		roster[i] = RankedStudent{StudentRecord: s}
	}
	sort.SliceStable(roster, func(i, j int) bool {
		return roster[i].Aggregate > roster[j].Aggregate
	})
	for i := range roster {
		roster[i].Position = i + 1
	}
	return roster, nil
}

// Records returns the student records of the roster, in position order.
func (r RankedRoster) Records() []StudentRecord {
	recs := make([]StudentRecord, 0, len(r))
	for _, s := range r {
		recs = append(recs, s.StudentRecord)
	}
	return recs
}
