package grading

import (
	"errors"

	"github.com/trezcool/reportcard/core"
)

var (
	ErrDraftFull       = errors.New("all expected students have already been added")
	ErrDraftIncomplete = errors.New("draft is missing students")
	ErrInvalidDraft    = errors.New("expected number of students must be positive")
)

// Draft accumulates roster entries across a multi-step submission.
// It is a plain value owned by the caller: Add never modifies the receiver.
type Draft struct {
	Expected int            `json:"expected"`
	Students []StudentEntry `json:"students"`
}

func NewDraft(expected int) (Draft, error) {
	if expected <= 0 {
		return Draft{}, core.NewValidationError(ErrInvalidDraft, core.FieldError{Field: "expected", Error: "must be greater than 0"})
	}
	return Draft{Expected: expected, Students: []StudentEntry{}}, nil
}

// Add returns a new draft holding the given student after the ones already added.
func (d Draft) Add(entry StudentEntry) (Draft, error) {
	if d.Expected <= 0 {
		return d, core.NewValidationError(ErrInvalidDraft, core.FieldError{Field: "expected", Error: "must be greater than 0"})
	}
	if d.Complete() {
		return d, core.NewValidationError(ErrDraftFull)
	}
	if core.CleanString(entry.Name) == "" {
		return d, core.NewValidationError(ErrInvalidStudent, core.FieldError{Field: "name", Error: "this field is required"})
	}

	students := make([]StudentEntry, len(d.Students), len(d.Students)+1)
	copy(students, d.Students)
	entry.Subjects = append([]SubjectEntry(nil), entry.Subjects...)
	return Draft{Expected: d.Expected, Students: append(students, entry)}, nil
}

func (d Draft) Remaining() int {
	if n := d.Expected - len(d.Students); n > 0 {
		return n
	}
	return 0
}

func (d Draft) Complete() bool {
	return d.Expected > 0 && len(d.Students) >= d.Expected
}

// Build runs the pipeline over the accumulated students once every expected student was added.
func (d Draft) Build(p Policy) (RankedRoster, error) {
	if !d.Complete() {
		return nil, core.NewValidationError(ErrDraftIncomplete, core.FieldError{Field: "students", Error: ErrDraftIncomplete.Error()})
	}
	return BuildRoster(d.Students, p)
}
