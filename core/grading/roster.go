package grading

import (
	"errors"
	"fmt"

	"github.com/trezcool/reportcard/core"
)

// BuildRoster runs the whole pipeline over a roster: every entry is computed, then the results are ranked.
// It is all-or-nothing; field errors of every invalid entry are collected under "students[i]".
func BuildRoster(entries []StudentEntry, p Policy) (RankedRoster, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var (
		cause error
		flds  []core.FieldError
	)
	records := make([]StudentRecord, 0, len(entries))
	for i, entry := range entries {
		rec, err := BuildStudent(entry, p)
		if err != nil {
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				return nil, err
			}
			if cause == nil {
				cause = vErr.Err
			}
			flds = append(flds, vErr.PrefixFields(fmt.Sprintf("students[%d]", i)).Fields...)
			continue
		}
		records = append(records, rec)
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(cause, flds...)
	}
	return Rank(records)
}
