package grading

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/trezcool/reportcard/core"
)

var (
	// errors
	ErrInvalidSubject   = errors.New("invalid subject entry")
	ErrInvalidStudent   = errors.New("invalid student entry")
	ErrNoSubjects       = errors.New("cannot average over zero subjects")
	ErrInvalidAggregate = errors.New("aggregate must be a finite number")
)

// ComputeSubjectResult derives the total score and remark of a single subject.
// Every problem with the entry is reported in one *core.ValidationError.
func ComputeSubjectResult(entry SubjectEntry, p Policy) (SubjectResult, error) {
	if err := p.Validate(); err != nil {
		return SubjectResult{}, err
	}

	name := core.CleanString(entry.Subject)
	var flds []core.FieldError
	if name == "" {
		flds = append(flds, core.FieldError{Field: "subject", Error: "this field is required"})
	}
	if msg := p.checkScore(entry.ClassScore); msg != "" {
		flds = append(flds, core.FieldError{Field: "class_score", Error: msg})
	}
	if msg := p.checkScore(entry.ExamScore); msg != "" {
		flds = append(flds, core.FieldError{Field: "exam_score", Error: msg})
	}
	if len(flds) > 0 {
		return SubjectResult{}, core.NewValidationError(ErrInvalidSubject, flds...)
	}

	total := totalScore(entry.ClassScore, entry.ExamScore, p.Scoring)
	remark, err := Remark(total, p.Grading)
	if err != nil {
		return SubjectResult{}, err
	}
	return SubjectResult{
		Subject:    name,
		ClassScore: entry.ClassScore,
		ExamScore:  entry.ExamScore,
		TotalScore: total,
		Remark:     remark,
	}, nil
}

// ComputeStudentAggregate combines subject totals into a student's aggregate.
func ComputeStudentAggregate(results []SubjectResult, ap AggregationPolicy) (float64, error) {
	if !ap.valid() {
		return 0, core.NewConfigurationError("aggregation policy", string(ap))
	}

	var sum float64
	for i, r := range results {
		if !isFinite(r.TotalScore) {
			return 0, core.NewValidationError(ErrInvalidSubject, core.FieldError{
				Field: fmt.Sprintf("subjects[%d].total_score", i),
				Error: "must be a finite number",
			})
		}
		sum += r.TotalScore
	}

	if ap == Average {
		if len(results) == 0 {
			return 0, core.NewValidationError(ErrNoSubjects, core.FieldError{Field: "subjects", Error: ErrNoSubjects.Error()})
		}
		return sum / float64(len(results)), nil
	}
	return sum, nil
}

// Remark labels a subject total using the threshold table of the given scheme.
func Remark(total float64, scheme GradeScheme) (string, error) {
	table, ok := gradeTables[scheme]
	if !ok {
		return "", core.NewConfigurationError("grade scheme", string(scheme))
	}
	for _, th := range table {
		if total >= th.min {
			return th.label, nil
		}
	}
	return table[len(table)-1].label, nil
}

// BuildStudent computes every subject of a roster entry and the student's aggregate.
func BuildStudent(entry StudentEntry, p Policy) (StudentRecord, error) {
	if err := p.Validate(); err != nil {
		return StudentRecord{}, err
	}

	var (
		cause error
		flds  []core.FieldError
	)
	name := core.CleanString(entry.Name)
	if name == "" {
		cause = ErrInvalidStudent
		flds = append(flds, core.FieldError{Field: "name", Error: "this field is required"})
	}

	results := make([]SubjectResult, 0, len(entry.Subjects))
	for i, se := range entry.Subjects {
		res, err := ComputeSubjectResult(se, p)
		if err != nil {
			var vErr *core.ValidationError
			if !errors.As(err, &vErr) {
				return StudentRecord{}, err
			}
			if cause == nil {
				cause = vErr.Err
			}
			flds = append(flds, vErr.PrefixFields(fmt.Sprintf("subjects[%d]", i)).Fields...)
			continue
		}
		results = append(results, res)
	}
	if len(flds) > 0 {
		return StudentRecord{}, core.NewValidationError(cause, flds...)
	}

	aggregate, err := ComputeStudentAggregate(results, p.Aggregation)
	if err != nil {
		return StudentRecord{}, err
	}
	return StudentRecord{Name: name, Subjects: results, Aggregate: aggregate}, nil
}

func totalScore(class, exam float64, sp ScoringPolicy) float64 {
	if sp == SimpleSum {
		return class + exam
	}
	return class*classWeight + exam*examWeight
}

// checkScore returns an error message when score is not a finite number inside the policy range.
func (p Policy) checkScore(score float64) string {
	if !isFinite(score) {
		return "must be a finite number"
	}
	if score < p.MinScore || score > p.MaxScore {
		return fmt.Sprintf("must be between %s and %s", formatScore(p.MinScore), formatScore(p.MaxScore))
	}
	return ""
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
