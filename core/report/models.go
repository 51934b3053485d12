package report

import (
	"time"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
)

const (
	DefaultTeacherRemark = "Great effort! Keep improving your performance."
	Filename             = "student_report.pdf"
)

// School holds the report header fields.
type School struct {
	Name          string `json:"name" yaml:"name" validate:"required,notblank"`
	Location      string `json:"location" yaml:"location"`
	Grade         string `json:"grade" yaml:"grade" validate:"required,grade"`
	Semester      string `json:"semester" yaml:"semester" validate:"required,notblank"`
	VacatingDate  string `json:"vacating_date" yaml:"vacating_date"`
	ReopeningDate string `json:"reopening_date" yaml:"reopening_date"`
}

func (s *School) clean() {
	s.Name = core.CleanString(s.Name)
	s.Location = core.CleanString(s.Location)
	if grade, ok := NormalizeGrade(s.Grade); ok {
		s.Grade = grade
	}
	s.Semester = core.CleanString(s.Semester)
	s.VacatingDate = core.CleanString(s.VacatingDate)
	s.ReopeningDate = core.CleanString(s.ReopeningDate)
}

// SubjectInput is a subject as submitted. Scores are pointers so that a missing score is not read as 0.
type SubjectInput struct {
	Subject    string   `json:"subject" yaml:"subject"`
	ClassScore *float64 `json:"class_score" yaml:"class_score" validate:"required"`
	ExamScore  *float64 `json:"exam_score" yaml:"exam_score" validate:"required"`
}

// StudentInput is a roster entry as submitted.
type StudentInput struct {
	Name     string         `json:"name" yaml:"name"`
	Subjects []SubjectInput `json:"subjects" yaml:"subjects" validate:"dive"`
}

// NewStudentInput is the submitted form of an already computed-ready entry.
func NewStudentInput(entry grading.StudentEntry) StudentInput {
	in := StudentInput{Name: entry.Name, Subjects: make([]SubjectInput, 0, len(entry.Subjects))}
	for _, se := range entry.Subjects {
		class, exam := se.ClassScore, se.ExamScore
		in.Subjects = append(in.Subjects, SubjectInput{Subject: se.Subject, ClassScore: &class, ExamScore: &exam})
	}
	return in
}

// Entry converts a validated input; it must not be called while a score is missing.
func (in StudentInput) Entry() grading.StudentEntry {
	entry := grading.StudentEntry{Name: in.Name, Subjects: make([]grading.SubjectEntry, 0, len(in.Subjects))}
	for _, si := range in.Subjects {
		entry.Subjects = append(entry.Subjects, grading.SubjectEntry{
			Subject:    si.Subject,
			ClassScore: *si.ClassScore,
			ExamScore:  *si.ExamScore,
		})
	}
	return entry
}

// Entries converts validated inputs, keeping their order.
func Entries(ins []StudentInput) []grading.StudentEntry {
	entries := make([]grading.StudentEntry, 0, len(ins))
	for _, in := range ins {
		entries = append(entries, in.Entry())
	}
	return entries
}

// NewReport contains what is needed to compute a class report.
type NewReport struct {
	School        School         `json:"school"`
	Students      []StudentInput `json:"students" validate:"required,roster,dive"`
	TeacherRemark string         `json:"teacher_remark"`
}

// Report is a computed class report, ready to be rendered.
type Report struct {
	School        School               `json:"school"`
	Roster        grading.RankedRoster `json:"roster"`
	TeacherRemark string               `json:"teacher_remark"`
	GeneratedAt   time.Time            `json:"generated_at"`
}

// StoredStudent is a persisted student row and its scores.
type StoredStudent struct {
	ID             string        `json:"id" db:"id"`
	Name           string        `json:"name" db:"name"`
	Grade          string        `json:"grade" db:"grade"`
	Semester       string        `json:"semester" db:"semester"`
	TotalAggregate float64       `json:"total_aggregate" db:"total_aggregate"`
	Position       int           `json:"position" db:"position"` // rank within the report it was saved with
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	Scores         []StoredScore `json:"scores" db:"-"`
}

// StoredScore is a persisted subject row.
type StoredScore struct {
	ID         string  `json:"id" db:"id"`
	StudentID  string  `json:"-" db:"student_id"`
	Subject    string  `json:"subject" db:"subject"`
	ClassScore float64 `json:"class_score" db:"class_score"`
	ExamScore  float64 `json:"exam_score" db:"exam_score"`
	TotalScore float64 `json:"total_score" db:"total_score"`
	Remark     string  `json:"remark" db:"remark"`
}

type QueryFilter struct {
	Grade    string `query:"grade"`
	Semester string `query:"semester"`
	Search   string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Grade == "" && qf.Semester == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Grade = core.CleanString(qf.Grade)
	if grade, ok := NormalizeGrade(qf.Grade); ok {
		qf.Grade = grade
	}
	qf.Semester = core.CleanString(qf.Semester)
	qf.Search = core.CleanString(qf.Search)
}

var (
	// OrderingFields are the StoredStudent fields a query can be ordered by.
	OrderingFields = []string{"name", "grade", "semester", "total_aggregate", "position", "created_at"}

	DefaultOrdering = []core.DBOrdering{{Field: "total_aggregate"}, {Field: "name", Ascending: true}}
)

func storedStudents(school School, roster grading.RankedRoster, createdAt time.Time) []StoredStudent {
	students := make([]StoredStudent, 0, len(roster))
	for _, rs := range roster {
		st := StoredStudent{
			Name:           rs.Name,
			Grade:          school.Grade,
			Semester:       school.Semester,
			TotalAggregate: rs.Aggregate,
			Position:       rs.Position,
			CreatedAt:      createdAt,
			Scores:         make([]StoredScore, 0, len(rs.Subjects)),
		}
		for _, sub := range rs.Subjects {
			st.Scores = append(st.Scores, StoredScore{
				Subject:    sub.Subject,
				ClassScore: sub.ClassScore,
				ExamScore:  sub.ExamScore,
				TotalScore: sub.TotalScore,
				Remark:     sub.Remark,
			})
		}
		students = append(students, st)
	}
	return students
}
