package grading

// SubjectEntry is one subject's raw scores as supplied by intake.
type SubjectEntry struct {
	Subject    string  `json:"subject" yaml:"subject"`
	ClassScore float64 `json:"class_score" yaml:"class_score"`
	ExamScore  float64 `json:"exam_score" yaml:"exam_score"`
}

// SubjectResult is a computed subject line of a report card.
type SubjectResult struct {
	Subject    string  `json:"subject"`
	ClassScore float64 `json:"class_score"`
	ExamScore  float64 `json:"exam_score"`
	TotalScore float64 `json:"total_score"`
	Remark     string  `json:"remark"`
}

// StudentEntry is one roster entry as supplied by intake.
type StudentEntry struct {
	Name     string         `json:"name" yaml:"name"`
	Subjects []SubjectEntry `json:"subjects" yaml:"subjects"`
}

// StudentRecord holds a student's computed subject results, in input order, and their aggregate.
type StudentRecord struct {
	Name      string          `json:"name"`
	Subjects  []SubjectResult `json:"subjects"`
	Aggregate float64         `json:"aggregate"`
}

type RankedStudent struct {
	StudentRecord
	Position int `json:"position"`
}

// RankedRoster is ordered by position, starting at 1.
type RankedRoster []RankedStudent
