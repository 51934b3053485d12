package testutil

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
	"github.com/trezcool/reportcard/storage/database"
)

var (
	dbOnce sync.Once
	testDB *sql.DB
	dbErr  error
)

// OpenDB opens (and migrates) the test database once per package.
// Tests are skipped when no database host is configured for the TEST env.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()
	if os.Getenv("TEST_DATABASEHOST") == "" {
		t.Skip("TEST_DATABASEHOST is not set")
	}

	dbOnce.Do(func() {
		_ = os.Setenv("ENV", "TEST")
		conf := core.NewConfig()
		if dbErr = database.CreateIfNotExist(conf); dbErr != nil {
			return
		}
		if testDB, dbErr = database.Open(conf); dbErr != nil {
			return
		}
		dbErr = database.Migrate(testDB)
	})
	if dbErr != nil {
		t.Fatalf("OpenDB() failed: %v", dbErr)
	}
	return testDB
}

// ResetDB deletes every stored row.
func ResetDB(t *testing.T, db *sql.DB) {
	t.Helper()
	if _, err := db.Exec("TRUNCATE TABLE score, student"); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

// NewValidator returns a validator with every application tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	report.InitValidators(validate, translator)
	return validate, translator
}

// Student builds a roster entry from "subject", class, exam triplets.
func Student(name string, scores ...interface{}) grading.StudentEntry {
	entry := grading.StudentEntry{Name: name}
	for i := 0; i+2 < len(scores); i += 3 {
		entry.Subjects = append(entry.Subjects, grading.SubjectEntry{
			Subject:    scores[i].(string),
			ClassScore: toFloat(scores[i+1]),
			ExamScore:  toFloat(scores[i+2]),
		})
	}
	return entry
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	panic("testutil: score must be an int or a float64")
}

// NewReport returns a valid report request for Grade 7.
func NewReport(students ...grading.StudentEntry) report.NewReport {
	var inputs []report.StudentInput
	for _, s := range students {
		inputs = append(inputs, report.NewStudentInput(s))
	}
	return report.NewReport{
		School: report.School{
			Name:          "Sunrise Academy",
			Location:      "Kumasi",
			Grade:         "Grade 7",
			Semester:      "First Term",
			VacatingDate:  "2024-12-20",
			ReopeningDate: "2025-01-08",
		},
		Students: inputs,
	}
}

// CreateStudents stores students straight through the repository.
func CreateStudents(t *testing.T, repo report.Repository, createdAt time.Time, students ...report.StoredStudent) []report.StoredStudent {
	t.Helper()
	for i := range students {
		if students[i].CreatedAt.IsZero() {
			students[i].CreatedAt = createdAt
		}
	}
	saved, err := repo.SaveStudents(context.Background(), students)
	if err != nil {
		t.Fatalf("CreateStudents() failed: %v", err)
	}
	return saved
}
