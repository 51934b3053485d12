package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/report"
)

type reportRepository struct {
	db *studentTable
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.student}
}

func (repo *reportRepository) SaveStudents(ctx context.Context, students []report.StoredStudent) ([]report.StoredStudent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	saved := make([]report.StoredStudent, 0, len(students))
	for _, st := range students {
		st.ID = uuid.New().String()
		st.CreatedAt = st.CreatedAt.UTC()
		scores := make([]report.StoredScore, 0, len(st.Scores))
		for _, sc := range st.Scores {
			sc.ID = uuid.New().String()
			sc.StudentID = st.ID
			scores = append(scores, sc)
		}
		st.Scores = scores
		saved = append(saved, st)
	}

	// all or nothing
	for i := range saved {
		st := copyStudent(saved[i])
		repo.db.table[st.ID] = &st
		repo.db.order = append(repo.db.order, st.ID)
	}
	return saved, nil
}

func (repo *reportRepository) QueryStudents(_ context.Context, filter report.QueryFilter, ordering []core.DBOrdering) ([]report.StoredStudent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	students := make([]report.StoredStudent, 0)
	for _, id := range repo.db.order {
		st := repo.db.table[id]
		if filter.Grade != "" && st.Grade != filter.Grade {
			continue
		}
		if filter.Semester != "" && !strings.EqualFold(st.Semester, filter.Semester) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(st.Name), search) {
			continue
		}
		students = append(students, copyStudent(*st))
	}

	if len(ordering) > 0 {
		sort.SliceStable(students, func(i, j int) bool {
			for _, ord := range ordering {
				if c := compare(students[i], students[j], ord.Field); c != 0 {
					return (c < 0) == ord.Ascending
				}
			}
			// tie breakers: rows saved together keep their roster order
			if c := compare(students[i], students[j], "created_at"); c != 0 {
				return c < 0
			}
			return students[i].Position < students[j].Position
		})
	}
	return students, nil
}

func (repo *reportRepository) GetStudent(_ context.Context, id string) (report.StoredStudent, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if st, ok := repo.db.table[id]; ok {
		return copyStudent(*st), nil
	}
	return report.StoredStudent{}, report.ErrNotFound
}

func copyStudent(st report.StoredStudent) report.StoredStudent {
	st.Scores = append(make([]report.StoredScore, 0, len(st.Scores)), st.Scores...)
	return st
}

// compare returns -1, 0 or 1; unknown fields compare equal.
func compare(a, b report.StoredStudent, field string) int {
	switch field {
	case "name":
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case "grade":
		return strings.Compare(a.Grade, b.Grade)
	case "semester":
		return strings.Compare(a.Semester, b.Semester)
	case "total_aggregate":
		return compareFloat(a.TotalAggregate, b.TotalAggregate)
	case "position":
		return compareFloat(float64(a.Position), float64(b.Position))
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		}
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
