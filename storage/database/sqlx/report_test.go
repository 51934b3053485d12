package sqlxrepos_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/report"
	"github.com/trezcool/reportcard/storage/database/sqlx"
	"github.com/trezcool/reportcard/tests"
)

func TestReportRepository(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewReportRepository(db)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	saved := testutil.CreateStudents(t, repo, now,
		report.StoredStudent{Name: "Ama Owusu", Grade: "Grade 7", Semester: "First Term", TotalAggregate: 126, Scores: []report.StoredScore{
			{Subject: "Mathematics", ClassScore: 80, ExamScore: 70, TotalScore: 75, Remark: "Pass"},
			{Subject: "History", ClassScore: 50, ExamScore: 52, TotalScore: 51, Remark: "Credit"},
		}},
		report.StoredStudent{Name: "Kofi Mensah", Grade: "Grade 7", Semester: "First Term", TotalAggregate: 45, Scores: []report.StoredScore{
			{Subject: "Mathematics", ClassScore: 40, ExamScore: 50, TotalScore: 45, Remark: "Fail"},
		}},
		report.StoredStudent{Name: "Esi Mensah", Grade: "Grade 3", Semester: "Second Term", TotalAggregate: 60},
	)
	require.Len(t, saved, 3)

	got, err := repo.GetStudent(ctx, saved[0].ID)
	require.NoError(t, err)
	assert.True(t, saved[0].CreatedAt.Equal(got.CreatedAt))
	got.CreatedAt = saved[0].CreatedAt // pq may return another *time.Location
	assert.Equal(t, saved[0], got)

	_, err = repo.GetStudent(ctx, "5e0ec0a4-5a36-4d5c-b5cd-2d5b2cf0a7a1")
	assert.Equal(t, report.ErrNotFound, err)

	names := func(students []report.StoredStudent) []string {
		res := make([]string, 0, len(students))
		for _, s := range students {
			res = append(res, s.Name)
		}
		return res
	}

	tests := []struct {
		name     string
		filter   report.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "default ordering", ordering: report.DefaultOrdering, want: []string{"Ama Owusu", "Esi Mensah", "Kofi Mensah"}},
		{name: "name desc", ordering: []core.DBOrdering{{Field: "name"}}, want: []string{"Kofi Mensah", "Esi Mensah", "Ama Owusu"}},
		{name: "search", filter: report.QueryFilter{Search: "MENSAH"}, ordering: report.DefaultOrdering, want: []string{"Esi Mensah", "Kofi Mensah"}},
		{name: "grade and semester", filter: report.QueryFilter{Grade: "Grade 7", Semester: "first term"}, ordering: report.DefaultOrdering, want: []string{"Ama Owusu", "Kofi Mensah"}},
		{name: "no match", filter: report.QueryFilter{Grade: "Grade 9"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			students, err := repo.QueryStudents(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(students))
		})
	}

	students, err := repo.QueryStudents(ctx, report.QueryFilter{Search: "ama"}, nil)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, saved[0].Scores, students[0].Scores)
}

func TestReportRepository_TiesKeepRosterOrder(t *testing.T) {
	db := testutil.OpenDB(t)
	testutil.ResetDB(t, db)
	repo := sqlxrepos.NewReportRepository(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	testutil.CreateStudents(t, repo, now,
		report.StoredStudent{Name: "Yaw", Grade: "Grade 7", Semester: "First Term", TotalAggregate: 60, Position: 3},
		report.StoredStudent{Name: "Esi", Grade: "Grade 7", Semester: "First Term", TotalAggregate: 60, Position: 1},
		report.StoredStudent{Name: "Abena", Grade: "Grade 7", Semester: "First Term", TotalAggregate: 60, Position: 2},
	)

	for _, ordering := range [][]core.DBOrdering{nil, report.DefaultOrdering[:1]} {
		students, err := repo.QueryStudents(context.Background(), report.QueryFilter{}, ordering)
		require.NoError(t, err)
		require.Len(t, students, 3)
		assert.Equal(t, []string{"Esi", "Abena", "Yaw"}, []string{students[0].Name, students[1].Name, students[2].Name})
		assert.Equal(t, []int{1, 2, 3}, []int{students[0].Position, students[1].Position, students[2].Position})
	}
}
