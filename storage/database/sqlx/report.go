package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/report"
)

const (
	studentColumns = "id, name, grade, semester, total_aggregate, position, created_at"
	scoreColumns   = "id, student_id, subject, class_score, exam_score, total_score, remark"

	insertStudentQuery = `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :name, :grade, :semester, :total_aggregate, :position, :created_at)`
	insertScoreQuery = `INSERT INTO score (id, student_id, ordinal, subject, class_score, exam_score, total_score, remark)
		VALUES (:id, :student_id, :ordinal, :subject, :class_score, :exam_score, :total_score, :remark)`
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *sql.DB) report.Repository {
	return &reportRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapNoRowsErr maps psql "no rows" err to report.ErrNotFound
func (repo reportRepository) trapNoRowsErr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return report.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

type scoreRow struct {
	report.StoredScore
	Ordinal int `db:"ordinal"`
}

func (repo reportRepository) SaveStudents(ctx context.Context, students []report.StoredStudent) (saved []report.StoredStudent, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	saved = make([]report.StoredStudent, 0, len(students))
	for _, st := range students {
		st.ID = uuid.New().String()
		st.CreatedAt = st.CreatedAt.UTC()
		if _, err = tx.NamedExecContext(ctx, insertStudentQuery, st); err != nil {
			return nil, errors.Wrap(err, "inserting student")
		}

		scores := make([]report.StoredScore, 0, len(st.Scores))
		for i, sc := range st.Scores {
			sc.ID = uuid.New().String()
			sc.StudentID = st.ID
			if _, err = tx.NamedExecContext(ctx, insertScoreQuery, scoreRow{StoredScore: sc, Ordinal: i}); err != nil {
				return nil, errors.Wrap(err, "inserting score")
			}
			scores = append(scores, sc)
		}
		st.Scores = scores
		saved = append(saved, st)
	}

	if err = tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "committing transaction")
	}
	return saved, nil
}

func (repo reportRepository) QueryStudents(ctx context.Context, filter report.QueryFilter, ordering []core.DBOrdering) ([]report.StoredStudent, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Grade != "" {
		where = append(where, "grade = ?")
		args = append(args, filter.Grade)
	}
	if filter.Semester != "" {
		where = append(where, "semester ILIKE ?")
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		where = append(where, "name ILIKE ?")
		args = append(args, "%"+filter.Search+"%")
	}

	q := "SELECT " + studentColumns + " FROM student"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	students := make([]report.StoredStudent, 0)
	if err := repo.db.SelectContext(ctx, &students, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	if err := repo.loadScores(ctx, students); err != nil {
		return nil, err
	}
	return students, nil
}

func (repo reportRepository) GetStudent(ctx context.Context, id string) (report.StoredStudent, error) {
	var st report.StoredStudent
	q := "SELECT " + studentColumns + " FROM student WHERE id = $1"
	if err := repo.db.GetContext(ctx, &st, q, id); err != nil {
		return report.StoredStudent{}, repo.trapNoRowsErr(err, "selecting student")
	}

	students := []report.StoredStudent{st}
	if err := repo.loadScores(ctx, students); err != nil {
		return report.StoredStudent{}, err
	}
	return students[0], nil
}

// loadScores fills the scores of every student, in submission order.
func (repo reportRepository) loadScores(ctx context.Context, students []report.StoredStudent) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]string, 0, len(students))
	index := make(map[string]int, len(students))
	for i, st := range students {
		ids = append(ids, st.ID)
		index[st.ID] = i
		students[i].Scores = make([]report.StoredScore, 0)
	}

	q, args, err := sqlx.In("SELECT "+scoreColumns+" FROM score WHERE student_id IN (?) ORDER BY student_id, ordinal", ids)
	if err != nil {
		return errors.Wrap(err, "building scores query")
	}
	var scores []report.StoredScore
	if err = repo.db.SelectContext(ctx, &scores, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "selecting scores")
	}
	for _, sc := range scores {
		i := index[sc.StudentID]
		students[i].Scores = append(students[i].Scores, sc)
	}
	return nil
}

func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	// tie breakers: rows saved together keep their roster order
	clauses = append(clauses, "created_at ASC", "position ASC", "id ASC")
	return strings.Join(clauses, ", ")
}
