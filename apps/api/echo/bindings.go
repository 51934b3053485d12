package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/report"
)

var (
	orderingParam = "ordering"

	// errors
	errInvalidForm = errors.New("invalid report form")
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindNewReport reads a NewReport from a JSON body or from the indexed report form.
func bindNewReport(ctx echo.Context) (report.NewReport, error) {
	if isFormRequest(ctx) {
		form, err := ctx.FormParams()
		if err != nil {
			return report.NewReport{}, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
		}
		return reportFromForm(form)
	}

	var nr report.NewReport
	if err := ctx.Bind(&nr); err != nil {
		return report.NewReport{}, errors.Wrap(err, "binding to report.NewReport")
	}
	return nr, nil
}

func isFormRequest(ctx echo.Context) bool {
	ct := ctx.Request().Header.Get(echo.HeaderContentType)
	return strings.HasPrefix(ct, echo.MIMEApplicationForm) || strings.HasPrefix(ct, echo.MIMEMultipartForm)
}

// reportFromForm reads the school header fields and the students numbered from 0:
// pupil_name_<i> (or name_<i>) with the parallel lists subject_<i>[], class_score_<i>[] and exam_score_<i>[].
// Reading stops at the first missing index.
func reportFromForm(form url.Values) (report.NewReport, error) {
	nr := report.NewReport{
		School: report.School{
			Name:          form.Get("school_name"),
			Location:      form.Get("location"),
			Grade:         form.Get("grade"),
			Semester:      form.Get("semester"),
			VacatingDate:  form.Get("vacating_date"),
			ReopeningDate: form.Get("reopening_date"),
		},
		TeacherRemark: form.Get("teacher_remark"),
	}

	var flds []core.FieldError
	for i := 0; ; i++ {
		name, ok := formStudentName(form, i)
		if !ok {
			break
		}
		entry, errs := formStudent(form, i, name)
		flds = append(flds, errs...)
		nr.Students = append(nr.Students, entry)
	}

	if raw := form.Get("num_students"); raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil || n < 0 {
			flds = append(flds, core.FieldError{Field: "num_students", Error: "must be a whole number"})
		} else if n != len(nr.Students) {
			flds = append(flds, core.FieldError{
				Field: "num_students",
				Error: fmt.Sprintf("expected %d student(s), got %d", n, len(nr.Students)),
			})
		}
	}

	if len(flds) > 0 {
		return report.NewReport{}, core.NewValidationError(errInvalidForm, flds...)
	}
	return nr, nil
}

func formStudentName(form url.Values, i int) (string, bool) {
	for _, key := range []string{fmt.Sprintf("pupil_name_%d", i), fmt.Sprintf("name_%d", i)} {
		if vals, ok := form[key]; ok && len(vals) > 0 {
			return vals[0], true
		}
	}
	return "", false
}

func formStudent(form url.Values, i int, name string) (report.StudentInput, []core.FieldError) {
	prefix := fmt.Sprintf("students[%d]", i)
	subjects := form[fmt.Sprintf("subject_%d[]", i)]
	classScores := form[fmt.Sprintf("class_score_%d[]", i)]
	examScores := form[fmt.Sprintf("exam_score_%d[]", i)]

	if len(classScores) != len(subjects) || len(examScores) != len(subjects) {
		return report.StudentInput{}, []core.FieldError{{
			Field: prefix + ".subjects",
			Error: fmt.Sprintf(
				"got %d subject(s), %d class score(s) and %d exam score(s)",
				len(subjects), len(classScores), len(examScores),
			),
		}}
	}

	var flds []core.FieldError
	entry := report.StudentInput{Name: name, Subjects: make([]report.SubjectInput, 0, len(subjects))}
	for j, subject := range subjects {
		fldPrefix := fmt.Sprintf("%s.subjects[%d]", prefix, j)
		class, err := parseScore(classScores[j])
		if err != nil {
			flds = append(flds, core.FieldError{Field: fldPrefix + ".class_score", Error: "must be a number"})
		}
		exam, err := parseScore(examScores[j])
		if err != nil {
			flds = append(flds, core.FieldError{Field: fldPrefix + ".exam_score", Error: "must be a number"})
		}
		entry.Subjects = append(entry.Subjects, report.SubjectInput{Subject: subject, ClassScore: class, ExamScore: exam})
	}
	return entry, flds
}

func parseScore(s string) (*float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
