package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/reportcard/apps/api/echo"
	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
	"github.com/trezcool/reportcard/services/email"
	"github.com/trezcool/reportcard/tests"
)

var (
	ama  = testutil.Student("Ama", "Mathematics", 80, 70)
	kofi = testutil.Student("Kofi", "Mathematics", 40, 50)
)

func storedStudents(t *testing.T) []report.StoredStudent {
	students, err := repo.QueryStudents(context.Background(), report.QueryFilter{}, nil)
	require.NoError(t, err)
	return students
}

func TestReportAPI_Preview(t *testing.T) {
	db.Reset()
	wantRoster, err := grading.BuildRoster([]grading.StudentEntry{kofi, ama}, grading.DefaultPolicy())
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/reports/preview", marchallObj(t, testutil.NewReport(kofi, ama)))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rep report.Report
		unmarchallObj(t, rec.Body.Bytes(), &rep)
		assert.Equal(t, wantRoster, rep.Roster)
		assert.Equal(t, "Ama", rep.Roster[0].Name)
		assert.Equal(t, 1, rep.Roster[0].Position)
		assert.Equal(t, "Pass", rep.Roster[0].Subjects[0].Remark)
		assert.Equal(t, "Fail", rep.Roster[1].Subjects[0].Remark)
		assert.Equal(t, report.DefaultTeacherRemark, rep.TeacherRemark)
		assert.Equal(t, 0, len(storedStudents(t)), "preview must not store anything")
	})

	t.Run("form", func(t *testing.T) {
		form := url.Values{
			"school_name":     {"Sunrise Academy"},
			"location":        {"Kumasi"},
			"grade":           {"basic 7"},
			"semester":        {"First Term"},
			"vacating_date":   {"2024-12-20"},
			"reopening_date":  {"2025-01-08"},
			"teacher_remark":  {"Well done."},
			"num_students":    {"2"},
			"pupil_name_0":    {"Kofi"},
			"subject_0[]":     {"Mathematics"},
			"class_score_0[]": {"40"},
			"exam_score_0[]":  {"50"},
			"name_1":          {"Ama"},
			"subject_1[]":     {"Mathematics"},
			"class_score_1[]": {"80"},
			"exam_score_1[]":  {" 70 "},
			"pupil_name_3":    {"Ignored"}, // index 2 is missing
			"subject_3[]":     {"Mathematics"},
			"class_score_3[]": {"1"},
			"exam_score_3[]":  {"1"},
		}
		req, rec := newFormRequest("/api/reports/preview", form)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rep report.Report
		unmarchallObj(t, rec.Body.Bytes(), &rep)
		assert.Equal(t, wantRoster, rep.Roster)
		assert.Equal(t, "Grade 7", rep.School.Grade)
		assert.Equal(t, "Well done.", rep.TeacherRemark)
	})
}

func TestReportAPI_PreviewErrors(t *testing.T) {
	noName := testutil.NewReport(ama)
	noName.School.Name = "  "
	badGrade := testutil.NewReport(ama)
	badGrade.School.Grade = "Grade 12"
	noStudents := testutil.NewReport()

	tests := []httpTest{
		{
			name:     "malformed body",
			body:     []byte(`{"school": `),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "blank school name",
			body:     marchallObj(t, noName),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"school.name": "this field is required"}),
		},
		{
			name:     "unknown grade",
			body:     marchallObj(t, badGrade),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"school.grade": "unknown grade"}),
		},
		{
			name:     "no students",
			body:     marchallObj(t, noStudents),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"students": "this field is required"}),
		},
		{
			name:     "out of range scores",
			body:     marchallObj(t, testutil.NewReport(ama, testutil.Student("", "Mathematics", -5, 101))),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"students[1].name":                    "this field is required",
				"students[1].subjects[0].class_score": "must be between 0 and 100",
				"students[1].subjects[0].exam_score":  "must be between 0 and 100",
			}),
		},
		{
			name: "missing scores",
			body: []byte(`{
				"school": {"name": "Sunrise Academy", "grade": "Grade 7", "semester": "First Term"},
				"students": [
					{"name": "Ama", "subjects": [{"subject": "Mathematics", "class_score": 80}]},
					{"name": "Kofi", "subjects": [{"subject": "Mathematics", "class_score": null, "exam_score": 0}]}
				]
			}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"students[0].subjects[0].exam_score":  "this field is required",
				"students[1].subjects[0].class_score": "this field is required",
			}),
		},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/reports/preview", tt.body)
			app.ServeHTTP(rec, req)
			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestReportAPI_FormErrors(t *testing.T) {
	base := func() url.Values {
		return url.Values{
			"school_name":     {"Sunrise Academy"},
			"grade":           {"7"},
			"semester":        {"First Term"},
			"pupil_name_0":    {"Kofi"},
			"subject_0[]":     {"Mathematics", "History"},
			"class_score_0[]": {"40", "30"},
			"exam_score_0[]":  {"50", "60"},
		}
	}

	notANumber := base()
	notANumber["class_score_0[]"] = []string{"40", "thirty"}
	mismatch := base()
	mismatch["exam_score_0[]"] = []string{"50"}
	wrongCount := base()
	wrongCount.Set("num_students", "3")

	tests := []struct {
		name     string
		form     url.Values
		wantData map[string]string
	}{
		{"not a number", notANumber, map[string]string{"students[0].subjects[1].class_score": "must be a number"}},
		{"list length mismatch", mismatch, map[string]string{"students[0].subjects": "got 2 subject(s), 2 class score(s) and 1 exam score(s)"}},
		{"wrong student count", wrongCount, map[string]string{"num_students": "expected 3 student(s), got 1"}},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newFormRequest("/api/reports/preview", tt.form)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, tt.wantData)}, rec)
		})
	}
}

func TestReportAPI_Generate(t *testing.T) {
	db.Reset()

	req, rec := newRequest(http.MethodPost, "/api/reports", marchallObj(t, testutil.NewReport(kofi, ama)))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="student_report.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF-"))

	// stored students, best aggregate first
	req, rec = newRequest(http.MethodGet, "/api/students")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var students []report.StoredStudent
	unmarchallObj(t, rec.Body.Bytes(), &students)
	require.Len(t, students, 2)
	assert.Equal(t, "Ama", students[0].Name)
	assert.Equal(t, 75.0, students[0].TotalAggregate)
	assert.Equal(t, "Grade 7", students[0].Grade)
	assert.Equal(t, "Kofi", students[1].Name)

	// invalid input stores nothing
	bad := testutil.NewReport(testutil.Student("Yaw", "Mathematics", 101, 0))
	req, rec = newRequest(http.MethodPost, "/api/reports", marchallObj(t, bad))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, storedStudents(t), 2)
}

func TestReportAPI_Students(t *testing.T) {
	db.Reset()
	req, rec := newRequest(http.MethodPost, "/api/reports", marchallObj(t, testutil.NewReport(kofi, ama)))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	other := testutil.NewReport(testutil.Student("Esi", "Mathematics", 90, 90))
	other.School.Grade = "Grade 3"
	req, rec = newRequest(http.MethodPost, "/api/reports", marchallObj(t, other))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	names := func(t *testing.T, path string) []string {
		req, rec := newRequest(http.MethodGet, path)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var students []report.StoredStudent
		unmarchallObj(t, rec.Body.Bytes(), &students)
		res := make([]string, 0, len(students))
		for _, st := range students {
			res = append(res, st.Name)
		}
		return res
	}

	tests := []struct {
		name string
		path string
		want []string
	}{
		{"default ordering", "/api/students", []string{"Esi", "Ama", "Kofi"}},
		{"by grade", "/api/students?grade=7", []string{"Ama", "Kofi"}},
		{"by name search", "/api/students?search=KO", []string{"Kofi"}},
		{"ordered by name desc", "/api/students?ordering=-name", []string{"Kofi", "Esi", "Ama"}},
		{"unknown ordering field ignored", "/api/students?ordering=password", []string{"Esi", "Ama", "Kofi"}},
		{"no match", "/api/students?semester=Third%20Term", []string{}},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(t, tt.path))
		})
	}

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/students?search=ama")
		app.ServeHTTP(rec, req)
		var students []report.StoredStudent
		unmarchallObj(t, rec.Body.Bytes(), &students)
		require.Len(t, students, 1)

		req, rec = newRequest(http.MethodGet, "/api/students/"+students[0].ID)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var st report.StoredStudent
		unmarchallObj(t, rec.Body.Bytes(), &st)
		assert.Equal(t, "Ama", st.Name)
		require.Len(t, st.Scores, 1)
		assert.Equal(t, 75.0, st.Scores[0].TotalScore)
		assert.Equal(t, "Pass", st.Scores[0].Remark)
	})

	for _, id := range []string{"not-a-uuid", uuid.New().String()} {
		req, rec := newRequest(http.MethodGet, "/api/students/"+id)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	}
}

func TestReportAPI_Email(t *testing.T) {
	db.Reset()
	emailsvc.ResetSentMessages()

	noName := testutil.NewReport(ama)
	noName.School.Name = ""

	tests := []httpTest{
		{
			name: "sent",
			body: marchallObj(t, EmailReportRequest{
				Report:     testutil.NewReport(kofi, ama),
				Recipients: []string{"Head Teacher <head@sunrise.test>", "parents@sunrise.test"},
			}),
			wantCode: http.StatusAccepted,
			wantData: marchallObj(t, SuccessResponse{Success: "The report will be sent to 2 recipient(s) shortly."}),
		},
		{
			name:     "no recipients",
			body:     marchallObj(t, EmailReportRequest{Report: testutil.NewReport(ama)}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipients": "at least one recipient is required"}),
		},
		{
			name:     "invalid recipient",
			body:     marchallObj(t, EmailReportRequest{Report: testutil.NewReport(ama), Recipients: []string{"head@sunrise.test", "nope"}}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"recipients[1]": "enter a valid email address"}),
		},
		{
			name:     "invalid report",
			body:     marchallObj(t, EmailReportRequest{Report: noName, Recipients: []string{"head@sunrise.test"}}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"report.school.name": "this field is required"}),
		},
	}
	for _, tc := range tests {
		tt := tc
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/reports/email", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	sent := emailsvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Report: Sunrise Academy, Grade 7, First Term", sent[0].Subject)
	assert.Len(t, sent[0].To, 2)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, report.Filename, sent[0].Attachments[0].Filename)
	assert.Equal(t, "application/pdf", sent[0].Attachments[0].ContentType)
	assert.Len(t, storedStudents(t), 2)
}

func TestMetrics(t *testing.T) {
	req, rec := newRequest(http.MethodPost, "/api/reports/preview", marchallObj(t, testutil.NewReport(ama)))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `reportcard_http_requests_total{code="200",method="POST",route="/api/reports/preview"}`)
	assert.Contains(t, body, `reportcard_reports_total{kind="preview"}`)
	assert.Contains(t, body, "reportcard_students_ranked_total")
	assert.Contains(t, body, "reportcard_http_request_duration_seconds_bucket")
}
