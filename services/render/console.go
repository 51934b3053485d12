package rendersvc

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core/report"
)

type consoleRenderer struct {
	title  *color.Color
	muted  *color.Color
	passed *color.Color
	failed *color.Color
}

var _ report.Renderer = (*consoleRenderer)(nil)

// NewConsoleRenderer prints reports as text tables; colored is usually true only for terminals.
func NewConsoleRenderer(colored bool) report.Renderer {
	r := &consoleRenderer{
		title:  color.New(color.FgCyan, color.Bold),
		muted:  color.New(color.FgYellow),
		passed: color.New(color.FgGreen),
		failed: color.New(color.FgRed),
	}
	for _, c := range []*color.Color{r.title, r.muted, r.passed, r.failed} {
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r consoleRenderer) ContentType() string { return "text/plain; charset=utf-8" }

func (r consoleRenderer) Render(w io.Writer, rep report.Report) error {
	s := rep.School
	if _, err := r.title.Fprintf(w, "\n=== %s ===\n", s.Name); err != nil {
		return errors.Wrap(err, "writing header")
	}
	_, _ = r.muted.Fprintf(w, "Grade: %s | Semester: %s\n", s.Grade, s.Semester)
	if s.Location != "" {
		_, _ = r.muted.Fprintf(w, "Location: %s\n", s.Location)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Position", "Pupil Name", "Subject", "Class Score", "Exam Score", "Total Score", "Remark"})
	table.SetAutoWrapText(false)
	for _, st := range rep.Roster {
		for j, sub := range st.Subjects {
			pos, name := "", ""
			if j == 0 {
				pos, name = strconv.Itoa(st.Position), st.Name
			}
			table.Append([]string{
				pos, name, sub.Subject,
				formatScore(sub.ClassScore), formatScore(sub.ExamScore), formatScore(sub.TotalScore),
				r.remark(sub.Remark),
			})
		}
		table.Append([]string{"", "", "Total Aggregate", "", "", formatScore(st.Aggregate), ""})
	}
	table.Render()

	_, err := fmt.Fprintf(w, "Teacher's Remarks: %s\n", rep.TeacherRemark)
	return err
}

func (r consoleRenderer) remark(remark string) string {
	switch remark {
	case "Fail", "E":
		return r.failed.Sprint(remark)
	case "Pass", "A":
		return r.passed.Sprint(remark)
	}
	return remark
}
