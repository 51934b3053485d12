package rendersvc

import (
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core/report"
)

var (
	columns = []struct {
		title string
		width float64
		align string
	}{
		{"Pupil Name", 40, "L"},
		{"Subject", 50, "L"},
		{"Class Score", 20, "C"},
		{"Exam Score", 20, "C"},
		{"Total Score", 20, "C"},
		{"Remark", 22, "C"},
		{"Position", 18, "C"},
	}

	headerFill = [3]int{40, 145, 108}
	stripeFill = [3]int{245, 245, 245}
)

const (
	pdfContentType = "application/pdf"
	rowHeight      = 7.0
	fontFamily     = "Arial"
)

type pdfRenderer struct {
	compress bool
}

var _ report.Renderer = (*pdfRenderer)(nil)

// NewPDFRenderer lays reports out as an A4 table: one block of rows per student, in position order.
func NewPDFRenderer() report.Renderer {
	return &pdfRenderer{compress: true}
}

func (r pdfRenderer) ContentType() string { return pdfContentType }

func (r pdfRenderer) Render(w io.Writer, rep report.Report) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(rep.School.Name+" report", true)
	pdf.SetCreator("Report Card", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252

	pdf.AddPage()
	r.header(pdf, tr, rep.School)
	r.table(pdf, tr, rep)
	r.footer(pdf, tr, rep.TeacherRemark)

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "writing pdf")
	}
	return nil
}

func (r pdfRenderer) header(pdf *gofpdf.Fpdf, tr func(string) string, school report.School) {
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 8, tr(strings.ToUpper(school.Name)), "", 1, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	if school.Location != "" {
		pdf.CellFormat(0, 6, tr("Location: "+school.Location), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 6, tr("Grade: "+school.Grade+" | Semester: "+school.Semester), "", 1, "C", false, 0, "")
	if school.VacatingDate != "" || school.ReopeningDate != "" {
		pdf.CellFormat(0, 6,
			tr("Date of Vacating: "+school.VacatingDate+" | Date of Reopening: "+school.ReopeningDate),
			"", 1, "C", false, 0, "")
	}

	pdf.SetDrawColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetLineWidth(0.5)
	left, _, right, _ := pdf.GetMargins()
	pageW, _ := pdf.GetPageSize()
	pdf.Line(left, pdf.GetY()+2, pageW-right, pdf.GetY()+2)
	pdf.Ln(6)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
}

func (r pdfRenderer) tableHeader(pdf *gofpdf.Fpdf) {
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(255, 255, 255)
	for i, col := range columns {
		ln := 0
		if i == len(columns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, col.title, "1", ln, "C", true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(stripeFill[0], stripeFill[1], stripeFill[2])
	pdf.SetFont(fontFamily, "", 9)
}

func (r pdfRenderer) table(pdf *gofpdf.Fpdf, tr func(string) string, rep report.Report) {
	pdf.SetHeaderFuncMode(func() {
		if pdf.PageNo() > 1 {
			r.tableHeader(pdf)
		}
	}, false)
	r.tableHeader(pdf)

	for i, st := range rep.Roster {
		fill := i%2 == 1

		for j, sub := range st.Subjects {
			name, position := "", ""
			if j == 0 { // name and position only on the first row of a pupil
				name, position = st.Name, strconv.Itoa(st.Position)
			}
			r.row(pdf, fill,
				tr(name), tr(sub.Subject),
				formatScore(sub.ClassScore), formatScore(sub.ExamScore), formatScore(sub.TotalScore),
				tr(sub.Remark), position,
			)
		}
		if len(st.Subjects) == 0 {
			r.row(pdf, fill, tr(st.Name), "", "", "", "", "", strconv.Itoa(st.Position))
		}

		pdf.SetFont(fontFamily, "B", 9)
		r.row(pdf, fill, "", "Total Aggregate", "", "", formatScore(st.Aggregate), "", "")
		pdf.SetFont(fontFamily, "", 9)
		pdf.Ln(rowHeight / 2)
	}
}

func (r pdfRenderer) row(pdf *gofpdf.Fpdf, fill bool, cells ...string) {
	for i, col := range columns {
		ln := 0
		if i == len(columns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, rowHeight, cells[i], "1", ln, col.align, fill, 0, "")
	}
}

func (r pdfRenderer) footer(pdf *gofpdf.Fpdf, tr func(string) string, remark string) {
	pdf.SetHeaderFuncMode(nil, false)
	pdf.Ln(8)
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(0, 6, "Teacher's Remarks:", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.MultiCell(0, 6, tr(remark), "", "L", false)
}

// formatScore rounds to 2 decimals and drops trailing zeros.
func formatScore(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
