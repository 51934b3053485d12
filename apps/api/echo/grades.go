package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/reportcard/core/report"
)

type GradeSubjectsResponse struct {
	Grade    string   `json:"grade"`
	Subjects []string `json:"subjects"`
}

func registerGradeAPI(g *echo.Group) {
	gg := g.Group("/grades")
	gg.GET("", queryGrades)
	gg.GET("/:grade/subjects", queryGradeSubjects)
}

func queryGrades(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, report.Grades())
}

func queryGradeSubjects(ctx echo.Context) error {
	grade, ok := report.NormalizeGrade(ctx.Param("grade"))
	if !ok {
		return errHttpNotFound
	}
	subjects, _ := report.Subjects(grade)
	return ctx.JSON(http.StatusOK, GradeSubjectsResponse{Grade: grade, Subjects: subjects})
}
