package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core/report"
)

type (
	reportApi struct {
		svc     *report.Service
		metrics *metrics
	}

	EmailReportRequest struct {
		Report     report.NewReport `json:"report"`
		Recipients []string         `json:"recipients"`
	}
)

func registerReportAPI(g *echo.Group, svc *report.Service, m *metrics) {
	api := reportApi{svc: svc, metrics: m}

	rg := g.Group("/reports")
	rg.POST("", api.generate)
	rg.POST("/preview", api.preview)
	rg.POST("/email", api.email)

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.GET("/:id", api.retrieveStudent)
}

// Handlers

func (api *reportApi) preview(ctx echo.Context) error {
	data, err := bindNewReport(ctx)
	if err != nil {
		return err
	}

	rep, err := api.svc.Preview(data)
	if err != nil {
		return errors.Wrap(err, "previewing report")
	}
	api.metrics.observeReport("preview", rep)
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) generate(ctx echo.Context) error {
	data, err := bindNewReport(ctx)
	if err != nil {
		return err
	}

	rep, doc, err := api.svc.Generate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating report")
	}
	api.metrics.observeReport("document", rep)

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", report.Filename))
	return ctx.Blob(http.StatusOK, api.svc.ContentType(), doc)
}

func (api *reportApi) email(ctx echo.Context) error {
	var data EmailReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailReportRequest")
	}

	to, err := report.ParseRecipients(data.Recipients)
	if err != nil {
		return err
	}
	rep, err := api.svc.Email(ctx.Request().Context(), data.Report, to)
	if err != nil {
		return errors.Wrap(prefixValidationError(err, "report"), "emailing report")
	}
	api.metrics.observeReport("email", rep)

	return ctx.JSON(http.StatusAccepted, SuccessResponse{
		Success: fmt.Sprintf("The report will be sent to %d recipient(s) shortly.", len(to)),
	})
}

func (api *reportApi) queryStudents(ctx echo.Context) error {
	filter := new(report.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []report.StoredStudent{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.QueryStudents(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []report.StoredStudent{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *reportApi) retrieveStudent(ctx echo.Context) error {
	st, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == report.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "retrieving student")
	}
	return ctx.JSON(http.StatusOK, st)
}
