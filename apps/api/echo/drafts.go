package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core/grading"
	"github.com/trezcool/reportcard/core/report"
)

type (
	draftApi struct {
		service *report.Service
	}

	NewDraftRequest struct {
		Expected int `json:"expected"`
	}

	// DraftInput is the draft as sent back by the client.
	DraftInput struct {
		Expected int                   `json:"expected"`
		Students []report.StudentInput `json:"students" validate:"dive"`
	}

	AddStudentRequest struct {
		Draft   DraftInput          `json:"draft"`
		Student report.StudentInput `json:"student"`
	}

	// DraftResponse carries the updated draft back to the client, which owns it between steps.
	// Roster is set once every expected student was added.
	DraftResponse struct {
		Draft     grading.Draft        `json:"draft"`
		Remaining int                  `json:"remaining"`
		Complete  bool                 `json:"complete"`
		Roster    grading.RankedRoster `json:"roster,omitempty"`
	}
)

func registerDraftAPI(g *echo.Group, service *report.Service) {
	api := draftApi{service: service}

	dg := g.Group("/drafts")
	dg.POST("", api.create)
	dg.POST("/students", api.addStudent)
}

// Handlers

func (api *draftApi) create(ctx echo.Context) error {
	var data NewDraftRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDraftRequest")
	}

	draft, err := grading.NewDraft(data.Expected)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, newDraftResponse(draft, nil))
}

func (api *draftApi) addStudent(ctx echo.Context) error {
	var data AddStudentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudentRequest")
	}
	if err := api.service.ValidateInput(data); err != nil {
		return err
	}

	policy := api.service.Policy()
	student := data.Student.Entry()
	draft, err := data.Draft.draft().Add(student)
	if err != nil {
		if errors.Is(err, grading.ErrInvalidDraft) {
			return prefixValidationError(err, "draft")
		}
		return prefixValidationError(err, "student")
	}
	// reject bad scores at the step they were entered
	if _, err = grading.BuildStudent(student, policy); err != nil {
		return prefixValidationError(err, "student")
	}

	var roster grading.RankedRoster
	if draft.Complete() {
		if roster, err = draft.Build(policy); err != nil {
			return errors.Wrap(prefixValidationError(err, "draft"), "building draft roster")
		}
	}
	return ctx.JSON(http.StatusOK, newDraftResponse(draft, roster))
}

func (in DraftInput) draft() grading.Draft {
	return grading.Draft{Expected: in.Expected, Students: report.Entries(in.Students)}
}

// NewDraftInput turns a draft from a response into the form the client sends back.
func NewDraftInput(d grading.Draft) DraftInput {
	in := DraftInput{Expected: d.Expected, Students: make([]report.StudentInput, 0, len(d.Students))}
	for _, entry := range d.Students {
		in.Students = append(in.Students, report.NewStudentInput(entry))
	}
	return in
}

func newDraftResponse(d grading.Draft, roster grading.RankedRoster) DraftResponse {
	return DraftResponse{Draft: d, Remaining: d.Remaining(), Complete: d.Complete(), Roster: roster}
}
