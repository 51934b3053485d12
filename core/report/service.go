package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/reportcard/core"
	"github.com/trezcool/reportcard/core/grading"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrNoRecipients = errors.New("at least one recipient is required")
	ErrInvalidEmail = errors.New("invalid email address")
)

const errInvalidRecipient = "enter a valid email address"

type (
	Repository interface {
		// SaveStudents stores the students and their scores in a single transaction.
		// The returned copies carry the identifiers assigned by the store.
		SaveStudents(ctx context.Context, students []StoredStudent) ([]StoredStudent, error)
		// QueryStudents applies AND on the non-empty QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the student name.
		QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]StoredStudent, error)
		GetStudent(ctx context.Context, id string) (StoredStudent, error)
	}

	// Renderer lays a report out into a document.
	Renderer interface {
		ContentType() string
		Render(w io.Writer, rep Report) error
	}

	Service struct {
		repo       Repository
		renderer   Renderer
		mailSvc    core.EmailService
		policy     grading.Policy
		validate   *validator.Validate
		translator ut.Translator
		nowFunc    func() time.Time
	}
)

func NewService(
	repo Repository,
	renderer Renderer,
	mailSvc core.EmailService,
	policy grading.Policy,
	validate *validator.Validate,
	translator ut.Translator,
) *Service {
	return &Service{
		repo:       repo,
		renderer:   renderer,
		mailSvc:    mailSvc,
		policy:     policy,
		validate:   validate,
		translator: translator,
		nowFunc:    time.Now,
	}
}

func (svc *Service) Policy() grading.Policy { return svc.policy }

// ContentType is the media type of generated documents.
func (svc *Service) ContentType() string { return svc.renderer.ContentType() }

// ValidateInput checks a submitted value with the service validator.
func (svc *Service) ValidateInput(s interface{}) error {
	return core.ValidateStruct(svc.validate, svc.translator, s)
}

// Validate cleans the header fields then checks them.
func (nr *NewReport) Validate(validate *validator.Validate, translator ut.Translator) error {
	nr.School.clean()
	nr.TeacherRemark = core.CleanString(nr.TeacherRemark)

	return core.ValidateStruct(validate, translator, nr)
}

// Preview computes the ranked report without storing or rendering anything.
func (svc *Service) Preview(nr NewReport) (Report, error) {
	if err := nr.Validate(svc.validate, svc.translator); err != nil {
		return Report{}, err
	}

	roster, err := grading.BuildRoster(Entries(nr.Students), svc.policy)
	if err != nil {
		return Report{}, err
	}

	remark := nr.TeacherRemark
	if remark == "" {
		remark = DefaultTeacherRemark
	}
	return Report{
		School:        nr.School,
		Roster:        roster,
		TeacherRemark: remark,
		GeneratedAt:   svc.nowFunc().UTC(),
	}, nil
}

// Generate computes the report, renders it and stores every student.
// Nothing is stored when rendering fails and no document is returned when storing fails.
func (svc *Service) Generate(ctx context.Context, nr NewReport) (Report, []byte, error) {
	rep, err := svc.Preview(nr)
	if err != nil {
		return Report{}, nil, err
	}

	var buf bytes.Buffer
	if err = svc.renderer.Render(&buf, rep); err != nil {
		return Report{}, nil, errors.Wrap(err, "rendering report")
	}

	if _, err = svc.repo.SaveStudents(ctx, storedStudents(rep.School, rep.Roster, rep.GeneratedAt)); err != nil {
		return Report{}, nil, errors.Wrap(err, "saving students")
	}
	return rep, buf.Bytes(), nil
}

// Email generates the report and mails the document to the recipients.
// Delivery is asynchronous: failures are logged by the email service.
func (svc *Service) Email(ctx context.Context, nr NewReport, to []mail.Address) (Report, error) {
	if len(to) == 0 {
		return Report{}, core.NewValidationError(ErrNoRecipients, core.FieldError{Field: "recipients", Error: ErrNoRecipients.Error()})
	}

	rep, doc, err := svc.Generate(ctx, nr)
	if err != nil {
		return Report{}, err
	}

	msg := &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("Report: %s, %s, %s", rep.School.Name, rep.School.Grade, rep.School.Semester),
		BodyStr: fmt.Sprintf(
			"Please find attached the report of %s (%s, %s).\n\nNumber of students: %d\n",
			rep.School.Name, rep.School.Grade, rep.School.Semester, len(rep.Roster),
		),
	}
	if err = msg.Attach(bytes.NewReader(doc), Filename, svc.renderer.ContentType()); err != nil {
		return Report{}, errors.Wrap(err, "attaching report")
	}
	svc.mailSvc.SendMessages(msg)
	return rep, nil
}

func (svc *Service) QueryStudents(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]StoredStudent, error) {
	filter.Clean()
	ordering = core.FilterOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = DefaultOrdering
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

func (svc *Service) GetStudent(ctx context.Context, id string) (StoredStudent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return StoredStudent{}, ErrNotFound
	}
	return svc.repo.GetStudent(ctx, id)
}

// ParseRecipients parses email addresses such as "a@b.c" or "Name <a@b.c>".
func ParseRecipients(addrs []string) ([]mail.Address, error) {
	var flds []core.FieldError
	to := make([]mail.Address, 0, len(addrs))
	for i, a := range addrs {
		addr, err := mail.ParseAddress(core.CleanString(a))
		if err != nil {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("recipients[%d]", i), Error: errInvalidRecipient})
			continue
		}
		to = append(to, *addr)
	}
	if len(flds) > 0 {
		return nil, core.NewValidationError(ErrInvalidEmail, flds...)
	}
	if len(to) == 0 {
		return nil, core.NewValidationError(ErrNoRecipients, core.FieldError{Field: "recipients", Error: ErrNoRecipients.Error()})
	}
	return to, nil
}
