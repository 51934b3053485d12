package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/reportcard/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"

	// reports are mailed once; transient sendgrid failures get a few more tries
	maxAttempts = 3
	retryWait   = 2 * time.Second
)

// reportCategory tags every mail so report deliveries can be filtered in the sendgrid activity feed.
const reportCategory = "report-card"

type sendgridMailer struct {
	apiKey  string
	sender  *sgmail.Email
	subject func(string) string
	logger  core.Logger
}

var _ core.EmailService = (*sendgridMailer)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	prefix := "[" + conf.AppName + "] "
	return &sendgridMailer{
		apiKey:  conf.SendgridApiKey,
		sender:  sgmail.NewEmail(from.Name, from.Address),
		subject: func(s string) string { return prefix + s },
		logger:  logger,
	}
}

func (m sendgridMailer) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go m.deliver(msg)
	}
}

func (m sendgridMailer) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		m.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	res, err := m.post(m.build(*msg))
	switch {
	case err != nil:
		m.logger.Error(fmt.Sprintf("sending email: %v", err), err)
	case res.StatusCode >= http.StatusBadRequest:
		m.logger.Error(
			fmt.Sprintf("sending email - status: %d - Body: %s", res.StatusCode, res.Body),
			map[string]interface{}{"subject": msg.Subject, "attachments": len(msg.Attachments)},
		)
	}
}

// build turns a rendered message into the v3 payload: one personalization for all recipients.
func (m sendgridMailer) build(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subject(msg.Subject)
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	sm := sgmail.NewV3Mail()
	sm.SetFrom(m.sender)
	sm.AddPersonalizations(p)
	sm.AddCategories(reportCategory)

	// sendgrid rejects empty content values, and wants text/plain first
	for _, c := range []*sgmail.Content{
		sgmail.NewContent("text/plain", msg.TextContent),
		sgmail.NewContent("text/html", msg.HTMLContent),
	} {
		if c.Value != "" {
			sm.AddContent(c)
		}
	}

	for _, at := range msg.Attachments {
		sm.AddAttachment(reportAttachment(at))
	}
	return sm
}

// post retries on transport errors, throttling and server side failures.
func (m sendgridMailer) post(sm *sgmail.SGMailV3) (*rest.Response, error) {
	body := sgmail.GetRequestBody(sm)

	var (
		res *rest.Response
		err error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req := sendgrid.GetRequest(m.apiKey, endpoint, host)
		req.Method = http.MethodPost
		req.Body = body

		res, err = sendgrid.API(req)
		if !retryable(res, err) || attempt == maxAttempts {
			break
		}
		m.logger.Warn(fmt.Sprintf("sending email: attempt %d of %d failed, retrying", attempt, maxAttempts))
		time.Sleep(retryWait)
	}
	return res, err
}

func retryable(res *rest.Response, err error) bool {
	if err != nil {
		return true
	}
	return res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, a := range addrs {
		emails = append(emails, sgmail.NewEmail(a.Name, a.Address))
	}
	return emails
}

// reportAttachment keeps documents out of the mail body; content is already base64.
func reportAttachment(at core.Attachment) *sgmail.Attachment {
	return sgmail.NewAttachment().
		SetContent(at.Content.String()).
		SetType(at.ContentType).
		SetFilename(at.Filename).
		SetDisposition("attachment")
}
