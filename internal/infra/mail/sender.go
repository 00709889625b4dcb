package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/xavierca1/studio-funnel/internal/entity"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var ErrNotConfigured = errors.New("mail: smtp host or sender not configured")

// Dialer is the part of gomail.Dialer the sender uses.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

func NewEmailSender(host string, port int, user, password, from, operator string) *EmailSender {
	s := &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		Operator: operator,
	}
	if host != "" {
		s.dialer = gomail.NewDialer(host, port, user, password)
	}
	return s
}

// WithDialer swaps the SMTP dialer, for tests.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

func (s *EmailSender) Configured() bool {
	return s != nil && s.dialer != nil && s.From != ""
}

// FallbackMessage is shown to the client when email could not be sent.
func (s *EmailSender) FallbackMessage() string {
	if s.Operator == "" {
		return "Email delivery is temporarily unavailable. Please try again later."
	}
	return fmt.Sprintf("Email delivery is temporarily unavailable. Please contact us directly at %s.", s.Operator)
}

func (s *EmailSender) SendContactNotification(msg *entity.ContactMessage) error {
	data := ContactEmailData{
		Name:    template.HTML(msg.Name),
		Email:   msg.Email,
		Message: template.HTML(msg.Message),
		SentAt:  msg.CreatedAt.UTC().Format(time.RFC1123),
	}
	subject := fmt.Sprintf("New contact message from %s", html.UnescapeString(msg.Name))
	return s.send(s.Operator, subject, "contact_notification.html", data, msg.Email, nil)
}

func (s *EmailSender) SendBriefConfirmation(lead *entity.Lead, pdf []byte) error {
	subject := fmt.Sprintf("Your %s brief", lead.Category.Label())
	return s.send(lead.Email, subject, "brief_confirmation.html", s.briefData(lead, false), "", briefAttachment(lead, pdf))
}

func (s *EmailSender) SendBriefAlert(lead *entity.Lead, pdf []byte) error {
	subject := fmt.Sprintf("[%s] New %s brief from %s", lead.Temperature, lead.Category.Label(), html.UnescapeString(lead.Name))
	return s.send(s.Operator, subject, "brief_alert.html", s.briefData(lead, false), lead.Email, briefAttachment(lead, pdf))
}

func (s *EmailSender) SendDiscussionRequest(lead *entity.Lead) error {
	subject := fmt.Sprintf("[%s] Call requested by %s", lead.Temperature, html.UnescapeString(lead.Name))
	return s.send(s.Operator, subject, "brief_alert.html", s.briefData(lead, true), lead.Email, nil)
}

func (s *EmailSender) SendDiscussionAck(lead *entity.Lead) error {
	return s.send(lead.Email, "We received your call request", "discussion_ack.html", s.briefData(lead, true), "", nil)
}

func (s *EmailSender) SendCalculatorAlert(lead *entity.CalculatorLead) error {
	data := CalculatorEmailData{
		Name:        template.HTML(lead.Name),
		Email:       lead.Email,
		Company:     template.HTML(lead.Company),
		Phone:       template.HTML(lead.Phone),
		Budget:      template.HTML(lead.Budget),
		Urgency:     template.HTML(firstNonEmpty(lead.Urgency, lead.Deadline)),
		CompanySize: template.HTML(lead.CompanySize),
		Role:        template.HTML(lead.Role),
		Action:      string(lead.Action),
		Score:       lead.Score,
		Temperature: string(lead.Temperature),
		Total:       money(lead.Estimate.Total, lead.Estimate.Currency),
	}
	for _, l := range lead.Estimate.Lines {
		data.Lines = append(data.Lines, EstimateEmailLine{
			Label: template.HTML(firstNonEmpty(l.Label, l.Service)),
			Price: money(l.Price, lead.Estimate.Currency),
		})
	}
	subject := fmt.Sprintf("[%s] Calculator estimate from %s", lead.Temperature, html.UnescapeString(lead.Name))
	return s.send(s.Operator, subject, "calculator_alert.html", data, lead.Email, nil)
}

type attachment struct {
	name    string
	content []byte
}

func briefAttachment(lead *entity.Lead, pdf []byte) *attachment {
	if len(pdf) == 0 {
		return nil
	}
	return &attachment{name: fmt.Sprintf("brief-%s.pdf", lead.Category), content: pdf}
}

func (s *EmailSender) briefData(lead *entity.Lead, call bool) BriefEmailData {
	keys := make([]string, 0, len(lead.Answers))
	for k := range lead.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := BriefEmailData{
		BriefID:     lead.ID,
		Category:    lead.Category.Label(),
		Name:        template.HTML(lead.Name),
		Email:       lead.Email,
		Company:     template.HTML(lead.Company),
		Action:      string(lead.Action),
		Score:       lead.Score,
		Temperature: string(lead.Temperature),
		Operator:    s.Operator,
		CallRequest: call,
	}
	for _, k := range keys {
		if v := lead.Answers[k].String(); v != "" {
			data.Answers = append(data.Answers, AnswerLine{Question: k, Answer: v})
		}
	}
	return data
}

func (s *EmailSender) send(to, subject, tmpl string, data any, replyTo string, att *attachment) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if to == "" {
		return fmt.Errorf("mail: no recipient for %s", tmpl)
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	if replyTo != "" {
		m.SetHeader("Reply-To", replyTo)
	}
	m.SetBody("text/html", body.String())
	if att != nil {
		m.Attach(att.name,
			gomail.SetHeader(map[string][]string{"Content-Type": {"application/pdf"}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(att.content)
				return err
			}))
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send %s: %w", tmpl, err)
	}
	slog.Info("email sent", slog.String("template", tmpl), slog.String("recipient", to))
	return nil
}

func money(v float64, currency string) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	if currency == "" {
		return "$" + s
	}
	return s + " " + currency
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
