package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/queue"
)

const (
	stepDocument      = "document"
	stepStore         = "store"
	stepClientEmail   = "client_email"
	stepOperatorEmail = "operator_email"

	maxCompanyLength = 200
	maxAnswerLength  = 5000
)

var errMailUnavailable = errors.New("mail delivery is not configured")

type BriefUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Renderer DocumentRenderer
	Mailer   Mailer
	Journal  entity.JournalRepositoryInterface
	Events   EventPublisher
	Now      func() time.Time
}

func NewBriefUseCase(
	leads entity.LeadRepositoryInterface,
	renderer DocumentRenderer,
	mailer Mailer,
	journal entity.JournalRepositoryInterface,
	events EventPublisher,
) *BriefUseCase {
	return &BriefUseCase{
		Leads:    leads,
		Renderer: renderer,
		Mailer:   mailer,
		Journal:  journal,
		Events:   events,
		Now:      time.Now,
	}
}

// Submit stores a new brief and alerts the operator, attaching the rendered
// document when rendering works.
func (uc *BriefUseCase) Submit(ctx context.Context, in BriefInput) (*BriefOutput, error) {
	lead, err := uc.prepare(in, entity.ActionSubmission)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	d := NewDispatch(leadAttrs(lead)...)
	d.Add(stepDocument, func(ctx context.Context) (err error) {
		pdf, err = uc.Renderer.PDF(lead)
		return err
	})
	d.Add(stepStore, func(ctx context.Context) error {
		return uc.persist(ctx, lead, in.BriefID)
	})
	d.Add(stepOperatorEmail, func(ctx context.Context) error {
		return uc.mail(func() error { return uc.Mailer.SendBriefAlert(lead, pdf) })
	})

	res := d.Run(ctx)
	return uc.finish(ctx, "submission", lead, res, stepStore, stepOperatorEmail)
}

// RequestEmail mails the brief document to the client before the store
// write. A sent email is never retried or rolled back.
func (uc *BriefUseCase) RequestEmail(ctx context.Context, in BriefInput) (*BriefOutput, error) {
	lead, err := uc.prepare(in, entity.ActionEmailRequested)
	if err != nil {
		return nil, err
	}

	var pdf []byte
	d := NewDispatch(leadAttrs(lead)...)
	d.Add(stepDocument, func(ctx context.Context) (err error) {
		pdf, err = uc.Renderer.PDF(lead)
		return err
	})
	d.Add(stepClientEmail, func(ctx context.Context) error {
		return uc.mail(func() error { return uc.Mailer.SendBriefConfirmation(lead, pdf) })
	})
	d.Add(stepStore, func(ctx context.Context) error {
		return uc.persist(ctx, lead, in.BriefID)
	})
	d.Add(stepOperatorEmail, func(ctx context.Context) error {
		return uc.mail(func() error { return uc.Mailer.SendBriefAlert(lead, pdf) })
	})

	res := d.Run(ctx)
	out, err := uc.finish(ctx, "email", lead, res, stepClientEmail, stepStore)
	if err != nil {
		return nil, err
	}
	if !res.OK(stepClientEmail) && uc.Mailer != nil {
		out.Warning = uc.Mailer.FallbackMessage()
	}
	return out, nil
}

// RequestDiscussion records that the client wants a call.
func (uc *BriefUseCase) RequestDiscussion(ctx context.Context, in BriefInput) (*BriefOutput, error) {
	lead, err := uc.prepare(in, entity.ActionDiscussionRequested)
	if err != nil {
		return nil, err
	}

	d := NewDispatch(leadAttrs(lead)...)
	d.Add(stepStore, func(ctx context.Context) error {
		return uc.persist(ctx, lead, in.BriefID)
	})
	d.Add(stepOperatorEmail, func(ctx context.Context) error {
		return uc.mail(func() error { return uc.Mailer.SendDiscussionRequest(lead) })
	})
	d.Add(stepClientEmail, func(ctx context.Context) error {
		return uc.mail(func() error { return uc.Mailer.SendDiscussionAck(lead) })
	})

	res := d.Run(ctx)
	return uc.finish(ctx, "discussion", lead, res, stepStore, stepOperatorEmail)
}

// Document renders the brief for download. Escalating the record to
// document_downloaded is best effort and never blocks the download.
func (uc *BriefUseCase) Document(ctx context.Context, in BriefInput) (*BriefDocument, error) {
	lead, err := uc.prepare(in, entity.ActionDocumentDownloaded)
	if err != nil {
		return nil, err
	}

	format := strings.ToLower(strings.TrimSpace(in.Format))
	doc := &BriefDocument{Filename: briefFilename(lead, uc.Now())}
	if format == "html" {
		doc.Content, err = uc.Renderer.HTML(lead)
		doc.ContentType = "text/html; charset=utf-8"
		doc.Filename += ".html"
	} else {
		doc.Content, err = uc.Renderer.PDF(lead)
		doc.ContentType = "application/pdf"
		doc.Filename += ".pdf"
	}
	if err != nil {
		slog.Error("render brief failed", append(attrsToArgs(leadAttrs(lead)), "format", format, "error", err.Error())...)
		return nil, &TechnicalError{Code: CodeRender, Message: "render brief", Err: err}
	}

	d := NewDispatch(leadAttrs(lead)...)
	d.Add(stepStore, func(ctx context.Context) error {
		return uc.persist(ctx, lead, in.BriefID)
	})
	res := d.Run(ctx)
	uc.trace(ctx, "document", lead, res)
	if res.OK(stepStore) {
		doc.BriefID = lead.ID
	}
	return doc, nil
}

func (uc *BriefUseCase) prepare(in BriefInput, action entity.Action) (*entity.Lead, error) {
	if strings.TrimSpace(in.Honeypot) != "" {
		return nil, errBot
	}

	name, email, errs := ValidateLeadIdentity(in.Name, in.Email)
	category, err := entity.ParseFormCategory(strings.TrimSpace(in.FormType))
	if err != nil {
		errs = append(errs, ValidationError{Field: "formType", Message: "form_type_invalid"})
	}
	company := strings.TrimSpace(in.Company)
	if len([]rune(company)) > maxCompanyLength {
		errs = append(errs, ValidationError{Field: "company", Message: "company_too_long"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	now := uc.Now()
	lead := &entity.Lead{
		Category:  category,
		Name:      name,
		Email:     email,
		Company:   html.EscapeString(company),
		Answers:   cleanAnswers(in.BriefData),
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	uc.rescore(lead)
	return lead, nil
}

func (uc *BriefUseCase) rescore(lead *entity.Lead) {
	s := ScoreLead(lead)
	lead.Score = s.Total
	lead.Temperature = s.Temperature
}

// persist updates the record when briefID points at an existing one and
// creates it otherwise. The stored action only ever moves up.
func (uc *BriefUseCase) persist(ctx context.Context, lead *entity.Lead, briefID string) error {
	briefID = strings.TrimSpace(briefID)
	if briefID != "" {
		current, err := uc.Leads.FindLead(ctx, briefID)
		switch {
		case err == nil:
			lead.Action = entity.Escalate(current.Action, lead.Action)
			uc.rescore(lead)
			patch := entity.LeadPatch{Action: lead.Action, Score: lead.Score, Temperature: lead.Temperature}
			if err := uc.Leads.UpdateLead(ctx, briefID, patch); err != nil {
				return fmt.Errorf("update brief %s: %w", briefID, err)
			}
			lead.ID = briefID
			return nil
		case errors.Is(err, entity.ErrNotFound):
			slog.Warn("brief id not found, creating a new record", slog.String("brief_id", briefID))
		default:
			return fmt.Errorf("find brief %s: %w", briefID, err)
		}
	}

	id, err := uc.Leads.CreateLead(ctx, lead)
	if err != nil {
		return fmt.Errorf("create brief: %w", err)
	}
	lead.ID = id
	return nil
}

func (uc *BriefUseCase) mail(send func() error) error {
	if uc.Mailer == nil || !uc.Mailer.Configured() {
		return errMailUnavailable
	}
	return send()
}

// finish applies the response policy: success when at least one primary
// channel landed, a warning when anything else failed.
func (uc *BriefUseCase) finish(ctx context.Context, op string, lead *entity.Lead, res Outcomes, primary ...string) (*BriefOutput, error) {
	uc.trace(ctx, op, lead, res)

	if !res.AnyOK(primary...) {
		if uc.Mailer != nil && !uc.Mailer.Configured() {
			return nil, &DomainError{Code: CodeDelivery, Message: uc.Mailer.FallbackMessage()}
		}
		return nil, &TechnicalError{Code: CodeStore, Message: "brief " + op + ": no channel succeeded"}
	}

	out := &BriefOutput{Success: true, Temperature: lead.Temperature, Outcomes: res}
	if res.OK(stepStore) {
		out.BriefID = lead.ID
	}
	if failed := res.Failed(); len(failed) > 0 {
		out.Warning = "Your brief was received. We will follow up manually."
	}
	return out, nil
}

// trace writes the journal entry and the lead event. Both are best effort.
func (uc *BriefUseCase) trace(ctx context.Context, op string, lead *entity.Lead, res Outcomes) {
	payload, _ := json.Marshal(lead)
	entry := &entity.JournalEntry{
		ID:          uuid.New().String(),
		Kind:        entity.JournalBrief,
		Operation:   op,
		FormType:    string(lead.Category),
		Email:       lead.Email,
		Action:      lead.Action,
		Score:       lead.Score,
		Temperature: lead.Temperature,
		Channels:    channelMap(res),
		Payload:     payload,
		CreatedAt:   uc.Now().UTC(),
	}
	if res.OK(stepStore) {
		entry.ExternalID = lead.ID
	}
	record(ctx, uc.Journal, uc.Events, entry, res)
}

func record(ctx context.Context, journal entity.JournalRepositoryInterface, events EventPublisher, entry *entity.JournalEntry, res Outcomes) {
	if journal != nil {
		if err := journal.Record(ctx, entry); err != nil {
			slog.Error("journal write failed",
				slog.String("kind", string(entry.Kind)),
				slog.String("email", entry.Email),
				slog.String("error", err.Error()))
		}
	}
	if events != nil {
		event := queue.LeadEvent{
			ID:          entry.ID,
			Kind:        string(entry.Kind),
			Operation:   entry.Operation,
			ExternalID:  entry.ExternalID,
			FormType:    entry.FormType,
			Email:       entry.Email,
			Action:      string(entry.Action),
			Score:       entry.Score,
			Temperature: string(entry.Temperature),
			Failed:      res.Failed(),
			OccurredAt:  entry.CreatedAt,
		}
		if err := events.PublishLeadEvent(ctx, event); err != nil {
			slog.Warn("lead event not published", slog.String("error", err.Error()))
		}
	}
}

func channelMap(res Outcomes) map[string]string {
	m := make(map[string]string, len(res))
	for _, s := range res {
		if s.OK {
			m[s.Name] = "ok"
		} else {
			m[s.Name] = s.Err
		}
	}
	return m
}

func leadAttrs(l *entity.Lead) []slog.Attr {
	return []slog.Attr{
		slog.String("recipient", l.Email),
		slog.String("form_type", string(l.Category)),
		slog.String("action", string(l.Action)),
	}
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return args
}

func cleanAnswers(in map[string]entity.Answer) map[string]entity.Answer {
	out := make(map[string]entity.Answer, len(in))
	for k, a := range in {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		a.Text = truncate(strings.TrimSpace(a.Text), maxAnswerLength)
		for i := range a.Items {
			a.Items[i] = truncate(strings.TrimSpace(a.Items[i]), maxAnswerLength)
		}
		out[k] = a
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func briefFilename(l *entity.Lead, at time.Time) string {
	name := entity.SlugWithFallback(l.Name, at)
	return fmt.Sprintf("brief-%s-%s", l.Category, name)
}
