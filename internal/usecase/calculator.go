package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

const maxEstimateLines = 50

type CalculatorUseCase struct {
	Leads   entity.CalculatorRepositoryInterface
	Mailer  Mailer
	Journal entity.JournalRepositoryInterface
	Events  EventPublisher
	Now     func() time.Time
}

func NewCalculatorUseCase(
	leads entity.CalculatorRepositoryInterface,
	mailer Mailer,
	journal entity.JournalRepositoryInterface,
	events EventPublisher,
) *CalculatorUseCase {
	return &CalculatorUseCase{
		Leads:   leads,
		Mailer:  mailer,
		Journal: journal,
		Events:  events,
		Now:     time.Now,
	}
}

func (uc *CalculatorUseCase) Execute(ctx context.Context, in CalculatorInput) (*CalculatorOutput, error) {
	if strings.TrimSpace(in.Honeypot) != "" {
		return nil, errBot
	}

	lead, err := uc.prepare(in)
	if err != nil {
		return nil, err
	}

	d := NewDispatch(
		slog.String("recipient", lead.Email),
		slog.String("form_type", string(entity.JournalCalculator)),
		slog.String("action", string(lead.Action)),
	)
	d.Add(stepStore, func(ctx context.Context) error {
		if uc.Leads == nil {
			return fmt.Errorf("calculator store is not configured")
		}
		id, err := uc.Leads.CreateCalculatorLead(ctx, lead)
		if err != nil {
			return fmt.Errorf("create calculator lead: %w", err)
		}
		lead.ID = id
		return nil
	})
	d.Add(stepOperatorEmail, func(ctx context.Context) error {
		if uc.Mailer == nil || !uc.Mailer.Configured() {
			return errMailUnavailable
		}
		return uc.Mailer.SendCalculatorAlert(lead)
	})
	res := d.Run(ctx)

	payload, _ := json.Marshal(lead)
	entry := &entity.JournalEntry{
		ID:          uuid.New().String(),
		Kind:        entity.JournalCalculator,
		Operation:   "calculator",
		Email:       lead.Email,
		ExternalID:  lead.ID,
		Action:      lead.Action,
		Score:       lead.Score,
		Temperature: lead.Temperature,
		Channels:    channelMap(res),
		Payload:     payload,
		CreatedAt:   uc.Now().UTC(),
	}
	record(ctx, uc.Journal, uc.Events, entry, res)

	if !res.AnyOK(stepStore, stepOperatorEmail) {
		if uc.Mailer != nil && !uc.Mailer.Configured() {
			return nil, &DomainError{Code: CodeDelivery, Message: uc.Mailer.FallbackMessage()}
		}
		return nil, &TechnicalError{Code: CodeStore, Message: "calculator: no channel succeeded"}
	}

	out := &CalculatorOutput{
		Success:     true,
		LeadScore:   lead.Score,
		Temperature: lead.Temperature,
		Outcomes:    res,
	}
	if len(res.Failed()) > 0 {
		out.Warning = "Your estimate was received. We will follow up manually."
	}
	return out, nil
}

func (uc *CalculatorUseCase) prepare(in CalculatorInput) (*entity.CalculatorLead, error) {
	data := in.LeadData
	name, email, errs := ValidateLeadIdentity(data.Name, data.Email)

	action := entity.ActionSubmission
	if a := entity.Action(strings.TrimSpace(data.Action)); a != "" {
		if !a.Valid() {
			errs = append(errs, ValidationError{Field: "action", Message: "action_invalid"})
		}
		action = a
	}
	if len(in.EstimateData.Lines) > maxEstimateLines {
		errs = append(errs, ValidationError{Field: "estimateData", Message: "too_many_lines"})
	}
	if in.EstimateData.Total < 0 || math.IsNaN(in.EstimateData.Total) || math.IsInf(in.EstimateData.Total, 0) {
		errs = append(errs, ValidationError{Field: "estimateData", Message: "total_invalid"})
	}
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	lead := &entity.CalculatorLead{
		Name:        name,
		Email:       email,
		Company:     clean(data.Company),
		Phone:       clean(data.Phone),
		Budget:      clean(data.Budget),
		Urgency:     clean(data.Urgency),
		Deadline:    clean(data.Deadline),
		CompanySize: clean(data.CompanySize),
		Role:        clean(data.Role),
		Action:      action,
		Estimate:    sanitizeEstimate(in.EstimateData),
		CreatedAt:   uc.Now(),
	}

	s := Score(ScoreInput{
		Budget:      data.Budget,
		Urgency:     data.Urgency,
		Deadline:    data.Deadline,
		CompanySize: data.CompanySize,
		Role:        data.Role,
	}, "", action)
	lead.Score = s.Total
	lead.Temperature = s.Temperature
	return lead, nil
}

func clean(s string) string {
	return html.EscapeString(truncate(strings.TrimSpace(s), maxCompanyLength))
}

func sanitizeEstimate(e entity.Estimate) entity.Estimate {
	out := entity.Estimate{Total: e.Total, Currency: clean(e.Currency)}
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, entity.EstimateLine{
			Service: clean(l.Service),
			Label:   clean(l.Label),
			Price:   l.Price,
		})
	}
	return out
}
