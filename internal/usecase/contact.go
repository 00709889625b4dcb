package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

type ContactUseCase struct {
	Contacts entity.ContactRepositoryInterface
	Mailer   Mailer
	Journal  entity.JournalRepositoryInterface
	Events   EventPublisher
	Now      func() time.Time
}

func NewContactUseCase(
	contacts entity.ContactRepositoryInterface,
	mailer Mailer,
	journal entity.JournalRepositoryInterface,
	events EventPublisher,
) *ContactUseCase {
	return &ContactUseCase{
		Contacts: contacts,
		Mailer:   mailer,
		Journal:  journal,
		Events:   events,
		Now:      time.Now,
	}
}

func (uc *ContactUseCase) Execute(ctx context.Context, in ContactInput) (*ContactOutput, error) {
	if strings.TrimSpace(in.Honeypot) != "" {
		return nil, errBot
	}

	fields, errs := ValidateContact(in.Name, in.Email, in.Message)
	if len(errs) > 0 {
		return nil, validationFailed(errs)
	}

	msg := &entity.ContactMessage{
		Name:      fields.Name,
		Email:     fields.Email,
		Message:   fields.Message,
		CreatedAt: uc.Now(),
	}

	d := NewDispatch(
		slog.String("recipient", msg.Email),
		slog.String("form_type", string(entity.JournalContact)),
	)
	d.Add(stepStore, func(ctx context.Context) error {
		if uc.Contacts == nil {
			return fmt.Errorf("contact store is not configured")
		}
		id, err := uc.Contacts.CreateContact(ctx, msg)
		if err != nil {
			return fmt.Errorf("create contact: %w", err)
		}
		msg.ID = id
		return nil
	})
	d.Add(stepOperatorEmail, func(ctx context.Context) error {
		if uc.Mailer == nil || !uc.Mailer.Configured() {
			return errMailUnavailable
		}
		return uc.Mailer.SendContactNotification(msg)
	})
	res := d.Run(ctx)

	payload, _ := json.Marshal(msg)
	entry := &entity.JournalEntry{
		ID:         uuid.New().String(),
		Kind:       entity.JournalContact,
		Operation:  "contact",
		Email:      msg.Email,
		ExternalID: msg.ID,
		Action:     entity.ActionSubmission,
		Channels:   channelMap(res),
		Payload:    payload,
		CreatedAt:  uc.Now().UTC(),
	}
	record(ctx, uc.Journal, uc.Events, entry, res)

	if !res.AnyOK(stepStore, stepOperatorEmail) {
		if uc.Mailer != nil && !uc.Mailer.Configured() {
			return nil, &DomainError{Code: CodeDelivery, Message: uc.Mailer.FallbackMessage()}
		}
		return nil, &TechnicalError{Code: CodeStore, Message: "contact: no channel succeeded"}
	}

	out := &ContactOutput{Success: true, Outcomes: res}
	if len(res.Failed()) > 0 {
		out.Warning = "Your message was received. We will get back to you shortly."
	}
	return out, nil
}
