package usecase

import (
	"context"

	"github.com/xavierca1/studio-funnel/internal/entity"
	"github.com/xavierca1/studio-funnel/internal/infra/queue"
)

type DocumentRenderer interface {
	HTML(lead *entity.Lead) ([]byte, error)
	PDF(lead *entity.Lead) ([]byte, error)
}

type Mailer interface {
	Configured() bool
	FallbackMessage() string
	SendContactNotification(msg *entity.ContactMessage) error
	SendBriefConfirmation(lead *entity.Lead, pdf []byte) error
	SendBriefAlert(lead *entity.Lead, pdf []byte) error
	SendDiscussionRequest(lead *entity.Lead) error
	SendDiscussionAck(lead *entity.Lead) error
	SendCalculatorAlert(lead *entity.CalculatorLead) error
}

type EventPublisher interface {
	PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error
}

// BriefInput is the body shared by every brief endpoint.
type BriefInput struct {
	FormType  string                   `json:"formType"`
	Name      string                   `json:"name"`
	Email     string                   `json:"email"`
	Company   string                   `json:"company"`
	BriefData map[string]entity.Answer `json:"briefData"`
	BriefID   string                   `json:"briefId"`
	Format    string                   `json:"format"`
	Honeypot  string                   `json:"honeypot"`
}

type BriefOutput struct {
	Success     bool               `json:"success"`
	BriefID     string             `json:"briefId,omitempty"`
	Warning     string             `json:"warning,omitempty"`
	Temperature entity.Temperature `json:"-"`
	Outcomes    Outcomes           `json:"-"`
}

type BriefDocument struct {
	BriefID     string
	Filename    string
	ContentType string
	Content     []byte
}

type ContactInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Message  string `json:"message"`
	Honeypot string `json:"honeypot"`
}

type ContactOutput struct {
	Success  bool     `json:"success"`
	Warning  string   `json:"warning,omitempty"`
	Outcomes Outcomes `json:"-"`
}

type CalculatorLeadData struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	Phone       string `json:"phone"`
	Budget      string `json:"budget"`
	Urgency     string `json:"urgency"`
	Deadline    string `json:"deadline"`
	CompanySize string `json:"companySize"`
	Role        string `json:"role"`
	Action      string `json:"action"`
}

type CalculatorInput struct {
	EstimateData entity.Estimate    `json:"estimateData"`
	LeadData     CalculatorLeadData `json:"leadData"`
	Honeypot     string             `json:"honeypot"`
}

type CalculatorOutput struct {
	Success     bool               `json:"success"`
	LeadScore   int                `json:"leadScore"`
	Temperature entity.Temperature `json:"temperature"`
	Warning     string             `json:"warning,omitempty"`
	Outcomes    Outcomes           `json:"-"`
}
