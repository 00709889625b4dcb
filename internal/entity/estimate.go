package entity

import (
	"context"
	"time"
)

type EstimateLine struct {
	Service string  `json:"service"`
	Label   string  `json:"label,omitempty"`
	Price   float64 `json:"price"`
}

type Estimate struct {
	Lines    []EstimateLine `json:"lines"`
	Total    float64        `json:"total"`
	Currency string         `json:"currency,omitempty"`
}

// CalculatorLead is a lead produced by the pricing calculator.
type CalculatorLead struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Company     string      `json:"company,omitempty"`
	Phone       string      `json:"phone,omitempty"`
	Budget      string      `json:"budget,omitempty"`
	Urgency     string      `json:"urgency,omitempty"`
	Deadline    string      `json:"deadline,omitempty"`
	CompanySize string      `json:"company_size,omitempty"`
	Role        string      `json:"role,omitempty"`
	Action      Action      `json:"action"`
	Estimate    Estimate    `json:"estimate"`
	Score       int         `json:"score"`
	Temperature Temperature `json:"temperature"`
	CreatedAt   time.Time   `json:"created_at"`
}

type CalculatorRepositoryInterface interface {
	CreateCalculatorLead(ctx context.Context, lead *CalculatorLead) (string, error)
}
