package entity

import (
	"context"
	"time"
)

type ContactMessage struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type ContactRepositoryInterface interface {
	CreateContact(ctx context.Context, msg *ContactMessage) (string, error)
}
