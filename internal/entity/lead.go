package entity

import (
	"context"
	"fmt"
	"time"
)

type FormCategory string

const (
	FormSiteBuild     FormCategory = "site-build"
	FormGraphicDesign FormCategory = "graphic-design"
	FormPhotoVideo    FormCategory = "photo-video"
)

var formLabels = map[FormCategory]string{
	FormSiteBuild:     "Site Build",
	FormGraphicDesign: "Graphic Design",
	FormPhotoVideo:    "Photo & Video",
}

// ParseFormCategory accepts the canonical values plus the aliases the
// front-end forms have used over time ("website", "photo_video", ...).
func ParseFormCategory(s string) (FormCategory, error) {
	switch s {
	case "site-build", "site_build", "website", "web":
		return FormSiteBuild, nil
	case "graphic-design", "graphic_design", "design", "branding":
		return FormGraphicDesign, nil
	case "photo-video", "photo_video", "photo", "video":
		return FormPhotoVideo, nil
	}
	return "", fmt.Errorf("unknown form type %q", s)
}

func (c FormCategory) Label() string {
	if l, ok := formLabels[c]; ok {
		return l
	}
	return string(c)
}

type Action string

const (
	ActionSubmission          Action = "submission"
	ActionDocumentDownloaded  Action = "document_downloaded"
	ActionEmailRequested      Action = "email_requested"
	ActionDiscussionRequested Action = "discussion_requested"
)

// rank orders actions by commitment. Unknown actions rank as a submission.
func (a Action) rank() int {
	switch a {
	case ActionDocumentDownloaded:
		return 1
	case ActionEmailRequested:
		return 2
	case ActionDiscussionRequested:
		return 3
	}
	return 0
}

func (a Action) Valid() bool {
	switch a {
	case ActionSubmission, ActionDocumentDownloaded, ActionEmailRequested, ActionDiscussionRequested:
		return true
	}
	return false
}

// Escalate returns whichever of current and next carries more commitment.
// A record never moves back to a lower action.
func Escalate(current, next Action) Action {
	if next.rank() > current.rank() {
		return next
	}
	if !current.Valid() {
		return ActionSubmission
	}
	return current
}

type Temperature string

const (
	TemperatureCold Temperature = "cold"
	TemperatureWarm Temperature = "warm"
	TemperatureHot  Temperature = "hot"
)

type Lead struct {
	ID          string            `json:"id,omitempty"`
	Category    FormCategory      `json:"form_type"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Company     string            `json:"company,omitempty"`
	Answers     map[string]Answer `json:"answers,omitempty"`
	Action      Action            `json:"action"`
	Score       int               `json:"score"`
	Temperature Temperature       `json:"temperature"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// AnswerText returns the answer stored under the first key that has a
// non-empty value.
func (l *Lead) AnswerText(keys ...string) string {
	for _, k := range keys {
		if a, ok := l.Answers[k]; ok {
			if s := a.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// LeadPatch carries the fields mutated on an escalation.
type LeadPatch struct {
	Action      Action
	Score       int
	Temperature Temperature
}

type LeadRepositoryInterface interface {
	CreateLead(ctx context.Context, lead *Lead) (string, error)
	UpdateLead(ctx context.Context, id string, patch LeadPatch) error
	FindLead(ctx context.Context, id string) (*Lead, error)
}
