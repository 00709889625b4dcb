package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscalate(t *testing.T) {
	tests := []struct {
		current, next, want Action
	}{
		{ActionSubmission, ActionDocumentDownloaded, ActionDocumentDownloaded},
		{ActionEmailRequested, ActionDocumentDownloaded, ActionEmailRequested},
		{ActionDiscussionRequested, ActionEmailRequested, ActionDiscussionRequested},
		{ActionEmailRequested, ActionDiscussionRequested, ActionDiscussionRequested},
		{ActionDocumentDownloaded, ActionSubmission, ActionDocumentDownloaded},
		{Action("garbage"), ActionSubmission, ActionSubmission},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Escalate(tt.current, tt.next), "%s -> %s", tt.current, tt.next)
	}
}

func TestParseFormCategory(t *testing.T) {
	c, err := ParseFormCategory("photo_video")
	require.NoError(t, err)
	assert.Equal(t, FormPhotoVideo, c)
	assert.Equal(t, "Photo & Video", c.Label())

	_, err = ParseFormCategory("podcast")
	assert.Error(t, err)
}

func TestAnswer_UnmarshalJSON(t *testing.T) {
	var answers map[string]Answer
	raw := `{"budget":"$10k","ecommerce":true,"pages":["Home","About",3],"count":12,"none":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &answers))

	assert.Equal(t, "$10k", answers["budget"].String())
	assert.Equal(t, "Yes", answers["ecommerce"].String())
	assert.Equal(t, "Home, About, 3", answers["pages"].String())
	assert.Equal(t, "12", answers["count"].String())
	assert.Equal(t, "", answers["none"].String())

	out, err := json.Marshal(answers["pages"])
	require.NoError(t, err)
	assert.JSONEq(t, `["Home","About","3"]`, string(out))
}

func TestLead_AnswerText(t *testing.T) {
	l := &Lead{Answers: map[string]Answer{
		"budgetRange": TextAnswer("$5k"),
		"budget":      TextAnswer(""),
	}}
	assert.Equal(t, "$5k", l.AnswerText("budget", "budgetRange"))
	assert.Equal(t, "", l.AnswerText("missing"))
}
