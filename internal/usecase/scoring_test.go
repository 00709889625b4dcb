package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		input  ScoreInput
		action entity.Action
		want   LeadScore
	}{
		{
			name:   "empty answers keep the budget floor",
			input:  ScoreInput{},
			action: entity.ActionSubmission,
			want:   LeadScore{Budget: 1, Action: 1, Total: 2, Temperature: entity.TemperatureCold},
		},
		{
			name: "top answers",
			input: ScoreInput{
				Budget:      "$100k+",
				Urgency:     "ASAP",
				CompanySize: "1000+ (Enterprise)",
				Role:        "CEO",
			},
			action: entity.ActionDiscussionRequested,
			want: LeadScore{
				Budget: 4, Urgency: 3, CompanySize: 3, DecisionLevel: 2, Action: 3,
				Total: 15, Temperature: entity.TemperatureHot,
			},
		},
		{
			name:   "deadline stands in for missing urgency",
			input:  ScoreInput{Budget: "$5k - $10k", Deadline: "3-6 months", Role: "Team lead"},
			action: entity.ActionEmailRequested,
			want: LeadScore{
				Budget: 2, Urgency: 1, DecisionLevel: 1, Action: 2,
				Total: 6, Temperature: entity.TemperatureCold,
			},
		},
		{
			name:   "urgency wins over deadline",
			input:  ScoreInput{Urgency: "asap", Deadline: "3-6 months"},
			action: entity.ActionDocumentDownloaded,
			want:   LeadScore{Budget: 1, Urgency: 3, Action: 1, Total: 5, Temperature: entity.TemperatureCold},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.input, entity.FormSiteBuild, tt.action))
		})
	}
}

func TestTemperatureFor_Thresholds(t *testing.T) {
	assert.Equal(t, entity.TemperatureCold, TemperatureFor(6))
	assert.Equal(t, entity.TemperatureWarm, TemperatureFor(7))
	assert.Equal(t, entity.TemperatureWarm, TemperatureFor(11))
	assert.Equal(t, entity.TemperatureHot, TemperatureFor(12))
}

func TestScoreLead_ReadsAliasedKeys(t *testing.T) {
	l := &entity.Lead{
		Action: entity.ActionSubmission,
		Answers: map[string]entity.Answer{
			"budgetRange":   entity.TextAnswer("$20k - $30k"),
			"timeline":      entity.TextAnswer("1-3 months"),
			"teamSize":      entity.TextAnswer("201-500"),
			"decisionMaker": entity.TextAnswer("Director"),
		},
	}
	s := ScoreLead(l)
	assert.Equal(t, 4, s.Budget)
	assert.Equal(t, 2, s.Urgency)
	assert.Equal(t, 3, s.CompanySize)
	assert.Equal(t, 2, s.DecisionLevel)
	assert.Equal(t, 12, s.Total)
}

func TestScore_HighBudgetDiscussionIsNeverCold(t *testing.T) {
	s := Score(ScoreInput{Budget: "over $30k"}, entity.FormSiteBuild, entity.ActionDiscussionRequested)
	assert.Equal(t, 4, s.Budget)
	assert.Equal(t, 3, s.Action)
	assert.GreaterOrEqual(t, s.Total, 7)
	assert.NotEqual(t, entity.TemperatureCold, s.Temperature)
}

func TestScore_SubstringMatchIsKept(t *testing.T) {
	// "$130" contains "30" and lands in the top budget tier.
	assert.Equal(t, 4, Score(ScoreInput{Budget: "$130"}, entity.FormSiteBuild, entity.ActionSubmission).Budget)
}
