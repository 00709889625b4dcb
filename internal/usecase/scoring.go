package usecase

import (
	"strings"

	"github.com/xavierca1/studio-funnel/internal/entity"
)

// ScoreInput holds the free-text answers the scorer looks at. Urgency wins
// over the legacy Deadline field when both are present.
type ScoreInput struct {
	Budget      string
	Urgency     string
	Deadline    string
	CompanySize string
	Role        string
}

type LeadScore struct {
	Budget        int                `json:"budget"`
	Urgency       int                `json:"urgency"`
	CompanySize   int                `json:"company_size"`
	DecisionLevel int                `json:"decision_level"`
	Action        int                `json:"action"`
	Total         int                `json:"total"`
	Temperature   entity.Temperature `json:"temperature"`
}

// keywordTier maps a set of substrings to a points value. Tables are checked
// highest tier first and the first hit wins.
type keywordTier struct {
	points   int
	keywords []string
}

var (
	budgetTiers = []keywordTier{
		{4, []string{"30", "50", "100"}},
		{3, []string{"15", "20", "25"}},
		{2, []string{"5", "10"}},
	}
	urgencyTiers = []keywordTier{
		{3, []string{"asap"}},
		{2, []string{"1-3 months"}},
		{1, []string{"3-6 months"}},
	}
	companySizeTiers = []keywordTier{
		{3, []string{"201", "500", "1000", "enterprise"}},
		{2, []string{"51", "200", "medium"}},
		{1, []string{"11", "50", "small"}},
	}
	decisionTiers = []keywordTier{
		{2, []string{"owner", "founder", "ceo", "director", "head", "c-level", "president"}},
		{1, []string{"manager", "lead", "coordinator"}},
	}
)

const (
	budgetFloor   = 1
	hotThreshold  = 12
	warmThreshold = 7
)

func matchTier(value string, tiers []keywordTier, fallback int) int {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return fallback
	}
	for _, t := range tiers {
		for _, kw := range t.keywords {
			if strings.Contains(v, kw) {
				return t.points
			}
		}
	}
	return fallback
}

func actionPoints(a entity.Action) int {
	switch a {
	case entity.ActionDiscussionRequested:
		return 3
	case entity.ActionEmailRequested:
		return 2
	}
	return 1
}

// Score is deterministic: same input, same output, no I/O.
func Score(in ScoreInput, category entity.FormCategory, action entity.Action) LeadScore {
	urgency := in.Urgency
	if strings.TrimSpace(urgency) == "" {
		urgency = in.Deadline
	}

	s := LeadScore{
		Budget:        matchTier(in.Budget, budgetTiers, budgetFloor),
		Urgency:       matchTier(urgency, urgencyTiers, 0),
		CompanySize:   matchTier(in.CompanySize, companySizeTiers, 0),
		DecisionLevel: matchTier(in.Role, decisionTiers, 0),
		Action:        actionPoints(action),
	}
	s.Total = s.Budget + s.Urgency + s.CompanySize + s.DecisionLevel + s.Action
	s.Temperature = TemperatureFor(s.Total)
	return s
}

func TemperatureFor(total int) entity.Temperature {
	switch {
	case total >= hotThreshold:
		return entity.TemperatureHot
	case total >= warmThreshold:
		return entity.TemperatureWarm
	}
	return entity.TemperatureCold
}

// BriefScoreInput pulls the scored answers out of a brief. Forms have used
// several keys for the same question, so each lookup tries them in order.
func BriefScoreInput(l *entity.Lead) ScoreInput {
	return ScoreInput{
		Budget:      l.AnswerText("budget", "budgetRange", "budget_range"),
		Urgency:     l.AnswerText("urgency", "timeline"),
		Deadline:    l.AnswerText("deadline", "launchDate"),
		CompanySize: l.AnswerText("companySize", "company_size", "teamSize"),
		Role:        l.AnswerText("role", "decisionMaker", "position"),
	}
}

func ScoreLead(l *entity.Lead) LeadScore {
	return Score(BriefScoreInput(l), l.Category, l.Action)
}
