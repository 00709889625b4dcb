package mail

import "html/template"

// Fields typed template.HTML were escaped by the validator already.

type ContactEmailData struct {
	Name    template.HTML
	Email   string
	Message template.HTML
	SentAt  string
}

type AnswerLine struct {
	Question string
	Answer   string
}

type BriefEmailData struct {
	BriefID     string
	Category    string
	Name        template.HTML
	Email       string
	Company     template.HTML
	Action      string
	Score       int
	Temperature string
	Answers     []AnswerLine
	Operator    string
	CallRequest bool
}

type EstimateEmailLine struct {
	Label template.HTML
	Price string
}

type CalculatorEmailData struct {
	Name        template.HTML
	Email       string
	Company     template.HTML
	Phone       template.HTML
	Budget      template.HTML
	Urgency     template.HTML
	CompanySize template.HTML
	Role        template.HTML
	Action      string
	Score       int
	Temperature string
	Lines       []EstimateEmailLine
	Total       string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Operator string
	dialer   Dialer
}
