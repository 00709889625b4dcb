package usecase

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// FieldResult is the outcome of validating one free-form field. Errors holds
// short machine codes; Sanitized is only meaningful when Valid is true.
type FieldResult struct {
	Valid     bool     `json:"valid"`
	Sanitized string   `json:"sanitized"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *FieldResult) fail(code string) {
	r.Valid = false
	r.Errors = append(r.Errors, code)
}

const (
	maxEmailLength   = 254
	maxNameLength    = 100
	minMessageLength = 10
	maxMessageLength = 5000
	maxMessageURLs   = 3
	maxRepeatedRun   = 10
	maxNameForeign   = 0.3
)

var (
	emailPattern     = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)
	injectionPattern = regexp.MustCompile(`(?i)<\s*script|</\s*script|javascript:|vbscript:|data:text/html|\bon[a-z]+\s*=|<\s*iframe|<\s*object|<\s*embed|eval\s*\(|expression\s*\(`)
	urlPattern       = regexp.MustCompile(`(?i)\bhttps?://|\bwww\.`)
	lineBreaks       = strings.NewReplacer("\r\n", "<br>", "\r", "<br>", "\n", "<br>")
)

func ValidateEmail(raw string) FieldResult {
	email := strings.ToLower(strings.TrimSpace(raw))
	res := FieldResult{Valid: true, Sanitized: email}

	if email == "" {
		res.fail("email_required")
		return res
	}
	if len(email) > maxEmailLength {
		res.fail("email_too_long")
		return res
	}
	if !emailPattern.MatchString(email) {
		res.fail("email_invalid")
		return res
	}

	local, domain, _ := strings.Cut(email, "@")
	if strings.Contains(email, "..") ||
		strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasPrefix(domain, "-") {
		res.fail("email_invalid")
	}
	return res
}

func ValidateName(raw string) FieldResult {
	name := strings.TrimSpace(raw)
	res := FieldResult{Valid: true}

	length := utf8.RuneCountInString(name)
	if length == 0 {
		res.fail("name_required")
		return res
	}
	if length > maxNameLength {
		res.fail("name_too_long")
		return res
	}
	if injectionPattern.MatchString(name) {
		res.fail("name_forbidden_content")
		return res
	}
	// Names end up in mail headers.
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		res.fail("name_invalid_characters")
		return res
	}

	foreign := 0
	for _, r := range name {
		if !nameRuneAllowed(r) {
			foreign++
		}
	}
	if float64(foreign)/float64(length) > maxNameForeign {
		res.fail("name_invalid_characters")
		return res
	}

	res.Sanitized = html.EscapeString(name)
	return res
}

func nameRuneAllowed(r rune) bool {
	if r == ' ' || unicode.IsLetter(r) || unicode.Is(unicode.Mn, r) {
		return true
	}
	switch r {
	case '-', '\'', '.', '’':
		return true
	}
	return false
}

func ValidateMessage(raw string) FieldResult {
	msg := strings.TrimSpace(raw)
	res := FieldResult{Valid: true}

	length := utf8.RuneCountInString(msg)
	if length < minMessageLength {
		res.fail("message_too_short")
		return res
	}
	if length > maxMessageLength {
		res.fail("message_too_long")
		return res
	}
	if injectionPattern.MatchString(msg) {
		res.fail("message_forbidden_content")
	}
	if len(urlPattern.FindAllStringIndex(msg, -1)) > maxMessageURLs {
		res.fail("message_too_many_links")
	}
	if longestRun(msg) >= maxRepeatedRun {
		res.fail("message_repeated_characters")
	}
	if !res.Valid {
		return res
	}

	res.Sanitized = lineBreaks.Replace(html.EscapeString(msg))
	return res
}

// longestRun returns the length of the longest run of one repeated rune.
func longestRun(s string) int {
	best, run := 0, 0
	var prev rune = -1
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// ContactFields is the sanitized output of ValidateContact.
type ContactFields struct {
	Name    string
	Email   string
	Message string
}

// ValidateContact checks every field and aggregates the failures. Callers
// reject the request when the returned slice is non-empty.
func ValidateContact(name, email, message string) (ContactFields, []ValidationError) {
	var out ContactFields
	var errs []ValidationError

	n := ValidateName(name)
	errs = collect(errs, "name", n)
	out.Name = n.Sanitized

	e := ValidateEmail(email)
	errs = collect(errs, "email", e)
	out.Email = e.Sanitized

	m := ValidateMessage(message)
	errs = collect(errs, "message", m)
	out.Message = m.Sanitized
	return out, errs
}

// ValidateLeadIdentity validates the name/email pair shared by briefs and
// calculator leads.
func ValidateLeadIdentity(name, email string) (string, string, []ValidationError) {
	var errs []ValidationError
	n := ValidateName(name)
	errs = collect(errs, "name", n)
	e := ValidateEmail(email)
	errs = collect(errs, "email", e)
	return n.Sanitized, e.Sanitized, errs
}

func collect(errs []ValidationError, field string, res FieldResult) []ValidationError {
	for _, code := range res.Errors {
		errs = append(errs, ValidationError{Field: field, Message: code})
	}
	return errs
}

// ValidationDetails flattens errors into the strings returned to clients.
func ValidationDetails(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}
