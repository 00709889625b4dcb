package notion

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/xavierca1/studio-funnel/internal/entity"
)

// Column names used when writing. Reads accept the aliases listed in the
// lookups below.
const (
	colName        = "Name"
	colEmail       = "Email"
	colCompany     = "Company"
	colFormType    = "Form Type"
	colAction      = "Action"
	colScore       = "Score"
	colTemperature = "Temperature"
	colBrief       = "Brief"
	colSubmittedAt = "Submitted At"
	colMessage     = "Message"
	colPhone       = "Phone"
	colBudget      = "Budget"
	colUrgency     = "Urgency"
	colCompanySize = "Company Size"
	colRole        = "Role"
	colEstimate    = "Estimate"
	colTotal       = "Total"
)

var (
	titleCols       = []string{"Name", "Title", "Project"}
	slugCols        = []string{"Slug"}
	descriptionCols = []string{"Description", "Body"}
	shortCols       = []string{"Short Description", "Excerpt", "Summary"}
	yearCols        = []string{"Year"}
	toolCols        = []string{"Tools", "Stack", "Tags"}
	heroCols        = []string{"Hero", "Hero Image", "Cover"}
	galleryCols     = []string{"Gallery", "Images"}
	publishedCols   = []string{"Published", "Public"}
	featuredCols    = []string{"Featured"}
)

// properties is the internal view of a page's property bag.
type properties map[string]Value

func (p properties) set(name string, v Value) {
	switch v.Kind {
	case KindRichText, KindTitle, KindSelect, KindEmail:
		if strings.TrimSpace(v.Text) == "" {
			return
		}
	}
	p[name] = v
}

// first returns the value under the first name that exists on the page.
func (p properties) first(names ...string) (Value, bool) {
	for _, n := range names {
		if v, ok := p[n]; ok {
			return v, true
		}
	}
	return Value{}, false
}

func (p properties) text(names ...string) string {
	v, _ := p.first(names...)
	return strings.TrimSpace(v.String())
}

// title falls back to whichever property has the title kind, since every
// collection has exactly one.
func (p properties) title() string {
	if v, ok := p.first(titleCols...); ok && v.Kind == KindTitle {
		return strings.TrimSpace(v.Text)
	}
	for _, v := range p {
		if v.Kind == KindTitle {
			return strings.TrimSpace(v.Text)
		}
	}
	return ""
}

func (p properties) files(names ...string) []File {
	v, ok := p.first(names...)
	if !ok || v.Kind != KindFiles {
		return nil
	}
	return v.Files
}

func (p properties) flag(fallback bool, names ...string) bool {
	v, ok := p.first(names...)
	if !ok {
		return fallback
	}
	switch v.Kind {
	case KindCheckbox:
		return v.Checkbox
	case KindSelect:
		s := strings.ToLower(v.Text)
		return s == "published" || s == "yes" || s == "live"
	}
	return fallback
}

func toWire(p properties) map[string]property {
	out := make(map[string]property, len(p))
	for name, v := range p {
		out[name] = encode(v)
	}
	return out
}

func fromWire(in map[string]property) properties {
	out := make(properties, len(in))
	for name, raw := range in {
		out[name] = decode(raw)
	}
	return out
}

func leadProperties(l *entity.Lead) properties {
	p := properties{}
	p.set(colName, Title(l.Name))
	p.set(colEmail, Email(l.Email))
	p.set(colCompany, RichText(l.Company))
	p.set(colFormType, Select(l.Category.Label()))
	p.set(colAction, Select(string(l.Action)))
	p.set(colScore, Number(float64(l.Score)))
	p.set(colTemperature, Select(string(l.Temperature)))
	p.set(colBrief, RichText(flattenAnswers(l.Answers)))
	p.set(colSubmittedAt, Date(l.CreatedAt))
	return p
}

func patchProperties(patch entity.LeadPatch) properties {
	p := properties{}
	p.set(colAction, Select(string(patch.Action)))
	p.set(colScore, Number(float64(patch.Score)))
	p.set(colTemperature, Select(string(patch.Temperature)))
	return p
}

// flattenAnswers writes one "key: value" line per answer, sorted by key so
// the same brief always produces the same text.
func flattenAnswers(answers map[string]entity.Answer) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		v := answers[k].String()
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return strings.TrimSpace(b.String())
}

func pageToLead(pg *page) *entity.Lead {
	p := fromWire(pg.Properties)
	lead := &entity.Lead{
		ID:          pg.ID,
		Name:        p.title(),
		Email:       p.text(colEmail),
		Company:     p.text(colCompany),
		Action:      entity.Action(p.text(colAction)),
		Temperature: entity.Temperature(p.text(colTemperature)),
		CreatedAt:   parseTime(pg.CreatedTime),
	}
	if v, ok := p.first(colScore); ok && v.Kind == KindNumber {
		lead.Score = int(v.Number)
	}
	if c, err := entity.ParseFormCategory(categoryFromLabel(p.text(colFormType))); err == nil {
		lead.Category = c
	}
	if !lead.Action.Valid() {
		lead.Action = entity.ActionSubmission
	}
	return lead
}

func categoryFromLabel(label string) string {
	for _, c := range []entity.FormCategory{entity.FormSiteBuild, entity.FormGraphicDesign, entity.FormPhotoVideo} {
		if strings.EqualFold(c.Label(), label) {
			return string(c)
		}
	}
	return strings.ToLower(label)
}

func contactProperties(m *entity.ContactMessage) properties {
	p := properties{}
	p.set(colName, Title(m.Name))
	p.set(colEmail, Email(m.Email))
	p.set(colMessage, RichText(m.Message))
	p.set(colSubmittedAt, Date(m.CreatedAt))
	return p
}

func calculatorProperties(l *entity.CalculatorLead) properties {
	p := properties{}
	p.set(colName, Title(l.Name))
	p.set(colEmail, Email(l.Email))
	p.set(colCompany, RichText(l.Company))
	p.set(colPhone, RichText(l.Phone))
	p.set(colBudget, RichText(l.Budget))
	p.set(colUrgency, RichText(firstNonEmpty(l.Urgency, l.Deadline)))
	p.set(colCompanySize, RichText(l.CompanySize))
	p.set(colRole, RichText(l.Role))
	p.set(colAction, Select(string(l.Action)))
	p.set(colScore, Number(float64(l.Score)))
	p.set(colTemperature, Select(string(l.Temperature)))
	p.set(colEstimate, RichText(estimateText(l.Estimate)))
	p.set(colTotal, Number(l.Estimate.Total))
	p.set(colSubmittedAt, Date(l.CreatedAt))
	return p
}

func estimateText(e entity.Estimate) string {
	var b strings.Builder
	for _, line := range e.Lines {
		label := firstNonEmpty(line.Label, line.Service)
		fmt.Fprintf(&b, "%s: %s\n", label, strconv.FormatFloat(line.Price, 'f', 2, 64))
	}
	return strings.TrimSpace(b.String())
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// pageToProject maps a portfolio page. The slug comes from the Slug column
// when it is set and from the title otherwise.
func pageToProject(pg *page) entity.Project {
	p := fromWire(pg.Properties)
	created := parseTime(pg.CreatedTime)
	title := p.title()

	slug := entity.SlugWithFallback(p.text(slugCols...), created)
	if p.text(slugCols...) == "" {
		slug = entity.SlugWithFallback(title, created)
	}

	proj := entity.Project{
		ExternalID:       pg.ID,
		Slug:             slug,
		Title:            title,
		Description:      p.text(descriptionCols...),
		ShortDescription: p.text(shortCols...),
		Tools:            []string{},
		Gallery:          []string{},
		Published:        p.flag(true, publishedCols...) && !pg.Archived,
		Featured:         p.flag(false, featuredCols...),
		CreatedAt:        created,
		Colors: entity.Palette{
			Primary:    p.text("Primary Color"),
			Secondary:  p.text("Secondary Color"),
			Accent:     p.text("Accent Color"),
			Background: p.text("Background Color"),
		},
	}

	if v, ok := p.first(yearCols...); ok {
		if v.Kind == KindNumber {
			proj.Year = int(v.Number)
		} else if y, err := strconv.Atoi(strings.TrimSpace(v.String())); err == nil {
			proj.Year = y
		}
	}
	if v, ok := p.first(toolCols...); ok {
		if v.Kind == KindMultiSelect {
			proj.Tools = append(proj.Tools, v.Names...)
		} else {
			proj.Tools = append(proj.Tools, splitList(v.String())...)
		}
	}

	if hero := p.files(heroCols...); len(hero) > 0 {
		proj.Hero = hero[0].URL
	} else if pg.Cover != nil {
		switch {
		case pg.Cover.File != nil:
			proj.Hero = pg.Cover.File.URL
		case pg.Cover.External != nil:
			proj.Hero = pg.Cover.External.URL
		}
	}
	for _, f := range p.files(galleryCols...) {
		proj.Gallery = append(proj.Gallery, f.URL)
	}
	return proj
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// mediaColumns returns the names of the hero and gallery columns the page
// actually has, so a rewrite targets existing properties only.
func mediaColumns(pg *page) (hero, gallery string) {
	for _, n := range heroCols {
		if raw, ok := pg.Properties[n]; ok && Kind(raw.Type) == KindFiles {
			hero = n
			break
		}
	}
	for _, n := range galleryCols {
		if raw, ok := pg.Properties[n]; ok && Kind(raw.Type) == KindFiles {
			gallery = n
			break
		}
	}
	return hero, gallery
}

// ObjectPath is the part of a signed media URL that stays the same when the
// store issues a fresh signature.
func ObjectPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host + u.Path
}
