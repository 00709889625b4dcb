package document

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"github.com/xavierca1/studio-funnel/internal/entity"
)

//go:embed templates/brief.html
var templateFS embed.FS

var briefTemplate = template.Must(template.ParseFS(templateFS, "templates/brief.html"))

// overviewKeys are shown under "Project overview"; every other answer goes
// under "Requirements".
var overviewKeys = map[string]bool{
	"budget": true, "budgetRange": true, "budget_range": true,
	"urgency": true, "timeline": true, "deadline": true, "launchDate": true,
	"companySize": true, "company_size": true, "teamSize": true,
	"role": true, "decisionMaker": true, "position": true,
	"goals": true, "projectType": true, "description": true,
}

type Row struct {
	Label string
	Value string
}

type briefView struct {
	BriefID      string
	Category     string
	Name         string
	Email        string
	Company      string
	Date         string
	Overview     []Row
	Requirements []Row
	Studio       string
	Contact      string
}

type Renderer struct {
	Studio  string
	Contact string
	Now     func() time.Time
}

func NewRenderer(studio, contact string) *Renderer {
	return &Renderer{Studio: studio, Contact: contact, Now: time.Now}
}

func (r *Renderer) view(lead *entity.Lead) briefView {
	v := briefView{
		BriefID:  lead.ID,
		Category: lead.Category.Label(),
		Name:     html.UnescapeString(lead.Name),
		Email:    lead.Email,
		Company:  html.UnescapeString(lead.Company),
		Date:     r.Now().Format("January 2, 2006"),
		Studio:   r.Studio,
		Contact:  r.Contact,
	}

	keys := make([]string, 0, len(lead.Answers))
	for k := range lead.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := lead.Answers[k].String()
		if val == "" {
			continue
		}
		row := Row{Label: humanize(k), Value: val}
		if overviewKeys[k] {
			v.Overview = append(v.Overview, row)
		} else {
			v.Requirements = append(v.Requirements, row)
		}
	}
	return v
}

func (r *Renderer) HTML(lead *entity.Lead) ([]byte, error) {
	var buf bytes.Buffer
	if err := briefTemplate.Execute(&buf, r.view(lead)); err != nil {
		return nil, fmt.Errorf("render brief html: %w", err)
	}
	return buf.Bytes(), nil
}

// PDF lays the brief out on A4 pages: a dark header band, the client block,
// the overview and requirements sections, and a footer band on every page.
func (r *Renderer) PDF(lead *entity.Lead) ([]byte, error) {
	v := r.view(lead)

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(v.Category+" brief", true)
	pdf.SetCreator(v.Studio, true)
	pdf.SetCreationDate(r.Now())
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFillColor(242, 242, 242)
		pdf.Rect(0, 279, 210, 18, "F")
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(140, 8, tr(footerText(v)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFillColor(17, 17, 17)
	pdf.Rect(0, 0, 210, 38, "F")
	pdf.SetXY(20, 12)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 9, tr(v.Category+" brief"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(187, 187, 187)
	sub := "Prepared " + v.Date
	if v.BriefID != "" {
		sub += "  |  ref " + v.BriefID
	}
	pdf.CellFormat(0, 6, tr(sub), "", 1, "L", false, 0, "")
	pdf.SetY(48)

	section := func(title string, rows []Row) {
		if len(rows) == 0 {
			return
		}
		pdf.Ln(4)
		pdf.SetTextColor(26, 26, 26)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(0, 7, tr(strings.ToUpper(title)), "", 1, "L", false, 0, "")
		pdf.SetDrawColor(221, 221, 221)
		pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
		pdf.Ln(2)
		for _, row := range rows {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(55, 6, tr(row.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 6, tr(row.Value), "", "L", false)
		}
	}

	client := []Row{{"Name", v.Name}, {"Email", v.Email}}
	if v.Company != "" {
		client = append(client, Row{"Company", v.Company})
	}
	section("Client", client)
	section("Project overview", v.Overview)
	section("Requirements", v.Requirements)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render brief pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func footerText(v briefView) string {
	if v.Contact == "" {
		return v.Studio
	}
	return v.Studio + "  |  " + v.Contact
}

// humanize turns answer keys like "projectType" or "launch_date" into
// "Project type" and "Launch date".
func humanize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
