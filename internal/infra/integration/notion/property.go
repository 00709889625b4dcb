package notion

import (
	"strconv"
	"strings"
	"time"
)

// Kind is the internal name of a property shape. Only the shapes this
// service reads or writes are listed.
type Kind string

const (
	KindTitle       Kind = "title"
	KindRichText    Kind = "rich_text"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multi_select"
	KindEmail       Kind = "email"
	KindNumber      Kind = "number"
	KindCheckbox    Kind = "checkbox"
	KindFiles       Kind = "files"
	KindDate        Kind = "date"
	KindURL         Kind = "url"
)

// richTextLimit is the longest content accepted in one rich text chunk.
const richTextLimit = 2000

// Value is the internal form of one property. Kind decides which field is
// meaningful.
type Value struct {
	Kind     Kind
	Text     string
	Names    []string
	Number   float64
	Checkbox bool
	Files    []File
	Date     time.Time
}

type File struct {
	Name      string
	URL       string
	ExpiresAt time.Time
	Hosted    bool
}

func Title(s string) Value { return Value{Kind: KindTitle, Text: s} }
func RichText(s string) Value { return Value{Kind: KindRichText, Text: s} }
func Select(s string) Value { return Value{Kind: KindSelect, Text: s} }
func Email(s string) Value { return Value{Kind: KindEmail, Text: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Checkbox(b bool) Value { return Value{Kind: KindCheckbox, Checkbox: b} }
func Date(t time.Time) Value { return Value{Kind: KindDate, Date: t} }
func URL(s string) Value { return Value{Kind: KindURL, Text: s} }
func MultiSelect(names ...string) Value {
	return Value{Kind: KindMultiSelect, Names: names}
}

// ExternalFiles builds a files value pointing at permanent URLs.
func ExternalFiles(urls ...string) Value {
	v := Value{Kind: KindFiles, Files: make([]File, 0, len(urls))}
	for _, u := range urls {
		v.Files = append(v.Files, File{Name: fileName(u), URL: u})
	}
	return v
}

// String flattens any kind into display text.
func (v Value) String() string {
	switch v.Kind {
	case KindMultiSelect:
		return strings.Join(v.Names, ", ")
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindCheckbox:
		return strconv.FormatBool(v.Checkbox)
	case KindDate:
		if v.Date.IsZero() {
			return ""
		}
		return v.Date.Format(time.RFC3339)
	case KindFiles:
		urls := make([]string, 0, len(v.Files))
		for _, f := range v.Files {
			urls = append(urls, f.URL)
		}
		return strings.Join(urls, ", ")
	}
	return v.Text
}

type textContent struct {
	Content string `json:"content"`
}

type richTextItem struct {
	Type      string       `json:"type"`
	Text      *textContent `json:"text,omitempty"`
	PlainText string       `json:"plain_text,omitempty"`
}

type selectOption struct {
	Name string `json:"name"`
}

type fileURL struct {
	URL        string `json:"url"`
	ExpiryTime string `json:"expiry_time,omitempty"`
}

type fileItem struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	External *fileURL `json:"external,omitempty"`
	File     *fileURL `json:"file,omitempty"`
}

type dateValue struct {
	Start string `json:"start"`
}

// property is the wire shape. Exactly one payload field is set, matching
// Type.
type property struct {
	Type        string          `json:"type,omitempty"`
	Title       []richTextItem  `json:"title,omitempty"`
	RichText    []richTextItem  `json:"rich_text,omitempty"`
	Select      *selectOption   `json:"select,omitempty"`
	MultiSelect []selectOption  `json:"multi_select,omitempty"`
	Email       *string         `json:"email,omitempty"`
	Number      *float64        `json:"number,omitempty"`
	Checkbox    *bool           `json:"checkbox,omitempty"`
	Files       []fileItem      `json:"files,omitempty"`
	Date        *dateValue      `json:"date,omitempty"`
	URL         *string         `json:"url,omitempty"`
	CreatedTime string          `json:"created_time,omitempty"`
	Formula     *formulaPayload `json:"formula,omitempty"`
}

type formulaPayload struct {
	Type   string   `json:"type"`
	String *string  `json:"string,omitempty"`
	Number *float64 `json:"number,omitempty"`
}

func chunks(s string) []richTextItem {
	r := []rune(s)
	if len(r) == 0 {
		return []richTextItem{}
	}
	out := make([]richTextItem, 0, len(r)/richTextLimit+1)
	for len(r) > 0 {
		n := min(len(r), richTextLimit)
		out = append(out, richTextItem{Type: "text", Text: &textContent{Content: string(r[:n])}})
		r = r[n:]
	}
	return out
}

func plain(items []richTextItem) string {
	var b strings.Builder
	for _, it := range items {
		if it.PlainText != "" {
			b.WriteString(it.PlainText)
		} else if it.Text != nil {
			b.WriteString(it.Text.Content)
		}
	}
	return b.String()
}

// encode converts an internal value into the wire shape.
func encode(v Value) property {
	switch v.Kind {
	case KindTitle:
		return property{Title: chunks(v.Text)}
	case KindRichText:
		return property{RichText: chunks(v.Text)}
	case KindSelect:
		if v.Text == "" {
			return property{}
		}
		return property{Select: &selectOption{Name: v.Text}}
	case KindMultiSelect:
		opts := make([]selectOption, 0, len(v.Names))
		for _, n := range v.Names {
			opts = append(opts, selectOption{Name: strings.ReplaceAll(n, ",", " ")})
		}
		return property{MultiSelect: opts}
	case KindEmail:
		e := v.Text
		return property{Email: &e}
	case KindNumber:
		n := v.Number
		return property{Number: &n}
	case KindCheckbox:
		b := v.Checkbox
		return property{Checkbox: &b}
	case KindFiles:
		items := make([]fileItem, 0, len(v.Files))
		for _, f := range v.Files {
			items = append(items, fileItem{Name: f.Name, Type: "external", External: &fileURL{URL: f.URL}})
		}
		return property{Files: items}
	case KindDate:
		return property{Date: &dateValue{Start: v.Date.UTC().Format(time.RFC3339)}}
	case KindURL:
		u := v.Text
		return property{URL: &u}
	}
	return property{}
}

// decode converts a wire property into an internal value. Unknown shapes
// decode to an empty rich text value.
func decode(p property) Value {
	switch Kind(p.Type) {
	case KindTitle:
		return Title(plain(p.Title))
	case KindRichText:
		return RichText(plain(p.RichText))
	case KindSelect:
		if p.Select == nil {
			return Select("")
		}
		return Select(p.Select.Name)
	case KindMultiSelect:
		names := make([]string, 0, len(p.MultiSelect))
		for _, o := range p.MultiSelect {
			names = append(names, o.Name)
		}
		return MultiSelect(names...)
	case KindEmail:
		if p.Email == nil {
			return Email("")
		}
		return Email(*p.Email)
	case KindNumber:
		if p.Number == nil {
			return Value{Kind: KindNumber}
		}
		return Number(*p.Number)
	case KindCheckbox:
		return Checkbox(p.Checkbox != nil && *p.Checkbox)
	case KindURL:
		if p.URL == nil {
			return URL("")
		}
		return URL(*p.URL)
	case KindDate:
		v := Value{Kind: KindDate}
		if p.Date != nil {
			v.Date = parseTime(p.Date.Start)
		}
		return v
	case KindFiles:
		v := Value{Kind: KindFiles}
		for _, f := range p.Files {
			switch {
			case f.File != nil:
				v.Files = append(v.Files, File{Name: f.Name, URL: f.File.URL, ExpiresAt: parseTime(f.File.ExpiryTime), Hosted: true})
			case f.External != nil:
				v.Files = append(v.Files, File{Name: f.Name, URL: f.External.URL})
			}
		}
		return v
	case "created_time":
		return Date(parseTime(p.CreatedTime))
	case "formula":
		if p.Formula != nil && p.Formula.String != nil {
			return RichText(*p.Formula.String)
		}
		if p.Formula != nil && p.Formula.Number != nil {
			return Number(*p.Formula.Number)
		}
	}
	return RichText("")
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func fileName(u string) string {
	u, _, _ = strings.Cut(u, "?")
	if i := strings.LastIndex(u, "/"); i >= 0 && i < len(u)-1 {
		return u[i+1:]
	}
	return u
}
