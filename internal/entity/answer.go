package entity

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Answer is one brief answer. Exactly one of the value fields is meaningful,
// depending on what the form control produced.
type Answer struct {
	Text  string
	Bool  *bool
	Items []string
}

func TextAnswer(s string) Answer { return Answer{Text: s} }

func BoolAnswer(b bool) Answer { return Answer{Bool: &b} }

func ListAnswer(items ...string) Answer {
	if items == nil {
		items = []string{}
	}
	return Answer{Items: items}
}

func (a Answer) String() string {
	switch {
	case a.Bool != nil:
		if *a.Bool {
			return "Yes"
		}
		return "No"
	case a.Items != nil:
		return strings.Join(a.Items, ", ")
	}
	return a.Text
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch {
	case a.Bool != nil:
		return json.Marshal(*a.Bool)
	case a.Items != nil:
		return json.Marshal(a.Items)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts strings, booleans, numbers and lists of strings.
// Anything else is kept as its raw JSON text.
func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*a = Answer{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	switch data[0] {
	case '"':
		return json.Unmarshal(data, &a.Text)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		a.Bool = &b
		return nil
	case '[':
		var raw []interface{}
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		a.Items = make([]string, 0, len(raw))
		for _, v := range raw {
			switch t := v.(type) {
			case string:
				a.Items = append(a.Items, t)
			case float64:
				a.Items = append(a.Items, strconv.FormatFloat(t, 'f', -1, 64))
			case bool:
				a.Items = append(a.Items, strconv.FormatBool(t))
			}
		}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		a.Text = n.String()
		return nil
	}
	a.Text = string(data)
	return nil
}
