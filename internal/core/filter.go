package core

import (
	"encoding/json"
	"net/url"
	"strings"
)

// FilterCriteria selects the visible subset of expenses. The zero value
// matches everything.
type FilterCriteria struct {
	Text       string   `json:"text"`
	Categories []string `json:"categories"`
	Start      *Date    `json:"start,omitempty"`
	End        *Date    `json:"end,omitempty"`
}

// IsEmpty reports whether the criteria restrict nothing.
func (c FilterCriteria) IsEmpty() bool {
	return c.Text == "" && len(c.Categories) == 0 && c.Start == nil && c.End == nil
}

// Key returns a stable, unambiguous string form of the criteria, suitable
// as a cache key. Text is compared case-insensitively, so it is folded.
func (c FilterCriteria) Key() string {
	norm := c
	norm.Text = strings.ToLower(c.Text)
	// Strings and dates always encode.
	b, _ := json.Marshal(norm)
	return string(b)
}

// Matches reports whether e satisfies every restriction in c.
func (c FilterCriteria) Matches(e Expense) bool {
	if c.Text != "" && !strings.Contains(strings.ToLower(e.Description), strings.ToLower(c.Text)) {
		return false
	}
	if len(c.Categories) > 0 && !containsString(c.Categories, e.Category) {
		return false
	}
	// Dates carry no time of day, so an inclusive end date covers the whole day.
	if c.Start != nil && e.Date.Before(*c.Start) {
		return false
	}
	if c.End != nil && e.Date.After(*c.End) {
		return false
	}
	return true
}

// Filter returns the expenses matching c, preserving input order.
func Filter(expenses []Expense, c FilterCriteria) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if c.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// ParseFilterCriteria reads criteria from query parameters:
// q (raw text), category (repeatable or comma separated), from and to (YYYY-MM-DD).
// Unparseable dates are ignored rather than rejected.
func ParseFilterCriteria(query url.Values) FilterCriteria {
	// The text is matched as typed; only an all-blank value means no text.
	var c FilterCriteria
	if q := query.Get("q"); strings.TrimSpace(q) != "" {
		c.Text = q
	}

	for _, raw := range query["category"] {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name != "" && !containsString(c.Categories, name) {
				c.Categories = append(c.Categories, name)
			}
		}
	}
	if v := query.Get("from"); v != "" {
		if d, err := ParseDate(v); err == nil {
			c.Start = &d
		}
	}
	if v := query.Get("to"); v != "" {
		if d, err := ParseDate(v); err == nil {
			c.End = &d
		}
	}
	return c
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
