package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tally/internal/core"
)

// Intents a reply can carry.
const (
	IntentQuestion     = "QUESTION"
	IntentExpenseEntry = "EXPENSE_ENTRY"
	IntentUnclear      = "UNCLEAR"
)

var ErrEmptyReply = errors.New("empty reply")

// ParsedExpense is one expense as extracted by the generator. Every field
// may be missing.
type ParsedExpense struct {
	Amount      core.Money `json:"amount"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Date        string     `json:"date"`
}

// Reply is the decoded generator output.
type Reply struct {
	Intent        string          `json:"intent"`
	Expenses      []ParsedExpense `json:"expenses"`
	Answer        string          `json:"answer"`
	Clarification string          `json:"clarification"`
}

// DecodeReply parses generator output, tolerating a surrounding markdown
// code fence. The intent is upper-cased and trimmed.
func DecodeReply(raw []byte) (Reply, error) {
	text := stripCodeFence(string(raw))
	if text == "" {
		return Reply{}, ErrEmptyReply
	}
	var r Reply
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return Reply{}, fmt.Errorf("decode reply: %w", err)
	}
	r.Intent = strings.ToUpper(strings.TrimSpace(r.Intent))
	r.Answer = strings.TrimSpace(r.Answer)
	r.Clarification = strings.TrimSpace(r.Clarification)
	return r, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// Draft converts p into a store-ready expense. An unknown category becomes
// Other, a missing date becomes today and a missing description takes the
// category name. The result is validated, so a non-positive amount or an
// unparseable date is an error.
func (p ParsedExpense) Draft(today core.Date) (core.Expense, error) {
	e := core.Expense{
		Description: strings.TrimSpace(p.Description),
		Amount:      p.Amount,
		Category:    normalizeCategory(p.Category),
		Date:        today,
	}
	if ds := strings.TrimSpace(p.Date); ds != "" {
		d, err := core.ParseDate(ds)
		if err != nil {
			return core.Expense{}, err
		}
		e.Date = d
	}
	if e.Description == "" {
		e.Description = e.Category
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func normalizeCategory(name string) string {
	name = strings.TrimSpace(name)
	for _, c := range core.Categories() {
		if strings.EqualFold(c.Name, name) {
			return c.Name
		}
	}
	return core.CategoryOther
}
