package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tally/internal/core"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("malformed request")

// decodeJSON reads exactly one JSON value into v, rejecting unknown fields.
// Field-level validation failures keep their core error so they map to 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}

// expenseInput is the body of create and update requests. Absent fields
// are nil so updates can leave them unchanged.
type expenseInput struct {
	Description *string     `json:"description"`
	Amount      *core.Money `json:"amount"`
	Category    *string     `json:"category"`
	Date        *core.Date  `json:"date"`
}

// draft builds a new expense; a missing date means today.
func (in expenseInput) draft(today core.Date) core.Expense {
	e := core.Expense{Date: today}
	return in.apply(e)
}

func (in expenseInput) apply(e core.Expense) core.Expense {
	if in.Description != nil {
		e.Description = sanitizeInput(*in.Description)
	}
	if in.Amount != nil {
		e.Amount = *in.Amount
	}
	if in.Category != nil {
		e.Category = strings.TrimSpace(*in.Category)
	}
	if in.Date != nil {
		e.Date = *in.Date
	}
	return e
}

// parseIDs collects "id" parameters, repeated or comma separated, without
// duplicates.
func parseIDs(query url.Values) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, raw := range query["id"] {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func parseConfirm(query url.Values) bool {
	ok, _ := strconv.ParseBool(query.Get("confirm"))
	return ok
}

// hasFilterParams reports whether the query names any filter parameter,
// even with an empty value.
func hasFilterParams(query url.Values) bool {
	for _, k := range []string{"q", "category", "from", "to"} {
		if _, ok := query[k]; ok {
			return true
		}
	}
	return false
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
