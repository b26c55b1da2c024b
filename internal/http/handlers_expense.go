package http

import (
	"fmt"
	"net/http"

	"tally/internal/core"
	applog "tally/internal/log"
)

type expenseListResponse struct {
	Expenses []core.Expense      `json:"expenses"`
	Count    int                 `json:"count"`
	Total    core.Money          `json:"total"`
	Criteria core.FilterCriteria `json:"criteria"`
	Selected []string            `json:"selected"`
}

// criteriaFor returns the filter named by the query and makes it current.
// A query without filter parameters keeps the current filter.
func (s *Server) criteriaFor(r *http.Request) core.FilterCriteria {
	q := r.URL.Query()
	if !hasFilterParams(q) {
		return s.tracker.Criteria()
	}
	c := core.ParseFilterCriteria(q)
	s.tracker.SetCriteria(c)
	return c
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	c := s.criteriaFor(r)
	visible := core.Filter(s.tracker.Expenses.List(), c)
	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses: visible,
		Count:    len(visible),
		Total:    core.Total(visible),
		Criteria: c,
		Selected: nonNil(s.tracker.Selected()),
	})
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, ok := s.tracker.Expenses.Get(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "expense not found")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	added, err := s.tracker.AddExpenses(r.Context(), []core.Expense{in.draft(s.tracker.Today())})
	if err != nil {
		fail(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/expenses/"+added[0].ID)
	writeJSON(w, http.StatusCreated, added[0])
}

// handleUpdateExpense merges the supplied fields into the stored record.
// An unknown id is not an error: it reports updated=false.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var in expenseInput
	if err := decodeJSON(w, r, &in); err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	existing, ok := s.tracker.Expenses.Get(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}
	e := in.apply(existing)
	updated, err := s.tracker.Expenses.Update(r.Context(), e)
	if err != nil {
		fail(w, r, applog.OpUpdate, err)
		return
	}
	if updated {
		e, _ = s.tracker.Expenses.Get(id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated, "expense": e})
}

func (s *Server) handleDeleteExpenses(w http.ResponseWriter, r *http.Request) {
	ids := parseIDs(r.URL.Query())
	if len(ids) == 0 {
		fail(w, r, applog.OpDelete, fmt.Errorf("%w: at least one id is required", errBadRequest))
		return
	}
	s.deleteExpenses(w, r, ids)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.deleteExpenses(w, r, []string{r.PathValue("id")})
}

func (s *Server) deleteExpenses(w http.ResponseWriter, r *http.Request, ids []string) {
	removed, err := s.tracker.DeleteExpenses(r.Context(), ids, parseConfirm(r.URL.Query()))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": nonNil(removed)})
}

type selectionRequest struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"selected": nonNil(s.tracker.Selected())})
}

// handleChangeSelection applies one of select, deselect, toggle or
// visible (select everything matching the current filter).
func (s *Server) handleChangeSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		fail(w, r, "select", err)
		return
	}
	switch req.Action {
	case "select":
		s.tracker.Select(req.IDs...)
	case "deselect":
		s.tracker.Deselect(req.IDs...)
	case "toggle":
		for _, id := range req.IDs {
			s.tracker.ToggleSelection(id)
		}
	case "visible":
		s.tracker.SelectVisible()
	default:
		fail(w, r, "select", fmt.Errorf("%w: unknown selection action %q", errBadRequest, req.Action))
		return
	}
	s.handleGetSelection(w, r)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.tracker.ClearSelection()
	s.handleGetSelection(w, r)
}

func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	removed, err := s.tracker.DeleteSelected(r.Context(), parseConfirm(r.URL.Query()))
	if err != nil {
		fail(w, r, applog.OpDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": nonNil(removed)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
