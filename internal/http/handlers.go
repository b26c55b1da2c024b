package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": core.Categories()})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"budget": s.tracker.Budget.Value()})
}

// handleSetBudget accepts {"budget": <number or string>}. Invalid or
// negative input becomes 0 rather than an error.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Budget json.RawMessage `json:"budget"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, "set_budget", err)
		return
	}
	input := strings.Trim(strings.TrimSpace(string(body.Budget)), `"`)
	value, err := s.tracker.Budget.Set(r.Context(), input)
	if err != nil {
		fail(w, r, "set_budget", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": value})
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"theme": s.tracker.Prefs.Theme()})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, "set_theme", err)
		return
	}
	theme, err := services.ParseTheme(body.Theme)
	if err != nil {
		fail(w, r, "set_theme", err)
		return
	}
	if err := s.tracker.Prefs.SetTheme(r.Context(), theme); err != nil {
		fail(w, r, "set_theme", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": theme})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := s.tracker.Prefs.Toggle(r.Context())
	if err != nil {
		fail(w, r, "toggle_theme", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"theme": theme})
}

type summaryResponse struct {
	services.Summary
	Criteria core.FilterCriteria `json:"criteria"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	c := s.criteriaFor(r)
	writeJSON(w, http.StatusOK, summaryResponse{Summary: s.tracker.Summary(c), Criteria: c})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled":  s.assistant != nil,
		"messages": s.tracker.Transcript(),
	})
}

// handleChat runs one assistant exchange and returns the transcript
// entries it produced.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		fail(w, r, applog.OpAsk, errAssistantDisabled)
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		fail(w, r, applog.OpAsk, err)
		return
	}
	appended, err := s.assistant.Ask(r.Context(), sanitizeInput(body.Message))
	if err != nil {
		fail(w, r, applog.OpAsk, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": nonNil(appended)})
}
