package http

import (
	"bytes"
	"net/http"
	"strconv"

	"tally/internal/core"
	"tally/internal/export"
	applog "tally/internal/log"
)

// exportHandler renders the filtered subset in f as a download. The body
// is buffered so a rendering failure still yields a clean error response.
func (s *Server) exportHandler(f export.Format) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := s.criteriaFor(r)
		subset := core.Filter(s.tracker.Expenses.List(), c)
		report := export.NewReport(subset, s.tracker.Budget.Value(), s.tracker.Now())

		var buf bytes.Buffer
		if err := export.Write(&buf, f, report); err != nil {
			fail(w, r, applog.OpExport, err)
			return
		}

		applog.FromContext(r.Context()).InfoContext(r.Context(), "Expenses exported",
			applog.FieldOperation, applog.OpExport, "format", string(f), applog.FieldCount, len(subset))

		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", `attachment; filename="`+f.FileName(s.tracker.Today())+`"`)
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	})
}
