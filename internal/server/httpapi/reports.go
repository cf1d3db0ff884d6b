package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func reportFormat(r *http.Request, def string) string {
	if f := strings.ToLower(r.URL.Query().Get("format")); f != "" {
		return f
	}
	return def
}

func attachmentName(name, kind string, at time.Time) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(name, "_"), "_")
	if base == "" {
		base = "conference"
	}
	return fmt.Sprintf("%s_%s_%s.csv", base, kind, at.Format("20060102"))
}

// sendCSV buffers the document so that a render failure can still become a
// JSON error.
func (s *Server) sendCSV(w http.ResponseWriter, r *http.Request, filename string, write func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleConferenceReport(w http.ResponseWriter, r *http.Request) {
	format := reportFormat(r, "json")
	if format != "json" && format != "csv" && format != "html" {
		badRequest(w, "Invalid report format")
		return
	}
	rep, err := s.svc.Reports.Conference(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	switch format {
	case "csv":
		s.sendCSV(w, r, attachmentName(rep.ConferenceName, "report", rep.GeneratedAt), func(b *bytes.Buffer) error {
			return services.WriteConferenceCSV(b, rep, true)
		})
	case "html":
		var buf bytes.Buffer
		if err := services.WriteConferenceHTML(&buf, rep); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	default:
		writeJSON(w, http.StatusOK, envelope{"success": true, "report": rep})
	}
}

func (s *Server) handleAttendeesReport(w http.ResponseWriter, r *http.Request) {
	format := reportFormat(r, "json")
	if format != "json" && format != "csv" {
		badRequest(w, "Invalid report format")
		return
	}
	rep, err := s.svc.Reports.Attendees(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if format == "csv" {
		s.sendCSV(w, r, attachmentName(rep.ConferenceName, "attendees", rep.GeneratedAt), func(b *bytes.Buffer) error {
			return services.WriteAttendeesCSV(b, rep)
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "report": rep})
}

func (s *Server) handleSessionsReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.svc.Reports.Sessions(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "report": rep})
}

func (s *Server) handleDownloadReport(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "type") != "conference" || reportFormat(r, "pdf") != "csv" {
		badRequest(w, "Invalid report type or format")
		return
	}
	rep, err := s.svc.Reports.Conference(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.sendCSV(w, r, attachmentName(rep.ConferenceName, "report", rep.GeneratedAt), func(b *bytes.Buffer) error {
		return services.WriteConferenceCSV(b, rep, false)
	})
}
