package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRegisterAttendee(w http.ResponseWriter, r *http.Request) {
	var in services.AttendeeInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.svc.Attendees.Register(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":     true,
		"message":     a.Name + " has been registered successfully",
		"attendee_id": a.ID,
	})
}

func (s *Server) handleListAttendees(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Attendees.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "attendees": list, "count": len(list)})
}

func (s *Server) handleGetAttendee(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Attendees.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "attendee": a})
}

func (s *Server) handleAddAttendeeToSession(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Attendees.AddToSession(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "session_id"))
	s.observeRegistration("attendee_session", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Attendee added to session"})
}

func (s *Server) handleRemoveAttendeeFromSession(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Attendees.RemoveFromSession(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), chi.URLParam(r, "session_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Attendee removed from session"})
}
