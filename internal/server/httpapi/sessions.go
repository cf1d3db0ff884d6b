package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var in services.SessionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Sessions.Create(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":    true,
		"message":    "Session created successfully",
		"session_id": sess.ID,
		"redirect":   "/sessions/" + sess.ID,
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Sessions.List(r.Context(), chi.URLParam(r, "conference_id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "sessions": list})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := identityFrom(r.Context())
	writeJSON(w, http.StatusOK, envelope{
		"success":         true,
		"session":         sess,
		"available_seats": sess.AvailableSeats(),
		"is_registered":   sess.HasAttendee(actor.UserID),
	})
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var in services.SessionInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Sessions.Update(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Session updated successfully", "session": sess})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sessions.Delete(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Session deleted successfully"})
}

func (s *Server) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Sessions.Register(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	s.observeRegistration("session", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Registered for session"})
}

func (s *Server) handleUnregisterSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sessions.Unregister(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Unregistered from session"})
}
