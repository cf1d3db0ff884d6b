package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

var conferenceFields = []string{"name", "description", "location", "start_date", "end_date"}

func (s *Server) handleConferenceForm(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"required": conferenceFields,
		"optional": []string{"field", "city", "country", "max_attendees", "registration_fee", "logo", "banner", "website"},
	})
}

func (s *Server) handleCreateConference(w http.ResponseWriter, r *http.Request) {
	var in services.ConferenceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Conferences.Create(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":       true,
		"message":       "Conference created successfully",
		"conference_id": c.ID,
		"data":          c,
	})
}

func (s *Server) handleListConferences(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Conferences.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": list, "count": len(list)})
}

func (s *Server) handleGetConference(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Conferences.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": c})
}

func (s *Server) handleUpdateConference(w http.ResponseWriter, r *http.Request) {
	var in services.ConferenceInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Conferences.Update(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Conference updated successfully", "data": c})
}

func (s *Server) handleDeleteConference(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Conferences.Delete(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Conference deleted successfully"})
}

func (s *Server) handleJoinConference(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Conferences.Join(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	s.observeRegistration("conference", err)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Joined conference"})
}

func (s *Server) handleLeaveConference(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Conferences.Leave(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Left conference"})
}

func (s *Server) observeRegistration(target string, err error) {
	if s.metrics != nil {
		s.metrics.observeRegistration(target, err)
	}
}
