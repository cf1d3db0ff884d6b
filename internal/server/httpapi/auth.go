package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// bindForm fills JSON requests from the body and everything else from form
// values, so both the pages and API clients can post.
func bindForm(w http.ResponseWriter, r *http.Request, dst any, fromForm func(get func(string) string)) error {
	if isJSON(r) {
		return decodeJSON(w, r, dst)
	}
	if err := r.ParseForm(); err != nil {
		return err
	}
	fromForm(r.PostForm.Get)
	return nil
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var in services.SignupInput
	err := bindForm(w, r, &in, func(get func(string) string) {
		in.Username, in.Email, in.Password, in.FullName = get("username"), get("email"), get("password"), get("full_name")
	})
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	id, err := s.svc.Identity.Signup(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":  true,
		"message":  "Account created successfully. Please log in.",
		"redirect": "/login",
		"id":       id,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentials
	err := bindForm(w, r, &in, func(get func(string) string) {
		in.Username, in.Password = get("username"), get("password")
	})
	if err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	res, err := s.svc.Identity.Login(r.Context(), in.Username, in.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(s.cfg.SessionLifetime.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, envelope{
		"success":  true,
		"message":  "Login successful",
		"redirect": "/dashboard",
		"user":     res.Identity,
	})
}

// handleLogout always ends on the login page.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		if err := s.svc.Identity.Logout(r.Context(), c.Value); err != nil {
			s.log.Warn(r.Context(), "logout failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"success": true, "user": identityFrom(r.Context())})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.svc.Identity.Profile(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "user": u})
}
