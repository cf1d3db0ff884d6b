package httpapi

import (
	"html/template"
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/models"
)

var pages = template.Must(template.New("").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en"><head><meta charset="utf-8"><title>{{.}} | Conference Manager</title></head><body>{{end}}
{{define "login"}}{{template "head" "Login"}}
<h1>Login</h1>
<form method="post" action="/login">
<input name="username" placeholder="Username" required>
<input name="password" type="password" placeholder="Password" required>
<button type="submit">Login</button>
</form>
<p><a href="/signup">Create an account</a></p>
</body></html>{{end}}
{{define "signup"}}{{template "head" "Sign up"}}
<h1>Sign up</h1>
<form method="post" action="/signup">
<input name="full_name" placeholder="Full name" required>
<input name="username" placeholder="Username" required>
<input name="email" type="email" placeholder="Email" required>
<input name="password" type="password" placeholder="Password" required>
<button type="submit">Sign up</button>
</form>
</body></html>{{end}}
{{define "dashboard"}}{{template "head" "Dashboard"}}
<h1>Welcome, {{.User.FullName}}</h1>
<p>{{.Conferences}} conferences, {{.Organizing}} organized by you.</p>
<ul>
<li><a href="/conferences/api/all">Conferences</a></li>
<li><a href="/payment/history">Payments</a></li>
<li><a href="/profile">Profile</a></li>
<li><a href="/logout">Logout</a></li>
</ul>
</body></html>{{end}}
`))

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error(r.Context(), "render page", "page", name, "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if identityFrom(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}
	s.render(w, r, "login", nil)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "signup", nil)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	actor := identityFrom(r.Context())
	list, err := s.svc.Conferences.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	organizing := 0
	for _, c := range list {
		if c.OrganizerID == actor.UserID {
			organizing++
		}
	}
	s.render(w, r, "dashboard", struct {
		User        *models.Identity
		Conferences int
		Organizing  int
	}{actor, len(list), organizing})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, envelope{"status": "healthy", "message": "Application is running"})
}
