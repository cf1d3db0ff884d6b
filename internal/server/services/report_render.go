package services

import (
	"encoding/csv"
	"html/template"
	"io"
	"strconv"
	"time"
)

const csvTimeLayout = "2006-01-02 15:04:05"

// WriteConferenceCSV renders the conference summary followed by its
// sessions. withSessions is false for the download variant.
func WriteConferenceCSV(w io.Writer, r *ConferenceReport, withSessions bool) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Conference Report"},
		{"Generated at", r.GeneratedAt.UTC().Format(csvTimeLayout)},
		{},
		{"Conference Name", r.ConferenceName},
		{"Total Sessions", strconv.Itoa(r.TotalSessions)},
		{"Total Attendees", strconv.Itoa(r.TotalAttendees)},
		{},
	}
	if withSessions {
		rows = append(rows, []string{"Sessions"}, []string{"Title", "Speaker", "Location", "Start Time", "End Time"})
		for _, s := range r.Sessions {
			rows = append(rows, []string{s.Title, s.Speaker, s.Location, isoTime(s.StartTime), isoTime(s.EndTime)})
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func WriteAttendeesCSV(w io.Writer, r *AttendeesReport) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Attendees Report"},
		{"Conference", r.ConferenceName},
		{"Total Attendees", strconv.Itoa(r.TotalAttendees)},
		{},
		{"Name", "Email", "Username", "Joined Date"},
	}
	for _, a := range r.Attendees {
		rows = append(rows, []string{a.Name, a.Email, a.Username, isoTime(a.JoinedDate)})
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

var conferenceReportTmpl = template.Must(template.New("conference_report").Funcs(template.FuncMap{
	"iso":  isoTime,
	"date": func(t time.Time) string { return t.UTC().Format("2006-01-02") },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.ConferenceName}} report</title></head>
<body>
<h1>{{.ConferenceName}}</h1>
<p>{{.Description}}</p>
<table>
<tr><th>Location</th><td>{{.Location}}</td></tr>
<tr><th>Dates</th><td>{{date .StartDate}} to {{date .EndDate}}</td></tr>
<tr><th>Status</th><td>{{.Status}}</td></tr>
<tr><th>Attendees</th><td>{{.TotalAttendees}} / {{.MaxAttendees}}</td></tr>
<tr><th>Registration fee</th><td>{{printf "%.2f" .RegistrationFee}}</td></tr>
<tr><th>Sessions</th><td>{{.TotalSessions}}</td></tr>
</table>
{{if .Sessions}}<h2>Sessions</h2>
<table>
<tr><th>Title</th><th>Speaker</th><th>Location</th><th>Start</th><th>End</th><th>Registered</th></tr>
{{range .Sessions}}<tr><td>{{.Title}}</td><td>{{.Speaker}}</td><td>{{.Location}}</td><td>{{iso .StartTime}}</td><td>{{iso .EndTime}}</td><td>{{len .Attendees}} / {{.Capacity}}</td></tr>
{{end}}</table>{{end}}
<p>Generated at {{iso .GeneratedAt}}</p>
</body>
</html>
`))

func WriteConferenceHTML(w io.Writer, r *ConferenceReport) error {
	return conferenceReportTmpl.Execute(w, r)
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
