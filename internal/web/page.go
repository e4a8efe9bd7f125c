package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"socialsync/internal/calendar"
	"socialsync/internal/editor"
	appLog "socialsync/internal/log"
	"socialsync/internal/model"
	"socialsync/internal/services"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.New("calendar.html.tmpl").Funcs(template.FuncMap{
	"hour": calendar.HourLabel,
	"excerpt": func(s string) string {
		r := []rune(s)
		if len(r) <= 28 {
			return s
		}
		return string(r[:28]) + "..."
	},
}).ParseFS(templateFS, "templates/calendar.html.tmpl"))

var weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type modeLink struct {
	Label string
	URL   string
}

type pageData struct {
	Board    calendar.Board[model.Occurrence]
	Source   services.DataSource
	Error    string
	Weekdays []string
	Modes    []modeLink
	PrevURL  string
	NextURL  string
	TodayURL string
}

func pageURL(r *http.Request, set map[string]string) string {
	q := r.URL.Query()
	for k, v := range set {
		if v == "" {
			q.Del(k)
		} else {
			q.Set(k, v)
		}
	}
	u := url.URL{Path: "/calendar", RawQuery: q.Encode()}
	return u.String()
}

// handleCalendarPage renders the calendar grid server side. The root element
// carries data-ready="true" once rendered, which headless snapshots wait on.
func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	view, err := s.viewFrom(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	res := s.svc.Calendar.Board(r.Context(), scopeFrom(r.Context()), view, f)

	day := func(v calendar.View) string { return v.Anchor.Format(editor.DateLayout) }
	step := func(dir calendar.Direction) string {
		to := view.Navigate(dir)
		return pageURL(r, map[string]string{"date": day(to), "day": strconv.Itoa(to.Day()), "nav": ""})
	}
	data := pageData{
		Board:    res.Data.Board,
		Source:   res.Source,
		Error:    res.Error,
		Weekdays: weekdays,
		PrevURL:  step(calendar.Prev),
		NextURL:  step(calendar.Next),
		TodayURL: pageURL(r, map[string]string{"date": "", "day": "", "nav": ""}),
	}
	for _, m := range []calendar.Mode{calendar.ModeMonth, calendar.ModeWeek, calendar.ModeDay} {
		data.Modes = append(data.Modes, modeLink{
			Label: string(m),
			URL:   pageURL(r, map[string]string{"mode": string(m), "date": day(view), "day": "", "nav": ""}),
		})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		appLog.Error("render calendar page failed", err)
		writeError(w, http.StatusInternalServerError, "failed to render calendar")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
