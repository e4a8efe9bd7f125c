package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"socialsync/internal/bulk"
	"socialsync/internal/calendar"
	"socialsync/internal/editor"
	"socialsync/internal/ics"
	"socialsync/internal/model"
)

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePlatforms(v string) ([]model.Platform, error) {
	var out []model.Platform
	for _, part := range splitList(v) {
		p, err := model.ParsePlatform(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// parseFilter reads ?types=, ?platforms= and ?statuses= as comma lists.
func parseFilter(r *http.Request) (calendar.Filter, error) {
	q := r.URL.Query()
	var f calendar.Filter
	for _, t := range splitList(q.Get("types")) {
		et := model.EventType(strings.ToLower(t))
		if !et.Valid() {
			return f, fmt.Errorf("%w: unknown type %q", model.ErrValidation, t)
		}
		f.Types = append(f.Types, et)
	}
	for _, st := range splitList(q.Get("statuses")) {
		es := model.EventStatus(strings.ToLower(st))
		if !es.Valid() {
			return f, fmt.Errorf("%w: unknown status %q", model.ErrValidation, st)
		}
		f.Statuses = append(f.Statuses, es)
	}
	platforms, err := parsePlatforms(q.Get("platforms"))
	if err != nil {
		return f, err
	}
	f.Platforms = platforms
	return f, nil
}

// parseDay reads a YYYY-MM-DD value in loc. An empty value is def.
func parseDay(v string, loc *time.Location, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(editor.DateLayout, v, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", model.ErrValidation, v)
	}
	return t, nil
}

// viewFrom builds the requested view: ?mode=, ?date=, the remembered month
// ?day= and an optional ?nav=next|prev|today step.
func (s *Server) viewFrom(r *http.Request) (calendar.View, error) {
	q := r.URL.Query()
	cal := s.svc.Calendar
	mode, err := calendar.ParseMode(q.Get("mode"))
	if err != nil {
		return calendar.View{}, err
	}
	anchor, err := parseDay(q.Get("date"), cal.Location(), cal.Now())
	if err != nil {
		return calendar.View{}, err
	}
	view := calendar.ViewAt(anchor, mode)
	if d := q.Get("day"); d != "" {
		n, err := strconv.Atoi(d)
		if err != nil {
			return calendar.View{}, fmt.Errorf("%w: invalid day %q", model.ErrValidation, d)
		}
		view = view.WithDay(n)
	}
	switch nav := q.Get("nav"); nav {
	case "":
	case "today":
		view = view.Today(cal.Now())
	default:
		dir, err := calendar.ParseDirection(nav)
		if err != nil {
			return calendar.View{}, err
		}
		view = view.Navigate(dir)
	}
	return view, nil
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
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
	writeResult(w, s.svc.Calendar.Board(r.Context(), scopeFrom(r.Context()), view, f))
}

// parseInstant accepts RFC 3339 or a bare date.
func parseInstant(v string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return parseDay(v, loc, time.Time{})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := s.svc.Calendar.Location()
	from, err := parseInstant(q.Get("from"), loc)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	to, err := parseInstant(q.Get("to"), loc)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sc := scopeFrom(r.Context())
	if q.Get("expand") == "1" {
		if from.IsZero() || to.IsZero() {
			writeError(w, http.StatusBadRequest, "expand needs both from and to")
			return
		}
		writeResult(w, s.svc.Calendar.Occurrences(r.Context(), sc, from, to, f))
		return
	}
	writeResult(w, s.svc.Calendar.Events(r.Context(), sc, from, to, f))
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.svc.Calendar.Get(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var d editor.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeErr(w, r, err)
		return
	}
	d.ID = ""
	ev, err := s.svc.Calendar.Save(r.Context(), scopeFrom(r.Context()), d)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var d editor.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeErr(w, r, err)
		return
	}
	d.ID = mux.Vars(r)["id"]
	ev, err := s.svc.Calendar.Save(r.Context(), scopeFrom(r.Context()), d)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Calendar.Delete(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type validation struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleValidateDraft(w http.ResponseWriter, r *http.Request) {
	var d editor.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeErr(w, r, err)
		return
	}
	fe := s.svc.Calendar.Validate(d)
	writeData(w, http.StatusOK, validation{Valid: len(fe) == 0, Errors: fe})
}

// dropTarget is a month cell (date only) or an hour slot (date and hour).
type dropTarget struct {
	Date string `json:"date"`
	Hour *int   `json:"hour,omitempty"`
}

func (s *Server) handleDropEvent(w http.ResponseWriter, r *http.Request) {
	var body dropTarget
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	day, err := parseDay(body.Date, s.svc.Calendar.Location(), time.Time{})
	if err != nil || day.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required as YYYY-MM-DD")
		return
	}
	target := calendar.DateCell(day)
	if body.Hour != nil {
		if *body.Hour < 0 || *body.Hour > 23 {
			writeError(w, http.StatusBadRequest, "hour must be between 0 and 23")
			return
		}
		target = calendar.SlotCell(day, *body.Hour)
	}
	ev, err := s.svc.Calendar.Drop(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"], target)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

// bulkBody is a bulk request. CSV, when set, replaces Items with the parsed
// rows.
type bulkBody struct {
	bulk.Request
	CSV    string `json:"csv,omitempty"`
	DryRun bool   `json:"dryRun,omitempty"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var body bulkBody
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	req := body.Request
	if strings.TrimSpace(body.CSV) != "" {
		items, err := bulk.ParseCSV(strings.NewReader(body.CSV), s.svc.Calendar.Location())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		req.Items = items
		if req.Mode == "" {
			req.Mode = bulk.ModeCSV
		}
	}
	if req.Mode == "" {
		req.Mode = bulk.ModeAuto
	}
	res, err := s.svc.Calendar.Bulk(r.Context(), scopeFrom(r.Context()), req, body.DryRun)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	status := http.StatusCreated
	if body.DryRun {
		status = http.StatusOK
	}
	writeData(w, status, res)
}

func (s *Server) handleExportICS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="socialsync.ics"`)
	if err := s.svc.Calendar.ExportICS(r.Context(), scopeFrom(r.Context()), w); err != nil {
		w.Header().Del("Content-Disposition")
		writeErr(w, r, err)
	}
}

func importOptions(platforms, status string) (ics.ImportOptions, error) {
	var opt ics.ImportOptions
	ps, err := parsePlatforms(platforms)
	if err != nil {
		return opt, err
	}
	opt.Platforms = ps
	if status != "" {
		st := model.EventStatus(strings.ToLower(status))
		if !st.Valid() {
			return opt, fmt.Errorf("%w: unknown status %q", model.ErrValidation, status)
		}
		opt.Status = st
	}
	return opt, nil
}

// handleImportICS reads a raw text/calendar body. ?platforms= and ?status=
// fill what the feed does not carry.
func (s *Server) handleImportICS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opt, err := importOptions(q.Get("platforms"), q.Get("status"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, ics.MaxFeedSize+1))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if len(body) > ics.MaxFeedSize {
		writeError(w, http.StatusRequestEntityTooLarge, "calendar is too large")
		return
	}
	events, err := s.svc.Calendar.ImportICS(r.Context(), scopeFrom(r.Context()), body, opt)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events)
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL       string `json:"url"`
		Platforms string `json:"platforms,omitempty"`
		Status    string `json:"status,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	opt, err := importOptions(body.Platforms, body.Status)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	events, err := s.svc.Calendar.Subscribe(r.Context(), scopeFrom(r.Context()), body.URL, opt)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, events)
}
