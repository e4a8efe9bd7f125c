package web

import (
	"net/http"

	"github.com/gorilla/mux"

	"socialsync/internal/model"
	"socialsync/internal/services"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := services.AccountFilter{Status: q.Get("status"), Search: q.Get("search")}
	writeResult(w, s.svc.Accounts.List(r.Context(), scopeFrom(r.Context()), f))
}

func (s *Server) handleConnectAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Platform string `json:"platform"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	a, err := s.svc.Accounts.Connect(r.Context(), scopeFrom(r.Context()), model.Platform(body.Platform))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (s *Server) handleReconnectAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Accounts.Reconnect(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) handleSyncAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.svc.Accounts.Sync(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) handleBrandVoice(w http.ResponseWriter, r *http.Request) {
	var bv model.BrandVoice
	if err := decodeJSON(r, &bv); err != nil {
		writeErr(w, r, err)
		return
	}
	a, err := s.svc.Accounts.SetBrandVoice(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"], bv)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, a)
}

func (s *Server) handleDisconnectAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Accounts.Disconnect(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkOutcome struct {
	Applied []string `json:"applied"`
	Error   string   `json:"error,omitempty"`
}

// handleBulkAccounts answers 200 even on partial failure; the body lists
// what was applied.
func (s *Server) handleBulkAccounts(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string   `json:"action"`
		IDs    []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	done, err := s.svc.Accounts.BulkAction(r.Context(), scopeFrom(r.Context()), body.Action, body.IDs)
	if err != nil && len(done) == 0 {
		writeErr(w, r, err)
		return
	}
	out := bulkOutcome{Applied: done}
	if err != nil {
		out.Error = err.Error()
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Team.Members(r.Context(), scopeFrom(r.Context())))
}

func (s *Server) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		Role  string `json:"role,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	m, err := s.svc.Team.Invite(r.Context(), scopeFrom(r.Context()), body.Email, body.Role)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

func (s *Server) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Role string `json:"role"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	m, err := s.svc.Team.UpdateRole(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"], body.Role)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, m)
}

func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Team.Remove(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Team.PendingApprovals(r.Context(), scopeFrom(r.Context())))
}

type reviewBody struct {
	Comment string `json:"comment"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var body reviewBody
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeErr(w, r, err)
			return
		}
	}
	ev, err := s.svc.Team.Approve(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"], body.Comment)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleRequestChanges(w http.ResponseWriter, r *http.Request) {
	var body reviewBody
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	ev, err := s.svc.Team.RequestChanges(r.Context(), scopeFrom(r.Context()), mux.Vars(r)["id"], body.Comment)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Feed.Notifications(r.Context(), scopeFrom(r.Context())))
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Feed.MarkRead(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Feed.MarkAllRead(r.Context(), scopeFrom(r.Context())); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", services.DefaultActivityLimit)
	writeResult(w, s.svc.Feed.Activities(r.Context(), scopeFrom(r.Context()), limit))
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Action string `json:"action"`
		Target string `json:"target,omitempty"`
		Detail string `json:"detail,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	a, err := s.svc.Feed.RecordActivity(r.Context(), scopeFrom(r.Context()), body.Action, body.Target, body.Detail)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, a)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	res := s.svc.Analytics.Overview(r.Context(), scopeFrom(r.Context()))
	type overview struct {
		services.Overview
		Cards []services.Metric `json:"cards"`
	}
	writeResult(w, services.Result[overview]{
		Data:   overview{Overview: res.Data, Cards: res.Data.Metrics()},
		Source: res.Source,
		Error:  res.Error,
	})
}

func (s *Server) handleSummaries(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", services.DefaultAnalyticsDays)
	writeResult(w, s.svc.Analytics.Summaries(r.Context(), scopeFrom(r.Context()), days))
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", services.DefaultAnalyticsDays)
	writeResult(w, s.svc.Analytics.Comparison(r.Context(), scopeFrom(r.Context()), days))
}

func (s *Server) handleBestTimes(w http.ResponseWriter, r *http.Request) {
	platforms, err := parsePlatforms(r.URL.Query().Get("platforms"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, services.BestTimes(platforms...))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", services.DefaultAnalyticsDays)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="analytics.csv"`)
	if err := s.svc.Analytics.ExportCSV(r.Context(), scopeFrom(r.Context()), days, w); err != nil {
		w.Header().Del("Content-Disposition")
		writeErr(w, r, err)
	}
}
