package web

import (
	"net/http"

	"socialsync/internal/services"
)

// adRange reads ?range= (7d, 30d, 90d, 1y).
func adRange(r *http.Request) (int, error) {
	return services.ParseAdRange(r.URL.Query().Get("range"))
}

func (s *Server) handleAdAccounts(w http.ResponseWriter, r *http.Request) {
	writeResult(w, s.svc.Ads.Accounts(r.Context(), scopeFrom(r.Context())))
}

func (s *Server) handleAdPerformance(w http.ResponseWriter, r *http.Request) {
	days, err := adRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, s.svc.Ads.Performance(r.Context(), scopeFrom(r.Context()), days))
}

func (s *Server) handleAdCampaigns(w http.ResponseWriter, r *http.Request) {
	days, err := adRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeResult(w, s.svc.Ads.Campaigns(r.Context(), scopeFrom(r.Context()), days))
}

func (s *Server) handleAdExportCSV(w http.ResponseWriter, r *http.Request) {
	days, err := adRange(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ad-performance.csv"`)
	if err := s.svc.Ads.ExportCSV(r.Context(), scopeFrom(r.Context()), days, w); err != nil {
		w.Header().Del("Content-Disposition")
		writeErr(w, r, err)
	}
}
