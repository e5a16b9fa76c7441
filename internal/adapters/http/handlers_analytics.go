package web

import (
	"net/http"

	"congregation/internal/application/projections"
)

const analyticsFailed = "Failed to fetch analytics"

// handleSummary handles GET /analytics/summary.
func (a *app) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, err := projections.QueryGetSummary(r.Context(), projections.GetSummaryDeps{Records: a.Records})
	if err != nil {
		writeError(w, r, err, analyticsFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleTrends handles GET /analytics/trends?period=weekly|monthly.
func (a *app) handleTrends(w http.ResponseWriter, r *http.Request) {
	query := projections.GetTrendsQuery{Period: r.URL.Query().Get("period")}
	res, err := projections.QueryGetTrends(r.Context(), query, projections.GetTrendsDeps{Records: a.Records})
	if err != nil {
		writeError(w, r, err, analyticsFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDemographics handles GET /analytics/demographics.
func (a *app) handleDemographics(w http.ResponseWriter, r *http.Request) {
	query := projections.GetDemographicsQuery{Now: a.Now()}
	res, err := projections.QueryGetDemographics(r.Context(), query, projections.GetDemographicsDeps{Records: a.Records})
	if err != nil {
		writeError(w, r, err, analyticsFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRepeatVisitors handles GET /analytics/repeat-visitors?key=phone|email.
func (a *app) handleRepeatVisitors(w http.ResponseWriter, r *http.Request) {
	query := projections.GetRepeatVisitorsQuery{Key: r.URL.Query().Get("key")}
	res, err := projections.QueryGetRepeatVisitors(r.Context(), query, projections.GetRepeatVisitorsDeps{Records: a.Records})
	if err != nil {
		writeError(w, r, err, analyticsFailed)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
