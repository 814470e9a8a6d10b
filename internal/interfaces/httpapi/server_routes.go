package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/week-refresh", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunWeekRefreshJob)))
	mux.Handle("POST /v1/internal/jobs/reminder", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReminderJob)))
	mux.Handle("GET /v1/internal/jobs/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListJobRuns)))
}
