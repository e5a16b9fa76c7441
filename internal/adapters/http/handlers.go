package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"congregation/internal/domain/failure"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	slog.Error("internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	writeErrorMessage(w, http.StatusInternalServerError, msg)
}

// writeError maps err onto a status. User-facing errors keep their message;
// everything else is logged and replaced by fallback.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if failure.IsUserFacing(err) {
		writeErrorMessage(w, failure.HTTPStatus(err), err.Error())
		return
	}
	internalError(w, r, err, fallback)
}

// decodeJSON reads a JSON body of at most maxJSONBody bytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return failure.Validation("request body too large")
		}
		return failure.Validation("Invalid JSON body")
	}
	return nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePerf serves GET /admin/perf?minutes=N (default 60).
func (a *app) handlePerf(w http.ResponseWriter, r *http.Request) {
	if a.Collector == nil {
		writeErrorMessage(w, http.StatusNotFound, "performance collection disabled")
		return
	}
	minutes := 60
	if v := r.URL.Query().Get("minutes"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErrorMessage(w, http.StatusBadRequest, "minutes must be a positive integer")
			return
		}
		minutes = n
	}
	since := a.Now().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, a.Collector.Snapshot(since, 10))
}
