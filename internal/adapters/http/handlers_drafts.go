package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"congregation/internal/application/drafts"
	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// maxImportBytes caps uploaded attendee lists.
const maxImportBytes = 10 << 20

const draftsFailed = "Failed to update drafts"

// draftsResponse is the board, the rows already submitted for the board's day
// and the next scheduled auto-submit.
type draftsResponse struct {
	drafts.State
	Submitted      []attendanceEntry `json:"submitted"`
	NextAutoSubmit string            `json:"nextAutoSubmit,omitempty"`
}

func (a *app) writeBoard(w http.ResponseWriter, status int, state drafts.State) {
	resp := draftsResponse{State: state, Submitted: toEntries(submittedOn(a.Drafts.Submitted(), state.Date))}
	if a.AutoSubmit != nil {
		if next := a.AutoSubmit.Next(); !next.IsZero() {
			resp.NextAutoSubmit = next.Format(time.RFC3339)
		}
	}
	writeJSON(w, status, resp)
}

// submittedOn keeps the refreshed rows tracked for date. The full record set
// stays behind the session guard on GET /attendance.
func submittedOn(records []attendance.Record, date string) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, rec := range records {
		if rec.AttendanceDate == date {
			out = append(out, rec)
		}
	}
	return out
}

// boardHandler adapts a Manager call returning the new board.
func (a *app) boardHandler(w http.ResponseWriter, r *http.Request, state drafts.State, err error) {
	if err != nil {
		writeError(w, r, err, draftsFailed)
		return
	}
	a.writeBoard(w, http.StatusOK, state)
}

// handleGetDrafts handles GET /drafts.
func (a *app) handleGetDrafts(w http.ResponseWriter, r *http.Request) {
	state, err := a.Drafts.State(r.Context())
	a.boardHandler(w, r, state, err)
}

// handleAddDraft handles POST /drafts.
func (a *app) handleAddDraft(w http.ResponseWriter, r *http.Request) {
	state, err := a.Drafts.AddDraft(r.Context())
	if err != nil {
		writeError(w, r, err, draftsFailed)
		return
	}
	a.writeBoard(w, http.StatusCreated, state)
}

// handleRemoveDraft handles DELETE /drafts/{id}.
func (a *app) handleRemoveDraft(w http.ResponseWriter, r *http.Request) {
	state, err := a.Drafts.RemoveDraft(r.Context(), r.PathValue("id"))
	a.boardHandler(w, r, state, err)
}

// handleToggleEdit handles POST /drafts/{id}/edit.
func (a *app) handleToggleEdit(w http.ResponseWriter, r *http.Request) {
	state, err := a.Drafts.ToggleEdit(r.Context(), r.PathValue("id"))
	a.boardHandler(w, r, state, err)
}

// handleTogglePresent handles POST /drafts/{id}/present.
func (a *app) handleTogglePresent(w http.ResponseWriter, r *http.Request) {
	state, err := a.Drafts.TogglePresent(r.Context(), r.PathValue("id"))
	a.boardHandler(w, r, state, err)
}

// handleUpdateDraft handles PATCH /drafts/{id} with a JSON object of field → value.
// Values may be strings or booleans; fields apply in name order and stop at the first error.
func (a *app) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, err, "")
		return
	}
	if len(body) == 0 {
		writeError(w, r, failure.Validation("no fields to update"), "")
		return
	}

	fields := make([]string, 0, len(body))
	for f := range body {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	id := r.PathValue("id")
	var (
		state drafts.State
		err   error
	)
	for _, f := range fields {
		value, verr := fieldValue(body[f])
		if verr != nil {
			writeError(w, r, verr, "")
			return
		}
		if state, err = a.Drafts.UpdateField(r.Context(), id, f, value); err != nil {
			break
		}
	}
	a.boardHandler(w, r, state, err)
}

func fieldValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		if b {
			return "true", nil
		}
		return "false", nil
	}
	return "", failure.Validation("field values must be strings or booleans")
}

// handleSubmitDrafts handles POST /drafts/submit.
func (a *app) handleSubmitDrafts(w http.ResponseWriter, r *http.Request) {
	res, err := a.Drafts.SubmitPresent(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to submit attendance. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleImportDrafts handles POST /drafts/import with a multipart "file" field.
func (a *app) handleImportDrafts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, r, failure.Validation("file too large"), "")
			return
		}
		writeError(w, r, failure.Validation("Please choose a file to import"), "")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, failure.Validation("could not read uploaded file"), "")
		return
	}
	state, err := a.Drafts.Import(r.Context(), header.Filename, data)
	a.boardHandler(w, r, state, err)
}
