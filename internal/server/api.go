// ABOUTME: HTTP API handlers mapping field changes and entry submissions onto the tracker
// ABOUTME: Every change saves immediately; responses carry the save outcome and completion

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/2389/lifeos/internal/blueprint"
	"github.com/2389/lifeos/internal/report"
	"github.com/2389/lifeos/internal/snapshot"
	"github.com/2389/lifeos/internal/tracker"
)

// maxBodySize caps request bodies, including imported snapshots.
const maxBodySize = 5 << 20

// SaveResponse is the JSON response for every write.
type SaveResponse struct {
	Saved      bool               `json:"saved"`
	SavedAt    *time.Time         `json:"savedAt,omitempty"`
	SaveError  string             `json:"saveError,omitempty"`
	Completion tracker.Completion `json:"completion"`
	Gauges     []tracker.Gauge    `json:"gauges"`
}

func newSaveResponse(res tracker.SaveResult) SaveResponse {
	resp := SaveResponse{
		Saved:      res.Err == nil,
		Completion: res.Completion,
		Gauges:     res.Completion.Gauges(),
	}
	if !res.SavedAt.IsZero() {
		saved := res.SavedAt
		resp.SavedAt = &saved
	}
	if res.Err != nil {
		resp.SaveError = res.Err.Error()
	}
	return resp
}

// DailyRequest is the JSON body for PUT /api/daily. Omitted fields are left unchanged.
type DailyRequest struct {
	Focus           map[string]bool `json:"focus,omitempty"`
	Tasks           *[]string       `json:"tasks,omitempty"`
	SpiritualAnchor *string         `json:"spiritualAnchor,omitempty"`
	Win             *string         `json:"win,omitempty"`
}

// WeeklyRequest is the JSON body for PUT /api/weekly/{day}.
type WeeklyRequest struct {
	Note string `json:"note"`
}

// MonthlyRequest is the JSON body for PUT /api/monthly. Omitted fields are left unchanged.
type MonthlyRequest struct {
	Checklist map[string]bool `json:"checklist,omitempty"`
	Prompts   *[]string       `json:"prompts,omitempty"`
}

// BookResponse is the JSON response for POST /api/reading.
type BookResponse struct {
	Book snapshot.Book `json:"book"`
	SaveResponse
}

// ContactResponse is the JSON response for POST /api/people.
type ContactResponse struct {
	Contact snapshot.Contact `json:"contact"`
	SaveResponse
}

// BlueprintResponse is the JSON response for GET /api/blueprint.
type BlueprintResponse struct {
	Week      []blueprint.Day           `json:"week"`
	Checklist []blueprint.ChecklistItem `json:"checklist"`
	FocusTags []string                  `json:"focusTags"`
	Prompts   []string                  `json:"prompts"`
}

// ValidationErrorResponse is the JSON response for rejected imports.
type ValidationErrorResponse struct {
	Error  string                `json:"error"`
	Fields []snapshot.FieldError `json:"fields,omitempty"`
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}

func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// handleGetSnapshot handles GET /api/snapshot.
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.tracker.Export())
}

// handlePutSnapshot handles PUT /api/snapshot by importing the body.
func (s *Server) handlePutSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		s.sendJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	res, err := s.tracker.Import(r.Context(), data)
	var verr *snapshot.ValidationError
	var derr *snapshot.DecodeError
	switch {
	case errors.As(err, &verr):
		s.sendJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "snapshot does not match schema",
			Fields: verr.Errors,
		})
		return
	case errors.Is(err, snapshot.ErrUnsupportedVersion):
		s.sendJSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.As(err, &derr):
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("import failed", "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "import failed")
		return
	}

	s.sendJSON(w, http.StatusOK, newSaveResponse(res))
}

// handleSchema handles GET /api/schema, the JSON Schema PUT /api/snapshot enforces.
func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/schema+json")
	_, _ = w.Write(snapshot.Schema())
}

// handleCompletion handles GET /api/completion.
func (s *Server) handleCompletion(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.tracker.Status())
}

// handleBlueprint handles GET /api/blueprint.
func (s *Server) handleBlueprint(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, BlueprintResponse{
		Week:      blueprint.Week,
		Checklist: blueprint.Checklist,
		FocusTags: blueprint.FocusTags,
		Prompts:   blueprint.Prompts,
	})
}

// handleDaily handles PUT /api/daily.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	var req DailyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	for tag := range req.Focus {
		if !blueprint.IsFocusTag(tag) {
			s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown focus tag %q", tag))
			return
		}
	}
	if req.Tasks != nil && len(*req.Tasks) > blueprint.TaskSlots {
		s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("at most %d tasks", blueprint.TaskSlots))
		return
	}

	res := s.tracker.Change(r.Context(), func(f *tracker.Fields) {
		for tag, active := range req.Focus {
			f.SetFocus(tag, active)
		}
		if req.Tasks != nil {
			f.Tasks = [blueprint.TaskSlots]string{}
			copy(f.Tasks[:], *req.Tasks)
		}
		if req.SpiritualAnchor != nil {
			f.SpiritualAnchor = *req.SpiritualAnchor
		}
		if req.Win != nil {
			f.Win = *req.Win
		}
	})
	s.sendJSON(w, http.StatusOK, newSaveResponse(res))
}

// handleWeekly handles PUT /api/weekly/{day}.
func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	day := r.PathValue("day")
	if !blueprint.IsDay(day) {
		s.sendJSONError(w, http.StatusNotFound, fmt.Sprintf("unknown day %q", day))
		return
	}

	var req WeeklyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.tracker.Change(r.Context(), func(f *tracker.Fields) {
		f.SetNote(day, req.Note)
	})
	s.sendJSON(w, http.StatusOK, newSaveResponse(res))
}

// handleMonthly handles PUT /api/monthly.
func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	var req MonthlyRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	for slug := range req.Checklist {
		if !blueprint.IsChecklistSlug(slug) {
			s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("unknown checklist item %q", slug))
			return
		}
	}
	if req.Prompts != nil && len(*req.Prompts) > blueprint.PromptSlots {
		s.sendJSONError(w, http.StatusBadRequest, fmt.Sprintf("at most %d prompts", blueprint.PromptSlots))
		return
	}

	res := s.tracker.Change(r.Context(), func(f *tracker.Fields) {
		for slug, checked := range req.Checklist {
			f.SetChecked(slug, checked)
		}
		if req.Prompts != nil {
			f.Prompts = [blueprint.PromptSlots]string{}
			copy(f.Prompts[:], *req.Prompts)
		}
	})
	s.sendJSON(w, http.StatusOK, newSaveResponse(res))
}

// handleAddBook handles POST /api/reading.
func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var form tracker.BookForm
	if err := decodeBody(w, r, &form); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, ok := s.tracker.AddBook(r.Context(), form)
	if !ok {
		s.sendJSONError(w, http.StatusUnprocessableEntity, "title is required")
		return
	}
	s.sendJSON(w, http.StatusCreated, BookResponse{Book: book, SaveResponse: s.lastSave()})
}

// handleAddPerson handles POST /api/people.
func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var form tracker.ContactForm
	if err := decodeBody(w, r, &form); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	contact, ok := s.tracker.AddPerson(r.Context(), form)
	if !ok {
		s.sendJSONError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	s.sendJSON(w, http.StatusCreated, ContactResponse{Contact: contact, SaveResponse: s.lastSave()})
}

// lastSave reports the tracker's save state after an append.
func (s *Server) lastSave() SaveResponse {
	st := s.tracker.Status()
	return SaveResponse{
		Saved:      st.LastError == "",
		SavedAt:    st.LastSaved,
		SaveError:  st.LastError,
		Completion: st.Completion,
		Gauges:     st.Gauges,
	}
}

// handleReportMarkdown handles GET /report.md.
func (s *Server) handleReportMarkdown(w http.ResponseWriter, r *http.Request) {
	md := report.Markdown(s.tracker.Export(), s.tracker.Completion(), s.now())
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write(md)
}

// handleReportHTML handles GET /report.
func (s *Server) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	md := report.Markdown(s.tracker.Export(), s.tracker.Completion(), s.now())
	page, err := report.Page("Life OS digest", md)
	if err != nil {
		s.logger.Error("rendering report failed", "error", err)
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}
