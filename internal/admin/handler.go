package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quizadmin/internal/app/apiresp"
	"quizadmin/internal/auth"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc adminService
}

type adminService interface {
	ListFeedback(ctx context.Context, status string, limit, offset int) ([]Feedback, error)
	ResolveFeedback(ctx context.Context, actorID, id int64, note string) error
	ListQuestionReports(ctx context.Context, status string, questionID int64, limit, offset int) ([]QuestionReport, error)
	ResolveQuestionReport(ctx context.Context, actorID, id int64, note string) error
	ListAuditLogs(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type resolveRequest struct {
	Note string `json:"note"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.DashboardStats(r.Context())
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: stats})
}

func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListFeedback(r.Context(), q.Get("status"), intQuery(q.Get("limit")), intQuery(q.Get("offset")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) ResolveFeedback(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid feedback id"})
		return
	}
	var req resolveRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.svc.ResolveFeedback(r.Context(), actor.ID, id, req.Note); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "resolved"}})
}

func (h *Handler) ListQuestionReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var questionID int64
	if raw := strings.TrimSpace(q.Get("question_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "question_id must be a positive integer"})
			return
		}
		questionID = id
	}
	items, err := h.svc.ListQuestionReports(r.Context(), q.Get("status"), questionID, intQuery(q.Get("limit")), intQuery(q.Get("offset")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) ResolveQuestionReport(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid report id"})
		return
	}
	var req resolveRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.svc.ResolveQuestionReport(r.Context(), actor.ID, id, req.Note); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "resolved"}})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f AuditFilter
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "user_id must be a positive integer"})
			return
		}
		f.UserID = id
	}
	f.Action = q.Get("action")
	f.EntityType = q.Get("entity_type")
	f.Limit = intQuery(q.Get("limit"))
	f.Offset = intQuery(q.Get("offset"))

	items, err := h.svc.ListAuditLogs(r.Context(), f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrFeedbackNotFound), errors.Is(err, ErrReportNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrAlreadyResolved):
		writeJSON(w, r, http.StatusConflict, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func intQuery(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
