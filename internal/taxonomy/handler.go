package taxonomy

import (
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
	svc *Service
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type examRequest struct {
	Name        string `json:"name"`
	NameHi      string `json:"name_hi"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type nodeRequest struct {
	ExamID    int64  `json:"exam_id,omitempty"`
	SubjectID int64  `json:"subject_id,omitempty"`
	TopicID   int64  `json:"topic_id,omitempty"`
	Name      string `json:"name"`
	NameHi    string `json:"name_hi"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) CreateExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.CreateExam(r.Context(), user.ID, ExamInput{
		Name:        req.Name,
		NameHi:      req.NameHi,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		case errors.Is(err, ErrDuplicateCode):
			writeJSON(w, r, http.StatusConflict, apiResponse{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) ListExams(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListExams(r.Context(), !includeInactive(r))
	if err != nil {
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) UpdateExam(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid exam id"})
		return
	}
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.UpdateExam(r.Context(), user.ID, id, ExamInput{
		Name:        req.Name,
		NameHi:      req.NameHi,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		case errors.Is(err, ErrExamNotFound):
			writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) DeactivateExam(w http.ResponseWriter, r *http.Request) {
	h.deactivate(w, r, func(actorID, id int64) error {
		return h.svc.DeactivateExam(r.Context(), actorID, id)
	}, ErrExamNotFound)
}

func (h *Handler) CreateSubject(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, func(actorID int64, in NodeInput) (any, error) {
		return h.svc.CreateSubject(r.Context(), actorID, in)
	}, func(req nodeRequest) int64 { return req.ExamID }, ErrExamNotFound)
}

func (h *Handler) ListSubjects(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, "exam_id", func(parentID int64, activeOnly bool) (any, error) {
		return h.svc.ListSubjects(r.Context(), parentID, activeOnly)
	})
}

func (h *Handler) UpdateSubject(w http.ResponseWriter, r *http.Request) {
	h.updateNode(w, r, func(actorID, id int64, in NodeInput) (any, error) {
		return h.svc.UpdateSubject(r.Context(), actorID, id, in)
	}, func(req nodeRequest) int64 { return req.ExamID }, ErrSubjectNotFound)
}

func (h *Handler) DeactivateSubject(w http.ResponseWriter, r *http.Request) {
	h.deactivate(w, r, func(actorID, id int64) error {
		return h.svc.DeactivateSubject(r.Context(), actorID, id)
	}, ErrSubjectNotFound)
}

func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, func(actorID int64, in NodeInput) (any, error) {
		return h.svc.CreateTopic(r.Context(), actorID, in)
	}, func(req nodeRequest) int64 { return req.SubjectID }, ErrSubjectNotFound)
}

func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, "subject_id", func(parentID int64, activeOnly bool) (any, error) {
		return h.svc.ListTopics(r.Context(), parentID, activeOnly)
	})
}

func (h *Handler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	h.updateNode(w, r, func(actorID, id int64, in NodeInput) (any, error) {
		return h.svc.UpdateTopic(r.Context(), actorID, id, in)
	}, func(req nodeRequest) int64 { return req.SubjectID }, ErrTopicNotFound)
}

func (h *Handler) DeactivateTopic(w http.ResponseWriter, r *http.Request) {
	h.deactivate(w, r, func(actorID, id int64) error {
		return h.svc.DeactivateTopic(r.Context(), actorID, id)
	}, ErrTopicNotFound)
}

func (h *Handler) CreateSubtopic(w http.ResponseWriter, r *http.Request) {
	h.createNode(w, r, func(actorID int64, in NodeInput) (any, error) {
		return h.svc.CreateSubtopic(r.Context(), actorID, in)
	}, func(req nodeRequest) int64 { return req.TopicID }, ErrTopicNotFound)
}

func (h *Handler) ListSubtopics(w http.ResponseWriter, r *http.Request) {
	h.listNodes(w, r, "topic_id", func(parentID int64, activeOnly bool) (any, error) {
		return h.svc.ListSubtopics(r.Context(), parentID, activeOnly)
	})
}

func (h *Handler) UpdateSubtopic(w http.ResponseWriter, r *http.Request) {
	h.updateNode(w, r, func(actorID, id int64, in NodeInput) (any, error) {
		return h.svc.UpdateSubtopic(r.Context(), actorID, id, in)
	}, func(req nodeRequest) int64 { return req.TopicID }, ErrSubtopicNotFound)
}

func (h *Handler) DeactivateSubtopic(w http.ResponseWriter, r *http.Request) {
	h.deactivate(w, r, func(actorID, id int64) error {
		return h.svc.DeactivateSubtopic(r.Context(), actorID, id)
	}, ErrSubtopicNotFound)
}

func (h *Handler) createNode(w http.ResponseWriter, r *http.Request, create func(int64, NodeInput) (any, error), parent func(nodeRequest) int64, parentErr error) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := create(user.ID, NodeInput{ParentID: parent(req), Name: req.Name, NameHi: req.NameHi})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		case errors.Is(err, parentErr):
			writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) listNodes(w http.ResponseWriter, r *http.Request, parentParam string, list func(int64, bool) (any, error)) {
	raw := strings.TrimSpace(r.URL.Query().Get(parentParam))
	parentID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parentID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: parentParam + " is required and must be positive"})
		return
	}

	items, err := list(parentID, !includeInactive(r))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
			return
		}
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) updateNode(w http.ResponseWriter, r *http.Request, update func(int64, int64, NodeInput) (any, error), parent func(nodeRequest) int64, notFound error) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid id"})
		return
	}
	var req nodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := update(user.ID, id, NodeInput{ParentID: parent(req), Name: req.Name, NameHi: req.NameHi})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		case errors.Is(err, notFound), errors.Is(err, ErrExamNotFound), errors.Is(err, ErrSubjectNotFound), errors.Is(err, ErrTopicNotFound):
			writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request, fn func(int64, int64) error, notFound error) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid id"})
		return
	}

	if err := fn(user.ID, id); err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		case errors.Is(err, notFound):
			writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
		default:
			writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
		}
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deactivated"}})
}

func pathID(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func includeInactive(r *http.Request) bool {
	v := strings.TrimSpace(r.URL.Query().Get("include_inactive"))
	return v == "1" || strings.EqualFold(v, "true")
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload apiResponse) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}
