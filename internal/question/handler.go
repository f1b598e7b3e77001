package question

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"quizadmin/internal/app/apiresp"
	"quizadmin/internal/auth"
	"quizadmin/internal/content"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc         questionService
	exportLimit int
}

type questionService interface {
	CreateQuestion(ctx context.Context, in QuestionInput) (*Question, error)
	UpdateQuestion(ctx context.Context, id int64, in QuestionInput) (*Question, error)
	GetQuestion(ctx context.Context, id int64) (*Question, error)
	ListQuestions(ctx context.Context, f ListFilter) ([]Question, error)
	PublishQuestion(ctx context.Context, id int64) (*Question, error)
	UnpublishQuestion(ctx context.Context, id int64) (*Question, error)
	DeleteQuestion(ctx context.Context, id int64) error
	CreateGroup(ctx context.Context, in GroupInput) (*ComprehensionGroup, error)
	UpdateGroup(ctx context.Context, id int64, in GroupInput) (*ComprehensionGroup, error)
	GetGroup(ctx context.Context, id int64) (*ComprehensionGroup, []Question, error)
	ListGroups(ctx context.Context, subtopicID int64) ([]ComprehensionGroup, error)
	DeleteGroup(ctx context.Context, id int64) error
	ExportQuestionsExcel(ctx context.Context, f ListFilter, limit int) ([]byte, error)
	ExportQuestionsCSV(ctx context.Context, f ListFilter, limit int) ([]byte, error)
}

type apiResponse struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type questionRequest struct {
	SubtopicID    int64                    `json:"subtopic_id"`
	GroupID       *int64                   `json:"group_id"`
	Content       []content.ContentBlock   `json:"question_content"`
	Options       []content.QuestionOption `json:"options"`
	CorrectOption int                      `json:"correct_option"`
	Explanation   []content.ContentBlock   `json:"explanation_content"`
	Difficulty    int                      `json:"difficulty"`
}

type groupRequest struct {
	SubtopicID int64                  `json:"subtopic_id"`
	Title      string                 `json:"title"`
	TitleHi    string                 `json:"title_hi"`
	Passage    []content.ContentBlock `json:"passage_content"`
}

// ExportRowLimit caps spreadsheet exports so a filter matching the whole
// bank cannot hold a worker hostage.
type HandlerConfig struct {
	ExportRowLimit int
}

func NewHandler(svc *Service, cfg HandlerConfig) *Handler {
	if cfg.ExportRowLimit <= 0 {
		cfg.ExportRowLimit = 10000
	}
	return &Handler{svc: svc, exportLimit: cfg.ExportRowLimit}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.CreateQuestion(r.Context(), QuestionInput{
		SubtopicID:    req.SubtopicID,
		GroupID:       req.GroupID,
		Content:       req.Content,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Explanation:   req.Explanation,
		Difficulty:    req.Difficulty,
		CreatedBy:     user.ID,
	})
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.UpdateQuestion(r.Context(), id, QuestionInput{
		SubtopicID:    req.SubtopicID,
		GroupID:       req.GroupID,
		Content:       req.Content,
		Options:       req.Options,
		CorrectOption: req.CorrectOption,
		Explanation:   req.Explanation,
		Difficulty:    req.Difficulty,
		CreatedBy:     user.ID,
	})
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	item, err := h.svc.GetQuestion(r.Context(), id)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		return
	}
	items, err := h.svc.ListQuestions(r.Context(), f)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	item, err := h.svc.PublishQuestion(r.Context(), id)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Unpublish(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	item, err := h.svc.UnpublishQuestion(r.Context(), id)
	if err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid question id"})
		return
	}
	if err := h.svc.DeleteQuestion(r.Context(), id); err != nil {
		h.writeQuestionError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "", "xlsx":
		data, err := h.svc.ExportQuestionsExcel(r.Context(), f, h.exportLimit)
		if err != nil {
			h.writeQuestionError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="questions.xlsx"`)
		_, _ = w.Write(data)
	case "csv":
		data, err := h.svc.ExportQuestionsCSV(r.Context(), f, h.exportLimit)
		if err != nil {
			h.writeQuestionError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="questions.csv"`)
		_, _ = w.Write(data)
	default:
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "format must be xlsx or csv"})
	}
}

func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.CreateGroup(r.Context(), GroupInput{
		SubtopicID: req.SubtopicID,
		Title:      req.Title,
		TitleHi:    req.TitleHi,
		Passage:    req.Passage,
		CreatedBy:  user.ID,
	})
	if err != nil {
		h.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, apiResponse{OK: true, Data: item})
}

func (h *Handler) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeJSON(w, r, http.StatusUnauthorized, apiResponse{OK: false, Error: "unauthorized"})
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid group id"})
		return
	}
	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid request body"})
		return
	}

	item, err := h.svc.UpdateGroup(r.Context(), id, GroupInput{
		SubtopicID: req.SubtopicID,
		Title:      req.Title,
		TitleHi:    req.TitleHi,
		Passage:    req.Passage,
		CreatedBy:  user.ID,
	})
	if err != nil {
		h.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: item})
}

func (h *Handler) GetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid group id"})
		return
	}
	group, questions, err := h.svc.GetGroup(r.Context(), id)
	if err != nil {
		h.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]any{
		"group":     group,
		"questions": questions,
	}})
}

func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	subtopicID, err := strconv.ParseInt(strings.TrimSpace(r.URL.Query().Get("subtopic_id")), 10, 64)
	if err != nil || subtopicID <= 0 {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "subtopic_id is required and must be positive"})
		return
	}
	items, err := h.svc.ListGroups(r.Context(), subtopicID)
	if err != nil {
		h.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: items})
}

func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: "invalid group id"})
		return
	}
	if err := h.svc.DeleteGroup(r.Context(), id); err != nil {
		h.writeGroupError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, apiResponse{OK: true, Data: map[string]string{"status": "deleted"}})
}

func (h *Handler) writeQuestionError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		apiresp.WriteValidation(w, r, verr.Messages)
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrQuestionNotFound), errors.Is(err, ErrSubtopicNotFound), errors.Is(err, ErrGroupNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func (h *Handler) writeGroupError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		apiresp.WriteValidation(w, r, verr.Messages)
	case errors.Is(err, ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, apiResponse{OK: false, Error: err.Error()})
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrSubtopicNotFound):
		writeJSON(w, r, http.StatusNotFound, apiResponse{OK: false, Error: err.Error()})
	default:
		writeJSON(w, r, http.StatusInternalServerError, apiResponse{OK: false, Error: "internal error"})
	}
}

func filterFromQuery(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	var f ListFilter
	if raw := strings.TrimSpace(q.Get("subtopic_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, errors.New("subtopic_id must be a positive integer")
		}
		f.SubtopicID = id
	}
	f.Status = strings.TrimSpace(q.Get("status"))
	if raw := strings.TrimSpace(q.Get("difficulty")); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return f, errors.New("difficulty must be an integer")
		}
		f.Difficulty = d
	}
	f.Query = q.Get("q")
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = n
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, errors.New("offset must be a non-negative integer")
		}
		f.Offset = n
	}
	return f, nil
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
