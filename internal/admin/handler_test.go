package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizadmin/internal/auth"

	"github.com/go-chi/chi/v5"
)

type mockAdminService struct {
	listFeedbackFn   func(ctx context.Context, status string, limit, offset int) ([]Feedback, error)
	resolveFbFn      func(ctx context.Context, actorID, id int64, note string) error
	listReportsFn    func(ctx context.Context, status string, questionID int64, limit, offset int) ([]QuestionReport, error)
	resolveReportFn  func(ctx context.Context, actorID, id int64, note string) error
	listAuditFn      func(ctx context.Context, f AuditFilter) ([]AuditEntry, error)
	dashboardStatsFn func(ctx context.Context) (*DashboardStats, error)
}

func (m *mockAdminService) ListFeedback(ctx context.Context, status string, limit, offset int) ([]Feedback, error) {
	if m.listFeedbackFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFeedbackFn(ctx, status, limit, offset)
}

func (m *mockAdminService) ResolveFeedback(ctx context.Context, actorID, id int64, note string) error {
	if m.resolveFbFn == nil {
		return errors.New("not implemented")
	}
	return m.resolveFbFn(ctx, actorID, id, note)
}

func (m *mockAdminService) ListQuestionReports(ctx context.Context, status string, questionID int64, limit, offset int) ([]QuestionReport, error) {
	if m.listReportsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listReportsFn(ctx, status, questionID, limit, offset)
}

func (m *mockAdminService) ResolveQuestionReport(ctx context.Context, actorID, id int64, note string) error {
	if m.resolveReportFn == nil {
		return errors.New("not implemented")
	}
	return m.resolveReportFn(ctx, actorID, id, note)
}

func (m *mockAdminService) ListAuditLogs(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	if m.listAuditFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listAuditFn(ctx, f)
}

func (m *mockAdminService) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	if m.dashboardStatsFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.dashboardStatsFn(ctx)
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	}
	return req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 2, Role: "admin"}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestDashboard(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		dashboardStatsFn: func(ctx context.Context) (*DashboardStats, error) {
			return &DashboardStats{QuestionCount: 120, PublishedQuestions: 80}, nil
		},
	}}

	w := httptest.NewRecorder()
	h.Dashboard(w, authedRequest(http.MethodGet, "/api/v1/admin/dashboard", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var res struct {
		Data DashboardStats `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Data.QuestionCount != 120 {
		t.Fatalf("unexpected stats: %+v", res.Data)
	}
}

func TestResolveFeedbackPassesActorAndNote(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		resolveFbFn: func(ctx context.Context, actorID, id int64, note string) error {
			if actorID != 2 || id != 14 || note != "duplicate of #3" {
				t.Fatalf("unexpected args: actor=%d id=%d note=%q", actorID, id, note)
			}
			return nil
		},
	}}

	body, _ := json.Marshal(resolveRequest{Note: "duplicate of #3"})
	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/admin/feedback/14/resolve", body), "id", "14")
	w := httptest.NewRecorder()
	h.ResolveFeedback(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestResolveFeedbackAlreadyResolved(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		resolveFbFn: func(ctx context.Context, actorID, id int64, note string) error {
			return ErrAlreadyResolved
		},
	}}

	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/admin/feedback/14/resolve", []byte(`{}`)), "id", "14")
	w := httptest.NewRecorder()
	h.ResolveFeedback(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestResolveQuestionReportNotFound(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		resolveReportFn: func(ctx context.Context, actorID, id int64, note string) error {
			return ErrReportNotFound
		},
	}}

	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/admin/question-reports/9/resolve", []byte(`{}`)), "id", "9")
	w := httptest.NewRecorder()
	h.ResolveQuestionReport(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListQuestionReportsFilters(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		listReportsFn: func(ctx context.Context, status string, questionID int64, limit, offset int) ([]QuestionReport, error) {
			if status != "open" || questionID != 5 {
				t.Fatalf("unexpected filter: status=%q question=%d", status, questionID)
			}
			return []QuestionReport{{ID: 1, QuestionID: 5}}, nil
		},
	}}

	w := httptest.NewRecorder()
	h.ListQuestionReports(w, authedRequest(http.MethodGet, "/api/v1/admin/question-reports?status=open&question_id=5", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestListAuditLogsRejectsBadUserID(t *testing.T) {
	h := &Handler{svc: &mockAdminService{}}
	w := httptest.NewRecorder()
	h.ListAuditLogs(w, authedRequest(http.MethodGet, "/api/v1/admin/audit-logs?user_id=-4", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListFeedbackInvalidStatus(t *testing.T) {
	h := &Handler{svc: &mockAdminService{
		listFeedbackFn: func(ctx context.Context, status string, limit, offset int) ([]Feedback, error) {
			return nil, ErrInvalidInput
		},
	}}

	w := httptest.NewRecorder()
	h.ListFeedback(w, authedRequest(http.MethodGet, "/api/v1/admin/feedback?status=weird", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
