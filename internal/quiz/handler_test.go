package quiz

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

type mockQuizService struct {
	createQuizFn    func(ctx context.Context, in QuizInput) (*Quiz, error)
	updateQuizFn    func(ctx context.Context, actorID, id int64, in QuizInput) (*Quiz, error)
	listQuizzesFn   func(ctx context.Context, examID int64, status string) ([]Quiz, error)
	getDetailFn     func(ctx context.Context, id int64) (*QuizDetail, error)
	deleteQuizFn    func(ctx context.Context, actorID, id int64) error
	publishFn       func(ctx context.Context, actorID, id int64) (*Quiz, error)
	unpublishFn     func(ctx context.Context, actorID, id int64) (*Quiz, error)
	createSectionFn func(ctx context.Context, in SectionInput) (*Section, error)
	updateSectionFn func(ctx context.Context, id int64, title, titleHi string) (*Section, error)
	deleteSectionFn func(ctx context.Context, id int64) error
	assignFn        func(ctx context.Context, sectionID, questionID int64) (*SectionQuestion, error)
	removeFn        func(ctx context.Context, sectionID, questionID int64) error
	reorderFn       func(ctx context.Context, sectionID int64, orderedIDs []int64) error
	moveFn          func(ctx context.Context, fromSectionID, toSectionID, questionID int64) error
}

func (m *mockQuizService) CreateQuiz(ctx context.Context, in QuizInput) (*Quiz, error) {
	if m.createQuizFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createQuizFn(ctx, in)
}

func (m *mockQuizService) UpdateQuiz(ctx context.Context, actorID, id int64, in QuizInput) (*Quiz, error) {
	if m.updateQuizFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateQuizFn(ctx, actorID, id, in)
}

func (m *mockQuizService) ListQuizzes(ctx context.Context, examID int64, status string) ([]Quiz, error) {
	if m.listQuizzesFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listQuizzesFn(ctx, examID, status)
}

func (m *mockQuizService) GetQuizDetail(ctx context.Context, id int64) (*QuizDetail, error) {
	if m.getDetailFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getDetailFn(ctx, id)
}

func (m *mockQuizService) DeleteQuiz(ctx context.Context, actorID, id int64) error {
	if m.deleteQuizFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteQuizFn(ctx, actorID, id)
}

func (m *mockQuizService) PublishQuiz(ctx context.Context, actorID, id int64) (*Quiz, error) {
	if m.publishFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.publishFn(ctx, actorID, id)
}

func (m *mockQuizService) UnpublishQuiz(ctx context.Context, actorID, id int64) (*Quiz, error) {
	if m.unpublishFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.unpublishFn(ctx, actorID, id)
}

func (m *mockQuizService) CreateSection(ctx context.Context, in SectionInput) (*Section, error) {
	if m.createSectionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createSectionFn(ctx, in)
}

func (m *mockQuizService) UpdateSection(ctx context.Context, id int64, title, titleHi string) (*Section, error) {
	if m.updateSectionFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateSectionFn(ctx, id, title, titleHi)
}

func (m *mockQuizService) DeleteSection(ctx context.Context, id int64) error {
	if m.deleteSectionFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteSectionFn(ctx, id)
}

func (m *mockQuizService) AssignQuestion(ctx context.Context, sectionID, questionID int64) (*SectionQuestion, error) {
	if m.assignFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.assignFn(ctx, sectionID, questionID)
}

func (m *mockQuizService) RemoveQuestion(ctx context.Context, sectionID, questionID int64) error {
	if m.removeFn == nil {
		return errors.New("not implemented")
	}
	return m.removeFn(ctx, sectionID, questionID)
}

func (m *mockQuizService) ReorderQuestions(ctx context.Context, sectionID int64, orderedIDs []int64) error {
	if m.reorderFn == nil {
		return errors.New("not implemented")
	}
	return m.reorderFn(ctx, sectionID, orderedIDs)
}

func (m *mockQuizService) MoveQuestion(ctx context.Context, fromSectionID, toSectionID, questionID int64) error {
	if m.moveFn == nil {
		return errors.New("not implemented")
	}
	return m.moveFn(ctx, fromSectionID, toSectionID, questionID)
}

func authedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	}
	return req.WithContext(auth.ContextWithUser(req.Context(), &auth.User{ID: 4, Role: "admin"}))
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCreateQuiz(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		createQuizFn: func(ctx context.Context, in QuizInput) (*Quiz, error) {
			if in.ExamID != 2 || in.CreatedBy != 4 {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &Quiz{ID: 10, ExamID: 2, Status: StatusDraft}, nil
		},
	}}

	body, _ := json.Marshal(quizRequest{ExamID: 2, Title: "Mock Test 1", TitleHi: "मॉक टेस्ट 1", DurationMinutes: 60})
	w := httptest.NewRecorder()
	h.Create(w, authedRequest(http.MethodPost, "/api/v1/quizzes", body))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestCreateQuizRequiresAuth(t *testing.T) {
	h := &Handler{svc: &mockQuizService{}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quizzes", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPublishQuizStructuralFailure(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		publishFn: func(ctx context.Context, actorID, id int64) (*Quiz, error) {
			return nil, ErrQuizNotPublishable
		},
	}}

	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/quizzes/3/publish", nil), "id", "3")
	w := httptest.NewRecorder()
	h.Publish(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestAssignQuestionRejectsUnpublished(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		assignFn: func(ctx context.Context, sectionID, questionID int64) (*SectionQuestion, error) {
			return nil, ErrNotPublished
		},
	}}

	body, _ := json.Marshal(assignRequest{QuestionID: 77})
	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/sections/5/questions", body), "id", "5")
	w := httptest.NewRecorder()
	h.AssignQuestion(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestAssignQuestionDuplicateConflict(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		assignFn: func(ctx context.Context, sectionID, questionID int64) (*SectionQuestion, error) {
			return nil, ErrAlreadyAssigned
		},
	}}

	body, _ := json.Marshal(assignRequest{QuestionID: 77})
	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/sections/5/questions", body), "id", "5")
	w := httptest.NewRecorder()
	h.AssignQuestion(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestReorderQuestionsPassesIDs(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		reorderFn: func(ctx context.Context, sectionID int64, orderedIDs []int64) error {
			if sectionID != 5 {
				t.Fatalf("unexpected section id: %d", sectionID)
			}
			if len(orderedIDs) != 3 || orderedIDs[0] != 9 || orderedIDs[2] != 7 {
				t.Fatalf("unexpected order: %v", orderedIDs)
			}
			return nil
		},
	}}

	body, _ := json.Marshal(reorderRequest{QuestionIDs: []int64{9, 8, 7}})
	req := withURLParam(authedRequest(http.MethodPut, "/api/v1/sections/5/questions/order", body), "id", "5")
	w := httptest.NewRecorder()
	h.ReorderQuestions(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestReorderQuestionsNotPermutation(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		reorderFn: func(ctx context.Context, sectionID int64, orderedIDs []int64) error {
			return ErrNotPermutation
		},
	}}

	body, _ := json.Marshal(reorderRequest{QuestionIDs: []int64{1, 1}})
	req := withURLParam(authedRequest(http.MethodPut, "/api/v1/sections/5/questions/order", body), "id", "5")
	w := httptest.NewRecorder()
	h.ReorderQuestions(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
}

func TestMoveQuestion(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		moveFn: func(ctx context.Context, fromSectionID, toSectionID, questionID int64) error {
			if fromSectionID != 5 || toSectionID != 6 || questionID != 77 {
				t.Fatalf("unexpected args: %d %d %d", fromSectionID, toSectionID, questionID)
			}
			return nil
		},
	}}

	body, _ := json.Marshal(moveRequest{QuestionID: 77, ToSectionID: 6})
	req := withURLParam(authedRequest(http.MethodPost, "/api/v1/sections/5/questions/move", body), "id", "5")
	w := httptest.NewRecorder()
	h.MoveQuestion(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestGetQuizDetailNotFound(t *testing.T) {
	h := &Handler{svc: &mockQuizService{
		getDetailFn: func(ctx context.Context, id int64) (*QuizDetail, error) {
			return nil, ErrQuizNotFound
		},
	}}

	req := withURLParam(authedRequest(http.MethodGet, "/api/v1/quizzes/99", nil), "id", "99")
	w := httptest.NewRecorder()
	h.Get(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListQuizzesRejectsBadExamID(t *testing.T) {
	h := &Handler{svc: &mockQuizService{}}
	req := authedRequest(http.MethodGet, "/api/v1/quizzes?exam_id=zero", nil)
	w := httptest.NewRecorder()
	h.List(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
