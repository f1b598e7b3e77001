package taxonomy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quizadmin/internal/auth"
)

func authedRequest(method, target string, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	ctx := auth.ContextWithUser(context.Background(), &auth.User{ID: 7, Username: "editor", Role: "editor", IsActive: true})
	return req.WithContext(ctx)
}

func TestNormalizeNode(t *testing.T) {
	cases := []struct {
		name    string
		in      NodeInput
		wantErr bool
	}{
		{"valid", NodeInput{ParentID: 1, Name: "Algebra", NameHi: "बीजगणित"}, false},
		{"missing parent", NodeInput{Name: "Algebra", NameHi: "बीजगणित"}, true},
		{"missing name", NodeInput{ParentID: 1, NameHi: "बीजगणित"}, true},
		{"missing hindi name", NodeInput{ParentID: 1, Name: "Algebra"}, true},
		{"whitespace only", NodeInput{ParentID: 1, Name: "  ", NameHi: "बीजगणित"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name, nameHi, err := normalizeNode(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got name=%q name_hi=%q", name, nameHi)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if name != "Algebra" || nameHi != "बीजगणित" {
				t.Fatalf("unexpected normalized values: %q / %q", name, nameHi)
			}
		})
	}
}

func TestNormalizeNodeTrims(t *testing.T) {
	name, nameHi, err := normalizeNode(NodeInput{ParentID: 3, Name: " History ", NameHi: " इतिहास "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "History" || nameHi != "इतिहास" {
		t.Fatalf("values not trimmed: %q / %q", name, nameHi)
	}
}

func TestIncludeInactive(t *testing.T) {
	cases := []struct {
		query string
		want  bool
	}{
		{"", false},
		{"include_inactive=1", true},
		{"include_inactive=true", true},
		{"include_inactive=TRUE", true},
		{"include_inactive=0", false},
		{"include_inactive=yes", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/exams?"+tc.query, nil)
		if got := includeInactive(req); got != tc.want {
			t.Errorf("query %q: got %v, want %v", tc.query, got, tc.want)
		}
	}
}

func TestCreateExamRequiresAuth(t *testing.T) {
	h := NewHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/exams", strings.NewReader(`{"name":"SSC CGL","name_hi":"एसएससी सीजीएल"}`))
	rec := httptest.NewRecorder()

	h.CreateExam(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateExamRejectsBadBody(t *testing.T) {
	h := NewHandler(nil)
	req := authedRequest(http.MethodPost, "/exams", "{not json")
	rec := httptest.NewRecorder()

	h.CreateExam(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestListSubjectsRequiresExamID(t *testing.T) {
	h := NewHandler(nil)

	for _, target := range []string{"/subjects", "/subjects?exam_id=abc", "/subjects?exam_id=-2"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		h.ListSubjects(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestUpdateExamRejectsBadID(t *testing.T) {
	h := NewHandler(nil)
	req := authedRequest(http.MethodPut, "/exams/abc", `{"name":"SSC","name_hi":"एसएससी"}`)
	rec := httptest.NewRecorder()

	h.UpdateExam(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
