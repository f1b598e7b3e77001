package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNormalizedPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/questions/42", "/api/v1/questions/{id}"},
		{"/api/v1/quizzes/7/sections/3", "/api/v1/quizzes/{id}/sections/{id}"},
		{"/api/v1/taxonomy/exams", "/api/v1/taxonomy/exams"},
		{"", "/"},
	}
	for _, tc := range tests {
		if got := normalizedPath(tc.in); got != tc.want {
			t.Fatalf("normalizedPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractEntityID(t *testing.T) {
	if got := extractEntityID("/api/v1/questions/42/publish", "questions"); got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
	if got := extractEntityID("/api/v1/quizzes/9", "quizzes"); got != 9 {
		t.Fatalf("want 9, got %d", got)
	}
	if got := extractEntityID("/api/v1/taxonomy/exams", "questions"); got != 0 {
		t.Fatalf("want 0 for absent segment, got %d", got)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	c := NewCollector(nil)
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	c.MetricsHandler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `quizadmin_http_requests_total{method="POST",path="/api/v1/questions",status="201"} 2`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
