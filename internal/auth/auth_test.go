package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireRoles(t *testing.T) {
	h := &Handler{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mw := h.RequireRoles("admin")(next)

	tests := []struct {
		name string
		user *User
		want int
	}{
		{"no user", nil, http.StatusUnauthorized},
		{"wrong role", &User{ID: 1, Role: "editor"}, http.StatusForbidden},
		{"allowed role", &User{ID: 1, Role: "admin"}, http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tc.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tc.user))
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestReadSessionTokenPrefersCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "cookie-token"})
	req.Header.Set("Authorization", "Bearer header-token")
	if got := readSessionToken(req); got != "cookie-token" {
		t.Fatalf("expected cookie token, got %q", got)
	}
}

func TestReadSessionTokenBearerFallback(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	if got := readSessionToken(req); got != "header-token" {
		t.Fatalf("expected bearer token, got %q", got)
	}
	req.Header.Set("Authorization", "Basic abc")
	if got := readSessionToken(req); got != "" {
		t.Fatalf("expected empty token for non-bearer auth, got %q", got)
	}
}

func TestHashTokenStable(t *testing.T) {
	a := hashToken("token-a")
	b := hashToken("token-a")
	c := hashToken("token-b")
	if a != b {
		t.Fatal("same token should hash identically")
	}
	if a == c {
		t.Fatal("different tokens should hash differently")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256 length 64, got %d", len(a))
	}
}

func TestParseBoolLoose(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"1", true},
		{"true", true},
		{"yes", true},
		{"active", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"inactive", false},
		{"7", true},
		{"garbage", true},
	}
	for _, tc := range tests {
		if got := parseBoolLoose(tc.in); got != tc.want {
			t.Fatalf("parseBoolLoose(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsValidRole(t *testing.T) {
	for _, role := range []string{"admin", "editor", "reviewer"} {
		if !isValidRole(role) {
			t.Fatalf("role %q should be valid", role)
		}
	}
	for _, role := range []string{"", "root", "student", "Admin"} {
		if isValidRole(role) {
			t.Fatalf("role %q should be invalid", role)
		}
	}
}
