package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brk3/habitboard/internal/config"
	"github.com/brk3/habitboard/internal/storage"
)

func TestLogin_RedirectsToIDP(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/auth/login/test?return=/habits/", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusFound {
		t.Fatalf("got %d want 302", rr.Code)
	}
	loc, err := rr.Result().Location()
	if err != nil {
		t.Fatalf("error getting location: %v", err)
	}
	if loc.Path != "/auth" {
		t.Fatalf("got redirect to %s, want /auth on test host", loc.String())
	}
	q := loc.Query()
	if q.Get("code_challenge_method") != "S256" || q.Get("code_challenge") == "" || q.Get("state") == "" {
		t.Fatalf("missing PKCE parameters in %s", loc.String())
	}
}

func TestLogin_UnknownProvider(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())
	rr := mockRequest(h, http.MethodGet, "/auth/login/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("got %d want 404", rr.Code)
	}
}

func TestCallback_InvalidState(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())
	rr := mockRequest(h, http.MethodGet, "/auth/callback/test?state=abc&code=xyz", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400", rr.Code)
	}
	rr = mockRequest(h, http.MethodGet, "/auth/callback/test", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("got %d want 400 without state", rr.Code)
	}
}

func TestSimpleLogin_ListsProviders(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())
	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), `action="/auth/login/test"`) {
		t.Fatalf("login page missing provider form: %s", rr.Body.String())
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())
	rr := mockRequest(h, http.MethodPost, "/auth/logout", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("got %d want 204", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}

func TestAuthEnabled_NotLoggedIn_Forbidden(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
	req.Header.Set("Accept", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
	if rr.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("missing WWW-Authenticate header")
	}
}

func TestAuthEnabled_NotLoggedIn_Redirect(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
	req.Header.Set("Accept", "text/html")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound {
		t.Fatalf("got %d want 302", rr.Code)
	}
}

func TestAuthEnabled_BearerUnknownProvider(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/habits/", nil)
	req.Header.Set("Authorization", "Bearer other:eyJhbGciOi")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
}

func TestParseProviderToken(t *testing.T) {
	tests := []struct {
		in       string
		provider string
		jwt      string
		wantErr  bool
	}{
		{"google:abc.def", "google", "abc.def", false},
		{"google:abc:def", "google", "abc:def", false},
		{"", "", "", true},
		{"nocolon", "", "", true},
		{":abc", "", "", true},
		{"google:", "", "", true},
	}
	for _, tt := range tests {
		p, j, err := parseProviderToken(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseProviderToken(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if p != tt.provider || j != tt.jwt {
			t.Errorf("parseProviderToken(%q) = %q, %q", tt.in, p, j)
		}
	}
}

func TestSafeReturnPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "/"},
		{"/habits/h1", "/habits/h1"},
		{"/habits/h1/overview?year=2025", "/habits/h1/overview?year=2025"},
		{"https://evil.example/", "/"},
		{"//evil.example/phish", "/"},
	}
	for _, tt := range tests {
		if got := safeReturnPath(tt.in); got != tt.want {
			t.Errorf("safeReturnPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetUserID_WithValidUser(t *testing.T) {
	claims := map[string]any{
		"iss": "https://test-issuer.com",
		"sub": "test-subject",
	}
	user := &User{
		Subject: "test-subject",
		Email:   "test@example.com",
		UserID:  userIDFromClaims(claims),
		Claims:  claims,
	}

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), userCtxKey{}, user))

	userID := userIDFromContext(true, req)
	if !strings.HasPrefix(userID, "user-") {
		t.Fatalf("userIDFromContext returned %q, expected to start with 'user-'", userID)
	}
	if userIDFromClaims(map[string]any{"iss": "https://test-issuer.com"}) != "" {
		t.Fatal("claims without sub should not produce a user ID")
	}
}

func TestGetUserID_AuthDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if got := userIDFromContext(false, req); got != "anonymous" {
		t.Fatalf("userIDFromContext returned %q, expected 'anonymous'", got)
	}
}

func TestGetUserID_NoUserInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if got := userIDFromContext(true, req); got != "" {
		t.Fatalf("userIDFromContext returned %q, expected empty string when no user in context", got)
	}
}

func TestStateStore_SingleUse(t *testing.T) {
	s := NewStateStore(stateTTL)
	s.Put("k", authState{Verifier: "v", Return: "/"})

	got, ok := s.GetAndDelete("k")
	if !ok || got.Verifier != "v" {
		t.Fatalf("got %+v, %v", got, ok)
	}
	if _, ok := s.GetAndDelete("k"); ok {
		t.Fatal("state should only be usable once")
	}
}

func newTestServerWithAuth(t *testing.T, st storage.Store) http.Handler {
	mockOIDC := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.well-known/openid-configuration" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			baseURL := "http://" + r.Host
			_, _ = w.Write([]byte(`{
				"issuer": "` + baseURL + `",
				"authorization_endpoint": "` + baseURL + `/auth",
				"token_endpoint": "` + baseURL + `/token",
				"jwks_uri": "` + baseURL + `/keys"
			}`))
		}
	}))
	t.Cleanup(mockOIDC.Close)

	cfg := config.Config{
		AuthEnabled: true,
		OIDCProviders: []config.OIDCProviderConfig{{
			Id:        "test",
			Name:      "Test IdP",
			IssuerURL: mockOIDC.URL,
			ClientID:  "test",
		}},
	}
	s, err := New(&cfg, st)
	if err != nil {
		t.Fatalf("error creating server: %v", err)
	}
	return s.Router()
}
