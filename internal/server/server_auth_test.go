package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brk3/habitgrid/internal/config"
	"github.com/brk3/habitgrid/internal/storage"
)

func TestAuthEnabled_NoToken_Unauthorized(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	rr := mockRequest(h, http.MethodGet, "/habits/", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Bearer") {
		t.Fatalf("WWW-Authenticate = %q, want Bearer challenge", got)
	}
}

func TestAuthEnabled_PublicRoutes(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	for _, path := range []string{"/version", "/metrics"} {
		if rr := mockRequest(h, http.MethodGet, path, nil); rr.Code != http.StatusOK {
			t.Errorf("GET %s: got %d want 200", path, rr.Code)
		}
	}
}

func TestAuthEnabled_UnknownProvider(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
	req.Header.Set("Authorization", "Bearer nosuch:eyJhbGciOi")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
}

func TestAuthEnabled_InvalidIDToken(t *testing.T) {
	h := newTestServerWithAuth(t, newMemStore())

	req := httptest.NewRequest(http.MethodGet, "/habits/", nil)
	req.Header.Set("Authorization", "Bearer test:not-a-jwt")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("got %d want 401", rr.Code)
	}
	if got := rr.Header().Get("WWW-Authenticate"); !strings.Contains(got, "invalid_token") {
		t.Fatalf("WWW-Authenticate = %q, want invalid_token", got)
	}
}

func TestParseProviderToken(t *testing.T) {
	tests := []struct {
		token    string
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
		p, jwt, err := parseProviderToken(tt.token)
		if (err != nil) != tt.wantErr {
			t.Errorf("%q: err = %v, wantErr %v", tt.token, err, tt.wantErr)
			continue
		}
		if p != tt.provider || jwt != tt.jwt {
			t.Errorf("%q: got (%q, %q) want (%q, %q)", tt.token, p, jwt, tt.provider, tt.jwt)
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
	if userID != userIDFromClaims(claims) {
		t.Fatal("user ID is not stable for the same claims")
	}
}

func TestGetUserID_AuthDisabled(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if userID := userIDFromContext(false, req); userID != "anonymous" {
		t.Fatalf("userIDFromContext returned %q, expected 'anonymous'", userID)
	}
}

func TestGetUserID_NoUserInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if userID := userIDFromContext(true, req); userID != "" {
		t.Fatalf("userIDFromContext returned %q, expected empty string when no user in context", userID)
	}
}

func TestUserIDFromClaims_MissingFields(t *testing.T) {
	if got := userIDFromClaims(map[string]any{"sub": "x"}); got != "" {
		t.Fatalf("missing iss: got %q want empty", got)
	}
	if got := userIDFromClaims(map[string]any{"iss": "x"}); got != "" {
		t.Fatalf("missing sub: got %q want empty", got)
	}
}

func newTestServerWithAuth(t *testing.T, st storage.Store) http.Handler {
	t.Helper()
	mockOIDC := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/.well-known/openid-configuration" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			baseURL := "http://" + r.Host
			w.Write([]byte(`{
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
		Timezone:    "UTC",
		OIDCProviders: []config.OIDCProviderConfig{{
			Id:        "test",
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
