package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/workhub/internal/app/system/auth"
	"go.uber.org/zap"
)

func newTestSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(
		"test-session-key-must-be-32-chars-long",
		"test-session",
		"",
		24*time.Hour,
		false,
		zap.NewNop(),
	)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}
	return sm
}

func TestNewSessionManager_RejectsEmptyKey(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestRequireSignedIn_NoUser_Returns401(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/user", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestRequireSignedIn_WithUser_Proceeds(t *testing.T) {
	sm := newTestSessionManager(t)

	called := false
	handler := sm.RequireSignedIn(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := withTestUser(httptest.NewRequest("GET", "/api/user", nil), "user")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequireRole(t *testing.T) {
	sm := newTestSessionManager(t)

	handler := sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name     string
		role     string
		signedIn bool
		expected int
	}{
		{"anonymous", "", false, http.StatusUnauthorized},
		{"admin", "admin", true, http.StatusOK},
		{"uppercase admin", "ADMIN", true, http.StatusOK},
		{"user", "user", true, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tc.signedIn {
				req = withTestUser(req, tc.role)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.expected {
				t.Errorf("role %q: expected status %d, got %d", tc.role, tc.expected, rec.Code)
			}
		})
	}
}

// signIn performs a SignIn and returns the cookies it set.
func signIn(t *testing.T, sm *auth.SessionManager, u auth.SessionUser) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest("POST", "/login/verify", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie")
	}
	return cookies
}

func loadUser(sm *auth.SessionManager, cookies []*http.Cookie) (*auth.SessionUser, bool) {
	var got *auth.SessionUser
	var ok bool
	h := sm.LoadSessionUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = auth.CurrentUser(r)
	}))
	req := httptest.NewRequest("GET", "/api/user", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got, ok
}

func TestSignIn_LoadSessionUser_RoundTrip(t *testing.T) {
	sm := newTestSessionManager(t)
	want := auth.SessionUser{ID: "507f1f77bcf86cd799439011", Name: "Ada", Email: "ada@example.com", Role: "user"}

	got, ok := loadUser(sm, signIn(t, sm, want))
	if !ok {
		t.Fatal("expected user in context")
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestLoadSessionUser_NoCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	if _, ok := loadUser(sm, nil); ok {
		t.Error("expected no user without a cookie")
	}
}

func TestLoadSessionUser_ForeignCookieIgnored(t *testing.T) {
	sm := newTestSessionManager(t)
	other, err := auth.NewSessionManager("another-session-key-also-32-chars-long", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	cookies := signIn(t, other, auth.SessionUser{ID: "x", Role: "admin"})

	if _, ok := loadUser(sm, cookies); ok {
		t.Error("cookie signed with a different key must not authenticate")
	}
}

type stubFetcher struct {
	user *auth.SessionUser
}

func (f stubFetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	return f.user
}

func TestLoadSessionUser_FetcherRefreshesUser(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signIn(t, sm, auth.SessionUser{ID: "507f1f77bcf86cd799439011", Role: "user"})

	sm.SetUserFetcher(stubFetcher{user: &auth.SessionUser{ID: "507f1f77bcf86cd799439011", Role: "admin"}})
	got, ok := loadUser(sm, cookies)
	if !ok || got.Role != "admin" {
		t.Errorf("expected refreshed admin role, got %+v ok=%v", got, ok)
	}

	sm.SetUserFetcher(stubFetcher{})
	if _, ok := loadUser(sm, cookies); ok {
		t.Error("expected disabled user to be signed out")
	}
}

func TestSignOut_ExpiresCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	cookies := signIn(t, sm, auth.SessionUser{ID: "x", Role: "user"})

	req := httptest.NewRequest("POST", "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, req); err != nil {
		t.Fatalf("SignOut: %v", err)
	}

	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected session cookie to be expired")
	}
}

func TestCurrentUser_NoUser(t *testing.T) {
	user, ok := auth.CurrentUser(httptest.NewRequest("GET", "/", nil))
	if ok || user != nil {
		t.Error("expected no user in a bare request")
	}
}

// withTestUser injects a SessionUser into the request context for testing.
func withTestUser(r *http.Request, role string) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Test User",
		Email: "test@example.com",
		Role:  role,
	})
}
