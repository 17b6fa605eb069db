package authgoogle_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/cinecircle/cinecircle/internal/app/features/authgoogle"
	"github.com/cinecircle/cinecircle/internal/app/store/oauthstate"
	userstore "github.com/cinecircle/cinecircle/internal/app/store/users"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*authgoogle.Handler, *oauthstate.Store) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := sessionauth.NewSessionManager("0123456789abcdef0123456789abcdef", "cinecircle_test", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	stateStore := oauthstate.New(db)
	h := authgoogle.NewHandler(
		userstore.New(db),
		stateStore,
		sessionMgr,
		"test-client-id",
		"test-client-secret",
		"http://localhost:8080",
		logger,
	)
	return h, stateStore
}

func TestIsConfigured(t *testing.T) {
	h, _ := newTestHandler(t)
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}

	h.ClientSecret = ""
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without a client secret")
	}
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	h, stateStore := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google?return=/events", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}

	location := rec.Header().Get("Location")
	if !strings.HasPrefix(location, "https://accounts.google.com/") {
		t.Errorf("expected redirect to Google, got %q", location)
	}

	u, err := url.Parse(location)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	state := u.Query().Get("state")
	if state == "" {
		t.Fatal("redirect is missing the state parameter")
	}

	// The state must have been persisted with the return URL.
	ctx, cancel := testutil.TestContext()
	defer cancel()
	returnURL, valid, err := stateStore.Validate(ctx, state)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !valid {
		t.Error("expected persisted state to validate")
	}
	if returnURL != "/events" {
		t.Errorf("returnURL: got %q, want %q", returnURL, "/events")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newTestHandler(t)
	h.ClientID = ""
	h.ClientSecret = ""

	rec := httptest.NewRecorder()
	h.ServeLogin(rec, httptest.NewRequest("GET", "/auth/google", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !strings.Contains(rec.Header().Get("Location"), "google_not_configured") {
		t.Errorf("unexpected redirect: %q", rec.Header().Get("Location"))
	}
}

func TestServeLogin_RejectsOffsiteReturnURL(t *testing.T) {
	h, stateStore := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google?return=https://evil.example/", nil)
	rec := httptest.NewRecorder()
	h.ServeLogin(rec, req)

	u, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	returnURL, valid, err := stateStore.Validate(ctx, u.Query().Get("state"))
	if err != nil || !valid {
		t.Fatalf("Validate failed: valid=%v err=%v", valid, err)
	}
	if returnURL != "" {
		t.Errorf("off-site return URL should be dropped, got %q", returnURL)
	}
}

func TestServeCallback_MissingState(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !strings.Contains(rec.Header().Get("Location"), "invalid_state") {
		t.Errorf("unexpected redirect: %q", rec.Header().Get("Location"))
	}
}

func TestServeCallback_UnknownState(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?state=bogus&code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if !strings.Contains(rec.Header().Get("Location"), "invalid_state") {
		t.Errorf("unexpected redirect: %q", rec.Header().Get("Location"))
	}
}

func TestServeCallback_GoogleError(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeCallback(rec, httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil))

	if !strings.Contains(rec.Header().Get("Location"), "google_denied") {
		t.Errorf("unexpected redirect: %q", rec.Header().Get("Location"))
	}
}
