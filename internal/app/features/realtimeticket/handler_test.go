package realtimeticket_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cinecircle/cinecircle/internal/app/features/realtimeticket"
	"github.com/cinecircle/cinecircle/internal/app/system/wsticket"
	"github.com/cinecircle/cinecircle/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*realtimeticket.Handler, *wsticket.Issuer) {
	t.Helper()
	issuer, err := wsticket.NewIssuer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	return realtimeticket.NewHandler(issuer, zap.NewNop()), issuer
}

func TestServe_SignedIn(t *testing.T) {
	h, issuer := newTestHandler(t)
	user := testutil.SignedInUser()

	req := testutil.WithUser(httptest.NewRequest("GET", "/api/realtime/ticket", nil), user)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	testutil.DecodeJSON(t, rec, &resp)
	claims, err := issuer.Validate(resp["ticket"])
	if err != nil {
		t.Fatalf("issued ticket did not validate: %v", err)
	}
	if claims.Subject != user.ID {
		t.Errorf("subject: got %q, want %q", claims.Subject, user.ID)
	}
	if resp["player_id"] != user.ID {
		t.Errorf("player_id: got %q, want %q", resp["player_id"], user.ID)
	}
}

func TestServe_GuestGeneratesID(t *testing.T) {
	h, issuer := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/api/realtime/ticket", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	testutil.DecodeJSON(t, rec, &resp)
	if !strings.HasPrefix(resp["player_id"], "guest-") {
		t.Errorf("player_id: got %q, want guest- prefix", resp["player_id"])
	}
	claims, err := issuer.Validate(resp["ticket"])
	if err != nil {
		t.Fatalf("issued ticket did not validate: %v", err)
	}
	if claims.Subject != resp["player_id"] {
		t.Errorf("subject %q should match player_id %q", claims.Subject, resp["player_id"])
	}
}

func TestServe_GuestReusesSuppliedID(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/api/realtime/ticket?player_id=guest-abc123", nil))

	var resp map[string]string
	testutil.DecodeJSON(t, rec, &resp)
	if resp["player_id"] != "guest-abc123" {
		t.Errorf("player_id: got %q, want %q", resp["player_id"], "guest-abc123")
	}
}
