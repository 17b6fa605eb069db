// Package realtimeticket issues the short-lived tickets that authenticate
// websocket upgrades. Browsers cannot attach the session cookie's security
// attributes to a ws dial across origins, so the client fetches a ticket
// here and passes it in the ws URL.
package realtimeticket

import (
	"net/http"

	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/wsticket"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves ticket issuance.
type Handler struct {
	Issuer *wsticket.Issuer
	Log    *zap.Logger
}

// NewHandler constructs a realtimeticket Handler.
func NewHandler(issuer *wsticket.Issuer, logger *zap.Logger) *Handler {
	return &Handler{Issuer: issuer, Log: logger}
}

// Serve handles GET /api/realtime/ticket. Signed-in users get a ticket
// naming them; guests get one carrying their guest id (reused from the
// player_id query parameter when present and well-formed, generated
// otherwise).
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var subject, name string
	if user, ok := sessionauth.CurrentUser(r); ok {
		subject = user.ID
		name = user.Name
	} else {
		subject = normalize.PlayerID(query.Get(r, "player_id"))
		if subject == "" {
			subject = "guest-" + uuid.NewString()
		}
		name = "Guest"
	}

	ticket, err := h.Issuer.Issue(subject, name)
	if err != nil {
		h.Log.Error("ticket issue failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not issue ticket")
		return
	}

	httpjson.OK(w, map[string]string{
		"ticket":    ticket,
		"player_id": subject,
	})
}
