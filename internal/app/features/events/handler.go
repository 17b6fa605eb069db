// Package events serves movie-night planning: creation, invites, voting,
// and the live event stream.
package events

import (
	"context"
	"errors"
	"net/http"

	eventstore "github.com/cinecircle/cinecircle/internal/app/store/events"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/htmlsanitize"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/app/system/timeouts"
	"github.com/cinecircle/cinecircle/internal/app/system/wsstream"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves event endpoints.
type Handler struct {
	Events   *eventstore.Store
	Streamer *wsstream.Streamer
	Log      *zap.Logger
}

// NewHandler constructs an events Handler.
func NewHandler(events *eventstore.Store, streamer *wsstream.Streamer, logger *zap.Logger) *Handler {
	return &Handler{Events: events, Streamer: streamer, Log: logger}
}

// movieChoiceRequest is a nominated movie as sent by clients. Votes are
// never accepted from the write payload.
type movieChoiceRequest struct {
	Title     string `json:"title"`
	TMDBID    int64  `json:"tmdb_id"`
	PosterURL string `json:"poster_url"`
}

func toMovieChoices(in []movieChoiceRequest) []models.MovieChoice {
	out := make([]models.MovieChoice, 0, len(in))
	for _, m := range in {
		out = append(out, models.MovieChoice{
			Title:     htmlsanitize.Sanitize(m.Title),
			TMDBID:    m.TMDBID,
			PosterURL: m.PosterURL,
			VotedBy:   []primitive.ObjectID{},
		})
	}
	return out
}

// sessionUserID pulls the signed-in user's ObjectID out of the request.
func sessionUserID(r *http.Request) (primitive.ObjectID, bool) {
	user, ok := sessionauth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func eventIDParam(r *http.Request) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
}

// ServeCreate handles POST /api/events.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		Name   string               `json:"name"`
		Date   string               `json:"date"`
		Time   string               `json:"time"`
		Movies []movieChoiceRequest `json:"movies"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := htmlsanitize.Sanitize(normalize.Name(req.Name))
	if name == "" {
		httpjson.Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Date == "" {
		httpjson.Error(w, http.StatusBadRequest, "date is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	created, err := h.Events.Create(ctx, models.Event{
		Name:    name,
		Date:    req.Date,
		Time:    req.Time,
		Creator: userID,
		Movies:  toMovieChoices(req.Movies),
	})
	if err != nil {
		h.Log.Error("event create failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create event")
		return
	}

	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /api/events, returning events the user created or
// is invited to.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := h.Events.ListForUser(ctx, userID)
	if err != nil {
		h.Log.Error("event list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not list events")
		return
	}

	httpjson.OK(w, events)
}

// ServeGet handles GET /api/events/{id}. Only invitees may view an event.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ev, err := h.Events.GetByID(ctx, eventID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("event get failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load event")
		return
	}
	if !ev.IsInvitee(userID) {
		httpjson.Error(w, http.StatusForbidden, "not invited to this event")
		return
	}

	httpjson.OK(w, ev)
}

// ServeUpdate handles PUT /api/events/{id}. Creator only.
func (h *Handler) ServeUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req struct {
		Name   string               `json:"name"`
		Date   string               `json:"date"`
		Time   string               `json:"time"`
		Movies []movieChoiceRequest `json:"movies"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	upd := eventstore.Update{
		Name: htmlsanitize.Sanitize(normalize.Name(req.Name)),
		Date: req.Date,
		Time: req.Time,
	}
	if req.Movies != nil {
		upd.Movies = toMovieChoices(req.Movies)
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.Events.UpdateByCreator(ctx, eventID, userID, upd)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			// Either the event does not exist or the caller is not
			// the creator. Don't reveal which.
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("event update failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update event")
		return
	}

	httpjson.OK(w, ev)
}

// ServeInvite handles POST /api/events/{id}/invite. Creator only.
func (h *Handler) ServeInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req struct {
		UserID string `json:"user_id"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	inviteeID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, err := h.Events.AddInvitee(ctx, eventID, userID, inviteeID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			httpjson.Error(w, http.StatusNotFound, "event not found")
			return
		}
		h.Log.Error("event invite failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not invite user")
		return
	}

	httpjson.OK(w, ev)
}

// ServeVote handles POST /api/events/{id}/vote. Voting is idempotent per
// user and movie; a repeat vote is a silent no-op.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	userID, ok := sessionUserID(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req struct {
		TMDBID int64 `json:"tmdb_id"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ev, voted, err := h.Events.AddVote(ctx, eventID, req.TMDBID, userID)
	if err != nil {
		switch {
		case err == mongo.ErrNoDocuments:
			httpjson.Error(w, http.StatusNotFound, "event not found")
		case errors.Is(err, eventstore.ErrNotInvited):
			httpjson.Error(w, http.StatusForbidden, "not invited to this event")
		case errors.Is(err, eventstore.ErrMovieNotFound):
			httpjson.Error(w, http.StatusNotFound, "movie is not nominated for this event")
		default:
			h.Log.Error("event vote failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not record vote")
		}
		return
	}

	httpjson.OK(w, map[string]any{"event": ev, "voted": voted})
}

// ServeStream handles GET /ws/events/{id}?ticket=, streaming event
// snapshots over a websocket. The first frame comes from the store when
// the broker has nothing retained for the event, so a reconnect against a
// fresh process still opens with current state.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	eventID, err := eventIDParam(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}
	seed := func(ctx context.Context) (any, error) {
		ev, err := h.Events.GetByID(ctx, eventID)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return ev, nil
	}
	h.Streamer.Serve(w, r, realtime.Topic(eventstore.Collection, eventID.Hex()), seed)
}
