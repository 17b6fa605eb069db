// Package bingo serves the shared movie-night bingo mini-game: the task
// pool, per-player boards, shared progress, and winner declaration.
package bingo

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"

	bingotaskstore "github.com/cinecircle/cinecircle/internal/app/store/bingotasks"
	gamestore "github.com/cinecircle/cinecircle/internal/app/store/games"
	sessionauth "github.com/cinecircle/cinecircle/internal/app/system/auth"
	"github.com/cinecircle/cinecircle/internal/app/system/httpjson"
	"github.com/cinecircle/cinecircle/internal/app/system/normalize"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/app/system/timeouts"
	"github.com/cinecircle/cinecircle/internal/app/system/wsstream"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultBoardSize = 25

// Handler serves bingo endpoints.
type Handler struct {
	Tasks    *bingotaskstore.Store
	Games    *gamestore.Store
	Streamer *wsstream.Streamer
	Log      *zap.Logger
}

// NewHandler constructs a bingo Handler.
func NewHandler(tasks *bingotaskstore.Store, games *gamestore.Store, streamer *wsstream.Streamer, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Games: games, Streamer: streamer, Log: logger}
}

// ServeTasks handles GET /api/bingo/tasks.
func (h *Handler) ServeTasks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tasks, err := h.Tasks.All(ctx)
	if err != nil {
		h.Log.Error("bingo task list failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load tasks")
		return
	}
	httpjson.OK(w, tasks)
}

// ServeBoard handles GET /api/bingo/board?size=. Boards are a fresh random
// draw from the task pool on every request and are never stored, so each
// player plays their own board against the shared progress document.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	size := defaultBoardSize
	if raw := query.Get(r, "size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httpjson.Error(w, http.StatusBadRequest, "invalid board size")
			return
		}
		size = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	tasks, err := h.Tasks.All(ctx)
	if err != nil {
		h.Log.Error("bingo board draw failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not build board")
		return
	}
	if size > len(tasks) {
		httpjson.Error(w, http.StatusBadRequest, "board size exceeds task pool")
		return
	}

	board := make([]models.BingoTask, 0, size)
	for _, i := range rand.Perm(len(tasks))[:size] {
		board = append(board, tasks[i])
	}
	httpjson.OK(w, board)
}

// joinResponse returns the caller's player id alongside the game so guests
// learn the identity they were assigned.
type joinResponse struct {
	PlayerID string       `json:"player_id"`
	Game     *models.Game `json:"game"`
}

// playerIdentity resolves the player id for game operations: the session
// user when signed in, otherwise the id supplied by the client, otherwise
// a fresh guest id. A supplied id that is neither an object-id hex nor a
// guest id is rejected (ok=false): player ids become Mongo field paths,
// so arbitrary strings must not get through.
func playerIdentity(r *http.Request, supplied string) (string, bool) {
	if user, ok := sessionauth.CurrentUser(r); ok {
		return user.ID, true
	}
	if strings.TrimSpace(supplied) == "" {
		return "guest-" + uuid.NewString(), true
	}
	if id := normalize.PlayerID(supplied); id != "" {
		return id, true
	}
	return "", false
}

// ServeJoin handles POST /api/bingo/games/{eventID}/join.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req struct {
		PlayerID string `json:"player_id"`
	}
	// Body is optional for signed-in players.
	_ = httpjson.Decode(r, &req)

	playerID, ok := playerIdentity(r, req.PlayerID)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid player id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	game, err := h.Games.Join(ctx, eventID, playerID)
	if err != nil {
		h.Log.Error("bingo join failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not join game")
		return
	}

	httpjson.OK(w, joinResponse{PlayerID: playerID, Game: game})
}

// ServeMark handles POST /api/bingo/games/{eventID}/mark. The submitted
// tile list replaces the player's previous one wholesale.
func (h *Handler) ServeMark(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	var req struct {
		PlayerID    string `json:"player_id"`
		MarkedTiles []int  `json:"marked_tiles"`
	}
	if err := httpjson.Decode(r, &req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID, ok := playerIdentity(r, req.PlayerID)
	if !ok {
		httpjson.Error(w, http.StatusBadRequest, "invalid player id")
		return
	}
	if req.MarkedTiles == nil {
		req.MarkedTiles = []int{}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	game, err := h.Games.MarkTiles(ctx, eventID, playerID, req.MarkedTiles)
	if err != nil {
		switch {
		case errors.Is(err, gamestore.ErrGameOver):
			httpjson.Error(w, http.StatusConflict, "game is already completed")
		case errors.Is(err, gamestore.ErrNotJoined):
			httpjson.Error(w, http.StatusForbidden, "join the game before marking tiles")
		default:
			h.Log.Error("bingo mark failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not mark tiles")
		}
		return
	}

	httpjson.OK(w, game)
}

// ServeDeclareWinner handles POST /api/bingo/games/{eventID}/declare-winner.
// Any client may call it; the winner is whoever leads the last-known
// snapshot. Clients render their own win/lose message from the stream.
func (h *Handler) ServeDeclareWinner(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	game, err := h.Games.DeclareWinner(ctx, eventID)
	if err != nil {
		if errors.Is(err, gamestore.ErrNoPlayers) {
			httpjson.Error(w, http.StatusConflict, "no players in this game")
			return
		}
		h.Log.Error("bingo declare-winner failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not declare winner")
		return
	}

	httpjson.OK(w, game)
}

// ServeGame handles GET /api/bingo/games/{eventID}.
func (h *Handler) ServeGame(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	game, err := h.Games.GetByEvent(ctx, eventID)
	if err != nil {
		httpjson.Error(w, http.StatusNotFound, "no game for this event")
		return
	}
	httpjson.OK(w, game)
}

// ServeStream handles GET /ws/games/{eventID}?ticket=, streaming game
// snapshots over a websocket. The first frame comes from the store when
// the broker has nothing retained; a game nobody has joined yet streams
// from its first join.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	eventID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "eventID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid event id")
		return
	}
	seed := func(ctx context.Context) (any, error) {
		game, err := h.Games.GetByEvent(ctx, eventID)
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return game, nil
	}
	h.Streamer.Serve(w, r, realtime.Topic(gamestore.Collection, eventID.Hex()), seed)
}
