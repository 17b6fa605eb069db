package bingo_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cinecircle/cinecircle/internal/app/features/bingo"
	bingotaskstore "github.com/cinecircle/cinecircle/internal/app/store/bingotasks"
	gamestore "github.com/cinecircle/cinecircle/internal/app/store/games"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/app/system/wsstream"
	"github.com/cinecircle/cinecircle/internal/app/system/wsticket"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/cinecircle/cinecircle/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*bingo.Handler, *gamestore.Store) {
	t.Helper()

	db := testutil.SetupTestDB(t)
	broker := realtime.NewBroker()
	tasks := bingotaskstore.New(db)
	games := gamestore.New(db, broker)

	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := tasks.Seed(ctx); err != nil {
		t.Fatalf("seed tasks failed: %v", err)
	}

	issuer, err := wsticket.NewIssuer("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}
	streamer := wsstream.NewStreamer(broker, issuer, zap.NewNop())

	return bingo.NewHandler(tasks, games, streamer, zap.NewNop()), games
}

func TestServeBoard(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeBoard(rec, httptest.NewRequest("GET", "/api/bingo/board", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var board []models.BingoTask
	testutil.DecodeJSON(t, rec, &board)
	if len(board) != 25 {
		t.Fatalf("board size: got %d, want 25", len(board))
	}

	seen := map[string]bool{}
	for _, task := range board {
		if seen[task.Text] {
			t.Errorf("duplicate task on board: %q", task.Text)
		}
		seen[task.Text] = true
	}
}

func TestServeBoard_SizeExceedsPool(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeBoard(rec, httptest.NewRequest("GET", "/api/bingo/board?size=1000", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeJoin_GuestGetsGeneratedID(t *testing.T) {
	h, _ := newTestHandler(t)
	eventID := primitive.NewObjectID()

	req := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/join", map[string]any{})
	req = testutil.WithChiURLParam(req, "eventID", eventID.Hex())
	rec := httptest.NewRecorder()
	h.ServeJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		PlayerID string      `json:"player_id"`
		Game     models.Game `json:"game"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if !strings.HasPrefix(resp.PlayerID, "guest-") {
		t.Errorf("guest player id: got %q, want guest- prefix", resp.PlayerID)
	}
	if _, ok := resp.Game.ActivePlayers[resp.PlayerID]; !ok {
		t.Errorf("player %q missing from game: %+v", resp.PlayerID, resp.Game.ActivePlayers)
	}
	if resp.Game.GameStatus != models.GameActive {
		t.Errorf("status: got %q, want %q", resp.Game.GameStatus, models.GameActive)
	}
}

func TestServeJoin_SignedInUsesSessionID(t *testing.T) {
	h, _ := newTestHandler(t)
	eventID := primitive.NewObjectID()
	user := testutil.SignedInUser()

	req := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/join",
		map[string]any{"player_id": "ignored"})
	req = testutil.WithChiURLParam(testutil.WithUser(req, user), "eventID", eventID.Hex())
	rec := httptest.NewRecorder()
	h.ServeJoin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var resp struct {
		PlayerID string `json:"player_id"`
	}
	testutil.DecodeJSON(t, rec, &resp)
	if resp.PlayerID != user.ID {
		t.Errorf("player id: got %q, want session user %q", resp.PlayerID, user.ID)
	}
}

func TestServeMark_NotJoined(t *testing.T) {
	h, games := newTestHandler(t)
	eventID := primitive.NewObjectID()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	joined := "guest-" + uuid.NewString()
	outsider := "guest-" + uuid.NewString()
	if _, err := games.Join(ctx, eventID, joined); err != nil {
		t.Fatalf("seed join failed: %v", err)
	}

	req := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/mark",
		map[string]any{"player_id": outsider, "marked_tiles": []int{1, 2}})
	req = testutil.WithChiURLParam(req, "eventID", eventID.Hex())
	rec := httptest.NewRecorder()
	h.ServeMark(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestServeMark_AfterCompletion(t *testing.T) {
	h, games := newTestHandler(t)
	eventID := primitive.NewObjectID()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	player := "guest-" + uuid.NewString()
	if _, err := games.Join(ctx, eventID, player); err != nil {
		t.Fatalf("seed join failed: %v", err)
	}
	if _, err := games.DeclareWinner(ctx, eventID); err != nil {
		t.Fatalf("declare winner failed: %v", err)
	}

	req := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/mark",
		map[string]any{"player_id": player, "marked_tiles": []int{1}})
	req = testutil.WithChiURLParam(req, "eventID", eventID.Hex())
	rec := httptest.NewRecorder()
	h.ServeMark(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

// Player ids become Mongo update field paths, so ids with dots or
// operator prefixes must be rejected before they reach the store —
// a dotted id would otherwise land as a nested subdocument under
// somebody else's key.
func TestMalformedPlayerIDsRejected(t *testing.T) {
	h, games := newTestHandler(t)
	eventID := primitive.NewObjectID()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	victim := "guest-" + uuid.NewString()
	if _, err := games.Join(ctx, eventID, victim); err != nil {
		t.Fatalf("seed join failed: %v", err)
	}

	for _, tc := range []struct {
		name     string
		playerID string
	}{
		{"dotted", victim + ".marked_tiles"},
		{"operator", "$set"},
		{"arbitrary", "player-a"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			join := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/join",
				map[string]any{"player_id": tc.playerID})
			join = testutil.WithChiURLParam(join, "eventID", eventID.Hex())
			rec := httptest.NewRecorder()
			h.ServeJoin(rec, join)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("join status: got %d, want %d", rec.Code, http.StatusBadRequest)
			}

			mark := testutil.NewJSONRequest(t, "POST", "/api/bingo/games/"+eventID.Hex()+"/mark",
				map[string]any{"player_id": tc.playerID, "marked_tiles": []int{1}})
			mark = testutil.WithChiURLParam(mark, "eventID", eventID.Hex())
			rec = httptest.NewRecorder()
			h.ServeMark(rec, mark)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("mark status: got %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}

	// The existing player's entry is untouched.
	game, err := games.GetByEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("GetByEvent failed: %v", err)
	}
	if len(game.ActivePlayers) != 1 {
		t.Errorf("active players: got %d, want 1 (%+v)", len(game.ActivePlayers), game.ActivePlayers)
	}
}

func TestServeDeclareWinner(t *testing.T) {
	h, games := newTestHandler(t)
	eventID := primitive.NewObjectID()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for player, tiles := range map[string][]int{
		"player-a": {0, 1, 2, 3, 4},
		"player-b": {0, 1, 2},
	} {
		if _, err := games.Join(ctx, eventID, player); err != nil {
			t.Fatalf("join %s failed: %v", player, err)
		}
		if _, err := games.MarkTiles(ctx, eventID, player, tiles); err != nil {
			t.Fatalf("mark %s failed: %v", player, err)
		}
	}

	req := httptest.NewRequest("POST", "/api/bingo/games/"+eventID.Hex()+"/declare-winner", nil)
	req = testutil.WithChiURLParam(req, "eventID", eventID.Hex())
	rec := httptest.NewRecorder()
	h.ServeDeclareWinner(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (body %s)", rec.Code, rec.Body.String())
	}

	var game models.Game
	testutil.DecodeJSON(t, rec, &game)
	if game.GameStatus != models.GameCompleted {
		t.Errorf("status: got %q, want %q", game.GameStatus, models.GameCompleted)
	}
	if game.Winner != "player-a" {
		t.Errorf("winner: got %q, want %q", game.Winner, "player-a")
	}
}
