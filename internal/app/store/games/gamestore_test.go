package gamestore_test

import (
	"testing"

	gamestore "github.com/cinecircle/cinecircle/internal/app/store/games"
	"github.com/cinecircle/cinecircle/internal/app/system/realtime"
	"github.com/cinecircle/cinecircle/internal/domain/models"
	"github.com/cinecircle/cinecircle/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestJoin_CreatesGameAndPlayer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	g, err := store.Join(ctx, eventID, "playerA")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	if g.GameStatus != models.GameActive {
		t.Errorf("status: got %q, want active", g.GameStatus)
	}
	state, ok := g.ActivePlayers["playerA"]
	if !ok {
		t.Fatal("expected playerA entry after join")
	}
	if len(state.MarkedTiles) != 0 {
		t.Errorf("fresh player tiles: got %v, want empty", state.MarkedTiles)
	}
}

func TestJoin_RejoinKeepsProgress(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if _, err := store.Join(ctx, eventID, "playerA"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := store.MarkTiles(ctx, eventID, "playerA", []int{1, 5, 9}); err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}

	g, err := store.Join(ctx, eventID, "playerA")
	if err != nil {
		t.Fatalf("re-Join failed: %v", err)
	}
	if got := g.ActivePlayers["playerA"].MarkedTiles; len(got) != 3 {
		t.Errorf("tiles after re-join: got %v, want 3 marks", got)
	}
}

func TestJoin_SecondPlayer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if _, err := store.Join(ctx, eventID, "playerA"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	g, err := store.Join(ctx, eventID, "guest-42")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(g.ActivePlayers) != 2 {
		t.Errorf("players: got %d, want 2", len(g.ActivePlayers))
	}
}

func TestMarkTiles(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if _, err := store.Join(ctx, eventID, "playerA"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := store.Join(ctx, eventID, "playerB"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	g, err := store.MarkTiles(ctx, eventID, "playerA", []int{0, 12, 24})
	if err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}
	if got := g.ActivePlayers["playerA"].MarkedTiles; len(got) != 3 {
		t.Errorf("playerA tiles: got %v", got)
	}
	// Other players' fields are untouched.
	if got := g.ActivePlayers["playerB"].MarkedTiles; len(got) != 0 {
		t.Errorf("playerB tiles: got %v, want empty", got)
	}

	// Unmarking is just writing a shorter list.
	g, err = store.MarkTiles(ctx, eventID, "playerA", []int{12})
	if err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}
	if got := g.ActivePlayers["playerA"].MarkedTiles; len(got) != 1 || got[0] != 12 {
		t.Errorf("playerA tiles after unmark: got %v, want [12]", got)
	}
}

func TestMarkTiles_NotJoined(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if _, err := store.Join(ctx, eventID, "playerA"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	_, err := store.MarkTiles(ctx, eventID, "ghost", []int{1})
	if err != gamestore.ErrNotJoined {
		t.Errorf("got %v, want ErrNotJoined", err)
	}
}

func TestMarkTiles_AfterCompletion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	if _, err := store.Join(ctx, eventID, "playerA"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if _, err := store.DeclareWinner(ctx, eventID); err != nil {
		t.Fatalf("DeclareWinner failed: %v", err)
	}

	_, err := store.MarkTiles(ctx, eventID, "playerA", []int{1})
	if err != gamestore.ErrGameOver {
		t.Errorf("got %v, want ErrGameOver", err)
	}
}

func TestDeclareWinner_MostTilesWins(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	for _, p := range []string{"A", "B"} {
		if _, err := store.Join(ctx, eventID, p); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}
	if _, err := store.MarkTiles(ctx, eventID, "A", []int{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}
	if _, err := store.MarkTiles(ctx, eventID, "B", []int{1, 2, 3}); err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}

	g, err := store.DeclareWinner(ctx, eventID)
	if err != nil {
		t.Fatalf("DeclareWinner failed: %v", err)
	}
	if g.GameStatus != models.GameCompleted {
		t.Errorf("status: got %q, want completed", g.GameStatus)
	}
	if g.Winner != "A" {
		t.Errorf("winner: got %q, want A", g.Winner)
	}
}

func TestDeclareWinner_TiePicksAMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	for _, p := range []string{"A", "B"} {
		if _, err := store.Join(ctx, eventID, p); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
		if _, err := store.MarkTiles(ctx, eventID, p, []int{1, 2, 3, 4}); err != nil {
			t.Fatalf("MarkTiles failed: %v", err)
		}
	}

	// The tie-break is arbitrary by design: assert membership of the
	// tied set, not a specific identity.
	g, err := store.DeclareWinner(ctx, eventID)
	if err != nil {
		t.Fatalf("DeclareWinner failed: %v", err)
	}
	if g.Winner != "A" && g.Winner != "B" {
		t.Errorf("winner: got %q, want a member of the tied set", g.Winner)
	}
}

// TestDeclareWinner_SecondCallOverwrites demonstrates the known gap in
// the completion contract: a second declare recomputes the ranking from
// the current snapshot and overwrites the recorded winner rather than
// being rejected.
func TestDeclareWinner_SecondCallOverwrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := gamestore.New(db, nil)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	eventID := primitive.NewObjectID()
	for _, p := range []string{"A", "B"} {
		if _, err := store.Join(ctx, eventID, p); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}
	if _, err := store.MarkTiles(ctx, eventID, "A", []int{1, 2}); err != nil {
		t.Fatalf("MarkTiles failed: %v", err)
	}

	g, err := store.DeclareWinner(ctx, eventID)
	if err != nil {
		t.Fatalf("DeclareWinner failed: %v", err)
	}
	if g.Winner != "A" {
		t.Fatalf("first winner: got %q, want A", g.Winner)
	}

	// B's progress changes out from under the completed game (the mark
	// path would reject this, but the raw field write a stale client
	// issues would not; simulate with a fresh declare from a snapshot
	// where B now leads).
	_, err = store.GetByEvent(ctx, eventID)
	if err != nil {
		t.Fatalf("GetByEvent failed: %v", err)
	}
	// Write B's tiles directly; MarkTiles would refuse on the completed
	// game, which is exactly why the gap needs the raw path to show.
	_, err = db.Collection("games").UpdateOne(ctx,
		bson.M{"event_id": eventID},
		bson.M{"$set": bson.M{"active_players.B.marked_tiles": []int{1, 2, 3, 4}}},
	)
	if err != nil {
		t.Fatalf("raw update failed: %v", err)
	}

	g, err = store.DeclareWinner(ctx, eventID)
	if err != nil {
		t.Fatalf("second DeclareWinner failed: %v", err)
	}
	if g.Winner != "B" {
		t.Errorf("second declare: got %q; the later write overwrites the recorded winner", g.Winner)
	}
}

func TestGameWritesPublishSnapshots(t *testing.T) {
	db := testutil.SetupTestDB(t)
	broker := realtime.NewBroker()
	store := gamestore.New(db, broker)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// The game's topic is derived from the event id, so a watcher can be
	// in place before the first join creates the document.
	eventID := primitive.NewObjectID()
	sub := broker.Subscribe(realtime.Topic(gamestore.Collection, eventID.Hex()))
	defer sub.Cancel()

	if _, err := store.Join(ctx, eventID, "A"); err != nil {
		t.Fatalf("Join failed: %v", err)
	}

	snap := (<-sub.C).(models.Game)
	if snap.GameStatus != models.GameActive {
		t.Fatalf("join snapshot status: got %q", snap.GameStatus)
	}

	if _, err := store.DeclareWinner(ctx, eventID); err != nil {
		t.Fatalf("DeclareWinner failed: %v", err)
	}
	snap = (<-sub.C).(models.Game)
	if snap.GameStatus != models.GameCompleted || snap.Winner != "A" {
		t.Errorf("completion snapshot: got status=%q winner=%q", snap.GameStatus, snap.Winner)
	}
}
