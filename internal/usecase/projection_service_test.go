package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
)

// projectionFixture wires a full in-memory pipeline: commands append to the
// store, Rebuild derives the read models.
type projectionFixture struct {
	commands    *CommandService
	projections *ProjectionService
	store       *memory.EventStore
	documents   *memory.DocumentStore
	fixtureSets *memory.FixtureSetRepository
	predictions *memory.PredictionRepository
	leagues     *memory.LeagueRepository
	players     *memory.PlayerRepository
}

func newProjectionFixture() *projectionFixture {
	store := memory.NewEventStore()
	logger := logging.NewNop()

	f := &projectionFixture{
		commands:    NewCommandService(store, logger),
		store:       store,
		documents:   memory.NewDocumentStore(),
		fixtureSets: memory.NewFixtureSetRepository(),
		predictions: memory.NewPredictionRepository(),
		leagues:     memory.NewLeagueRepository(),
		players:     memory.NewPlayerRepository(),
	}
	f.projections = NewProjectionService(
		store, f.documents, f.fixtureSets, f.predictions, f.leagues, f.players, nil, logger,
	)
	return f
}

func (f *projectionFixture) rebuild(t *testing.T) {
	t.Helper()
	if err := f.projections.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild projections: %v", err)
	}
}

func (f *projectionFixture) handle(t *testing.T, cmds ...Command) {
	t.Helper()
	mustHandle(t, f.commands, cmds...)
}

func loadDoc[T any](t *testing.T, store document.Store, key string) T {
	t.Helper()
	doc, found, err := document.Load[T](context.Background(), store, key)
	if err != nil {
		t.Fatalf("load %s: %v", key, err)
	}
	if !found {
		t.Fatalf("document %s missing", key)
	}
	return doc
}

func TestProjectionRebuild_SeasonTableScoresPredictions(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		RegisterPlayer{PlayerID: "p2", Name: "Bob"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
		SubmitPrediction{PlayerID: "p2", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 3, Away: 1}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 3, Away: 1}},
	)
	f.rebuild(t)

	table := loadDoc[document.LeagueTableDoc](t, f.documents, document.LeagueTableKey(privateleague.GlobalLeagueID, "season"))
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}

	// Exact score beats matching outcome class.
	if table.Rows[0].PlayerID != "p2" || table.Rows[0].Position != 1 || table.Rows[0].Tally.Points != 3 {
		t.Fatalf("unexpected rank 1 row: %+v", table.Rows[0])
	}
	if table.Rows[0].Tally.CorrectScores != 1 {
		t.Fatalf("expected correct score count 1, got %+v", table.Rows[0].Tally)
	}
	if table.Rows[1].PlayerID != "p1" || table.Rows[1].Position != 2 || table.Rows[1].Tally.Points != 1 {
		t.Fatalf("unexpected rank 2 row: %+v", table.Rows[1])
	}
	if table.Rows[1].Tally.CorrectResults != 1 {
		t.Fatalf("expected correct result count 1, got %+v", table.Rows[1].Tally)
	}

	if table.Label != "Season" {
		t.Fatalf("unexpected label %q", table.Label)
	}
}

func TestProjectionRebuild_DoubleDownDoublesExactScore(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 0}},
		ApplyDoubleDown{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1"},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 2, Away: 0}},
	)
	f.rebuild(t)

	table := loadDoc[document.LeagueTableDoc](t, f.documents, document.LeagueTableKey(privateleague.GlobalLeagueID, "gw:1"))
	if len(table.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(table.Rows))
	}
	row := table.Rows[0]
	if row.Tally.Points != 6 || row.Tally.DoubleDownCorrectScores != 1 || row.Tally.CorrectScores != 0 {
		t.Fatalf("unexpected tally: %+v", row.Tally)
	}

	summary := loadDoc[document.SummaryDoc](t, f.documents, document.SummaryKey("p1", "set1"))
	if summary.Tally.Points != 6 {
		t.Fatalf("unexpected summary tally: %+v", summary.Tally)
	}
}

func TestProjectionMatrix_RevealsAtKickoffAndScoresAtClassification(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		RegisterPlayer{PlayerID: "p2", Name: "Bob"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
	)
	f.rebuild(t)

	key := document.MatrixKey(privateleague.GlobalLeagueID, 1)
	matrix := loadDoc[document.MatrixDoc](t, f.documents, key)
	if len(matrix.Fixtures) != 2 || len(matrix.Players) != 2 {
		t.Fatalf("unexpected matrix shape: %d fixtures, %d players", len(matrix.Fixtures), len(matrix.Players))
	}
	if matrix.Fixtures[0].State != document.FixtureStateOpen {
		t.Fatalf("unexpected fixture state %s", matrix.Fixtures[0].State)
	}
	for _, row := range matrix.Players {
		if len(row.Predictions) != 0 {
			t.Fatalf("prediction visible before kickoff: %+v", row)
		}
	}

	f.handle(t, KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"})
	f.rebuild(t)

	matrix = loadDoc[document.MatrixDoc](t, f.documents, key)
	ann := matrixRow(t, matrix, "p1")
	cell, ok := ann.Predictions["f1"]
	if !ok {
		t.Fatalf("expected revealed cell for p1/f1")
	}
	if cell.Score != (points.ScoreLine{Home: 2, Away: 1}) || cell.Points != nil {
		t.Fatalf("unexpected cell before classification: %+v", cell)
	}
	bob := matrixRow(t, matrix, "p2")
	if len(bob.Predictions) != 0 {
		t.Fatalf("expected no cells for p2, got %+v", bob.Predictions)
	}

	f.handle(t, ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 3, Away: 1}})
	f.rebuild(t)

	matrix = loadDoc[document.MatrixDoc](t, f.documents, key)
	if matrix.Fixtures[0].State != document.FixtureStateClassified || matrix.Fixtures[0].Result == nil {
		t.Fatalf("unexpected classified column: %+v", matrix.Fixtures[0])
	}
	ann = matrixRow(t, matrix, "p1")
	cell = ann.Predictions["f1"]
	if cell.Points == nil || *cell.Points != 1 {
		t.Fatalf("unexpected cell points: %+v", cell)
	}
	if ann.Total != 1 {
		t.Fatalf("unexpected total %d", ann.Total)
	}
}

func matrixRow(t *testing.T, matrix document.MatrixDoc, playerID string) document.MatrixPlayer {
	t.Helper()
	for _, row := range matrix.Players {
		if row.PlayerID == playerID {
			return row
		}
	}
	t.Fatalf("player %s not in matrix", playerID)
	return document.MatrixPlayer{}
}

func TestProjectionHistory_TracksWindowLeaders(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		RegisterPlayer{PlayerID: "p2", Name: "Bob"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 3, Away: 1}},
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f2", Score: points.ScoreLine{Home: 1, Away: 1}},
		SubmitPrediction{PlayerID: "p2", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
		SubmitPrediction{PlayerID: "p2", FixtureSetID: "set1", FixtureID: "f2", Score: points.ScoreLine{Home: 0, Away: 2}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 3, Away: 1}},
	)
	f.rebuild(t)

	history := loadDoc[document.HistoryDoc](t, f.documents, document.HistoryKey(privateleague.GlobalLeagueID))
	if len(history.Winners) != 2 {
		t.Fatalf("expected gameweek and month winners, got %+v", history.Winners)
	}
	if w := winnerFor(t, history, "gw:1"); w.PlayerID != "p1" || w.Points != 3 {
		t.Fatalf("unexpected gameweek winner: %+v", w)
	}
	if w := winnerFor(t, history, "month:2025-08"); w.PlayerID != "p1" {
		t.Fatalf("unexpected month winner: %+v", w)
	}

	// Bob's exact second result overtakes: the same window keys are
	// rewritten, not duplicated.
	f.handle(t,
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f2"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f2", Result: points.ScoreLine{Home: 0, Away: 2}},
	)
	f.rebuild(t)

	history = loadDoc[document.HistoryDoc](t, f.documents, document.HistoryKey(privateleague.GlobalLeagueID))
	if len(history.Winners) != 2 {
		t.Fatalf("expected winners rewritten in place, got %+v", history.Winners)
	}
	if w := winnerFor(t, history, "gw:1"); w.PlayerID != "p2" || w.Points != 4 {
		t.Fatalf("unexpected gameweek winner after overtake: %+v", w)
	}
	if w := winnerFor(t, history, "gw:1"); w.Description != "Gameweek 1" {
		t.Fatalf("unexpected winner description: %+v", w)
	}
}

func winnerFor(t *testing.T, history document.HistoryDoc, window string) document.HistoryWinner {
	t.Helper()
	for _, winner := range history.Winners {
		if winner.Window == window {
			return winner
		}
	}
	t.Fatalf("no winner for window %s in %+v", window, history.Winners)
	return document.HistoryWinner{}
}

func TestProjectionConclusion_MarksRecordAndKeepsWinner(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 1, Away: 0}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f2"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 1, Away: 0}},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f2", Result: points.ScoreLine{Home: 2, Away: 2}},
		ConcludeFixtureSet{FixtureSetID: "set1"},
	)
	f.rebuild(t)

	set, found, err := f.fixtureSets.GetFixtureSet(context.Background(), "set1")
	if err != nil || !found {
		t.Fatalf("get fixture set: found=%v err=%v", found, err)
	}
	if !set.Concluded {
		t.Fatalf("expected concluded set record")
	}

	history := loadDoc[document.HistoryDoc](t, f.documents, document.HistoryKey(privateleague.GlobalLeagueID))
	if w := winnerFor(t, history, "gw:1"); w.PlayerID != "p1" || w.Points != 3 {
		t.Fatalf("unexpected weekly winner: %+v", w)
	}
}

func TestProjectionTeamTables_PredictedAndActual(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
	)
	f.rebuild(t)

	predicted := loadDoc[document.TeamTableDoc](t, f.documents, document.PredictedTeamTableKey("p1"))
	if len(predicted.Rows) != 2 {
		t.Fatalf("expected 2 teams, got %+v", predicted.Rows)
	}
	if predicted.Rows[0].Team != "Arsenal" || predicted.Rows[0].Points != 3 || predicted.Rows[0].Form != "W" {
		t.Fatalf("unexpected predicted leader: %+v", predicted.Rows[0])
	}

	f.handle(t, ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 1, Away: 1}})
	f.rebuild(t)

	actual := loadDoc[document.TeamTableDoc](t, f.documents, document.ActualTeamTableKey())
	if len(actual.Rows) != 2 {
		t.Fatalf("expected 2 teams, got %+v", actual.Rows)
	}
	for _, row := range actual.Rows {
		if row.Points != 1 || row.Drawn != 1 || row.Form != "D" {
			t.Fatalf("unexpected drawn row: %+v", row)
		}
	}

	// The player's predicted world still has Arsenal winning.
	predicted = loadDoc[document.TeamTableDoc](t, f.documents, document.PredictedTeamTableKey("p1"))
	if predicted.Rows[0].Team != "Arsenal" || predicted.Rows[0].Points != 3 {
		t.Fatalf("unexpected predicted leader after classification: %+v", predicted.Rows[0])
	}
}

func TestProjectionPrivateLeague_ScopesTablesToMembers(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		RegisterPlayer{PlayerID: "p2", Name: "Bob"},
		RegisterPlayer{PlayerID: "p3", Name: "Cid"},
		CreateLeague{LeagueID: "lg1", Name: "Office", OwnerID: "p1"},
		JoinLeague{LeagueID: "lg1", PlayerID: "p2"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
		SubmitPrediction{PlayerID: "p3", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 3, Away: 1}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 3, Away: 1}},
	)
	f.rebuild(t)

	table := loadDoc[document.LeagueTableDoc](t, f.documents, document.LeagueTableKey("lg1", "season"))
	if len(table.Rows) != 1 || table.Rows[0].PlayerID != "p1" {
		t.Fatalf("expected only predicting members on the table, got %+v", table.Rows)
	}

	global := loadDoc[document.LeagueTableDoc](t, f.documents, document.LeagueTableKey(privateleague.GlobalLeagueID, "season"))
	if len(global.Rows) != 2 {
		t.Fatalf("expected both predictors on the global table, got %+v", global.Rows)
	}

	matrix := loadDoc[document.MatrixDoc](t, f.documents, document.MatrixKey("lg1", 1))
	if len(matrix.Players) != 2 {
		t.Fatalf("expected 2 member rows, got %+v", matrix.Players)
	}
}

func TestProjectionRebuild_IsIdempotent(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		RegisterPlayer{PlayerID: "p2", Name: "Bob"},
		CreateLeague{LeagueID: "lg1", Name: "Office", OwnerID: "p1"},
		JoinLeague{LeagueID: "lg1", PlayerID: "p2"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 2, Away: 1}},
		SubmitPrediction{PlayerID: "p2", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 3, Away: 1}},
		ApplyDoubleDown{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1"},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 3, Away: 1}},
	)

	keys := []string{
		document.LeagueTableKey(privateleague.GlobalLeagueID, "season"),
		document.LeagueTableKey("lg1", "gw:1"),
		document.MatrixKey(privateleague.GlobalLeagueID, 1),
		document.HistoryKey(privateleague.GlobalLeagueID),
		document.SummaryKey("p1", "set1"),
		document.ActualTeamTableKey(),
	}

	f.rebuild(t)
	first := map[string][]byte{}
	for _, key := range keys {
		raw, found, err := f.documents.Get(context.Background(), key)
		if err != nil || !found {
			t.Fatalf("get %s: found=%v err=%v", key, found, err)
		}
		first[key] = raw
	}

	f.rebuild(t)
	for _, key := range keys {
		raw, found, err := f.documents.Get(context.Background(), key)
		if err != nil || !found {
			t.Fatalf("get %s after second rebuild: found=%v err=%v", key, found, err)
		}
		if !bytes.Equal(first[key], raw) {
			t.Fatalf("document %s changed across rebuilds:\nfirst:  %s\nsecond: %s", key, first[key], raw)
		}
	}

	if f.projections.Failures() != 0 {
		t.Fatalf("expected no handler failures, got %d", f.projections.Failures())
	}
}

var errTableStoreDown = errors.New("table store down")

// failingDocumentStore rejects writes for keys under a given prefix.
type failingDocumentStore struct {
	document.Store
	prefix string
}

func (s *failingDocumentStore) Put(ctx context.Context, key string, doc []byte) error {
	if strings.HasPrefix(key, s.prefix) {
		return errTableStoreDown
	}
	return s.Store.Put(ctx, key, doc)
}

func TestProjectionHandlerFailure_DoesNotStopSiblings(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	logger := logging.NewNop()
	documents := &failingDocumentStore{Store: memory.NewDocumentStore(), prefix: "table:"}

	commands := NewCommandService(store, logger)
	projections := NewProjectionService(
		store, documents,
		memory.NewFixtureSetRepository(), memory.NewPredictionRepository(),
		memory.NewLeagueRepository(), memory.NewPlayerRepository(),
		nil, logger,
	)

	mustHandle(t, commands,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		gameweekOneSet("set1"),
		SubmitPrediction{PlayerID: "p1", FixtureSetID: "set1", FixtureID: "f1", Score: points.ScoreLine{Home: 1, Away: 0}},
		KickOffFixture{FixtureSetID: "set1", FixtureID: "f1"},
		ClassifyFixture{FixtureSetID: "set1", FixtureID: "f1", Result: points.ScoreLine{Home: 1, Away: 0}},
	)
	if err := projections.Rebuild(context.Background()); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if projections.Failures() == 0 {
		t.Fatalf("expected failed table writes to be counted")
	}

	// Handlers after the failing one still ran for the same event.
	matrix := loadDoc[document.MatrixDoc](t, documents, document.MatrixKey(privateleague.GlobalLeagueID, 1))
	if matrix.Fixtures[0].State != document.FixtureStateClassified {
		t.Fatalf("matrix not updated: %+v", matrix.Fixtures[0])
	}
	actual := loadDoc[document.TeamTableDoc](t, documents, document.ActualTeamTableKey())
	if len(actual.Rows) != 2 {
		t.Fatalf("actual table not updated: %+v", actual.Rows)
	}
}

func TestProjectionRun_FollowsLiveEvents(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- f.projections.Run(ctx)
	}()

	f.handle(t,
		RegisterPlayer{PlayerID: "p1", Name: "Ann"},
		gameweekOneSet("set1"),
	)

	deadline := time.After(2 * time.Second)
	for {
		_, found, err := f.documents.Get(context.Background(), document.MatrixKey(privateleague.GlobalLeagueID, 1))
		if err != nil {
			t.Fatalf("get matrix: %v", err)
		}
		if found {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("matrix never appeared from live feed")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil && err != context.Canceled {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop on cancel")
	}
}

func TestProjectionFixtureRecords_TrackLifecycle(t *testing.T) {
	t.Parallel()

	f := newProjectionFixture()
	f.handle(t,
		gameweekOneSet("set1"),
		AddFixture{FixtureSetID: "set1", Fixture: FixtureSeedInput{
			FixtureID: "f3", HomeTeam: "Villa", AwayTeam: "Fulham", KickoffAt: testKickoff(4), SortOrder: 3,
		}},
		EditFixtureKickOff{FixtureSetID: "set1", FixtureID: "f3", KickoffAt: testKickoff(6)},
		RemoveOpenFixture{FixtureSetID: "set1", FixtureID: "f2"},
	)
	f.rebuild(t)

	ctx := context.Background()
	fixtures, err := f.fixtureSets.ListFixturesBySet(ctx, "set1")
	if err != nil {
		t.Fatalf("list fixtures: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("expected 2 fixtures after add+remove, got %+v", fixtures)
	}

	f3, found, err := f.fixtureSets.GetFixture(ctx, "f3")
	if err != nil || !found {
		t.Fatalf("get f3: found=%v err=%v", found, err)
	}
	if !f3.KickoffAt.Equal(testKickoff(6)) {
		t.Fatalf("kickoff edit not applied: %v", f3.KickoffAt)
	}
	if f3.State != fixtureset.StateOpen {
		t.Fatalf("unexpected state %s", f3.State)
	}
}
