package document

import (
	"context"
	"testing"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

type stubStore struct {
	docs map[string][]byte
}

var _ Store = (*stubStore)(nil)

func newStubStore() *stubStore {
	return &stubStore{docs: map[string][]byte{}}
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	raw, ok := s.docs[key]
	return raw, ok, nil
}

func (s *stubStore) Put(_ context.Context, key string, doc []byte) error {
	s.docs[key] = doc
	return nil
}

func (s *stubStore) Delete(_ context.Context, key string) error {
	delete(s.docs, key)
	return nil
}

func (s *stubStore) Clear(_ context.Context) error {
	s.docs = map[string][]byte{}
	return nil
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	ctx := context.Background()

	doc := HistoryDoc{LeagueID: "global", Winners: []HistoryWinner{{Window: "gw:1", PlayerID: "p1", Points: 9}}}
	if err := Save(ctx, store, HistoryKey("global"), doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, found, err := Load[HistoryDoc](ctx, store, HistoryKey("global"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected document to be found")
	}
	if loaded.LeagueID != "global" || len(loaded.Winners) != 1 || loaded.Winners[0].Points != 9 {
		t.Fatalf("unexpected document: %+v", loaded)
	}
}

func TestLoadMissing(t *testing.T) {
	t.Parallel()

	_, found, err := Load[MatrixDoc](context.Background(), newStubStore(), MatrixKey("global", 4))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if found {
		t.Fatal("expected missing document")
	}
}

func TestUpdateUpsertsFromZeroValue(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	ctx := context.Background()
	key := LeagueTableKey("global", "season")

	err := Update(ctx, store, key, func(doc LeagueTableDoc) (LeagueTableDoc, error) {
		doc.LeagueID = "global"
		doc.Window = "season"
		return doc, nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, found, err := Load[LeagueTableDoc](ctx, store, key)
	if err != nil || !found {
		t.Fatalf("load after update: found=%v err=%v", found, err)
	}
	if loaded.LeagueID != "global" {
		t.Fatalf("unexpected league id: %q", loaded.LeagueID)
	}
}

func TestUpdateIsIdempotentForSetPatches(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	ctx := context.Background()
	key := MatrixKey("global", 2)

	patch := func(doc MatrixDoc) (MatrixDoc, error) {
		doc.LeagueID = "global"
		doc.Gameweek = 2
		doc.Fixtures = []MatrixFixture{{FixtureID: "f1", State: FixtureStateOpen}}
		return doc, nil
	}

	if err := Update(ctx, store, key, patch); err != nil {
		t.Fatalf("first update: %v", err)
	}
	first := store.docs[key]

	if err := Update(ctx, store, key, patch); err != nil {
		t.Fatalf("second update: %v", err)
	}
	second := store.docs[key]

	if string(first) != string(second) {
		t.Fatalf("patch not idempotent: %s vs %s", first, second)
	}
}

func TestHistoryUpsertWinner(t *testing.T) {
	t.Parallel()

	doc := HistoryDoc{LeagueID: "global"}
	doc = doc.UpsertWinner(HistoryWinner{Window: "gw:1", PlayerID: "p1", Points: 3})
	doc = doc.UpsertWinner(HistoryWinner{Window: "month:2025-08", PlayerID: "p2", Points: 7})
	doc = doc.UpsertWinner(HistoryWinner{Window: "gw:1", PlayerID: "p3", Points: 6})

	if len(doc.Winners) != 2 {
		t.Fatalf("unexpected winner count: got=%d want=2", len(doc.Winners))
	}
	if doc.Winners[0].PlayerID != "p3" || doc.Winners[0].Points != 6 {
		t.Fatalf("expected gw:1 winner replaced, got %+v", doc.Winners[0])
	}
}

func TestScoreLinePointerOmitted(t *testing.T) {
	t.Parallel()

	store := newStubStore()
	ctx := context.Background()

	row := SummaryRow{FixtureID: "f1", Category: "INCORRECT"}
	if err := Save(ctx, store, "k", row); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, _, err := Load[SummaryRow](ctx, store, "k")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Result != nil || loaded.Predicted != nil {
		t.Fatalf("expected nil score pointers, got %+v", loaded)
	}

	result := &points.ScoreLine{Home: 2, Away: 2}
	row.Result = result
	if err := Save(ctx, store, "k", row); err != nil {
		t.Fatalf("save with result: %v", err)
	}
	loaded, _, err = Load[SummaryRow](ctx, store, "k")
	if err != nil {
		t.Fatalf("load with result: %v", err)
	}
	if loaded.Result == nil || *loaded.Result != *result {
		t.Fatalf("unexpected result: %+v", loaded.Result)
	}
}
