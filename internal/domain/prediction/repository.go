package prediction

import "context"

// Repository holds projected prediction records, the rows the kickoff
// snapshot and summary rebuild read. Owned by projection handlers, wiped on
// rebuild.
type Repository interface {
	UpsertPrediction(ctx context.Context, pred Prediction) error
	ReplaceSet(ctx context.Context, playerID, fixtureSetID string, preds []Prediction) error
	GetPrediction(ctx context.Context, playerID, fixtureID string) (Prediction, bool, error)
	ListByFixture(ctx context.Context, fixtureID string) ([]Prediction, error)
	ListByPlayerAndSet(ctx context.Context, playerID, fixtureSetID string) ([]Prediction, error)
	Clear(ctx context.Context) error
}
