package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
)

type PredictionRepository struct {
	mu    sync.RWMutex
	items map[string]prediction.Prediction
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{items: map[string]prediction.Prediction{}}
}

func predictionKey(playerID, fixtureID string) string {
	return playerID + "|" + fixtureID
}

func (r *PredictionRepository) UpsertPrediction(_ context.Context, pred prediction.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[predictionKey(pred.PlayerID, pred.FixtureID)] = pred
	return nil
}

func (r *PredictionRepository) ReplaceSet(_ context.Context, playerID, fixtureSetID string, preds []prediction.Prediction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, existing := range r.items {
		if existing.PlayerID == playerID && existing.FixtureSetID == fixtureSetID {
			delete(r.items, key)
		}
	}
	for _, pred := range preds {
		r.items[predictionKey(pred.PlayerID, pred.FixtureID)] = pred
	}
	return nil
}

func (r *PredictionRepository) GetPrediction(_ context.Context, playerID, fixtureID string) (prediction.Prediction, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pred, ok := r.items[predictionKey(playerID, fixtureID)]
	return pred, ok, nil
}

func (r *PredictionRepository) ListByFixture(_ context.Context, fixtureID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []prediction.Prediction
	for _, pred := range r.items {
		if pred.FixtureID == fixtureID {
			out = append(out, pred)
		}
	}
	sortByPlayer(out)
	return out, nil
}

func (r *PredictionRepository) ListByPlayerAndSet(_ context.Context, playerID, fixtureSetID string) ([]prediction.Prediction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []prediction.Prediction
	for _, pred := range r.items {
		if pred.PlayerID == playerID && pred.FixtureSetID == fixtureSetID {
			out = append(out, pred)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FixtureID < out[j].FixtureID })
	return out, nil
}

func (r *PredictionRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = map[string]prediction.Prediction{}
	return nil
}

func sortByPlayer(preds []prediction.Prediction) {
	sort.Slice(preds, func(i, j int) bool {
		if preds[i].PlayerID != preds[j].PlayerID {
			return preds[i].PlayerID < preds[j].PlayerID
		}
		return preds[i].FixtureID < preds[j].FixtureID
	})
}
