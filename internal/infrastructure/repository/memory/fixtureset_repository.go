package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
)

type FixtureSetRepository struct {
	mu       sync.RWMutex
	sets     map[string]fixtureset.FixtureSet
	fixtures map[string]fixtureset.Fixture
	orders   []string
}

func NewFixtureSetRepository() *FixtureSetRepository {
	return &FixtureSetRepository{
		sets:     map[string]fixtureset.FixtureSet{},
		fixtures: map[string]fixtureset.Fixture{},
	}
}

func (r *FixtureSetRepository) UpsertFixtureSet(_ context.Context, set fixtureset.FixtureSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sets[set.ID]; !exists {
		r.orders = append(r.orders, set.ID)
	}
	set.Fixtures = nil
	r.sets[set.ID] = set
	return nil
}

func (r *FixtureSetRepository) GetFixtureSet(_ context.Context, fixtureSetID string) (fixtureset.FixtureSet, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.sets[fixtureSetID]
	if !ok {
		return fixtureset.FixtureSet{}, false, nil
	}
	set.Fixtures = r.fixturesOf(fixtureSetID)
	return set, true, nil
}

func (r *FixtureSetRepository) GetFixtureSetByGameweek(_ context.Context, gameweek int) (fixtureset.FixtureSet, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		set := r.sets[id]
		if set.Gameweek == gameweek {
			set.Fixtures = r.fixturesOf(id)
			return set, true, nil
		}
	}
	return fixtureset.FixtureSet{}, false, nil
}

func (r *FixtureSetRepository) ListFixtureSets(_ context.Context) ([]fixtureset.FixtureSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]fixtureset.FixtureSet, 0, len(r.orders))
	for _, id := range r.orders {
		set := r.sets[id]
		set.Fixtures = r.fixturesOf(id)
		out = append(out, set)
	}
	return out, nil
}

func (r *FixtureSetRepository) UpsertFixture(_ context.Context, fixture fixtureset.Fixture) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.fixtures[fixture.ID] = fixture
	return nil
}

func (r *FixtureSetRepository) DeleteFixture(_ context.Context, fixtureID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.fixtures, fixtureID)
	return nil
}

func (r *FixtureSetRepository) GetFixture(_ context.Context, fixtureID string) (fixtureset.Fixture, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fixture, ok := r.fixtures[fixtureID]
	return fixture, ok, nil
}

func (r *FixtureSetRepository) ListFixturesBySet(_ context.Context, fixtureSetID string) ([]fixtureset.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.fixturesOf(fixtureSetID), nil
}

func (r *FixtureSetRepository) ListOpenFixturesDueBy(_ context.Context, instant time.Time) ([]fixtureset.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []fixtureset.Fixture
	for _, fixture := range r.fixtures {
		if fixture.State == fixtureset.StateOpen && !fixture.KickoffAt.After(instant) {
			out = append(out, fixture)
		}
	}
	sortFixtures(out)
	return out, nil
}

func (r *FixtureSetRepository) ListKickedOffFixtures(_ context.Context) ([]fixtureset.Fixture, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []fixtureset.Fixture
	for _, fixture := range r.fixtures {
		if fixture.State == fixtureset.StateKickedOff {
			out = append(out, fixture)
		}
	}
	sortFixtures(out)
	return out, nil
}

func (r *FixtureSetRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sets = map[string]fixtureset.FixtureSet{}
	r.fixtures = map[string]fixtureset.Fixture{}
	r.orders = nil
	return nil
}

// fixturesOf needs at least a read lock held.
func (r *FixtureSetRepository) fixturesOf(fixtureSetID string) []fixtureset.Fixture {
	var out []fixtureset.Fixture
	for _, fixture := range r.fixtures {
		if fixture.FixtureSetID == fixtureSetID {
			out = append(out, fixture)
		}
	}
	sortFixtures(out)
	return out
}

func sortFixtures(fixtures []fixtureset.Fixture) {
	sort.SliceStable(fixtures, func(i, j int) bool {
		if fixtures[i].SortOrder != fixtures[j].SortOrder {
			return fixtures[i].SortOrder < fixtures[j].SortOrder
		}
		return fixtures[i].ID < fixtures[j].ID
	})
}
