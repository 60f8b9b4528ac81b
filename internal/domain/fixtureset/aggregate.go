package fixtureset

import (
	"fmt"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

// Fold replays a fixture-set stream into its current state. Events are
// trusted: they were validated when appended, so Fold only fails on decode.
func Fold(events []event.Envelope) (FixtureSet, error) {
	var fs FixtureSet
	for _, env := range events {
		if err := fs.apply(env); err != nil {
			return FixtureSet{}, err
		}
		fs.Version = env.Version
	}
	return fs, nil
}

func (fs *FixtureSet) apply(env event.Envelope) error {
	switch env.Type {
	case event.TypeFixtureSetCreated:
		payload, err := event.Decode[event.FixtureSetCreated](env)
		if err != nil {
			return err
		}
		fs.ID = payload.FixtureSetID
		fs.Gameweek = payload.Gameweek
		fs.Fixtures = make([]Fixture, 0, len(payload.Fixtures))
		for _, seed := range payload.Fixtures {
			fs.Fixtures = append(fs.Fixtures, Fixture{
				ID:           seed.FixtureID,
				FixtureSetID: payload.FixtureSetID,
				Gameweek:     payload.Gameweek,
				HomeTeam:     seed.HomeTeam,
				AwayTeam:     seed.AwayTeam,
				KickoffAt:    seed.KickoffAt,
				SortOrder:    seed.SortOrder,
				State:        StateOpen,
			})
		}
	case event.TypeFixtureAdded:
		payload, err := event.Decode[event.FixtureAdded](env)
		if err != nil {
			return err
		}
		fs.Fixtures = append(fs.Fixtures, Fixture{
			ID:           payload.FixtureID,
			FixtureSetID: payload.FixtureSetID,
			Gameweek:     fs.Gameweek,
			HomeTeam:     payload.HomeTeam,
			AwayTeam:     payload.AwayTeam,
			KickoffAt:    payload.KickoffAt,
			SortOrder:    payload.SortOrder,
			State:        StateOpen,
		})
	case event.TypeFixtureRemoved:
		payload, err := event.Decode[event.FixtureRemoved](env)
		if err != nil {
			return err
		}
		kept := fs.Fixtures[:0]
		for _, fixture := range fs.Fixtures {
			if fixture.ID != payload.FixtureID {
				kept = append(kept, fixture)
			}
		}
		fs.Fixtures = kept
	case event.TypeFixtureKickOffEdited:
		payload, err := event.Decode[event.FixtureKickOffEdited](env)
		if err != nil {
			return err
		}
		fs.mutateFixture(payload.FixtureID, func(f *Fixture) {
			f.KickoffAt = payload.KickoffAt
		})
	case event.TypeFixtureKickedOff:
		payload, err := event.Decode[event.FixtureKickedOff](env)
		if err != nil {
			return err
		}
		fs.mutateFixture(payload.FixtureID, func(f *Fixture) {
			f.State = StateKickedOff
		})
	case event.TypeFixtureClassified:
		payload, err := event.Decode[event.FixtureClassified](env)
		if err != nil {
			return err
		}
		fs.mutateFixture(payload.FixtureID, func(f *Fixture) {
			result := payload.Result
			f.State = StateClassified
			f.Result = &result
		})
	case event.TypeFixtureSetConcluded:
		fs.Concluded = true
	}
	return nil
}

func (fs *FixtureSet) mutateFixture(fixtureID string, mutate func(*Fixture)) {
	for i := range fs.Fixtures {
		if fs.Fixtures[i].ID == fixtureID {
			mutate(&fs.Fixtures[i])
			return
		}
	}
}

// Create starts a new fixture set in one command. Rejected on an existing
// stream, a non-positive gameweek, or a duplicate id/team pairing among the
// seeds.
func (fs FixtureSet) Create(fixtureSetID string, gameweek int, seeds []event.FixtureSeed, now time.Time) ([]event.Envelope, error) {
	if fs.Exists() {
		return nil, ErrAlreadyExists
	}
	if gameweek < 1 {
		return nil, fmt.Errorf("gameweek must be positive, got %d", gameweek)
	}
	if len(seeds) == 0 {
		return nil, fmt.Errorf("fixture set requires at least one fixture")
	}
	seenIDs := make(map[string]struct{}, len(seeds))
	seenPairs := make(map[string]struct{}, len(seeds))
	for _, seed := range seeds {
		if seed.FixtureID == "" || seed.HomeTeam == "" || seed.AwayTeam == "" {
			return nil, fmt.Errorf("fixture seed requires id and both teams")
		}
		if _, dup := seenIDs[seed.FixtureID]; dup {
			return nil, ErrDuplicateFixture
		}
		seenIDs[seed.FixtureID] = struct{}{}
		pair := PairKey(seed.HomeTeam, seed.AwayTeam)
		if _, dup := seenPairs[pair]; dup {
			return nil, ErrDuplicatePairing
		}
		seenPairs[pair] = struct{}{}
	}

	env, err := event.New(event.FixtureSetStreamID(fixtureSetID), event.TypeFixtureSetCreated, now, event.FixtureSetCreated{
		FixtureSetID: fixtureSetID,
		Gameweek:     gameweek,
		Fixtures:     seeds,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// AddFixture appends one fixture. Only allowed while the whole set is still
// open: once any fixture kicks off the line-up is frozen.
func (fs FixtureSet) AddFixture(seed event.FixtureSeed, now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	if fs.Concluded {
		return nil, ErrConcluded
	}
	if fs.InPlay() {
		return nil, ErrSetInPlay
	}
	if seed.FixtureID == "" || seed.HomeTeam == "" || seed.AwayTeam == "" {
		return nil, fmt.Errorf("fixture seed requires id and both teams")
	}
	if _, exists := fs.Fixture(seed.FixtureID); exists {
		return nil, ErrDuplicateFixture
	}
	if fs.hasPairing(seed.HomeTeam, seed.AwayTeam) {
		return nil, ErrDuplicatePairing
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureAdded, now, event.FixtureAdded{
		FixtureSetID: fs.ID,
		FixtureID:    seed.FixtureID,
		HomeTeam:     seed.HomeTeam,
		AwayTeam:     seed.AwayTeam,
		KickoffAt:    seed.KickoffAt,
		SortOrder:    seed.SortOrder,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// RemoveOpenFixture deletes a fixture that has not kicked off.
func (fs FixtureSet) RemoveOpenFixture(fixtureID string, now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	fixture, found := fs.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotFound
	}
	if fixture.State != StateOpen {
		return nil, ErrFixtureNotOpen
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureRemoved, now, event.FixtureRemoved{
		FixtureSetID: fs.ID,
		FixtureID:    fixtureID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// EditKickOff moves an open fixture's kickoff time.
func (fs FixtureSet) EditKickOff(fixtureID string, kickoffAt time.Time, now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	fixture, found := fs.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotFound
	}
	if fixture.State != StateOpen {
		return nil, ErrFixtureNotOpen
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureKickOffEdited, now, event.FixtureKickOffEdited{
		FixtureSetID: fs.ID,
		FixtureID:    fixtureID,
		KickoffAt:    kickoffAt.UTC(),
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// KickOff transitions an open fixture to kicked-off.
func (fs FixtureSet) KickOff(fixtureID string, now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	fixture, found := fs.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotFound
	}
	if fixture.State != StateOpen {
		return nil, ErrFixtureNotOpen
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureKickedOff, now, event.FixtureKickedOff{
		FixtureSetID: fs.ID,
		FixtureID:    fixtureID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Classify records the real result for a kicked-off fixture. Results are set
// exactly once; transitions never reverse.
func (fs FixtureSet) Classify(fixtureID string, result points.ScoreLine, now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	fixture, found := fs.Fixture(fixtureID)
	if !found {
		return nil, ErrFixtureNotFound
	}
	if fixture.State == StateClassified {
		return nil, ErrAlreadyClassified
	}
	if fixture.State != StateKickedOff {
		return nil, ErrFixtureNotKickedOff
	}
	if err := result.Validate(); err != nil {
		return nil, err
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureClassified, now, event.FixtureClassified{
		FixtureSetID: fs.ID,
		FixtureID:    fixtureID,
		Result:       result,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Conclude closes the set once every fixture is classified.
func (fs FixtureSet) Conclude(now time.Time) ([]event.Envelope, error) {
	if !fs.Exists() {
		return nil, ErrNotCreated
	}
	if fs.Concluded {
		return nil, ErrConcluded
	}
	if !fs.AllClassified() {
		return nil, ErrNotAllClassified
	}

	env, err := event.New(event.FixtureSetStreamID(fs.ID), event.TypeFixtureSetConcluded, now, event.FixtureSetConcluded{
		FixtureSetID: fs.ID,
		Gameweek:     fs.Gameweek,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}
