package fixtureset

import (
	"context"
	"time"
)

// Repository holds the projected structural records for fixture sets. These
// are read-model rows owned by the projection handlers; the reconciliation
// loop reads them to decide which commands to issue. All of it is disposable
// and rebuilt from the log.
type Repository interface {
	UpsertFixtureSet(ctx context.Context, set FixtureSet) error
	GetFixtureSet(ctx context.Context, fixtureSetID string) (FixtureSet, bool, error)
	GetFixtureSetByGameweek(ctx context.Context, gameweek int) (FixtureSet, bool, error)
	ListFixtureSets(ctx context.Context) ([]FixtureSet, error)

	UpsertFixture(ctx context.Context, fixture Fixture) error
	DeleteFixture(ctx context.Context, fixtureID string) error
	GetFixture(ctx context.Context, fixtureID string) (Fixture, bool, error)
	ListFixturesBySet(ctx context.Context, fixtureSetID string) ([]Fixture, error)

	// ListOpenFixturesDueBy returns open fixtures whose kickoff is at or
	// before the given instant.
	ListOpenFixturesDueBy(ctx context.Context, instant time.Time) ([]Fixture, error)
	// ListKickedOffFixtures returns fixtures awaiting classification.
	ListKickedOffFixtures(ctx context.Context) ([]Fixture, error)

	Clear(ctx context.Context) error
}
