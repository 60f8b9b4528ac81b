package fixtureset

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

const (
	StateOpen       = "OPEN"
	StateKickedOff  = "KICKED_OFF"
	StateClassified = "CLASSIFIED"
)

var (
	ErrAlreadyExists       = errors.New("fixture set already exists")
	ErrNotCreated          = errors.New("fixture set does not exist")
	ErrConcluded           = errors.New("fixture set already concluded")
	ErrFixtureNotFound     = errors.New("fixture not found in set")
	ErrDuplicateFixture    = errors.New("fixture id already present")
	ErrDuplicatePairing    = errors.New("team pairing already present in gameweek")
	ErrFixtureNotOpen      = errors.New("fixture has already kicked off")
	ErrFixtureNotKickedOff = errors.New("fixture has not kicked off")
	ErrAlreadyClassified   = errors.New("fixture already classified")
	ErrSetInPlay           = errors.New("fixture set already underway")
	ErrNotAllClassified    = errors.New("fixture set has unclassified fixtures")
)

// Fixture is one match inside a fixture set. Result is set exactly once, by
// classification.
type Fixture struct {
	ID           string
	FixtureSetID string
	Gameweek     int
	HomeTeam     string
	AwayTeam     string
	KickoffAt    time.Time
	SortOrder    int
	State        string
	Result       *points.ScoreLine
}

// PairKey identifies the unordered team pairing, the match key used when
// reconciling external results against fixtures.
func (f Fixture) PairKey() string {
	return PairKey(f.HomeTeam, f.AwayTeam)
}

func PairKey(home, away string) string {
	a := strings.ToLower(strings.TrimSpace(home))
	b := strings.ToLower(strings.TrimSpace(away))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// FixtureSet is the aggregate state for one gameweek's fixtures. The zero
// value is the pre-creation state.
type FixtureSet struct {
	ID        string
	Gameweek  int
	Fixtures  []Fixture
	Concluded bool
	Version   int
}

func (fs FixtureSet) Exists() bool {
	return fs.ID != ""
}

func (fs FixtureSet) Fixture(fixtureID string) (Fixture, bool) {
	for _, fixture := range fs.Fixtures {
		if fixture.ID == fixtureID {
			return fixture, true
		}
	}
	return Fixture{}, false
}

// InPlay reports whether any fixture has left the open state.
func (fs FixtureSet) InPlay() bool {
	for _, fixture := range fs.Fixtures {
		if fixture.State != StateOpen {
			return true
		}
	}
	return false
}

// AllClassified reports whether every fixture carries a result. False for an
// empty set.
func (fs FixtureSet) AllClassified() bool {
	if len(fs.Fixtures) == 0 {
		return false
	}
	for _, fixture := range fs.Fixtures {
		if fixture.State != StateClassified {
			return false
		}
	}
	return true
}

// Month is the calendar month of the earliest kickoff, in "2006-01" form.
// Empty for a set with no fixtures.
func (fs FixtureSet) Month() string {
	var earliest time.Time
	for _, fixture := range fs.Fixtures {
		if earliest.IsZero() || fixture.KickoffAt.Before(earliest) {
			earliest = fixture.KickoffAt
		}
	}
	if earliest.IsZero() {
		return ""
	}
	return points.MonthOf(earliest)
}

// SortedFixtures returns fixtures by display order then id.
func (fs FixtureSet) SortedFixtures() []Fixture {
	sorted := make([]Fixture, len(fs.Fixtures))
	copy(sorted, fs.Fixtures)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].SortOrder != sorted[j].SortOrder {
			return sorted[i].SortOrder < sorted[j].SortOrder
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

func (fs FixtureSet) hasPairing(home, away string) bool {
	key := PairKey(home, away)
	for _, fixture := range fs.Fixtures {
		if fixture.PairKey() == key {
			return true
		}
	}
	return false
}
