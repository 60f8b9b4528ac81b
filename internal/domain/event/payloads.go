package event

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

type FixtureSetCreated struct {
	FixtureSetID string        `json:"fixtureSetId"`
	Gameweek     int           `json:"gameweek"`
	Fixtures     []FixtureSeed `json:"fixtures"`
}

// FixtureSeed is a fixture as named inside FixtureSetCreated.
type FixtureSeed struct {
	FixtureID string    `json:"fixtureId"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	KickoffAt time.Time `json:"kickoffAt"`
	SortOrder int       `json:"sortOrder"`
}

type FixtureAdded struct {
	FixtureSetID string    `json:"fixtureSetId"`
	FixtureID    string    `json:"fixtureId"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	KickoffAt    time.Time `json:"kickoffAt"`
	SortOrder    int       `json:"sortOrder"`
}

type FixtureRemoved struct {
	FixtureSetID string `json:"fixtureSetId"`
	FixtureID    string `json:"fixtureId"`
}

type FixtureKickOffEdited struct {
	FixtureSetID string    `json:"fixtureSetId"`
	FixtureID    string    `json:"fixtureId"`
	KickoffAt    time.Time `json:"kickoffAt"`
}

type FixtureKickedOff struct {
	FixtureSetID string `json:"fixtureSetId"`
	FixtureID    string `json:"fixtureId"`
}

type FixtureClassified struct {
	FixtureSetID string           `json:"fixtureSetId"`
	FixtureID    string           `json:"fixtureId"`
	Result       points.ScoreLine `json:"result"`
}

type FixtureSetConcluded struct {
	FixtureSetID string `json:"fixtureSetId"`
	Gameweek     int    `json:"gameweek"`
}

type PredictionEntered struct {
	PlayerID     string           `json:"playerId"`
	FixtureSetID string           `json:"fixtureSetId"`
	FixtureID    string           `json:"fixtureId"`
	Score        points.ScoreLine `json:"score"`
}

type DoubleDownApplied struct {
	PlayerID     string `json:"playerId"`
	FixtureSetID string `json:"fixtureSetId"`
	FixtureID    string `json:"fixtureId"`
	// PreviousFixtureID is the fixture losing the flag, empty when none held it.
	PreviousFixtureID string `json:"previousFixtureId,omitempty"`
}

type PredictionsOverwritten struct {
	PlayerID     string           `json:"playerId"`
	FixtureSetID string           `json:"fixtureSetId"`
	SourcePlayer string           `json:"sourcePlayer"`
	Predictions  []PredictionSeed `json:"predictions"`
}

// PredictionSeed is one copied prediction inside PredictionsOverwritten.
type PredictionSeed struct {
	FixtureID  string           `json:"fixtureId"`
	Score      points.ScoreLine `json:"score"`
	DoubleDown bool             `json:"doubleDown"`
}

type LeagueCreated struct {
	LeagueID string `json:"leagueId"`
	Name     string `json:"name"`
	OwnerID  string `json:"ownerId"`
}

type LeagueJoined struct {
	LeagueID string `json:"leagueId"`
	PlayerID string `json:"playerId"`
}

type LeagueLeft struct {
	LeagueID string `json:"leagueId"`
	PlayerID string `json:"playerId"`
}

type PlayerRegistered struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type PlayerSubscribed struct {
	PlayerID string `json:"playerId"`
	Endpoint string `json:"endpoint"`
	Auth     string `json:"auth"`
	P256DH   string `json:"p256dh"`
}
