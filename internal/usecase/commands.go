package usecase

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

// Command is a caller intent aimed at one aggregate stream. Commands are
// set-style and safe to re-issue; the aggregate decides what they mean.
type Command interface {
	commandName() string
}

type FixtureSeedInput struct {
	FixtureID string    `validate:"required"`
	HomeTeam  string    `validate:"required"`
	AwayTeam  string    `validate:"required"`
	KickoffAt time.Time `validate:"required"`
	SortOrder int
}

type CreateFixtureSet struct {
	FixtureSetID string             `validate:"required"`
	Gameweek     int                `validate:"min=1"`
	Fixtures     []FixtureSeedInput `validate:"required,min=1,dive"`
}

type AddFixture struct {
	FixtureSetID string           `validate:"required"`
	Fixture      FixtureSeedInput `validate:"required"`
}

type RemoveOpenFixture struct {
	FixtureSetID string `validate:"required"`
	FixtureID    string `validate:"required"`
}

type EditFixtureKickOff struct {
	FixtureSetID string    `validate:"required"`
	FixtureID    string    `validate:"required"`
	KickoffAt    time.Time `validate:"required"`
}

type KickOffFixture struct {
	FixtureSetID string `validate:"required"`
	FixtureID    string `validate:"required"`
}

type ClassifyFixture struct {
	FixtureSetID string `validate:"required"`
	FixtureID    string `validate:"required"`
	Result       points.ScoreLine
}

type ConcludeFixtureSet struct {
	FixtureSetID string `validate:"required"`
}

type SubmitPrediction struct {
	PlayerID     string `validate:"required"`
	FixtureSetID string `validate:"required"`
	FixtureID    string `validate:"required"`
	Score        points.ScoreLine
}

type ApplyDoubleDown struct {
	PlayerID     string `validate:"required"`
	FixtureSetID string `validate:"required"`
	FixtureID    string `validate:"required"`
}

// OverwritePredictions copies one player's prediction set onto another, an
// operator repair action.
type OverwritePredictions struct {
	FromPlayerID string `validate:"required"`
	ToPlayerID   string `validate:"required,nefield=FromPlayerID"`
	FixtureSetID string `validate:"required"`
}

type CreateLeague struct {
	LeagueID string `validate:"required"`
	Name     string `validate:"required,max=100"`
	OwnerID  string `validate:"required"`
}

type JoinLeague struct {
	LeagueID string `validate:"required"`
	PlayerID string `validate:"required"`
}

type LeaveLeague struct {
	LeagueID string `validate:"required"`
	PlayerID string `validate:"required"`
}

type RegisterPlayer struct {
	PlayerID string `validate:"required"`
	Name     string `validate:"required,max=100"`
}

type SubscribeToNotifications struct {
	PlayerID     string              `validate:"required"`
	Subscription player.Subscription `validate:"required"`
}

func (CreateFixtureSet) commandName() string         { return "create_fixture_set" }
func (AddFixture) commandName() string               { return "add_fixture" }
func (RemoveOpenFixture) commandName() string        { return "remove_open_fixture" }
func (EditFixtureKickOff) commandName() string       { return "edit_fixture_kick_off" }
func (KickOffFixture) commandName() string           { return "kick_off_fixture" }
func (ClassifyFixture) commandName() string          { return "classify_fixture" }
func (ConcludeFixtureSet) commandName() string       { return "conclude_fixture_set" }
func (SubmitPrediction) commandName() string         { return "submit_prediction" }
func (ApplyDoubleDown) commandName() string          { return "apply_double_down" }
func (OverwritePredictions) commandName() string     { return "overwrite_predictions" }
func (CreateLeague) commandName() string             { return "create_league" }
func (JoinLeague) commandName() string               { return "join_league" }
func (LeaveLeague) commandName() string              { return "leave_league" }
func (RegisterPlayer) commandName() string           { return "register_player" }
func (SubscribeToNotifications) commandName() string { return "subscribe_to_notifications" }
