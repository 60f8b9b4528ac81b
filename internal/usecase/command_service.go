package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
)

// commandAppendRetries bounds re-decide attempts after a version conflict.
// A conflict after the last attempt surfaces as ErrConflict to the caller.
const commandAppendRetries = 3

// CommandService is the single write path: every intent becomes events
// through here, whether it came from a player, an operator or the
// reconciliation loop.
type CommandService struct {
	events   event.Store
	validate *validator.Validate
	logger   *logging.Logger
	now      func() time.Time
}

func NewCommandService(events event.Store, logger *logging.Logger) *CommandService {
	if logger == nil {
		logger = logging.Default()
	}
	return &CommandService{
		events:   events,
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Handle validates the command, folds the target stream, asks the aggregate
// to decide and appends the resulting events. A conflicting append re-reads
// and re-decides: the conflict means another writer won the race, not that
// anything is corrupt.
func (s *CommandService) Handle(ctx context.Context, cmd Command) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.CommandService.Handle")
	defer span.End()

	if err := s.validate.StructCtx(ctx, cmd); err != nil {
		return fmt.Errorf("%w: validation failed: %v", ErrInvalidInput, err)
	}

	var lastErr error
	for attempt := 0; attempt <= commandAppendRetries; attempt++ {
		streamID, expectedVersion, events, err := s.decide(ctx, cmd)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		err = s.events.Append(ctx, streamID, expectedVersion, events)
		if err == nil {
			s.logger.DebugContext(ctx, "command handled",
				"command", cmd.commandName(),
				"stream", streamID,
				"events", len(events),
			)
			return nil
		}
		if !errors.Is(err, event.ErrConflict) {
			return fmt.Errorf("append %s events: %w", cmd.commandName(), err)
		}
		lastErr = err
	}
	return fmt.Errorf("%w: command=%s: %v", ErrConflict, cmd.commandName(), lastErr)
}

func (s *CommandService) decide(ctx context.Context, cmd Command) (string, int, []event.Envelope, error) {
	switch c := cmd.(type) {
	case CreateFixtureSet:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.Create(c.FixtureSetID, c.Gameweek, seedsFromInputs(c.Fixtures), s.now())
		})
	case AddFixture:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.AddFixture(seedFromInput(c.Fixture), s.now())
		})
	case RemoveOpenFixture:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.RemoveOpenFixture(c.FixtureID, s.now())
		})
	case EditFixtureKickOff:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.EditKickOff(c.FixtureID, c.KickoffAt, s.now())
		})
	case KickOffFixture:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.KickOff(c.FixtureID, s.now())
		})
	case ClassifyFixture:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.Classify(c.FixtureID, c.Result, s.now())
		})
	case ConcludeFixtureSet:
		return s.decideFixtureSet(ctx, c.FixtureSetID, func(fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return fs.Conclude(s.now())
		})
	case SubmitPrediction:
		return s.decidePrediction(ctx, c.PlayerID, c.FixtureSetID, func(ps prediction.PredictionSet, fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return ps.Enter(fs, c.FixtureID, c.Score, s.now())
		})
	case ApplyDoubleDown:
		return s.decidePrediction(ctx, c.PlayerID, c.FixtureSetID, func(ps prediction.PredictionSet, fs fixtureset.FixtureSet) ([]event.Envelope, error) {
			return ps.ApplyDoubleDown(fs, c.FixtureID, s.now())
		})
	case OverwritePredictions:
		return s.decideOverwrite(ctx, c)
	case CreateLeague:
		return s.decideLeague(ctx, c.LeagueID, func(l privateleague.League) ([]event.Envelope, error) {
			return l.Create(c.LeagueID, c.Name, c.OwnerID, s.now())
		})
	case JoinLeague:
		return s.decideLeague(ctx, c.LeagueID, func(l privateleague.League) ([]event.Envelope, error) {
			return l.Join(c.PlayerID, s.now())
		})
	case LeaveLeague:
		return s.decideLeague(ctx, c.LeagueID, func(l privateleague.League) ([]event.Envelope, error) {
			return l.Leave(c.PlayerID, s.now())
		})
	case RegisterPlayer:
		return s.decidePlayer(ctx, c.PlayerID, func(p player.Player) ([]event.Envelope, error) {
			return p.Register(c.PlayerID, c.Name, s.now())
		})
	case SubscribeToNotifications:
		return s.decidePlayer(ctx, c.PlayerID, func(p player.Player) ([]event.Envelope, error) {
			return p.Subscribe(c.Subscription, s.now())
		})
	default:
		return "", 0, nil, fmt.Errorf("%w: unknown command %T", ErrInvalidInput, cmd)
	}
}

func (s *CommandService) decideFixtureSet(ctx context.Context, fixtureSetID string, decide func(fixtureset.FixtureSet) ([]event.Envelope, error)) (string, int, []event.Envelope, error) {
	streamID := event.FixtureSetStreamID(fixtureSetID)
	fs, err := s.loadFixtureSet(ctx, fixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	events, err := decide(fs)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return streamID, fs.Version, events, nil
}

func (s *CommandService) decidePrediction(ctx context.Context, playerID, fixtureSetID string, decide func(prediction.PredictionSet, fixtureset.FixtureSet) ([]event.Envelope, error)) (string, int, []event.Envelope, error) {
	fs, err := s.loadFixtureSet(ctx, fixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	if !fs.Exists() {
		return "", 0, nil, fmt.Errorf("%w: fixture set=%s", ErrInvalidInput, fixtureSetID)
	}

	streamID := event.PredictionStreamID(playerID, fixtureSetID)
	ps, err := s.loadPredictionSet(ctx, playerID, fixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	events, err := decide(ps, fs)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return streamID, ps.Version, events, nil
}

func (s *CommandService) decideOverwrite(ctx context.Context, cmd OverwritePredictions) (string, int, []event.Envelope, error) {
	fs, err := s.loadFixtureSet(ctx, cmd.FixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	if !fs.Exists() {
		return "", 0, nil, fmt.Errorf("%w: fixture set=%s", ErrInvalidInput, cmd.FixtureSetID)
	}

	source, err := s.loadPredictionSet(ctx, cmd.FromPlayerID, cmd.FixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	target, err := s.loadPredictionSet(ctx, cmd.ToPlayerID, cmd.FixtureSetID)
	if err != nil {
		return "", 0, nil, err
	}
	events, err := target.Overwrite(fs, source, s.now())
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return event.PredictionStreamID(cmd.ToPlayerID, cmd.FixtureSetID), target.Version, events, nil
}

func (s *CommandService) decideLeague(ctx context.Context, leagueID string, decide func(privateleague.League) ([]event.Envelope, error)) (string, int, []event.Envelope, error) {
	streamID := event.LeagueStreamID(leagueID)
	envelopes, err := s.events.ReadStream(ctx, streamID)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read league stream: %w", err)
	}
	league, err := privateleague.Fold(envelopes)
	if err != nil {
		return "", 0, nil, fmt.Errorf("fold league stream: %w", err)
	}
	events, err := decide(league)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return streamID, league.Version, events, nil
}

func (s *CommandService) decidePlayer(ctx context.Context, playerID string, decide func(player.Player) ([]event.Envelope, error)) (string, int, []event.Envelope, error) {
	streamID := event.PlayerStreamID(playerID)
	envelopes, err := s.events.ReadStream(ctx, streamID)
	if err != nil {
		return "", 0, nil, fmt.Errorf("read player stream: %w", err)
	}
	p, err := player.Fold(envelopes)
	if err != nil {
		return "", 0, nil, fmt.Errorf("fold player stream: %w", err)
	}
	events, err := decide(p)
	if err != nil {
		return "", 0, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return streamID, p.Version, events, nil
}

func (s *CommandService) loadFixtureSet(ctx context.Context, fixtureSetID string) (fixtureset.FixtureSet, error) {
	envelopes, err := s.events.ReadStream(ctx, event.FixtureSetStreamID(fixtureSetID))
	if err != nil {
		return fixtureset.FixtureSet{}, fmt.Errorf("read fixture set stream: %w", err)
	}
	fs, err := fixtureset.Fold(envelopes)
	if err != nil {
		return fixtureset.FixtureSet{}, fmt.Errorf("fold fixture set stream: %w", err)
	}
	return fs, nil
}

func (s *CommandService) loadPredictionSet(ctx context.Context, playerID, fixtureSetID string) (prediction.PredictionSet, error) {
	envelopes, err := s.events.ReadStream(ctx, event.PredictionStreamID(playerID, fixtureSetID))
	if err != nil {
		return prediction.PredictionSet{}, fmt.Errorf("read prediction stream: %w", err)
	}
	ps, err := prediction.Fold(playerID, fixtureSetID, envelopes)
	if err != nil {
		return prediction.PredictionSet{}, fmt.Errorf("fold prediction stream: %w", err)
	}
	return ps, nil
}

func seedsFromInputs(inputs []FixtureSeedInput) []event.FixtureSeed {
	seeds := make([]event.FixtureSeed, 0, len(inputs))
	for _, input := range inputs {
		seeds = append(seeds, seedFromInput(input))
	}
	return seeds
}

func seedFromInput(input FixtureSeedInput) event.FixtureSeed {
	return event.FixtureSeed{
		FixtureID: input.FixtureID,
		HomeTeam:  input.HomeTeam,
		AwayTeam:  input.AwayTeam,
		KickoffAt: input.KickoffAt.UTC(),
		SortOrder: input.SortOrder,
	}
}
