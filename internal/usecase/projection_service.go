package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/event"
	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/player"
	"github.com/riskibarqy/predictions-league/internal/domain/prediction"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
)

const replayPageSize = 256

// projectionHandler is one named step in the fixed handler list for an event
// type. Handlers run synchronously in list order.
type projectionHandler struct {
	name  string
	apply func(ctx context.Context, env event.Envelope) error
}

// ProjectionService derives every read model from the event log. Rebuild
// replays the full log into cleared projections; Run rebuilds and then
// follows the live feed. Events are dispatched strictly one at a time in
// global order, so handlers never observe partial effects of a later event.
//
// Every handler is a pure function of the event and the records earlier
// handlers maintain, keyed deterministically, so replaying the log a second
// time lands on byte-identical projections.
type ProjectionService struct {
	events        event.Store
	documents     document.Store
	fixtureSets   fixtureset.Repository
	predictions   prediction.Repository
	leagues       privateleague.Repository
	players       player.Repository
	notifications *NotificationService
	logger        *logging.Logger

	failures atomic.Int64
	lastSeq  atomic.Int64
}

func NewProjectionService(
	events event.Store,
	documents document.Store,
	fixtureSets fixtureset.Repository,
	predictions prediction.Repository,
	leagues privateleague.Repository,
	players player.Repository,
	notifications *NotificationService,
	logger *logging.Logger,
) *ProjectionService {
	if logger == nil {
		logger = logging.Default()
	}
	if notifications == nil {
		notifications = NewNotificationService(nil, players, 0, logger)
	}

	return &ProjectionService{
		events:        events,
		documents:     documents,
		fixtureSets:   fixtureSets,
		predictions:   predictions,
		leagues:       leagues,
		players:       players,
		notifications: notifications,
		logger:        logger,
	}
}

// Failures reports how many handler invocations have failed since start.
func (s *ProjectionService) Failures() int64 {
	return s.failures.Load()
}

// LastSequence reports the global sequence of the last dispatched event.
func (s *ProjectionService) LastSequence() int64 {
	return s.lastSeq.Load()
}

// Rebuild wipes every projection and replays the whole log in global order.
func (s *ProjectionService) Rebuild(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProjectionService.Rebuild")
	defer span.End()

	if err := s.clearProjections(ctx); err != nil {
		return err
	}

	replayed := 0
	from := int64(1)
	for {
		page, err := s.events.ReadAll(ctx, from, replayPageSize)
		if err != nil {
			return fmt.Errorf("read event log from %d: %w", from, err)
		}
		for _, env := range page {
			s.dispatch(ctx, env, false)
		}
		replayed += len(page)
		if len(page) < replayPageSize {
			break
		}
		from = page[len(page)-1].GlobalSeq + 1
	}

	s.logger.InfoContext(ctx, "projections rebuilt",
		"events", replayed,
		"last_seq", s.lastSeq.Load(),
		"handler_failures", s.failures.Load(),
	)
	return nil
}

// Run rebuilds and then follows the live feed until the context ends. The
// subscription opens before the replay so events appended mid-rebuild are not
// lost; the sequence guard drops the ones the replay already covered.
func (s *ProjectionService) Run(ctx context.Context) error {
	feed, stop := s.events.Subscribe(ctx)
	defer stop()

	if err := s.Rebuild(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-feed:
			if !ok {
				return nil
			}
			if env.GlobalSeq <= s.lastSeq.Load() {
				continue
			}
			s.dispatch(ctx, env, true)
		}
	}
}

func (s *ProjectionService) clearProjections(ctx context.Context) error {
	if err := s.documents.Clear(ctx); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	if err := s.fixtureSets.Clear(ctx); err != nil {
		return fmt.Errorf("clear fixture set records: %w", err)
	}
	if err := s.predictions.Clear(ctx); err != nil {
		return fmt.Errorf("clear prediction records: %w", err)
	}
	if err := s.leagues.Clear(ctx); err != nil {
		return fmt.Errorf("clear league records: %w", err)
	}
	if err := s.players.Clear(ctx); err != nil {
		return fmt.Errorf("clear player records: %w", err)
	}
	return nil
}

// dispatch runs the full handler list for one event. A failing handler is
// logged and counted; the remaining handlers still run, and a later Rebuild
// recovers whatever state the failure left behind.
func (s *ProjectionService) dispatch(ctx context.Context, env event.Envelope, live bool) {
	for _, handler := range s.handlersFor(env.Type, live) {
		if err := handler.apply(ctx, env); err != nil {
			s.failures.Add(1)
			s.logger.ErrorContext(ctx, "projection handler failed",
				"handler", handler.name,
				"event", string(env.Type),
				"stream", env.StreamID,
				"global_seq", env.GlobalSeq,
				"error", err,
			)
		}
	}
	s.lastSeq.Store(env.GlobalSeq)
}

// handlersFor returns the fixed handler list for an event type. Order
// matters: record handlers run first so the document handlers behind them
// read up-to-date records, and league tables rebuild before history winners
// are lifted off them.
//
// Pushes run only on live events. A boot replay re-derives every document
// but must not re-send week-old notifications.
func (s *ProjectionService) handlersFor(eventType event.Type, live bool) []projectionHandler {
	switch eventType {
	case event.TypeFixtureSetCreated:
		handlers := []projectionHandler{
			{name: "fixture_set_records", apply: s.applyFixtureSetCreatedRecords},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
		}
		if live {
			handlers = append(handlers, projectionHandler{name: "notify_players", apply: s.applyFixtureSetCreatedNotify})
		}
		return handlers
	case event.TypeFixtureAdded:
		return []projectionHandler{
			{name: "fixture_record", apply: s.applyFixtureAddedRecord},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
		}
	case event.TypeFixtureRemoved:
		return []projectionHandler{
			{name: "fixture_record", apply: s.applyFixtureRemovedRecord},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
		}
	case event.TypeFixtureKickOffEdited:
		return []projectionHandler{
			{name: "fixture_record", apply: s.applyKickOffEditedRecord},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
		}
	case event.TypeFixtureKickedOff:
		return []projectionHandler{
			{name: "fixture_record", apply: s.applyFixtureKickedOffRecord},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
			{name: "predicted_team_tables", apply: s.applyFixtureKickedOffPredictedTables},
		}
	case event.TypeFixtureClassified:
		return []projectionHandler{
			{name: "fixture_record", apply: s.applyFixtureClassifiedRecord},
			{name: "league_tables", apply: s.applyFixtureClassifiedTables},
			{name: "player_summaries", apply: s.applyFixtureClassifiedSummaries},
			{name: "history_winners", apply: s.applyFixtureClassifiedHistory},
			{name: "league_matrices", apply: s.applyFixtureSetMatrices},
			{name: "actual_team_table", apply: s.applyFixtureClassifiedActualTable},
		}
	case event.TypeFixtureSetConcluded:
		return []projectionHandler{
			{name: "fixture_set_record", apply: s.applyFixtureSetConcludedRecord},
			{name: "weekly_winner", apply: s.applyFixtureSetConcludedWinner},
		}
	case event.TypePredictionEntered:
		return []projectionHandler{
			{name: "prediction_record", apply: s.applyPredictionEnteredRecord},
		}
	case event.TypeDoubleDownApplied:
		return []projectionHandler{
			{name: "prediction_records", apply: s.applyDoubleDownAppliedRecords},
		}
	case event.TypePredictionsOverwritten:
		return []projectionHandler{
			{name: "prediction_records", apply: s.applyPredictionsOverwrittenRecords},
		}
	case event.TypeLeagueCreated:
		return []projectionHandler{
			{name: "league_record", apply: s.applyLeagueCreatedRecord},
			{name: "league_matrices", apply: s.applyLeagueMatrices},
		}
	case event.TypeLeagueJoined:
		return []projectionHandler{
			{name: "league_record", apply: s.applyLeagueJoinedRecord},
			{name: "league_matrices", apply: s.applyLeagueMatrices},
		}
	case event.TypeLeagueLeft:
		return []projectionHandler{
			{name: "league_record", apply: s.applyLeagueLeftRecord},
		}
	case event.TypePlayerRegistered:
		return []projectionHandler{
			{name: "player_record", apply: s.applyPlayerRegisteredRecord},
		}
	case event.TypePlayerSubscribed:
		return []projectionHandler{
			{name: "player_record", apply: s.applyPlayerSubscribedRecord},
		}
	}
	return nil
}
