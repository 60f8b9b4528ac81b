package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/fixtureset"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const defaultFetchWorkers = 4

// ProvidedResult is one full-time result reported by an external provider.
// Team names match fixtures by unordered pairing, so the provider's home and
// away orientation does not have to agree with ours.
type ProvidedResult struct {
	HomeTeam string
	AwayTeam string
	Score    points.ScoreLine
}

// ResultsProvider fetches full-time results for one gameweek.
type ResultsProvider interface {
	FetchResults(ctx context.Context, gameweek int) ([]ProvidedResult, error)
}

type noopResultsProvider struct{}

func (noopResultsProvider) FetchResults(_ context.Context, _ int) ([]ProvidedResult, error) {
	return nil, nil
}

func NewNoopResultsProvider() ResultsProvider {
	return noopResultsProvider{}
}

// ReconciliationService drives fixtures forward: open fixtures kick off when
// their time comes, kicked-off fixtures classify once the provider reports
// their result, fully classified sets conclude. All writes go through the
// command service like any other caller's.
type ReconciliationService struct {
	commands     *CommandService
	fixtureSets  fixtureset.Repository
	provider     ResultsProvider
	fetchWorkers int
	logger       *logging.Logger
	now          func() time.Time
}

func NewReconciliationService(
	commands *CommandService,
	fixtureSets fixtureset.Repository,
	provider ResultsProvider,
	fetchWorkers int,
	logger *logging.Logger,
) *ReconciliationService {
	if provider == nil {
		provider = NewNoopResultsProvider()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if fetchWorkers <= 0 {
		fetchWorkers = defaultFetchWorkers
	}

	return &ReconciliationService{
		commands:     commands,
		fixtureSets:  fixtureSets,
		provider:     provider,
		fetchWorkers: fetchWorkers,
		logger:       logger,
		now:          time.Now,
	}
}

// Run ticks at the given interval until the context ends. The first tick
// fires immediately.
func (s *ReconciliationService) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			s.logger.ErrorContext(ctx, "reconciliation tick failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick runs one reconciliation pass: kick off due fixtures, conclude
// finished sets, then fetch and apply results. Conclusion runs before
// classification on purpose: a set concludes off classifications a previous
// tick durably applied, never off results landed moments ago.
func (s *ReconciliationService) Tick(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.Tick")
	defer span.End()

	if err := s.kickOffDueFixtures(ctx); err != nil {
		return err
	}
	if err := s.concludeFinishedSets(ctx); err != nil {
		return err
	}
	if err := s.classifyKickedOffFixtures(ctx); err != nil {
		return err
	}
	return nil
}

func (s *ReconciliationService) kickOffDueFixtures(ctx context.Context) error {
	due, err := s.fixtureSets.ListOpenFixturesDueBy(ctx, s.now())
	if err != nil {
		return fmt.Errorf("list due fixtures: %w", err)
	}

	for _, fixture := range due {
		cmd := KickOffFixture{FixtureSetID: fixture.FixtureSetID, FixtureID: fixture.ID}
		if err := s.commands.Handle(ctx, cmd); err != nil {
			s.logger.WarnContext(ctx, "kick off failed",
				"fixture_id", fixture.ID,
				"error", err,
			)
		}
	}
	return nil
}

func (s *ReconciliationService) concludeFinishedSets(ctx context.Context) error {
	sets, err := s.fixtureSets.ListFixtureSets(ctx)
	if err != nil {
		return fmt.Errorf("list fixture sets: %w", err)
	}

	for _, set := range sets {
		if set.Concluded || !set.AllClassified() {
			continue
		}
		if err := s.commands.Handle(ctx, ConcludeFixtureSet{FixtureSetID: set.ID}); err != nil {
			s.logger.WarnContext(ctx, "conclude failed",
				"fixture_set_id", set.ID,
				"error", err,
			)
		}
	}
	return nil
}

// classifyKickedOffFixtures fetches results per distinct gameweek, in
// parallel, and classifies the fixtures they match. Gameweeks never share a
// fixture set, so the goroutines write to disjoint streams.
func (s *ReconciliationService) classifyKickedOffFixtures(ctx context.Context) error {
	kicked, err := s.fixtureSets.ListKickedOffFixtures(ctx)
	if err != nil {
		return fmt.Errorf("list kicked off fixtures: %w", err)
	}
	if len(kicked) == 0 {
		return nil
	}

	byGameweek := map[int][]fixtureset.Fixture{}
	for _, fixture := range kicked {
		byGameweek[fixture.Gameweek] = append(byGameweek[fixture.Gameweek], fixture)
	}

	workers := pool.New().WithMaxGoroutines(s.fetchWorkers)
	for gameweek, fixtures := range byGameweek {
		gameweek, fixtures := gameweek, fixtures
		workers.Go(func() {
			s.classifyGameweek(ctx, gameweek, fixtures)
		})
	}
	workers.Wait()
	return nil
}

// classifyGameweek is fail-soft top to bottom: a provider error skips the
// gameweek until the next tick, an unmatched result is ignored, a rejected
// classification is logged while the rest proceed.
func (s *ReconciliationService) classifyGameweek(ctx context.Context, gameweek int, fixtures []fixtureset.Fixture) {
	results, err := s.provider.FetchResults(ctx, gameweek)
	if err != nil {
		s.logger.WarnContext(ctx, "fetch results failed",
			"gameweek", gameweek,
			"error", err,
		)
		return
	}
	if len(results) == 0 {
		return
	}
	s.applyResults(ctx, gameweek, fixtures, results)
}

// ApplyResults classifies a gameweek's kicked-off fixtures against results
// that arrived by push instead of poll. Matching and command handling are the
// same as on a reconciliation tick.
func (s *ReconciliationService) ApplyResults(ctx context.Context, gameweek int, results []ProvidedResult) error {
	if gameweek <= 0 {
		return fmt.Errorf("%w: gameweek must be greater than zero", ErrInvalidInput)
	}
	if len(results) == 0 {
		return nil
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.ReconciliationService.ApplyResults")
	defer span.End()

	kicked, err := s.fixtureSets.ListKickedOffFixtures(ctx)
	if err != nil {
		return fmt.Errorf("list kicked off fixtures: %w", err)
	}

	fixtures := kicked[:0:0]
	for _, fixture := range kicked {
		if fixture.Gameweek == gameweek {
			fixtures = append(fixtures, fixture)
		}
	}
	if len(fixtures) == 0 {
		return nil
	}

	s.applyResults(ctx, gameweek, fixtures, results)
	return nil
}

func (s *ReconciliationService) applyResults(ctx context.Context, gameweek int, fixtures []fixtureset.Fixture, results []ProvidedResult) {
	byPair := make(map[string]ProvidedResult, len(results))
	for _, result := range results {
		byPair[fixtureset.PairKey(result.HomeTeam, result.AwayTeam)] = result
	}

	for _, fixture := range fixtures {
		provided, ok := byPair[fixture.PairKey()]
		if !ok {
			continue
		}
		score, ok := orientScore(fixture, provided)
		if !ok {
			continue
		}

		cmd := ClassifyFixture{
			FixtureSetID: fixture.FixtureSetID,
			FixtureID:    fixture.ID,
			Result:       score,
		}
		if err := s.commands.Handle(ctx, cmd); err != nil {
			s.logger.WarnContext(ctx, "classify failed",
				"fixture_id", fixture.ID,
				"gameweek", gameweek,
				"error", err,
			)
		}
	}
}

// orientScore flips the provider's score line when its home side is our away
// side. The pair key already guarantees the team sets match.
func orientScore(fixture fixtureset.Fixture, provided ProvidedResult) (points.ScoreLine, bool) {
	if equalTeam(fixture.HomeTeam, provided.HomeTeam) {
		return provided.Score, true
	}
	if equalTeam(fixture.HomeTeam, provided.AwayTeam) {
		return points.ScoreLine{Home: provided.Score.Away, Away: provided.Score.Home}, true
	}
	return points.ScoreLine{}, false
}

func equalTeam(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
