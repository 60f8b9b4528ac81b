package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/points"
)

// QueryService serves read documents. It only ever touches the document
// store: by the time a query arrives, the projection handlers have done all
// the deriving.
type QueryService struct {
	documents document.Store
}

func NewQueryService(documents document.Store) *QueryService {
	return &QueryService{documents: documents}
}

// LeagueTable returns the ranked table for one league and window. The window
// key takes the stored forms "season", "gw:<n>" or "month:<yyyy-mm>".
func (s *QueryService) LeagueTable(ctx context.Context, leagueID, windowKey string) (document.LeagueTableDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.LeagueTable")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return document.LeagueTableDoc{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	window, err := points.ParseWindowKey(strings.TrimSpace(windowKey))
	if err != nil {
		return document.LeagueTableDoc{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	doc, found, err := document.Load[document.LeagueTableDoc](ctx, s.documents, document.LeagueTableKey(leagueID, window.Key()))
	if err != nil {
		return document.LeagueTableDoc{}, err
	}
	if !found {
		return document.LeagueTableDoc{}, fmt.Errorf("%w: league table: league=%s window=%s", ErrNotFound, leagueID, window.Key())
	}
	return doc, nil
}

// Matrix returns the prediction grid for one league and gameweek.
func (s *QueryService) Matrix(ctx context.Context, leagueID string, gameweek int) (document.MatrixDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.Matrix")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return document.MatrixDoc{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}
	if gameweek < 1 {
		return document.MatrixDoc{}, fmt.Errorf("%w: gameweek must be positive", ErrInvalidInput)
	}

	doc, found, err := document.Load[document.MatrixDoc](ctx, s.documents, document.MatrixKey(leagueID, gameweek))
	if err != nil {
		return document.MatrixDoc{}, err
	}
	if !found {
		return document.MatrixDoc{}, fmt.Errorf("%w: matrix: league=%s gameweek=%d", ErrNotFound, leagueID, gameweek)
	}
	return doc, nil
}

// History returns the window winners recorded for one league.
func (s *QueryService) History(ctx context.Context, leagueID string) (document.HistoryDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.History")
	defer span.End()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return document.HistoryDoc{}, fmt.Errorf("%w: league id is required", ErrInvalidInput)
	}

	doc, found, err := document.Load[document.HistoryDoc](ctx, s.documents, document.HistoryKey(leagueID))
	if err != nil {
		return document.HistoryDoc{}, err
	}
	if !found {
		return document.HistoryDoc{}, fmt.Errorf("%w: history: league=%s", ErrNotFound, leagueID)
	}
	return doc, nil
}

// PlayerSummary returns one player's scored breakdown of one fixture set.
func (s *QueryService) PlayerSummary(ctx context.Context, playerID, fixtureSetID string) (document.SummaryDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.PlayerSummary")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return document.SummaryDoc{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}
	fixtureSetID = strings.TrimSpace(fixtureSetID)
	if fixtureSetID == "" {
		return document.SummaryDoc{}, fmt.Errorf("%w: fixture set id is required", ErrInvalidInput)
	}

	doc, found, err := document.Load[document.SummaryDoc](ctx, s.documents, document.SummaryKey(playerID, fixtureSetID))
	if err != nil {
		return document.SummaryDoc{}, err
	}
	if !found {
		return document.SummaryDoc{}, fmt.Errorf("%w: summary: player=%s fixtureSet=%s", ErrNotFound, playerID, fixtureSetID)
	}
	return doc, nil
}

// ActualTeamTable returns the real football table folded from classified
// results.
func (s *QueryService) ActualTeamTable(ctx context.Context) (document.TeamTableDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.ActualTeamTable")
	defer span.End()

	doc, found, err := document.Load[document.TeamTableDoc](ctx, s.documents, document.ActualTeamTableKey())
	if err != nil {
		return document.TeamTableDoc{}, err
	}
	if !found {
		return document.TeamTableDoc{}, fmt.Errorf("%w: actual team table", ErrNotFound)
	}
	return doc, nil
}

// PredictedTeamTable returns the football table implied by one player's
// locked-in predictions.
func (s *QueryService) PredictedTeamTable(ctx context.Context, playerID string) (document.TeamTableDoc, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.QueryService.PredictedTeamTable")
	defer span.End()

	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return document.TeamTableDoc{}, fmt.Errorf("%w: player id is required", ErrInvalidInput)
	}

	doc, found, err := document.Load[document.TeamTableDoc](ctx, s.documents, document.PredictedTeamTableKey(playerID))
	if err != nil {
		return document.TeamTableDoc{}, err
	}
	if !found {
		return document.TeamTableDoc{}, fmt.Errorf("%w: predicted team table: player=%s", ErrNotFound, playerID)
	}
	return doc, nil
}
