package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/predictions-league/internal/domain/document"
	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	documentmock "github.com/riskibarqy/predictions-league/internal/mocks/domain/document"
)

func TestQueryService_LeagueTable_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	documents := documentmock.NewStore(t)
	service := NewQueryService(documents)

	raw, err := sonic.Marshal(document.LeagueTableDoc{
		LeagueID: privateleague.GlobalLeagueID,
		Window:   "season",
		Label:    "Season",
	})
	if err != nil {
		t.Fatalf("marshal table: %v", err)
	}

	documents.
		On("Get", mock.Anything, document.LeagueTableKey(privateleague.GlobalLeagueID, "season")).
		Return(raw, true, nil).
		Once()

	table, err := service.LeagueTable(ctx, privateleague.GlobalLeagueID, "season")
	if err != nil {
		t.Fatalf("league table: %v", err)
	}
	if table.Label != "Season" {
		t.Fatalf("unexpected table: %+v", table)
	}
}

func TestQueryService_LeagueTable_StoreFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	documents := documentmock.NewStore(t)
	service := NewQueryService(documents)

	storeErr := errors.New("store unavailable")
	documents.
		On("Get", mock.Anything, document.LeagueTableKey(privateleague.GlobalLeagueID, "season")).
		Return(nil, false, storeErr).
		Once()

	_, err := service.LeagueTable(ctx, privateleague.GlobalLeagueID, "season")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store failure to surface, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatalf("store failure must not read as not-found: %v", err)
	}
}
