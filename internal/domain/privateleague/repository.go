package privateleague

import "context"

// Repository holds projected league membership records. The global league is
// not stored: projections that fan out per league combine ListLeagues with
// the implicit global one.
type Repository interface {
	UpsertLeague(ctx context.Context, league League) error
	GetLeague(ctx context.Context, leagueID string) (League, bool, error)
	ListLeagues(ctx context.Context) ([]League, error)
	ListLeaguesByMember(ctx context.Context, playerID string) ([]League, error)
	AddMember(ctx context.Context, leagueID, playerID string) error
	RemoveMember(ctx context.Context, leagueID, playerID string) error
	Clear(ctx context.Context) error
}
