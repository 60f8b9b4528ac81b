package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

// An upsert never rewrites members: membership moves through AddMember and
// RemoveMember only, so a replayed create cannot reset who has joined since.
const upsertLeagueSuffix = `ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    owner_public_id = EXCLUDED.owner_public_id,
    updated_at = NOW()`

// LeagueRepository keeps the projected private-league membership records in
// Postgres. The global league is implicit and never stored.
type LeagueRepository struct {
	db *sqlx.DB
}

func NewLeagueRepository(db *sqlx.DB) *LeagueRepository {
	return &LeagueRepository{db: db}
}

func (r *LeagueRepository) UpsertLeague(ctx context.Context, league privateleague.League) error {
	insert := privateLeagueInsertModel{
		PublicID:      league.ID,
		Name:          league.Name,
		OwnerPublicID: league.OwnerID,
		Members:       pq.StringArray(league.Members),
	}

	query, args, err := qb.InsertModel("private_leagues", insert, upsertLeagueSuffix)
	if err != nil {
		return fmt.Errorf("build upsert league query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert league %s: %w", league.ID, err)
	}
	return nil
}

func (r *LeagueRepository) GetLeague(ctx context.Context, leagueID string) (privateleague.League, bool, error) {
	query, args, err := qb.Select("*").
		From("private_leagues").
		Where(qb.Eq("public_id", leagueID)).
		ToSQL()
	if err != nil {
		return privateleague.League{}, false, fmt.Errorf("build get league query: %w", err)
	}

	var row privateLeagueTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return privateleague.League{}, false, nil
		}
		return privateleague.League{}, false, fmt.Errorf("get league %s: %w", leagueID, err)
	}
	return row.toDomain(), true, nil
}

func (r *LeagueRepository) ListLeagues(ctx context.Context) ([]privateleague.League, error) {
	return r.selectLeagues(ctx, "list leagues")
}

func (r *LeagueRepository) ListLeaguesByMember(ctx context.Context, playerID string) ([]privateleague.League, error) {
	return r.selectLeagues(ctx, "list leagues by member", qb.Expr("members @> ARRAY[?]::text[]", playerID))
}

func (r *LeagueRepository) AddMember(ctx context.Context, leagueID, playerID string) error {
	return r.updateMembers(ctx, leagueID, func(members []string) []string {
		for _, member := range members {
			if member == playerID {
				return members
			}
		}
		return append(members, playerID)
	})
}

func (r *LeagueRepository) RemoveMember(ctx context.Context, leagueID, playerID string) error {
	return r.updateMembers(ctx, leagueID, func(members []string) []string {
		kept := make([]string, 0, len(members))
		for _, member := range members {
			if member != playerID {
				kept = append(kept, member)
			}
		}
		return kept
	})
}

func (r *LeagueRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE private_leagues`); err != nil {
		return fmt.Errorf("clear leagues: %w", err)
	}
	return nil
}

func (r *LeagueRepository) selectLeagues(ctx context.Context, op string, conditions ...qb.Condition) ([]privateleague.League, error) {
	query, args, err := qb.Select("*").
		From("private_leagues").
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", op, err)
	}

	var rows []privateLeagueTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]privateleague.League, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// updateMembers rewrites a league's member array under a row lock. Projection
// handlers are the only writers, but the lock keeps a rebuild racing a live
// event from interleaving half-applied membership.
func (r *LeagueRepository) updateMembers(ctx context.Context, leagueID string, mutate func([]string) []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin members tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var row privateLeagueTableModel
	selectQuery := `SELECT * FROM private_leagues WHERE public_id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &row, selectQuery, leagueID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("league %s not found", leagueID)
		}
		return fmt.Errorf("lock league %s: %w", leagueID, err)
	}

	members := mutate(append([]string(nil), row.Members...))

	updateQuery := `UPDATE private_leagues SET members = $2, updated_at = NOW() WHERE public_id = $1`
	if _, err := tx.ExecContext(ctx, updateQuery, leagueID, pq.StringArray(members)); err != nil {
		return fmt.Errorf("update league %s members: %w", leagueID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit members tx: %w", err)
	}
	return nil
}
