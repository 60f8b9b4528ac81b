package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/predictions-league/internal/domain/player"
	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

const upsertPlayerSuffix = `ON CONFLICT (public_id)
DO UPDATE SET
    name = EXCLUDED.name,
    updated_at = NOW()`

// A repeated subscribe for the same endpoint is a no-op: the first recorded
// keys stay, matching how the projection folds the event stream.
const insertSubscriptionSuffix = `ON CONFLICT (player_public_id, endpoint) DO NOTHING`

// PlayerRepository keeps the projected player records and their push
// subscriptions in Postgres.
type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) UpsertPlayer(ctx context.Context, p player.Player) error {
	insert := playerInsertModel{
		PublicID: p.ID,
		Name:     p.Name,
	}

	query, args, err := qb.InsertModel("players", insert, upsertPlayerSuffix)
	if err != nil {
		return fmt.Errorf("build upsert player query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert player %s: %w", p.ID, err)
	}
	return nil
}

func (r *PlayerRepository) GetPlayer(ctx context.Context, playerID string) (player.Player, bool, error) {
	query, args, err := qb.Select("*").
		From("players").
		Where(qb.Eq("public_id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, fmt.Errorf("get player %s: %w", playerID, err)
	}

	subs, err := r.subscriptionsOf(ctx, playerID)
	if err != nil {
		return player.Player{}, false, err
	}

	p := row.toDomain()
	p.Subscriptions = subs
	return p, true, nil
}

func (r *PlayerRepository) ListPlayers(ctx context.Context) ([]player.Player, error) {
	return r.listPlayers(ctx, false)
}

func (r *PlayerRepository) AddSubscription(ctx context.Context, playerID string, sub player.Subscription) error {
	var exists bool
	existsQuery := `SELECT EXISTS (SELECT 1 FROM players WHERE public_id = $1)`
	if err := r.db.GetContext(ctx, &exists, existsQuery, playerID); err != nil {
		return fmt.Errorf("check player %s: %w", playerID, err)
	}
	if !exists {
		return fmt.Errorf("player %s not found", playerID)
	}

	insert := playerSubscriptionInsertModel{
		PlayerPublicID: playerID,
		Endpoint:       sub.Endpoint,
		Auth:           sub.Auth,
		P256DH:         sub.P256DH,
	}

	query, args, err := qb.InsertModel("player_subscriptions", insert, insertSubscriptionSuffix)
	if err != nil {
		return fmt.Errorf("build insert subscription query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert subscription %s: %w", playerID, err)
	}
	return nil
}

func (r *PlayerRepository) ListSubscribedPlayers(ctx context.Context) ([]player.Player, error) {
	return r.listPlayers(ctx, true)
}

func (r *PlayerRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `TRUNCATE player_subscriptions, players`); err != nil {
		return fmt.Errorf("clear players: %w", err)
	}
	return nil
}

func (r *PlayerRepository) listPlayers(ctx context.Context, subscribedOnly bool) ([]player.Player, error) {
	query, args, err := qb.Select("*").
		From("players").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	subsByPlayer, err := r.groupAllSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		subs := subsByPlayer[row.PublicID]
		if subscribedOnly && len(subs) == 0 {
			continue
		}
		p := row.toDomain()
		p.Subscriptions = subs
		out = append(out, p)
	}
	return out, nil
}

func (r *PlayerRepository) subscriptionsOf(ctx context.Context, playerID string) ([]player.Subscription, error) {
	query, args, err := qb.Select("*").
		From("player_subscriptions").
		Where(qb.Eq("player_public_id", playerID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list subscriptions query: %w", err)
	}

	var rows []playerSubscriptionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subscriptions %s: %w", playerID, err)
	}

	var out []player.Subscription
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *PlayerRepository) groupAllSubscriptions(ctx context.Context) (map[string][]player.Subscription, error) {
	query, args, err := qb.Select("*").
		From("player_subscriptions").
		OrderBy("player_public_id", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list subscriptions query: %w", err)
	}

	var rows []playerSubscriptionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	grouped := make(map[string][]player.Subscription, len(rows))
	for _, row := range rows {
		grouped[row.PlayerPublicID] = append(grouped[row.PlayerPublicID], row.toDomain())
	}
	return grouped, nil
}
