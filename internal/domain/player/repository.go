package player

import "context"

// Repository holds projected player records, including push subscriptions
// for the notifier fan-out.
type Repository interface {
	UpsertPlayer(ctx context.Context, p Player) error
	GetPlayer(ctx context.Context, playerID string) (Player, bool, error)
	ListPlayers(ctx context.Context) ([]Player, error)
	AddSubscription(ctx context.Context, playerID string, sub Subscription) error
	ListSubscribedPlayers(ctx context.Context) ([]Player, error)
	Clear(ctx context.Context) error
}
