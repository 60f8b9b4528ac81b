package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/predictions-league/internal/domain/player"
)

type PlayerRepository struct {
	mu     sync.RWMutex
	items  map[string]player.Player
	orders []string
}

func NewPlayerRepository() *PlayerRepository {
	return &PlayerRepository{items: map[string]player.Player{}}
}

func (r *PlayerRepository) UpsertPlayer(_ context.Context, p player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[p.ID]; ok {
		p.Subscriptions = existing.Subscriptions
	} else {
		r.orders = append(r.orders, p.ID)
	}
	r.items[p.ID] = p
	return nil
}

func (r *PlayerRepository) GetPlayer(_ context.Context, playerID string) (player.Player, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[playerID]
	if !ok {
		return player.Player{}, false, nil
	}
	return clonePlayer(p), true, nil
}

func (r *PlayerRepository) ListPlayers(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, clonePlayer(r.items[id]))
	}
	return out, nil
}

func (r *PlayerRepository) AddSubscription(_ context.Context, playerID string, sub player.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[playerID]
	if !ok {
		return fmt.Errorf("player %s not found", playerID)
	}
	if !p.HasSubscription(sub.Endpoint) {
		p.Subscriptions = append(p.Subscriptions, sub)
		r.items[playerID] = p
	}
	return nil
}

func (r *PlayerRepository) ListSubscribedPlayers(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []player.Player
	for _, id := range r.orders {
		p := r.items[id]
		if len(p.Subscriptions) > 0 {
			out = append(out, clonePlayer(p))
		}
	}
	return out, nil
}

func (r *PlayerRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = map[string]player.Player{}
	r.orders = nil
	return nil
}

func clonePlayer(p player.Player) player.Player {
	subs := make([]player.Subscription, len(p.Subscriptions))
	copy(subs, p.Subscriptions)
	p.Subscriptions = subs
	return p
}
