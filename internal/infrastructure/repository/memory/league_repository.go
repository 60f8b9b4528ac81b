package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
)

type LeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]privateleague.League
	orders []string
}

func NewLeagueRepository() *LeagueRepository {
	return &LeagueRepository{items: map[string]privateleague.League{}}
}

func (r *LeagueRepository) UpsertLeague(_ context.Context, league privateleague.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.items[league.ID]; ok {
		league.Members = existing.Members
	} else {
		r.orders = append(r.orders, league.ID)
	}
	r.items[league.ID] = league
	return nil
}

func (r *LeagueRepository) GetLeague(_ context.Context, leagueID string) (privateleague.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	league, ok := r.items[leagueID]
	if !ok {
		return privateleague.League{}, false, nil
	}
	return cloneLeague(league), true, nil
}

func (r *LeagueRepository) ListLeagues(_ context.Context) ([]privateleague.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]privateleague.League, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, cloneLeague(r.items[id]))
	}
	return out, nil
}

func (r *LeagueRepository) ListLeaguesByMember(_ context.Context, playerID string) ([]privateleague.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []privateleague.League
	for _, id := range r.orders {
		league := r.items[id]
		if league.IsMember(playerID) {
			out = append(out, cloneLeague(league))
		}
	}
	return out, nil
}

func (r *LeagueRepository) AddMember(_ context.Context, leagueID, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	league, ok := r.items[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	if !league.IsMember(playerID) {
		league.Members = append(league.Members, playerID)
		r.items[leagueID] = league
	}
	return nil
}

func (r *LeagueRepository) RemoveMember(_ context.Context, leagueID, playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	league, ok := r.items[leagueID]
	if !ok {
		return fmt.Errorf("league %s not found", leagueID)
	}
	kept := make([]string, 0, len(league.Members))
	for _, member := range league.Members {
		if member != playerID {
			kept = append(kept, member)
		}
	}
	league.Members = kept
	r.items[leagueID] = league
	return nil
}

func (r *LeagueRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = map[string]privateleague.League{}
	r.orders = nil
	return nil
}

func cloneLeague(league privateleague.League) privateleague.League {
	members := make([]string, len(league.Members))
	copy(members, league.Members)
	league.Members = members
	return league
}
