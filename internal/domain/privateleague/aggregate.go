package privateleague

import (
	"fmt"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
)

// Fold replays a league stream into its current state.
func Fold(events []event.Envelope) (League, error) {
	var league League
	for _, env := range events {
		if err := league.apply(env); err != nil {
			return League{}, err
		}
		league.Version = env.Version
	}
	return league, nil
}

func (l *League) apply(env event.Envelope) error {
	switch env.Type {
	case event.TypeLeagueCreated:
		payload, err := event.Decode[event.LeagueCreated](env)
		if err != nil {
			return err
		}
		l.ID = payload.LeagueID
		l.Name = payload.Name
		l.OwnerID = payload.OwnerID
		l.Members = []string{payload.OwnerID}
	case event.TypeLeagueJoined:
		payload, err := event.Decode[event.LeagueJoined](env)
		if err != nil {
			return err
		}
		if !l.IsMember(payload.PlayerID) {
			l.Members = append(l.Members, payload.PlayerID)
		}
	case event.TypeLeagueLeft:
		payload, err := event.Decode[event.LeagueLeft](env)
		if err != nil {
			return err
		}
		kept := l.Members[:0]
		for _, member := range l.Members {
			if member != payload.PlayerID {
				kept = append(kept, member)
			}
		}
		l.Members = kept
	}
	return nil
}

// Create opens a private league with the creator as first member.
func (l League) Create(leagueID, name, ownerID string, now time.Time) ([]event.Envelope, error) {
	if l.Exists() {
		return nil, ErrAlreadyExists
	}
	if leagueID == GlobalLeagueID {
		return nil, ErrReservedID
	}
	if name == "" {
		return nil, fmt.Errorf("league name is required")
	}
	if ownerID == "" {
		return nil, fmt.Errorf("league owner is required")
	}

	env, err := event.New(event.LeagueStreamID(leagueID), event.TypeLeagueCreated, now, event.LeagueCreated{
		LeagueID: leagueID,
		Name:     name,
		OwnerID:  ownerID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Join adds a player. Joining twice is rejected.
func (l League) Join(playerID string, now time.Time) ([]event.Envelope, error) {
	if !l.Exists() {
		return nil, ErrNotCreated
	}
	if l.IsMember(playerID) {
		return nil, ErrAlreadyMember
	}

	env, err := event.New(event.LeagueStreamID(l.ID), event.TypeLeagueJoined, now, event.LeagueJoined{
		LeagueID: l.ID,
		PlayerID: playerID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Leave removes a member. The league keeps running even without its owner.
func (l League) Leave(playerID string, now time.Time) ([]event.Envelope, error) {
	if !l.Exists() {
		return nil, ErrNotCreated
	}
	if !l.IsMember(playerID) {
		return nil, ErrNotMember
	}

	env, err := event.New(event.LeagueStreamID(l.ID), event.TypeLeagueLeft, now, event.LeagueLeft{
		LeagueID: l.ID,
		PlayerID: playerID,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}
