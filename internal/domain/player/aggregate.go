package player

import (
	"fmt"
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/event"
)

// Fold replays a player stream into its current state.
func Fold(events []event.Envelope) (Player, error) {
	var p Player
	for _, env := range events {
		if err := p.apply(env); err != nil {
			return Player{}, err
		}
		p.Version = env.Version
	}
	return p, nil
}

func (p *Player) apply(env event.Envelope) error {
	switch env.Type {
	case event.TypePlayerRegistered:
		payload, err := event.Decode[event.PlayerRegistered](env)
		if err != nil {
			return err
		}
		p.ID = payload.PlayerID
		p.Name = payload.Name
	case event.TypePlayerSubscribed:
		payload, err := event.Decode[event.PlayerSubscribed](env)
		if err != nil {
			return err
		}
		if !p.HasSubscription(payload.Endpoint) {
			p.Subscriptions = append(p.Subscriptions, Subscription{
				Endpoint: payload.Endpoint,
				Auth:     payload.Auth,
				P256DH:   payload.P256DH,
			})
		}
	}
	return nil
}

// Register creates the player.
func (p Player) Register(playerID, name string, now time.Time) ([]event.Envelope, error) {
	if p.Exists() {
		return nil, ErrAlreadyRegistered
	}
	if playerID == "" {
		return nil, fmt.Errorf("player id is required")
	}
	if name == "" {
		return nil, fmt.Errorf("player name is required")
	}

	env, err := event.New(event.PlayerStreamID(playerID), event.TypePlayerRegistered, now, event.PlayerRegistered{
		PlayerID: playerID,
		Name:     name,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}

// Subscribe registers a push endpoint. Re-subscribing an endpoint already
// held is a no-op.
func (p Player) Subscribe(sub Subscription, now time.Time) ([]event.Envelope, error) {
	if !p.Exists() {
		return nil, ErrNotRegistered
	}
	if sub.Endpoint == "" {
		return nil, fmt.Errorf("subscription endpoint is required")
	}
	if p.HasSubscription(sub.Endpoint) {
		return nil, nil
	}

	env, err := event.New(event.PlayerStreamID(p.ID), event.TypePlayerSubscribed, now, event.PlayerSubscribed{
		PlayerID: p.ID,
		Endpoint: sub.Endpoint,
		Auth:     sub.Auth,
		P256DH:   sub.P256DH,
	})
	if err != nil {
		return nil, err
	}
	return []event.Envelope{env}, nil
}
