package player

import "errors"

var (
	ErrAlreadyRegistered = errors.New("player already registered")
	ErrNotRegistered     = errors.New("player is not registered")
)

// Subscription is one push-notification endpoint a player registered.
// The endpoint and keys are opaque to the core; the notifier consumes them.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Auth     string `json:"auth"`
	P256DH   string `json:"p256dh"`
}

// Player is a competition participant. Identity is caller-supplied and
// trusted; the core performs no authorization.
type Player struct {
	ID            string
	Name          string
	Subscriptions []Subscription
	Version       int
}

func (p Player) Exists() bool {
	return p.ID != ""
}

func (p Player) HasSubscription(endpoint string) bool {
	for _, sub := range p.Subscriptions {
		if sub.Endpoint == endpoint {
			return true
		}
	}
	return false
}
