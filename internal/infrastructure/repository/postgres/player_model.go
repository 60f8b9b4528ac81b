package postgres

import (
	"time"

	"github.com/riskibarqy/predictions-league/internal/domain/player"
)

type playerTableModel struct {
	ID        int64     `db:"id"`
	PublicID  string    `db:"public_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type playerInsertModel struct {
	PublicID string `db:"public_id"`
	Name     string `db:"name"`
}

type playerSubscriptionTableModel struct {
	ID             int64     `db:"id"`
	PlayerPublicID string    `db:"player_public_id"`
	Endpoint       string    `db:"endpoint"`
	Auth           string    `db:"auth"`
	P256DH         string    `db:"p256dh"`
	CreatedAt      time.Time `db:"created_at"`
}

type playerSubscriptionInsertModel struct {
	PlayerPublicID string `db:"player_public_id"`
	Endpoint       string `db:"endpoint"`
	Auth           string `db:"auth"`
	P256DH         string `db:"p256dh"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:   m.PublicID,
		Name: m.Name,
	}
}

func (m playerSubscriptionTableModel) toDomain() player.Subscription {
	return player.Subscription{
		Endpoint: m.Endpoint,
		Auth:     m.Auth,
		P256DH:   m.P256DH,
	}
}
