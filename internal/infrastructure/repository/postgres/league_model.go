package postgres

import (
	"time"

	"github.com/lib/pq"

	"github.com/riskibarqy/predictions-league/internal/domain/privateleague"
)

type privateLeagueTableModel struct {
	ID            int64          `db:"id"`
	PublicID      string         `db:"public_id"`
	Name          string         `db:"name"`
	OwnerPublicID string         `db:"owner_public_id"`
	Members       pq.StringArray `db:"members"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type privateLeagueInsertModel struct {
	PublicID      string         `db:"public_id"`
	Name          string         `db:"name"`
	OwnerPublicID string         `db:"owner_public_id"`
	Members       pq.StringArray `db:"members"`
}

func (m privateLeagueTableModel) toDomain() privateleague.League {
	return privateleague.League{
		ID:      m.PublicID,
		Name:    m.Name,
		OwnerID: m.OwnerPublicID,
		Members: append([]string(nil), m.Members...),
	}
}
