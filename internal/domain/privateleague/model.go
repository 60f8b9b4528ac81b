package privateleague

import "errors"

// GlobalLeagueID is the implicit league containing every registered player.
// It has no stream: it is never created, joined or left.
const GlobalLeagueID = "global"

var (
	ErrAlreadyExists = errors.New("league already exists")
	ErrNotCreated    = errors.New("league does not exist")
	ErrReservedID    = errors.New("league id is reserved")
	ErrAlreadyMember = errors.New("player already a member")
	ErrNotMember     = errors.New("player is not a member")
)

// League is a private league aggregate. The owner is always a member.
type League struct {
	ID      string
	Name    string
	OwnerID string
	Members []string
	Version int
}

func (l League) Exists() bool {
	return l.ID != ""
}

func (l League) IsMember(playerID string) bool {
	for _, member := range l.Members {
		if member == playerID {
			return true
		}
	}
	return false
}
