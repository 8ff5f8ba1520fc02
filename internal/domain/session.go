package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a named, time-bounded grouping of track references. Members are
// weak references: a member track may have been deleted since it was added,
// in which case reads resolve it to nothing rather than failing.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
	Members   []Track   `json:"members"`
	CreatedAt time.Time `json:"createdAt"`

	// MemberIDs holds the raw track references as persisted. Members is
	// populated by the session service after resolution.
	MemberIDs []uuid.UUID `json:"-"`
}
