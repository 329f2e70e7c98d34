package entity

import (
	"time"
)

// Capsule is a sealed text payload owned by exactly one user. The text is
// withheld from read responses until the current time reaches DateOpen;
// that gate is evaluated per request, never stored.
type Capsule struct {
	ID        int64
	Text      string
	DateOpen  time.Time
	AuthorID  string
	CreatedAt time.Time
}

// OpenedAt reports whether the capsule is open relative to now.
func (c *Capsule) OpenedAt(now time.Time) bool {
	return !c.DateOpen.After(now)
}
