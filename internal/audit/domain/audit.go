package domain

import "time"

// Entry is one audit event: who did what to whom.
type Entry struct {
	ID         int64
	ActorID    string
	ActorEmail string
	Action     string
	Target     string
	Detail     string
	CreatedAt  time.Time
}
