package domain

import "time"

// SessionToken is the opaque grouping key for one video session.
// It is minted by the booking flow when a lesson is scheduled; this
// subsystem never inspects or validates it.
type SessionToken string

type Session struct {
	Token     SessionToken
	CreatedAt time.Time
}
