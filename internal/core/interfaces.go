package core

import (
	"time"

	"github.com/tutorlink/relay/internal/domain"
)

// Frame is a raw JSON message ready for the wire.
type Frame []byte

// ConnID identifies one physical connection, assigned by the transport
// on upgrade. A user who reconnects gets a fresh ConnID.
type ConnID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// ParticipantSession binds domain.Participant and its transport endpoint.
// This is what a session stores and fans out to.
type ParticipantSession interface {
	Meta() *domain.Participant
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the gateway.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// ParticipantDTO is a read-only view for wire events (no transport fields).
type ParticipantDTO struct {
	ConnectionID string        `json:"connectionId"`
	UserID       domain.UserID `json:"userId"`
	Role         domain.Role   `json:"role"`
}

// SessionService is the core-facing API of one live session.
// It owns the membership set but never touches transport resources.
type SessionService interface {
	Session() *domain.Session
	ParticipantCount() int
	ParticipantsSnapshot() []ParticipantDTO

	AddParticipant(cid ConnID, ps ParticipantSession)
	RemoveParticipant(cid ConnID)
	Get(cid ConnID) (ParticipantSession, bool)

	// FindByUser returns every connection currently claiming uid.
	// A user with two open tabs has two entries.
	FindByUser(uid domain.UserID) []ConnID

	// Broadcast fans data out to every participant except from.
	// Pass an empty ConnID to reach the whole session.
	Broadcast(from ConnID, data Frame) PublishResult

	// Send delivers data to one participant; false if cid is not a member.
	Send(to ConnID, data Frame) bool
}

type SessionInfo struct {
	Token            domain.SessionToken `json:"token"`
	ParticipantCount int                 `json:"participant_count"`
	CreatedAt        time.Time           `json:"created_at"`
}
