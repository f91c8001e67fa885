package core

import "github.com/tutorlink/relay/internal/domain"

// participantSession implements ParticipantSession by pairing meta + transport.
type participantSession struct {
	meta *domain.Participant
	conn SignalConnection
}

func NewParticipantSession(meta *domain.Participant, conn SignalConnection) ParticipantSession {
	return &participantSession{meta: meta, conn: conn}
}

func (p *participantSession) Meta() *domain.Participant { return p.meta }
func (p *participantSession) Signal() SignalConnection  { return p.conn }
