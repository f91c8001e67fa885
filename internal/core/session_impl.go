package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/domain"
)

// sessionImpl is a threadsafe in-memory session.
// It never closes adapter-owned resources.
type sessionImpl struct {
	session *domain.Session
	mu      sync.RWMutex
	byConn  map[ConnID]ParticipantSession
}

func NewSessionService(session *domain.Session) SessionService {
	return &sessionImpl{
		session: session,
		byConn:  make(map[ConnID]ParticipantSession),
	}
}

func (s *sessionImpl) Session() *domain.Session { return s.session }

func (s *sessionImpl) ParticipantCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byConn)
}

func (s *sessionImpl) AddParticipant(cid ConnID, ps ParticipantSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byConn[cid] = ps
	log.Info().Str("module", "core.session").Str("token", string(s.session.Token)).
		Str("conn", string(cid)).Str("user", string(ps.Meta().UserID)).Msg("participant added")
}

func (s *sessionImpl) RemoveParticipant(cid ConnID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byConn, cid)
	log.Info().Str("module", "core.session").Str("token", string(s.session.Token)).
		Str("conn", string(cid)).Msg("participant removed")
}

func (s *sessionImpl) Get(cid ConnID) (ParticipantSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ps, ok := s.byConn[cid]
	return ps, ok
}

func (s *sessionImpl) FindByUser(uid domain.UserID) []ConnID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ConnID
	for cid, ps := range s.byConn {
		if ps.Meta().UserID == uid {
			out = append(out, cid)
		}
	}
	return out
}

func (s *sessionImpl) Broadcast(from ConnID, data Frame) PublishResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := PublishResult{}
	for cid, ps := range s.byConn {
		if cid == from {
			continue
		}
		if err := ps.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.session").Str("from", string(from)).
		Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (s *sessionImpl) Send(to ConnID, data Frame) bool {
	s.mu.RLock()
	ps, ok := s.byConn[to]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if err := ps.Signal().TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "core.session").Str("to", string(to)).Msg("targeted send dropped")
		return false
	}
	return true
}

func (s *sessionImpl) ParticipantsSnapshot() []ParticipantDTO {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ParticipantDTO, 0, len(s.byConn))
	for cid, ps := range s.byConn {
		meta := ps.Meta()
		out = append(out, ParticipantDTO{
			ConnectionID: string(cid),
			UserID:       meta.UserID,
			Role:         meta.Role,
		})
	}
	return out
}
