package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/domain"
)

// Registry is the single source of truth for who is currently in which
// session. Sessions are created lazily on first use and deleted as soon
// as their participant set drains, so an abandoned token never pins memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionToken]SessionService
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[domain.SessionToken]SessionService)}
}

// Ensure returns the session for token, creating an empty one if needed.
func (r *Registry) Ensure(token domain.SessionToken) SessionService {
	r.mu.RLock()
	sess, ok := r.sessions[token]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok = r.sessions[token]; ok {
		return sess
	}
	sess = NewSessionService(&domain.Session{Token: token, CreatedAt: time.Now()})
	r.sessions[token] = sess
	log.Info().Str("module", "core.registry").Str("token", string(token)).Msg("session created")
	return sess
}

func (r *Registry) Get(token domain.SessionToken) (SessionService, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[token]
	return sess, ok
}

// RemoveParticipant deletes cid from the named session, collecting the
// session entry itself once the participant set is empty. Reports whether
// the connection was actually a member.
func (r *Registry) RemoveParticipant(token domain.SessionToken, cid ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[token]
	if !ok {
		return false
	}
	if _, member := sess.Get(cid); !member {
		return false
	}
	sess.RemoveParticipant(cid)
	if sess.ParticipantCount() == 0 {
		delete(r.sessions, token)
		log.Info().Str("module", "core.registry").Str("token", string(token)).Msg("empty session collected")
	}
	return true
}

// DropConnection removes cid from whichever session holds it, scanning
// every session because a connection that died before joining never told
// us its token. Returns the session it was found in, if any.
func (r *Registry) DropConnection(cid ConnID) (SessionService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for token, sess := range r.sessions {
		if _, ok := sess.Get(cid); !ok {
			continue
		}
		sess.RemoveParticipant(cid)
		if sess.ParticipantCount() == 0 {
			delete(r.sessions, token)
			log.Info().Str("module", "core.registry").Str("token", string(token)).Msg("empty session collected")
		}
		return sess, true
	}
	return nil, false
}

// FindConnection reports which session, if any, currently holds cid.
func (r *Registry) FindConnection(cid ConnID) (domain.SessionToken, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for token, sess := range r.sessions {
		if _, ok := sess.Get(cid); ok {
			return token, true
		}
	}
	return "", false
}

// Drop deletes the whole session entry, returning it so the caller can
// still notify its former participants.
func (r *Registry) Drop(token domain.SessionToken) (SessionService, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[token]
	if !ok {
		return nil, false
	}
	delete(r.sessions, token)
	log.Info().Str("module", "core.registry").Str("token", string(token)).Msg("session dropped")
	return sess, true
}

func (r *Registry) List() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SessionInfo, 0, len(r.sessions))
	for token, sess := range r.sessions {
		out = append(out, SessionInfo{
			Token:            token,
			ParticipantCount: sess.ParticipantCount(),
			CreatedAt:        sess.Session().CreatedAt,
		})
	}
	return out
}
