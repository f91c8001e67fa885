package app

import (
	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

// Orchestrator coordinates the registry on behalf of the gateway. It
// mutates membership; the gateway owns all outbound messaging.
type Orchestrator struct {
	Registry *core.Registry
	Guard    Authorizer
}

// Join registers cid in the named session, creating it on first join.
// A connection already sitting in another session is detached from it
// first, so one connection is a member of at most one session. The
// previous session, if any, is returned so the gateway can resync it.
func (o *Orchestrator) Join(token domain.SessionToken, cid core.ConnID, ps core.ParticipantSession) (sess, prev core.SessionService) {
	if prevToken, ok := o.Registry.FindConnection(cid); ok && prevToken != token {
		if p, found := o.Registry.Get(prevToken); found {
			prev = p
		}
		o.Registry.RemoveParticipant(prevToken, cid)
		log.Info().Str("module", "app.orchestrator").Str("conn", string(cid)).
			Str("from_token", string(prevToken)).Msg("detached from previous session")
	}
	sess = o.Registry.Ensure(token)
	sess.AddParticipant(cid, ps)
	log.Info().Str("module", "app.orchestrator").Str("conn", string(cid)).
		Str("token", string(token)).Msg("joined session")
	return sess, prev
}

// Leave removes cid from the named session. Reports the session and
// whether the connection was actually a member of it.
func (o *Orchestrator) Leave(token domain.SessionToken, cid core.ConnID) (core.SessionService, bool) {
	sess, ok := o.Registry.Get(token)
	if !ok {
		return nil, false
	}
	if !o.Registry.RemoveParticipant(token, cid) {
		return nil, false
	}
	return sess, true
}

// Disconnect cleans up after a dropped transport. The connection may have
// died before ever joining, so the registry scans every session for it.
func (o *Orchestrator) Disconnect(cid core.ConnID) (core.SessionService, bool) {
	return o.Registry.DropConnection(cid)
}

// ResolveUser maps a claimed user id to its live connections in a session.
// Control commands address users, not sockets: a reconnected user must be
// reachable under the same id on a brand-new connection.
func (o *Orchestrator) ResolveUser(token domain.SessionToken, uid domain.UserID) (core.SessionService, []core.ConnID) {
	sess, ok := o.Registry.Get(token)
	if !ok {
		return nil, nil
	}
	return sess, sess.FindByUser(uid)
}

// End tears the whole session down, returning it so the gateway can still
// notify its former participants exactly once.
func (o *Orchestrator) End(token domain.SessionToken) (core.SessionService, bool) {
	return o.Registry.Drop(token)
}
