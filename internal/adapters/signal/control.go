package signal

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

func (ctl *Controller) handlePing(conn *wsConn) {
	ctl.sendJSON(conn, struct {
		Type string `json:"type"`
	}{Type: "pong"})
}

type controlPayload struct {
	Type         string `json:"type"`
	SessionID    string `json:"sessionId"`
	TargetUserID string `json:"targetUserId"`
}

func (ctl *Controller) parseControl(evt string, conn *wsConn, data []byte) (controlPayload, bool) {
	var p controlPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", evt).Msg("bad control payload")
		ctl.sendError(conn, "malformed payload")
		return p, false
	}
	return p, true
}

// authorize rejects the command with a private error unless the issuing
// connection joined with the privileged role. The rejection goes to the
// sender alone; nothing is broadcast and no state changes.
func (ctl *Controller) authorize(evt string, token domain.SessionToken, cid core.ConnID, conn *wsConn) bool {
	if ctl.Orch.Guard.Allow(token, cid) {
		return true
	}
	log.Warn().Str("module", "signal").Str("conn", string(cid)).
		Str("token", string(token)).Str("event", evt).Msg("unauthorized control attempt")
	ctl.sendError(conn, fmt.Sprintf("only %s role may issue %s", ctl.privilegedRole(), evt))
	return false
}

// handleMediaControl serves muteAudio/unmuteAudio/muteVideo/unmuteVideo:
// a single targeted instruction to each connection the target user holds.
// A target with no live connection is a silent no-op; they may simply
// have left a moment earlier.
func (ctl *Controller) handleMediaControl(evt string, cid core.ConnID, conn *wsConn, data []byte) {
	p, ok := ctl.parseControl(evt, conn, data)
	if !ok {
		return
	}
	token := domain.SessionToken(p.SessionID)
	if !ctl.authorize(evt, token, cid, conn) {
		return
	}

	sess, targets := ctl.Orch.ResolveUser(token, domain.UserID(p.TargetUserID))
	if len(targets) == 0 {
		log.Debug().Str("module", "signal").Str("event", evt).Str("target_user", p.TargetUserID).Msg("control target gone")
		return
	}
	b := mustMarshal(targetedControlEvent(evt, p.TargetUserID))
	for _, target := range targets {
		sess.Send(target, b)
	}
}

func (ctl *Controller) handleRemoveParticipant(cid core.ConnID, conn *wsConn, data []byte) {
	const evt = "removeParticipant"
	p, ok := ctl.parseControl(evt, conn, data)
	if !ok {
		return
	}
	token := domain.SessionToken(p.SessionID)
	if !ctl.authorize(evt, token, cid, conn) {
		return
	}

	sess, targets := ctl.Orch.ResolveUser(token, domain.UserID(p.TargetUserID))
	if len(targets) == 0 {
		log.Debug().Str("module", "signal").Str("event", evt).Str("target_user", p.TargetUserID).Msg("control target gone")
		return
	}

	b := mustMarshal(targetedControlEvent(evt, p.TargetUserID))
	for _, target := range targets {
		// Grab the transport before the registry forgets the participant;
		// the removal notice still has to reach them.
		ps, found := sess.Get(target)
		ctl.Orch.Registry.RemoveParticipant(token, target)
		if found {
			if err := ps.Signal().TrySend(b); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(target)).Msg("removal notice dropped")
			}
		}
	}
	ctl.resync(sess)
}

func (ctl *Controller) handleApproveParticipant(cid core.ConnID, conn *wsConn, data []byte) {
	const evt = "approveParticipant"
	p, ok := ctl.parseControl(evt, conn, data)
	if !ok {
		return
	}
	token := domain.SessionToken(p.SessionID)
	if !ctl.authorize(evt, token, cid, conn) {
		return
	}

	sess, targets := ctl.Orch.ResolveUser(token, domain.UserID(p.TargetUserID))
	if len(targets) == 0 {
		log.Debug().Str("module", "signal").Str("event", evt).Str("target_user", p.TargetUserID).Msg("control target gone")
		return
	}
	b := mustMarshal(targetedControlEvent(evt, p.TargetUserID))
	for _, target := range targets {
		sess.Send(target, b)
	}
}

func (ctl *Controller) handleEndSession(cid core.ConnID, conn *wsConn, data []byte) {
	const evt = "endSession"
	p, ok := ctl.parseControl(evt, conn, data)
	if !ok {
		return
	}
	token := domain.SessionToken(p.SessionID)
	if !ctl.authorize(evt, token, cid, conn) {
		return
	}

	sess, ok := ctl.Orch.End(token)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("token", string(p.SessionID)).Str("by", string(cid)).Msg("session ended")
	ctl.broadcastJSON(sess, "", struct {
		Type string `json:"type"`
	}{Type: "sessionEnded"})
}

func targetedControlEvent(evt, targetUserID string) any {
	return struct {
		Type         string `json:"type"`
		TargetUserID string `json:"targetUserId"`
	}{Type: evt, TargetUserID: targetUserID}
}

func mustMarshal(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("control marshal")
		return core.Frame(`{"type":"error","message":"internal"}`)
	}
	return b
}
