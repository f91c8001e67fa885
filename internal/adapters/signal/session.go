package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

func (ctl *Controller) handleJoin(cid core.ConnID, conn *wsConn, data []byte) {
	if !ctl.limiter.Allow(cid) {
		ctl.sendError(conn, "too many join attempts")
		return
	}

	type joinPayload struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
		UserID    string `json:"userId"`
		Role      string `json:"role"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "malformed payload")
		return
	}
	if p.SessionID == "" {
		ctl.sendError(conn, "missing sessionId")
		return
	}
	meta, err := domain.NewParticipant(p.UserID, p.Role)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	token := domain.SessionToken(p.SessionID)
	log.Info().Str("module", "signal").Str("conn", string(cid)).
		Str("token", p.SessionID).Str("user", p.UserID).Str("role", p.Role).Msg("join")

	ps := core.NewParticipantSession(meta, conn)
	sess, prev := ctl.Orch.Join(token, cid, ps)

	// A connection that hopped sessions leaves a stale roster behind.
	if prev != nil {
		ctl.broadcastJSON(prev, "", participantLeftEvent(cid))
		ctl.resync(prev)
	}

	ctl.broadcastJSON(sess, cid, struct {
		Type         string        `json:"type"`
		ConnectionID string        `json:"connectionId"`
		UserID       domain.UserID `json:"userId"`
		Role         domain.Role   `json:"role"`
	}{
		Type:         "participantJoined",
		ConnectionID: string(cid),
		UserID:       meta.UserID,
		Role:         meta.Role,
	})
	ctl.resync(sess)
}

func (ctl *Controller) handleLeave(cid core.ConnID, conn *wsConn, data []byte) {
	type leavePayload struct {
		Type      string `json:"type"`
		SessionID string `json:"sessionId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendError(conn, "malformed payload")
		return
	}

	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("token", p.SessionID).Msg("leave")
	sess, ok := ctl.Orch.Leave(domain.SessionToken(p.SessionID), cid)
	if !ok {
		// Unknown session or not a member: nothing to undo.
		return
	}
	ctl.broadcastJSON(sess, "", participantLeftEvent(cid))
	ctl.resync(sess)
}

// handleDisconnect runs when the transport drops, join completed or not,
// so cleanup scans for the connection instead of trusting any claimed
// session token.
func (ctl *Controller) handleDisconnect(cid core.ConnID) {
	ctl.limiter.Forget(cid)
	sess, ok := ctl.Orch.Disconnect(cid)
	if !ok {
		return
	}
	ctl.broadcastJSON(sess, "", participantLeftEvent(cid))
	ctl.resync(sess)
}

func participantLeftEvent(cid core.ConnID) any {
	return struct {
		Type         string `json:"type"`
		ConnectionID string `json:"connectionId"`
	}{Type: "participantLeft", ConnectionID: string(cid)}
}
