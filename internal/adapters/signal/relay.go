package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

// handleRelay forwards offer/answer/iceCandidate payloads untouched. The
// payload stays a json.RawMessage end to end; negotiation content is the
// clients' business.
func (ctl *Controller) handleRelay(evt string, cid core.ConnID, conn *wsConn, data []byte) {
	type relayPayload struct {
		Type               string          `json:"type"`
		SessionID          string          `json:"sessionId"`
		Payload            json.RawMessage `json:"payload"`
		TargetConnectionID string          `json:"targetConnectionId"`
	}
	var p relayPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("event", evt).Msg("bad relay payload")
		ctl.sendError(conn, "malformed payload")
		return
	}

	sess, ok := ctl.Orch.Registry.Get(domain.SessionToken(p.SessionID))
	if !ok {
		// Session gone (or never existed): nobody to relay to.
		log.Debug().Str("module", "signal").Str("token", p.SessionID).Str("event", evt).Msg("relay for unknown session")
		return
	}

	out := struct {
		Type               string          `json:"type"`
		Payload            json.RawMessage `json:"payload"`
		SenderConnectionID string          `json:"senderConnectionId"`
		TargetConnectionID string          `json:"targetConnectionId,omitempty"`
	}{
		Type:               evt,
		Payload:            p.Payload,
		SenderConnectionID: string(cid),
		TargetConnectionID: p.TargetConnectionID,
	}
	b, err := json.Marshal(out)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("relay marshal")
		return
	}

	if p.TargetConnectionID != "" {
		if !sess.Send(core.ConnID(p.TargetConnectionID), b) {
			log.Debug().Str("module", "signal").Str("target", p.TargetConnectionID).Str("event", evt).Msg("relay target gone")
		}
		return
	}
	sess.Broadcast(cid, b)
}
