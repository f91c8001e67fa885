package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/tutorlink/relay/internal/app"
	"github.com/tutorlink/relay/internal/config"
	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller is the connection gateway: it owns every websocket, assigns
// each one a transient connection id, and dispatches inbound events to
// the orchestrator and its peers.
type Controller struct {
	Orch    *app.Orchestrator
	Cfg     *config.Config
	limiter *JoinRateLimiter
}

func NewController(orch *app.Orchestrator, cfg *config.Config) *Controller {
	return &Controller{
		Orch:    orch,
		Cfg:     cfg,
		limiter: NewJoinRateLimiter(cfg.JoinRateLimit, cfg.JoinRateInterval),
	}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}

	// One fresh id per physical connection. A reconnecting user shows up
	// under a new one; control targeting goes by claimed user id instead.
	cid := core.ConnID(uuid.NewString())
	log.Info().Str("module", "signal").Str("conn", string(cid)).Msg("new WS connection")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	if ctl.Cfg.ReadLimit > 0 {
		ws.SetReadLimit(ctl.Cfg.ReadLimit)
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}

func (ctl *Controller) privilegedRole() domain.Role {
	return domain.Role(ctl.Cfg.PrivilegedRole)
}

func (ctl *Controller) sendJSON(c *wsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *wsConn, msg string) {
	ctl.sendJSON(c, struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{Type: "error", Message: msg})
}

// broadcastJSON fans v out to every participant of sess except from;
// pass an empty ConnID to reach the whole session.
func (ctl *Controller) broadcastJSON(sess core.SessionService, from core.ConnID, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	res := sess.Broadcast(from, b)
	for _, cid := range res.Dropped {
		log.Warn().Str("module", "signal").Str("conn", string(cid)).Msg("broadcast dropped for slow peer")
	}
}

// resync re-broadcasts the full participant list to the whole session.
// Membership changes always resend everything rather than diffs: a peer
// that missed a message heals on the next change.
func (ctl *Controller) resync(sess core.SessionService) {
	ctl.broadcastJSON(sess, "", struct {
		Type         string               `json:"type"`
		Participants []core.ParticipantDTO `json:"participants"`
	}{Type: "participantList", Participants: sess.ParticipantsSnapshot()})
}
