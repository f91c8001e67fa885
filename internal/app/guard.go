package app

import (
	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

// Authorizer gates every privileged control command before it is relayed.
type Authorizer interface {
	Allow(token domain.SessionToken, cid core.ConnID) bool
}

// RoleGuard admits a command only when the issuing connection's recorded
// role in the registry equals the privileged one. A connection with no
// record (control before join, or after removal) fails closed.
type RoleGuard struct {
	Registry   *core.Registry
	Privileged domain.Role
}

func (g RoleGuard) Allow(token domain.SessionToken, cid core.ConnID) bool {
	sess, ok := g.Registry.Get(token)
	if !ok {
		return false
	}
	ps, ok := sess.Get(cid)
	if !ok {
		return false
	}
	return ps.Meta().Role == g.Privileged
}
