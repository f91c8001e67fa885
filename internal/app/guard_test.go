package app

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tutorlink/relay/internal/core"
	"github.com/tutorlink/relay/internal/domain"
)

type nullConn struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (n *nullConn) TrySend(f core.Frame) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.frames = append(n.frames, f)
	return nil
}

func (n *nullConn) Close() {}

func join(t *testing.T, reg *core.Registry, token domain.SessionToken, cid core.ConnID, uid string, role string) *nullConn {
	t.Helper()
	meta, err := domain.NewParticipant(uid, role)
	require.NoError(t, err)
	conn := &nullConn{}
	reg.Ensure(token).AddParticipant(cid, core.NewParticipantSession(meta, conn))
	return conn
}

func TestRoleGuardAllowsPrivilegedRole(t *testing.T) {
	reg := core.NewRegistry()
	guard := RoleGuard{Registry: reg, Privileged: domain.RoleTutor}

	join(t, reg, "lesson-abc", "t1", "tutor-1", "tutor")
	join(t, reg, "lesson-abc", "s1", "student-1", "student")

	require.True(t, guard.Allow("lesson-abc", "t1"))
	require.False(t, guard.Allow("lesson-abc", "s1"))
}

func TestRoleGuardFailsClosed(t *testing.T) {
	reg := core.NewRegistry()
	guard := RoleGuard{Registry: reg, Privileged: domain.RoleTutor}

	// No session at all.
	require.False(t, guard.Allow("lesson-abc", "t1"))

	// Session exists but the connection never joined it.
	join(t, reg, "lesson-abc", "s1", "student-1", "student")
	require.False(t, guard.Allow("lesson-abc", "stranger"))

	// A removed tutor loses the privilege with its record.
	join(t, reg, "lesson-abc", "t1", "tutor-1", "tutor")
	require.True(t, guard.Allow("lesson-abc", "t1"))
	reg.RemoveParticipant("lesson-abc", "t1")
	require.False(t, guard.Allow("lesson-abc", "t1"))
}

func TestRoleGuardRoleIsPerSession(t *testing.T) {
	reg := core.NewRegistry()
	guard := RoleGuard{Registry: reg, Privileged: domain.RoleTutor}

	join(t, reg, "lesson-a", "t1", "tutor-1", "tutor")
	join(t, reg, "lesson-b", "s1", "tutor-1", "student")

	require.True(t, guard.Allow("lesson-a", "t1"))
	// Same human, but this connection claimed student in lesson-b.
	require.False(t, guard.Allow("lesson-b", "s1"))
}
