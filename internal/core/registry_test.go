package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryEnsureIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	a := reg.Ensure("lesson-abc")
	b := reg.Ensure("lesson-abc")
	assert.Same(t, a.(*sessionImpl), b.(*sessionImpl))

	got, ok := reg.Get("lesson-abc")
	require.True(t, ok)
	assert.Same(t, a.(*sessionImpl), got.(*sessionImpl))
}

func TestRegistryGetUnknownToken(t *testing.T) {
	reg := NewRegistry()
	_, ok := reg.Get("nope")
	assert.False(t, ok)
}

func TestRegistryEmptySessionCollected(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Ensure("lesson-abc")

	const n = 5
	for i := 0; i < n; i++ {
		addFake(t, sess, ConnID(fmt.Sprintf("c%d", i)), fmt.Sprintf("u%d", i), "student")
	}
	require.Len(t, sess.ParticipantsSnapshot(), n)

	for i := 0; i < n; i++ {
		require.True(t, reg.RemoveParticipant("lesson-abc", ConnID(fmt.Sprintf("c%d", i))))
	}

	_, ok := reg.Get("lesson-abc")
	assert.False(t, ok, "drained session must be collected")
}

func TestRegistryRemoveParticipantNoOps(t *testing.T) {
	reg := NewRegistry()
	assert.False(t, reg.RemoveParticipant("nope", "c1"))

	sess := reg.Ensure("lesson-abc")
	addFake(t, sess, "c1", "u1", "student")
	assert.False(t, reg.RemoveParticipant("lesson-abc", "ghost"))

	// The stranger's no-op must not disturb the member.
	got, ok := reg.Get("lesson-abc")
	require.True(t, ok)
	assert.Equal(t, 1, got.ParticipantCount())
}

func TestRegistryDropConnectionScansAllSessions(t *testing.T) {
	reg := NewRegistry()
	addFake(t, reg.Ensure("lesson-a"), "c1", "u1", "student")
	addFake(t, reg.Ensure("lesson-b"), "c2", "u2", "student")

	sess, ok := reg.DropConnection("c2")
	require.True(t, ok)
	assert.Equal(t, "lesson-b", string(sess.Session().Token))

	// lesson-b drained, lesson-a untouched.
	_, ok = reg.Get("lesson-b")
	assert.False(t, ok)
	a, ok := reg.Get("lesson-a")
	require.True(t, ok)
	assert.Equal(t, 1, a.ParticipantCount())

	// A connection that never joined anywhere.
	_, ok = reg.DropConnection("ghost")
	assert.False(t, ok)
}

func TestRegistryFindConnection(t *testing.T) {
	reg := NewRegistry()
	addFake(t, reg.Ensure("lesson-a"), "c1", "u1", "student")

	token, ok := reg.FindConnection("c1")
	require.True(t, ok)
	assert.Equal(t, "lesson-a", string(token))

	_, ok = reg.FindConnection("ghost")
	assert.False(t, ok)
}

func TestRegistryDropReturnsSessionForNotify(t *testing.T) {
	reg := NewRegistry()
	sess := reg.Ensure("lesson-abc")
	conn := addFake(t, sess, "c1", "u1", "student")

	dropped, ok := reg.Drop("lesson-abc")
	require.True(t, ok)
	_, stillThere := reg.Get("lesson-abc")
	assert.False(t, stillThere)

	// Former participants stay reachable through the returned handle.
	dropped.Broadcast("", Frame(`{"type":"sessionEnded"}`))
	require.Len(t, conn.sent(), 1)

	_, ok = reg.Drop("lesson-abc")
	assert.False(t, ok)
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	addFake(t, reg.Ensure("lesson-a"), "c1", "u1", "student")
	addFake(t, reg.Ensure("lesson-b"), "c2", "u2", "student")
	addFake(t, reg.Ensure("lesson-b"), "c3", "u3", "tutor")

	infos := reg.List()
	require.Len(t, infos, 2)
	counts := map[string]int{}
	for _, info := range infos {
		counts[string(info.Token)] = info.ParticipantCount
		assert.False(t, info.CreatedAt.IsZero())
	}
	assert.Equal(t, map[string]int{"lesson-a": 1, "lesson-b": 2}, counts)
}
