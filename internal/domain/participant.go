// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const (
	MaxUserIDLen = 64
	MaxRoleLen   = 32
)

var (
	ErrUserIDEmpty   = errors.New("user id empty")
	ErrUserIDTooLong = errors.New("user id too long")
	ErrRoleEmpty     = errors.New("role empty")
	ErrRoleTooLong   = errors.New("role too long")
)

type (
	UserID string
	Role   string
)

// RoleTutor is the privileged role: control commands (mute, remove,
// approve, end session) are accepted only from connections that joined
// with it. Any other role string is a regular participant.
const RoleTutor Role = "tutor"

// Participant is one connected party within one lesson session.
// UserID and Role are claimed by the client at join time; identity
// verification happens upstream, before the socket reaches us.
type Participant struct {
	UserID UserID `json:"userId"`
	Role   Role   `json:"role"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(userID, role string) (*Participant, error) {
	if len(userID) == 0 {
		return nil, ErrUserIDEmpty
	}
	if len(userID) > MaxUserIDLen {
		return nil, ErrUserIDTooLong
	}
	if len(role) == 0 {
		return nil, ErrRoleEmpty
	}
	if len(role) > MaxRoleLen {
		return nil, ErrRoleTooLong
	}
	return &Participant{UserID: UserID(userID), Role: Role(role)}, nil
}
