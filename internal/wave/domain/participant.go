package domain

import (
	"errors"
	"strings"
)

var (
	// ErrEmptyUserID indicates a participant without a user id.
	ErrEmptyUserID = errors.New("user id is required")
	// ErrEmptyActorID indicates a participant without an actor id.
	ErrEmptyActorID = errors.New("actor id is required")
	// ErrEmptyParticipantName indicates a participant without a display name.
	ErrEmptyParticipantName = errors.New("participant name is required")
)

// CombatSnapshot captures the combat-relevant attributes of an actor at a
// point in time. Turn resolution always refreshes these from the actor
// store; the snapshot on the participant records the values at join time.
type CombatSnapshot struct {
	Attack    int
	Defense   int
	Hearts    int
	MaxHearts int
}

// Participant is an actor engaged in a wave. Privileged participants
// (staff-controlled units) are exempt from turn-order gating.
type Participant struct {
	UserID            string
	ActorID           string
	Name              string
	AccumulatedDamage int
	JoinedAtStart     bool
	Privileged        bool
	Snapshot          CombatSnapshot
}

// NewParticipantInput describes the data needed to enroll a participant.
type NewParticipantInput struct {
	UserID     string
	ActorID    string
	Name       string
	Privileged bool
	Snapshot   CombatSnapshot
}

// NewParticipant validates and normalizes participant input. JoinedAtStart
// is decided by Wave.Join, not here.
func NewParticipant(input NewParticipantInput) (Participant, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return Participant{}, ErrEmptyUserID
	}
	actorID := strings.TrimSpace(input.ActorID)
	if actorID == "" {
		return Participant{}, ErrEmptyActorID
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return Participant{}, ErrEmptyParticipantName
	}

	return Participant{
		UserID:     userID,
		ActorID:    actorID,
		Name:       name,
		Privileged: input.Privileged,
		Snapshot:   input.Snapshot,
	}, nil
}

// DefeatedMonster records a fallen monster and who landed the final blow.
type DefeatedMonster struct {
	Monster          MonsterInstance
	DefeatedByUserID string
	DefeatedByName   string
}
