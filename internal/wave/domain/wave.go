package domain

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hollowshade/wavecore/internal/id"
)

// Status describes the lifecycle state of a wave.
type Status int

const (
	// StatusUnspecified represents an invalid status value.
	StatusUnspecified Status = iota
	// StatusActive marks a wave that is still being fought.
	StatusActive
	// StatusCompleted marks a wave whose monsters were all defeated.
	StatusCompleted
	// StatusFailed marks a wave whose party was wiped out.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unspecified"
	}
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var (
	// ErrEmptyRegionKey indicates a wave without a region.
	ErrEmptyRegionKey = errors.New("region key is required")
	// ErrEmptyDifficultyKey indicates a wave without a difficulty key.
	ErrEmptyDifficultyKey = errors.New("difficulty key is required")
	// ErrNoMonsters indicates a wave created without monsters.
	ErrNoMonsters = errors.New("wave requires at least one monster")
	// ErrWaveNotActive indicates an operation on a terminal wave.
	ErrWaveNotActive = errors.New("wave is not active")
	// ErrDuplicateParticipant indicates a user already joined this wave.
	ErrDuplicateParticipant = errors.New("user already has a participant in this wave")
	// ErrNotParticipant indicates the acting user is not in the wave.
	ErrNotParticipant = errors.New("user is not a wave participant")
	// ErrNotParticipantsTurn indicates the acting user is not the turn holder.
	ErrNotParticipantsTurn = errors.New("not this participant's turn")
	// ErrInvalidMonsterState indicates a missing or malformed current monster.
	ErrInvalidMonsterState = errors.New("current monster state is invalid")
	// ErrNoParticipants indicates a wave with an empty roster.
	ErrNoParticipants = errors.New("wave has no participants")
	// ErrMonsterNotDefeated guards defeat recording against live monsters.
	ErrMonsterNotDefeated = errors.New("current monster still has hearts")
)

// Analytics aggregates wave statistics retained for historical reads.
type Analytics struct {
	TotalMonsters    int
	DifficultyKey    string
	TotalDamage      int
	ParticipantCount int
	Success          bool
}

// Wave is the aggregate root for one encounter: an ordered monster
// sequence fought by a roster of participants until completion or failure.
type Wave struct {
	ID                  string
	RegionKey           string
	DifficultyKey       string
	Monsters            []MonsterInstance
	CurrentMonsterIndex int
	Defeated            []DefeatedMonster
	Participants        []Participant
	CurrentTurnIndex    int
	Status              Status
	Resource            ResourceModel
	Analytics           Analytics
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewWaveInput describes the data needed to start a wave.
type NewWaveInput struct {
	RegionKey     string
	DifficultyKey string
	Monsters      []MonsterInstance
	Resource      ResourceModel
}

// NewWave creates an active wave with a generated ID and timestamps.
func NewWave(input NewWaveInput, now func() time.Time, idGenerator func() (string, error)) (Wave, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	region := strings.TrimSpace(input.RegionKey)
	if region == "" {
		return Wave{}, ErrEmptyRegionKey
	}
	difficulty := strings.TrimSpace(input.DifficultyKey)
	if difficulty == "" {
		return Wave{}, ErrEmptyDifficultyKey
	}
	if len(input.Monsters) == 0 {
		return Wave{}, ErrNoMonsters
	}
	if err := input.Resource.Validate(); err != nil {
		return Wave{}, err
	}

	waveID, err := idGenerator()
	if err != nil {
		return Wave{}, fmt.Errorf("generate wave id: %w", err)
	}

	createdAt := now().UTC()
	monsters := slices.Clone(input.Monsters)
	return Wave{
		ID:            waveID,
		RegionKey:     region,
		DifficultyKey: difficulty,
		Monsters:      monsters,
		Status:        StatusActive,
		Resource:      input.Resource,
		Analytics: Analytics{
			TotalMonsters: len(monsters),
			DifficultyKey: difficulty,
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}

// CurrentMonster returns a pointer to the monster currently being fought.
// It fails with ErrInvalidMonsterState when the index is out of range or
// the instance is malformed.
func (w *Wave) CurrentMonster() (*MonsterInstance, error) {
	if w.CurrentMonsterIndex < 0 || w.CurrentMonsterIndex >= len(w.Monsters) {
		return nil, ErrInvalidMonsterState
	}
	monster := &w.Monsters[w.CurrentMonsterIndex]
	if monster.MaxHearts <= 0 || monster.CurrentHearts < 0 || monster.CurrentHearts > monster.MaxHearts {
		return nil, ErrInvalidMonsterState
	}
	return monster, nil
}

// Join appends a participant to an active wave. JoinedAtStart is granted
// only while no monster has been defeated and no progress has been made.
func (w *Wave) Join(p Participant) error {
	if w.Status != StatusActive {
		return ErrWaveNotActive
	}
	for _, existing := range w.Participants {
		if existing.UserID == p.UserID {
			return ErrDuplicateParticipant
		}
	}

	p.JoinedAtStart = len(w.Defeated) == 0 && w.CurrentMonsterIndex == 0
	w.Participants = append(w.Participants, p)
	w.Analytics.ParticipantCount = len(w.Participants)
	return nil
}

// ParticipantByUser returns the roster index and participant for a user.
func (w *Wave) ParticipantByUser(userID string) (int, *Participant, bool) {
	for i := range w.Participants {
		if w.Participants[i].UserID == userID {
			return i, &w.Participants[i], true
		}
	}
	return 0, nil, false
}

// TurnHolder reports whether the participant at index holds the current turn.
func (w *Wave) TurnHolder(index int) bool {
	return len(w.Participants) > 0 && index == w.CurrentTurnIndex
}

// RemoveParticipant drops a stale participant and keeps the turn index
// valid for the shrunken roster. It reports whether a removal happened.
func (w *Wave) RemoveParticipant(userID string) bool {
	index := -1
	for i := range w.Participants {
		if w.Participants[i].UserID == userID {
			index = i
			break
		}
	}
	if index == -1 {
		return false
	}

	w.Participants = append(w.Participants[:index], w.Participants[index+1:]...)
	w.Analytics.ParticipantCount = len(w.Participants)
	if len(w.Participants) == 0 {
		w.CurrentTurnIndex = 0
		return true
	}
	if index < w.CurrentTurnIndex {
		w.CurrentTurnIndex--
	}
	w.CurrentTurnIndex %= len(w.Participants)
	return true
}

// AdvanceTurn moves the turn to the next participant, wrapping to zero.
func (w *Wave) AdvanceTurn() {
	if len(w.Participants) == 0 {
		w.CurrentTurnIndex = 0
		return
	}
	w.CurrentTurnIndex = (w.CurrentTurnIndex + 1) % len(w.Participants)
}

// DamageCurrentMonster applies damage to the current monster, flooring
// hearts at zero, and returns the amount actually applied.
func (w *Wave) DamageCurrentMonster(amount int) (int, error) {
	monster, err := w.CurrentMonster()
	if err != nil {
		return 0, err
	}
	applied := monster.ApplyDamage(amount)
	w.Analytics.TotalDamage += applied
	return applied, nil
}

// RecordDefeat records the current monster's defeat, advances past it,
// and completes the wave when it was the last one. The turn index is left
// unchanged: the defeater opens against the next monster.
func (w *Wave) RecordDefeat(by Participant, now func() time.Time) (completed bool, err error) {
	monster, err := w.CurrentMonster()
	if err != nil {
		return false, err
	}
	if !monster.Defeated() {
		return false, ErrMonsterNotDefeated
	}

	w.Defeated = append(w.Defeated, DefeatedMonster{
		Monster:          *monster,
		DefeatedByUserID: by.UserID,
		DefeatedByName:   by.Name,
	})
	w.CurrentMonsterIndex++
	if w.CurrentMonsterIndex == len(w.Monsters) {
		w.Complete(now)
		return true, nil
	}
	return false, nil
}

// Complete transitions the wave to completed. It is idempotent: terminal
// waves are left untouched and false is returned.
func (w *Wave) Complete(now func() time.Time) bool {
	if w.Status.Terminal() {
		return false
	}
	if now == nil {
		now = time.Now
	}
	w.Status = StatusCompleted
	w.Analytics.Success = true
	w.UpdatedAt = now().UTC()
	return true
}

// ForceComplete finalizes an active wave as completed, advancing past any
// remaining monsters so the completion invariant keeps holding. Used by
// the manual finalizer; normal completion happens through RecordDefeat.
func (w *Wave) ForceComplete(now func() time.Time) bool {
	if w.Status.Terminal() {
		return false
	}
	w.CurrentMonsterIndex = len(w.Monsters)
	return w.Complete(now)
}

// Fail transitions the wave to failed. It is idempotent: terminal waves
// are left untouched and false is returned.
func (w *Wave) Fail(now func() time.Time) bool {
	if w.Status.Terminal() {
		return false
	}
	if now == nil {
		now = time.Now
	}
	w.Status = StatusFailed
	w.Analytics.Success = false
	w.UpdatedAt = now().UTC()
	return true
}

// Touch refreshes the aggregate's update timestamp.
func (w *Wave) Touch(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	w.UpdatedAt = now().UTC()
}

// Clone returns a deep copy of the wave. Stores hand out clones so no
// caller ever mutates a shared aggregate in place.
func (w Wave) Clone() Wave {
	clone := w
	clone.Monsters = slices.Clone(w.Monsters)
	clone.Defeated = slices.Clone(w.Defeated)
	clone.Participants = slices.Clone(w.Participants)
	return clone
}

// Validate checks the structural invariants that must hold at every
// observable state. Liveness conditions that depend on external actor
// records (incapacitation) are the lifecycle manager's responsibility.
func (w Wave) Validate() error {
	if w.CurrentMonsterIndex < 0 || w.CurrentMonsterIndex > len(w.Monsters) {
		return ErrInvalidMonsterState
	}
	completed := w.Status == StatusCompleted
	if completed != (w.CurrentMonsterIndex == len(w.Monsters)) {
		return fmt.Errorf("status %s inconsistent with monster index %d/%d", w.Status, w.CurrentMonsterIndex, len(w.Monsters))
	}
	for i := range w.Monsters {
		monster := w.Monsters[i]
		if monster.CurrentHearts < 0 || monster.CurrentHearts > monster.MaxHearts {
			return ErrInvalidMonsterState
		}
	}
	if len(w.Participants) > 0 {
		if w.CurrentTurnIndex < 0 || w.CurrentTurnIndex >= len(w.Participants) {
			return fmt.Errorf("turn index %d out of range for %d participants", w.CurrentTurnIndex, len(w.Participants))
		}
	}
	if err := w.Resource.Validate(); err != nil {
		return err
	}
	return nil
}
