// Package event defines the lifecycle events a wave emits as it progresses.
// Events are plain data: the service publishes them after a successful
// persist, and subscribers (the websocket hub, tests) consume them without
// reaching back into the aggregate.
package event

import (
	"context"
	"time"
)

// Type identifies a wave lifecycle event.
type Type string

const (
	TypeWaveCreated        Type = "wave.created"
	TypeParticipantJoined  Type = "participant.joined"
	TypeTurnTaken          Type = "wave.turn_taken"
	TypeMonsterDefeated    Type = "wave.monster_defeated"
	TypeWaveCompleted      Type = "wave.completed"
	TypeWaveFailed         Type = "wave.failed"
	TypeParticipantRemoved Type = "participant.removed"
)

// Event is a single wave lifecycle notification.
type Event struct {
	Type       Type      `json:"type"`
	WaveID     string    `json:"wave_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// WaveCreated is the payload for TypeWaveCreated.
type WaveCreated struct {
	RegionKey     string `json:"region_key"`
	DifficultyKey string `json:"difficulty_key"`
	MonsterCount  int    `json:"monster_count"`
}

// ParticipantJoined is the payload for TypeParticipantJoined.
type ParticipantJoined struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	JoinedAtStart bool   `json:"joined_at_start"`
}

// TurnTaken is the payload for TypeTurnTaken.
type TurnTaken struct {
	UserID          string `json:"user_id"`
	Roll            int    `json:"roll"`
	DamageToMonster int    `json:"damage_to_monster"`
	DamageToActor   int    `json:"damage_to_actor"`
	MonsterName     string `json:"monster_name"`
	MonsterHearts   int    `json:"monster_hearts"`
}

// MonsterDefeated is the payload for TypeMonsterDefeated.
type MonsterDefeated struct {
	MonsterName string `json:"monster_name"`
	DefeatedBy  string `json:"defeated_by"`
	Remaining   int    `json:"remaining"`
}

// WaveCompleted is the payload for TypeWaveCompleted.
type WaveCompleted struct {
	TotalDamage      int `json:"total_damage"`
	ParticipantCount int `json:"participant_count"`
}

// WaveFailed is the payload for TypeWaveFailed.
type WaveFailed struct {
	Reason string `json:"reason"`
}

// ParticipantRemoved is the payload for TypeParticipantRemoved.
type ParticipantRemoved struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// Publisher delivers wave lifecycle events to interested subscribers.
// Implementations must be safe for concurrent use and must not block
// the caller indefinitely.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
