// Package combat implements turn resolution arithmetic for wave encounters.
//
// The lifecycle manager rolls a base value, applies the party-size and
// tier penalty, and hands the final roll to a Resolver. The default
// resolver is fully deterministic with respect to its inputs so combat
// can be replayed from a recorded roll.
package combat

import (
	"context"
	"errors"
	"math"
)

// ErrInvalidRoll indicates a roll outside the 1-100 range.
var ErrInvalidRoll = errors.New("roll must be between 1 and 100")

// ErrInvalidMonsterTier indicates a non-positive monster tier.
var ErrInvalidMonsterTier = errors.New("monster tier must be positive")

// ActorStats carries the combat-relevant attributes of the acting
// participant, refreshed from the actor store at the start of each turn.
type ActorStats struct {
	Attack  int
	Defense int
}

// MonsterStats describes the defending monster.
type MonsterStats struct {
	Tier   int
	Hearts int
}

// Outcome is the result of resolving one turn.
type Outcome struct {
	Roll            int
	DamageToMonster int
	DamageToActor   int
	AttackSuccess   bool
	DefenseSuccess  bool
}

// Resolver computes a turn outcome from actor stats, monster stats, and
// a penalized roll. Implementations must be side-effect free.
type Resolver interface {
	Resolve(ctx context.Context, actor ActorStats, monster MonsterStats, roll int) (Outcome, error)
}

// Penalty thresholds for the default resolver.
const (
	attackThreshold  = 55
	defenseThreshold = 35
	maxRollPenalty   = 15
)

// TurnPenalty computes the roll penalty for a turn:
//
//	min(15, max(0, partySize-1) + max(0, monsterTier-5) * 0.5)
//
// floored to an integer. Larger parties and over-tier monsters make
// individual rolls harder; the penalty never exceeds 15.
func TurnPenalty(partySize, monsterTier int) int {
	crowd := partySize - 1
	if crowd < 0 {
		crowd = 0
	}
	overTier := 0.0
	if monsterTier > 5 {
		overTier = float64(monsterTier-5) * 0.5
	}
	penalty := int(math.Floor(float64(crowd) + overTier))
	if penalty > maxRollPenalty {
		penalty = maxRollPenalty
	}
	return penalty
}

// PenalizeRoll applies TurnPenalty to a base roll and clamps the result
// to a minimum of 1.
func PenalizeRoll(base, partySize, monsterTier int) int {
	roll := base - TurnPenalty(partySize, monsterTier)
	if roll < 1 {
		roll = 1
	}
	return roll
}

// DefaultResolver is the stock deterministic combat resolver.
//
// # Attack
//
// The attack score is roll + attack*5 - tier*3. Scores of 55 or higher
// hit; damage grows with the actor's attack stat and with the margin by
// which the score cleared the threshold.
//
// # Defense
//
// A missed attack exposes the actor to a counterstrike. The defense
// score is roll + defense*5 - tier*4; scores of 35 or higher block.
// An unblocked counterstrike deals 1 + tier/3 hearts to the actor.
type DefaultResolver struct{}

// NewDefaultResolver returns the stock resolver.
func NewDefaultResolver() DefaultResolver {
	return DefaultResolver{}
}

// Resolve implements Resolver.
func (DefaultResolver) Resolve(ctx context.Context, actor ActorStats, monster MonsterStats, roll int) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if roll < 1 || roll > 100 {
		return Outcome{}, ErrInvalidRoll
	}
	if monster.Tier <= 0 {
		return Outcome{}, ErrInvalidMonsterTier
	}

	outcome := Outcome{Roll: roll}

	attackScore := roll + actor.Attack*5 - monster.Tier*3
	if attackScore >= attackThreshold {
		outcome.AttackSuccess = true
		outcome.DefenseSuccess = true
		outcome.DamageToMonster = 1 + actor.Attack/2 + (attackScore-attackThreshold)/20
		return outcome, nil
	}

	defenseScore := roll + actor.Defense*5 - monster.Tier*4
	if defenseScore >= defenseThreshold {
		outcome.DefenseSuccess = true
		return outcome, nil
	}

	outcome.DamageToActor = 1 + monster.Tier/3
	return outcome, nil
}
