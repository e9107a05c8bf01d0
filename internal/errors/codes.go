// Package errors provides machine-readable error codes for the encounter
// engine and their mapping to HTTP statuses at the gateway boundary.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Wave errors
	CodeWaveNotFound          Code = "WAVE_NOT_FOUND"
	CodeWaveNotActive         Code = "WAVE_NOT_ACTIVE"
	CodeWaveInvalidCount      Code = "WAVE_INVALID_COUNT"
	CodeWaveInvalidRegion     Code = "WAVE_INVALID_REGION"
	CodeWaveNoParticipants    Code = "WAVE_NO_PARTICIPANTS"
	CodeWaveNoEligibleActors  Code = "WAVE_NO_ELIGIBLE_PARTICIPANTS"
	CodeWaveInvalidMonster    Code = "WAVE_INVALID_MONSTER_STATE"

	// Generation errors
	CodeGenUnknownDifficulty Code = "GENERATION_UNKNOWN_DIFFICULTY"
	CodeGenNoCandidates      Code = "GENERATION_NO_CANDIDATES"

	// Participant errors
	CodeParticipantDuplicate     Code = "PARTICIPANT_DUPLICATE"
	CodeParticipantNotInWave     Code = "PARTICIPANT_NOT_IN_WAVE"
	CodeParticipantNotTurnHolder Code = "PARTICIPANT_NOT_TURN_HOLDER"
	CodeParticipantWrongRegion   Code = "PARTICIPANT_LOCATION_MISMATCH"
	CodeParticipantDisqualified  Code = "PARTICIPANT_DISQUALIFIED"

	// Actor errors
	CodeActorNotFound Code = "ACTOR_NOT_FOUND"

	// Combat errors
	CodeCombatInvalidRoll Code = "COMBAT_INVALID_ROLL"

	// Storage errors
	CodeNotFound  Code = "NOT_FOUND"
	CodeTransient Code = "TRANSIENT_FAILURE"
)

// HTTPStatus maps domain codes to HTTP status codes for gateway responses.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeWaveInvalidCount,
		CodeWaveInvalidRegion,
		CodeGenUnknownDifficulty,
		CodeGenNoCandidates,
		CodeCombatInvalidRoll:
		return http.StatusBadRequest

	// Conflict - state doesn't allow the operation
	case CodeWaveNotActive,
		CodeWaveNoParticipants,
		CodeWaveNoEligibleActors,
		CodeWaveInvalidMonster,
		CodeParticipantDuplicate,
		CodeParticipantNotTurnHolder,
		CodeParticipantWrongRegion,
		CodeParticipantDisqualified:
		return http.StatusConflict

	// Forbidden - caller is not part of the wave
	case CodeParticipantNotInWave:
		return http.StatusForbidden

	// Not found - resource doesn't exist
	case CodeWaveNotFound,
		CodeActorNotFound,
		CodeNotFound:
		return http.StatusNotFound

	// Retryable
	case CodeTransient:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
