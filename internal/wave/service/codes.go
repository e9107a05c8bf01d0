package service

import (
	"errors"

	"github.com/hollowshade/wavecore/internal/catalog"
	"github.com/hollowshade/wavecore/internal/combat"
	apperrors "github.com/hollowshade/wavecore/internal/errors"
	"github.com/hollowshade/wavecore/internal/storage"
	"github.com/hollowshade/wavecore/internal/wave/domain"
	"github.com/hollowshade/wavecore/internal/wave/generator"
)

// CodeFor maps a lifecycle error to its machine-readable code so the
// gateway can translate failures without inspecting sentinel chains.
func CodeFor(err error) apperrors.Code {
	switch {
	case err == nil:
		return apperrors.CodeUnknown
	case errors.Is(err, ErrWaveNotFound):
		return apperrors.CodeWaveNotFound
	case errors.Is(err, ErrActorNotFound):
		return apperrors.CodeActorNotFound
	case errors.Is(err, ErrLocationMismatch):
		return apperrors.CodeParticipantWrongRegion
	case errors.Is(err, ErrDisqualified):
		return apperrors.CodeParticipantDisqualified
	case errors.Is(err, ErrNoEligibleParticipants):
		return apperrors.CodeWaveNoEligibleActors
	case errors.Is(err, ErrTransient):
		return apperrors.CodeTransient
	case errors.Is(err, domain.ErrWaveNotActive):
		return apperrors.CodeWaveNotActive
	case errors.Is(err, domain.ErrDuplicateParticipant):
		return apperrors.CodeParticipantDuplicate
	case errors.Is(err, domain.ErrNotParticipant):
		return apperrors.CodeParticipantNotInWave
	case errors.Is(err, domain.ErrNotParticipantsTurn):
		return apperrors.CodeParticipantNotTurnHolder
	case errors.Is(err, domain.ErrInvalidMonsterState):
		return apperrors.CodeWaveInvalidMonster
	case errors.Is(err, domain.ErrNoParticipants):
		return apperrors.CodeWaveNoParticipants
	case errors.Is(err, generator.ErrUnknownDifficulty):
		return apperrors.CodeGenUnknownDifficulty
	case errors.Is(err, generator.ErrNoCandidates):
		return apperrors.CodeGenNoCandidates
	case errors.Is(err, generator.ErrInvalidCount):
		return apperrors.CodeWaveInvalidCount
	case errors.Is(err, catalog.ErrUnknownRegion):
		return apperrors.CodeWaveInvalidRegion
	case errors.Is(err, combat.ErrInvalidRoll):
		return apperrors.CodeCombatInvalidRoll
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.CodeNotFound
	case errors.Is(err, storage.ErrVersionConflict):
		return apperrors.CodeTransient
	default:
		return apperrors.CodeUnknown
	}
}
