package errors

import (
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeWaveInvalidCount, http.StatusBadRequest},
		{CodeGenUnknownDifficulty, http.StatusBadRequest},
		{CodeGenNoCandidates, http.StatusBadRequest},
		{CodeWaveNotActive, http.StatusConflict},
		{CodeParticipantDuplicate, http.StatusConflict},
		{CodeParticipantNotTurnHolder, http.StatusConflict},
		{CodeParticipantNotInWave, http.StatusForbidden},
		{CodeWaveNotFound, http.StatusNotFound},
		{CodeActorNotFound, http.StatusNotFound},
		{CodeTransient, http.StatusServiceUnavailable},
		{CodeUnknown, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := tt.code.HTTPStatus(); got != tt.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
