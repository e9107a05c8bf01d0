// Package gateway exposes the wave lifecycle over HTTP JSON plus a
// websocket event feed. It owns no game rules: requests are translated
// to lifecycle manager calls and errors to machine-readable codes.
package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/hollowshade/wavecore/internal/wave/domain"
	"github.com/hollowshade/wavecore/internal/wave/service"
)

// Server routes encounter API requests to the lifecycle manager.
type Server struct {
	manager *service.Manager
	hub     *Hub
	mux     *http.ServeMux
}

// NewServer wires the HTTP routes. The hub should be the same publisher
// the manager was configured with so clients see the events their
// requests cause.
func NewServer(manager *service.Manager, hub *Hub) *Server {
	s := &Server{manager: manager, hub: hub, mux: http.NewServeMux()}
	s.mux.HandleFunc("POST /v1/waves", s.handleCreateWave)
	s.mux.HandleFunc("GET /v1/waves/{id}", s.handleGetWave)
	s.mux.HandleFunc("POST /v1/waves/{id}/join", s.handleJoinWave)
	s.mux.HandleFunc("POST /v1/waves/{id}/turn", s.handleTakeTurn)
	s.mux.HandleFunc("POST /v1/waves/{id}/complete", s.handleCompleteWave)
	s.mux.HandleFunc("POST /v1/waves/{id}/fail", s.handleFailWave)
	s.mux.HandleFunc("GET /healthz", s.handleHealthz)
	s.mux.HandleFunc("GET /ws", s.handleWebsocket)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type createWaveRequest struct {
	RegionKey     string `json:"region_key"`
	Count         int    `json:"count"`
	DifficultyKey string `json:"difficulty_key"`
	PoolID        string `json:"pool_id,omitempty"`
	Seed          *int64 `json:"seed,omitempty"`
}

type joinWaveRequest struct {
	ActorID string `json:"actor_id"`
}

type takeTurnRequest struct {
	UserID string `json:"user_id"`
}

type failWaveRequest struct {
	Reason string `json:"reason"`
}

type monsterView struct {
	Name          string `json:"name"`
	SpeciesKey    string `json:"species_key"`
	Tier          int    `json:"tier"`
	CurrentHearts int    `json:"current_hearts"`
	MaxHearts     int    `json:"max_hearts"`
}

type participantView struct {
	UserID            string `json:"user_id"`
	Name              string `json:"name"`
	AccumulatedDamage int    `json:"accumulated_damage"`
	JoinedAtStart     bool   `json:"joined_at_start"`
}

type waveView struct {
	ID                  string            `json:"id"`
	RegionKey           string            `json:"region_key"`
	DifficultyKey       string            `json:"difficulty_key"`
	Status              string            `json:"status"`
	CurrentMonsterIndex int               `json:"current_monster_index"`
	CurrentTurnIndex    int               `json:"current_turn_index"`
	Monsters            []monsterView     `json:"monsters"`
	Participants        []participantView `json:"participants"`
	DefeatedCount       int               `json:"defeated_count"`
	TotalDamage         int               `json:"total_damage"`
	Success             bool              `json:"success"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

type turnView struct {
	Wave            waveView `json:"wave"`
	Roll            int      `json:"roll"`
	DamageToMonster int      `json:"damage_to_monster"`
	DamageToActor   int      `json:"damage_to_actor"`
	AttackSuccess   bool     `json:"attack_success"`
	MonsterDefeated bool     `json:"monster_defeated"`
	WaveCompleted   bool     `json:"wave_completed"`
	WaveFailed      bool     `json:"wave_failed"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toWaveView(wave domain.Wave) waveView {
	view := waveView{
		ID:                  wave.ID,
		RegionKey:           wave.RegionKey,
		DifficultyKey:       wave.DifficultyKey,
		Status:              wave.Status.String(),
		CurrentMonsterIndex: wave.CurrentMonsterIndex,
		CurrentTurnIndex:    wave.CurrentTurnIndex,
		Monsters:            make([]monsterView, 0, len(wave.Monsters)),
		Participants:        make([]participantView, 0, len(wave.Participants)),
		DefeatedCount:       len(wave.Defeated),
		TotalDamage:         wave.Analytics.TotalDamage,
		Success:             wave.Analytics.Success,
		CreatedAt:           wave.CreatedAt,
		UpdatedAt:           wave.UpdatedAt,
	}
	for _, m := range wave.Monsters {
		view.Monsters = append(view.Monsters, monsterView{
			Name:          m.Name,
			SpeciesKey:    m.SpeciesKey,
			Tier:          m.Tier,
			CurrentHearts: m.CurrentHearts,
			MaxHearts:     m.MaxHearts,
		})
	}
	for _, p := range wave.Participants {
		view.Participants = append(view.Participants, participantView{
			UserID:            p.UserID,
			Name:              p.Name,
			AccumulatedDamage: p.AccumulatedDamage,
			JoinedAtStart:     p.JoinedAtStart,
		})
	}
	return view
}

func (s *Server) handleCreateWave(w http.ResponseWriter, r *http.Request) {
	var req createWaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.CreateInput{
		RegionKey:     req.RegionKey,
		Count:         req.Count,
		DifficultyKey: req.DifficultyKey,
		Seed:          req.Seed,
	}
	if strings.TrimSpace(req.PoolID) != "" {
		input.Resource = domain.SharedPoolResource(req.PoolID)
	}

	wave, err := s.manager.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWaveView(wave))
}

func (s *Server) handleGetWave(w http.ResponseWriter, r *http.Request) {
	wave, err := s.manager.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaveView(wave))
}

func (s *Server) handleJoinWave(w http.ResponseWriter, r *http.Request) {
	var req joinWaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wave, err := s.manager.Join(r.Context(), r.PathValue("id"), req.ActorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaveView(wave))
}

func (s *Server) handleTakeTurn(w http.ResponseWriter, r *http.Request) {
	var req takeTurnRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.manager.TakeTurn(r.Context(), r.PathValue("id"), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, turnView{
		Wave:            toWaveView(result.Wave),
		Roll:            result.Outcome.Roll,
		DamageToMonster: result.Outcome.DamageToMonster,
		DamageToActor:   result.Outcome.DamageToActor,
		AttackSuccess:   result.Outcome.AttackSuccess,
		MonsterDefeated: result.MonsterDefeated,
		WaveCompleted:   result.WaveCompleted,
		WaveFailed:      result.WaveFailed,
	})
}

func (s *Server) handleCompleteWave(w http.ResponseWriter, r *http.Request) {
	wave, err := s.manager.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaveView(wave))
}

func (s *Server) handleFailWave(w http.ResponseWriter, r *http.Request) {
	var req failWaveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "manual"
	}

	wave, err := s.manager.Fail(r.Context(), r.PathValue("id"), reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWaveView(wave))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Printf("websocket accept failed err=%v", err)
		return
	}

	s.hub.Add(conn)
	defer s.hub.Remove(conn)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Subscribers are read-only; drain control frames until they leave.
	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code:    "INVALID_REQUEST_BODY",
			Message: "request body must be valid JSON",
		})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response failed err=%v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := service.CodeFor(err)
	status := code.HTTPStatus()
	message := err.Error()
	if status >= http.StatusInternalServerError && !errors.Is(err, service.ErrTransient) {
		// Internal details stay in logs.
		log.Printf("internal error err=%v", err)
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: message})
}
