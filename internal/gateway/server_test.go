package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/hollowshade/wavecore/internal/actors"
	actorsmem "github.com/hollowshade/wavecore/internal/actors/memory"
	"github.com/hollowshade/wavecore/internal/combat"
	storagemem "github.com/hollowshade/wavecore/internal/storage/memory"
	"github.com/hollowshade/wavecore/internal/wave/domain"
	"github.com/hollowshade/wavecore/internal/wave/event"
	"github.com/hollowshade/wavecore/internal/wave/generator"
	"github.com/hollowshade/wavecore/internal/wave/service"
)

type stubCatalog struct{}

func (stubCatalog) ListByRegion(ctx context.Context, regionKey string) ([]domain.MonsterTemplate, error) {
	return []domain.MonsterTemplate{
		{Name: "Red Bokoblin", SpeciesKey: "bokoblin", Tier: 1, BaseHearts: 3},
	}, nil
}

func newTestServer(t *testing.T) (*Server, *actorsmem.Store) {
	t.Helper()
	gen, err := generator.New(stubCatalog{}, map[string]domain.DifficultyProfile{
		"test": {Key: "test", Weights: map[int]float64{1: 1.0}},
	})
	if err != nil {
		t.Fatalf("new generator: %v", err)
	}

	waves := storagemem.NewStore()
	actorStore := actorsmem.NewStore()
	hub := NewHub()
	manager, err := service.NewManager(service.Config{
		Waves:     waves,
		Pools:     waves,
		Actors:    actorStore,
		Generator: gen,
		Resolver:  combat.NewDefaultResolver(),
		Publisher: hub,
		RollDie:   func() int { return 90 },
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return NewServer(manager, hub), actorStore
}

func putHero(t *testing.T, store *actorsmem.Store, n int) actors.Record {
	t.Helper()
	record := actors.Record{
		ID:        fmt.Sprintf("actor-%d", n),
		UserID:    fmt.Sprintf("user-%d", n),
		Name:      fmt.Sprintf("Hero %d", n),
		RegionKey: "eldin",
		Hearts:    20,
		MaxHearts: 20,
		Attack:    8,
		Defense:   8,
	}
	if err := store.Put(record); err != nil {
		t.Fatalf("put actor: %v", err)
	}
	return record
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)
	return recorder
}

func decodeWave(t *testing.T, recorder *httptest.ResponseRecorder) waveView {
	t.Helper()
	var view waveView
	if err := json.NewDecoder(recorder.Body).Decode(&view); err != nil {
		t.Fatalf("decode wave view: %v", err)
	}
	return view
}

func TestCreateJoinTurnFlow(t *testing.T) {
	server, actorStore := newTestServer(t)
	putHero(t, actorStore, 1)

	created := doJSON(t, server, http.MethodPost, "/v1/waves", createWaveRequest{
		RegionKey:     "eldin",
		Count:         1,
		DifficultyKey: "test",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status %d: %s", created.Code, created.Body.String())
	}
	wave := decodeWave(t, created)
	if wave.Status != "active" || len(wave.Monsters) != 1 {
		t.Fatalf("unexpected created wave: %+v", wave)
	}

	joined := doJSON(t, server, http.MethodPost, "/v1/waves/"+wave.ID+"/join", joinWaveRequest{ActorID: "actor-1"})
	if joined.Code != http.StatusOK {
		t.Fatalf("join status %d: %s", joined.Code, joined.Body.String())
	}
	if view := decodeWave(t, joined); len(view.Participants) != 1 {
		t.Fatalf("expected 1 participant, got %+v", view.Participants)
	}

	turn := doJSON(t, server, http.MethodPost, "/v1/waves/"+wave.ID+"/turn", takeTurnRequest{UserID: "user-1"})
	if turn.Code != http.StatusOK {
		t.Fatalf("turn status %d: %s", turn.Code, turn.Body.String())
	}
	var result turnView
	if err := json.NewDecoder(turn.Body).Decode(&result); err != nil {
		t.Fatalf("decode turn view: %v", err)
	}
	// Attack 8 against tier 1 with a 90 roll always lands and one-shots
	// a 3-heart monster.
	if !result.MonsterDefeated || !result.WaveCompleted {
		t.Fatalf("expected a completing turn, got %+v", result)
	}
	if result.Wave.Status != "completed" || !result.Wave.Success {
		t.Fatalf("expected completed wave view, got %+v", result.Wave)
	}

	fetched := doJSON(t, server, http.MethodGet, "/v1/waves/"+wave.ID, nil)
	if fetched.Code != http.StatusOK {
		t.Fatalf("get status %d", fetched.Code)
	}
	if view := decodeWave(t, fetched); view.DefeatedCount != 1 {
		t.Fatalf("expected 1 defeat, got %+v", view)
	}
}

func TestErrorMapping(t *testing.T) {
	server, actorStore := newTestServer(t)
	hero := putHero(t, actorStore, 1)

	missing := doJSON(t, server, http.MethodGet, "/v1/waves/missing", nil)
	if missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing wave, got %d", missing.Code)
	}
	var errBody errorResponse
	if err := json.NewDecoder(missing.Body).Decode(&errBody); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errBody.Code != "WAVE_NOT_FOUND" {
		t.Fatalf("expected WAVE_NOT_FOUND, got %s", errBody.Code)
	}

	badDifficulty := doJSON(t, server, http.MethodPost, "/v1/waves", createWaveRequest{
		RegionKey:     "eldin",
		Count:         2,
		DifficultyKey: "nightmare",
	})
	if badDifficulty.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown difficulty, got %d", badDifficulty.Code)
	}

	created := doJSON(t, server, http.MethodPost, "/v1/waves", createWaveRequest{
		RegionKey:     "eldin",
		Count:         2,
		DifficultyKey: "test",
	})
	wave := decodeWave(t, created)
	if code := doJSON(t, server, http.MethodPost, "/v1/waves/"+wave.ID+"/join", joinWaveRequest{ActorID: hero.ID}).Code; code != http.StatusOK {
		t.Fatalf("join status %d", code)
	}
	dup := doJSON(t, server, http.MethodPost, "/v1/waves/"+wave.ID+"/join", joinWaveRequest{ActorID: hero.ID})
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate join, got %d", dup.Code)
	}

	malformed := httptest.NewRequest(http.MethodPost, "/v1/waves", strings.NewReader("{not json"))
	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, malformed)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", recorder.Code)
	}
}

func TestHealthz(t *testing.T) {
	server, _ := newTestServer(t)
	recorder := doJSON(t, server, http.MethodGet, "/healthz", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
}

func TestWebsocketReceivesEvents(t *testing.T) {
	server, actorStore := newTestServer(t)
	putHero(t, actorStore, 1)

	httpServer := httptest.NewServer(server)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, httpServer.URL+"/ws", nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Give the hub a beat to register the subscriber before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for server.hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	created := doJSON(t, server, http.MethodPost, "/v1/waves", createWaveRequest{
		RegionKey:     "eldin",
		Count:         1,
		DifficultyKey: "test",
	})
	if created.Code != http.StatusCreated {
		t.Fatalf("create status %d", created.Code)
	}

	_, payload, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read event frame: %v", err)
	}
	var evt event.Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if evt.Type != event.TypeWaveCreated {
		t.Fatalf("expected wave.created, got %s", evt.Type)
	}
	if evt.WaveID == "" {
		t.Fatal("expected wave id on event")
	}
}
