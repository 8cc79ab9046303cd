package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"card-psycho/internal/backend"
	"card-psycho/internal/service"
)

func setupBattleRouter(client backend.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	analyzer := service.NewAnalyzeService(client, 1<<20, zap.NewNop())
	battles := service.NewBattleService(service.NewMemoryBattleSessionStore(), time.Minute, zap.NewNop())
	h := NewBattleHandler(zap.NewNop(), analyzer, battles)
	r.POST("/battle", h.Start)
	r.GET("/battle/:id", h.Get)
	r.POST("/battle/duel", h.Duel)
	r.POST("/battle/:id/challenger", h.SubmitChallenger)
	r.POST("/battle/:id/contender", h.SubmitContender)
	r.POST("/battle/:id/resolve", h.Resolve)
	return r
}

func startBattle(t *testing.T, r http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/battle", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Session struct {
			ID    string `json:"id"`
			Phase string `json:"phase"`
		} `json:"session"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Session.ID == "" || resp.Session.Phase != "awaiting_challenger" {
		t.Fatalf("unexpected initial session: %+v", resp.Session)
	}
	return resp.Session.ID
}

func TestBattleHandlerFullFlow(t *testing.T) {
	// Cada subida analiza con el backend; el veredicto se computa localmente
	// al resolver, con los scores en orden de llegada.
	mock := &backend.MockClient{}
	r := setupBattleRouter(mock)

	id := startBattle(t, r)

	mock.AnalyzeResponse = []byte(`{"psycho_score": 9.2}`)
	rec := performUpload(r, "/battle/"+id+"/challenger", map[string][]byte{"file": pngBytes}, t)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	mock.AnalyzeResponse = []byte(`{"psycho_score": 6.5}`)
	rec = performUpload(r, "/battle/"+id+"/contender", map[string][]byte{"file": pngBytes}, t)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/battle/"+id+"/resolve", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Session struct {
			Phase string `json:"phase"`
		} `json:"session"`
		Destination struct {
			Screen string `json:"screen"`
			Battle struct {
				Tie  bool `json:"tie"`
				Self struct {
					PsychoScore float64 `json:"psycho_score"`
				} `json:"self"`
			} `json:"battle"`
		} `json:"destination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Session.Phase != "resolved" {
		t.Fatalf("expected resolved phase, got %q", resp.Session.Phase)
	}
	if resp.Destination.Screen != "victory" || resp.Destination.Battle.Tie {
		t.Fatalf("expected clean victory, got %+v", resp.Destination)
	}
	if resp.Destination.Battle.Self.PsychoScore != 9.2 {
		t.Fatalf("unexpected challenger score: %v", resp.Destination.Battle.Self.PsychoScore)
	}
	if mock.AnalyzeCalls != 2 {
		t.Fatalf("expected two analyses, got %d", mock.AnalyzeCalls)
	}
}

func TestBattleHandlerContenderBeforeChallenger(t *testing.T) {
	mock := &backend.MockClient{AnalyzeResponse: []byte(`{"psycho_score": 5}`)}
	r := setupBattleRouter(mock)

	id := startBattle(t, r)
	rec := performUpload(r, "/battle/"+id+"/contender", map[string][]byte{"file": pngBytes}, t)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBattleHandlerResolveNotReady(t *testing.T) {
	r := setupBattleRouter(&backend.MockClient{})

	id := startBattle(t, r)
	req := httptest.NewRequest(http.MethodPost, "/battle/"+id+"/resolve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestBattleHandlerUnknownSession(t *testing.T) {
	r := setupBattleRouter(&backend.MockClient{})

	req := httptest.NewRequest(http.MethodGet, "/battle/nope", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}

func TestBattleHandlerResolveIsTerminal(t *testing.T) {
	mock := &backend.MockClient{AnalyzeResponse: []byte(`{"psycho_score": 7}`)}
	r := setupBattleRouter(mock)

	id := startBattle(t, r)
	if rec := performUpload(r, "/battle/"+id+"/challenger", map[string][]byte{"file": pngBytes}, t); rec.Code != http.StatusOK {
		t.Fatalf("challenger upload failed: %d", rec.Code)
	}
	if rec := performUpload(r, "/battle/"+id+"/contender", map[string][]byte{"file": pngBytes}, t); rec.Code != http.StatusOK {
		t.Fatalf("contender upload failed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/battle/"+id+"/resolve", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve failed: %d: %s", rec.Code, rec.Body.String())
	}

	// Segundo resolve y nuevas subidas rebotan: la sesion quedo terminal.
	req = httptest.NewRequest(http.MethodPost, "/battle/"+id+"/resolve", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 on second resolve, got %d", rec.Code)
	}
	if rec := performUpload(r, "/battle/"+id+"/challenger", map[string][]byte{"file": pngBytes}, t); rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409 after resolve, got %d", rec.Code)
	}
}

func TestBattleHandlerDuel(t *testing.T) {
	mock := &backend.MockClient{
		BattleResponse: []byte(`{
			"battle_result": {"winner": "original", "announcement": "No contest."},
			"scores": {"original_score": 3.1, "contender_score": 8.4}
		}`),
	}
	r := setupBattleRouter(mock)

	rec := performUpload(r, "/battle/duel", map[string][]byte{
		"original":  pngBytes,
		"contender": pngBytes,
	}, t)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Destination struct {
			Screen string `json:"screen"`
		} `json:"destination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// El score normalizado manda sobre el winner textual del backend.
	if resp.Destination.Screen != "defeat" {
		t.Fatalf("expected defeat from scores, got %q", resp.Destination.Screen)
	}
	if mock.BattleCalls != 1 {
		t.Fatalf("expected one battle request, got %d", mock.BattleCalls)
	}
}

func TestBattleHandlerDuelMissingPart(t *testing.T) {
	r := setupBattleRouter(&backend.MockClient{})

	rec := performUpload(r, "/battle/duel", map[string][]byte{"original": pngBytes}, t)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}
