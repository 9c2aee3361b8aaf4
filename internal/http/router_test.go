package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/MohnishKJ/HelpWave/internal/config"
	"github.com/MohnishKJ/HelpWave/internal/domain"
	"github.com/MohnishKJ/HelpWave/internal/registry"
	"github.com/MohnishKJ/HelpWave/internal/ws"
)

// --- test DB helper (pure-Go sqlite, no CGO) ---
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	// schema so handlers don't explode on list endpoints
	if err := db.AutoMigrate(&domain.Room{}, &domain.HelpItem{}, &domain.Reply{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestRouter wires a full engine with the given config.
func newTestRouter(t *testing.T, cfg config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	hub := ws.NewHub()
	reg := registry.New(hub)
	RegisterRoutes(r, newTestDB(t), hub, reg, cfg)
	return r
}

func baseConfig() config.Config {
	return config.Config{
		APIBasePath:  "/",
		RateRPS:      100,
		RateBurst:    50,
		WSSendBuffer: 16,
		CORS:         config.CORSConfig{AllowedOrigins: nil}, // triggers AllowAllOrigins branch
		Security:     config.SecurityConfig{EnableHSTS: false, HSTSMaxAge: 0},
		OTEL:         config.OTELConfig{ServiceName: "test-svc"},
	}
}

func TestRegisterRoutes_CORSAllowAll_Health_Metrics_Fallbacks(t *testing.T) {
	r := newTestRouter(t, baseConfig())

	// /health works
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	// CORS (AllowAllOrigins) → header "*"
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("AllowAllOrigins expected '*', got %q", got)
	}

	// /metrics is wired
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || len(w.Body.Bytes()) == 0 {
		t.Fatalf("GET /metrics bad: code=%d len=%d", w.Code, w.Body.Len())
	}

	// NoRoute → 404
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/nope", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET /nope expected 404, got %d", w.Code)
	}

	// NoMethod → 405 (PUT /health)
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPut, "/health", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("PUT /health expected 405, got %d", w.Code)
	}
}

func TestRegisterRoutes_CORSWithOrigins_HeaderEcho(t *testing.T) {
	cfg := baseConfig()
	cfg.CORS = config.CORSConfig{AllowedOrigins: []string{"http://example.com"}}
	r := newTestRouter(t, cfg)

	// Any request runs through CORS middleware; header should reflect origin.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /health = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://example.com" {
		t.Fatalf("expected ACAO echo, got %q", got)
	}
}

// postJSON drives a JSON POST through the engine and decodes the response.
func postJSON(t *testing.T, r *gin.Engine, path string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s response: %v (body=%s)", path, err, w.Body.String())
		}
	}
	return w
}

func TestRoomItemLifecycle_EndToEnd(t *testing.T) {
	r := newTestRouter(t, baseConfig())

	// Create a room.
	var room domain.Room
	if w := postJSON(t, r, "/create-room", gin.H{}, &room); w.Code != http.StatusCreated {
		t.Fatalf("POST /create-room = %d body=%s", w.Code, w.Body.String())
	}
	if len(room.Code) != 4 {
		t.Fatalf("unexpected room code %q", room.Code)
	}

	// Join it (lowercase code is normalized).
	var joined domain.Room
	if w := postJSON(t, r, "/join-room", gin.H{"code": room.Code}, &joined); w.Code != http.StatusOK {
		t.Fatalf("POST /join-room = %d body=%s", w.Code, w.Body.String())
	}

	// Post an item; blockers are stored as doubts.
	var item domain.HelpItem
	w := postJSON(t, r, "/items", gin.H{
		"room_code":  room.Code,
		"guest_name": "alice",
		"type":       "blocker",
		"title":      "index keeps rebuilding",
	}, &item)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /items = %d body=%s", w.Code, w.Body.String())
	}
	if item.Type != domain.TypeDoubt {
		t.Fatalf("expected blocker stored as doubt, got %q", item.Type)
	}

	// Reply to it.
	var reply domain.Reply
	w = postJSON(t, r, "/reply", gin.H{
		"item_id":    item.ID,
		"guest_name": "bob",
		"message":    "name the index explicitly",
	}, &reply)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /reply = %d body=%s", w.Code, w.Body.String())
	}

	// List room items: one item, reply nested.
	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/room-items/"+room.Code, nil)
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusOK {
		t.Fatalf("GET /room-items = %d body=%s", w2.Code, w2.Body.String())
	}
	var listing struct {
		Items []domain.HelpItem `json:"items"`
	}
	if err := json.Unmarshal(w2.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if len(listing.Items) != 1 || len(listing.Items[0].Replies) != 1 {
		t.Fatalf("unexpected listing: %s", w2.Body.String())
	}

	// Resolve; a second resolve is also a 204.
	if w := postJSON(t, r, "/resolve", gin.H{"item_id": item.ID}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("POST /resolve = %d body=%s", w.Code, w.Body.String())
	}
	if w := postJSON(t, r, "/resolve", gin.H{"item_id": item.ID}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("repeat POST /resolve = %d body=%s", w.Code, w.Body.String())
	}

	// Leaving announces the departure and returns 204.
	if w := postJSON(t, r, "/leave-room", gin.H{"room_code": room.Code, "guest_name": "alice"}, nil); w.Code != http.StatusNoContent {
		t.Fatalf("POST /leave-room = %d body=%s", w.Code, w.Body.String())
	}
}

func TestRoutes_ErrorEnvelopes(t *testing.T) {
	r := newTestRouter(t, baseConfig())

	// Unknown room code → 404 with stable error code.
	w := postJSON(t, r, "/join-room", gin.H{"code": "ZZZZ"}, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("POST /join-room = %d", w.Code)
	}
	var env map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env["code"] != "not_found" {
		t.Fatalf("unexpected envelope: %v", env)
	}
	if rid, ok := env["request_id"].(string); !ok || rid == "" {
		t.Fatalf("expected request_id in envelope: %v", env)
	}

	// Malformed JSON → 400.
	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewBufferString("{nope"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON expected 400, got %d", w2.Code)
	}

	// Unknown item on resolve → 404.
	if w := postJSON(t, r, "/resolve", gin.H{"item_id": "missing"}, nil); w.Code != http.StatusNotFound {
		t.Fatalf("POST /resolve = %d", w.Code)
	}
}

func Test_limitBody_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// tiny cap to trigger MaxBytesReader
	r.Use(limitBody(10))
	r.POST("/echo", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusRequestEntityTooLarge, "too big")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", bytes.NewBufferString("0123456789AB")) // 12 bytes
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from limitBody, got %d", w.Code)
	}
}

func Test_groupWithPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	// "/" and "" should mount at root
	root1 := groupWithPrefix(r, "/")
	root1.GET("/one", func(c *gin.Context) { c.String(http.StatusOK, "one") })
	root2 := groupWithPrefix(r, "")
	root2.GET("/two", func(c *gin.Context) { c.String(http.StatusOK, "two") })

	// non-root prefix
	api := groupWithPrefix(r, "/api")
	api.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	// Hit all three
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/one", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "one" {
		t.Fatalf("GET /one got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/two", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "two" {
		t.Fatalf("GET /two got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
		t.Fatalf("GET /api/ping got %d %q", rec.Code, rec.Body.String())
	}
}
