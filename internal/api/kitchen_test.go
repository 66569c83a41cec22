package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenrush/internal/config"
	"kitchenrush/internal/game"
	"kitchenrush/internal/models"
	"kitchenrush/internal/orders"
	"kitchenrush/internal/questions"
)

const testSecret = "test-secret"

type fakeHistory struct {
	records []models.SessionRecord
	limit   int
}

func (f *fakeHistory) ListSessions(userID string, limit int) ([]models.SessionRecord, error) {
	f.limit = limit
	var out []models.SessionRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHistory) Profile(userID string) (*models.UserProfile, error) {
	return &models.UserProfile{UserID: userID, Level: 1}, nil
}

func setupTestAPI(t *testing.T, auth config.AuthConfig, history History) *KitchenAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	layout := models.DefaultLayout()
	recipes, err := orders.DefaultRecipes()
	require.NoError(t, err)
	bank, err := questions.DefaultBank(1)
	require.NoError(t, err)

	cfg := config.DefaultGame()
	cfg.Seed = 1
	manager := game.NewManager(cfg, game.Deps{
		Layout:    layout,
		Recipes:   recipes,
		Questions: bank,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		manager.Shutdown(ctx)
	})

	return NewKitchenAPI(Options{
		Sessions:  manager,
		Layout:    layout,
		Questions: bank,
		History:   history,
		Auth:      auth,
	})
}

func doRequest(api *KitchenAPI, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.Router.ServeHTTP(w, req)
	return w
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func startSession(t *testing.T, api *KitchenAPI, token string) game.Snapshot {
	t.Helper()
	w := doRequest(api, http.MethodPost, "/api/v1/sessions", nil, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.SessionID)
	return snap
}

func TestHealth(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)

	w := doRequest(api, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["active_sessions"])

	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok, "health carries the session stats")
	assert.Contains(t, stats, "uptime_seconds")
	assert.Equal(t, []interface{}{}, stats["recent_sessions"])
}

func TestGetLayout(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)

	w := doRequest(api, http.MethodGet, "/api/v1/layout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Width    float64          `json:"width"`
		Stations []models.Station `json:"stations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, models.DefaultLayout().Width, body.Width)
	assert.Len(t, body.Stations, len(models.DefaultLayout().Stations))
}

func TestListQuestions(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)

	w := doRequest(api, http.MethodGet, "/api/v1/questions?station=fridge&count=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var views []models.QuestionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	assert.NotEmpty(t, views)
	assert.LessOrEqual(t, len(views), 2)
	assert.NotContains(t, w.Body.String(), "correct_choice_id")

	w = doRequest(api, http.MethodGet, "/api/v1/questions?station=sushi-bar", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)
	snap := startSession(t, api, "")
	base := "/api/v1/sessions/" + snap.SessionID

	assert.Equal(t, GuestUser, snap.UserID)
	assert.Equal(t, game.StatusActive, snap.Status)
	assert.Len(t, snap.Orders, 1)

	w := doRequest(api, http.MethodGet, base, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(api, http.MethodGet, base+"/stats", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(api, http.MethodPost, base+"/move", MoveRequest{StationID: "fridge"}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	x, y := 640.0, 520.0
	w = doRequest(api, http.MethodPost, base+"/move", MoveRequest{X: &x, Y: &y}, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(api, http.MethodPost, base+"/keys", KeysRequest{DX: 1}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(api, http.MethodDelete, base, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, snap.SessionID, report["session_id"])

	w = doRequest(api, http.MethodPost, base+"/keys", KeysRequest{}, "")
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestSessionErrors(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)
	snap := startSession(t, api, "")
	base := "/api/v1/sessions/" + snap.SessionID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"missing session", http.MethodGet, "/api/v1/sessions/nope", nil, http.StatusNotFound},
		{"unknown station", http.MethodPost, base + "/move", MoveRequest{StationID: "sushi-bar"}, http.StatusNotFound},
		{"empty move", http.MethodPost, base + "/move", map[string]string{}, http.StatusBadRequest},
		{"answer without choice", http.MethodPost, base + "/answer", map[string]string{}, http.StatusBadRequest},
		{"answer without question", http.MethodPost, base + "/answer", AnswerRequest{ChoiceID: "a"}, http.StatusConflict},
		{"no mechanic", http.MethodPost, base + "/mechanic/action", nil, http.StatusConflict},
		{"no mechanic to abandon", http.MethodPost, base + "/mechanic/abandon", nil, http.StatusConflict},
		{"no recipe", http.MethodPost, base + "/recipe/dismiss", nil, http.StatusConflict},
		{"nothing in range", http.MethodPost, base + "/interact", nil, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(api, tt.method, tt.path, tt.body, "")
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestAuthRequired(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{JWTSecret: testSecret, Required: true}, nil)

	w := doRequest(api, http.MethodGet, "/api/v1/layout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(api, http.MethodGet, "/api/v1/layout", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrong := signToken(t, "other-secret", jwt.MapClaims{"sub": "chef"})
	w = doRequest(api, http.MethodGet, "/api/v1/layout", nil, wrong)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	noSub := signToken(t, testSecret, jwt.MapClaims{"name": "chef"})
	w = doRequest(api, http.MethodGet, "/api/v1/layout", nil, noSub)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := signToken(t, testSecret, jwt.MapClaims{"sub": "chef"})
	snap := startSession(t, api, token)
	assert.Equal(t, "chef", snap.UserID)

	// health stays public
	w = doRequest(api, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionsAreScopedToTheirOwner(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{JWTSecret: testSecret}, nil)

	chef := signToken(t, testSecret, jwt.MapClaims{"sub": "chef"})
	rival := signToken(t, testSecret, jwt.MapClaims{"sub": "rival"})
	snap := startSession(t, api, chef)
	base := "/api/v1/sessions/" + snap.SessionID

	w := doRequest(api, http.MethodGet, base, nil, rival)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(api, http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(api, http.MethodGet, base, nil, chef)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	history := &fakeHistory{records: []models.SessionRecord{
		{SessionID: "s1", UserID: "chef", Score: 350},
		{SessionID: "s2", UserID: "rival", Score: 100},
	}}
	api := setupTestAPI(t, config.AuthConfig{JWTSecret: testSecret}, history)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "chef"})

	w := doRequest(api, http.MethodGet, "/api/v1/users/me/sessions?limit=5", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var records []models.SessionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "s1", records[0].SessionID)
	assert.Equal(t, 5, history.limit)

	w = doRequest(api, http.MethodGet, "/api/v1/users/me/sessions?limit=ten", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(api, http.MethodGet, "/api/v1/users/me/profile", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "chef", profile.UserID)
}

func TestHistoryNotConfigured(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)

	w := doRequest(api, http.MethodGet, "/api/v1/users/me/profile", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStreamSession(t *testing.T) {
	api := setupTestAPI(t, config.AuthConfig{}, nil)
	snap := startSession(t, api, "")

	server := httptest.NewServer(api.Router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/sessions/" + snap.SessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first wsMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, snap.SessionID, first.Snapshot.SessionID)

	require.NoError(t, conn.WriteJSON(wsCommand{Type: "flambe"}))

	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == "error" {
			assert.Contains(t, msg.Error, "unknown command")
			break
		}
	}

	require.NoError(t, conn.WriteJSON(wsCommand{Type: "move", StationID: "fridge"}))

	// ending the session pushes the final event and closes the stream
	w := doRequest(api, http.MethodDelete, "/api/v1/sessions/"+snap.SessionID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	sawEnd := false
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == "event" && msg.Event.Type == game.EventSessionEnded {
			sawEnd = true
		}
	}
	assert.True(t, sawEnd)
}
