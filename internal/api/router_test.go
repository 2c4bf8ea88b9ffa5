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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/Harshitk-cp/skybot/internal/config"
	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/flights"
	"github.com/Harshitk-cp/skybot/internal/nlu"
	"github.com/Harshitk-cp/skybot/internal/service"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	set, err := config.LoadFields("", 0.5, 3)
	require.NoError(t, err)

	ds, err := flights.NewDataset([]flights.Flight{
		{Price: "USD200.00", Origin: "LAX", Destination: "AMS", DepartureDate: "2016-12-09", NonStop: "yes", Carriers: []string{"KL"}},
		{Price: "USD450.00", Origin: "LAX", Destination: "AMS", DepartureDate: "2016-12-09", NonStop: "no", Carriers: []string{"KL"}},
	}, set.Fields)
	require.NoError(t, err)

	registry := service.NewRegistry(service.SessionConfig{
		Fields:    set.Fields,
		Minimal:   set.Minimal,
		Database:  ds,
		Extractor: nlu.NewKeywordExtractor(),
	}, time.Minute, zap.NewNop())
	return NewApp(registry, nil, zap.NewNop())
}

func do(t *testing.T, app *App, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	app.Router.ServeHTTP(rr, req)
	return rr
}

type sessionBody struct {
	ID     string         `json:"id"`
	Events []domain.Event `json:"events"`
}

func createSession(t *testing.T, app *App) sessionBody {
	t.Helper()
	rr := do(t, app, http.MethodPost, "/v1/sessions", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	var body sessionBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestHealthWithoutDatabase(t *testing.T) {
	app := newTestApp(t)
	rr := do(t, app, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"disabled"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestVersionAndMetrics(t *testing.T) {
	app := newTestApp(t)

	rr := do(t, app, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"version"`)

	createSession(t, app)
	rr = do(t, app, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats["active_sessions"])

	rr = do(t, app, http.MethodGet, "/metrics/prometheus", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "skybot_http_requests_total")
}

func TestSessionConversation(t *testing.T) {
	app := newTestApp(t)
	created := createSession(t, app)
	require.Len(t, created.Events, 2)
	assert.Equal(t, domain.EventGreeting, created.Events[0].Type)
	assert.Equal(t, domain.EventQuestion, created.Events[1].Type)

	base := "/v1/sessions/" + created.ID
	rr := do(t, app, http.MethodPost, base+"/messages", `{"query":"from LAX to AMS on 2016-12-09"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var step sessionBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &step))
	require.NotEmpty(t, step.Events)
	assert.Equal(t, domain.EventQuestion, step.Events[len(step.Events)-1].Type)

	rr = do(t, app, http.MethodGet, base+"/state", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var state service.SessionState
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &state))
	assert.Equal(t, 2, state.Possible)

	rr = do(t, app, http.MethodPost, base+"/feedback", `{"positive":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var acc domain.Event
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &acc))
	require.NotNil(t, acc.Accuracy)
	assert.InDelta(t, 1.0, *acc.Accuracy, 1e-9)

	rr = do(t, app, http.MethodGet, base+"/turns", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"kind":"answer"`)

	rr = do(t, app, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(t, app, http.MethodGet, base+"/state", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestSessionErrors(t *testing.T) {
	app := newTestApp(t)
	created := createSession(t, app)
	base := "/v1/sessions/" + created.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"invalid id", http.MethodGet, "/v1/sessions/not-a-uuid/state", "", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/v1/sessions/6f1c1b0e-8d7e-4c1a-9a55-0d7a3a5b2f10/state", "", http.StatusNotFound},
		{"bad message body", http.MethodPost, base + "/messages", "{", http.StatusBadRequest},
		{"missing positive", http.MethodPost, base + "/feedback", `{}`, http.StatusBadRequest},
		{"delete unknown", http.MethodDelete, "/v1/sessions/6f1c1b0e-8d7e-4c1a-9a55-0d7a3a5b2f10", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, app, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), `"error"`)
		})
	}
}

func TestWebSocketChat(t *testing.T) {
	app := newTestApp(t)
	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	read := func() domain.Event {
		var ev domain.Event
		require.NoError(t, wsjson.Read(ctx, conn, &ev))
		return ev
	}

	assert.Equal(t, domain.EventGreeting, read().Type)
	assert.Equal(t, domain.EventQuestion, read().Type)
	assert.Equal(t, 1, app.Sessions.Len())

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": "message", "query": "AMS"}))
	var types []domain.EventType
	for {
		ev := read()
		types = append(types, ev.Type)
		if ev.Type == domain.EventQuestion {
			break
		}
	}
	assert.Equal(t, []domain.EventType{domain.EventProgress, domain.EventFeedback, domain.EventState, domain.EventQuestion}, types)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": "stateUpdateFeedback", "positive": false}))
	ev := read()
	assert.Equal(t, domain.EventAccuracy, ev.Type)
	require.NotNil(t, ev.Accuracy)
	assert.InDelta(t, 0.0, *ev.Accuracy, 1e-9)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{"type": "bogus"}))
	assert.Equal(t, domain.EventError, read().Type)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Eventually(t, func() bool { return app.Sessions.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
