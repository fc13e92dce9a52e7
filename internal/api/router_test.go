package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/remember-me/care-monitor/internal/api"
	"github.com/remember-me/care-monitor/internal/auth"
	"github.com/remember-me/care-monitor/internal/logstore"
	"github.com/remember-me/care-monitor/internal/models"
	"github.com/remember-me/care-monitor/internal/monitoring"
	"github.com/remember-me/care-monitor/internal/services"
	"github.com/remember-me/care-monitor/internal/websocket"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	store *logstore.Store
	hub   *websocket.Hub
}

func newTestServer(t *testing.T, opts api.Options) *testServer {
	t.Helper()
	store, err := logstore.Open(filepath.Join(t.TempDir(), "patient_log.txt"))
	require.NoError(t, err)

	hub := websocket.NewHub()
	hub.Route(services.CareEventTopic, services.CareEventChannels...)
	go hub.Run()
	t.Cleanup(hub.Stop)

	eventService := services.NewCareEventService(store, hub)
	health := monitoring.NewHealthChecker(store, hub)
	ts := httptest.NewServer(api.NewRouter(hub, eventService, health, opts))
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store, hub: hub}
}

func doReq(t *testing.T, baseURL, method, path string, body interface{}, headers map[string]string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func getRecords(t *testing.T, baseURL string) []models.LogRecord {
	t.Helper()
	st, body := doReq(t, baseURL, http.MethodGet, "/events", nil, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	var records []models.LogRecord
	require.NoError(t, json.Unmarshal(body, &records))
	return records
}

func TestHTTP_PostEventThenListShowsItLast(t *testing.T) {
	ts := newTestServer(t, api.Options{})

	st, body := doReq(t, ts.URL, http.MethodPost, "/events", map[string]interface{}{
		"subjectId": 1, "routineType": "medication", "status": "completed", "timestamp": "2024-01-01T08:00:00",
	}, nil)
	require.Equal(t, http.StatusOK, st, string(body))
	require.JSONEq(t, `{"status":"success","message":"Data logged successfully"}`, string(body))

	st, _ = doReq(t, ts.URL, http.MethodPost, "/events", map[string]interface{}{
		"subjectId": "2", "routineType": "exercise", "status": "missed",
	}, nil)
	require.Equal(t, http.StatusOK, st)

	records := getRecords(t, ts.URL)
	require.Len(t, records, 2)
	require.Equal(t, models.LogRecord{Receiver: "1", Time: "2024-01-01T08:00:00", Status: "medication: completed"}, records[0])
	require.Equal(t, "2", records[1].Receiver)
	require.Equal(t, "exercise: missed", records[1].Status)
	_, err := time.Parse(time.RFC3339, records[1].Time)
	require.NoError(t, err)
}

func TestHTTP_PostEventAcceptsLegacyKeys(t *testing.T) {
	ts := newTestServer(t, api.Options{})

	st, body := doReq(t, ts.URL, http.MethodPost, "/events", `{"patient_id": 3, "routine_type": "MEAL", "status": "COMPLETED"}`, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	records := getRecords(t, ts.URL)
	require.Len(t, records, 1)
	require.Equal(t, "MEAL: COMPLETED", records[0].Status)
}

func TestHTTP_PostEventTimestampWithCommaReadsBack(t *testing.T) {
	ts := newTestServer(t, api.Options{})

	st, body := doReq(t, ts.URL, http.MethodPost, "/events",
		`{"subjectId": 1, "routineType": "meal", "status": "done", "timestamp": "Mon, 01 Jan 2024 08:00:00"}`, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	records := getRecords(t, ts.URL)
	require.Equal(t, []models.LogRecord{{Receiver: "1", Time: "Mon,01 Jan 2024 08:00:00", Status: "meal: done"}}, records)
}

func TestHTTP_PostEventFailuresReturn500(t *testing.T) {
	ts := newTestServer(t, api.Options{})

	for _, body := range []string{
		`not json`,
		`{"subjectId": "abc", "routineType": "meal", "status": "done"}`,
		`{"routineType": "meal", "status": "done"}`,
		`{"subjectId": 1, "routineType": " ", "status": "done"}`,
	} {
		st, resp := doReq(t, ts.URL, http.MethodPost, "/events", body, nil)
		require.Equal(t, http.StatusInternalServerError, st, body)
		var ack map[string]string
		require.NoError(t, json.Unmarshal(resp, &ack))
		require.Equal(t, "error", ack["status"])
		require.NotEmpty(t, ack["message"])
	}
	require.Empty(t, getRecords(t, ts.URL))
}

func TestHTTP_ListSkipsGarbageLines(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	require.NoError(t, ts.store.Append("A", "t1", "done"))
	f, err := os.OpenFile(ts.store.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("garbage\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	records := getRecords(t, ts.URL)
	require.Equal(t, []models.LogRecord{{Receiver: "A", Time: "t1", Status: "done"}}, records)
}

func TestHTTP_Summary(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	require.NoError(t, ts.store.Append("A", "t1", "x"))
	require.NoError(t, ts.store.Append("A", "t2", "x"))
	require.NoError(t, ts.store.Append("B", "t3", "x"))

	st, body := doReq(t, ts.URL, http.MethodPost, "/summary", `{"todos": {"B": 1, "A": 3, "C": 1}}`, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var resp struct {
		Summary []string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, []string{
		"B: completed 1/1, all good",
		"A: required 3, completed 2, missed 1",
		"C: required 1, completed 0, missed 1",
	}, resp.Summary)
}

func TestHTTP_SummaryRepeatedAndFloatCounts(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	require.NoError(t, ts.store.Append("A", "t1", "x"))

	st, body := doReq(t, ts.URL, http.MethodPost, "/summary", `{"todos": {"A": 1, "B": 2.0, "A": 3}}`, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var resp struct {
		Summary []string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Equal(t, []string{
		"A: required 3, completed 1, missed 2",
		"B: required 2, completed 0, missed 2",
	}, resp.Summary)
}

func TestHTTP_SummaryRejectsBadBody(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	st, _ := doReq(t, ts.URL, http.MethodPost, "/summary", `{"todos": ["A"]}`, nil)
	require.Equal(t, http.StatusBadRequest, st)
}

func TestHTTP_BannerAndMockPayloads(t *testing.T) {
	ts := newTestServer(t, api.Options{WebsocketURL: "ws://localhost:5001/ws"})

	st, body := doReq(t, ts.URL, http.MethodGet, "/", nil, nil)
	require.Equal(t, http.StatusOK, st)
	var banner map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &banner))
	require.Equal(t, "running", banner["status"])
	require.Equal(t, "ws://localhost:5001/ws", banner["websocket"])

	st, body = doReq(t, ts.URL, http.MethodGet, "/patients", nil, nil)
	require.Equal(t, http.StatusOK, st)
	var patients []models.Patient
	require.NoError(t, json.Unmarshal(body, &patients))
	require.Len(t, patients, 3)

	st, body = doReq(t, ts.URL, http.MethodGet, "/care-events", nil, nil)
	require.Equal(t, http.StatusOK, st)
	var feed []models.CareEventSummary
	require.NoError(t, json.Unmarshal(body, &feed))
	require.Len(t, feed, 2)
}

func TestHTTP_Health(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	st, body := doReq(t, ts.URL, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, st, string(body))

	var health monitoring.Health
	require.NoError(t, json.Unmarshal(body, &health))
	require.Equal(t, "ok", health.Status)
}

func TestHTTP_DeviceTokenRequiredWhenConfigured(t *testing.T) {
	ts := newTestServer(t, api.Options{DeviceTokenSecret: "secret"})
	event := map[string]interface{}{"subjectId": 1, "routineType": "meal", "status": "completed"}

	st, _ := doReq(t, ts.URL, http.MethodPost, "/events", event, nil)
	require.Equal(t, http.StatusUnauthorized, st)

	token, err := auth.GenerateDeviceToken("secret", "dev", time.Minute)
	require.NoError(t, err)
	st, body := doReq(t, ts.URL, http.MethodPost, "/events", event, map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, st, string(body))

	// Reads stay open.
	require.Len(t, getRecords(t, ts.URL), 1)
}

func TestHTTP_ConcurrentPostsKeepLinesIntact(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	const n = 40
	status := strings.Repeat("s", 300)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, _ := json.Marshal(map[string]interface{}{"subjectId": i, "routineType": "meal", "status": status})
			resp, err := http.Post(ts.URL+"/events", "application/json", bytes.NewReader(data))
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("subject %d: status %d", i, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	records := getRecords(t, ts.URL)
	require.Len(t, records, n)
	seen := map[string]bool{}
	for _, r := range records {
		require.Equal(t, "meal: "+status, r.Status)
		seen[r.Receiver] = true
	}
	require.Len(t, seen, n)
}

func dialWS(t *testing.T, ts *testServer) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *gorilla.Conn) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWS_WelcomeBroadcastAndTelemetry(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	conn := dialWS(t, ts)

	welcome := readFrame(t, conn)
	require.Equal(t, "welcome", welcome.Event)
	require.Equal(t, map[string]interface{}{"message": "Connected to Remember Me backend"}, welcome.Payload)

	st, _ := doReq(t, ts.URL, http.MethodPost, "/events", map[string]interface{}{
		"subjectId": 5, "routineType": "social", "status": "completed", "timestamp": "2024-02-02T10:00:00",
	}, nil)
	require.Equal(t, http.StatusOK, st)

	want := map[string]interface{}{
		"type":        "arduino_data",
		"subjectId":   float64(5),
		"routineType": "social",
		"status":      "completed",
		"timestamp":   "2024-02-02T10:00:00",
	}
	first, second := readFrame(t, conn), readFrame(t, conn)
	require.Equal(t, "arduino_data", first.Event)
	require.Equal(t, "data_update", second.Event)
	require.Equal(t, want, first.Payload)
	require.Equal(t, want, second.Payload)

	require.NoError(t, conn.WriteJSON(websocket.Message{Event: "request_data"}))
	telemetry := readFrame(t, conn)
	require.Equal(t, "data_update", telemetry.Event)
	payload, ok := telemetry.Payload.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "telemetry", payload["type"])

	require.NoError(t, conn.WriteJSON(websocket.Message{Event: "bogus"}))
	require.Equal(t, "error", readFrame(t, conn).Event)
}

func TestWS_EveryListenerReceivesEvents(t *testing.T) {
	ts := newTestServer(t, api.Options{})
	conns := []*gorilla.Conn{dialWS(t, ts), dialWS(t, ts)}
	for _, c := range conns {
		require.Equal(t, "welcome", readFrame(t, c).Event)
	}
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	for i := 0; i < 3; i++ {
		st, _ := doReq(t, ts.URL, http.MethodPost, "/events", map[string]interface{}{
			"subjectId": i, "routineType": "meal", "status": fmt.Sprint("s", i),
		}, nil)
		require.Equal(t, http.StatusOK, st)
	}

	for _, c := range conns {
		for i := 0; i < 3; i++ {
			for _, name := range services.CareEventChannels {
				msg := readFrame(t, c)
				require.Equal(t, name, msg.Event)
				require.Equal(t, fmt.Sprint("s", i), msg.Payload.(map[string]interface{})["status"])
			}
		}
	}
}
