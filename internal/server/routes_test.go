package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"venusmqtt/internal/actor"
	"venusmqtt/internal/util"
	"venusmqtt/internal/venus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingTransport struct {
	topics   []string
	payloads []string
}

func (r *recordingTransport) Publish(topic string, payload []byte) error {
	r.topics = append(r.topics, topic)
	r.payloads = append(r.payloads, string(payload))
	return nil
}

func newTestServer(t *testing.T) (*Server, *recordingTransport, func()) {
	t.Helper()

	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	reg, err := venus.NewRegistry(venus.DefaultDescriptors())
	require.NoError(t, err)
	transport := &recordingTransport{}
	hub := venus.NewHub(reg, transport, cfg.ReadOnly, logger)

	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("87.56"))
	hub.HandleMessage("N/abc123/evcharger/170/SetCurrent", []byte("6"))

	as := pactor.NewActorSystem()
	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterActor(cfg, hub, func() *actor.MQTTActor {
			return actor.NewTestMQTTActor(&cfg, hub, logger)
		}, logger)
	})
	pid, err := as.Root.SpawnNamed(props, "master")
	require.NoError(t, err)

	srv := &Server{
		port:        cfg.Port,
		hub:         hub,
		rootContext: as.Root,
		masterActor: pid,
	}
	cleanup := func() {
		as.Root.Stop(pid)
		as.Shutdown()
	}
	return srv, transport, cleanup
}

func TestHealthCheckHandler(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, float64(2), status["devices"])
}

func TestListDevicesHandler(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var devices []deviceJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Len(t, devices, 2)
	assert.Equal(t, "battery", devices[0].Category)
	require.Len(t, devices[0].Metrics, 1)
	assert.Equal(t, "battery_soc", devices[0].Metrics[0].ShortID)
	assert.Equal(t, 87.6, devices[0].Metrics[0].Value)
}

func TestGetDeviceHandler(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/devices/abc123/battery/1", nil)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/devices/abc123/battery/99", nil)
	rec = httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMetricHandler(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/metrics/abc123_battery_1_battery_soc", nil)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var metric metricJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metric))
	assert.Equal(t, "battery_soc", metric.ShortID)
	assert.Equal(t, 87.6, metric.Value)
	assert.False(t, metric.Writable)
}

func TestSetMetricHandler(t *testing.T) {
	srv, transport, cleanup := newTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"value": 16}`)
	req := httptest.NewRequest(http.MethodPost, "/metrics/abc123_evcharger_170_evcharger_set_current/set", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, transport.topics, 1)
	assert.Equal(t, "W/abc123/evcharger/170/SetCurrent", transport.topics[0])
	assert.JSONEq(t, `{"value": 16}`, transport.payloads[0])
}

func TestSetMetricHandlerRejectsOutOfRange(t *testing.T) {
	srv, transport, cleanup := newTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"value": 40}`)
	req := httptest.NewRequest(http.MethodPost, "/metrics/abc123_evcharger_170_evcharger_set_current/set", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, transport.topics)
}

func TestSetMetricHandlerRejectsUnwritable(t *testing.T) {
	srv, _, cleanup := newTestServer(t)
	defer cleanup()

	body := strings.NewReader(`{"value": 50}`)
	req := httptest.NewRequest(http.MethodPost, "/metrics/abc123_battery_1_battery_soc/set", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	srv.RegisterRoutes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
