package server

import (
	"errors"
	"net/http"
	"time"

	"venusmqtt/internal/actor"
	"venusmqtt/internal/venus"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/devices", s.ListDevicesHandler)
	e.GET("/devices/:installation/:category/:instance", s.GetDeviceHandler)
	e.GET("/metrics/:id", s.GetMetricHandler)
	e.POST("/metrics/:id/set", s.SetMetricHandler)

	return e
}

type deviceJSON struct {
	UniqueID        string       `json:"unique_id"`
	InstallationID  string       `json:"installation_id"`
	Category        string       `json:"category"`
	DeviceID        string       `json:"device_id"`
	Name            string       `json:"name"`
	Model           string       `json:"model,omitempty"`
	SerialNumber    string       `json:"serial_number,omitempty"`
	FirmwareVersion string       `json:"firmware_version,omitempty"`
	Metrics         []metricJSON `json:"metrics"`
}

type metricJSON struct {
	ID       string `json:"id"`
	ShortID  string `json:"short_id"`
	Name     string `json:"name"`
	Unit     string `json:"unit,omitempty"`
	Kind     string `json:"kind"`
	Writable bool   `json:"writable"`
	Value    any    `json:"value"`
	Seq      uint64 `json:"seq"`
	Topic    string `json:"topic"`
}

type statusJSON struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Devices int    `json:"devices"`
	Handled uint64 `json:"handled_messages"`
	Ignored uint64 `json:"ignored_messages"`
}

type setValueRequest struct {
	Value any `json:"value"`
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, actor.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	response, ok := res.(actor.ActorHealthResponse)
	if !ok || !response.Healthy {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	return c.JSON(http.StatusOK, statusJSON{
		Status:  "ok",
		Version: versioninfo.Short(),
		Devices: len(s.hub.Devices()),
		Handled: s.hub.HandledCount(),
		Ignored: s.hub.IgnoredCount(),
	})
}

func (s *Server) ListDevicesHandler(c echo.Context) error {
	devices := s.hub.Devices()
	out := make([]deviceJSON, 0, len(devices))
	for _, d := range devices {
		out = append(out, deviceToJSON(d))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) GetDeviceHandler(c echo.Context) error {
	identity := venus.DeviceIdentity{
		InstallationID: c.Param("installation"),
		Category:       c.Param("category"),
		DeviceID:       c.Param("instance"),
	}
	device := s.hub.Device(identity)
	if device == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "device not found"})
	}
	return c.JSON(http.StatusOK, deviceToJSON(device))
}

func (s *Server) GetMetricHandler(c echo.Context) error {
	metric := s.hub.MetricByID(c.Param("id"))
	if metric == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "metric not found"})
	}
	return c.JSON(http.StatusOK, metricToJSON(metric))
}

func (s *Server) SetMetricHandler(c echo.Context) error {
	var req setValueRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid body"})
	}
	err := s.hub.SetValue(c.Param("id"), req.Value)
	switch {
	case err == nil:
		return c.JSON(http.StatusAccepted, map[string]string{"status": "published"})
	case errors.Is(err, venus.ErrMetricNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, venus.ErrReadOnly), errors.Is(err, venus.ErrNotWritable):
		return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
	default:
		var rangeErr *venus.RangeError
		if errors.As(err, &rangeErr) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func deviceToJSON(d *venus.Device) deviceJSON {
	identity := d.Identity()
	metrics := d.Metrics()
	out := deviceJSON{
		UniqueID:        d.UniqueID(),
		InstallationID:  identity.InstallationID,
		Category:        identity.Category,
		DeviceID:        identity.DeviceID,
		Name:            d.Name(),
		Model:           d.Model(),
		SerialNumber:    d.SerialNumber(),
		FirmwareVersion: d.FirmwareVersion(),
		Metrics:         make([]metricJSON, 0, len(metrics)),
	}
	for _, m := range metrics {
		out.Metrics = append(out.Metrics, metricToJSON(m))
	}
	return out
}

func metricToJSON(m *venus.Metric) metricJSON {
	value, seq := m.Value()
	return metricJSON{
		ID:       m.ID(),
		ShortID:  m.ShortID(),
		Name:     m.Name(),
		Unit:     m.Descriptor().Unit,
		Kind:     string(m.Descriptor().Kind),
		Writable: m.Writable(),
		Value:    value.Value(),
		Seq:      seq,
		Topic:    m.Topic(),
	}
}
