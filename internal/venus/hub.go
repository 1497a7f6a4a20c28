package venus

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Transport publishes outbound payloads. The MQTT client satisfies it;
// tests use an in-memory fake.
type Transport interface {
	Publish(topic string, payload []byte) error
}

// ChangeEvent is delivered after a decoded update has been committed.
type ChangeEvent struct {
	Device   DeviceIdentity
	MetricID string
	ShortID  string
	Old      TypedValue
	New      TypedValue
	Seq      uint64
	// First is true when this update created the metric.
	First bool
}

// ErrorEvent is delivered for soft failures: payloads that matched a
// descriptor but could not be decoded, and descriptor table defects
// detected at runtime. Fatal marks configuration defects.
type ErrorEvent struct {
	Topic    string
	Device   DeviceIdentity
	MetricID string
	Err      error
	Fatal    bool
}

type ChangeListener func(ChangeEvent)
type ErrorListener func(ErrorEvent)

// Hub owns the device graph and turns raw broker traffic into typed
// metric updates. Inbound flow: match, identify device, decode, commit,
// notify. Outbound flow (SetValue): validate, encode, publish; the
// local value is never touched, the authoritative update comes back on
// the notification topic.
type Hub struct {
	registry  *Registry
	transport Transport
	readOnly  bool
	log       *zap.Logger

	mu          sync.RWMutex
	devices     map[DeviceIdentity]*Device
	metricsByID map[string]*Metric

	listMu   sync.RWMutex
	onChange []ChangeListener
	onError  []ErrorListener

	handled atomic.Uint64
	ignored atomic.Uint64
}

func NewHub(registry *Registry, transport Transport, readOnly bool, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		registry:    registry,
		transport:   transport,
		readOnly:    readOnly,
		log:         logger.With(zap.String("component", "hub")),
		devices:     make(map[DeviceIdentity]*Device),
		metricsByID: make(map[string]*Metric),
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

func (h *Hub) OnChange(fn ChangeListener) {
	h.listMu.Lock()
	h.onChange = append(h.onChange, fn)
	h.listMu.Unlock()
}

func (h *Hub) OnError(fn ErrorListener) {
	h.listMu.Lock()
	h.onError = append(h.onError, fn)
	h.listMu.Unlock()
}

// HandledCount is the number of messages that matched a descriptor.
func (h *Hub) HandledCount() uint64 { return h.handled.Load() }

// IgnoredCount is the number of messages no descriptor matched.
func (h *Hub) IgnoredCount() uint64 { return h.ignored.Load() }

// HandleMessage dispatches one inbound broker message. Unmatched topics
// are counted and dropped. Safe for concurrent use.
func (h *Hub) HandleMessage(topic string, payload []byte) {
	match := h.registry.Match(topic)
	if match == nil {
		h.ignored.Add(1)
		return
	}
	h.handled.Add(1)

	identity, ok := identityFromSegments(match.Segments)
	if !ok {
		h.emitError(ErrorEvent{Topic: topic, Err: errors.New("topic too short for device identity")})
		return
	}
	desc := match.Descriptor()
	device := h.deviceFor(identity)

	shortID := Substitute(desc.ShortID, match.Bindings)
	name := Substitute(desc.Name, match.Bindings)

	if desc.Kind == KindAttribute {
		h.handleAttribute(device, desc, topic, shortID, payload)
		return
	}

	metric, err := device.metricFor(shortID, name, desc, topic)
	if err != nil {
		h.log.Error("descriptor table defect", zap.String("topic", topic), zap.Error(err))
		h.emitError(ErrorEvent{Topic: topic, Device: identity, Err: err, Fatal: true})
		return
	}
	h.indexMetric(metric)

	raw := string(payload)
	decoded, err := Decode(desc, payload)
	if err != nil {
		metric.rememberRaw(raw)
		h.emitError(ErrorEvent{Topic: topic, Device: identity, MetricID: metric.ID(), Err: err})
		return
	}

	old, seq := metric.commit(decoded, raw)
	h.emitChange(ChangeEvent{
		Device:   identity,
		MetricID: metric.ID(),
		ShortID:  shortID,
		Old:      old,
		New:      decoded,
		Seq:      seq,
		First:    seq == 1,
	})
}

func (h *Hub) handleAttribute(device *Device, desc *TopicDescriptor, topic, shortID string, payload []byte) {
	decoded, err := Decode(desc, payload)
	if err != nil {
		h.emitError(ErrorEvent{Topic: topic, Device: device.Identity(), Err: err})
		return
	}
	if !device.setAttribute(shortID, decoded.String()) {
		h.log.Warn("unknown attribute short id", zap.String("short_id", shortID), zap.String("topic", topic))
	}
}

// SetValue publishes a write for a metric. It validates locally but
// never mutates local state; the device echoes the accepted value back
// through the notification topic.
func (h *Hub) SetValue(metricID string, value any) error {
	if h.readOnly {
		return ErrReadOnly
	}
	metric := h.MetricByID(metricID)
	if metric == nil {
		return ErrMetricNotFound
	}
	if !metric.Writable() {
		return ErrNotWritable
	}
	payload, err := Encode(metric.Descriptor(), value)
	if err != nil {
		return err
	}
	writeTopic := writeTopicFor(metric.Topic(), metric.Descriptor())
	if err := h.transport.Publish(writeTopic, payload); err != nil {
		return err
	}
	h.log.Debug("published write", zap.String("topic", writeTopic), zap.String("metric", metricID))
	return nil
}

func writeTopicFor(topic string, desc *TopicDescriptor) string {
	segments := strings.Split(topic, "/")
	segments[0] = desc.writeMarker()
	return strings.Join(segments, "/")
}

// Device returns the device for an identity, or nil.
func (h *Hub) Device(identity DeviceIdentity) *Device {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.devices[identity]
}

// Devices returns a snapshot sorted by identity.
func (h *Hub) Devices() []*Device {
	h.mu.RLock()
	out := make([]*Device, 0, len(h.devices))
	for _, d := range h.devices {
		out = append(out, d)
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity().String() < out[j].Identity().String()
	})
	return out
}

// MetricByID resolves a metric by its hub-wide id, or nil.
func (h *Hub) MetricByID(id string) *Metric {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.metricsByID[id]
}

func (h *Hub) deviceFor(identity DeviceIdentity) *Device {
	h.mu.RLock()
	d := h.devices[identity]
	h.mu.RUnlock()
	if d != nil {
		return d
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if d = h.devices[identity]; d != nil {
		return d
	}
	d = newDevice(identity)
	h.devices[identity] = d
	h.log.Info("new device", zap.String("device", identity.String()))
	return d
}

func (h *Hub) indexMetric(m *Metric) {
	h.mu.RLock()
	_, ok := h.metricsByID[m.ID()]
	h.mu.RUnlock()
	if ok {
		return
	}
	h.mu.Lock()
	h.metricsByID[m.ID()] = m
	h.mu.Unlock()
}

func (h *Hub) emitChange(ev ChangeEvent) {
	h.listMu.RLock()
	listeners := h.onChange
	h.listMu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

func (h *Hub) emitError(ev ErrorEvent) {
	h.listMu.RLock()
	listeners := h.onError
	h.listMu.RUnlock()
	for _, fn := range listeners {
		fn(ev)
	}
}
