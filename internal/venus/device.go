package venus

import (
	"fmt"
	"sort"
	"sync"
)

// categoryAliases maps raw topic category codes to their canonical
// device category.
var categoryAliases = map[string]string{
	"platform": "system",
}

// settingsServices maps the service segment of settings topics to the
// device category that owns them.
var settingsServices = map[string]string{
	"CGwacs": "system",
}

// DeviceIdentity locates one device within an installation. It is
// extracted positionally from the topic: segment 1 is the installation
// id, segment 2 the category code, segment 3 the device instance.
type DeviceIdentity struct {
	InstallationID string
	Category       string
	DeviceID       string
}

func (d DeviceIdentity) String() string {
	return d.InstallationID + "/" + d.Category + "/" + d.DeviceID
}

// identityFromSegments resolves the device identity from matched topic
// segments, applying category aliases. Settings topics carry no device
// category of their own: the owning category is resolved from the
// service segment instead.
func identityFromSegments(segments []string) (DeviceIdentity, bool) {
	if len(segments) < 4 {
		return DeviceIdentity{}, false
	}
	category := segments[2]
	if category == "settings" {
		if len(segments) < 6 {
			return DeviceIdentity{}, false
		}
		category = segments[5]
	}
	if canonical, ok := categoryAliases[category]; ok {
		category = canonical
	} else if canonical, ok := settingsServices[category]; ok {
		category = canonical
	}
	return DeviceIdentity{
		InstallationID: segments[1],
		Category:       category,
		DeviceID:       segments[3],
	}, true
}

// Device is one physical or logical unit on the installation. Attribute
// topics fill the descriptive fields; everything else becomes metrics.
type Device struct {
	identity DeviceIdentity

	mu           sync.RWMutex
	model        string
	serialNumber string
	firmware     string
	customName   string
	metrics      map[string]*Metric
}

func newDevice(identity DeviceIdentity) *Device {
	return &Device{
		identity: identity,
		metrics:  make(map[string]*Metric),
	}
}

func (d *Device) Identity() DeviceIdentity { return d.identity }

// UniqueID is stable across restarts and safe as a map key or URL part.
func (d *Device) UniqueID() string {
	return fmt.Sprintf("%s_%s_%s", d.identity.InstallationID, d.identity.Category, d.identity.DeviceID)
}

func (d *Device) Model() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.model
}

func (d *Device) SerialNumber() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.serialNumber
}

func (d *Device) FirmwareVersion() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.firmware
}

func (d *Device) CustomName() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.customName
}

// Name is the best display name available: custom name, then model,
// then the category code.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.customName != "" {
		return d.customName
	}
	if d.model != "" {
		return d.model
	}
	return d.identity.Category
}

// attribute short ids understood by setAttribute.
const (
	attrModel        = "model"
	attrSerialNumber = "serial_number"
	attrFirmware     = "firmware_version"
	attrCustomName   = "custom_name"
)

func (d *Device) setAttribute(shortID, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch shortID {
	case attrModel:
		d.model = value
	case attrSerialNumber:
		d.serialNumber = value
	case attrFirmware:
		d.firmware = value
	case attrCustomName:
		d.customName = value
	default:
		return false
	}
	return true
}

func (d *Device) Metric(shortID string) *Metric {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metrics[shortID]
}

// Metrics returns a snapshot sorted by short id.
func (d *Device) Metrics() []*Metric {
	d.mu.RLock()
	out := make([]*Metric, 0, len(d.metrics))
	for _, m := range d.metrics {
		out = append(out, m)
	}
	d.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ShortID() < out[j].ShortID() })
	return out
}

// metricFor returns the existing metric for a short id or creates one.
// A hit from a different descriptor means two table entries collide on
// the same metric slot, which is a configuration defect.
func (d *Device) metricFor(shortID, name string, desc *TopicDescriptor, topic string) (*Metric, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.metrics[shortID]; ok {
		if m.descriptor != desc {
			return nil, &DuplicateShortIDError{Device: d.identity, ShortID: shortID}
		}
		return m, nil
	}
	m := &Metric{
		id:         d.identity.InstallationID + "_" + d.identity.Category + "_" + d.identity.DeviceID + "_" + shortID,
		shortID:    shortID,
		name:       name,
		device:     d.identity,
		descriptor: desc,
		topic:      topic,
	}
	d.metrics[shortID] = m
	return m, nil
}

// Metric is one measured or controllable value on a device. The
// descriptor and identity fields are immutable; value, raw and seq are
// guarded by mu.
type Metric struct {
	id         string
	shortID    string
	name       string
	device     DeviceIdentity
	descriptor *TopicDescriptor
	topic      string

	mu    sync.RWMutex
	value TypedValue
	raw   string
	seq   uint64
}

func (m *Metric) ID() string                   { return m.id }
func (m *Metric) ShortID() string              { return m.shortID }
func (m *Metric) Name() string                 { return m.name }
func (m *Metric) Device() DeviceIdentity       { return m.device }
func (m *Metric) Descriptor() *TopicDescriptor { return m.descriptor }

// Topic is the concrete notification topic this metric was first
// observed on.
func (m *Metric) Topic() string { return m.topic }

func (m *Metric) Writable() bool { return m.descriptor.Writable() }

// Value returns the last decoded value and its sequence number. Seq
// starts at 1 for the first decoded update; 0 means no value yet.
func (m *Metric) Value() (TypedValue, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value, m.seq
}

// Raw returns the last raw payload text, updates included that failed
// to decode.
func (m *Metric) Raw() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw
}

// commit overwrites the value unconditionally and bumps the sequence.
func (m *Metric) commit(v TypedValue, raw string) (old TypedValue, seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old = m.value
	m.value = v
	m.raw = raw
	m.seq++
	return old, m.seq
}

// rememberRaw keeps the raw text of a payload that failed to decode.
// The decoded value and sequence stay untouched.
func (m *Metric) rememberRaw(raw string) {
	m.mu.Lock()
	m.raw = raw
	m.mu.Unlock()
}
