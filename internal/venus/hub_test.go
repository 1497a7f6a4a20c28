package venus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTransport struct {
	topics   []string
	payloads []string
	err      error
}

func (f *fakeTransport) Publish(topic string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, string(payload))
	return nil
}

func newTestHub(t *testing.T, readOnly bool) (*Hub, *fakeTransport) {
	t.Helper()
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)
	transport := &fakeTransport{}
	return NewHub(reg, transport, readOnly, zap.NewNop()), transport
}

func TestHubBatterySocUpdate(t *testing.T) {
	hub, _ := newTestHub(t, false)

	var events []ChangeEvent
	hub.OnChange(func(ev ChangeEvent) { events = append(events, ev) })

	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("87.56"))

	device := hub.Device(DeviceIdentity{InstallationID: "abc123", Category: "battery", DeviceID: "1"})
	require.NotNil(t, device)

	metric := device.Metric("battery_soc")
	require.NotNil(t, metric)
	value, seq := metric.Value()
	assert.Equal(t, 87.6, value.Float)
	assert.Equal(t, uint64(1), seq)
	assert.Equal(t, "%", metric.Descriptor().Unit)

	require.Len(t, events, 1)
	assert.True(t, events[0].First)
	assert.Equal(t, "battery_soc", events[0].ShortID)
	assert.Equal(t, 87.6, events[0].New.Float)
}

func TestHubSequenceAndOldValue(t *testing.T) {
	hub, _ := newTestHub(t, false)

	var events []ChangeEvent
	hub.OnChange(func(ev ChangeEvent) { events = append(events, ev) })

	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("87.56"))
	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("88.02"))
	// Same value again still commits and bumps the sequence.
	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("88.02"))

	require.Len(t, events, 3)
	assert.Equal(t, 87.6, events[1].Old.Float)
	assert.Equal(t, 88.0, events[1].New.Float)
	assert.False(t, events[1].First)
	assert.Equal(t, uint64(3), events[2].Seq)
}

func TestHubPerPhaseMetricsAreDistinct(t *testing.T) {
	hub, _ := newTestHub(t, false)

	hub.HandleMessage("N/abc123/grid/30/Ac/L1/Voltage", []byte("230.1"))
	hub.HandleMessage("N/abc123/grid/30/Ac/L2/Voltage", []byte("231.5"))

	device := hub.Device(DeviceIdentity{InstallationID: "abc123", Category: "grid", DeviceID: "30"})
	require.NotNil(t, device)

	l1 := device.Metric("grid_voltage_L1")
	l2 := device.Metric("grid_voltage_L2")
	require.NotNil(t, l1)
	require.NotNil(t, l2)

	v1, _ := l1.Value()
	v2, _ := l2.Value()
	assert.Equal(t, 230.1, v1.Float)
	assert.Equal(t, 231.5, v2.Float)
	assert.Equal(t, "Grid voltage on L1", l1.Name())
}

func TestHubUnknownEnumKeepsPreviousValue(t *testing.T) {
	hub, _ := newTestHub(t, false)

	var errEvents []ErrorEvent
	hub.OnError(func(ev ErrorEvent) { errEvents = append(errEvents, ev) })

	hub.HandleMessage("N/abc123/evcharger/170/Mode", []byte(`{"value": 1}`))
	hub.HandleMessage("N/abc123/evcharger/170/Mode", []byte(`{"value": 99}`))

	metric := hub.MetricByID("abc123_evcharger_170_evcharger_mode")
	require.NotNil(t, metric)
	value, seq := metric.Value()
	assert.Equal(t, "Auto", value.Enum.Label)
	assert.Equal(t, uint64(1), seq)
	// The undecodable payload is still kept as raw text.
	assert.Equal(t, `{"value": 99}`, metric.Raw())

	require.Len(t, errEvents, 1)
	var unknown *UnknownEnumCodeError
	require.True(t, errors.As(errEvents[0].Err, &unknown))
	assert.Equal(t, 99, unknown.Code)
	assert.False(t, errEvents[0].Fatal)
}

func TestHubSetValuePublishesWriteTopic(t *testing.T) {
	hub, transport := newTestHub(t, false)

	hub.HandleMessage("N/abc123/evcharger/170/SetCurrent", []byte("6"))

	err := hub.SetValue("abc123_evcharger_170_evcharger_set_current", 16)
	require.NoError(t, err)
	require.Len(t, transport.topics, 1)
	assert.Equal(t, "W/abc123/evcharger/170/SetCurrent", transport.topics[0])
	assert.JSONEq(t, `{"value": 16}`, transport.payloads[0])

	// Local state is untouched until the device echoes the new value.
	value, seq := hub.MetricByID("abc123_evcharger_170_evcharger_set_current").Value()
	assert.Equal(t, int64(6), value.Int)
	assert.Equal(t, uint64(1), seq)
}

func TestHubSetValueRejectsOutOfRange(t *testing.T) {
	hub, transport := newTestHub(t, false)

	hub.HandleMessage("N/abc123/evcharger/170/SetCurrent", []byte("6"))

	err := hub.SetValue("abc123_evcharger_170_evcharger_set_current", 40)
	require.Error(t, err)
	var rangeErr *RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Empty(t, transport.topics)
}

func TestHubSetValueRejectsUnwritable(t *testing.T) {
	hub, transport := newTestHub(t, false)

	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("87.56"))

	err := hub.SetValue("abc123_battery_1_battery_soc", 50)
	assert.ErrorIs(t, err, ErrNotWritable)
	assert.Empty(t, transport.topics)
}

func TestHubSetValueUnknownMetric(t *testing.T) {
	hub, _ := newTestHub(t, false)
	err := hub.SetValue("nope", 1)
	assert.ErrorIs(t, err, ErrMetricNotFound)
}

func TestHubReadOnlyRejectsWrites(t *testing.T) {
	hub, transport := newTestHub(t, true)

	hub.HandleMessage("N/abc123/evcharger/170/SetCurrent", []byte("6"))

	err := hub.SetValue("abc123_evcharger_170_evcharger_set_current", 16)
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.Empty(t, transport.topics)
}

func TestHubDuplicateShortIDIsFatal(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/battery/+/Soc", ShortID: "battery_soc", Kind: KindSensor, ValueType: ValueFloat, Precision: 1},
		{Topic: "N/+/battery/+/StateOfCharge", ShortID: "battery_soc", Kind: KindSensor, ValueType: ValueFloat, Precision: 1},
	})
	require.NoError(t, err)
	hub := NewHub(reg, &fakeTransport{}, false, zap.NewNop())

	var errEvents []ErrorEvent
	hub.OnError(func(ev ErrorEvent) { errEvents = append(errEvents, ev) })

	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("87.5"))
	hub.HandleMessage("N/abc123/battery/1/StateOfCharge", []byte("88.0"))

	require.Len(t, errEvents, 1)
	assert.True(t, errEvents[0].Fatal)
	var dup *DuplicateShortIDError
	require.True(t, errors.As(errEvents[0].Err, &dup))
	assert.Equal(t, "battery_soc", dup.ShortID)

	// The original metric is untouched.
	value, seq := hub.MetricByID("abc123_battery_1_battery_soc").Value()
	assert.Equal(t, 87.5, value.Float)
	assert.Equal(t, uint64(1), seq)
}

func TestHubAttributesFillDevice(t *testing.T) {
	hub, _ := newTestHub(t, false)

	hub.HandleMessage("N/abc123/battery/1/ProductName", []byte(`{"value": "SmartShunt 500A"}`))
	hub.HandleMessage("N/abc123/battery/1/Serial", []byte(`{"value": "HQ2153ABCDE"}`))
	hub.HandleMessage("N/abc123/battery/1/FirmwareVersion", []byte(`{"value": "v4.12"}`))

	device := hub.Device(DeviceIdentity{InstallationID: "abc123", Category: "battery", DeviceID: "1"})
	require.NotNil(t, device)
	assert.Equal(t, "SmartShunt 500A", device.Model())
	assert.Equal(t, "HQ2153ABCDE", device.SerialNumber())
	assert.Equal(t, "v4.12", device.FirmwareVersion())
	assert.Equal(t, "SmartShunt 500A", device.Name())
	// Attributes never become metrics.
	assert.Empty(t, device.Metrics())

	hub.HandleMessage("N/abc123/battery/1/CustomName", []byte(`{"value": "House bank"}`))
	assert.Equal(t, "House bank", device.Name())
}

func TestHubIgnoresUnmatchedTopics(t *testing.T) {
	hub, _ := newTestHub(t, false)

	hub.HandleMessage("N/abc123/heatpump/7/Some/Unknown/Path", []byte("1"))
	hub.HandleMessage("N/abc123/battery/1/Soc", []byte("50"))

	assert.Equal(t, uint64(1), hub.IgnoredCount())
	assert.Equal(t, uint64(1), hub.HandledCount())
	assert.Len(t, hub.Devices(), 1)
}

func TestHubCategoryAliases(t *testing.T) {
	hub, _ := newTestHub(t, false)

	// platform maps onto the system device.
	hub.HandleMessage("N/abc123/platform/0/Firmware/Installed/Version", []byte(`{"value": "v3.42"}`))
	device := hub.Device(DeviceIdentity{InstallationID: "abc123", Category: "system", DeviceID: "0"})
	require.NotNil(t, device)
	value, _ := device.Metric("venus_firmware_version").Value()
	assert.Equal(t, "v3.42", value.Str)

	// settings topics resolve their category from the service segment.
	hub.HandleMessage("N/abc123/settings/0/Settings/CGwacs/AcPowerSetPoint", []byte(`{"value": -2000}`))
	metric := device.Metric("system_ac_power_setpoint")
	require.NotNil(t, metric)
	v, _ := metric.Value()
	assert.Equal(t, float64(-2000), v.Float)
	assert.True(t, metric.Writable())
}

func TestHubSetValueTransportError(t *testing.T) {
	hub, transport := newTestHub(t, false)
	transport.err = errors.New("broker gone")

	hub.HandleMessage("N/abc123/evcharger/170/SetCurrent", []byte("6"))

	err := hub.SetValue("abc123_evcharger_170_evcharger_set_current", 10)
	assert.ErrorContains(t, err, "broker gone")
}
