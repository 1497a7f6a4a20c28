package venus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralBeatsPlaceholder(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Ac/{phase}", ShortID: "ac_{phase}", Kind: KindSensor, ValueType: ValueFloat},
		{Topic: "N/+/grid/+/Ac/Frequency", ShortID: "frequency", Kind: KindSensor, ValueType: ValueFloat},
	})
	require.NoError(t, err)

	m := reg.Match("N/1/grid/30/Ac/Frequency")
	require.NotNil(t, m)
	assert.Equal(t, "frequency", m.Descriptor().ShortID)

	m = reg.Match("N/1/grid/30/Ac/L2")
	require.NotNil(t, m)
	assert.Equal(t, "ac_{phase}", m.Descriptor().ShortID)
	assert.Equal(t, "L2", m.Bindings["phase"])
}

func TestPlaceholderBeatsWildcard(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/+", ShortID: "wild", Kind: KindSensor, ValueType: ValueFloat},
		{Topic: "N/+/grid/+/{field}", ShortID: "named", Kind: KindSensor, ValueType: ValueFloat},
	})
	require.NoError(t, err)

	m := reg.Match("N/1/grid/30/Soc")
	require.NotNil(t, m)
	assert.Equal(t, "named", m.Descriptor().ShortID)
}

func TestEqualSpecificityFirstRegisteredWins(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/{a}", ShortID: "first", Kind: KindSensor, ValueType: ValueFloat},
		{Topic: "N/+/grid/+/{b}", ShortID: "second", Kind: KindSensor, ValueType: ValueFloat},
	})
	require.NoError(t, err)

	m := reg.Match("N/1/grid/30/Soc")
	require.NotNil(t, m)
	assert.Equal(t, "first", m.Descriptor().ShortID)
}

func TestNoMatch(t *testing.T) {
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)

	assert.Nil(t, reg.Match("N/1/grid/30/Ac/L1/Voltage/Extra"))
	assert.Nil(t, reg.Match("N/1/unknowncategory/30/Soc/Deep/Down"))
	// Case sensitive literals.
	assert.Nil(t, reg.Match("N/1/battery/1/soc"))
}

func TestMatchRebuild(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Ac/{phase}/Voltage", ShortID: "grid_voltage_{phase}", Kind: KindSensor, ValueType: ValueFloat},
	})
	require.NoError(t, err)

	topic := "N/abc123/grid/30/Ac/L1/Voltage"
	m := reg.Match(topic)
	require.NotNil(t, m)
	assert.Equal(t, topic, m.Rebuild())
	assert.Equal(t, "L1", m.Bindings["phase"])
	assert.Equal(t, "L2", m.Bindings["next_phase"])
}

func TestNextPhaseRotation(t *testing.T) {
	for phase, next := range map[string]string{"L1": "L2", "L2": "L3", "L3": "L1"} {
		b := deriveBindings(map[string]string{"phase": phase})
		assert.Equal(t, next, b["next_phase"])
	}
	// Non-phase values get no derived binding.
	b := deriveBindings(map[string]string{"phase": "L9"})
	_, ok := b["next_phase"]
	assert.False(t, ok)
}

func TestWriteTopic(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/evcharger/+/SetCurrent", ShortID: "set_current", Kind: KindNumber, ValueType: ValueInt},
		{Topic: "N/+/vebus/+/Mode", ShortID: "mode", Kind: KindSelect, ValueType: ValueEnum, Enum: EnumInverterMode, WriteMarker: "X"},
	})
	require.NoError(t, err)

	m := reg.Match("N/123/evcharger/170/SetCurrent")
	require.NotNil(t, m)
	assert.Equal(t, "W/123/evcharger/170/SetCurrent", m.WriteTopic())

	m = reg.Match("N/123/vebus/276/Mode")
	require.NotNil(t, m)
	assert.Equal(t, "X/123/vebus/276/Mode", m.WriteTopic())
}

func TestCompileRejectsMalformedPatterns(t *testing.T) {
	bad := []string{
		"",
		"N//grid",
		"N/+/grid/{bad name}",
		"N/+/grid/{phase}/{phase}",
		"N/+/grid/#",
		"N/+/grid/half{open",
	}
	for _, topic := range bad {
		_, err := NewRegistry([]TopicDescriptor{{Topic: topic, ShortID: "x", Kind: KindSensor, ValueType: ValueString}})
		assert.Error(t, err, "topic %q should not compile", topic)
	}
}

func TestSubscriptionFilters(t *testing.T) {
	reg, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Ac/{phase}/Voltage", ShortID: "v_{phase}", Kind: KindSensor, ValueType: ValueFloat},
		{Topic: "N/+/grid/+/Ac/{phase}/Current", ShortID: "c_{phase}", Kind: KindSensor, ValueType: ValueFloat},
		{Topic: "N/+/grid/+/Ac/{other}/Voltage", ShortID: "dup", Kind: KindSensor, ValueType: ValueFloat},
	})
	require.NoError(t, err)

	filters := reg.SubscriptionFilters()
	assert.Equal(t, []string{
		"N/+/grid/+/Ac/+/Voltage",
		"N/+/grid/+/Ac/+/Current",
	}, filters)
}

func TestSubstitute(t *testing.T) {
	b := map[string]string{"phase": "L1", "next_phase": "L2"}
	assert.Equal(t, "grid_voltage_L1", Substitute("grid_voltage_{phase}", b))
	assert.Equal(t, "L1 then L2", Substitute("{phase} then {next_phase}", b))
	assert.Equal(t, "plain", Substitute("plain", b))
}

func TestCompileRejectsUnboundTemplateRefs(t *testing.T) {
	_, err := NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Soc", ShortID: "grid_{phase}_soc", Kind: KindSensor, ValueType: ValueFloat},
	})
	assert.Error(t, err)

	_, err = NewRegistry([]TopicDescriptor{
		{Topic: "N/+/tank/+/{field}", ShortID: "tank_{field}", Name: "Tank {volume}", Kind: KindSensor, ValueType: ValueFloat},
	})
	assert.Error(t, err)

	// next_phase derives from phase and needs no topic segment of its own.
	_, err = NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Ac/{phase}/Power", ShortID: "ac_{phase}", Name: "{phase} feeds {next_phase}", Kind: KindSensor, ValueType: ValueFloat},
	})
	assert.NoError(t, err)

	// But only when the topic binds phase.
	_, err = NewRegistry([]TopicDescriptor{
		{Topic: "N/+/grid/+/Power", ShortID: "power", Name: "{next_phase}", Kind: KindSensor, ValueType: ValueFloat},
	})
	assert.Error(t, err)
}
