package venus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDescriptorsCompile(t *testing.T) {
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)
	assert.Greater(t, reg.Len(), 30)
}

func TestDefaultDescriptorsGridEnergyScenario(t *testing.T) {
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)

	m := reg.Match("N/123/grid/30/Ac/L1/Energy/Forward")
	require.NotNil(t, m)

	desc := m.Descriptor()
	assert.Equal(t, "grid_energy_forward_L1", Substitute(desc.ShortID, m.Bindings))
	assert.Equal(t, "Grid consumption on L1", Substitute(desc.Name, m.Bindings))
	assert.Equal(t, "kWh", desc.Unit)
	assert.Equal(t, NatureCumulative, desc.Nature)
}

func TestDefaultDescriptorsFrequencyBeatsPhase(t *testing.T) {
	reg, err := NewRegistry(DefaultDescriptors())
	require.NoError(t, err)

	m := reg.Match("N/123/grid/30/Ac/Frequency")
	require.NotNil(t, m)
	assert.Equal(t, "grid_frequency", m.Descriptor().ShortID)

	m = reg.Match("N/123/grid/30/Ac/PENVoltage")
	require.NotNil(t, m)
	assert.Equal(t, "grid_pen_voltage", m.Descriptor().ShortID)
}

func TestDefaultDescriptorsWritableKinds(t *testing.T) {
	for _, d := range DefaultDescriptors() {
		switch d.Kind {
		case KindSwitch, KindSelect, KindNumber:
			assert.True(t, d.Writable(), d.ShortID)
		default:
			assert.False(t, d.Writable(), d.ShortID)
		}
		if d.ValueType == ValueEnum {
			assert.NotNil(t, d.Enum, d.ShortID)
		}
	}
}

func TestKeepaliveTopic(t *testing.T) {
	assert.Equal(t, "R/abc123/keepalive", KeepaliveTopic("abc123"))
}

func TestInstallationIDFromTopic(t *testing.T) {
	id, ok := InstallationIDFromTopic("N/abc123/system/0/Serial")
	require.True(t, ok)
	assert.Equal(t, "abc123", id)

	_, ok = InstallationIDFromTopic("N/abc123/battery/1/Serial")
	assert.False(t, ok)
	_, ok = InstallationIDFromTopic("N/abc123/system/0/Soc")
	assert.False(t, ok)
	_, ok = InstallationIDFromTopic("W/abc123/system/0/Serial")
	assert.False(t, ok)
}
