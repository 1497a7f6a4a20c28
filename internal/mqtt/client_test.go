package mqtt

import (
	"strings"
	"testing"

	"venusmqtt/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestTopicPrefix(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("venus/N/abc/battery/1/Soc", PrefixTopic("venus", "N/abc/battery/1/Soc"))
	assert.Equal("N/abc/battery/1/Soc", PrefixTopic("", "N/abc/battery/1/Soc"))

	stripped, ok := StripPrefix("venus", "venus/N/abc/battery/1/Soc")
	assert.True(ok)
	assert.Equal("N/abc/battery/1/Soc", stripped)

	_, ok = StripPrefix("venus", "other/N/abc/battery/1/Soc")
	assert.False(ok)

	stripped, ok = StripPrefix("", "N/abc/battery/1/Soc")
	assert.True(ok)
	assert.Equal("N/abc/battery/1/Soc", stripped)
}

func TestOptsFromConfig(t *testing.T) {

	assert := assert.New(t)

	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:     "venus.local",
			Port:     1883,
			Username: "user",
			Password: "pass",
		},
	}
	opts := OptsFromConfig(cfg)

	assert.Len(opts.Servers, 1)
	assert.Equal("tcp", opts.Servers[0].Scheme)
	assert.Equal("venus.local:1883", opts.Servers[0].Host)
	assert.Equal("user", opts.Username)
	assert.True(strings.HasPrefix(opts.ClientID, "venusmqtt_"))
}

func TestOptsFromConfigSSL(t *testing.T) {

	assert := assert.New(t)

	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:   "venus.local",
			Port:   8883,
			UseSSL: true,
		},
	}
	opts := OptsFromConfig(cfg)

	assert.Equal("ssl", opts.Servers[0].Scheme)
	assert.NotNil(opts.TLSConfig)
	assert.True(opts.TLSConfig.InsecureSkipVerify)
}
