package util

import (
	"venusmqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MQTT: config.MQTTConfig{
			Host:                     "localhost",
			Port:                     1883,
			InstallationID:           "abc123",
			KeepaliveIntervalSeconds: 30,
		},
		Port: 8080,
	}
}
