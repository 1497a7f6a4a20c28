package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	MQTT     MQTTConfig `mapstructure:"mqtt"`

	// ReadOnly disables the write path entirely: SetValue is rejected
	// before anything reaches the broker.
	ReadOnly bool `mapstructure:"read_only"`
	Port     uint `mapstructure:"port"`
	HttpLog  bool `mapstructure:"http_log"`
}

type MQTTConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseSSL   bool `mapstructure:"use_ssl"`

	// TopicPrefix is an optional broker-side prefix in front of the
	// Venus OS hierarchy. Stripped on receive, prepended on publish.
	TopicPrefix string `mapstructure:"topic_prefix"`

	// InstallationID may be left empty, in which case it is learned
	// from the system serial notification after connecting.
	InstallationID string `mapstructure:"installation_id"`

	// KeepaliveIntervalSeconds between keepalive publishes. The broker
	// stops streaming notifications without them.
	KeepaliveIntervalSeconds uint `mapstructure:"keepalive_interval_seconds"`
}

var topicPrefixRegexp = regexp.MustCompile(`^[a-zA-Z0-9_/-]+$`)

// CheckTopicPrefix normalizes an optional topic prefix. Empty is valid
// and means no prefix.
func CheckTopicPrefix(prefix string) (string, error) {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "", nil
	}
	if !topicPrefixRegexp.MatchString(prefix) {
		return "", errors.New("invalid topic prefix. can only contain letters, numbers, underscores, dashes and slashes")
	}
	return prefix, nil
}
