package mqtt

import (
	"crypto/tls"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"venusmqtt/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	QOS_AT_MOST_ONCE  = 0
	QOS_AT_LEAST_ONCE = 1
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.MQTT.UseSSL {
		scheme = "ssl"
		// Venus OS brokers use a self-signed certificate.
		opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("venusmqtt_%d", rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.SetOrderMatters(false)

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	c := &MQTTClient{
		prefix: cfg.MQTT.TopicPrefix,
	}
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	} else {
		// forward to whoever owns the connection at that moment
		opts.OnConnectionLost = func(_ mqtt.Client, err error) {
			if fn, ok := c.onLost.Load().(func(error)); ok && fn != nil {
				fn(err)
			}
		}
	}
	c.client = mqtt.NewClient(opts)
	return c
}

type MQTTClient struct {
	client mqtt.Client
	prefix string
	onLost atomic.Value
}

// OnConnectionLost registers the handler notified when an established
// connection drops. Replaces any previous handler.
func (c *MQTTClient) OnConnectionLost(fn func(error)) {
	c.onLost.Store(fn)
}

// TopicPrefix is the broker-side prefix in front of the Venus OS
// hierarchy, empty when the broker serves it at the root.
func (c *MQTTClient) TopicPrefix() string {
	return c.prefix
}

// PrefixTopic prepends the configured prefix to an outbound topic.
func (c *MQTTClient) PrefixTopic(topic string) string {
	return PrefixTopic(c.prefix, topic)
}

// StripPrefix removes the configured prefix from an inbound topic. The
// second result is false when the topic does not carry the prefix.
func (c *MQTTClient) StripPrefix(topic string) (string, bool) {
	return StripPrefix(c.prefix, topic)
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT publish timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// PublishSync is the blocking form of Publish, for callers that are not
// actors. Safe for concurrent use.
func (c *MQTTClient) PublishSync(topic string, payload any, qos byte, retain bool, timeout time.Duration) error {
	token := c.client.Publish(topic, qos, retain, payload)
	if !token.WaitTimeout(timeout) {
		return errors.New("MQTT publish timed out")
	}
	return token.Error()
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT subscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

// SubscribeSync is the blocking form of Subscribe, meant to run inside
// a background task.
func (c *MQTTClient) SubscribeSync(topic string, qos byte, handler mqtt.MessageHandler, timeout time.Duration) error {
	token := c.client.Subscribe(topic, qos, handler)
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("MQTT subscribe to %s timed out", topic)
	}
	return token.Error()
}

func (c *MQTTClient) Unsubscribe(topic string, continuation func(error), timeout time.Duration) {
	token := c.client.Unsubscribe(topic)
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT unsubscribe timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Connect(continuation func(error), timeout time.Duration) {
	token := c.client.Connect()
	go func() {
		didTO := token.WaitTimeout(timeout)
		if !didTO {
			continuation(errors.New("MQTT connect timed out"))
		} else {
			continuation(token.Error())
		}
	}()
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

// HubTransport adapts the client to the hub's outbound interface,
// applying the topic prefix and a bounded wait per publish.
type HubTransport struct {
	client *MQTTClient
}

func NewHubTransport(client *MQTTClient) *HubTransport {
	return &HubTransport{client: client}
}

func (t *HubTransport) Publish(topic string, payload []byte) error {
	return t.client.PublishSync(t.client.PrefixTopic(topic), payload, QOS_AT_LEAST_ONCE, false, 5*time.Second)
}

func PrefixTopic(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "/" + topic
}

func StripPrefix(prefix, topic string) (string, bool) {
	if prefix == "" {
		return topic, true
	}
	stripped := strings.TrimPrefix(topic, prefix+"/")
	if stripped == topic {
		return "", false
	}
	return stripped, true
}
