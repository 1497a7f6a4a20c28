package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"venusmqtt/internal/config"
	"venusmqtt/internal/mqtt"
	"venusmqtt/internal/venus"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// dumpmqtt subscribes to everything a broker publishes and prints it,
// sending keepalives as soon as an installation id shows up. Useful to
// discover which topics an installation actually serves.
func main() {

	viper.SetEnvPrefix("venusmqtt")
	viper.AutomaticEnv()
	viper.SetDefault("mqtt.port", 1883)

	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:     viper.GetString("mqtt.host"),
			Port:     viper.GetInt("mqtt.port"),
			Username: viper.GetString("mqtt.username"),
			Password: viper.GetString("mqtt.password"),
			UseSSL:   viper.GetBool("mqtt.use_ssl"),
		},
	}
	if cfg.MQTT.Host == "" {
		fmt.Fprintln(os.Stderr, "VENUSMQTT_MQTT.HOST is required")
		os.Exit(1)
	}

	logger := zap.Must(zap.NewDevelopmentConfig().Build())
	defer logger.Sync()

	var mu sync.Mutex
	installationID := ""

	client := mqtt.CreateMQTTClient(cfg, mqtt.OptsFromConfig(cfg), nil, func(_ pahomqtt.Client, err error) {
		logger.Fatal("connection lost", zap.Error(err))
	})

	if err := connectSync(client); err != nil {
		logger.Fatal("connect failed", zap.Error(err))
	}

	err := client.SubscribeSync("#", mqtt.QOS_AT_MOST_ONCE, func(_ pahomqtt.Client, m pahomqtt.Message) {
		fmt.Printf("%s %s\n", m.Topic(), string(m.Payload()))
		if id, found := venus.InstallationIDFromTopic(m.Topic()); found {
			mu.Lock()
			installationID = id
			mu.Unlock()
		}
	}, 10*time.Second)
	if err != nil {
		logger.Fatal("subscribe failed", zap.Error(err))
	}

	// keepalive loop keeps the broker streaming once the id is known
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			mu.Lock()
			id := installationID
			mu.Unlock()
			if id != "" {
				topic := venus.KeepaliveTopic(id)
				if err := client.PublishSync(topic, "", mqtt.QOS_AT_MOST_ONCE, false, 2*time.Second); err != nil {
					logger.Warn("keepalive failed", zap.Error(err))
				}
			}
			<-ticker.C
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	client.Disconnect(500 * time.Millisecond)
}

func connectSync(client *mqtt.MQTTClient) error {
	done := make(chan error, 1)
	client.Connect(func(err error) {
		done <- err
	}, 10*time.Second)
	return <-done
}
