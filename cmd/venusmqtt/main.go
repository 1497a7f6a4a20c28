package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	vactor "venusmqtt/internal/actor"
	"venusmqtt/internal/config"
	"venusmqtt/internal/mqtt"
	"venusmqtt/internal/server"
	"venusmqtt/internal/util/actorutil"
	"venusmqtt/internal/venus"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	logger.Info("starting venusmqtt", zap.String("version", versioninfo.Short()))

	// descriptor registry and hub
	registry, err := venus.NewRegistry(venus.DefaultDescriptors())
	if err != nil {
		logger.Fatal("descriptor table error", zap.Error(err))
	}

	client := mqtt.CreateMQTTClient(cfg, mqtt.OptsFromConfig(cfg), nil, nil)
	hub := venus.NewHub(registry, mqtt.NewHubTransport(client), cfg.ReadOnly, logger)

	hub.OnError(func(ev venus.ErrorEvent) {
		if ev.Fatal {
			logger.Error("descriptor table defect", zap.String("topic", ev.Topic), zap.Error(ev.Err))
			return
		}
		logger.Warn("decode error", zap.String("topic", ev.Topic), zap.Error(ev.Err))
	})

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return vactor.NewMasterActor(*cfg, hub, func() *vactor.MQTTActor {
			return vactor.NewMQTTActor(cfg, hub, client, logger)
		}, logger)
	})
	pid, err := ctx.SpawnNamed(props, vactor.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, hub, ctx, pid)
	done := make(chan bool, 1)

	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => VENUSMQTT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("VENUSMQTT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("venusmqtt")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix topic prefix
	prefix, err := config.CheckTopicPrefix(cfg.MQTT.TopicPrefix)
	if err != nil {
		return nil, err
	}
	cfg.MQTT.TopicPrefix = prefix

	// check bounds
	if cfg.MQTT.Host == "" {
		return nil, errors.New("config param mqtt.host is required")
	}
	if cfg.MQTT.Port <= 0 || cfg.MQTT.Port > 65535 {
		return nil, errors.New("config param mqtt.port must be a valid port number")
	}
	if cfg.MQTT.KeepaliveIntervalSeconds < 5 {
		return nil, errors.New("config param mqtt.keepalive_interval_seconds should be >= 5")
	}

	return &cfg, nil
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("mqtt.port", 1883)
	viper.SetDefault("mqtt.use_ssl", false)
	viper.SetDefault("mqtt.topic_prefix", "")
	viper.SetDefault("mqtt.installation_id", "")
	viper.SetDefault("mqtt.keepalive_interval_seconds", 30)
	viper.SetDefault("read_only", false)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
