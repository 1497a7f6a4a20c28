package actor

import (
	"fmt"
	"time"

	"venusmqtt/internal/config"
	"venusmqtt/internal/mqtt"
	"venusmqtt/internal/util/actorutil"
	"venusmqtt/internal/venus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	connectTimeout   = 10 * time.Second
	subscribeTimeout = 10 * time.Second
	keepaliveTimeout = 2 * time.Second
)

// MQTTActor owns the broker connection: it subscribes the descriptor
// filters, feeds inbound traffic to the hub and keeps the broker
// streaming with periodic keepalives. Unrecoverable transport errors
// panic and let the supervisor restart the actor with backoff.
type MQTTActor struct {
	config   *config.Config
	hub      *venus.Hub
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   *mqtt.MQTTClient
	logger   *zap.Logger

	installationID  string
	scheduler       *scheduler.TimerScheduler
	cancelKeepalive scheduler.CancelFunc
}

type MQTTConnected struct {
}

type MQTTSubscribed struct {
}

type MQTTConnectionLost struct {
	Error error
}

type keepaliveTick struct {
}

func NewMQTTActor(config *config.Config, hub *venus.Hub, client *mqtt.MQTTClient, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:         config,
		hub:            hub,
		client:         client,
		behavior:       actor.NewBehavior(),
		stash:          &actorutil.Stash{},
		logger:         actorutil.ActorLogger(ACTOR_ID_MQTT, logger),
		installationID: config.MQTT.InstallationID,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MQTTActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MQTTActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("mqtt@starting started")

		state.client.OnConnectionLost(func(err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		})

		// connect to MQTT server
		state.client.Connect(func(err error) {
			if err != nil {
				ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
			} else {
				ctx.Send(ctx.Self(), MQTTConnected{})
			}
		}, connectTimeout)

	case MQTTConnected:
		state.logger.Debug("mqtt@starting connected")

		// subscribe every descriptor filter off the actor goroutine
		filters := state.hub.Registry().SubscriptionFilters()
		actorutil.NewBackgroundTaskErr(ctx, func() error {
			for _, filter := range filters {
				topic := state.client.PrefixTopic(filter)
				if err := state.client.SubscribeSync(topic, mqtt.QOS_AT_MOST_ONCE, state.messageHandler(ctx), 5*time.Second); err != nil {
					return err
				}
			}
			return nil
		}).WithTimeout(subscribeTimeout).OnError(func(err error) {
			ctx.Send(ctx.Self(), MQTTConnectionLost{Error: err})
		}).OnSuccess(func(any) {
			ctx.Send(ctx.Self(), MQTTSubscribed{})
		}).Run()
	case MQTTSubscribed:
		// init completed, transition to default state
		state.logger.Debug("mqtt@starting subscribed", zap.Int("filters", state.hub.Registry().Len()))
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		if state.installationID != "" {
			state.startKeepalive(ctx)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@starting connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("mqtt@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MQTTActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case ActorHealthRequest:
		state.logger.Debug("mqtt@default ActorHealthRequest")
		healthState := "connected"
		if state.installationID == "" {
			healthState = "discovering"
		}
		actorutil.Respond(ctx, msg, ActorHealthResponse{
			Id:      ACTOR_ID_MQTT,
			Healthy: true,
			State:   healthState,
		})
	case InstallationDiscovered:
		if state.installationID != "" {
			return
		}
		state.logger.Info("mqtt@default installation discovered", zap.String("installation_id", msg.InstallationID))
		state.installationID = msg.InstallationID
		state.startKeepalive(ctx)
		ctx.Send(ctx.Parent(), msg)
	case keepaliveTick:
		state.publishKeepalive()
	case MQTTConnectionLost:
		// if connection lost, stop actor and let supervisor decide
		state.logger.Error("mqtt@default connection lost", zap.Error(msg.Error))
		panic(msg.Error)
	default:
		state.logger.Debug("mqtt@default unhandled", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// messageHandler runs on the paho goroutine. The hub is safe for
// concurrent dispatch, only discovery hops back onto the actor.
func (state *MQTTActor) messageHandler(ctx actor.Context) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, m pahomqtt.Message) {
		topic, ok := state.client.StripPrefix(m.Topic())
		if !ok {
			return
		}
		if id, found := venus.InstallationIDFromTopic(topic); found {
			ctx.Send(ctx.Self(), InstallationDiscovered{InstallationID: id})
		}
		state.hub.HandleMessage(topic, m.Payload())
	}
}

func (state *MQTTActor) startKeepalive(ctx actor.Context) {
	if state.cancelKeepalive != nil {
		return
	}
	interval := time.Duration(state.config.MQTT.KeepaliveIntervalSeconds) * time.Second
	state.logger.Info("mqtt: keepalive started", zap.String("installation_id", state.installationID), zap.Duration("interval", interval))
	state.cancelKeepalive = state.scheduler.RequestRepeatedly(0, interval, ctx.Self(), keepaliveTick{})
}

func (state *MQTTActor) publishKeepalive() {
	topic := state.client.PrefixTopic(venus.KeepaliveTopic(state.installationID))
	state.client.Publish(topic, "", mqtt.QOS_AT_MOST_ONCE, false, func(err error) {
		if err != nil {
			logger.Error(err)
		}
	}, keepaliveTimeout)
}

func (state *MQTTActor) stop() {
	state.logger.Debug("mqtt: disconnect")
	if state.cancelKeepalive != nil {
		state.cancelKeepalive()
		state.cancelKeepalive = nil
	}
	if state.client != nil {
		state.client.Disconnect(500 * time.Millisecond)
	}
}

// Dummy actor
func NewTestMQTTActor(config *config.Config, hub *venus.Hub, logger *zap.Logger) *MQTTActor {
	act := &MQTTActor{
		config:   config,
		hub:      hub,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(ACTOR_ID_MQTT, logger),
	}
	act.behavior.Become(act.DummyReceive)
	return act
}

func (state *MQTTActor) DummyReceive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case ActorHealthRequest:
		state.logger.Debug("mqtt@dummy ActorHealthRequest")
		ctx.Respond(ActorHealthResponse{
			Id:      ACTOR_ID_MQTT,
			Healthy: true,
			State:   "idle",
		})
	}
}
