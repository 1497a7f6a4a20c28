package actor

import (
	"fmt"
	"time"

	"venusmqtt/internal/config"
	"venusmqtt/internal/util/actorutil"
	"venusmqtt/internal/venus"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

type MQTTActorProvider func() *MQTTActor

// MasterActor supervises the transport actor and aggregates health. It
// is the single parent the HTTP layer talks to.
type MasterActor struct {
	config   config.Config
	hub      *venus.Hub
	behavior actor.Behavior
	stash    *actorutil.Stash

	currentHealthCheck healthCheckResult
	mqttActor          *actor.PID
	mqttActorProvider  MQTTActorProvider
	installationID     string
	logger             *zap.Logger
}

type healthCheckResult struct {
	mqttActorHealthy bool
	checksReceived   int
	respondTo        *actor.PID
}

func NewMasterActor(config config.Config, hub *venus.Hub, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		config:            config,
		hub:               hub,
		behavior:          actor.NewBehavior(),
		stash:             &actorutil.Stash{},
		logger:            actorutil.ActorLogger(ACTOR_ID_MASTER, logger),
		mqttActorProvider: mqttActorProvider,
		installationID:    config.MQTT.InstallationID,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}

		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return ActorHealthResponse{
				Id:      ACTOR_ID_MQTT,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case InstallationDiscovered:
		state.logger.Info("master@default installation discovered", zap.String("installation_id", msg.InstallationID))
		state.installationID = msg.InstallationID
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy && msg.Id == ACTOR_ID_MQTT {
			state.currentHealthCheck.mqttActorHealthy = true
		}
		if state.currentHealthCheck.allReceived() {
			state.currentHealthCheck.respond(ctx)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider()
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.mqttActorHealthy = false
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 1
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := ActorHealthResponse{
		Id:      ACTOR_ID_MASTER,
		Healthy: state.mqttActorHealthy,
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
