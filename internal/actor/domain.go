package actor

import (
	"venusmqtt/internal/util/actorutil"
)

const (
	ACTOR_ID_MASTER = "master"
	ACTOR_ID_MQTT   = "mqtt"
)

type ActorHealthRequest struct {
	actorutil.ActorRequestMixIn
}

type ActorHealthResponse struct {
	actorutil.ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

// InstallationDiscovered is sent by the transport actor when the
// installation id has been learned from broker traffic.
type InstallationDiscovered struct {
	InstallationID string
}
