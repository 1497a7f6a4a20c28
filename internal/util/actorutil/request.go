package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorRef actor.PID

// ActorRequestMixIn lets requests carry an explicit reply address, so
// responses can bypass the request/response pairing when the caller is
// not the one waiting for the answer.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// Respond answers a request at its explicit reply address when one is
// set, falling back to the regular sender.
func Respond(ctx actor.Context, req ActorRequest, resp ActorResponse) {
	if req.ReplyTo() != nil {
		ctx.Send((*actor.PID)(req.ReplyTo()), resp)
	} else {
		ctx.Respond(resp)
	}
}
