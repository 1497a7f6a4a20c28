package server

import (
	"fmt"
	"net/http"
	"time"

	"venusmqtt/internal/config"
	"venusmqtt/internal/venus"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

type Server struct {
	port        uint
	httpLog     bool
	hub         *venus.Hub
	rootContext *actor.RootContext
	masterActor *actor.PID
}

func NewServer(cfg config.Config, hub *venus.Hub, rootContext *actor.RootContext, masterActor *actor.PID) *http.Server {
	NewServer := &Server{
		port:        cfg.Port,
		httpLog:     cfg.HttpLog,
		hub:         hub,
		rootContext: rootContext,
		masterActor: masterActor,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
