// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package socketlistener provides a worker that serves HTTP on a unix
// socket. Handlers are registered by the worker that owns the socket;
// this package only deals with the listener lifecycle.
package socketlistener

import (
	"context"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/errors"
	"gopkg.in/tomb.v2"
)

// Logger represents the logging methods called by the listener.
type Logger interface {
	Warningf(message string, args ...any)
	Debugf(message string, args ...any)
}

// Config represents configuration for the socketlistener worker.
type Config struct {
	Logger Logger

	// SocketName is the path of the unix socket file.
	SocketName string

	// RegisterHandlers should register handlers on the router.
	RegisterHandlers func(router *mux.Router)

	// ShutdownTimeout bounds the graceful shutdown when the worker is
	// killed; in-flight requests get this long to complete.
	ShutdownTimeout time.Duration
}

// Validate returns an error if the config cannot be used.
func (config Config) Validate() error {
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.SocketName == "" {
		return errors.NotValidf("empty SocketName")
	}
	if config.RegisterHandlers == nil {
		return errors.NotValidf("nil RegisterHandlers")
	}
	if config.ShutdownTimeout == 0 {
		return errors.NotValidf("zero ShutdownTimeout")
	}
	return nil
}

// SocketListener is a worker that listens on a unix socket and serves
// the registered handlers.
type SocketListener struct {
	tomb     tomb.Tomb
	config   Config
	listener net.Listener
}

// NewSocketListener returns a listener serving on the configured
// socket. A stale socket file from an unclean previous run is removed
// before binding.
func NewSocketListener(config Config) (*SocketListener, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	_ = os.Remove(config.SocketName)
	listener, err := net.Listen("unix", config.SocketName)
	if err != nil {
		return nil, errors.Annotatef(err, "listening on socket %q", config.SocketName)
	}
	sl := &SocketListener{
		config:   config,
		listener: listener,
	}
	sl.tomb.Go(sl.run)
	return sl, nil
}

// Kill is part of the worker.Worker interface.
func (sl *SocketListener) Kill() {
	sl.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (sl *SocketListener) Wait() error {
	return sl.tomb.Wait()
}

func (sl *SocketListener) run() error {
	router := mux.NewRouter()
	sl.config.RegisterHandlers(router)

	server := &http.Server{Handler: router}
	sl.tomb.Go(func() error {
		<-sl.tomb.Dying()
		ctx, cancel := context.WithTimeout(context.Background(), sl.config.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			sl.config.Logger.Warningf("shutting down socket listener: %v", err)
			return errors.Trace(server.Close())
		}
		return nil
	})

	sl.config.Logger.Debugf("socket listener serving on %q", sl.config.SocketName)
	defer sl.config.Logger.Debugf("socket listener stopped")

	if err := server.Serve(sl.listener); !errors.Is(err, http.ErrServerClosed) {
		return errors.Trace(err)
	}
	return nil
}
