// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package socketlistener_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/internal/socketlistener"
)

type socketListenerSuite struct {
	testing.IsolationSuite

	logger *fakeLogger
}

var _ = gc.Suite(&socketListenerSuite{})

func (s *socketListenerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.logger = &fakeLogger{}
}

func handleTestEndpoint(resp http.ResponseWriter, req *http.Request) {
	resp.WriteHeader(http.StatusOK)
	fmt.Fprint(resp, "ok")
}

func registerTestHandlers(r *mux.Router) {
	r.HandleFunc("/test-endpoint", handleTestEndpoint).Methods(http.MethodGet)
}

func (s *socketListenerSuite) TestValidate(c *gc.C) {
	config := socketlistener.Config{
		Logger:           s.logger,
		SocketName:       "socket",
		RegisterHandlers: registerTestHandlers,
		ShutdownTimeout:  time.Second,
	}
	c.Check(config.Validate(), jc.ErrorIsNil)

	bad := config
	bad.Logger = nil
	c.Check(bad.Validate(), gc.ErrorMatches, "nil Logger not valid")

	bad = config
	bad.SocketName = ""
	c.Check(bad.Validate(), gc.ErrorMatches, "empty SocketName not valid")

	bad = config
	bad.RegisterHandlers = nil
	c.Check(bad.Validate(), gc.ErrorMatches, "nil RegisterHandlers not valid")

	bad = config
	bad.ShutdownTimeout = 0
	c.Check(bad.Validate(), gc.ErrorMatches, "zero ShutdownTimeout not valid")
}

func (s *socketListenerSuite) TestStartStopWorker(c *gc.C) {
	socket := filepath.Join(c.MkDir(), "test.socket")
	sl, err := socketlistener.NewSocketListener(socketlistener.Config{
		Logger:           s.logger,
		SocketName:       socket,
		RegisterHandlers: registerTestHandlers,
		ShutdownTimeout:  time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.DirtyKill(c, sl)

	resp, err := client(socket).Get("http://localhost/test-endpoint")
	c.Assert(err, jc.ErrorIsNil)
	defer func() { _ = resp.Body.Close() }()
	c.Check(resp.StatusCode, gc.Equals, http.StatusOK)
	body, err := io.ReadAll(resp.Body)
	c.Assert(err, jc.ErrorIsNil)
	c.Check(string(body), gc.Equals, "ok")

	workertest.CleanKill(c, sl)

	// The socket no longer accepts connections once the worker is dead.
	_, err = client(socket).Get("http://localhost/test-endpoint")
	c.Check(err, gc.NotNil)
}

func (s *socketListenerSuite) TestReplacesStaleSocket(c *gc.C) {
	socket := filepath.Join(c.MkDir(), "test.socket")

	sl, err := socketlistener.NewSocketListener(socketlistener.Config{
		Logger:           s.logger,
		SocketName:       socket,
		RegisterHandlers: registerTestHandlers,
		ShutdownTimeout:  time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
	workertest.CleanKill(c, sl)

	// A second listener can bind where the first one was.
	sl, err = socketlistener.NewSocketListener(socketlistener.Config{
		Logger:           s.logger,
		SocketName:       socket,
		RegisterHandlers: registerTestHandlers,
		ShutdownTimeout:  time.Second,
	})
	c.Assert(err, jc.ErrorIsNil)
	defer workertest.DirtyKill(c, sl)

	resp, err := client(socket).Get("http://localhost/test-endpoint")
	c.Assert(err, jc.ErrorIsNil)
	_ = resp.Body.Close()
	c.Check(resp.StatusCode, gc.Equals, http.StatusOK)

	workertest.CleanKill(c, sl)
}

func client(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return net.Dial("unix", socketPath)
			},
		},
	}
}

type fakeLogger struct{}

func (*fakeLogger) Warningf(string, ...any) {}
func (*fakeLogger) Debugf(string, ...any)   {}
