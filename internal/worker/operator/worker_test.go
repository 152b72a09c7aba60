// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package operator_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/testing"
	jc "github.com/juju/testing/checkers"
	"github.com/juju/worker/v4/workertest"
	gc "gopkg.in/check.v1"

	"github.com/canonical/gunicorn-k8s-operator/core/relation"
	"github.com/canonical/gunicorn-k8s-operator/core/status"
	"github.com/canonical/gunicorn-k8s-operator/internal/charm"
	"github.com/canonical/gunicorn-k8s-operator/internal/statedir"
	"github.com/canonical/gunicorn-k8s-operator/internal/worker/operator"
	"github.com/canonical/gunicorn-k8s-operator/internal/workload"
	coretesting "github.com/canonical/gunicorn-k8s-operator/testing"
)

const metadataYAML = `
name: gunicorn-k8s
summary: Gunicorn running a WSGI application.
description: |
  Deploy your own WSGI application behind gunicorn.
containers:
  gunicorn:
    resource: gunicorn-image
resources:
  gunicorn-image:
    type: oci-image
    description: Docker image for gunicorn to run.
requires:
  pg:
    interface: pgsql
    limit: 1
  influxdb:
    interface: influxdb-api
  ingress:
    interface: ingress
`

const configYAML = `
options:
  external_hostname:
    type: string
    description: The external hostname of this application.
    default: ""
  environment:
    type: string
    description: Environment template to render for the workload.
    default: ""
`

type workerSuite struct {
	testing.IsolationSuite

	stateDir   string
	watcher    *notifyWatcher
	supervisor *fakeSupervisor
	publisher  *fakePublisher
	logger     *fakeLogger
}

var _ = gc.Suite(&workerSuite{})

func (s *workerSuite) SetUpTest(c *gc.C) {
	s.IsolationSuite.SetUpTest(c)
	s.stateDir = c.MkDir()
	s.watcher = &notifyWatcher{ch: make(chan struct{}, 1)}
	s.supervisor = &fakeSupervisor{
		status: status.StatusInfo{Status: status.Active},
	}
	s.publisher = &fakePublisher{}
	s.logger = &fakeLogger{}
}

func (s *workerSuite) newCharm(c *gc.C) *charm.Charm {
	meta, err := charm.ReadMeta(strings.NewReader(metadataYAML))
	c.Assert(err, jc.ErrorIsNil)
	spec, err := charm.ReadConfig(strings.NewReader(configYAML))
	c.Assert(err, jc.ErrorIsNil)
	return &charm.Charm{Meta: meta, Config: spec}
}

func (s *workerSuite) writeConfig(c *gc.C, content string) {
	err := os.WriteFile(statedir.ConfigFile(s.stateDir), []byte(content), 0644)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *workerSuite) writeRelation(c *gc.C, name, content string) {
	dir := statedir.RelationsDir(s.stateDir)
	err := os.MkdirAll(dir, 0755)
	c.Assert(err, jc.ErrorIsNil)
	err = os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0644)
	c.Assert(err, jc.ErrorIsNil)
}

func (s *workerSuite) newConfig(c *gc.C) operator.WorkerConfig {
	return operator.WorkerConfig{
		Charm:          s.newCharm(c),
		StateDir:       s.stateDir,
		Watcher:        s.watcher,
		Supervisor:     s.supervisor,
		PublishIngress: s.publisher.publish,
		Metrics:        operator.NewMetricsCollector(),
		Clock:          clock.WallClock,
		Logger:         s.logger,
		RetryDelay:     10 * time.Millisecond,
	}
}

func (s *workerSuite) startWorker(c *gc.C) *operator.Worker {
	w, err := operator.NewWorker(s.newConfig(c))
	c.Assert(err, jc.ErrorIsNil)
	s.AddCleanup(func(c *gc.C) { workertest.CleanKill(c, w) })
	s.watcher.notify()
	return w
}

func (s *workerSuite) waitStatus(c *gc.C, w *operator.Worker, expect status.Status, message string) operator.Snapshot {
	var snap operator.Snapshot
	timeout := time.After(coretesting.LongWait)
	for {
		snap = w.Snapshot()
		if snap.Status.Status == expect && snap.Status.Message == message {
			return snap
		}
		select {
		case <-timeout:
			c.Fatalf("timed out waiting for status %q %q, got %q %q",
				expect, message, snap.Status.Status, snap.Status.Message)
		case <-time.After(coretesting.ShortWait):
		}
	}
}

func (s *workerSuite) TestValidate(c *gc.C) {
	cfg := s.newConfig(c)
	c.Assert(cfg.Validate(), jc.ErrorIsNil)

	fields := []struct {
		corrupt func(*operator.WorkerConfig)
		expect  string
	}{
		{func(cfg *operator.WorkerConfig) { cfg.Charm = nil }, "nil Charm not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.StateDir = "" }, "empty StateDir not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.Watcher = nil }, "nil Watcher not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.Supervisor = nil }, "nil Supervisor not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.PublishIngress = nil }, "nil PublishIngress not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.Metrics = nil }, "nil Metrics not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.Clock = nil }, "nil Clock not valid"},
		{func(cfg *operator.WorkerConfig) { cfg.Logger = nil }, "nil Logger not valid"},
	}
	for _, f := range fields {
		bad := s.newConfig(c)
		f.corrupt(&bad)
		c.Check(bad.Validate(), gc.ErrorMatches, f.expect)
	}
}

func (s *workerSuite) TestMissingRequiredConfig(c *gc.C) {
	w := s.startWorker(c)
	s.waitStatus(c, w, status.Blocked,
		"Required Juju config item(s) not set : external_hostname")
	c.Assert(s.supervisor.ensured(), gc.HasLen, 0)
}

func (s *workerSuite) TestMissingRelationBlocks(c *gc.C) {
	s.writeConfig(c, ""+
		"external_hostname: app.example.com\n"+
		"environment: 'DB_HOST: \"{{ influxdb.hostname }}\"'\n")
	w := s.startWorker(c)
	s.waitStatus(c, w, status.Blocked, "Waiting for influxdb relation(s)")
	c.Assert(s.supervisor.ensured(), gc.HasLen, 0)
}

func (s *workerSuite) TestInvalidTemplateBlocks(c *gc.C) {
	s.writeConfig(c, ""+
		"external_hostname: app.example.com\n"+
		"environment: 'FOO: \"{{ broken\"'\n")
	w := s.startWorker(c)
	snap := s.waitStatus(c, w, status.Blocked,
		"malformed environment template: 1:7: unterminated expression")
	c.Assert(snap.Environment, gc.IsNil)
}

func (s *workerSuite) TestRenderAndEnsure(c *gc.C) {
	s.writeConfig(c, ""+
		"external_hostname: app.example.com\n"+
		"environment: 'DB_HOST: \"{{ influxdb.hostname }}\"'\n")
	s.writeRelation(c, "influxdb", `
- id: 7
  units:
    influxdb/0:
      hostname: 10.0.0.7
      port: "8086"
`)
	w := s.startWorker(c)
	snap := s.waitStatus(c, w, status.Active, "")

	c.Assert(snap.Environment, jc.DeepEquals, map[string]string{
		"APP_NAME": "gunicorn",
		"APP_WSGI": "app:app",
		"PORT":     "8080",
		"DB_HOST":  "10.0.0.7",
	})
	c.Assert(snap.Variables, jc.DeepEquals, []string{
		"influxdb.hostname", "influxdb.port",
	})

	layers := s.supervisor.ensured()
	c.Assert(layers, gc.Not(gc.HasLen), 0)
	service := layers[len(layers)-1].Services[workload.ServiceName]
	c.Assert(service.Environment["DB_HOST"], gc.Equals, "10.0.0.7")

	c.Assert(s.publisher.published(), jc.DeepEquals, relation.Settings{
		"service-hostname": "app.example.com",
		"service-name":     "gunicorn",
		"service-port":     "80",
	})
}

func (s *workerSuite) TestPebbleNotReadyRetries(c *gc.C) {
	s.writeConfig(c, "external_hostname: app.example.com\n")
	s.supervisor.failEnsure(2)
	w := s.startWorker(c)
	// The worker reports Maintenance while pebble is down, then
	// retries on its own without a new state change.
	s.waitStatus(c, w, status.Active, "")
	c.Assert(len(s.supervisor.ensured()) >= 3, jc.IsTrue)
}

func (s *workerSuite) TestStateChangeTriggersNewPass(c *gc.C) {
	s.writeConfig(c, "external_hostname: app.example.com\n")
	w := s.startWorker(c)
	s.waitStatus(c, w, status.Active, "")

	s.writeConfig(c, ""+
		"external_hostname: app.example.com\n"+
		"environment: 'EXTRA: value'\n")
	s.watcher.notify()

	timeout := time.After(coretesting.LongWait)
	for {
		if w.Snapshot().Environment["EXTRA"] == "value" {
			break
		}
		select {
		case <-timeout:
			c.Fatalf("timed out waiting for new environment")
		case <-time.After(coretesting.ShortWait):
		}
	}
}

func (s *workerSuite) TestBlockedKeepsLastEnvironment(c *gc.C) {
	s.writeConfig(c, "external_hostname: app.example.com\n")
	w := s.startWorker(c)
	s.waitStatus(c, w, status.Active, "")

	s.writeConfig(c, "external_hostname: ''\n")
	s.watcher.notify()
	snap := s.waitStatus(c, w, status.Blocked,
		"Required Juju config item(s) not set : external_hostname")
	c.Assert(snap.Environment["APP_NAME"], gc.Equals, "gunicorn")
}

type notifyWatcher struct {
	ch chan struct{}
}

func (w *notifyWatcher) Changes() <-chan struct{} {
	return w.ch
}

func (w *notifyWatcher) notify() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

type fakeSupervisor struct {
	mu        sync.Mutex
	layers    []*workload.Layer
	notReady  int
	status    status.StatusInfo
	statusErr error
}

func (s *fakeSupervisor) failEnsure(times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notReady = times
}

func (s *fakeSupervisor) Ensure(layer *workload.Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layers = append(s.layers, layer)
	if s.notReady > 0 {
		s.notReady--
		return workload.ErrPebbleNotReady
	}
	return nil
}

func (s *fakeSupervisor) ServiceStatus() (status.StatusInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.statusErr
}

func (s *fakeSupervisor) ensured() []*workload.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*workload.Layer(nil), s.layers...)
}

type fakePublisher struct {
	mu       sync.Mutex
	settings relation.Settings
}

func (p *fakePublisher) publish(settings relation.Settings) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = settings
	return nil
}

func (p *fakePublisher) published() relation.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

type fakeLogger struct{}

func (l *fakeLogger) Errorf(string, ...any)   {}
func (l *fakeLogger) Warningf(string, ...any) {}
func (l *fakeLogger) Infof(string, ...any)    {}
func (l *fakeLogger) Debugf(string, ...any)   {}
