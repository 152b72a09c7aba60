// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package charm

// Built-in environment the gunicorn image is started with. The
// environment template overlays these, so an operator can override any
// of them from config.
const (
	// DefaultWSGITarget is the module:callable gunicorn serves when the
	// template does not set APP_WSGI.
	DefaultWSGITarget = "app:app"

	// DefaultPort is the port the workload listens on when the template
	// does not set PORT.
	DefaultPort = "8080"

	// StartCommand launches gunicorn inside the workload container. The
	// image owns the script; the operator only ever invokes it.
	StartCommand = "/srv/gunicorn/run"
)

// DefaultEnvironment returns the environment the workload container is
// started with before the rendered template is overlaid.
func DefaultEnvironment(appName string) map[string]string {
	return map[string]string{
		"APP_NAME": appName,
		"APP_WSGI": DefaultWSGITarget,
		"PORT":     DefaultPort,
	}
}
