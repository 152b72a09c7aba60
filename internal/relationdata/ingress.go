// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package relationdata

import (
	"github.com/canonical/gunicorn-k8s-operator/core/relation"
)

// ingressServicePort is the service port published to the ingress
// relation. The application service listens on port 80 and forwards to
// the workload container port.
const ingressServicePort = "80"

// IngressSettings returns the application databag published on the
// ingress relation. The hostname comes from the external_hostname
// config item; the service name is the application name.
func IngressSettings(appName, externalHostname string) relation.Settings {
	return relation.Settings{
		"service-hostname": externalHostname,
		"service-name":     appName,
		"service-port":     ingressServicePort,
	}
}
