// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package podspec generates Kubernetes manifests for deploying the
// workload without an operator sidecar, the way the pod-spec era of
// the charm did. The manifests are emitted as YAML for an external
// deployer; nothing here talks to an apiserver.
package podspec

import (
	"encoding/base64"
	"encoding/json"
	"sort"

	"github.com/docker/distribution/reference"
	"github.com/juju/errors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
	"sigs.k8s.io/yaml"
)

// containerPort is the port the generated service and ingress route
// to. The pod-spec deployment predates the PORT environment default
// and always exposed 80.
const containerPort int32 = 80

const containerName = "gunicorn"

// Params carries everything manifest generation needs.
type Params struct {
	// AppName names the generated resources.
	AppName string

	// Image is the OCI image reference for the workload
	// (the image_path config value).
	Image string

	// ImageUsername and ImagePassword are registry credentials; when
	// set, a pull secret is generated and referenced.
	ImageUsername string
	ImagePassword string

	// ExternalHostname is the ingress host.
	ExternalHostname string

	// Env is the merged container environment.
	Env map[string]string
}

// Validate returns an error if manifests cannot be generated.
func (p Params) Validate() error {
	if p.AppName == "" {
		return errors.NotValidf("empty AppName")
	}
	if p.Image == "" {
		return errors.NotValidf("empty Image")
	}
	if p.ExternalHostname == "" {
		return errors.NotValidf("empty ExternalHostname")
	}
	if p.ImageUsername != "" && p.ImagePassword == "" {
		return errors.NotValidf("image_username without image_password")
	}
	return nil
}

func (p Params) labels() map[string]string {
	return map[string]string{"app.kubernetes.io/name": p.AppName}
}

func (p Params) pullSecretName() string {
	return p.AppName + "-registry"
}

// Deployment returns the workload deployment: one gunicorn container
// with the merged environment and an HTTP readiness probe.
func Deployment(p Params) *appsv1.Deployment {
	podSpec := corev1.PodSpec{
		Containers: []corev1.Container{{
			Name:            containerName,
			Image:           p.Image,
			ImagePullPolicy: corev1.PullAlways,
			Ports: []corev1.ContainerPort{{
				ContainerPort: containerPort,
				Protocol:      corev1.ProtocolTCP,
			}},
			Env: envVars(p.Env),
			ReadinessProbe: &corev1.Probe{
				ProbeHandler: corev1.ProbeHandler{
					HTTPGet: &corev1.HTTPGetAction{
						Path: "/",
						Port: intstr.FromInt32(containerPort),
					},
				},
			},
		}},
	}
	if p.ImageUsername != "" {
		podSpec.ImagePullSecrets = []corev1.LocalObjectReference{{
			Name: p.pullSecretName(),
		}}
	}
	return &appsv1.Deployment{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   p.AppName,
			Labels: p.labels(),
		},
		Spec: appsv1.DeploymentSpec{
			Selector: &metav1.LabelSelector{MatchLabels: p.labels()},
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: p.labels()},
				Spec:       podSpec,
			},
		},
	}
}

// Service returns the cluster service fronting the deployment.
func Service(p Params) *corev1.Service {
	return &corev1.Service{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Service",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   p.AppName,
			Labels: p.labels(),
		},
		Spec: corev1.ServiceSpec{
			Selector: p.labels(),
			Ports: []corev1.ServicePort{{
				Name:       "http",
				Port:       containerPort,
				TargetPort: intstr.FromInt32(containerPort),
				Protocol:   corev1.ProtocolTCP,
			}},
		},
	}
}

// Ingress returns the ingress routing the external hostname to the
// service. TLS redirection stays off so plain HTTP keeps working
// behind ingress controllers that default it on.
func Ingress(p Params) *networkingv1.Ingress {
	pathType := networkingv1.PathTypePrefix
	return &networkingv1.Ingress{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "networking.k8s.io/v1",
			Kind:       "Ingress",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   p.AppName + "-ingress",
			Labels: p.labels(),
			Annotations: map[string]string{
				"nginx.ingress.kubernetes.io/ssl-redirect": "false",
			},
		},
		Spec: networkingv1.IngressSpec{
			Rules: []networkingv1.IngressRule{{
				Host: p.ExternalHostname,
				IngressRuleValue: networkingv1.IngressRuleValue{
					HTTP: &networkingv1.HTTPIngressRuleValue{
						Paths: []networkingv1.HTTPIngressPath{{
							Path:     "/",
							PathType: &pathType,
							Backend: networkingv1.IngressBackend{
								Service: &networkingv1.IngressServiceBackend{
									Name: p.AppName,
									Port: networkingv1.ServiceBackendPort{
										Number: containerPort,
									},
								},
							},
						}},
					},
				},
			}},
		},
	}
}

// RegistrySecret returns the image pull secret, or nil when the
// registry needs no credentials.
func RegistrySecret(p Params) (*corev1.Secret, error) {
	if p.ImageUsername == "" {
		return nil, nil
	}
	config, err := dockerConfigJSON(p.Image, p.ImageUsername, p.ImagePassword)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &corev1.Secret{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Secret",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:   p.pullSecretName(),
			Labels: p.labels(),
		},
		Type: corev1.SecretTypeDockerConfigJson,
		StringData: map[string]string{
			corev1.DockerConfigJsonKey: string(config),
		},
	}, nil
}

// Manifests generates the full multi-document YAML: pull secret when
// needed, then deployment, service and ingress.
func Manifests(p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	var docs []interface{}
	secret, err := RegistrySecret(p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if secret != nil {
		docs = append(docs, secret)
	}
	docs = append(docs, Deployment(p), Service(p), Ingress(p))

	var out []byte
	for i, doc := range docs {
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if i > 0 {
			out = append(out, []byte("---\n")...)
		}
		out = append(out, data...)
	}
	return out, nil
}

func envVars(env map[string]string) []corev1.EnvVar {
	if len(env) == 0 {
		return nil
	}
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)
	vars := make([]corev1.EnvVar, 0, len(names))
	for _, name := range names {
		vars = append(vars, corev1.EnvVar{Name: name, Value: env[name]})
	}
	return vars
}

// dockerConfigEntry is one auth entry in a dockerconfigjson payload.
type dockerConfigEntry struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Auth     string `json:"auth"`
}

func dockerConfigJSON(image, username, password string) ([]byte, error) {
	named, err := reference.ParseNormalizedNamed(image)
	if err != nil {
		return nil, errors.Annotatef(err, "image %q", image)
	}
	auths := map[string]dockerConfigEntry{
		reference.Domain(named): {
			Username: username,
			Password: password,
			Auth:     base64.StdEncoding.EncodeToString([]byte(username + ":" + password)),
		},
	}
	return json.Marshal(map[string]interface{}{"auths": auths})
}
