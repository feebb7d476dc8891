// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/intstr"
	netutils "k8s.io/utils/net"

	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
)

// mkPod projects a Pod into its index row. Ports are taken from the declared
// container ports; the kubelet source networks from the pod's host IPs.
func (ix *Index) mkPod(obj *corev1.Pod) *pod {
	p := &pod{
		labels:    labels.Set(obj.Labels),
		ports:     make(map[uint16]*portState),
		portNames: make(map[string]uint16),
		mode:      ix.defaultMode,
		status:    string(obj.Status.Phase),
	}

	for _, c := range obj.Spec.Containers {
		for _, cp := range c.Ports {
			if cp.ContainerPort <= 0 || cp.ContainerPort > 65535 {
				continue
			}
			port := uint16(cp.ContainerPort)
			if _, ok := p.ports[port]; !ok {
				p.ports[port] = &portState{}
			}
			if cp.Name != "" {
				if _, ok := p.portNames[cp.Name]; !ok {
					p.portNames[cp.Name] = port
				}
			}
		}
	}

	hostIPs := make([]string, 0, 1)
	for _, ip := range obj.Status.HostIPs {
		hostIPs = append(hostIPs, ip.IP)
	}
	if len(hostIPs) == 0 && obj.Status.HostIP != "" {
		hostIPs = append(hostIPs, obj.Status.HostIP)
	}
	for _, s := range hostIPs {
		ip := netutils.ParseIPSloppy(s)
		if ip == nil {
			ix.log.Info("ignoring unparseable host IP", "namespace", obj.Namespace, "pod", obj.Name, "ip", s)
			continue
		}
		if ip.To4() != nil {
			p.kubeletNets = append(p.kubeletNets, ip.String()+"/32")
		} else {
			p.kubeletNets = append(p.kubeletNets, ip.String()+"/128")
		}
	}

	if a, ok := obj.Annotations[DefaultModeAnnotation]; ok {
		mode, err := ParseDefaultMode(a)
		if err != nil {
			ix.log.Info("ignoring invalid default policy annotation", "namespace", obj.Namespace, "pod", obj.Name, "value", a)
		} else {
			p.mode = mode
		}
	}

	return p
}

// mkServer projects a Server resource into its index row. An invalid spec is
// a schema error: the event is dropped and existing state is untouched.
func mkServer(obj *polixyv1.Server) (*server, error) {
	sel, err := metav1.LabelSelectorAsSelector(obj.Spec.PodSelector)
	if err != nil {
		return nil, fmt.Errorf("invalid pod selector: %w", err)
	}

	switch obj.Spec.Port.Type {
	case intstr.Int:
		if v := obj.Spec.Port.IntValue(); v <= 0 || v > 65535 {
			return nil, fmt.Errorf("port %d out of range", v)
		}
	case intstr.String:
		if obj.Spec.Port.StrVal == "" {
			return nil, fmt.Errorf("port name must not be empty")
		}
	}

	return &server{
		labels:      labels.Set(obj.Labels),
		podSelector: sel,
		port:        obj.Spec.Port,
		protocol:    parseProxyProtocol(obj.Spec.ProxyProtocol),
		authzs:      make(map[string]ClientAuthz),
	}, nil
}

// mkAuthz projects an Authorization resource into its index row, validating
// that the target and client specs are well formed.
func mkAuthz(obj *polixyv1.Authorization) (*authz, error) {
	a := &authz{}

	switch {
	case obj.Spec.Server.Name != "" && obj.Spec.Server.Selector != nil:
		return nil, fmt.Errorf("server ref must not set both name and selector")
	case obj.Spec.Server.Name != "":
		a.targetName = obj.Spec.Server.Name
	case obj.Spec.Server.Selector != nil:
		sel, err := metav1.LabelSelectorAsSelector(obj.Spec.Server.Selector)
		if err != nil {
			return nil, fmt.Errorf("invalid server selector: %w", err)
		}
		a.targetSelector = sel
	default:
		return nil, fmt.Errorf("server ref must set either name or selector")
	}

	client, err := mkClient(obj.Namespace, obj.Spec.Client)
	if err != nil {
		return nil, err
	}
	a.clients = client

	return a, nil
}

func mkClient(ns string, spec polixyv1.ClientSpec) (ClientAuthz, error) {
	authenticated := len(spec.Identities) > 0 || len(spec.ServiceAccounts) > 0

	if spec.Unauthenticated || len(spec.Cidrs) > 0 {
		if authenticated {
			return ClientAuthz{}, fmt.Errorf("client must be either authenticated or unauthenticated")
		}
		nets := make([]string, 0, len(spec.Cidrs))
		for _, c := range spec.Cidrs {
			_, n, err := netutils.ParseCIDRSloppy(c)
			if err != nil {
				return ClientAuthz{}, fmt.Errorf("invalid client network %q: %w", c, err)
			}
			nets = append(nets, n.String())
		}
		return ClientAuthz{Unauthenticated: &UnauthenticatedClients{Networks: nets}}, nil
	}

	if !authenticated {
		return ClientAuthz{}, fmt.Errorf("client authorizes nothing")
	}

	clients := &AuthenticatedClients{}
	for _, id := range spec.Identities {
		switch {
		case id == "*":
			clients.Suffixes = append(clients.Suffixes, []string{})
		case strings.HasPrefix(id, "*."):
			parts := strings.Split(id[2:], ".")
			for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
				parts[i], parts[j] = parts[j], parts[i]
			}
			clients.Suffixes = append(clients.Suffixes, parts)
		default:
			clients.Identities = append(clients.Identities, id)
		}
	}
	for _, sa := range spec.ServiceAccounts {
		if sa.Name == "" {
			return ClientAuthz{}, fmt.Errorf("service account ref must name an account")
		}
		ref := ServiceAccountRef{Namespace: sa.Namespace, Name: sa.Name}
		if ref.Namespace == "" {
			ref.Namespace = ns
		}
		clients.ServiceAccounts = append(clients.ServiceAccounts, ref)
	}
	return ClientAuthz{Authenticated: clients}, nil
}
