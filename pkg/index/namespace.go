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
	"sort"

	"k8s.io/apimachinery/pkg/labels"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// namespace holds the per-namespace join state: pods, servers, and
// authorizations, keyed by name.
type namespace struct {
	pods    map[string]*pod
	servers map[string]*server
	authzs  map[string]*authz
}

func newNamespace() *namespace {
	return &namespace{
		pods:    make(map[string]*pod),
		servers: make(map[string]*server),
		authzs:  make(map[string]*authz),
	}
}

func (n *namespace) empty() bool {
	return len(n.pods) == 0 && len(n.servers) == 0 && len(n.authzs) == 0
}

// pod is the indexed state of one Pod: its labels, declared ports, kubelet
// source networks, and the default policy mode its annotation selects.
type pod struct {
	labels      labels.Set
	ports       map[uint16]*portState
	portNames   map[string]uint16
	kubeletNets []string
	mode        DefaultMode
	status      string
}

// portState tracks one declared pod-port and the cell subscribers observe
// it through.
type portState struct {
	cell       *PortCell
	conflicted bool
}

// server is the indexed state of one Server resource. The authorization map
// is maintained eagerly: it always holds exactly the Authorizations whose
// target matches this server. The cell carries the server's published
// config; pod-ports governed by this server point at it.
type server struct {
	labels      labels.Set
	podSelector labels.Selector
	port        intstr.IntOrString
	protocol    ProxyProtocol
	authzs      map[string]ClientAuthz
	cell        *ConfigCell
}

// config builds the server's published value: its protocol and attached
// authorizations ordered by name.
func (s *server) config() *InboundServerConfig {
	names := make([]string, 0, len(s.authzs))
	for name := range s.authzs {
		names = append(names, name)
	}
	sort.Strings(names)

	cfg := &InboundServerConfig{Protocol: s.protocol}
	for _, name := range names {
		cfg.Authorizations = append(cfg.Authorizations, Authz{Name: name, Clients: s.authzs[name]})
	}
	return cfg
}

// selectsPort reports whether the server claims the given declared port of
// the pod: the pod's labels must match the pod selector and the server's
// port must resolve against the pod, by number or by container-port name.
// A port name the pod does not declare is non-matching, not an error.
func (s *server) selectsPort(p *pod, port uint16) bool {
	if !s.podSelector.Matches(p.labels) {
		return false
	}
	switch s.port.Type {
	case intstr.Int:
		return s.port.IntValue() == int(port)
	case intstr.String:
		n, ok := p.portNames[s.port.StrVal]
		return ok && n == port
	}
	return false
}

// authz is the indexed state of one Authorization resource. Exactly one of
// targetName and targetSelector is set.
type authz struct {
	targetName     string
	targetSelector labels.Selector
	clients        ClientAuthz
}

// matches reports whether the authorization attaches to the named server.
func (a *authz) matches(serverName string, serverLabels labels.Set) bool {
	if a.targetName != "" {
		return a.targetName == serverName
	}
	return a.targetSelector.Matches(serverLabels)
}

// serversFor returns the servers claiming the given pod-port, ordered by
// name for deterministic conflict reporting.
func (n *namespace) serversFor(p *pod, port uint16) []*server {
	var names []string
	for name, srv := range n.servers {
		if srv.selectsPort(p, port) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make([]*server, len(names))
	for i, name := range names {
		out[i] = n.servers[name]
	}
	return out
}
