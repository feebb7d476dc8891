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
)

// DefaultModeAnnotation selects the default inbound policy for a pod's
// unselected ports. When absent, the controller-wide default applies.
const DefaultModeAnnotation = "polixy.olix0r.net/default-inbound-policy"

// DefaultMode is the policy applied to a pod-port no Server has claimed.
type DefaultMode int

const (
	// AllowAll admits unauthenticated connections from anywhere.
	AllowAll DefaultMode = iota
	// DenyAll admits nothing.
	DenyAll
	// AuthenticatedOnly admits any authenticated client.
	AuthenticatedOnly
	// ClusterOnly admits unauthenticated connections from the cluster's
	// pod and node networks.
	ClusterOnly
)

func (m DefaultMode) String() string {
	switch m {
	case AllowAll:
		return "all-unauthenticated"
	case DenyAll:
		return "deny"
	case AuthenticatedOnly:
		return "all-authenticated"
	case ClusterOnly:
		return "cluster-unauthenticated"
	}
	return "unknown"
}

// ParseDefaultMode parses the annotation (and flag) form of a default mode.
func ParseDefaultMode(s string) (DefaultMode, error) {
	switch s {
	case "all-unauthenticated":
		return AllowAll, nil
	case "deny":
		return DenyAll, nil
	case "all-authenticated":
		return AuthenticatedOnly, nil
	case "cluster-unauthenticated":
		return ClusterOnly, nil
	}
	return AllowAll, fmt.Errorf("unrecognized default policy %q", s)
}

// defaultConfig synthesizes the virtual server config served for a pod-port
// in the given default mode.
func defaultConfig(mode DefaultMode, clusterNetworks []string) *InboundServerConfig {
	cfg := &InboundServerConfig{Protocol: detectProtocol()}
	switch mode {
	case AllowAll:
		cfg.Authorizations = []Authz{{
			Name: "default:all-unauthenticated",
			Clients: ClientAuthz{
				Unauthenticated: &UnauthenticatedClients{
					Networks: []string{"0.0.0.0/0", "::/0"},
				},
			},
		}}
	case DenyAll:
		// No authorizations.
	case AuthenticatedOnly:
		cfg.Authorizations = []Authz{{
			Name: "default:all-authenticated",
			Clients: ClientAuthz{
				Authenticated: &AuthenticatedClients{
					Suffixes: [][]string{{}},
				},
			},
		}}
	case ClusterOnly:
		cfg.Authorizations = []Authz{{
			Name: "default:cluster-unauthenticated",
			Clients: ClientAuthz{
				Unauthenticated: &UnauthenticatedClients{
					Networks: clusterNetworks,
				},
			},
		}}
	}
	return cfg
}

// conflictConfig is served for a pod-port claimed by more than one Server.
// It admits nothing beyond the implicit kubelet authorization and carries a
// diagnostic marker.
func conflictConfig() *InboundServerConfig {
	return &InboundServerConfig{
		Protocol:    detectProtocol(),
		PolicyError: "conflict",
	}
}
