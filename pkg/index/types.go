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
	"reflect"
	"time"
)

// DefaultDetectTimeout bounds protocol detection when a Server does not
// declare a protocol.
const DefaultDetectTimeout = 5 * time.Second

// ProtocolKind enumerates the protocols a Server may declare for its port.
type ProtocolKind int

const (
	ProtocolDetect ProtocolKind = iota
	ProtocolHTTP1
	ProtocolHTTP2
	ProtocolGRPC
	ProtocolTLS
	ProtocolOpaque
)

// ProxyProtocol describes how the proxy should treat connections on a port.
type ProxyProtocol struct {
	Kind ProtocolKind
	// Timeout bounds detection. Set only when Kind is ProtocolDetect.
	Timeout time.Duration
}

func (p ProxyProtocol) String() string {
	switch p.Kind {
	case ProtocolDetect:
		return fmt.Sprintf("detect(%s)", p.Timeout)
	case ProtocolHTTP1:
		return "HTTP/1"
	case ProtocolHTTP2:
		return "HTTP/2"
	case ProtocolGRPC:
		return "gRPC"
	case ProtocolTLS:
		return "TLS"
	case ProtocolOpaque:
		return "opaque"
	}
	return "unknown"
}

func detectProtocol() ProxyProtocol {
	return ProxyProtocol{Kind: ProtocolDetect, Timeout: DefaultDetectTimeout}
}

// parseProxyProtocol maps a Server's proxyProtocol field onto a protocol.
// Absent or unrecognized values fall back to detection.
func parseProxyProtocol(s string) ProxyProtocol {
	switch s {
	case "HTTP/1":
		return ProxyProtocol{Kind: ProtocolHTTP1}
	case "HTTP/2":
		return ProxyProtocol{Kind: ProtocolHTTP2}
	case "gRPC":
		return ProxyProtocol{Kind: ProtocolGRPC}
	case "TLS":
		return ProxyProtocol{Kind: ProtocolTLS}
	case "opaque":
		return ProxyProtocol{Kind: ProtocolOpaque}
	default:
		return detectProtocol()
	}
}

// ServiceAccountRef names a ServiceAccount authorized to access a server.
type ServiceAccountRef struct {
	Namespace string
	Name      string
}

// ClientAuthz describes the clients admitted by a single authorization.
// Exactly one of the fields is set.
type ClientAuthz struct {
	Unauthenticated *UnauthenticatedClients
	Authenticated   *AuthenticatedClients
}

// UnauthenticatedClients admits connections from the given networks without
// client identity.
type UnauthenticatedClients struct {
	// Networks holds normalized CIDR strings.
	Networks []string
}

// AuthenticatedClients admits connections that present one of the given TLS
// client identities.
type AuthenticatedClients struct {
	ServiceAccounts []ServiceAccountRef
	Identities      []string
	// Suffixes match identities by DNS suffix; parts are ordered from the
	// rightmost label to the leftmost.
	Suffixes [][]string
}

// Authz is a named authorization attached to a server.
type Authz struct {
	Name    string
	Clients ClientAuthz
}

// InboundServerConfig is the authoritative policy for a single pod-port: the
// protocol served on it and the ordered set of authorizations admitting
// clients to it.
type InboundServerConfig struct {
	Protocol ProxyProtocol
	// Authorizations is ordered by name, ascending.
	Authorizations []Authz
	// PolicyError marks an operator-visible error condition on the port,
	// e.g. "conflict" when more than one Server claims it. A config with a
	// policy error carries no authorizations.
	PolicyError string
}

// Equal reports structural value equality. Cell publication uses it to
// suppress redundant updates.
func (c *InboundServerConfig) Equal(o *InboundServerConfig) bool {
	return reflect.DeepEqual(c, o)
}
