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

// Package server translates WatchInbound subscriptions into index lookups
// and streams each published configuration to the proxy.
package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	pb "github.com/isabella232/polixy/pkg/api/polixy"
	"github.com/isabella232/polixy/pkg/index"
)

// Registry is the read side of the index.
type Registry interface {
	Lookup(ns, pod string, port uint16) (*index.PodPort, bool)
}

// Server implements the ProxyConfigService.
type Server struct {
	pb.UnimplementedProxyConfigServiceServer

	log            logr.Logger
	registry       Registry
	identityDomain string

	drainOnce sync.Once
	draining  chan struct{}
}

// New builds a Server that resolves subscriptions against the registry and
// renders service-account identities under the given domain.
func New(log logr.Logger, registry Registry, identityDomain string) *Server {
	return &Server{
		log:            log,
		registry:       registry,
		identityDomain: identityDomain,
		draining:       make(chan struct{}),
	}
}

// Register registers the service on a gRPC server.
func (s *Server) Register(g *grpc.Server) {
	pb.RegisterProxyConfigServiceServer(g, s)
}

// Drain stops admitting new subscriptions and lets active streams finish
// their in-flight send.
func (s *Server) Drain() {
	s.drainOnce.Do(func() { close(s.draining) })
}

func (s *Server) isDraining() bool {
	select {
	case <-s.draining:
		return true
	default:
		return false
	}
}

// WatchInbound validates the subscription, resolves it against the registry,
// and then emits the current configuration followed by every subsequent
// distinct value. The stream ends when the client goes away, the pod-port is
// torn down, or the server drains.
func (s *Server) WatchInbound(req *pb.InboundProxyPort, stream pb.ProxyConfigService_WatchInboundServer) error {
	if s.isDraining() {
		return status.Error(codes.Unavailable, "server is shutting down")
	}

	parts := strings.SplitN(req.GetWorkload(), ":", 2)
	if len(parts) != 2 {
		return status.Errorf(codes.InvalidArgument, "invalid workload: %s", req.GetWorkload())
	}
	ns, pod := parts[0], parts[1]

	if req.GetPort() == 0 || req.GetPort() > 65535 {
		return status.Errorf(codes.InvalidArgument, "invalid port: %d", req.GetPort())
	}
	port := uint16(req.GetPort())

	// If the pod hasn't (yet) been indexed this is a miss; the registry
	// does not wait for it to appear.
	pp, ok := s.registry.Lookup(ns, pod, port)
	if !ok {
		return status.Errorf(codes.NotFound, "unknown pod ns=%s name=%s port=%d", ns, pod, port)
	}

	// Traffic is always permitted from the pod's kubelet networks.
	kubelet := kubeletAuthz(pp.KubeletNetworks)

	log := s.log.WithValues("namespace", ns, "pod", pod, "port", port)
	log.V(1).Info("subscription opened")
	defer log.V(1).Info("subscription closed")

	ctx := stream.Context()
	var last *index.InboundServerConfig
	for {
		cfg, changed := pp.Current(ctx)
		if !cfg.Equal(last) {
			if err := stream.Send(s.toConfig(cfg, kubelet)); err != nil {
				return err
			}
			last = cfg
		}
		select {
		case <-ctx.Done():
			return nil
		case <-pp.Done():
			return nil
		case <-s.draining:
			return nil
		case <-changed:
		}
	}
}

// toConfig renders a config value into the wire message, prepending the
// implicit kubelet authorization.
func (s *Server) toConfig(cfg *index.InboundServerConfig, kubelet *pb.Authorization) *pb.InboundProxyConfig {
	authzs := make([]*pb.Authorization, 0, len(cfg.Authorizations)+1)
	authzs = append(authzs, kubelet)
	for _, a := range cfg.Authorizations {
		authzs = append(authzs, s.toAuthz(a))
	}
	return &pb.InboundProxyConfig{
		Authorizations: authzs,
		Protocol:       toProtocol(cfg.Protocol),
	}
}

// toProtocol maps protocols onto the wire variants. HTTP/1 and HTTP/2 both
// encode as Http; TLS has no wire counterpart yet and encodes as Opaque.
func toProtocol(p index.ProxyProtocol) *pb.ProxyProtocol {
	switch p.Kind {
	case index.ProtocolHTTP1, index.ProtocolHTTP2:
		return &pb.ProxyProtocol{Kind: &pb.ProxyProtocol_Http_{Http: &pb.ProxyProtocol_Http{}}}
	case index.ProtocolGRPC:
		return &pb.ProxyProtocol{Kind: &pb.ProxyProtocol_Grpc_{Grpc: &pb.ProxyProtocol_Grpc{}}}
	case index.ProtocolTLS, index.ProtocolOpaque:
		return &pb.ProxyProtocol{Kind: &pb.ProxyProtocol_Opaque_{Opaque: &pb.ProxyProtocol_Opaque{}}}
	default:
		return &pb.ProxyProtocol{Kind: &pb.ProxyProtocol_Detect_{Detect: &pb.ProxyProtocol_Detect{
			Timeout: durationpb.New(p.Timeout),
		}}}
	}
}

func (s *Server) toAuthz(a index.Authz) *pb.Authorization {
	if un := a.Clients.Unauthenticated; un != nil {
		return &pb.Authorization{
			Networks: toNetworks(un.Networks),
			Labels: map[string]string{
				"authn": "false",
				"name":  a.Name,
			},
		}
	}

	// Authenticated connections must have TLS and apply to all networks.
	auth := a.Clients.Authenticated
	identities := make([]string, 0, len(auth.Identities)+len(auth.ServiceAccounts))
	identities = append(identities, auth.Identities...)
	for _, sa := range auth.ServiceAccounts {
		identities = append(identities, s.toIdentity(sa))
	}
	suffixes := make([]*pb.Suffix, 0, len(auth.Suffixes))
	for _, sfx := range auth.Suffixes {
		suffixes = append(suffixes, &pb.Suffix{Parts: sfx})
	}
	return &pb.Authorization{
		Networks: toNetworks([]string{"0.0.0.0/0", "::/0"}),
		TlsTerminated: &pb.Tls{
			ClientId: &pb.IdMatch{
				Identities: identities,
				Suffixes:   suffixes,
			},
		},
		Labels: map[string]string{
			"authn": "true",
			"name":  a.Name,
		},
	}
}

func (s *Server) toIdentity(sa index.ServiceAccountRef) string {
	return fmt.Sprintf("%s.%s.serviceaccount.identity.linkerd.%s", sa.Name, sa.Namespace, s.identityDomain)
}

func kubeletAuthz(networks []string) *pb.Authorization {
	return &pb.Authorization{
		Networks: toNetworks(networks),
		Labels: map[string]string{
			"authn": "false",
			"name":  "_kubelet",
		},
	}
}

func toNetworks(cidrs []string) []*pb.Network {
	out := make([]*pb.Network, 0, len(cidrs))
	for _, c := range cidrs {
		out = append(out, &pb.Network{Cidr: c})
	}
	return out
}
