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

package server

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"

	pb "github.com/isabella232/polixy/pkg/api/polixy"
	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
	"github.com/isabella232/polixy/pkg/index"
)

func TestToProtocol(t *testing.T) {
	for _, tc := range []struct {
		in   index.ProxyProtocol
		want string
	}{
		{index.ProxyProtocol{Kind: index.ProtocolDetect, Timeout: 5 * time.Second}, "detect"},
		{index.ProxyProtocol{Kind: index.ProtocolHTTP1}, "http"},
		{index.ProxyProtocol{Kind: index.ProtocolHTTP2}, "http"},
		{index.ProxyProtocol{Kind: index.ProtocolGRPC}, "grpc"},
		{index.ProxyProtocol{Kind: index.ProtocolTLS}, "opaque"},
		{index.ProxyProtocol{Kind: index.ProtocolOpaque}, "opaque"},
	} {
		p := toProtocol(tc.in)
		var got string
		switch k := p.Kind.(type) {
		case *pb.ProxyProtocol_Detect_:
			got = "detect"
			assert.Equal(t, int64(5), k.Detect.Timeout.GetSeconds())
		case *pb.ProxyProtocol_Http_:
			got = "http"
		case *pb.ProxyProtocol_Grpc_:
			got = "grpc"
		case *pb.ProxyProtocol_Opaque_:
			got = "opaque"
		}
		assert.Equal(t, tc.want, got, "protocol %s", tc.in)
	}
}

func TestToIdentity(t *testing.T) {
	s := New(logr.Discard(), nil, "cluster.local")
	got := s.toIdentity(index.ServiceAccountRef{Namespace: "ns-a", Name: "default"})
	assert.Equal(t, "default.ns-a.serviceaccount.identity.linkerd.cluster.local", got)
}

type fixture struct {
	ix     *index.Index
	srv    *Server
	client pb.ProxyConfigServiceClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ix, err := index.New(index.Config{
		Log:             logr.Discard(),
		DefaultMode:     index.AllowAll,
		ClusterNetworks: []string{"10.0.0.0/8"},
	})
	require.NoError(t, err)

	srv := New(logr.Discard(), ix, "cluster.local")
	grpcServer := grpc.NewServer()
	srv.Register(grpcServer)

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.Dial("bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{ix: ix, srv: srv, client: pb.NewProxyConfigServiceClient(conn)}
}

// feed starts the index loop, applies the canonical pod/server/authz
// events, and waits until the join reflects all of them so the first value
// a subscriber observes is the settled one.
func (f *fixture) feed(ctx context.Context, t *testing.T, evs ...index.Event) {
	t.Helper()
	go func() { _ = f.ix.Run(ctx) }()
	for _, ev := range evs {
		f.ix.Events() <- ev
	}
	require.Eventually(t, func() bool {
		pp, ok := f.ix.Lookup("ns-a", "p", 80)
		if !ok {
			return false
		}
		cfg, _ := pp.Current(ctx)
		return cfg.Protocol.Kind == index.ProtocolHTTP1 && len(cfg.Authorizations) == 1
	}, time.Second, 10*time.Millisecond)
}

func testEvents() []index.Event {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "p", Labels: map[string]string{"app": "x"}},
		Spec: corev1.PodSpec{Containers: []corev1.Container{{
			Name:  "main",
			Ports: []corev1.ContainerPort{{ContainerPort: 80}},
		}}},
		Status: corev1.PodStatus{HostIP: "10.1.2.3"},
	}
	srv := &polixyv1.Server{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "srv"},
		Spec: polixyv1.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: map[string]string{"app": "x"}},
			Port:          intstr.FromInt32(80),
			ProxyProtocol: "HTTP/1",
		},
	}
	authz := &polixyv1.Authorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "a"},
		Spec: polixyv1.AuthorizationSpec{
			Server: polixyv1.ServerRef{Name: "srv"},
			Client: polixyv1.ClientSpec{Cidrs: []string{"10.0.0.0/8"}},
		},
	}
	return []index.Event{
		{Kind: index.KindPod, Op: index.OpApplied, Obj: pod},
		{Kind: index.KindServer, Op: index.OpApplied, Obj: srv},
		{Kind: index.KindAuthorization, Op: index.OpApplied, Obj: authz},
	}
}

func TestWatchInboundValidation(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, tc := range []struct {
		desc     string
		workload string
		port     uint32
		code     codes.Code
	}{
		{desc: "malformed workload", workload: "garbage", port: 80, code: codes.InvalidArgument},
		{desc: "zero port", workload: "ns-a:p", port: 0, code: codes.InvalidArgument},
		{desc: "port out of range", workload: "ns-a:p", port: 70000, code: codes.InvalidArgument},
		{desc: "unknown pod", workload: "ns-a:p", port: 80, code: codes.NotFound},
	} {
		stream, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: tc.workload, Port: tc.port})
		require.NoError(t, err, tc.desc)
		_, err = stream.Recv()
		require.Error(t, err, tc.desc)
		assert.Equal(t, tc.code, status.Code(err), tc.desc)
	}
}

func TestWatchInboundBasicAllow(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.feed(ctx, t, testEvents()...)

	stream, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: "ns-a:p", Port: 80})
	require.NoError(t, err)

	cfg, err := stream.Recv()
	require.NoError(t, err)

	_, ok := cfg.GetProtocol().GetKind().(*pb.ProxyProtocol_Http_)
	assert.True(t, ok, "expected http protocol, got %T", cfg.GetProtocol().GetKind())

	require.Len(t, cfg.GetAuthorizations(), 2)

	kubelet := cfg.GetAuthorizations()[0]
	assert.Equal(t, map[string]string{"authn": "false", "name": "_kubelet"}, kubelet.GetLabels())
	require.Len(t, kubelet.GetNetworks(), 1)
	assert.Equal(t, "10.1.2.3/32", kubelet.GetNetworks()[0].GetCidr())

	a := cfg.GetAuthorizations()[1]
	assert.Equal(t, map[string]string{"authn": "false", "name": "a"}, a.GetLabels())
	require.Len(t, a.GetNetworks(), 1)
	assert.Equal(t, "10.0.0.0/8", a.GetNetworks()[0].GetCidr())
}

func TestWatchInboundStreamsUpdates(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.feed(ctx, t, testEvents()...)

	stream, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: "ns-a:p", Port: 80})
	require.NoError(t, err)

	cfg, err := stream.Recv()
	require.NoError(t, err)
	require.Len(t, cfg.GetAuthorizations(), 2)

	// Deleting the authorization publishes a new value holding only the
	// implicit kubelet authorization.
	f.ix.Events() <- index.Event{Kind: index.KindAuthorization, Op: index.OpDeleted, Obj: &polixyv1.Authorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "a"},
	}}

	cfg, err = stream.Recv()
	require.NoError(t, err)
	require.Len(t, cfg.GetAuthorizations(), 1)
	assert.Equal(t, "_kubelet", cfg.GetAuthorizations()[0].GetLabels()["name"])
}

func TestWatchInboundEndsOnPodDeletion(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.feed(ctx, t, testEvents()...)

	stream, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: "ns-a:p", Port: 80})
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)

	f.ix.Events() <- index.Event{Kind: index.KindPod, Op: index.OpDeleted, Obj: &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "p"},
	}}

	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)
}

func TestWatchInboundDrain(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f.feed(ctx, t, testEvents()...)

	stream, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: "ns-a:p", Port: 80})
	require.NoError(t, err)
	_, err = stream.Recv()
	require.NoError(t, err)

	f.srv.Drain()

	// The active stream ends cleanly.
	_, err = stream.Recv()
	assert.Equal(t, io.EOF, err)

	// New subscriptions are refused.
	refused, err := f.client.WatchInbound(ctx, &pb.InboundProxyPort{Workload: "ns-a:p", Port: 80})
	require.NoError(t, err)
	_, err = refused.Recv()
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
