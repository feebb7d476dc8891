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
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/util/intstr"

	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
)

func testIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := New(Config{
		Log:             logr.Discard(),
		DefaultMode:     AllowAll,
		ClusterNetworks: []string{"10.0.0.0/8", "192.168.0.0/16"},
	})
	if err != nil {
		t.Fatalf("build index: %s", err)
	}
	return ix
}

func testPod(ns, name string, lbls map[string]string, ports ...corev1.ContainerPort) *corev1.Pod {
	return &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name, Labels: lbls},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{{Name: "main", Ports: ports}},
		},
		Status: corev1.PodStatus{
			Phase:  corev1.PodRunning,
			HostIP: "10.1.2.3",
		},
	}
}

func testServer(ns, name string, lbls, selector map[string]string, port intstr.IntOrString, protocol string) *polixyv1.Server {
	return &polixyv1.Server{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name, Labels: lbls},
		Spec: polixyv1.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: selector},
			Port:          port,
			ProxyProtocol: protocol,
		},
	}
}

func testAuthz(ns, name string, server polixyv1.ServerRef, client polixyv1.ClientSpec) *polixyv1.Authorization {
	return &polixyv1.Authorization{
		ObjectMeta: metav1.ObjectMeta{Namespace: ns, Name: name},
		Spec:       polixyv1.AuthorizationSpec{Server: server, Client: client},
	}
}

func applied(kind Kind, obj runtime.Object) Event {
	return Event{Kind: kind, Op: OpApplied, Obj: obj}
}

func deleted(kind Kind, obj runtime.Object) Event {
	return Event{Kind: kind, Op: OpDeleted, Obj: obj}
}

func restarted(kind Kind, objs ...runtime.Object) Event {
	return Event{Kind: kind, Op: OpRestarted, Snapshot: objs}
}

func currentConfig(t *testing.T, ix *Index, ns, pod string, port uint16) *InboundServerConfig {
	t.Helper()
	pp, ok := ix.Lookup(ns, pod, port)
	if !ok {
		t.Fatalf("no lookup entry for %s/%s:%d", ns, pod, port)
	}
	cfg, _ := pp.Current(context.Background())
	return cfg
}

func allowAllConfig() *InboundServerConfig {
	return &InboundServerConfig{
		Protocol: ProxyProtocol{Kind: ProtocolDetect, Timeout: 5 * time.Second},
		Authorizations: []Authz{{
			Name: "default:all-unauthenticated",
			Clients: ClientAuthz{
				Unauthenticated: &UnauthenticatedClients{Networks: []string{"0.0.0.0/0", "::/0"}},
			},
		}},
	}
}

func TestPodDefaultPolicy(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))

	if diff := cmp.Diff(allowAllConfig(), currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	pp, ok := ix.Lookup("ns-a", "p", 80)
	if !ok {
		t.Fatal("expected lookup entry")
	}
	if diff := cmp.Diff([]string{"10.1.2.3/32"}, pp.KubeletNetworks); diff != "" {
		t.Errorf("unexpected kubelet networks (-want +got):\n%s", diff)
	}

	// Undeclared ports are not served.
	if _, ok := ix.Lookup("ns-a", "p", 81); ok {
		t.Error("expected no lookup entry for undeclared port")
	}
}

func TestDefaultModeAnnotation(t *testing.T) {
	ix := testIndex(t)
	pod := testPod("ns-a", "p", nil, corev1.ContainerPort{ContainerPort: 80})
	pod.Annotations = map[string]string{DefaultModeAnnotation: "deny"}
	ix.handle(applied(KindPod, pod))

	want := &InboundServerConfig{Protocol: ProxyProtocol{Kind: ProtocolDetect, Timeout: 5 * time.Second}}
	if diff := cmp.Diff(want, currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestServerGovernsPort(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/1")))
	ix.handle(applied(KindAuthorization, testAuthz("ns-a", "a",
		polixyv1.ServerRef{Name: "srv"},
		polixyv1.ClientSpec{Cidrs: []string{"10.0.0.0/8"}})))

	want := &InboundServerConfig{
		Protocol: ProxyProtocol{Kind: ProtocolHTTP1},
		Authorizations: []Authz{{
			Name: "a",
			Clients: ClientAuthz{
				Unauthenticated: &UnauthenticatedClients{Networks: []string{"10.0.0.0/8"}},
			},
		}},
	}
	if diff := cmp.Diff(want, currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestServerByPortName(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 9090, Name: "admin"})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromString("admin"), "gRPC")))

	got := currentConfig(t, ix, "ns-a", "p", 9090)
	if got.Protocol.Kind != ProtocolGRPC {
		t.Errorf("expected gRPC protocol, got %s", got.Protocol)
	}

	// A name the pod does not declare is non-matching, not an error: it
	// neither claims the port nor conflicts with the server that does.
	ix.handle(applied(KindServer, testServer("ns-a", "other", nil, map[string]string{"app": "x"},
		intstr.FromString("debug"), "")))
	got = currentConfig(t, ix, "ns-a", "p", 9090)
	if got.Protocol.Kind != ProtocolGRPC || got.PolicyError != "" {
		t.Errorf("expected named server to keep governing the port, got %+v", got)
	}
}

func TestAuthzBySelectorDetaches(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", map[string]string{"role": "edge"},
		map[string]string{"app": "x"}, intstr.FromInt32(80), "HTTP/2")))
	ix.handle(applied(KindAuthorization, testAuthz("ns-a", "a",
		polixyv1.ServerRef{Selector: &metav1.LabelSelector{MatchLabels: map[string]string{"role": "edge"}}},
		polixyv1.ClientSpec{Unauthenticated: true})))

	got := currentConfig(t, ix, "ns-a", "p", 80)
	if len(got.Authorizations) != 1 || got.Authorizations[0].Name != "a" {
		t.Fatalf("expected authorization a attached, got %+v", got.Authorizations)
	}

	pp, _ := ix.Lookup("ns-a", "p", 80)
	_, changed := pp.Current(context.Background())

	// Relabeling the server detaches the authorization and publishes a new
	// value.
	ix.handle(applied(KindServer, testServer("ns-a", "srv", map[string]string{"role": "internal"},
		map[string]string{"app": "x"}, intstr.FromInt32(80), "HTTP/2")))

	select {
	case <-changed:
	case <-time.After(time.Second):
		t.Fatal("expected a new value after server relabel")
	}
	got = currentConfig(t, ix, "ns-a", "p", 80)
	if len(got.Authorizations) != 0 {
		t.Errorf("expected no authorizations after relabel, got %+v", got.Authorizations)
	}
}

func TestConflict(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv-1", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/1")))
	ix.handle(applied(KindServer, testServer("ns-a", "srv-2", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/2")))

	want := &InboundServerConfig{
		Protocol:    ProxyProtocol{Kind: ProtocolDetect, Timeout: 5 * time.Second},
		PolicyError: "conflict",
	}
	if diff := cmp.Diff(want, currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config (-want +got):\n%s", diff)
	}

	// Deleting one server publishes the survivor's config.
	ix.handle(deleted(KindServer, testServer("ns-a", "srv-2", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/2")))
	got := currentConfig(t, ix, "ns-a", "p", 80)
	if got.Protocol.Kind != ProtocolHTTP1 || got.PolicyError != "" {
		t.Errorf("expected surviving server's config, got %+v", got)
	}
}

func TestRestartPrunesServers(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/1")))

	if got := currentConfig(t, ix, "ns-a", "p", 80); got.Protocol.Kind != ProtocolHTTP1 {
		t.Fatalf("expected server to govern the port, got %+v", got)
	}

	// A snapshot that omits the server deletes it; the port reverts to the
	// namespace default.
	ix.handle(restarted(KindServer))
	if diff := cmp.Diff(allowAllConfig(), currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config after restart (-want +got):\n%s", diff)
	}
}

func TestRestartIsIdempotent(t *testing.T) {
	ix := testIndex(t)
	pod := testPod("ns-a", "p", map[string]string{"app": "x"}, corev1.ContainerPort{ContainerPort: 80})
	srv := testServer("ns-a", "srv", nil, map[string]string{"app": "x"}, intstr.FromInt32(80), "HTTP/1")

	ix.handle(applied(KindPod, pod))
	ix.handle(applied(KindServer, srv))
	want := currentConfig(t, ix, "ns-a", "p", 80)

	pp, _ := ix.Lookup("ns-a", "p", 80)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, changed := pp.Current(ctx)

	// Replaying the same state as snapshots must neither change the value
	// nor wake subscribers.
	ix.handle(restarted(KindPod, pod))
	ix.handle(restarted(KindServer, srv))

	select {
	case <-changed:
		t.Fatal("unexpected wakeup after redundant restart")
	case <-time.After(50 * time.Millisecond):
	}
	if diff := cmp.Diff(want, currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("config changed after redundant restart (-want +got):\n%s", diff)
	}
}

func TestPodRelabelRevertsToDefault(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "opaque")))

	if got := currentConfig(t, ix, "ns-a", "p", 80); got.Protocol.Kind != ProtocolOpaque {
		t.Fatalf("expected server to govern the port, got %+v", got)
	}

	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "y"},
		corev1.ContainerPort{ContainerPort: 80})))
	if diff := cmp.Diff(allowAllConfig(), currentConfig(t, ix, "ns-a", "p", 80)); diff != "" {
		t.Errorf("unexpected config after relabel (-want +got):\n%s", diff)
	}
}

func TestPodDeletionTearsDown(t *testing.T) {
	ix := testIndex(t)
	pod := testPod("ns-a", "p", nil, corev1.ContainerPort{ContainerPort: 80})
	ix.handle(applied(KindPod, pod))

	pp, ok := ix.Lookup("ns-a", "p", 80)
	if !ok {
		t.Fatal("expected lookup entry")
	}

	ix.handle(deleted(KindPod, pod))
	select {
	case <-pp.Done():
	case <-time.After(time.Second):
		t.Fatal("expected subscription teardown on pod deletion")
	}
	if _, ok := ix.Lookup("ns-a", "p", 80); ok {
		t.Error("expected lookup entry to be withdrawn")
	}
}

func TestMalformedAuthzDropped(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/1")))

	// Both a name and a selector: schema error, dropped without touching
	// other state.
	ix.handle(applied(KindAuthorization, testAuthz("ns-a", "bad",
		polixyv1.ServerRef{
			Name:     "srv",
			Selector: &metav1.LabelSelector{},
		},
		polixyv1.ClientSpec{Unauthenticated: true})))

	got := currentConfig(t, ix, "ns-a", "p", 80)
	if len(got.Authorizations) != 0 {
		t.Errorf("expected malformed authorization to be dropped, got %+v", got.Authorizations)
	}
}

func TestAuthenticatedClients(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "TLS")))
	ix.handle(applied(KindAuthorization, testAuthz("ns-a", "a",
		polixyv1.ServerRef{Name: "srv"},
		polixyv1.ClientSpec{
			Identities:      []string{"client.ns-a.example.com", "*.example.org", "*"},
			ServiceAccounts: []polixyv1.ServiceAccountRef{{Name: "default"}},
		})))

	want := ClientAuthz{
		Authenticated: &AuthenticatedClients{
			ServiceAccounts: []ServiceAccountRef{{Namespace: "ns-a", Name: "default"}},
			Identities:      []string{"client.ns-a.example.com"},
			Suffixes:        [][]string{{"org", "example"}, {}},
		},
	}
	got := currentConfig(t, ix, "ns-a", "p", 80)
	if len(got.Authorizations) != 1 {
		t.Fatalf("expected one authorization, got %+v", got.Authorizations)
	}
	if diff := cmp.Diff(want, got.Authorizations[0].Clients); diff != "" {
		t.Errorf("unexpected clients (-want +got):\n%s", diff)
	}
}

func TestAuthzOrdering(t *testing.T) {
	ix := testIndex(t)
	ix.handle(applied(KindPod, testPod("ns-a", "p", map[string]string{"app": "x"},
		corev1.ContainerPort{ContainerPort: 80})))
	ix.handle(applied(KindServer, testServer("ns-a", "srv", nil, map[string]string{"app": "x"},
		intstr.FromInt32(80), "HTTP/1")))
	for _, name := range []string{"zulu", "alpha", "mike"} {
		ix.handle(applied(KindAuthorization, testAuthz("ns-a", name,
			polixyv1.ServerRef{Name: "srv"},
			polixyv1.ClientSpec{Unauthenticated: true})))
	}

	got := currentConfig(t, ix, "ns-a", "p", 80)
	var names []string
	for _, a := range got.Authorizations {
		names = append(names, a.Name)
	}
	if diff := cmp.Diff([]string{"alpha", "mike", "zulu"}, names); diff != "" {
		t.Errorf("unexpected ordering (-want +got):\n%s", diff)
	}
}
