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

package k8s

import (
	"context"
	"testing"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/intstr"
	"k8s.io/apimachinery/pkg/watch"
	dynamicfake "k8s.io/client-go/dynamic/fake"
	kubefake "k8s.io/client-go/kubernetes/fake"
	k8stesting "k8s.io/client-go/testing"

	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
	"github.com/isabella232/polixy/pkg/index"
)

func recvEvent(t *testing.T, ch <-chan index.Event) index.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return index.Event{}
	}
}

func TestWatchPods(t *testing.T) {
	existing := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "p"}}
	client := kubefake.NewSimpleClientset(existing)
	fw := watch.NewFakeWithChanSize(8, false)
	client.PrependWatchReactor("pods", k8stesting.DefaultWatchReactor(fw, nil))

	events := make(chan index.Event, 16)
	w := NewWatcher(logr.Discard(), &Clients{Core: client}, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.WatchPods(ctx)

	// The initial list is presented as a snapshot.
	ev := recvEvent(t, events)
	if ev.Kind != index.KindPod || ev.Op != index.OpRestarted {
		t.Fatalf("expected pod snapshot, got %s/%s", ev.Kind, ev.Op)
	}
	if len(ev.Snapshot) != 1 {
		t.Fatalf("expected one pod in snapshot, got %d", len(ev.Snapshot))
	}
	if p, ok := ev.Snapshot[0].(*corev1.Pod); !ok || p.Name != "p" {
		t.Fatalf("unexpected snapshot object %#v", ev.Snapshot[0])
	}

	// Watch events map onto Applied and Deleted.
	added := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "q"}}
	fw.Add(added)
	ev = recvEvent(t, events)
	if ev.Op != index.OpApplied {
		t.Fatalf("expected applied, got %s", ev.Op)
	}

	fw.Modify(added)
	ev = recvEvent(t, events)
	if ev.Op != index.OpApplied {
		t.Fatalf("expected applied for modify, got %s", ev.Op)
	}

	fw.Delete(added)
	ev = recvEvent(t, events)
	if ev.Op != index.OpDeleted {
		t.Fatalf("expected deleted, got %s", ev.Op)
	}
}

func TestWatchServersConverts(t *testing.T) {
	scheme := runtime.NewScheme()
	if err := polixyv1.AddToScheme(scheme); err != nil {
		t.Fatalf("build scheme: %s", err)
	}

	srv := &polixyv1.Server{
		TypeMeta:   metav1.TypeMeta{APIVersion: polixyv1.SchemeGroupVersion.String(), Kind: "Server"},
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns-a", Name: "srv"},
		Spec: polixyv1.ServerSpec{
			PodSelector:   &metav1.LabelSelector{MatchLabels: map[string]string{"app": "x"}},
			Port:          intstr.FromInt32(80),
			ProxyProtocol: "HTTP/1",
		},
	}
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			polixyv1.ServerResource():        "ServerList",
			polixyv1.AuthorizationResource(): "AuthorizationList",
		},
		srv,
	)

	events := make(chan index.Event, 16)
	w := NewWatcher(logr.Discard(), &Clients{Dynamic: dyn}, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.WatchServers(ctx)

	ev := recvEvent(t, events)
	if ev.Kind != index.KindServer || ev.Op != index.OpRestarted {
		t.Fatalf("expected server snapshot, got %s/%s", ev.Kind, ev.Op)
	}
	if len(ev.Snapshot) != 1 {
		t.Fatalf("expected one server in snapshot, got %d", len(ev.Snapshot))
	}
	got, ok := ev.Snapshot[0].(*polixyv1.Server)
	if !ok {
		t.Fatalf("unexpected snapshot object %#v", ev.Snapshot[0])
	}
	if got.Spec.Port.IntValue() != 80 || got.Spec.ProxyProtocol != "HTTP/1" {
		t.Errorf("lost spec fields in conversion: %+v", got.Spec)
	}
	if got.Spec.PodSelector == nil || got.Spec.PodSelector.MatchLabels["app"] != "x" {
		t.Errorf("lost pod selector in conversion: %+v", got.Spec.PodSelector)
	}
}

func TestWatchDropsUnconvertible(t *testing.T) {
	// The typed Server kinds are left out of the scheme: with them
	// registered, the fake client decodes its stored objects into a typed
	// ServerList and fails the list before the watcher sees the object.
	scheme := runtime.NewScheme()

	// A spec whose port is an object fails conversion and is dropped from
	// the snapshot; the stream itself stays healthy.
	bad := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": polixyv1.SchemeGroupVersion.String(),
		"kind":       "Server",
		"metadata":   map[string]interface{}{"namespace": "ns-a", "name": "bad"},
		"spec": map[string]interface{}{
			"port": map[string]interface{}{"bogus": true},
		},
	}}
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(scheme,
		map[schema.GroupVersionResource]string{
			polixyv1.ServerResource():        "ServerList",
			polixyv1.AuthorizationResource(): "AuthorizationList",
		},
		bad,
	)

	events := make(chan index.Event, 16)
	w := NewWatcher(logr.Discard(), &Clients{Dynamic: dyn}, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.WatchServers(ctx)

	ev := recvEvent(t, events)
	if ev.Op != index.OpRestarted {
		t.Fatalf("expected snapshot, got %s", ev.Op)
	}
	if len(ev.Snapshot) != 0 {
		t.Errorf("expected unconvertible object to be dropped, got %d objects", len(ev.Snapshot))
	}
}
