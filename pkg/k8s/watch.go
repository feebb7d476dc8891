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
	"fmt"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/watch"

	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
	"github.com/isabella232/polixy/pkg/index"
)

// reconnectBackoff is slept between list-watch passes so a flapping API
// server is not hammered.
const reconnectBackoff = time.Second

// Watcher presents the three resource kinds as infinite event streams. Each
// stream lists the kind (yielding a Restarted snapshot), then watches it
// (yielding Applied and Deleted events); on any transport error it logs,
// backs off, and re-lists. The streams never terminate before their context.
type Watcher struct {
	log     logr.Logger
	clients *Clients
	events  chan<- index.Event
}

func NewWatcher(log logr.Logger, clients *Clients, events chan<- index.Event) *Watcher {
	return &Watcher{log: log, clients: clients, events: events}
}

// WatchPods streams Pod events until the context is cancelled.
func (w *Watcher) WatchPods(ctx context.Context) {
	w.watch(ctx, source{
		kind: index.KindPod,
		list: func(ctx context.Context) (string, []runtime.Object, error) {
			list, err := w.clients.Core.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
			if err != nil {
				return "", nil, err
			}
			objs := make([]runtime.Object, 0, len(list.Items))
			for i := range list.Items {
				objs = append(objs, &list.Items[i])
			}
			return list.ResourceVersion, objs, nil
		},
		watch: func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
			return w.clients.Core.CoreV1().Pods(metav1.NamespaceAll).Watch(ctx, opts)
		},
		convert: func(obj runtime.Object) (runtime.Object, error) {
			p, ok := obj.(*corev1.Pod)
			if !ok {
				return nil, fmt.Errorf("unexpected object type %T", obj)
			}
			return p, nil
		},
	})
}

// WatchServers streams Server events until the context is cancelled.
func (w *Watcher) WatchServers(ctx context.Context) {
	w.watch(ctx, w.dynamicSource(index.KindServer, polixyv1.ServerResource(), func() runtime.Object {
		return &polixyv1.Server{}
	}))
}

// WatchAuthorizations streams Authorization events until the context is
// cancelled.
func (w *Watcher) WatchAuthorizations(ctx context.Context) {
	w.watch(ctx, w.dynamicSource(index.KindAuthorization, polixyv1.AuthorizationResource(), func() runtime.Object {
		return &polixyv1.Authorization{}
	}))
}

// source abstracts one watchable resource kind.
type source struct {
	kind    index.Kind
	list    func(ctx context.Context) (resourceVersion string, objs []runtime.Object, err error)
	watch   func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error)
	convert func(obj runtime.Object) (runtime.Object, error)
}

// dynamicSource watches a custom resource through the dynamic client,
// converting unstructured objects into their typed form. Objects that fail
// conversion are schema errors: logged and dropped.
func (w *Watcher) dynamicSource(kind index.Kind, gvr schema.GroupVersionResource, newObj func() runtime.Object) source {
	convert := func(obj runtime.Object) (runtime.Object, error) {
		u, ok := obj.(*unstructured.Unstructured)
		if !ok {
			return nil, fmt.Errorf("unexpected object type %T", obj)
		}
		out := newObj()
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, out); err != nil {
			return nil, fmt.Errorf("convert %s %s/%s: %w", gvr.Resource, u.GetNamespace(), u.GetName(), err)
		}
		return out, nil
	}
	return source{
		kind: kind,
		list: func(ctx context.Context) (string, []runtime.Object, error) {
			list, err := w.clients.Dynamic.Resource(gvr).Namespace(metav1.NamespaceAll).List(ctx, metav1.ListOptions{})
			if err != nil {
				return "", nil, err
			}
			objs := make([]runtime.Object, 0, len(list.Items))
			for i := range list.Items {
				obj, err := convert(&list.Items[i])
				if err != nil {
					w.log.Error(err, "dropping object from snapshot")
					continue
				}
				objs = append(objs, obj)
			}
			return list.GetResourceVersion(), objs, nil
		},
		watch: func(ctx context.Context, opts metav1.ListOptions) (watch.Interface, error) {
			return w.clients.Dynamic.Resource(gvr).Namespace(metav1.NamespaceAll).Watch(ctx, opts)
		},
		convert: convert,
	}
}

// watch runs list-watch passes forever. Transport errors are normalized
// here: the index only ever sees well-formed events.
func (w *Watcher) watch(ctx context.Context, src source) {
	log := w.log.WithValues("kind", src.kind.String())
	for ctx.Err() == nil {
		if err := w.pass(ctx, log, src); err != nil && ctx.Err() == nil {
			log.Error(err, "watch disconnected; retrying")
		}
		select {
		case <-ctx.Done():
		case <-time.After(reconnectBackoff):
		}
	}
}

// pass performs one list-then-watch cycle. A nil return means the watch
// ended cleanly and the caller should re-list.
func (w *Watcher) pass(ctx context.Context, log logr.Logger, src source) error {
	rv, objs, err := src.list(ctx)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	if !w.send(ctx, index.Event{Kind: src.kind, Op: index.OpRestarted, Snapshot: objs}) {
		return nil
	}
	log.V(1).Info("listed", "resourceVersion", rv, "objects", len(objs))

	wi, err := src.watch(ctx, metav1.ListOptions{
		ResourceVersion:     rv,
		AllowWatchBookmarks: true,
	})
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer wi.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-wi.ResultChan():
			if !ok {
				return nil
			}
			switch ev.Type {
			case watch.Added, watch.Modified:
				obj, err := src.convert(ev.Object)
				if err != nil {
					log.Error(err, "dropping event")
					continue
				}
				if !w.send(ctx, index.Event{Kind: src.kind, Op: index.OpApplied, Obj: obj}) {
					return nil
				}
			case watch.Deleted:
				obj, err := src.convert(ev.Object)
				if err != nil {
					log.Error(err, "dropping event")
					continue
				}
				if !w.send(ctx, index.Event{Kind: src.kind, Op: index.OpDeleted, Obj: obj}) {
					return nil
				}
			case watch.Bookmark:
				// Nothing to do; the next pass re-lists from scratch.
			case watch.Error:
				return apierrors.FromObject(ev.Object)
			}
		}
	}
}

func (w *Watcher) send(ctx context.Context, ev index.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case w.events <- ev:
		return true
	}
}
