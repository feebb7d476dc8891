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

// Package index maintains a reactive in-memory join over pods, Servers, and
// Authorizations and exposes a watchable inbound configuration for every
// observed pod-port.
//
// A single goroutine owns all mutable state and applies events serially.
// Everything handed out of the package - the lookup results and the
// observable cells behind them - is safe for concurrent readers.
package index

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"
	netutils "k8s.io/utils/net"

	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
)

const eventBuffer = 256

// Config carries the cluster-wide indexing defaults.
type Config struct {
	Log logr.Logger
	// DefaultMode applies to pods that do not select a default policy by
	// annotation.
	DefaultMode DefaultMode
	// ClusterNetworks are the cluster's pod and node CIDRs, used by the
	// cluster-unauthenticated default policy.
	ClusterNetworks []string
}

// Index is the join engine and lookup registry. Run drains the event
// channel; Lookup serves read-only subscriptions.
type Index struct {
	log    logr.Logger
	events chan Event

	defaultMode  DefaultMode
	defaultCells map[DefaultMode]*ConfigCell
	conflictCell *ConfigCell

	// namespaces is owned by the Run goroutine and never accessed outside
	// it. lookups is the only shared table; it is updated by Run under mu
	// and read by subscribers.
	namespaces map[string]*namespace

	mu      sync.RWMutex
	lookups map[podPortKey]*PodPort
}

type podPortKey struct {
	namespace string
	pod       string
	port      uint16
}

// New builds an Index. The cluster networks are validated and normalized.
func New(cfg Config) (*Index, error) {
	nets := make([]string, 0, len(cfg.ClusterNetworks))
	for _, c := range cfg.ClusterNetworks {
		_, n, err := netutils.ParseCIDRSloppy(c)
		if err != nil {
			return nil, fmt.Errorf("invalid cluster network %q: %w", c, err)
		}
		nets = append(nets, n.String())
	}

	ix := &Index{
		log:          cfg.Log,
		events:       make(chan Event, eventBuffer),
		defaultMode:  cfg.DefaultMode,
		defaultCells: make(map[DefaultMode]*ConfigCell),
		conflictCell: newConfigCell(conflictConfig()),
		namespaces:   make(map[string]*namespace),
		lookups:      make(map[podPortKey]*PodPort),
	}
	for _, mode := range []DefaultMode{AllowAll, DenyAll, AuthenticatedOnly, ClusterOnly} {
		ix.defaultCells[mode] = newConfigCell(defaultConfig(mode, nets))
	}
	return ix, nil
}

// Events is the channel watch adapters feed.
func (ix *Index) Events() chan<- Event {
	return ix.events
}

// Lookup returns the subscription for a pod-port, or false if the pod has
// not been observed or does not declare the port.
func (ix *Index) Lookup(ns, pod string, port uint16) (*PodPort, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	pp, ok := ix.lookups[podPortKey{namespace: ns, pod: pod, port: port}]
	return pp, ok
}

// Run processes events until the context is cancelled. It must be called
// exactly once.
func (ix *Index) Run(ctx context.Context) error {
	ix.log.Info("indexer running")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-ix.events:
			ix.handle(ev)
		}
	}
}

func (ix *Index) handle(ev Event) {
	metricEvents.WithLabelValues(ev.Kind.String(), ev.Op.String()).Inc()
	switch ev.Kind {
	case KindPod:
		ix.handlePod(ev)
	case KindServer:
		ix.handleServer(ev)
	case KindAuthorization:
		ix.handleAuthz(ev)
	}
}

func (ix *Index) dropEvent(ev Event, err error) {
	metricDropped.WithLabelValues(ev.Kind.String()).Inc()
	ix.log.Error(err, "dropping event", "kind", ev.Kind.String(), "op", ev.Op.String())
}

func (ix *Index) ns(name string) *namespace {
	n, ok := ix.namespaces[name]
	if !ok {
		n = newNamespace()
		ix.namespaces[name] = n
	}
	return n
}

// reconcile recomputes a namespace's derived state from its tables and
// publishes it: every server's config is computed once and written once to
// its cell, then every declared pod-port is bound to its governing source.
// Writes equal to the current value are suppressed by the cells, so a
// subscriber never observes two adjacent equal values.
func (ix *Index) reconcile(nsName string, n *namespace) {
	for name, srv := range n.servers {
		attached := make(map[string]ClientAuthz)
		for authzName, az := range n.authzs {
			if az.matches(name, srv.labels) {
				attached[authzName] = az.clients
			}
		}
		srv.authzs = attached
		if srv.cell.publish(srv.config()) {
			metricUpdates.Inc()
		}
	}

	for podName, p := range n.pods {
		for port, st := range p.ports {
			matching := n.serversFor(p, port)
			switch {
			case len(matching) == 0:
				st.cell.set(ix.defaultCells[p.mode])
				st.conflicted = false
			case len(matching) == 1:
				st.cell.set(matching[0].cell)
				st.conflicted = false
			default:
				if !st.conflicted {
					ix.log.Info("multiple servers claim pod port",
						"namespace", nsName, "pod", podName, "port", port)
				}
				st.conflicted = true
				st.cell.set(ix.conflictCell)
			}
		}
	}

	if n.empty() {
		delete(ix.namespaces, nsName)
	}
}

func (ix *Index) handlePod(ev Event) {
	switch ev.Op {
	case OpApplied:
		obj, ok := ev.Obj.(*corev1.Pod)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		n := ix.ns(obj.Namespace)
		ix.applyPod(n, obj)
		ix.reconcile(obj.Namespace, n)

	case OpDeleted:
		obj, ok := ev.Obj.(*corev1.Pod)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		n, ok := ix.namespaces[obj.Namespace]
		if !ok {
			return
		}
		ix.removePod(n, obj.Namespace, obj.Name)
		ix.reconcile(obj.Namespace, n)

	case OpRestarted:
		ix.restartPods(ev)
	}
}

// applyPod installs or replaces a pod's row. Cells of ports that survive a
// replacement are carried over so subscriptions stay live; removed ports are
// torn down.
func (ix *Index) applyPod(n *namespace, obj *corev1.Pod) {
	fresh := ix.mkPod(obj)

	if prev, ok := n.pods[obj.Name]; ok {
		for port, st := range prev.ports {
			if _, keep := fresh.ports[port]; keep {
				fresh.ports[port] = st
			} else {
				st.cell.close()
				ix.dropLookup(obj.Namespace, obj.Name, port)
			}
		}
	}
	for port, st := range fresh.ports {
		if st.cell == nil {
			st.cell = newPortCell(ix.defaultCells[fresh.mode])
		}
		ix.setLookup(obj.Namespace, obj.Name, port, &PodPort{
			KubeletNetworks: fresh.kubeletNets,
			cell:            st.cell,
		})
	}
	n.pods[obj.Name] = fresh
}

// removePod tears down a pod's row: its port cells end their subscriptions
// and its lookup entries are withdrawn.
func (ix *Index) removePod(n *namespace, nsName, name string) {
	p, ok := n.pods[name]
	if !ok {
		return
	}
	for port, st := range p.ports {
		st.cell.close()
		ix.dropLookup(nsName, name, port)
	}
	delete(n.pods, name)
}

func (ix *Index) restartPods(ev Event) {
	type key struct{ ns, name string }
	seen := make(map[key]struct{}, len(ev.Snapshot))
	pods := make([]*corev1.Pod, 0, len(ev.Snapshot))
	for _, o := range ev.Snapshot {
		p, ok := o.(*corev1.Pod)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T in snapshot", o))
			continue
		}
		seen[key{p.Namespace, p.Name}] = struct{}{}
		pods = append(pods, p)
	}

	// Prune then apply; derived state is published only once both phases
	// are complete.
	dirty := make(map[string]*namespace)
	for nsName, n := range ix.namespaces {
		for name := range n.pods {
			if _, ok := seen[key{nsName, name}]; !ok {
				ix.removePod(n, nsName, name)
				dirty[nsName] = n
			}
		}
	}
	for _, p := range pods {
		n := ix.ns(p.Namespace)
		ix.applyPod(n, p)
		dirty[p.Namespace] = n
	}
	for nsName, n := range dirty {
		ix.reconcile(nsName, n)
	}
}

func (ix *Index) handleServer(ev Event) {
	switch ev.Op {
	case OpApplied:
		obj, ok := ev.Obj.(*polixyv1.Server)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		srv, err := mkServer(obj)
		if err != nil {
			ix.dropEvent(ev, err)
			return
		}
		n := ix.ns(obj.Namespace)
		ix.installServer(n, obj.Name, srv)
		ix.reconcile(obj.Namespace, n)

	case OpDeleted:
		obj, ok := ev.Obj.(*polixyv1.Server)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		n, ok := ix.namespaces[obj.Namespace]
		if !ok {
			return
		}
		delete(n.servers, obj.Name)
		ix.reconcile(obj.Namespace, n)

	case OpRestarted:
		ix.restartServers(ev)
	}
}

// installServer installs or replaces a server's row. A replaced server keeps
// its cell so pod-ports it governs observe the update in place.
func (ix *Index) installServer(n *namespace, name string, srv *server) {
	if prev, ok := n.servers[name]; ok {
		srv.cell = prev.cell
	} else {
		srv.cell = newConfigCell(&InboundServerConfig{Protocol: srv.protocol})
	}
	n.servers[name] = srv
}

func (ix *Index) restartServers(ev Event) {
	type key struct{ ns, name string }
	seen := make(map[key]struct{}, len(ev.Snapshot))
	servers := make([]*polixyv1.Server, 0, len(ev.Snapshot))
	for _, o := range ev.Snapshot {
		s, ok := o.(*polixyv1.Server)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T in snapshot", o))
			continue
		}
		seen[key{s.Namespace, s.Name}] = struct{}{}
		servers = append(servers, s)
	}

	dirty := make(map[string]*namespace)
	for nsName, n := range ix.namespaces {
		for name := range n.servers {
			if _, ok := seen[key{nsName, name}]; !ok {
				delete(n.servers, name)
				dirty[nsName] = n
			}
		}
	}
	for _, s := range servers {
		srv, err := mkServer(s)
		if err != nil {
			ix.dropEvent(ev, err)
			continue
		}
		n := ix.ns(s.Namespace)
		ix.installServer(n, s.Name, srv)
		dirty[s.Namespace] = n
	}
	for nsName, n := range dirty {
		ix.reconcile(nsName, n)
	}
}

func (ix *Index) handleAuthz(ev Event) {
	switch ev.Op {
	case OpApplied:
		obj, ok := ev.Obj.(*polixyv1.Authorization)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		a, err := mkAuthz(obj)
		if err != nil {
			ix.dropEvent(ev, err)
			return
		}
		n := ix.ns(obj.Namespace)
		n.authzs[obj.Name] = a
		ix.reconcile(obj.Namespace, n)

	case OpDeleted:
		obj, ok := ev.Obj.(*polixyv1.Authorization)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T", ev.Obj))
			return
		}
		n, ok := ix.namespaces[obj.Namespace]
		if !ok {
			return
		}
		delete(n.authzs, obj.Name)
		ix.reconcile(obj.Namespace, n)

	case OpRestarted:
		ix.restartAuthzs(ev)
	}
}

func (ix *Index) restartAuthzs(ev Event) {
	type key struct{ ns, name string }
	seen := make(map[key]struct{}, len(ev.Snapshot))
	authzs := make([]*polixyv1.Authorization, 0, len(ev.Snapshot))
	for _, o := range ev.Snapshot {
		a, ok := o.(*polixyv1.Authorization)
		if !ok {
			ix.dropEvent(ev, fmt.Errorf("unexpected object type %T in snapshot", o))
			continue
		}
		seen[key{a.Namespace, a.Name}] = struct{}{}
		authzs = append(authzs, a)
	}

	dirty := make(map[string]*namespace)
	for nsName, n := range ix.namespaces {
		for name := range n.authzs {
			if _, ok := seen[key{nsName, name}]; !ok {
				delete(n.authzs, name)
				dirty[nsName] = n
			}
		}
	}
	for _, a := range authzs {
		row, err := mkAuthz(a)
		if err != nil {
			ix.dropEvent(ev, err)
			continue
		}
		n := ix.ns(a.Namespace)
		n.authzs[a.Name] = row
		dirty[a.Namespace] = n
	}
	for nsName, n := range dirty {
		ix.reconcile(nsName, n)
	}
}

func (ix *Index) setLookup(ns, pod string, port uint16, pp *PodPort) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.lookups[podPortKey{namespace: ns, pod: pod, port: port}] = pp
}

func (ix *Index) dropLookup(ns, pod string, port uint16) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	delete(ix.lookups, podPortKey{namespace: ns, pod: pod, port: port})
}
