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
	"sync"
)

// ConfigCell is an observable value holder for an InboundServerConfig. The
// indexer is the sole writer; any number of subscribers read concurrently.
// Readers observe the current value together with a channel that is closed
// on the next change, so intermediate updates coalesce: a slow reader only
// ever sees the latest value.
type ConfigCell struct {
	mu  sync.Mutex
	val *InboundServerConfig
	ch  chan struct{}
}

func newConfigCell(val *InboundServerConfig) *ConfigCell {
	return &ConfigCell{val: val, ch: make(chan struct{})}
}

// Current returns the cell's value and a channel that is closed when the
// value is next replaced.
func (c *ConfigCell) Current() (*InboundServerConfig, <-chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val, c.ch
}

// publish replaces the value and wakes readers. Writes that are structurally
// equal to the current value are suppressed.
func (c *ConfigCell) publish(val *InboundServerConfig) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.val.Equal(val) {
		return false
	}
	c.val = val
	close(c.ch)
	c.ch = make(chan struct{})
	return true
}

// PortCell tracks which configuration source currently governs a pod-port:
// a Server's cell, a synthesized default, or the conflict sentinel. Holding
// the source indirectly lets a Server be deleted cleanly: the port is
// repointed before the Server's cell is dropped, and subscribers re-observe
// through the port first.
type PortCell struct {
	mu     sync.Mutex
	src    *ConfigCell
	ch     chan struct{}
	done   chan struct{}
	closed bool
}

func newPortCell(src *ConfigCell) *PortCell {
	return &PortCell{src: src, ch: make(chan struct{}), done: make(chan struct{})}
}

// Current returns the governing source and a channel that is closed when the
// port is repointed at a different source.
func (p *PortCell) Current() (*ConfigCell, <-chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.src, p.ch
}

// Done is closed when the port is torn down (its pod was deleted).
func (p *PortCell) Done() <-chan struct{} {
	return p.done
}

func (p *PortCell) set(src *ConfigCell) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.src == src || p.closed {
		return
	}
	p.src = src
	close(p.ch)
	p.ch = make(chan struct{})
}

func (p *PortCell) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.done)
	}
}

// PodPort is the unit handed out by Lookup: the kubelet source networks of
// the pod and a subscription onto the port's configuration.
type PodPort struct {
	// KubeletNetworks holds the pod's kubelet source networks as CIDR
	// strings. Connections from these networks are implicitly authorized.
	KubeletNetworks []string

	cell *PortCell
}

// Current returns the port's configuration and a channel that is closed when
// the configuration may have changed. The channel is also closed when ctx is
// cancelled or the port is torn down, so callers can drive a simple
// emit-then-wait loop.
func (pp *PodPort) Current(ctx context.Context) (*InboundServerConfig, <-chan struct{}) {
	src, repointed := pp.cell.Current()
	cfg, updated := src.Current()

	changed := make(chan struct{})
	go func() {
		defer close(changed)
		select {
		case <-repointed:
		case <-updated:
		case <-pp.cell.Done():
		case <-ctx.Done():
		}
	}()
	return cfg, changed
}

// Done is closed when the port is torn down and no further values will be
// published.
func (pp *PodPort) Done() <-chan struct{} {
	return pp.cell.Done()
}
