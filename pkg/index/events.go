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
	"k8s.io/apimachinery/pkg/runtime"
)

// Kind identifies the resource kind an event refers to.
type Kind int

const (
	KindPod Kind = iota
	KindServer
	KindAuthorization
)

func (k Kind) String() string {
	switch k {
	case KindPod:
		return "pod"
	case KindServer:
		return "server"
	case KindAuthorization:
		return "authorization"
	}
	return "unknown"
}

// Op identifies what happened to the resource.
type Op int

const (
	// OpApplied reports that a resource was created or updated.
	OpApplied Op = iota
	// OpDeleted reports that a resource was removed.
	OpDeleted
	// OpRestarted reports a full snapshot of a resource kind. Resources of
	// the kind that are absent from the snapshot no longer exist.
	OpRestarted
)

func (o Op) String() string {
	switch o {
	case OpApplied:
		return "applied"
	case OpDeleted:
		return "deleted"
	case OpRestarted:
		return "restarted"
	}
	return "unknown"
}

// Event is a single observation from the cluster. Applied and Deleted events
// carry Obj; Restarted events carry the full Snapshot of the kind.
type Event struct {
	Kind     Kind
	Op       Op
	Obj      runtime.Object
	Snapshot []runtime.Object
}
