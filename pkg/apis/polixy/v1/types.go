// Copyright 2022 Google LLC
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

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/intstr"
)

// Server selects a port on a set of pods in the Server's namespace and
// declares how inbound connections to that port are to be handled.
// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
type Server struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	// Specification of the pods and port this Server describes.
	Spec ServerSpec `json:"spec"`
}

// ServerSpec describes a set of pod-ports and the protocol served on them.
type ServerSpec struct {
	// Selects pods in the Server's namespace by label.
	PodSelector *metav1.LabelSelector `json:"podSelector"`
	// Port identifies a port on the selected pods, either by number or by
	// container-port name.
	Port intstr.IntOrString `json:"port"`
	// ProxyProtocol hints at how the proxy should treat connections on this
	// port. One of "unknown", "HTTP/1", "HTTP/2", "gRPC", "opaque", "TLS".
	// Absent or unrecognized values fall back to protocol detection.
	// +optional
	ProxyProtocol string `json:"proxyProtocol,omitempty"`
}

// ServerList is a list of Servers.
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
type ServerList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Server `json:"items"`
}

// Authorization authorizes clients to connect to Servers in the
// Authorization's namespace.
// +genclient
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
type Authorization struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`
	Spec AuthorizationSpec `json:"spec"`
}

// AuthorizationSpec names the Servers an Authorization applies to and the
// clients it admits.
type AuthorizationSpec struct {
	// Server identifies the Servers this Authorization applies to.
	Server ServerRef `json:"server"`
	// Client describes the clients that are authorized.
	Client ClientSpec `json:"client"`
}

// ServerRef identifies Servers either by name or by label selector. Exactly
// one of the fields must be set.
type ServerRef struct {
	// +optional
	Name string `json:"name,omitempty"`
	// +optional
	Selector *metav1.LabelSelector `json:"selector,omitempty"`
}

// ClientSpec describes an authorized client. A client is either
// unauthenticated, in which case connections are admitted by source network,
// or authenticated, in which case connections must present a client identity.
type ClientSpec struct {
	// Cidrs limits the client networks this authorization admits.
	// +optional
	Cidrs []string `json:"cidrs,omitempty"`
	// Unauthenticated admits connections without TLS client identity.
	// +optional
	Unauthenticated bool `json:"unauthenticated,omitempty"`
	// Identities authorized to access a server. An identity of the form
	// "*.<suffix>" matches all identities under the suffix; "*" matches all
	// authenticated clients.
	// +optional
	Identities []string `json:"identities,omitempty"`
	// ServiceAccounts authorized to access a server.
	// +optional
	ServiceAccounts []ServiceAccountRef `json:"serviceAccounts,omitempty"`
}

// ServiceAccountRef references a Kubernetes ServiceAccount. If no namespace
// is given, the Authorization's namespace is used.
type ServiceAccountRef struct {
	// +optional
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
}

// AuthorizationList is a list of Authorizations.
// +k8s:deepcopy-gen:interfaces=k8s.io/apimachinery/pkg/runtime.Object
type AuthorizationList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Authorization `json:"items"`
}
