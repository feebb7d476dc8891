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

package main

import (
	"fmt"
	"io"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/utils/ptr"
	"sigs.k8s.io/yaml"

	"github.com/isabella232/polixy/pkg/apis/polixy"
	polixyv1 "github.com/isabella232/polixy/pkg/apis/polixy/v1"
)

// printCRDs writes the CustomResourceDefinitions the controller consumes as
// a multi-document YAML stream.
func printCRDs(w io.Writer) error {
	for _, crd := range []*apiextensionsv1.CustomResourceDefinition{
		serverCRD(),
		authorizationCRD(),
	} {
		b, err := yaml.Marshal(crd)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "---\n%s", b); err != nil {
			return err
		}
	}
	return nil
}

func serverCRD() *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "servers." + polixy.GroupName,
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: polixy.GroupName,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     "Server",
				ListKind: "ServerList",
				Plural:   "servers",
				Singular: "server",
				ShortNames: []string{
					"srv",
				},
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				crdVersion(),
			},
		},
	}
}

func authorizationCRD() *apiextensionsv1.CustomResourceDefinition {
	return &apiextensionsv1.CustomResourceDefinition{
		TypeMeta: metav1.TypeMeta{
			APIVersion: apiextensionsv1.SchemeGroupVersion.String(),
			Kind:       "CustomResourceDefinition",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name: "authorizations." + polixy.GroupName,
		},
		Spec: apiextensionsv1.CustomResourceDefinitionSpec{
			Group: polixy.GroupName,
			Names: apiextensionsv1.CustomResourceDefinitionNames{
				Kind:     "Authorization",
				ListKind: "AuthorizationList",
				Plural:   "authorizations",
				Singular: "authorization",
				ShortNames: []string{
					"authz",
				},
			},
			Scope: apiextensionsv1.NamespaceScoped,
			Versions: []apiextensionsv1.CustomResourceDefinitionVersion{
				crdVersion(),
			},
		},
	}
}

// crdVersion is shared by both CRDs: the controller validates specs itself,
// so the schema admits any object.
func crdVersion() apiextensionsv1.CustomResourceDefinitionVersion {
	return apiextensionsv1.CustomResourceDefinitionVersion{
		Name:    polixyv1.Version,
		Served:  true,
		Storage: true,
		Schema: &apiextensionsv1.CustomResourceValidation{
			OpenAPIV3Schema: &apiextensionsv1.JSONSchemaProps{
				Type: "object",
				Properties: map[string]apiextensionsv1.JSONSchemaProps{
					"spec": {
						Type:                   "object",
						XPreserveUnknownFields: ptr.To(true),
					},
				},
			},
		},
	}
}
