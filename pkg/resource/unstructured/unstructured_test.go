/*
Copyright 2026 The Crossplane Authors.
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at
    http://www.apache.org/licenses/LICENSE-2.0
Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package unstructured

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crossplane/model-seeder/pkg/resource"
)

func TestGetField(t *testing.T) {
	u := New("users", WithObject(map[string]any{
		"id":      json.Number("7"),
		"name":    "alice",
		"address": map[string]any{"city": "Berlin"},
		"manager": nil,
	}))

	cases := map[string]struct {
		reason string
		field  string
		want   any
		ok     bool
	}{
		"TopLevel": {
			reason: "A top level field should be returned as stored.",
			field:  "name",
			want:   "alice",
			ok:     true,
		},
		"Nested": {
			reason: "A dotted name should address a nested field.",
			field:  "address.city",
			want:   "Berlin",
			ok:     true,
		},
		"Null": {
			reason: "A null field should read as absent.",
			field:  "manager",
			ok:     false,
		},
		"Missing": {
			reason: "A missing field should read as absent.",
			field:  "email",
			ok:     false,
		},
		"ThroughScalar": {
			reason: "Addressing through a scalar should read as absent.",
			field:  "name.first",
			ok:     false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := u.GetField(tc.field)
			if diff := cmp.Diff(tc.ok, ok); diff != "" {
				t.Errorf("\n%s\nGetField(...): -want ok, +got ok:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("\n%s\nGetField(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestSetField(t *testing.T) {
	cases := map[string]struct {
		reason string
		field  string
		value  any
		want   map[string]any
	}{
		"String": {
			reason: "A string should be stored as is.",
			field:  "groupId",
			value:  "g-1",
			want:   map[string]any{"groupId": "g-1"},
		},
		"Int": {
			reason: "An int should be stored as an int64.",
			field:  "groupId",
			value:  3,
			want:   map[string]any{"groupId": int64(3)},
		},
		"Nested": {
			reason: "A dotted name should create intermediate objects.",
			field:  "owner.id",
			value:  "u-1",
			want:   map[string]any{"owner": map[string]any{"id": "u-1"}},
		},
		"Struct": {
			reason: "A struct should be stored as its JSON object.",
			field:  "owner",
			value:  struct{ ID string }{ID: "u-1"},
			want:   map[string]any{"owner": map[string]any{"ID": "u-1"}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			u := New("users")
			if err := u.SetField(tc.field, tc.value); err != nil {
				t.Fatalf("\n%s\nSetField(...): %v", tc.reason, err)
			}
			if diff := cmp.Diff(tc.want, u.Object); diff != "" {
				t.Errorf("\n%s\nSetField(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	in := `{"name":"admins","children":{"users":[{"name":"alice"}]}}`

	u := New("groups")
	if err := json.Unmarshal([]byte(in), u); err != nil {
		t.Fatalf("json.Unmarshal(...): %v", err)
	}

	wantChildren := resource.Children{"users": {json.RawMessage(`{"name":"alice"}`)}}
	if diff := cmp.Diff(wantChildren, u.GetChildren()); diff != "" {
		t.Errorf("GetChildren(): -want, +got:\n%s", diff)
	}

	out, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("json.Marshal(...): %v", err)
	}
	if diff := cmp.Diff(`{"name":"admins"}`, string(out)); diff != "" {
		t.Errorf("json.Marshal(...): children should not be serialized: -want, +got:\n%s", diff)
	}
}

func TestMergeFrom(t *testing.T) {
	cases := map[string]struct {
		reason string
		dst    *Unstructured
		src    resource.Entity
		want   map[string]any
	}{
		"Override": {
			reason: "Fields set in the source should override the destination.",
			dst:    New("users", WithObject(map[string]any{"id": "1", "name": "old"})),
			src:    New("users", WithObject(map[string]any{"name": "new"})),
			want:   map[string]any{"id": "1", "name": "new"},
		},
		"Add": {
			reason: "Fields only in the source should be added.",
			dst:    New("users", WithObject(map[string]any{"id": "1"})),
			src:    New("users", WithObject(map[string]any{"email": "a@example.com"})),
			want:   map[string]any{"id": "1", "email": "a@example.com"},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if err := resource.Merge(tc.dst, tc.src); err != nil {
				t.Fatalf("\n%s\nMerge(...): %v", tc.reason, err)
			}
			if diff := cmp.Diff(tc.want, tc.dst.Object); diff != "" {
				t.Errorf("\n%s\nMerge(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestDeepCopyEntity(t *testing.T) {
	u := New("users", WithObject(map[string]any{"address": map[string]any{"city": "Berlin"}}))
	c := u.DeepCopyEntity().(*Unstructured)
	_ = c.SetField("address.city", "Paris")

	if diff := cmp.Diff("Berlin", u.Object["address"].(map[string]any)["city"]); diff != "" {
		t.Errorf("DeepCopyEntity(): mutating the copy changed the original: -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff("users", c.GetKind()); diff != "" {
		t.Errorf("DeepCopyEntity(): -want kind, +got kind:\n%s", diff)
	}
}
