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

package seed

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/resource"
	"github.com/crossplane/model-seeder/pkg/resource/wrapper"
	"github.com/crossplane/model-seeder/pkg/test"
)

type sent struct {
	Method string
	Path   string
	Body   map[string]any
}

// sendRecorder records what is sent through a MockClient.
type sendRecorder struct {
	mu   sync.Mutex
	sent []sent
}

func (r *sendRecorder) fn(respond func(method, path string, body map[string]any) ([]byte, error)) test.MockSendFn {
	return func(_ context.Context, method, path string, body any) ([]byte, error) {
		b := asMap(body)
		r.mu.Lock()
		r.sent = append(r.sent, sent{Method: method, Path: path, Body: b})
		r.mu.Unlock()
		if respond == nil {
			return nil, nil
		}
		return respond(method, path, b)
	}
}

func (r *sendRecorder) Sent() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent
}

// mockVerifyLog records the findings of a verify run.
type mockVerifyLog struct {
	mu          sync.Mutex
	started     bool
	ended       bool
	differences []string
	creations   []string

	// compared holds the existing and requested entity of each difference.
	compared [][2]map[string]any
}

func (l *mockVerifyLog) StartLog() { l.started = true }

func (l *mockVerifyLog) LogDifference(uri string, _ Context, _ *entityconfig.TypeConfig, existing, requested *wrapper.Wrapper) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.differences = append(l.differences, uri)
	l.compared = append(l.compared, [2]map[string]any{asMap(existing.Entity()), asMap(requested.Entity())})
}

func (l *mockVerifyLog) LogCreation(uri string, _ resource.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.creations = append(l.creations, uri)
}

func (l *mockVerifyLog) EndLog() error {
	l.ended = true
	return nil
}

func asMap(v any) map[string]any {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		panic(err)
	}
	return m
}

func echoBody(_, _ string, body map[string]any) ([]byte, error) {
	return json.Marshal(body)
}

func respond(status int, body string) test.MockGetFn {
	return func(_ context.Context, _ string) (*rest.Response, error) {
		return &rest.Response{StatusCode: status, Body: []byte(body)}, nil
	}
}

func wrapModel(t *testing.T, r *Reconciler, typ, model string) *wrapper.Wrapper {
	t.Helper()
	kind, err := r.scheme.KindFor("", typ)
	if err != nil {
		t.Fatal(err)
	}
	w, err := r.wrap(kind, json.RawMessage(model))
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func usersConfig() *entityconfig.TypeConfig {
	return &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{name}", CreateURI: "/users"}
}

func TestCreateEntity(t *testing.T) {
	errBoom := &rest.HTTPError{Method: http.MethodPost, Path: "/users", StatusCode: http.StatusInternalServerError}
	errConflict := &rest.HTTPError{Method: http.MethodPost, Path: "/users", StatusCode: http.StatusConflict}

	type want struct {
		entity    map[string]any
		sent      []sent
		err       bool
		configErr bool
	}

	cases := map[string]struct {
		reason  string
		cfg     *entityconfig.TypeConfig
		model   string
		opts    []ReconcilerOption
		get     func() test.MockGetFn
		respond func(method, path string, body map[string]any) ([]byte, error)
		want    want
	}{
		"NoUpdateURI": {
			reason: "A type without update URI should always be created.",
			cfg:    &entityconfig.TypeConfig{Type: "users", CreateURI: "/users"},
			model:  `{"name":"alice"}`,
			respond: func(_, _ string, _ map[string]any) ([]byte, error) {
				return []byte(`{"id":"1","name":"alice"}`), nil
			},
			want: want{
				entity: map[string]any{"id": "1", "name": "alice"},
				sent:   []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
			},
		},
		"UpdateNotSupported": {
			reason: "A type whose update URI is NOT_SUPPORTED should always be created.",
			cfg:    &entityconfig.TypeConfig{Type: "users", UpdateURI: entityconfig.NotSupported, CreateURI: "/users"},
			model:  `{"name":"alice"}`,
			want: want{
				entity: map[string]any{"name": "alice"},
				sent:   []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
			},
		},
		"NoIdentifier": {
			reason: "An entity that cannot be looked up should be created without a lookup.",
			cfg:    &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{uuid}", CreateURI: "/users"},
			model:  `{"email":"a@example.org"}`,
			get:    func() test.MockGetFn { return respond(http.StatusInternalServerError, "") },
			want: want{
				entity: map[string]any{"email": "a@example.org"},
				sent:   []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"email": "a@example.org"}}},
			},
		},
		"NotFound": {
			reason: "An entity that does not exist should be created.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			get:    func() test.MockGetFn { return respond(http.StatusNotFound, "") },
			respond: func(_, _ string, _ map[string]any) ([]byte, error) {
				return []byte(`{"id":"1","name":"alice"}`), nil
			},
			want: want{
				entity: map[string]any{"id": "1", "name": "alice"},
				sent:   []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
			},
		},
		"CustomCreateMethod": {
			reason: "The create method of the type should be used.",
			cfg:    &entityconfig.TypeConfig{Type: "users", CreateURI: "/users/{name}", CreateMethod: "put"},
			model:  `{"name":"alice"}`,
			want: want{
				entity: map[string]any{"name": "alice"},
				sent:   []sent{{Method: http.MethodPut, Path: "/users/alice", Body: map[string]any{"name": "alice"}}},
			},
		},
		"LeaveAsIs": {
			reason: "An existing entity should be left alone when updates are off.",
			cfg:    usersConfig(),
			model:  `{"name":"alice","email":"new@example.org"}`,
			get: func() test.MockGetFn {
				return respond(http.StatusOK, `{"id":"1","name":"alice","email":"old@example.org"}`)
			},
			want: want{
				entity: map[string]any{"id": "1", "name": "alice", "email": "old@example.org"},
			},
		},
		"Update": {
			reason: "An existing entity with data should be updated with the model merged over it.",
			cfg:    usersConfig(),
			model:  `{"name":"alice","email":"new@example.org"}`,
			opts:   []ReconcilerOption{WithUpdate(true)},
			get: func() test.MockGetFn {
				return respond(http.StatusOK, `{"id":"1","name":"alice","email":"old@example.org","age":3}`)
			},
			respond: echoBody,
			want: want{
				entity: map[string]any{"id": "1", "name": "alice", "email": "new@example.org", "age": float64(3)},
				sent: []sent{{
					Method: http.MethodPut,
					Path:   "/users/alice",
					Body:   map[string]any{"id": "1", "name": "alice", "email": "new@example.org", "age": float64(3)},
				}},
			},
		},
		"UpdateNoData": {
			reason: "An existing entity that only declares its identity should not be updated in strict mode.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			opts:   []ReconcilerOption{WithUpdate(true), WithStrict(true)},
			get:    func() test.MockGetFn { return respond(http.StatusOK, `{"id":"1","name":"alice"}`) },
			want: want{
				entity: map[string]any{"id": "1", "name": "alice"},
			},
		},
		"ForceUpdate": {
			reason: "An entity with the _update directive should be updated even when updates are off.",
			cfg:    &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{name}", CreateURI: "/users", UpdateMethod: "post"},
			model:  `{"_update":true,"name":"alice","email":"new@example.org"}`,
			get: func() test.MockGetFn {
				return respond(http.StatusOK, `{"id":"1","name":"alice","email":"old@example.org"}`)
			},
			want: want{
				entity: map[string]any{"id": "1", "name": "alice", "email": "new@example.org"},
				sent: []sent{{
					Method: http.MethodPost,
					Path:   "/users/alice",
					Body:   map[string]any{"id": "1", "name": "alice", "email": "new@example.org"},
				}},
			},
		},
		"UnexpectedStatus": {
			reason: "A lookup with an unexpected status should fail.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			get:    func() test.MockGetFn { return respond(http.StatusInternalServerError, "") },
			want:   want{err: true},
		},
		"RejectedButExists": {
			reason: "A rejected entity that exists after all should be used as is.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			get: func() test.MockGetFn {
				calls := 0
				return func(_ context.Context, _ string) (*rest.Response, error) {
					calls++
					if calls == 1 {
						return &rest.Response{StatusCode: http.StatusNotFound}, nil
					}
					return &rest.Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"2","name":"alice"}`)}, nil
				}
			},
			respond: func(_, _ string, _ map[string]any) ([]byte, error) { return nil, errConflict },
			want: want{
				entity: map[string]any{"id": "2", "name": "alice"},
				sent:   []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
			},
		},
		"RejectedSkipped": {
			reason: "A rejected entity without children should be skipped.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			get:    func() test.MockGetFn { return respond(http.StatusNotFound, "") },
			respond: func(_, _ string, _ map[string]any) ([]byte, error) {
				return nil, &rest.HTTPError{StatusCode: http.StatusUnprocessableEntity}
			},
			want: want{
				sent: []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
			},
		},
		"RejectedWithChildren": {
			reason: "A rejected entity with children should fail.",
			cfg: &entityconfig.TypeConfig{
				Type:      "groups",
				UpdateURI: "/groups/{name}",
				CreateURI: "/groups",
				Children:  map[string]*entityconfig.TypeConfig{"users": usersConfig()},
			},
			model: `{"name":"admins","children":{"users":[{"name":"alice"}]}}`,
			get:   func() test.MockGetFn { return respond(http.StatusNotFound, "") },
			respond: func(_, _ string, _ map[string]any) ([]byte, error) {
				return nil, &rest.HTTPError{StatusCode: http.StatusBadRequest}
			},
			want: want{
				sent: []sent{{Method: http.MethodPost, Path: "/groups", Body: map[string]any{"name": "admins"}}},
				err:  true,
			},
		},
		"CreateFailed": {
			reason: "A create that fails for other reasons should fail.",
			cfg:    usersConfig(),
			model:  `{"name":"alice"}`,
			get:    func() test.MockGetFn { return respond(http.StatusNotFound, "") },
			respond: func(_, _ string, _ map[string]any) ([]byte, error) {
				return nil, errBoom
			},
			want: want{
				sent: []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice"}}},
				err:  true,
			},
		},
		"UnsupportedMethod": {
			reason: "A create method other than PUT or POST is a configuration error.",
			cfg:    &entityconfig.TypeConfig{Type: "users", CreateURI: "/users", CreateMethod: http.MethodPatch},
			model:  `{"name":"alice"}`,
			want:   want{err: true, configErr: true},
		},
		"NoCreateURI": {
			reason: "A type without create URI cannot create entities.",
			cfg:    &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{name}"},
			model:  `{"name":"alice"}`,
			want:   want{err: true, configErr: true},
		},
		"UnresolvedPlaceholder": {
			reason: "An update URI that cannot be resolved is a configuration error.",
			cfg:    &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{email}", CreateURI: "/users"},
			model:  `{"name":"alice"}`,
			want:   want{err: true, configErr: true},
		},
		"UndeclaredChild": {
			reason: "A child type the parent does not declare is a configuration error.",
			cfg:    &entityconfig.TypeConfig{Type: "groups", CreateURI: "/groups"},
			model:  `{"name":"admins","children":{"users":[{"name":"alice"}]}}`,
			want: want{
				sent:      []sent{{Method: http.MethodPost, Path: "/groups", Body: map[string]any{"name": "admins"}}},
				err:       true,
				configErr: true,
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &sendRecorder{}
			opts := []func(*test.MockClient){test.WithMockSend(rec.fn(tc.respond))}
			if tc.get != nil {
				opts = append(opts, test.WithMockGet(tc.get()))
			}
			c := test.NewMockClient(opts...)
			r := NewReconciler(c, tc.opts...)

			e, err := r.createEntity(context.Background(), c, tc.cfg, wrapModel(t, r, tc.cfg.GetType(), tc.model), Context{})
			got := want{sent: rec.Sent(), err: err != nil, configErr: IsConfigError(err)}
			if e != nil {
				got.entity = asMap(e)
			}
			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(want{})); diff != "" {
				t.Errorf("\n%s\ncreateEntity(...): -want, +got:\n%s\nerror: %v", tc.reason, diff, err)
			}
		})
	}
}

func TestCreateEntityRecheckFailed(t *testing.T) {
	errConflict := &rest.HTTPError{Method: http.MethodPost, Path: "/users", StatusCode: http.StatusConflict}

	calls := 0
	c := test.NewMockClient(
		test.WithMockGet(func(_ context.Context, _ string) (*rest.Response, error) {
			calls++
			if calls == 1 {
				return &rest.Response{StatusCode: http.StatusNotFound}, nil
			}
			return &rest.Response{StatusCode: http.StatusInternalServerError}, nil
		}),
		test.WithMockSend(func(_ context.Context, _, _ string, _ any) ([]byte, error) { return nil, errConflict }),
	)
	r := NewReconciler(c)

	_, err := r.createEntity(context.Background(), c, usersConfig(), wrapModel(t, r, "users", `{"name":"alice"}`), Context{})
	if diff := cmp.Diff(http.StatusConflict, rest.StatusCode(err)); diff != "" {
		t.Errorf("createEntity(...): want the rejected create as cause: -want status, +got status:\n%s\nerror: %v", diff, err)
	}
	if err == nil || !strings.Contains(err.Error(), "unexpected status 500") {
		t.Errorf("createEntity(...): want the failed existence check in the error, got %v", err)
	}
}

func TestCreateEntityVerify(t *testing.T) {
	type want struct {
		differences []string
		creations   []string
	}

	cases := map[string]struct {
		reason string
		model  string
		get    test.MockGetFn
		want   want
	}{
		"Missing": {
			reason: "A missing entity should be reported as a creation.",
			model:  `{"name":"alice"}`,
			get:    respond(http.StatusNotFound, ""),
			want:   want{creations: []string{"/users/alice"}},
		},
		"Exists": {
			reason: "An existing entity with data should be diffed.",
			model:  `{"name":"alice","email":"new@example.org"}`,
			get:    respond(http.StatusOK, `{"id":"1","name":"alice","email":"old@example.org"}`),
			want:   want{differences: []string{"/users/alice"}},
		},
		"ExistsNoData": {
			reason: "An existing entity without data should not be reported.",
			model:  `{"name":"alice"}`,
			get:    respond(http.StatusOK, `{"id":"1","name":"alice"}`),
			want:   want{},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := &sendRecorder{}
			c := test.NewMockClient(test.WithMockGet(tc.get), test.WithMockSend(rec.fn(nil)))
			l := &mockVerifyLog{}
			r := NewReconciler(c, WithVerify(true), WithUpdate(true), WithStrict(true), WithVerifyLog(l))

			if _, err := r.createEntity(context.Background(), c, usersConfig(), wrapModel(t, r, "users", tc.model), Context{}); err != nil {
				t.Fatalf("\n%s\ncreateEntity(...): %v", tc.reason, err)
			}
			got := want{differences: l.differences, creations: l.creations}
			if diff := cmp.Diff(tc.want, got, cmp.AllowUnexported(want{})); diff != "" {
				t.Errorf("\n%s\ncreateEntity(...): -want, +got:\n%s", tc.reason, diff)
			}
			if len(rec.Sent()) != 0 {
				t.Errorf("\n%s\ncreateEntity(...): verify mode should not send anything, sent %v", tc.reason, rec.Sent())
			}
		})
	}
}

func TestCreateEntityVerifySubstitution(t *testing.T) {
	c := test.NewMockClient(test.WithMockGet(respond(http.StatusOK, `{"id":"1","name":"alice","role":"admin"}`)))
	l := &test.MockListener{
		MockSubst: func(e resource.Entity) (resource.Entity, error) {
			if v, _ := e.GetField("role"); v == "${ROLE}" {
				return e, e.SetField("role", "admin")
			}
			return e, nil
		},
	}
	vl := &mockVerifyLog{}
	r := NewReconciler(c, WithVerify(true), WithListener(l), WithVerifyLog(vl))

	if _, err := r.createEntity(context.Background(), c, usersConfig(), wrapModel(t, r, "users", `{"name":"alice","role":"${ROLE}","_subst":true}`), Context{}); err != nil {
		t.Fatalf("createEntity(...): %v", err)
	}

	want := [][2]map[string]any{{
		{"id": "1", "name": "alice", "role": "admin"},
		{"name": "alice", "role": "admin"},
	}}
	if diff := cmp.Diff(want, vl.compared); diff != "" {
		t.Errorf("createEntity(...): want substituted entities compared: -want, +got:\n%s", diff)
	}
}

func TestCreateEntityListener(t *testing.T) {
	c := test.NewMockClient(test.WithMockGet(respond(http.StatusNotFound, "")))
	l := &test.MockListener{
		MockSubst: func(e resource.Entity) (resource.Entity, error) {
			return e, e.SetField("email", "alice@example.org")
		},
	}
	rec := &sendRecorder{}
	c.MockSend = rec.fn(nil)
	r := NewReconciler(c, WithListener(l))

	if _, err := r.createEntity(context.Background(), c, usersConfig(), wrapModel(t, r, "users", `{"_subst":true,"name":"alice"}`), Context{}); err != nil {
		t.Fatalf("createEntity(...): %v", err)
	}

	wantEvents := []string{
		"PreLookup /users/alice",
		"PostLookup /users/alice 404",
		"Subst users",
		"PreCreate users",
		"PostCreate users",
	}
	if diff := cmp.Diff(wantEvents, l.Events()); diff != "" {
		t.Errorf("createEntity(...): -want, +got events:\n%s", diff)
	}
	wantSent := []sent{{Method: http.MethodPost, Path: "/users", Body: map[string]any{"name": "alice", "email": "alice@example.org"}}}
	if diff := cmp.Diff(wantSent, rec.Sent()); diff != "" {
		t.Errorf("createEntity(...): -want, +got sent:\n%s", diff)
	}
}
