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

package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
)

func TestNewClient(t *testing.T) {
	cases := map[string]struct {
		reason   string
		endpoint string
		want     string
		err      bool
	}{
		"TrailingSlash": {
			reason:   "A trailing slash should be trimmed from the endpoint.",
			endpoint: "http://localhost:8080/api/",
			want:     "http://localhost:8080/api",
		},
		"Relative": {
			reason:   "A relative endpoint should be rejected.",
			endpoint: "/api",
			err:      true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c, err := NewClient(tc.endpoint)
			if diff := cmp.Diff(tc.err, err != nil); diff != "" {
				t.Fatalf("\n%s\nNewClient(...): -want error, +got error:\n%s", tc.reason, diff)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tc.want, c.Endpoint()); diff != "" {
				t.Errorf("\n%s\nEndpoint(): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer t" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/users/alice":
			_, _ = io.WriteString(w, `{"id":"1","name":"alice"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL+"/api", WithHeaders(map[string]string{"Authorization": "Bearer t"}))
	if err != nil {
		t.Fatalf("NewClient(...): %v", err)
	}

	cases := map[string]struct {
		reason string
		path   string
		want   *Response
	}{
		"Found": {
			reason: "A found entity should be returned with its body.",
			path:   "/users/alice",
			want:   &Response{StatusCode: http.StatusOK, Body: []byte(`{"id":"1","name":"alice"}`)},
		},
		"NotFound": {
			reason: "A missing entity should be a response, not an error.",
			path:   "users/bob",
			want:   &Response{StatusCode: http.StatusNotFound, Body: []byte{}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := c.Get(context.Background(), tc.path)
			if err != nil {
				t.Fatalf("\n%s\nGet(...): %v", tc.reason, err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("\n%s\nGet(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestSend(t *testing.T) {
	type want struct {
		body       string
		validation bool
		status     int
	}

	cases := map[string]struct {
		reason string
		status int
		method string
		want   want
	}{
		"Created": {
			reason: "A created entity should be returned.",
			status: http.StatusCreated,
			method: http.MethodPost,
			want:   want{body: `{"id":"1","name":"alice"}`},
		},
		"Conflict": {
			reason: "A conflict should be a validation error.",
			status: http.StatusConflict,
			method: http.MethodPost,
			want:   want{validation: true, status: http.StatusConflict},
		},
		"Unprocessable": {
			reason: "An unprocessable entity should be a validation error.",
			status: http.StatusUnprocessableEntity,
			method: http.MethodPut,
			want:   want{validation: true, status: http.StatusUnprocessableEntity},
		},
		"ServerError": {
			reason: "A server error should be an HTTP error that is not a validation error.",
			status: http.StatusInternalServerError,
			method: http.MethodPut,
			want:   want{status: http.StatusInternalServerError},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tc.method || r.Header.Get("Content-Type") != "application/json" {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				body := map[string]any{}
				_ = json.NewDecoder(r.Body).Decode(&body)
				body["id"] = "1"
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(body)
			}))
			defer srv.Close()

			c, _ := NewClient(srv.URL)
			got, err := c.Send(context.Background(), tc.method, "/users", map[string]any{"name": "alice"})
			g := want{validation: IsValidationError(err), status: StatusCode(err)}
			if err == nil {
				var compact map[string]any
				_ = json.Unmarshal(got, &compact)
				b, _ := json.Marshal(compact)
				g.body = string(b)
			}
			if diff := cmp.Diff(tc.want, g, cmp.AllowUnexported(want{})); diff != "" {
				t.Errorf("\n%s\nSend(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestEntityConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/configs/users":
			_, _ = io.WriteString(w, `{"updateUri":"/users/{name}","createUri":"/users"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, WithEntityConfigsPath("/configs"))

	got, err := c.EntityConfig(context.Background(), "users")
	if err != nil {
		t.Fatalf("EntityConfig(users): %v", err)
	}
	want := &entityconfig.TypeConfig{Type: "users", UpdateURI: "/users/{name}", CreateURI: "/users"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("EntityConfig(users): -want, +got:\n%s", diff)
	}

	if _, err := c.EntityConfig(context.Background(), "groups"); StatusCode(err) != http.StatusNotFound {
		t.Errorf("EntityConfig(groups): want not found error, got %v", err)
	}
}

func TestClone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "session", Value: r.URL.Query().Get("as")})
		case "/whoami":
			ck, err := r.Cookie("session")
			if err != nil {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = io.WriteString(w, ck.Value)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	c, _ := NewClient(srv.URL)
	if _, err := c.Get(ctx, "/login?as=parent"); err != nil {
		t.Fatalf("Get(login): %v", err)
	}

	clone := c.Clone()
	rsp, err := clone.Get(ctx, "/whoami")
	if err != nil {
		t.Fatalf("Get(whoami): %v", err)
	}
	if diff := cmp.Diff("parent", string(rsp.Body)); diff != "" {
		t.Errorf("Clone(): the clone should keep the session: -want, +got:\n%s", diff)
	}

	if _, err := clone.Get(ctx, "/login?as=child"); err != nil {
		t.Fatalf("Get(login): %v", err)
	}
	rsp, _ = c.Get(ctx, "/whoami")
	if diff := cmp.Diff("parent", string(rsp.Body)); diff != "" {
		t.Errorf("Clone(): the clone's cookies should not leak to the original: -want, +got:\n%s", diff)
	}
	if diff := cmp.Diff(c.Endpoint(), clone.Endpoint()); diff != "" {
		t.Errorf("Clone(): -want endpoint, +got endpoint:\n%s", diff)
	}
}

func TestRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, WithRateLimit(1, 1))
	ctx, cancel := context.WithCancel(context.Background())

	if _, err := c.Get(ctx, "/"); err != nil {
		t.Fatalf("Get(...): the first request should be within the burst: %v", err)
	}
	cancel()
	if _, err := c.Clone().Get(ctx, "/"); err == nil {
		t.Errorf("Get(...): a clone should share the exhausted limiter and fail on a cancelled context")
	}
}

func TestCloneCookieJarError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err == nil {
			w.WriteHeader(http.StatusConflict)
		}
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient(...): %v", err)
	}
	u, _ := url.Parse(srv.URL)
	c.hc.Jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "parent"}})
	c.newJar = func() (http.CookieJar, error) { return nil, errors.New("boom") }

	rsp, err := c.Clone().Get(context.Background(), "/")
	if err != nil {
		t.Fatalf("Get(...): %v", err)
	}
	if diff := cmp.Diff(http.StatusOK, rsp.StatusCode); diff != "" {
		t.Errorf("Clone(): a clone without a cookie jar should send no session: -want status, +got status:\n%s", diff)
	}
}
