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

// Package fakeapi contains an in-memory REST API that behaves like the remote
// APIs the seeder talks to. It serves entity type configurations and stores
// entities by path.
//
// Entities sent to a collection path are created with a generated id, unless
// they carry one, and are then addressable at <collection>/<id> and, if they
// have a name, <collection>/<name>. Entities sent to an existing entity's
// path update it. Creating an entity whose name is already taken in its
// collection is a conflict.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/resource"
)

// EntityConfigsPath is where entity type configurations are served.
const EntityConfigsPath = "/entityconfigs"

// A FailureFn may fail a create or update request by returning an HTTP status.
// It returns 0 to let the request through.
type FailureFn func(method, path string, body map[string]any) int

// A Request received by the Server.
type Request struct {
	Method string
	Path   string
}

// An Option configures a Server.
type Option func(*Server)

// WithTypeConfigs serves the supplied entity type configurations.
func WithTypeConfigs(cfgs ...*entityconfig.TypeConfig) Option {
	return func(s *Server) {
		for _, c := range cfgs {
			s.configs[c.GetType()] = c
		}
	}
}

// WithObject stores the supplied entity at the supplied path.
func WithObject(p string, o map[string]any) Option {
	return func(s *Server) {
		s.objects[path.Clean(p)] = o
	}
}

// WithDelay delays every request by the supplied duration.
func WithDelay(d time.Duration) Option {
	return func(s *Server) {
		s.delay = d
	}
}

// WithFailure lets the supplied function fail create and update requests.
func WithFailure(fn FailureFn) Option {
	return func(s *Server) {
		s.fail = fn
	}
}

// A Server is an in-memory REST API.
type Server struct {
	echo *echo.Echo

	delay time.Duration
	fail  FailureFn

	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	// mu protects everything below.
	mu       sync.Mutex
	configs  map[string]*entityconfig.TypeConfig
	objects  map[string]map[string]any
	requests []Request
}

// New returns a new Server.
func New(o ...Option) *Server {
	s := &Server{
		echo:    echo.New(),
		configs: make(map[string]*entityconfig.TypeConfig),
		objects: make(map[string]map[string]any),
	}
	for _, fn := range o {
		fn(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(s.track)
	s.echo.GET(EntityConfigsPath+"/:type", s.entityConfig)
	s.echo.Any("/*", s.entity)
	return s
}

// Echo returns the underlying echo server.
func (s *Server) Echo() *echo.Echo { return s.echo }

// ServeHTTP serves the API.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Requests returns the requests received so far, in order of arrival.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns the number of requests received with the supplied method.
func (s *Server) Count(method string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method {
			n++
		}
	}
	return n
}

// MaxInFlight returns the highest number of requests served concurrently.
func (s *Server) MaxInFlight() int64 {
	return s.maxInFlight.Load()
}

// Object returns a copy of the entity stored at the supplied path.
func (s *Server) Object(p string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[path.Clean(p)]
	if !ok {
		return nil, false
	}
	return clone(o), true
}

func (s *Server) track(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		n := s.inFlight.Add(1)
		defer s.inFlight.Add(-1)
		for {
			m := s.maxInFlight.Load()
			if n <= m || s.maxInFlight.CompareAndSwap(m, n) {
				break
			}
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: c.Request().Method, Path: c.Request().URL.Path})
		s.mu.Unlock()

		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		return next(c)
	}
}

func (s *Server) entityConfig(c echo.Context) error {
	s.mu.Lock()
	cfg, ok := s.configs[c.Param("type")]
	s.mu.Unlock()
	if !ok {
		return c.JSON(http.StatusNotFound, message("unknown entity type"))
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) entity(c echo.Context) error {
	p := path.Clean(c.Request().URL.Path)
	method := c.Request().Method

	switch method {
	case http.MethodGet:
		o, ok := s.Object(p)
		if !ok {
			return c.JSON(http.StatusNotFound, message("not found"))
		}
		return c.JSON(http.StatusOK, o)
	case http.MethodPost, http.MethodPut:
	default:
		return c.JSON(http.StatusMethodNotAllowed, message("method not allowed"))
	}

	body := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, message("malformed entity"))
	}
	if s.fail != nil {
		if code := s.fail(method, p, body); code != 0 {
			return c.JSON(code, message("rejected"))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.objects[p]; ok {
		for k, v := range body {
			o[k] = v
		}
		return c.JSON(http.StatusOK, clone(o))
	}

	name, _ := body[resource.FieldName].(string)
	if name != "" {
		if _, ok := s.objects[path.Join(p, name)]; ok {
			return c.JSON(http.StatusConflict, message("name already taken"))
		}
	}
	id, _ := resource.FormatValue(body[resource.FieldID])
	if id == "" {
		id = uuid.NewString()
		body[resource.FieldID] = id
	}
	s.objects[path.Join(p, id)] = body
	if name != "" {
		s.objects[path.Join(p, name)] = body
	}
	return c.JSON(http.StatusCreated, clone(body))
}

func message(m string) map[string]string {
	return map[string]string{"message": m}
}

func clone(o map[string]any) map[string]any {
	out := make(map[string]any, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
