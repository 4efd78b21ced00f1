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

// Package rest contains the client of the remote API being seeded.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/logging"
)

// DefaultEntityConfigsPath is where entity type configurations are served.
const DefaultEntityConfigsPath = "/entityconfigs"

const (
	errParseEndpoint   = "cannot parse endpoint"
	errRelative        = "endpoint must be an absolute URL"
	errNewJar          = "cannot create cookie jar"
	errEncodeBody      = "cannot encode request body"
	errNewRequest      = "cannot create request"
	errRateLimit       = "cannot wait for rate limiter"
	errDoFmt           = "cannot %s %s"
	errReadBody        = "cannot read response body"
	errEntityConfigFmt = "cannot get entity config of type %s"
	errDecodeConfigFmt = "cannot decode entity config of type %s"
)

// A Response to a GET request.
type Response struct {
	StatusCode int
	Body       []byte
}

// A Client talks to the remote API.
type Client interface {
	// Endpoint returns the base URL of the remote API. It identifies the
	// remote API across clones of a client.
	Endpoint() string

	// EntityConfig returns the configuration of the supplied entity type.
	EntityConfig(ctx context.Context, typ string) (*entityconfig.TypeConfig, error)

	// Get the supplied path. Any HTTP status is a valid response.
	Get(ctx context.Context, path string) (*Response, error)

	// Send the JSON encoding of body to the supplied path using the supplied
	// method. A status of 300 or above is an *HTTPError.
	Send(ctx context.Context, method, path string, body any) ([]byte, error)

	// Clone returns a client with its own copy of this client's session.
	Clone() Client
}

// An Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client. Its cookie jar, if any, is
// replaced.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		cp := *hc
		c.hc = &cp
	}
}

// WithHeaders sets headers sent with every request.
func WithHeaders(h map[string]string) Option {
	return func(c *HTTPClient) {
		for k, v := range h {
			c.headers.Set(k, v)
		}
	}
}

// WithEntityConfigsPath sets where entity type configurations are served.
func WithEntityConfigsPath(p string) Option {
	return func(c *HTTPClient) {
		if p != "" {
			c.entityConfigsPath = p
		}
	}
}

// WithRateLimit limits requests to the supplied rate. The limit is shared by
// all clones of the client. A rate of zero or less disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *HTTPClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the logger of the client.
func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) {
		c.log = l
	}
}

// An HTTPClient is a Client of a JSON REST API. It keeps a session in a cookie
// jar.
type HTTPClient struct {
	hc                *http.Client
	base              *url.URL
	api               string
	entityConfigsPath string
	headers           http.Header
	limiter           *rate.Limiter
	log               logging.Logger
	newJar            func() (http.CookieJar, error)
}

func newCookieJar() (http.CookieJar, error) {
	return cookiejar.New(nil)
}

// NewClient returns a client of the API at the supplied endpoint.
func NewClient(endpoint string, o ...Option) (*HTTPClient, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrap(err, errParseEndpoint)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.New(errRelative)
	}

	c := &HTTPClient{
		hc:                &http.Client{},
		base:              u,
		api:               strings.TrimSuffix(endpoint, "/"),
		entityConfigsPath: DefaultEntityConfigsPath,
		headers:           http.Header{},
		log:               logging.NewNopLogger(),
		newJar:            newCookieJar,
	}
	for _, fn := range o {
		fn(c)
	}

	jar, err := c.newJar()
	if err != nil {
		return nil, errors.Wrap(err, errNewJar)
	}
	c.hc.Jar = jar
	c.log = c.log.WithValues("endpoint", c.api)
	return c, nil
}

// Endpoint returns the base URL of the remote API.
func (c *HTTPClient) Endpoint() string {
	return c.api
}

// Clone returns a client that starts with a copy of this client's cookies.
// Cookies set later on either client are not shared. A clone whose cookie jar
// cannot be created keeps no cookies at all.
func (c *HTTPClient) Clone() Client {
	cp := *c
	hc := *c.hc
	jar, err := c.newJar()
	if err != nil {
		c.log.Info("Cannot copy session, clone starts without cookies", "error", errors.Wrap(err, errNewJar))
		jar = nil
	}
	if jar != nil && c.hc.Jar != nil {
		jar.SetCookies(c.base, c.hc.Jar.Cookies(c.base))
	}
	hc.Jar = jar
	cp.hc = &hc
	cp.headers = c.headers.Clone()
	return &cp
}

func (c *HTTPClient) apipath(path string) string {
	return c.api + "/" + strings.TrimPrefix(path, "/")
}

// EntityConfig returns the configuration of the supplied entity type.
func (c *HTTPClient) EntityConfig(ctx context.Context, typ string) (*entityconfig.TypeConfig, error) {
	path := strings.TrimSuffix(c.entityConfigsPath, "/") + "/" + url.PathEscape(typ)
	rsp, err := c.Get(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, errEntityConfigFmt, typ)
	}
	if rsp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(newHTTPError(http.MethodGet, path, rsp.StatusCode, rsp.Body), errEntityConfigFmt, typ)
	}
	cfg := &entityconfig.TypeConfig{}
	if err := json.Unmarshal(rsp.Body, cfg); err != nil {
		return nil, errors.Wrapf(err, errDecodeConfigFmt, typ)
	}
	if cfg.Type == "" {
		cfg.Type = typ
	}
	return cfg, nil
}

// Get the supplied path.
func (c *HTTPClient) Get(ctx context.Context, path string) (*Response, error) {
	code, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: code, Body: body}, nil
}

// Send the JSON encoding of body to the supplied path.
func (c *HTTPClient) Send(ctx context.Context, method, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errEncodeBody)
	}
	code, rsp, err := c.do(ctx, method, path, data)
	if err != nil {
		return nil, err
	}
	if code >= http.StatusMultipleChoices {
		return nil, newHTTPError(method, path, code, rsp)
	}
	return rsp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, errors.Wrap(err, errRateLimit)
		}
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apipath(path), r)
	if err != nil {
		return 0, nil, errors.Wrap(err, errNewRequest)
	}
	for k, v := range c.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rsp, err := c.hc.Do(req)
	if err != nil {
		return 0, nil, errors.Wrapf(err, errDoFmt, method, path)
	}
	defer rsp.Body.Close() //nolint:errcheck // Nothing to do if closing fails.

	data, err := io.ReadAll(rsp.Body)
	if err != nil {
		return 0, nil, errors.Wrap(err, errReadBody)
	}
	c.log.Debug("Request complete", "method", method, "path", path, "status", rsp.StatusCode)
	return rsp.StatusCode, data, nil
}

var _ Client = &HTTPClient{}
