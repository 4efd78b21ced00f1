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

// Package test contains test doubles of the seeder's collaborators.
package test

import (
	"context"
	"net/http"

	"github.com/crossplane/model-seeder/pkg/entityconfig"
	"github.com/crossplane/model-seeder/pkg/external/rest"
)

// MockEndpointFn mocks the Endpoint method of a rest.Client.
type MockEndpointFn func() string

// MockEntityConfigFn mocks the EntityConfig method of a rest.Client.
type MockEntityConfigFn func(ctx context.Context, typ string) (*entityconfig.TypeConfig, error)

// MockGetFn mocks the Get method of a rest.Client.
type MockGetFn func(ctx context.Context, path string) (*rest.Response, error)

// MockSendFn mocks the Send method of a rest.Client.
type MockSendFn func(ctx context.Context, method, path string, body any) ([]byte, error)

// MockCloneFn mocks the Clone method of a rest.Client.
type MockCloneFn func() rest.Client

// MockClient is a mock rest.Client for testing.
type MockClient struct {
	MockEndpoint     MockEndpointFn
	MockEntityConfig MockEntityConfigFn
	MockGet          MockGetFn
	MockSend         MockSendFn
	MockClone        MockCloneFn
}

// NewMockClient creates a new MockClient.
func NewMockClient(o ...func(*MockClient)) *MockClient {
	c := &MockClient{}
	for _, fn := range o {
		fn(c)
	}
	return c
}

// Endpoint calls the MockEndpoint function.
func (c *MockClient) Endpoint() string {
	if c.MockEndpoint != nil {
		return c.MockEndpoint()
	}
	return "http://mock"
}

// EntityConfig calls the MockEntityConfig function.
func (c *MockClient) EntityConfig(ctx context.Context, typ string) (*entityconfig.TypeConfig, error) {
	if c.MockEntityConfig != nil {
		return c.MockEntityConfig(ctx, typ)
	}
	return &entityconfig.TypeConfig{Type: typ}, nil
}

// Get calls the MockGet function. It returns a 404 response by default.
func (c *MockClient) Get(ctx context.Context, path string) (*rest.Response, error) {
	if c.MockGet != nil {
		return c.MockGet(ctx, path)
	}
	return &rest.Response{StatusCode: http.StatusNotFound}, nil
}

// Send calls the MockSend function. It returns an empty body by default.
func (c *MockClient) Send(ctx context.Context, method, path string, body any) ([]byte, error) {
	if c.MockSend != nil {
		return c.MockSend(ctx, method, path, body)
	}
	return nil, nil
}

// Clone calls the MockClone function. It returns the MockClient itself by
// default.
func (c *MockClient) Clone() rest.Client {
	if c.MockClone != nil {
		return c.MockClone()
	}
	return c
}

// WithMockEndpoint adds a MockEndpoint function to the MockClient.
func WithMockEndpoint(fn MockEndpointFn) func(*MockClient) {
	return func(c *MockClient) {
		c.MockEndpoint = fn
	}
}

// WithMockEntityConfig adds a MockEntityConfig function to the MockClient.
func WithMockEntityConfig(fn MockEntityConfigFn) func(*MockClient) {
	return func(c *MockClient) {
		c.MockEntityConfig = fn
	}
}

// WithMockGet adds a MockGet function to the MockClient.
func WithMockGet(fn MockGetFn) func(*MockClient) {
	return func(c *MockClient) {
		c.MockGet = fn
	}
}

// WithMockSend adds a MockSend function to the MockClient.
func WithMockSend(fn MockSendFn) func(*MockClient) {
	return func(c *MockClient) {
		c.MockSend = fn
	}
}

// WithMockClone adds a MockClone function to the MockClient.
func WithMockClone(fn MockCloneFn) func(*MockClient) {
	return func(c *MockClient) {
		c.MockClone = fn
	}
}

var _ rest.Client = &MockClient{}
