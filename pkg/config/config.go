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

// Package config loads the configuration of a seed run.
package config

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/crossplane/model-seeder/pkg/external/rest"
	"github.com/crossplane/model-seeder/pkg/reconciler/seed"
)

// Error strings.
const (
	errRead          = "unable to read config file"
	errParse         = "unable to parse config file"
	errNoEndpoint    = "no endpoint specified in configuration"
	errEndpointFmt   = "endpoint %q is not an absolute http or https URL"
	errConfigsPath   = "entity configs path must start with a slash"
	errConcurrency   = "max concurrency must be at least one"
	errChildTimeout  = "child timeout must be positive"
	errRequestsPerS  = "requests per second must not be negative"
	errBurstFmt      = "burst must be at least one when requests are limited, got %d"
	errDuplicateHdr  = "header %q is specified more than once, ignoring case"
	errEmptyHdrValue = "header %q has no value"
)

// Config of a seed run.
type Config struct {
	// Endpoint is the base URL of the remote API.
	Endpoint string `json:"endpoint"`

	// EntityConfigsPath is where the remote API serves entity type
	// configurations.
	EntityConfigsPath string `json:"entityConfigsPath,omitempty"`

	// Headers are sent with every request, for example Authorization.
	Headers map[string]string `json:"headers,omitempty"`

	// Update existing entities that declare data.
	Update bool `json:"update,omitempty"`

	// Verify only reports what would be created or changed.
	Verify bool `json:"verify,omitempty"`

	// Strict ignores identity fields when deciding whether an entity
	// declares data.
	Strict bool `json:"strict,omitempty"`

	// MaxConcurrency bounds the number of children set up concurrently.
	MaxConcurrency int `json:"maxConcurrency,omitempty"`

	// ChildTimeout is how long a batch of children may take.
	ChildTimeout metav1.Duration `json:"childTimeout,omitempty"`

	// RequestsPerSecond limits requests to the remote API. Zero means no
	// limit.
	RequestsPerSecond float64 `json:"requestsPerSecond,omitempty"`

	// Burst is the number of requests that may exceed RequestsPerSecond.
	Burst int `json:"burst,omitempty"`

	// Variables are substituted into entities that ask for it.
	Variables map[string]string `json:"variables,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		EntityConfigsPath: rest.DefaultEntityConfigsPath,
		MaxConcurrency:    seed.DefaultMaxConcurrency(),
		ChildTimeout:      metav1.Duration{Duration: seed.DefaultChildTimeout},
		Burst:             1,
	}
}

// Load reads a Config from a YAML or JSON file. Fields the file omits keep
// their defaults.
func Load(fs afero.Fs, path string) (Config, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Config{}, errors.Wrap(err, errRead)
	}

	c := Default()
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, errors.Wrap(err, errParse)
	}
	return c, nil
}

// Validate checks if a Config is valid.
func Validate(c Config) error {
	if c.Endpoint == "" {
		return errors.New(errNoEndpoint)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.Errorf(errEndpointFmt, c.Endpoint)
	}
	if !strings.HasPrefix(c.EntityConfigsPath, "/") {
		return errors.New(errConfigsPath)
	}
	if c.MaxConcurrency < 1 {
		return errors.New(errConcurrency)
	}
	if c.ChildTimeout.Duration <= 0 {
		return errors.New(errChildTimeout)
	}
	if c.RequestsPerSecond < 0 {
		return errors.New(errRequestsPerS)
	}
	if c.RequestsPerSecond > 0 && c.Burst < 1 {
		return errors.Errorf(errBurstFmt, c.Burst)
	}

	seen := make(map[string]bool, len(c.Headers))
	for k, v := range c.Headers {
		ck := strings.ToLower(k)
		if seen[ck] {
			return errors.Errorf(errDuplicateHdr, k)
		}
		seen[ck] = true
		if strings.TrimSpace(v) == "" {
			return errors.Errorf(errEmptyHdrValue, k)
		}
	}
	return nil
}

// ReconcilerOptions returns the options of a Reconciler configured by c.
func (c Config) ReconcilerOptions() []seed.ReconcilerOption {
	return []seed.ReconcilerOption{
		seed.WithUpdate(c.Update),
		seed.WithVerify(c.Verify),
		seed.WithStrict(c.Strict),
		seed.WithMaxConcurrency(c.MaxConcurrency),
		seed.WithChildTimeout(c.ChildTimeout.Duration),
	}
}

// ClientOptions returns the options of a REST client configured by c.
func (c Config) ClientOptions() []rest.Option {
	o := []rest.Option{rest.WithEntityConfigsPath(c.EntityConfigsPath)}
	if len(c.Headers) > 0 {
		o = append(o, rest.WithHeaders(c.Headers))
	}
	if c.RequestsPerSecond > 0 {
		o = append(o, rest.WithRateLimit(c.RequestsPerSecond, c.Burst))
	}
	return o
}
