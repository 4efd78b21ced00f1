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
	"fmt"

	"github.com/pkg/errors"
)

// ErrNoID indicates an entity has no identifier to look it up with.
var ErrNoID = errors.New("entity has no identifier")

// IsNoID returns true if the supplied error indicates an entity has no
// identifier.
func IsNoID(err error) bool {
	return errors.Is(err, ErrNoID)
}

// A ConfigError indicates the entity type configuration or the model files
// are wrong. Retrying will not help.
type ConfigError struct {
	msg string
}

func newConfigError(format string, a ...any) error {
	return &ConfigError{msg: fmt.Sprintf(format, a...)}
}

func (e *ConfigError) Error() string {
	return e.msg
}

// IsConfigError returns true if the supplied error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}
