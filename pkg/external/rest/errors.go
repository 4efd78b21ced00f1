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
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// An HTTPError is returned when the remote API answers with a status of 300
// or above.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newHTTPError(method, path string, code int, body []byte) *HTTPError {
	return &HTTPError{Method: method, Path: path, StatusCode: code, Body: string(body)}
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: %s (status code = %d)", e.Method, e.Path, http.StatusText(e.StatusCode), e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Validation reports whether the remote API rejected the request body.
func (e *HTTPError) Validation() bool {
	switch e.StatusCode {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// IsValidationError returns true if the supplied error indicates the remote
// API rejected a request body, usually because the entity already exists or
// is invalid.
func IsValidationError(err error) bool {
	var h *HTTPError
	return errors.As(err, &h) && h.Validation()
}

// StatusCode returns the HTTP status of the supplied error, or 0 if it is not
// an *HTTPError.
func StatusCode(err error) int {
	var h *HTTPError
	if errors.As(err, &h) {
		return h.StatusCode
	}
	return 0
}
