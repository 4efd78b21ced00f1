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

package manifest

import (
	"bytes"
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

const (
	errReadFmt     = "cannot read %s"
	errConvertFmt  = "cannot convert %s from YAML"
	errManifestFmt = "cannot parse manifest %s"
	errModelFmt    = "cannot resolve model %s of manifest %s"
)

// Extensions tried, in order, when resolving a name.
var extensions = []string{"", ".json", ".yaml", ".yml"}

// A NotFoundError is returned when no file exists for a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "cannot find model " + e.Name
}

// IsNotFound returns true if the supplied error indicates a name could not be
// resolved.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// A Resolver reads manifests and models from a filesystem.
type Resolver struct {
	fs   afero.Fs
	root string
}

// NewResolver returns a Resolver reading from the supplied filesystem.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{fs: fs, root: "/"}
}

// NewOsResolver returns a Resolver reading from the supplied directory.
func NewOsResolver(root string) *Resolver {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}
	return &Resolver{fs: afero.NewBasePathFs(afero.NewOsFs(), abs), root: "/"}
}

// Sub returns a Resolver rooted at the supplied directory of this one.
func (r *Resolver) Sub(dir string) *Resolver {
	dir = path.Clean("/" + dir)
	if dir == "/" {
		return r
	}
	return &Resolver{fs: afero.NewBasePathFs(r.fs, dir), root: path.Join(r.root, dir)}
}

// Path returns the canonical path of the supplied name, relative to the root
// of the outermost resolver and without extension.
func (r *Resolver) Path(name string) string {
	return path.Join(r.root, trimExt(name))
}

// Resolve returns the JSON of the supplied name. The name is tried as given,
// then with a .json, .yaml and .yml extension. YAML is converted to JSON.
func (r *Resolver) Resolve(name string) ([]byte, error) {
	for _, ext := range extensions {
		p := path.Clean("/" + name + ext)
		fi, err := r.fs.Stat(p)
		if err != nil || fi.IsDir() {
			continue
		}
		data, err := afero.ReadFile(r.fs, p)
		if err != nil {
			return nil, errors.Wrapf(err, errReadFmt, p)
		}
		if ext := path.Ext(p); ext == ".yaml" || ext == ".yml" {
			j, err := yaml.YAMLToJSON(data)
			return j, errors.Wrapf(err, errConvertFmt, p)
		}
		return data, nil
	}
	return nil, &NotFoundError{Name: path.Join(r.root, name)}
}

// BuildModel reads the supplied manifest and resolves every model it names.
// Names are resolved relative to the manifest's directory.
func (r *Resolver) BuildModel(manifest string) (*Model, error) {
	data, err := r.Resolve(manifest)
	if err != nil {
		return nil, err
	}
	names := []string{}
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, errors.Wrapf(err, errManifestFmt, manifest)
	}

	dir := path.Dir(manifest)
	m := NewModel()
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || m.Has(n) {
			continue
		}
		d, err := r.Resolve(path.Join(dir, n))
		if err != nil {
			return nil, errors.Wrapf(err, errModelFmt, n, manifest)
		}
		m.Set(n, d)
	}
	return m, nil
}

// IsManifest returns true if the supplied JSON is a non-empty array of
// strings.
func IsManifest(data []byte) bool {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return false
	}
	names := []string{}
	return json.Unmarshal(data, &names) == nil && len(names) > 0
}
