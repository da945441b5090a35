/* Copyright 2026 The Bazel Authors. All rights reserved.

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

package pathmap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v2"
)

// LoadSpec reads a Spec from a YAML (.yaml, .yml) or TOML (.toml) file,
// chosen by extension. The spec still needs Compile to become a rule
// set; parse and validation problems are both reported as SpecErrors.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	var sp Spec
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &sp); err != nil {
			return nil, &SpecError{Msg: "parsing " + path, Err: err}
		}
	case ".toml":
		if err := toml.Unmarshal(data, &sp); err != nil {
			return nil, &SpecError{Msg: "parsing " + path, Err: err}
		}
	default:
		return nil, specErrorf("unsupported rules file extension %q", ext)
	}
	return &sp, nil
}
