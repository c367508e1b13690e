// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"errors"
	"fmt"
	"strings"
)

const (
	SchemeFile = "file"
	SchemeS3   = "s3"
	SchemeGCS  = "gs"
)

// Target identifies where an export is written
type Target struct {
	Scheme string
	// Path is set for file targets
	Path   string
	Bucket string
	Key    string
}

func (t Target) String() string {
	if t.Scheme == SchemeFile {
		return t.Path
	}
	return t.Scheme + "://" + t.Bucket + "/" + t.Key
}

// ParseTarget parses an export destination. Accepted forms are a plain
// path, file://<path>, s3://<bucket>/<key> and gs://<bucket>/<object>.
// gcs:// is accepted as an alias for gs://.
func ParseTarget(dest string) (Target, error) {
	if dest == "" {
		return Target{}, errors.New("export destination not set")
	}
	scheme, rest, ok := strings.Cut(dest, "://")
	if !ok {
		return Target{Scheme: SchemeFile, Path: dest}, nil
	}
	switch scheme {
	case SchemeFile:
		if rest == "" {
			return Target{}, fmt.Errorf("invalid file destination: %q", dest)
		}
		return Target{Scheme: SchemeFile, Path: rest}, nil
	case SchemeS3, SchemeGCS, "gcs":
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return Target{}, fmt.Errorf("missing bucket in destination: %q", dest)
		}
		if key == "" || strings.HasSuffix(key, "/") {
			return Target{}, fmt.Errorf("missing object key in destination: %q", dest)
		}
		if scheme == "gcs" {
			scheme = SchemeGCS
		}
		return Target{Scheme: scheme, Bucket: bucket, Key: key}, nil
	default:
		return Target{}, fmt.Errorf("unsupported export scheme: %q", scheme)
	}
}
