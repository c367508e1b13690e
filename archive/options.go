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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type ExporterOptionFunc func(*Exporter)

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ExporterOptionFunc {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) ExporterOptionFunc {
	return func(e *Exporter) {
		e.promRegistry = registry
	}
}

// WithRegion specifies the AWS region used for s3:// targets
func WithRegion(region string) ExporterOptionFunc {
	return func(e *Exporter) {
		e.region = region
	}
}

// WithEndpoint specifies a custom S3 endpoint. This is generally used for
// testing against an S3-compatible service such as minio.
func WithEndpoint(endpoint string) ExporterOptionFunc {
	return func(e *Exporter) {
		e.endpoint = endpoint
	}
}

// WithCredentialsFile specifies the service account file used for gs://
// targets
func WithCredentialsFile(path string) ExporterOptionFunc {
	return func(e *Exporter) {
		e.credentialsFile = path
	}
}

// WithTimeout bounds how long a single export may take
func WithTimeout(timeout time.Duration) ExporterOptionFunc {
	return func(e *Exporter) {
		e.timeout = timeout
	}
}

// WithEncryption wraps each export in a sops document encrypted with the
// KMS keys named by the TICKETD_*_KMS_* environment variables
func WithEncryption(encrypt bool) ExporterOptionFunc {
	return func(e *Exporter) {
		e.encrypt = encrypt
	}
}
