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
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsSink streams the compressed export to a GCS object. Canceling the
// writer context before Close discards the object.
type gcsSink struct {
	client *storage.Client
	writer *storage.Writer
	cancel context.CancelFunc
}

func (e *Exporter) newGCSSink(ctx context.Context, target Target) (sink, error) {
	var clientOpts []option.ClientOption
	if e.credentialsFile != "" {
		if _, err := os.Stat(e.credentialsFile); err != nil {
			return nil, fmt.Errorf("gcs export: credentials file: %w", err)
		}
		clientOpts = append(
			clientOpts,
			option.WithCredentialsFile(e.credentialsFile),
		)
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("gcs export: create storage client: %w", err)
	}
	writerCtx, cancel := context.WithCancel(ctx)
	writer := client.Bucket(target.Bucket).Object(target.Key).NewWriter(writerCtx)
	writer.ContentType = contentType
	return &gcsSink{client: client, writer: writer, cancel: cancel}, nil
}

func (s *gcsSink) Write(p []byte) (int, error) {
	return s.writer.Write(p)
}

func (s *gcsSink) Commit() error {
	defer s.cancel()
	err := s.writer.Close()
	if err != nil {
		err = fmt.Errorf("gcs export: close object: %w", err)
	}
	return errors.Join(err, s.client.Close())
}

func (s *gcsSink) Abort() {
	s.cancel()
	_ = s.writer.Close()
	_ = s.client.Close()
}
