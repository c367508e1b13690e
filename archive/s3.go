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
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Sink buffers the compressed export and uploads it on commit
type s3Sink struct {
	ctx    context.Context
	client *s3.Client
	buf    bytes.Buffer
	bucket string
	key    string
}

func (e *Exporter) newS3Sink(ctx context.Context, target Target) (sink, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 export: load default AWS config: %w", err)
	}
	if e.region != "" {
		awsCfg.Region = e.region
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if e.endpoint != "" {
			o.BaseEndpoint = aws.String(e.endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Sink{
		ctx:    ctx,
		client: client,
		bucket: target.Bucket,
		key:    target.Key,
	}, nil
}

func (s *s3Sink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *s3Sink) Commit() error {
	_, err := s.client.PutObject(s.ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(s.buf.Bytes()),
		ContentLength: aws.Int64(int64(s.buf.Len())),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 export: put %q: %w", s.key, err)
	}
	return nil
}

func (s *s3Sink) Abort() {
	s.buf.Reset()
}
