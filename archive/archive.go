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

// Package archive exports the registry event journal as zstd-compressed
// JSON lines to a local file, an S3 object or a GCS object.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/ticketd/database"
	"github.com/klauspost/compress/zstd"
	"github.com/prometheus/client_golang/prometheus"
)

const contentType = "application/zstd"

// JournalSource provides the committed journal. It is satisfied by
// *database.Database.
type JournalSource interface {
	IterateJournal(
		fromSeq uint64,
		txn *database.Txn,
		fn func(database.JournalEntry) error,
	) error
}

// Line is one exported journal entry
type Line struct {
	Record json.RawMessage `json:"record"`
	Event  string          `json:"event"`
	Seq    uint64          `json:"seq"`
	Time   int64           `json:"time"`
}

// Result summarizes a finished export
type Result struct {
	Target   Target
	Entries  uint64
	FirstSeq uint64
	LastSeq  uint64
	Bytes    int64
}

type sink interface {
	io.Writer
	Commit() error
	Abort()
}

type Exporter struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	source          JournalSource
	metrics         exporterMetrics
	region          string
	endpoint        string
	credentialsFile string
	timeout         time.Duration
	encrypt         bool
}

func New(source JournalSource, opts ...ExporterOptionFunc) (*Exporter, error) {
	if source == nil {
		return nil, errors.New("journal source is required")
	}
	e := &Exporter{source: source}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e.logger = e.logger.With("component", "archive")
	e.initMetrics()
	return e, nil
}

func (e *Exporter) openSink(ctx context.Context, target Target) (sink, error) {
	switch target.Scheme {
	case SchemeFile:
		return newFileSink(target.Path)
	case SchemeS3:
		return e.newS3Sink(ctx, target)
	case SchemeGCS:
		return e.newGCSSink(ctx, target)
	default:
		return nil, fmt.Errorf("unsupported export scheme: %q", target.Scheme)
	}
}

// Export writes every journal entry from fromSeq onward to dest. The
// destination only appears once the export has completed.
func (e *Exporter) Export(
	ctx context.Context,
	dest string,
	fromSeq uint64,
) (*Result, error) {
	target, err := ParseTarget(dest)
	if err != nil {
		return nil, err
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	res, err := e.export(ctx, target, fromSeq)
	if err != nil {
		e.metrics.exports.WithLabelValues(target.Scheme, "error").Inc()
		e.logger.Error(
			"journal export failed",
			"target", target.String(),
			"error", err,
		)
		return nil, err
	}
	e.metrics.exports.WithLabelValues(target.Scheme, "ok").Inc()
	e.metrics.entries.Add(float64(res.Entries))
	e.metrics.bytes.Add(float64(res.Bytes))
	e.logger.Info(
		fmt.Sprintf(
			"exported %d journal entries to %s",
			res.Entries,
			target.String(),
		),
		"first_seq", res.FirstSeq,
		"last_seq", res.LastSeq,
		"bytes", res.Bytes,
	)
	return res, nil
}

func (e *Exporter) export(
	ctx context.Context,
	target Target,
	fromSeq uint64,
) (*Result, error) {
	out, err := e.openSink(ctx, target)
	if err != nil {
		return nil, err
	}
	counter := &countingWriter{w: out}
	var w io.Writer = counter
	var plain *bytes.Buffer
	if e.encrypt {
		// sops encrypts whole documents, so buffer the compressed stream
		plain = &bytes.Buffer{}
		w = plain
	}
	enc, err := zstd.NewWriter(w)
	if err != nil {
		out.Abort()
		return nil, err
	}
	res := &Result{Target: target}
	jsonEnc := json.NewEncoder(enc)
	err = e.source.IterateJournal(
		fromSeq,
		nil,
		func(entry database.JournalEntry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			line := Line{
				Seq:    entry.Seq,
				Time:   entry.Time,
				Event:  entry.Event,
				Record: entry.Record,
			}
			if err := jsonEnc.Encode(&line); err != nil {
				return fmt.Errorf("encode entry %d: %w", entry.Seq, err)
			}
			if res.Entries == 0 {
				res.FirstSeq = entry.Seq
			}
			res.LastSeq = entry.Seq
			res.Entries++
			return nil
		},
	)
	if err == nil {
		err = enc.Close()
	} else {
		_ = enc.Close()
	}
	if err == nil && plain != nil {
		var ciphertext []byte
		ciphertext, err = encrypt(plain.Bytes())
		if err == nil {
			_, err = counter.Write(ciphertext)
		}
	}
	if err != nil {
		out.Abort()
		return nil, err
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}
	res.Bytes = counter.n
	return res, nil
}

// Decode reads an export produced by Export and calls fn for each line.
// Encrypted exports must be passed through Decrypt first.
func Decode(r io.Reader, fn func(Line) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return err
	}
	defer dec.Close()
	jsonDec := json.NewDecoder(dec)
	for {
		var line Line
		if err := jsonDec.Decode(&line); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode export: %w", err)
		}
		if err := fn(line); err != nil {
			return err
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
