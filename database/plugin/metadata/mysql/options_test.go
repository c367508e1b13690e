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

package mysql

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := &MetadataStoreMysql{}
	for _, opt := range []MysqlOptionFunc{
		WithHost("db.local"),
		WithPort(3307),
		WithUser("ticketd"),
		WithPassword("secret"),
		WithDatabase("raffles"),
		WithSSLMode("true"),
		WithTimeZone("UTC"),
		WithDSN("root:secret@tcp(localhost:3306)/raffles"),
		WithLogger(logger),
		WithPromRegistry(reg),
	} {
		opt(m)
	}
	assert.Equal(t, "db.local", m.host)
	assert.Equal(t, uint(3307), m.port)
	assert.Equal(t, "ticketd", m.user)
	assert.Equal(t, "secret", m.password)
	assert.Equal(t, "raffles", m.database)
	assert.Equal(t, "true", m.sslMode)
	assert.Equal(t, "UTC", m.timeZone)
	assert.Equal(t, "root:secret@tcp(localhost:3306)/raffles", m.dsn)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, reg, m.promRegistry)
}

func TestDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.host)
	assert.Equal(t, uint(3306), m.port)
	assert.Equal(t, "root", m.user)
	assert.Equal(t, "ticketd", m.database)
	assert.NotNil(t, m.logger)
}

func TestBuildDSN(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("u"),
		WithPassword("p"),
		WithDatabase("raffles"),
		WithSSLMode("skip-verify"),
	)
	require.NoError(t, err)
	dsn, dbName := m.buildDSN()
	assert.Equal(t, "raffles", dbName)
	assert.True(t, strings.HasPrefix(dsn, "u:p@tcp(db.local:3307)/raffles?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "tls=skip-verify")

	// An explicit DSN wins, and its database name is reported
	m.dsn = "root:x@tcp(h:1)/other?parseTime=true"
	dsn, dbName = m.buildDSN()
	assert.Equal(t, "root:x@tcp(h:1)/other?parseTime=true", dsn)
	assert.Equal(t, "other", dbName)
}
