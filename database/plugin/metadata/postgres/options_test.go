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

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.host)
	assert.Equal(t, uint(5432), m.port)
	assert.Equal(t, "postgres", m.user)
	assert.Equal(t, "ticketd", m.database)
	assert.Equal(t, "disable", m.sslMode)
	assert.NotNil(t, m.logger)
}

func TestBuildDSN(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(5433),
		WithUser("u"),
		WithPassword("p"),
		WithDatabase("raffles"),
		WithSSLMode("require"),
		WithTimeZone("Europe/Berlin"),
	)
	require.NoError(t, err)
	assert.Equal(
		t,
		"host=db.local user=u password=p dbname=raffles port=5433 sslmode=require TimeZone=Europe/Berlin",
		m.buildDSN(),
	)
	m.dsn = "  postgres://u:p@h/db  "
	assert.Equal(t, "postgres://u:p@h/db", m.buildDSN())
}
