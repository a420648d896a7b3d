package main

import (
	"testing"
	"time"

	"github.com/guillermoBallester/strait/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		check   func(t *testing.T, o config.Overrides)
	}{
		{
			name: "no flags",
			args: []string{},
			check: func(t *testing.T, o config.Overrides) {
				assert.False(t, o.OTelEnabled)
				assert.Nil(t, o.DSN)
				assert.Nil(t, o.AuthorizedOwners)
				assert.Empty(t, o.AuditLog)
			},
		},
		{
			name: "dsn",
			args: []string{"--dsn", "DSN=straitdb"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.DSN)
				assert.Equal(t, "DSN=straitdb", *o.DSN)
			},
		},
		{
			name: "owners",
			args: []string{"--owners", "monitor,reporting"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.AuthorizedOwners)
				assert.Equal(t, "monitor,reporting", *o.AuthorizedOwners)
			},
		},
		{
			name: "max-rows",
			args: []string{"--max-rows", "500"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.MaxRows)
				assert.Equal(t, 500, *o.MaxRows)
			},
		},
		{
			name: "max-rows-limit",
			args: []string{"--max-rows-limit", "5000"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.MaxRowsLimit)
				assert.Equal(t, 5000, *o.MaxRowsLimit)
			},
		},
		{
			name: "query-timeout",
			args: []string{"--query-timeout", "45s"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.QueryTimeout)
				assert.Equal(t, 45*time.Second, *o.QueryTimeout)
			},
		},
		{
			name: "transport http with addr and token",
			args: []string{"--transport", "http", "--http-addr", ":9090", "--http-bearer-token", "tok"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.Transport)
				assert.Equal(t, "http", *o.Transport)
				require.NotNil(t, o.HTTPAddr)
				assert.Equal(t, ":9090", *o.HTTPAddr)
				require.NotNil(t, o.HTTPBearerToken)
				assert.Equal(t, "tok", *o.HTTPBearerToken)
			},
		},
		{
			name: "otel",
			args: []string{"--otel"},
			check: func(t *testing.T, o config.Overrides) {
				assert.True(t, o.OTelEnabled)
			},
		},
		{
			name: "audit-log",
			args: []string{"--audit-log", "/tmp/audit.ndjson"},
			check: func(t *testing.T, o config.Overrides) {
				assert.Equal(t, "/tmp/audit.ndjson", o.AuditLog)
			},
		},
		{
			name: "log-level",
			args: []string{"--log-level", "debug"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.LogLevel)
				assert.Equal(t, "debug", *o.LogLevel)
			},
		},
		{
			name: "policy-file",
			args: []string{"--policy-file", "policy.yaml"},
			check: func(t *testing.T, o config.Overrides) {
				require.NotNil(t, o.PolicyFile)
				assert.Equal(t, "policy.yaml", *o.PolicyFile)
			},
		},
		{
			name:    "unknown flag returns error",
			args:    []string{"--unknown-flag"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overrides, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, overrides)
			}
		})
	}
}

func TestRedactConnString(t *testing.T) {
	tests := []struct {
		name string
		conn string
		want string
	}{
		{
			name: "with password",
			conn: "Driver={SQL Anywhere 17};ServerName=plantdb;UID=dba;PWD=sql",
			want: "Driver={SQL Anywhere 17};ServerName=plantdb;UID=dba;PWD=***",
		},
		{
			name: "without password",
			conn: "DSN=straitdb;UID=dba",
			want: "DSN=straitdb;UID=dba",
		},
		{
			name: "lowercase key",
			conn: "dsn=straitdb;pwd=secret",
			want: "dsn=straitdb;pwd=***",
		},
		{
			name: "empty",
			conn: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, redactConnString(tt.conn))
		})
	}
}
