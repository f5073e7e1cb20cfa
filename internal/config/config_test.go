package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  addr: ":9090"
  read_timeout: 3s
log:
  level: debug
  format: console
tenancy:
  header: x-org
  default_tenant: tenant1
  fallback: default
executor:
  acquire_timeout: 2s
  query_timeout: 15s
bridge:
  workers: 4
  queue_size: 16
tenants:
  - id: tenant1
    driver: postgres
    host: localhost
    port: 5432
    database: tenant1_db
    user: app
    password: secret
    min_conns: 1
    max_conns: 20
  - id: tenant2
    driver: mysql
    host: localhost
    port: 3306
    database: tenant2_db
    user: app
    password: secret
    max_conns: 10
`

func TestParse_Valid(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "x-org", cfg.Tenancy.Header)
	assert.Equal(t, "tenant1", cfg.Tenancy.DefaultTenant)
	assert.Equal(t, 2*time.Second, cfg.Executor.AcquireTimeout.Std())
	assert.Equal(t, 4, cfg.Bridge.Workers)

	require.Len(t, cfg.Tenants, 2)
	assert.Equal(t, DriverPostgres, cfg.Tenants[0].Driver)
	assert.Equal(t, int32(20), cfg.Tenants[0].MaxConns)
	assert.Equal(t, DriverMySQL, cfg.Tenants[1].Driver)
}

func TestParse_DefaultsApplied(t *testing.T) {
	cfg, err := Parse([]byte(`
tenants:
  - id: tenant1
    driver: postgres
    host: localhost
    database: t1
    user: app
    password: x
`))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "x-org", cfg.Tenancy.Header)
	assert.Equal(t, FallbackDefault, cfg.Tenancy.Fallback)
	assert.Equal(t, 10, cfg.Bridge.Workers)
	assert.Equal(t, 30*time.Second, cfg.Executor.QueryTimeout.Std())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no tenants",
			yaml: `tenancy: {fallback: reject}`,
			want: "no tenants",
		},
		{
			name: "duplicate tenant id",
			yaml: `
tenants:
  - {id: tenant1, driver: postgres}
  - {id: tenant1, driver: postgres}
`,
			want: "duplicate tenant id",
		},
		{
			name: "unknown driver",
			yaml: `
tenants:
  - {id: tenant1, driver: oracle}
`,
			want: "unknown driver",
		},
		{
			name: "min over max",
			yaml: `
tenants:
  - {id: tenant1, driver: postgres, min_conns: 9, max_conns: 3}
`,
			want: "min_conns",
		},
		{
			name: "default tenant missing",
			yaml: `
tenancy: {default_tenant: tenant9, fallback: default}
tenants:
  - {id: tenant1, driver: postgres}
`,
			want: "default tenant",
		},
		{
			name: "bad fallback policy",
			yaml: `
tenancy: {fallback: maybe}
tenants:
  - {id: tenant1, driver: postgres}
`,
			want: "fallback policy",
		},
		{
			name: "bad duration",
			yaml: `
executor: {query_timeout: fast}
tenants:
  - {id: tenant1, driver: postgres}
`,
			want: "invalid config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_RejectFallbackWithoutDefaultTenant(t *testing.T) {
	// With a reject policy the default tenant does not need to exist.
	cfg, err := Parse([]byte(`
tenancy: {default_tenant: tenant9, fallback: reject}
tenants:
  - {id: tenant1, driver: postgres}
`))
	require.NoError(t, err)
	assert.Equal(t, FallbackReject, cfg.Tenancy.Fallback)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot read config file")
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "from-env.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}
