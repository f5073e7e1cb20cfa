package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/OrgRoute/internal/config"
	"github.com/koustreak/OrgRoute/internal/errs"
)

func TestHeaderResolver(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.TenancyConfig
		header   map[string]string
		wantID   string
		wantErr  bool
	}{
		{
			name:   "header present",
			cfg:    config.TenancyConfig{Header: "x-org", DefaultTenant: "tenant1", Fallback: config.FallbackDefault},
			header: map[string]string{"x-org": "tenant2"},
			wantID: "tenant2",
		},
		{
			name:   "header absent falls back to default tenant",
			cfg:    config.TenancyConfig{Header: "x-org", DefaultTenant: "tenant1", Fallback: config.FallbackDefault},
			wantID: "tenant1",
		},
		{
			name:    "header absent under fail-closed policy",
			cfg:     config.TenancyConfig{Header: "x-org", DefaultTenant: "tenant1", Fallback: config.FallbackReject},
			wantErr: true,
		},
		{
			name:   "header name is case-insensitive",
			cfg:    config.TenancyConfig{Header: "x-org", Fallback: config.FallbackReject},
			header: map[string]string{"X-Org": "tenant3"},
			wantID: "tenant3",
		},
		{
			name:    "empty header value treated as absent",
			cfg:     config.TenancyConfig{Header: "x-org", Fallback: config.FallbackReject},
			header:  map[string]string{"x-org": ""},
			wantErr: true,
		},
		{
			name:    "default policy without a default tenant fails closed",
			cfg:     config.TenancyConfig{Header: "x-org", Fallback: config.FallbackDefault},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewHeaderResolver(tt.cfg)

			req := httptest.NewRequest(http.MethodGet, "/users/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}

			id, err := resolver.Resolve(req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errs.IsUnknownTenant(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestNewHeaderResolver_DefaultHeaderName(t *testing.T) {
	resolver := NewHeaderResolver(config.TenancyConfig{})
	assert.Equal(t, "x-org", resolver.Header)
}

func TestResolverFunc(t *testing.T) {
	resolver := ResolverFunc(func(r *http.Request) (string, error) {
		return "tenant7", nil
	})

	id, err := resolver.Resolve(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "tenant7", id)
}
