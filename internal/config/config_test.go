package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"AUTH_JWT_SECRET": "0123456789abcdef0123",
	}
}

func TestLoadFrom(t *testing.T) {
	environ := baseEnv()
	environ["DB_HOST"] = "test-host"
	environ["DB_MAX_OPEN_CONNS"] = "20"
	environ["MINIO_ENDPOINT"] = "minio:9000"
	environ["MINIO_ACCESS_KEY"] = "ak"
	environ["MINIO_SECRET_KEY"] = "sk"
	environ["MINIO_BUCKET"] = "files"
	environ["MINIO_USE_SSL"] = "true"
	environ["UPSTREAM_SERVICES"] = "media=http://media:8081,album=http://album:8083"
	environ["CORS_ALLOW_ORIGINS"] = "https://app.example.com,https://admin.example.com"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.True(t, cfg.MinIO.Enabled())
	assert.Equal(t, map[string]string{
		"media": "http://media:8081",
		"album": "http://album:8083",
	}, cfg.Upstreams)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.AllowOrigins)
}

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Zero(t, cfg.Database.StatementTimeout)
	assert.Equal(t, "localhost:8080", cfg.AppHost)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "gatewayapi", cfg.Auth.Issuer)
	assert.Equal(t, 15*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, []string{"X-Request-ID"}, cfg.CORS.ExposeHeaders)
	assert.False(t, cfg.MinIO.Enabled())
	assert.Empty(t, cfg.Upstreams)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(map[string]string)
		wantMsg string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(e map[string]string) { delete(e, "AUTH_JWT_SECRET") },
			wantMsg: "AUTH_JWT_SECRET",
		},
		{
			name:    "short jwt secret",
			mutate:  func(e map[string]string) { e["AUTH_JWT_SECRET"] = "short" },
			wantMsg: "AUTH_JWT_SECRET",
		},
		{
			name: "wildcard origin with credentials",
			mutate: func(e map[string]string) {
				e["CORS_ALLOW_ORIGINS"] = "*"
				e["CORS_ALLOW_CREDENTIALS"] = "true"
			},
			wantMsg: "wildcard origin",
		},
		{
			name:    "minio without bucket",
			mutate:  func(e map[string]string) { e["MINIO_ENDPOINT"] = "minio:9000" },
			wantMsg: "MINIO_BUCKET",
		},
		{
			name:    "upstream without scheme",
			mutate:  func(e map[string]string) { e["UPSTREAM_SERVICES"] = "media=media:8081" },
			wantMsg: "invalid url",
		},
		{
			name:    "upstream bad name",
			mutate:  func(e map[string]string) { e["UPSTREAM_SERVICES"] = "Media_Svc=http://media:8081" },
			wantMsg: "upstream name",
		},
		{
			name:    "app host with scheme",
			mutate:  func(e map[string]string) { e["APP_HOST"] = "https://api.example.com" },
			wantMsg: "APP_HOST",
		},
		{
			name:    "zero connect timeout",
			mutate:  func(e map[string]string) { e["DB_CONNECT_TIMEOUT"] = "0s" },
			wantMsg: "DB_CONNECT_TIMEOUT",
		},
		{
			name:    "bad duration",
			mutate:  func(e map[string]string) { e["AUTH_TOKEN_TTL"] = "forever" },
			wantMsg: "parse env config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			tt.mutate(environ)

			cfg, err := LoadFrom(environ)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestCORSConfig_AllowsAnyOrigin(t *testing.T) {
	assert.True(t, CORSConfig{AllowOrigins: []string{"https://a.example", " * "}}.AllowsAnyOrigin())
	assert.False(t, CORSConfig{AllowOrigins: []string{"https://a.example"}}.AllowsAnyOrigin())
}

func TestLoadFrom_UpstreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upstreams.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`services:
  media: http://media:8081
  album: http://album:8083
`), 0o600))

	environ := baseEnv()
	environ["UPSTREAM_SERVICES_FILE"] = path
	environ["UPSTREAM_SERVICES"] = "media=http://media-canary:8081,search=http://search:9200"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"media":  "http://media-canary:8081",
		"album":  "http://album:8083",
		"search": "http://search:9200",
	}, cfg.Upstreams)
}

func TestLoadFrom_UpstreamsFileErrors(t *testing.T) {
	environ := baseEnv()
	environ["UPSTREAM_SERVICES_FILE"] = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := LoadFrom(environ)
	assert.ErrorContains(t, err, "reading upstream file")

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("services: [not, a, map"), 0o600))
	environ["UPSTREAM_SERVICES_FILE"] = path
	_, err = LoadFrom(environ)
	assert.ErrorContains(t, err, "parsing upstream file")
}
