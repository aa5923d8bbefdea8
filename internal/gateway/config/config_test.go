package config

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "APP_ENV", "FLOW_STORE", "FLOW_CACHE_TTL", "EDITOR_MAX_SESSIONS", "REDIS_DB", "LOG_LEVEL", "CORS_ALLOWED_ORIGINS", "FLOW_S3_ENDPOINT"} {
		t.Setenv(key, "")
	}

	cfg, err := load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, "tmp/flows.jsonl", cfg.Store.DiskPath)
	assert.Equal(t, "flowcanvas:", cfg.Store.Redis.KeyPrefix)
	assert.Equal(t, 2*time.Minute, cfg.Cache.ListTTL)
	assert.Equal(t, 256, cfg.Editor.MaxSessions)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Equal(t, "minio:9000", cfg.Store.S3.Endpoint)
	assert.False(t, cfg.Store.S3.UseSSL)
}

func TestLoad_PortPrecedence(t *testing.T) {
	t.Setenv("PORT", "")
	cfg, err := load(newFlagSet(), []string{"-port", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)

	t.Setenv("PORT", "7000")
	cfg, err = load(newFlagSet(), []string{"-port", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Port)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("FLOW_STORE", "Redis")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("FLOW_CACHE_TTL", "30s")
	t.Setenv("FLOW_CACHE_DISABLED", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("FLOW_S3_ENDPOINT", "s3.example.com")
	t.Setenv("FLOW_S3_USE_SSL", "")

	cfg, err := load(newFlagSet(), nil)
	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, 3, cfg.Store.Redis.DB)
	assert.Equal(t, 30*time.Second, cfg.Cache.ListTTL)
	assert.True(t, cfg.Cache.Disabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, "s3.example.com", cfg.Store.S3.Endpoint)
	assert.True(t, cfg.Store.S3.UseSSL)
}

func TestLoad_RejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown store": {"FLOW_STORE", "mongo"},
		"bad redis db":  {"REDIS_DB", "two"},
		"bad ttl":       {"FLOW_CACHE_TTL", "soon"},
		"bad sessions":  {"EDITOR_MAX_SESSIONS", "many"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := load(newFlagSet(), nil)
			assert.Error(t, err)
		})
	}
}

func TestS3Config_CanUse(t *testing.T) {
	full := S3Config{Endpoint: "e", AccessKey: "a", SecretKey: "s", Bucket: "b"}
	assert.True(t, full.CanUse())
	full.SecretKey = ""
	assert.False(t, full.CanUse())
}
