package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":5000", c.HTTPAddr)
	assert.Equal(t, ":50051", c.GRPCAddr)
	assert.Equal(t, DriverPostgres, c.StoreDriver)
	assert.Equal(t, "conference_db", c.DatabaseName)
	assert.Equal(t, 10*time.Second, c.StoreTimeout)
	assert.Equal(t, 5*time.Second, c.MongoServerSelectionTimeout)
	assert.Equal(t, 10*time.Second, c.MongoConnectTimeout)
	assert.Equal(t, DefaultSecretKey, c.SecretKey)
	assert.Equal(t, 7*24*time.Hour, c.SessionLifetime)
	assert.Equal(t, UploadFS, c.UploadDriver)
	assert.Equal(t, "./static/uploads", c.UploadRoot)
	assert.Equal(t, 0.7, c.PaymentSuccessRate)
	assert.True(t, c.MetricsEnabled)
	require.NoError(t, c.Validate())
}

func TestLoad_UsesDefaultsWithoutInput(t *testing.T) {
	c, err := Load(nil, envMap(nil))
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, &want, c)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "confkeeper.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_addr: ":7000"
store_driver: mongo
mongodb_uri: mongodb://file:27017
database_name: from_file
log_level: debug
store_timeout: 3s
`), 0o600))

	env := envMap(map[string]string{
		"HTTP_ADDR":     ":7100",
		"DATABASE_NAME": "from_env",
	})
	args := []string{"-c", path, "-a", ":7200"}

	c, err := Load(args, env)
	require.NoError(t, err)

	assert.Equal(t, ":7200", c.HTTPAddr, "flags beat env and file")
	assert.Equal(t, "from_env", c.DatabaseName, "env beats file")
	assert.Equal(t, DriverMongo, c.StoreDriver, "file beats defaults")
	assert.Equal(t, "mongodb://file:27017", c.MongoURI)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 3*time.Second, c.StoreTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "nope.json")}, envMap(nil))
		require.Error(t, err)
	})

	t.Run("bad env duration", func(t *testing.T) {
		_, err := Load(nil, envMap(map[string]string{"STORE_TIMEOUT": "soon"}))
		require.Error(t, err)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := Load([]string{"-store", "sqlite"}, envMap(nil))
		require.ErrorContains(t, err, "unknown store driver")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "empty dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: "database DSN"},
		{name: "mongo without uri", mutate: func(c *Config) { c.StoreDriver = DriverMongo; c.MongoURI = "" }, wantErr: "mongo URI"},
		{name: "bad upload driver", mutate: func(c *Config) { c.UploadDriver = "ftp" }, wantErr: "upload driver"},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: "secret key"},
		{name: "dev secret in production", mutate: func(c *Config) { c.Environment = "production" }, wantErr: "production"},
		{name: "production with real secret", mutate: func(c *Config) { c.Environment = "production"; c.SecretKey = "s3cr3t" }},
		{name: "rate above one", mutate: func(c *Config) { c.PaymentSuccessRate = 1.5 }, wantErr: "payment success rate"},
		{name: "zero timeout", mutate: func(c *Config) { c.StoreTimeout = 0 }, wantErr: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
