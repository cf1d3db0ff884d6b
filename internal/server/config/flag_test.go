package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{name: "all flags", args: []string{
			"-a", "127.0.0.1:8080", "-g", ":6000", "-store", "mongo", "-d", "db", "-m", "mongodb://m", "-n", "confs",
			"-s", "secret", "-l", "debug", "-env", "staging", "-uploads", "s3", "-upload-root", "/srv/up",
			"-u", "user", "-p", "password", "-b", "bucket", "-r", "us-west-1", "-e", "http://endpoint",
		},
			expected: &Config{
				HTTPAddr:       "127.0.0.1:8080",
				GRPCAddr:       ":6000",
				StoreDriver:    "mongo",
				DatabaseDSN:    "db",
				MongoURI:       "mongodb://m",
				DatabaseName:   "confs",
				SecretKey:      "secret",
				LogLevel:       "debug",
				Environment:    "staging",
				UploadDriver:   "s3",
				UploadRoot:     "/srv/up",
				S3RootUser:     "user",
				S3RootPassword: "password",
				S3Bucket:       "bucket",
				S3Region:       "us-west-1",
				S3BaseEndpoint: "http://endpoint",
			}},
		{name: "unknown flags are filtered out", args: []string{"-test.v", "-c", "file.yaml", "-a=:9999"},
			expected: &Config{HTTPAddr: ":9999"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
